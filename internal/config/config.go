package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Source     SourceConfig     `yaml:"source" envconfig:"SOURCE"`
	Fetch      FetchConfig      `yaml:"fetch" envconfig:"FETCH"`
	Processing ProcessingConfig `yaml:"processing" envconfig:"PROCESSING"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Paths      PathsConfig      `yaml:"paths" envconfig:"PATHS"`
}

// SourceConfig describes the remote publisher index that lists the
// downloadable disclosure archives.
type SourceConfig struct {
	IndexURL    string        `yaml:"index_url" envconfig:"INDEX_URL" validate:"required,url"`
	Referer     string        `yaml:"referer" envconfig:"REFERER" validate:"omitempty,url"`
	UserAgent   string        `yaml:"user_agent" envconfig:"USER_AGENT" validate:"required"`
	NavTimeout  time.Duration `yaml:"nav_timeout" envconfig:"NAV_TIMEOUT" validate:"min=1s"`
	ArchiveGlob string        `yaml:"archive_glob" envconfig:"ARCHIVE_GLOB" validate:"required"`
	// Limit caps how many new archives one run may fetch. Zero means no cap.
	Limit int `yaml:"limit" envconfig:"LIMIT" validate:"min=0"`
}

// FetchConfig contains download tuning
type FetchConfig struct {
	Concurrency int           `yaml:"concurrency" envconfig:"CONCURRENCY" validate:"min=1,max=64"`
	MaxRetries  int           `yaml:"max_retries" envconfig:"MAX_RETRIES" validate:"min=1,max=20"`
	RetryBase   time.Duration `yaml:"retry_base" envconfig:"RETRY_BASE" validate:"min=100ms"`
	Timeout     time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"min=1s"`
	RPS         float64       `yaml:"rps" envconfig:"RPS" validate:"gt=0"`
	Burst       int           `yaml:"burst" envconfig:"BURST" validate:"min=1"`
}

// ProcessingConfig contains normalization and merge tuning
type ProcessingConfig struct {
	Workers   int    `yaml:"workers" envconfig:"WORKERS" validate:"min=1,max=32"`
	Delimiter string `yaml:"delimiter" envconfig:"DELIMITER" validate:"required,delimiter"`
	// MapFileDir optionally restricts per-ticker stores to the symbols named
	// by the CSV file stems found there. Empty disables the filter.
	MapFileDir string `yaml:"map_file_dir" envconfig:"MAP_FILE_DIR"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=stdout file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	ExecutableDir string `yaml:"executable_dir" envconfig:"EXECUTABLE_DIR"`
	DataDir       string `yaml:"data_dir" envconfig:"DATA_DIR"`
	LogsDir       string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// validate is the shared validator instance for configuration structs
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// The record splitter must be a single rune so field positions stay
	// unambiguous across source eras.
	_ = v.RegisterValidation("delimiter", func(fl validator.FieldLevel) bool {
		return utf8.RuneCountInString(fl.Field().String()) == 1
	})
	return v
}

// Load loads configuration from defaults, an optional config file, and
// environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	cfg := Default()

	if configFile := getConfigFilePath(); configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Environment variables win over file values
	if err := envconfig.Process("FTD", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads configuration from a YAML file over cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

// normalize backfills fields a sparse config file may have blanked
func (c *Config) normalize() {
	def := Default()

	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = def.Logging.Format
	}
	if c.Logging.Output == "" {
		c.Logging.Output = def.Logging.Output
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = def.Logging.FilePath
	}
	if c.Source.ArchiveGlob == "" {
		c.Source.ArchiveGlob = def.Source.ArchiveGlob
	}
	c.Processing.Delimiter = strings.TrimSpace(c.Processing.Delimiter)
	if c.Processing.Delimiter == "" {
		c.Processing.Delimiter = def.Processing.Delimiter
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return fmt.Errorf("config is not validatable: %w", err)
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// AnchorLogPath resolves a relative logging file path under the layout's
// logs directory, so where log records land never depends on the working
// directory.
func (c *Config) AnchorLogPath(p *Paths) {
	if c.Logging.FilePath == "" || filepath.IsAbs(c.Logging.FilePath) {
		return
	}
	c.Logging.FilePath = p.GetLogPath(c.Logging.FilePath)
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	// Working-directory locations serve development runs; the
	// executable-anchored ones serve cron, where the working directory is
	// wherever the scheduler left it.
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		locations = append(locations,
			filepath.Join(dir, "config.yaml"),
			filepath.Join(dir, "configs", "config.yaml"))
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			IndexURL:    DefaultIndexURL,
			Referer:     DefaultReferer,
			UserAgent:   DefaultUserAgent,
			NavTimeout:  30 * time.Second,
			ArchiveGlob: ".zip",
			Limit:       0,
		},
		Fetch: FetchConfig{
			Concurrency: 8,
			MaxRetries:  5,
			RetryBase:   time.Second,
			Timeout:     120 * time.Second,
			RPS:         4,
			Burst:       4,
		},
		Processing: ProcessingConfig{
			Workers:   4,
			Delimiter: "|",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: "pipeline.log",
		},
		Paths: PathsConfig{
			DataDir: "data",
			LogsDir: "logs",
		},
	}
}
