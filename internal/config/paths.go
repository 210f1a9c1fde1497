package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Paths contains all the application paths.
// This is the single source of truth for ALL file paths in the pipeline.
type Paths struct {
	ExecutableDir string
	DataDir       string
	ArchivesDir   string
	RawDir        string
	TickersDir    string
	UniverseDir   string
	SrcDir        string
	StateDir      string
	LogsDir       string
	MapFilesDir   string

	// Durable state files
	LedgerFile   string
	LastRunFile  string
	EmptyLogFile string
	LockFile     string

	// Store files
	MasterCSV        string
	PeriodsCSV       string
	PeriodsWeightCSV string
}

// GetPaths returns the application paths relative to the executable location.
// All paths are ALWAYS relative to the executable directory, never the
// current working directory.
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %v", err)
	}

	// Resolve symlinks to get the actual executable location
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %v", err)
	}

	return NewPaths(filepath.Dir(exe)), nil
}

// NewPaths builds the directory layout anchored at baseDir:
//
//	baseDir/
//	  ├── data/
//	  │   ├── archives/   (downloaded zip archives)
//	  │   │   └── raw/    (extracted members awaiting conversion)
//	  │   ├── tickers/    (per-symbol stores)
//	  │   ├── universe/   (per-process-date stores)
//	  │   ├── src/        (master store + period aggregates)
//	  │   └── state/      (ledger, last-run summary, empty-log, run lock)
//	  ├── map_files/      (optional symbol allow-list)
//	  └── logs/
func NewPaths(baseDir string) *Paths {
	return newPathsLayout(baseDir,
		filepath.Join(baseDir, DefaultDataDir),
		filepath.Join(baseDir, DefaultLogsDir))
}

// WithOverrides returns the layout with any configured directory overrides
// applied. Relative overrides stay anchored at the executable directory, so
// a cron deployment can point the data tree at a larger mount without
// changing where the binary and its config live.
func (p *Paths) WithOverrides(o PathsConfig) *Paths {
	base := p.ExecutableDir
	if o.ExecutableDir != "" {
		base = o.ExecutableDir
	}

	dataDir := filepath.Join(base, DefaultDataDir)
	if o.DataDir != "" {
		dataDir = anchorDir(base, o.DataDir)
	}
	logsDir := filepath.Join(base, DefaultLogsDir)
	if o.LogsDir != "" {
		logsDir = anchorDir(base, o.LogsDir)
	}

	return newPathsLayout(base, dataDir, logsDir)
}

func anchorDir(base, dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(base, dir)
}

func newPathsLayout(baseDir, dataDir, logsDir string) *Paths {
	archivesDir := filepath.Join(dataDir, ArchivesDirName)
	srcDir := filepath.Join(dataDir, SrcDirName)
	stateDir := filepath.Join(dataDir, StateDirName)

	return &Paths{
		ExecutableDir: baseDir,
		DataDir:       dataDir,
		ArchivesDir:   archivesDir,
		RawDir:        filepath.Join(archivesDir, RawDirName),
		TickersDir:    filepath.Join(dataDir, TickersDirName),
		UniverseDir:   filepath.Join(dataDir, UniverseDirName),
		SrcDir:        srcDir,
		StateDir:      stateDir,
		LogsDir:       logsDir,
		MapFilesDir:   filepath.Join(baseDir, MapFilesDirName),

		LedgerFile:   filepath.Join(stateDir, LedgerFileName),
		LastRunFile:  filepath.Join(stateDir, LastRunFileName),
		EmptyLogFile: filepath.Join(stateDir, EmptyLogName),
		LockFile:     filepath.Join(stateDir, LockFileName),

		MasterCSV:        filepath.Join(srcDir, MasterCSVName),
		PeriodsCSV:       filepath.Join(srcDir, PeriodsCSVName),
		PeriodsWeightCSV: filepath.Join(srcDir, PeriodsWeightCSVName),
	}
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.ArchivesDir,
		p.RawDir,
		p.TickersDir,
		p.UniverseDir,
		p.SrcDir,
		p.StateDir,
		p.LogsDir,
	}

	logger := slog.Default()

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}

		if logger != nil {
			logger.Debug("Ensured directory exists",
				slog.String("directory", dir))
		}
	}

	return nil
}

// RelativeToData rewrites an absolute path under the data directory as a
// relative one for operator-facing logs. Paths outside the data directory
// are returned unchanged.
func (p *Paths) RelativeToData(path string) string {
	rel, err := filepath.Rel(p.DataDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}

// GetArchivePath returns the landing path for a downloaded archive
func (p *Paths) GetArchivePath(filename string) string {
	return filepath.Join(p.ArchivesDir, filename)
}

// GetRawMemberDir returns the extraction directory for one archive's members
func (p *Paths) GetRawMemberDir(archiveStem string) string {
	return filepath.Join(p.RawDir, archiveStem)
}

// GetTickerCSVPath returns the per-symbol store path (e.g. GME.csv)
func (p *Paths) GetTickerCSVPath(symbol string) string {
	return filepath.Join(p.TickersDir, fmt.Sprintf("%s.csv", symbol))
}

// GetUniverseCSVPath returns the per-process-date store path (e.g. 20240131.csv)
func (p *Paths) GetUniverseCSVPath(processDate time.Time) string {
	return filepath.Join(p.UniverseDir, fmt.Sprintf("%s.csv", processDate.Format("20060102")))
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
