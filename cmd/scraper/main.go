package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"ftdcli/internal/config"
	"ftdcli/internal/infrastructure"
	"ftdcli/internal/pipeline"
	"ftdcli/internal/scraper"
	"ftdcli/pkg/contracts"
)

func main() {
	// Panic recovery at the very start so crashes always reach the log
	var logger *slog.Logger
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("PANIC RECOVERED: %v\n", r)
			fmt.Printf("Stack trace:\n%s\n", debug.Stack())
			if logger != nil {
				logger.Error("Scraper panicked",
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())))
			}
			os.Exit(1)
		}
	}()

	headless := flag.Bool("headless", true, "run the discovery browser headless")
	limit := flag.Int("limit", 0, "cap new fetches this run (0 keeps the configured limit)")
	indexURL := flag.String("index", "", "override the publisher index page URL")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	paths, err := config.GetPaths()
	if err != nil {
		fmt.Printf("Error: Failed to initialize paths: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Warning: Failed to load config, using defaults: %v\n", err)
		cfg = config.Default()
	}
	paths = paths.WithOverrides(cfg.Paths)
	cfg.AnchorLogPath(paths)
	if *limit > 0 {
		cfg.Source.Limit = *limit
	}
	if *indexURL != "" {
		cfg.Source.IndexURL = *indexURL
	}

	if err := paths.EnsureDirectories(); err != nil {
		fmt.Printf("Error: Failed to create required directories: %v\n", err)
		os.Exit(1)
	}

	var logErr error
	logger, logErr = infrastructure.InitializeLogger(cfg.Logging)
	if logErr != nil {
		fmt.Printf("Warning: Failed to initialize logger, using default: %v\n", logErr)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	logger.Info("Archive scraper starting",
		slog.String("version", contracts.Version),
		slog.String("index_url", cfg.Source.IndexURL),
		slog.Bool("headless", *headless),
		slog.Int("limit", cfg.Source.Limit),
		slog.String("executable_dir", paths.ExecutableDir))

	lock := pipeline.NewRunLock(paths.LockFile, logger)
	if err := lock.Acquire(); err != nil {
		infrastructure.WithError(logger, err).Error("Run lock unavailable")
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer lock.Release()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = infrastructure.EnsureTraceID(ctx)

	source := scraper.NewChromeSource(cfg.Source, *headless, infrastructure.WithComponent(logger, "scraper"))
	runner := pipeline.NewRunner(cfg, paths, source, logger)

	summary, runErr := runner.RunFetch(ctx)
	summary.Render(os.Stdout)
	if runErr != nil {
		infrastructure.WithError(logger, runErr).Error("Fetch run failed")
		fmt.Printf("Error: %v\n", runErr)
		os.Exit(1)
	}

	fmt.Printf("Fetch complete: %d new archives, %d already ledgered, %d failures\n",
		summary.Fetched, summary.Known, summary.Failures)
}
