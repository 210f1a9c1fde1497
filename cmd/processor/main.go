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
				logger.Error("Processor panicked",
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())))
			}
			os.Exit(1)
		}
	}()

	workers := flag.Int("workers", 0, "concurrent source conversions (0 keeps the configured count)")
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
	if *workers > 0 {
		cfg.Processing.Workers = *workers
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

	logger.Info("Source processor starting",
		slog.String("version", contracts.Version),
		slog.Int("workers", cfg.Processing.Workers),
		slog.String("delimiter", cfg.Processing.Delimiter),
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

	// No link source: this binary only converts what is already on disk.
	runner := pipeline.NewRunner(cfg, paths, nil, logger)

	summary, runErr := runner.RunProcess(ctx)
	summary.Render(os.Stdout)
	if runErr != nil {
		infrastructure.WithError(logger, runErr).Error("Processing run failed")
		fmt.Printf("Error: %v\n", runErr)
		os.Exit(1)
	}

	fmt.Printf("Processing complete: %d extracted, %d converted, %d empty, %d failures\n",
		summary.Extracted, summary.Converted, summary.EmptySources, summary.Failures)
}
