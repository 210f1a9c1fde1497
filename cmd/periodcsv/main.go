package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"

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
				logger.Error("Period aggregation panicked",
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())))
			}
			os.Exit(1)
		}
	}()

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

	logger.Info("Period aggregation starting",
		slog.String("version", contracts.Version),
		slog.String("master_csv", paths.MasterCSV),
		slog.String("executable_dir", paths.ExecutableDir))

	if !config.FileExists(paths.MasterCSV) {
		logger.Warn("Master store not found, aggregates will be header-only",
			slog.String("path", paths.MasterCSV))
		fmt.Println("Warning: no master store yet; run the processor first for real aggregates")
	}

	lock := pipeline.NewRunLock(paths.LockFile, logger)
	if err := lock.Acquire(); err != nil {
		infrastructure.WithError(logger, err).Error("Run lock unavailable")
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer lock.Release()

	// No link source: this binary only rereads the master store.
	runner := pipeline.NewRunner(cfg, paths, nil, logger)

	ctx := infrastructure.EnsureTraceID(context.Background())
	summary, runErr := runner.RunAggregate(ctx)
	if runErr != nil {
		infrastructure.WithError(logger, runErr).Error("Aggregation failed")
		fmt.Printf("Error: %v\n", runErr)
		os.Exit(1)
	}

	fmt.Printf("Aggregation complete: %d periods\n", summary.Periods)
	fmt.Printf("Full series:   %s\n", paths.PeriodsCSV)
	fmt.Printf("Weight series: %s\n", paths.PeriodsWeightCSV)
}
