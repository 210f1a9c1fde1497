// Package pipeline orchestrates the end-to-end batch run: link discovery,
// ledger-gated fetching, archive extraction, source conversion and period
// aggregation.
//
// # Architecture
//
// The package is organized into three components:
//
//  1. Runner: drives the stages and accumulates the RunSummary
//  2. RunLock: a file lock so overlapping invocations cannot interleave
//  3. RunSummary: per-stage counts rendered for the operator
//
// # Usage
//
// A full run:
//
//	lock := pipeline.NewRunLock(paths.LockFile, logger)
//	if err := lock.Acquire(); err != nil {
//	    return err
//	}
//	defer lock.Release()
//
//	runner := pipeline.NewRunner(cfg, paths, source, logger)
//	summary, err := runner.Run(ctx)
//	summary.Render(os.Stdout)
//
// # Data Flow
//
// The stages hand work to each other through the filesystem, never through
// memory:
//
//	index page → archives/ → archives/raw/ → ticker, universe and master
//	stores → period aggregate CSVs
//
// Each handoff point is crash-safe: archives are deleted only after full
// extraction, raw sources only after every store merged, and the ledger
// records an identifier only once its archive is durably on disk. A run that
// dies anywhere resumes from the surviving files on the next invocation.
//
// # Error Handling
//
// Item-level failures are counted in the RunSummary and logged, never
// propagated; the affected file stays where it was and is retried on the
// next run. Only a ledger write failure aborts a run.
package pipeline
