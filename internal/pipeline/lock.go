package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// RunLock serializes whole-pipeline runs over a shared data directory.
// Overlapping cron invocations would interleave merge writes and ledger
// updates, so the second instance refuses to start instead of queueing.
type RunLock struct {
	lock   *flock.Flock
	logger *slog.Logger
}

// NewRunLock creates a lock backed by the given file path.
func NewRunLock(path string, logger *slog.Logger) *RunLock {
	return &RunLock{
		lock:   flock.New(path),
		logger: logger,
	}
}

// Acquire takes the exclusive lock without blocking. A held lock means
// another pipeline instance is mid-run.
func (l *RunLock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.lock.Path()), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	ok, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another pipeline instance is already running (lock held at %s)", l.lock.Path())
	}
	return nil
}

// Release drops the lock at the end of a run.
func (l *RunLock) Release() {
	if err := l.lock.Unlock(); err != nil && l.logger != nil {
		l.logger.Warn("Failed to release run lock",
			slog.String("path", l.lock.Path()),
			slog.String("error", err.Error()))
	}
}
