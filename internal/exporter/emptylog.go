package exporter

import (
	"fmt"
	"os"
	"path/filepath"

	apperrors "ftdcli/internal/errors"
)

// AppendEmptyLog records a source that yielded zero usable rows. The log
// is append-only: one relative path per line, never rewritten, so the
// history of empty distributions survives every run.
func AppendEmptyLog(logPath, sourceRelPath string) error {
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return apperrors.NewStorageError("failed to create empty-log directory", err)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to open empty-log %s", logPath), err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, sourceRelPath); err != nil {
		return apperrors.NewStorageError("failed to append to empty-log", err)
	}

	return nil
}
