// Package archive streams the members of downloaded zip archives to the
// conversion stage.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "ftdcli/internal/errors"
)

// MemberHandler receives one regular-file member. The name is the member's
// base name and r is valid only for the duration of the call.
type MemberHandler func(name string, r io.Reader) error

// Extractor opens zip archives and hands their members to a handler.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates an extractor.
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract calls handle for every regular-file member of the archive and
// returns how many members were handled. An unreadable or malformed archive
// is not fatal: it is logged and reported as zero members so the run can
// continue, and the archive stays on disk for inspection. Errors returned
// by the handler do propagate.
func (e *Extractor) Extract(archivePath string, handle MemberHandler) (int, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		e.logger.Warn("Archive unreadable, treating as empty",
			slog.String("path", archivePath),
			slog.String("error", err.Error()))
		return 0, nil
	}
	defer reader.Close()

	handled := 0
	for _, member := range reader.File {
		if member.FileInfo().IsDir() {
			continue
		}

		if err := e.handleMember(member, handle); err != nil {
			return handled, err
		}
		handled++
	}

	if handled == 0 {
		e.logger.Warn("Archive contains no file members",
			slog.String("path", archivePath))
	}

	return handled, nil
}

func (e *Extractor) handleMember(member *zip.File, handle MemberHandler) error {
	rc, err := member.Open()
	if err != nil {
		return apperrors.NewArchiveError(
			fmt.Sprintf("failed to open archive member %s", member.Name), err)
	}
	defer rc.Close()

	// Member names may carry interior paths; only the base name matters
	// and joining the raw name would allow writes outside the target dir.
	name := filepath.Base(filepath.FromSlash(member.Name))

	return handle(name, rc)
}

// ExtractToDir writes every member into destDir under its base name and
// returns the written paths in archive order.
func (e *Extractor) ExtractToDir(archivePath, destDir string) ([]string, error) {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, apperrors.NewStorageError(
			fmt.Sprintf("failed to create extraction directory %s", destDir), err)
	}

	var paths []string
	_, err := e.Extract(archivePath, func(name string, r io.Reader) error {
		destPath := filepath.Join(destDir, name)

		out, err := os.Create(destPath)
		if err != nil {
			return apperrors.NewStorageError(
				fmt.Sprintf("failed to create member file %s", destPath), err)
		}

		_, err = io.Copy(out, r)
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(destPath)
			return apperrors.NewArchiveError(
				fmt.Sprintf("failed to write member file %s", destPath), err)
		}

		paths = append(paths, destPath)
		return nil
	})
	if err != nil {
		return paths, err
	}

	return paths, nil
}

// Stem returns the archive's file name without its extension, which names
// the distribution the archive carries (e.g. cnsfails202401a).
func Stem(archivePath string) string {
	base := filepath.Base(archivePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
