// Package validation checks downloaded payloads before they enter the
// data directory.
package validation

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	apperrors "ftdcli/internal/errors"
)

// sniffLen matches http.DetectContentType's window.
const sniffLen = 512

var zipMagic = []byte("PK")

// ArchiveValidator verifies that a downloaded body is a plausible zip
// archive. The publisher answers some outages with an HTML error page and
// a 200 status; saving one of those would ledger the identifier and
// permanently mask the real distribution behind it.
type ArchiveValidator struct {
	logger *slog.Logger
}

// NewArchiveValidator creates an archive payload validator.
func NewArchiveValidator(logger *slog.Logger) *ArchiveValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArchiveValidator{logger: logger}
}

// ValidateArchiveFile checks that the file at path starts like a zip
// archive. It returns an archive error for anything else, so the caller
// discards the payload and the identifier stays fetchable.
func (v *ArchiveValidator) ValidateArchiveFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return apperrors.NewArchiveError("failed to open downloaded payload", err)
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, _ := f.Read(head)
	head = head[:n]

	if err := ValidatePayloadHead(head); err != nil {
		v.logger.Warn("Downloaded payload rejected",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return err
	}
	return nil
}

// ValidatePayloadHead checks the leading bytes of a downloaded body for a
// zip signature. Empty central-directory archives also start with PK, so
// they pass here and surface later as empty sources.
func ValidatePayloadHead(head []byte) error {
	if len(head) < len(zipMagic) {
		return apperrors.NewArchiveError(
			fmt.Sprintf("downloaded payload is too short to be an archive (%d bytes)", len(head)), nil)
	}
	if !bytes.HasPrefix(head, zipMagic) {
		return apperrors.NewArchiveError(
			fmt.Sprintf("downloaded payload is not a zip archive (looks like %s)",
				http.DetectContentType(head)), nil)
	}
	return nil
}
