package validation

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "ftdcli/internal/errors"
)

func TestValidatePayloadHead(t *testing.T) {
	tests := []struct {
		name    string
		head    []byte
		wantErr string
	}{
		{
			name: "zip local file header",
			head: []byte("PK\x03\x04rest of archive"),
		},
		{
			name: "empty central directory archive",
			head: []byte("PK\x05\x06\x00\x00"),
		},
		{
			name:    "html error page",
			head:    []byte("<!DOCTYPE html><html><body>Service unavailable</body></html>"),
			wantErr: "not a zip archive",
		},
		{
			name:    "empty body",
			head:    nil,
			wantErr: "too short",
		},
		{
			name:    "single byte",
			head:    []byte("P"),
			wantErr: "too short",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePayloadHead(tt.head)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, apperrors.ErrTypeArchive, apperrors.TypeOf(err))
		})
	}
}

func TestValidatePayloadHeadNamesSniffedType(t *testing.T) {
	err := ValidatePayloadHead([]byte("<html><head><title>503</title></head></html>"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "text/html")
}

func TestValidateArchiveFile(t *testing.T) {
	dir := t.TempDir()
	v := NewArchiveValidator(nil)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("cnsfails202401a.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("SETTLEMENT DATE|CUSIP|SYMBOL\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	zipPath := filepath.Join(dir, "good.zip")
	require.NoError(t, os.WriteFile(zipPath, buf.Bytes(), 0644))
	assert.NoError(t, v.ValidateArchiveFile(zipPath))

	htmlPath := filepath.Join(dir, "error.zip")
	require.NoError(t, os.WriteFile(htmlPath, []byte("<html>down for maintenance</html>"), 0644))
	err = v.ValidateArchiveFile(htmlPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a zip archive")

	err = v.ValidateArchiveFile(filepath.Join(dir, "missing.zip"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open")
}
