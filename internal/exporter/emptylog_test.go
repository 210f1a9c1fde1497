package exporter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendEmptyLog(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "state", "empty.log")

	require.NoError(t, AppendEmptyLog(logPath, "archives/raw/cnsfails202401a/cnsfails202401a.txt"))
	require.NoError(t, AppendEmptyLog(logPath, "archives/raw/cnsfails202402b/cnsfails202402b.txt"))

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)

	assert.Equal(t,
		"archives/raw/cnsfails202401a/cnsfails202401a.txt\n"+
			"archives/raw/cnsfails202402b/cnsfails202402b.txt\n",
		string(data), "entries append in order, one path per line")
}

func TestAppendEmptyLogPreservesExistingEntries(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "empty.log")
	require.NoError(t, os.WriteFile(logPath, []byte("archives/raw/old/old.txt\n"), 0644))

	require.NoError(t, AppendEmptyLog(logPath, "archives/raw/new/new.txt"))

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, "archives/raw/old/old.txt\narchives/raw/new/new.txt\n", string(data))
}
