package dataprocessing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTicker(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain symbol", "GME", "GME"},
		{"lowercase uppercased", "gme", "GME"},
		{"surrounding whitespace", "  amc  ", "AMC"},
		{"share class slash", "BRK/A", "BRK.A"},
		{"share class dash", "BRK-B", "BRK.B"},
		{"underscore separator", "FOO_W", "FOO.W"},
		{"defunct cut at dash", "ABC-DEFUNCT", "ABC"},
		{"defunct cut at underscore", "XYZ_DEFUNCT CO", "XYZ"},
		{"defunct with spaced dash", "PULS - DEFUNCT", "PULS"},
		{"defunct without separator", "DEFUNCT", "DEFUNCT"},
		{"surrounding dots stripped", ".ABC.", "ABC"},
		{"interior dot kept", "AB.C", "AB.C"},
		{"other punctuation dropped", "A&B C!", "ABC"},
		{"digits kept", "4D", "4D"},
		{"nothing left", "---", ""},
		{"empty input", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTicker(tt.raw))
		})
	}
}

func TestSymbolFilterFromMapFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"GME.csv", "amc.csv", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "ignored.csv.d"), 0755))

	f := LoadSymbolFilter(dir, nil)

	assert.True(t, f.Allows("GME"))
	assert.True(t, f.Allows("AMC"), "stems are normalized before matching")
	assert.False(t, f.Allows("TSLA"))
	assert.False(t, f.Allows("NOTES"), "only csv stems feed the allow-list")
}

func TestSymbolFilterAllowsEverythingWhenUnset(t *testing.T) {
	tests := []struct {
		name string
		dir  func(t *testing.T) string
	}{
		{"no directory configured", func(t *testing.T) string { return "" }},
		{"directory missing", func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent") }},
		{"directory empty", func(t *testing.T) string { return t.TempDir() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := LoadSymbolFilter(tt.dir(t), nil)
			assert.True(t, f.Allows("ANYTHING"))
		})
	}

	var nilFilter *SymbolFilter
	assert.True(t, nilFilter.Allows("GME"), "nil filter is the allow-everything filter")
}
