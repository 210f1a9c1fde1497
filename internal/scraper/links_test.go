package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const indexURL = "https://www.sec.gov/data-research/sec-markets-data/fails-deliver-data"

func TestNormalizeLinks(t *testing.T) {
	hrefs := []string{
		"/files/data/fails-deliver-data/cnsfails202401b.zip",
		"https://www.sec.gov/files/data/fails-deliver-data/cnsfails202401a.zip",
		"/files/data/fails-deliver-data/cnsfails202401a.zip", // same archive, relative form
		"../fails-deliver-data/cnsfails202312b.zip",
		"/about.html",
		"mailto:help@sec.gov",
		"javascript:void(0)",
		"",
		"  ",
	}

	links, err := NormalizeLinks(indexURL, hrefs, ".zip")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://www.sec.gov/data-research/fails-deliver-data/cnsfails202312b.zip",
		"https://www.sec.gov/files/data/fails-deliver-data/cnsfails202401a.zip",
		"https://www.sec.gov/files/data/fails-deliver-data/cnsfails202401b.zip",
	}, links, "links resolve against the index URL, de-duplicate, and sort")
}

func TestNormalizeLinksSuffixIsCaseInsensitive(t *testing.T) {
	links, err := NormalizeLinks(indexURL, []string{"/files/CNSFAILS202401A.ZIP"}, ".zip")
	require.NoError(t, err)
	require.Len(t, links, 1)
}

func TestNormalizeLinksIgnoresQueryOnlyMatches(t *testing.T) {
	links, err := NormalizeLinks(indexURL, []string{"/download?file=.zip"}, ".zip")
	require.NoError(t, err)
	assert.Empty(t, links, "the suffix must match the path, not the query string")
}

func TestNormalizeLinksBadIndexURL(t *testing.T) {
	_, err := NormalizeLinks("://not-a-url", []string{"/a.zip"}, ".zip")
	assert.Error(t, err)
}

func TestIdentifierFromURL(t *testing.T) {
	tests := []struct {
		link string
		want string
	}{
		{"https://www.sec.gov/files/data/fails-deliver-data/cnsfails202401a.zip", "cnsfails202401a.zip"},
		{"https://www.sec.gov/files/cnsfails202401b.zip?download=1", "cnsfails202401b.zip"},
		{"cnsfails202402a.zip", "cnsfails202402a.zip"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IdentifierFromURL(tt.link))
	}
}
