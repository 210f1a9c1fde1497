package scraper

import (
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"

	apperrors "ftdcli/internal/errors"
)

// NormalizeLinks resolves raw page hrefs against the index URL, keeps the
// ones whose path ends with the archive suffix, and returns them
// de-duplicated and sorted. Sorting makes discovery order deterministic
// across runs regardless of page layout changes.
func NormalizeLinks(indexURL string, hrefs []string, archiveSuffix string) ([]string, error) {
	base, err := url.Parse(indexURL)
	if err != nil {
		return nil, apperrors.NewConfigError(fmt.Sprintf("invalid index url %s", indexURL), err)
	}

	suffix := strings.ToLower(archiveSuffix)
	seen := make(map[string]struct{})
	var links []string

	for _, href := range hrefs {
		href = strings.TrimSpace(href)
		if href == "" {
			continue
		}

		ref, err := url.Parse(href)
		if err != nil {
			continue
		}
		resolved := base.ResolveReference(ref)

		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(resolved.Path), suffix) {
			continue
		}

		link := resolved.String()
		if _, ok := seen[link]; ok {
			continue
		}
		seen[link] = struct{}{}
		links = append(links, link)
	}

	sort.Strings(links)
	return links, nil
}

// IdentifierFromURL returns the archive's ledger identifier, the final
// path element of its URL.
func IdentifierFromURL(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return path.Base(link)
	}
	return path.Base(u.Path)
}
