// Package scraper discovers the archive links the publisher currently
// lists on its disclosure index page.
package scraper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chromedp/chromedp"

	"ftdcli/internal/config"
	apperrors "ftdcli/internal/errors"
)

// LinkSource yields the absolute archive URLs the publisher currently
// lists. The pipeline depends on this interface so tests and alternate
// frontends can substitute a fake.
type LinkSource interface {
	DiscoverLinks(ctx context.Context) ([]string, error)
}

// ChromeSource renders the index page in headless Chrome and harvests its
// anchors. The index is script-assembled, so a plain GET of the page HTML
// misses the archive links.
type ChromeSource struct {
	cfg      config.SourceConfig
	headless bool
	logger   *slog.Logger
}

// NewChromeSource creates a browser-backed link source.
func NewChromeSource(cfg config.SourceConfig, headless bool, logger *slog.Logger) *ChromeSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChromeSource{
		cfg:      cfg,
		headless: headless,
		logger:   logger,
	}
}

// collectHrefsJS pulls every anchor href off the rendered page; filtering
// happens Go-side where it is testable.
const collectHrefsJS = `Array.from(document.querySelectorAll('a[href]')).map(a => a.getAttribute('href')).filter(Boolean)`

// DiscoverLinks navigates to the index page, waits for archive anchors,
// and returns their absolute URLs filtered, de-duplicated, and sorted.
func (s *ChromeSource) DiscoverLinks(ctx context.Context) ([]string, error) {
	opts := chromedp.DefaultExecAllocatorOptions[:]
	opts = append(opts, chromedp.Flag("headless", s.headless))
	if s.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(s.cfg.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	if s.cfg.NavTimeout > 0 {
		var cancelTimeout context.CancelFunc
		browserCtx, cancelTimeout = context.WithTimeout(browserCtx, s.cfg.NavTimeout)
		defer cancelTimeout()
	}

	waitSelector := fmt.Sprintf(`a[href*='%s']`, s.cfg.ArchiveGlob)

	var hrefs []string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(s.cfg.IndexURL),
		chromedp.WaitReady(waitSelector, chromedp.ByQuery),
		chromedp.Evaluate(collectHrefsJS, &hrefs),
	)
	if err != nil {
		return nil, apperrors.NewNetworkError(
			fmt.Sprintf("failed to render index page %s", s.cfg.IndexURL), err)
	}

	links, err := NormalizeLinks(s.cfg.IndexURL, hrefs, s.cfg.ArchiveGlob)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Archive links discovered",
		slog.String("index_url", s.cfg.IndexURL),
		slog.Int("anchors", len(hrefs)),
		slog.Int("archives", len(links)))

	return links, nil
}
