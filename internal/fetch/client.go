// Package fetch downloads disclosure archives from the publisher with the
// request identification, rate limiting, and retry behavior the publisher's
// fair-access policy expects.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"ftdcli/internal/config"
	apperrors "ftdcli/internal/errors"
	"ftdcli/internal/validation"
)

// Client performs identified, rate-limited archive downloads.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	validator  *validation.ArchiveValidator
	userAgent  string
	referer    string
	logger     *slog.Logger
}

// NewClient creates a download client from the fetch and source settings.
func NewClient(fetchCfg config.FetchConfig, srcCfg config.SourceConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	if fetchCfg.RPS > 0 {
		limit = rate.Limit(fetchCfg.RPS)
	}
	burst := fetchCfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		httpClient: &http.Client{Timeout: fetchCfg.Timeout},
		limiter:    rate.NewLimiter(limit, burst),
		validator:  validation.NewArchiveValidator(logger),
		userAgent:  srcCfg.UserAgent,
		referer:    srcCfg.Referer,
		logger:     logger,
	}
}

// Download fetches url into destPath and returns the number of bytes
// written. The body streams into a uuid-named temp file beside the
// destination, is checked for a zip signature, and is renamed into place
// only on success, so destPath either holds a plausible archive or does
// not exist. A 404 response is a permanent not-found error; any other
// non-200 status is a transient network error.
func (c *Client) Download(ctx context.Context, url, destPath string) (int64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, apperrors.NewNetworkError("rate limiter wait aborted", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, apperrors.NewNetworkError(fmt.Sprintf("failed to build request for %s", url), err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if c.referer != "" {
		req.Header.Set("Referer", c.referer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, apperrors.NewNetworkError(fmt.Sprintf("request failed for %s", url), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return 0, apperrors.NewNotFoundError(url)
	case resp.StatusCode != http.StatusOK:
		return 0, apperrors.NewNetworkError(
			fmt.Sprintf("unexpected status %d for %s", resp.StatusCode, url), nil)
	}

	size, err := c.saveBody(resp.Body, destPath)
	if err != nil {
		return 0, err
	}

	c.logger.DebugContext(ctx, "Archive downloaded",
		slog.String("url", url),
		slog.String("path", destPath),
		slog.Int64("bytes", size))

	return size, nil
}

// saveBody streams the response body to a temp file and renames it over
// destPath.
func (c *Client) saveBody(body io.Reader, destPath string) (int64, error) {
	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, apperrors.NewStorageError(fmt.Sprintf("failed to create directory %s", dir), err)
	}

	tmpPath := filepath.Join(dir, fmt.Sprintf("%s.tmp", uuid.New().String()))
	out, err := os.Create(tmpPath)
	if err != nil {
		return 0, apperrors.NewStorageError("failed to create temp file", err)
	}

	size, err := io.Copy(out, body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpPath)
		return 0, apperrors.NewNetworkError("failed to stream archive body", err)
	}

	if err := c.validator.ValidateArchiveFile(tmpPath); err != nil {
		os.Remove(tmpPath)
		return 0, err
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return 0, apperrors.NewStorageError(fmt.Sprintf("failed to move archive into %s", destPath), err)
	}

	return size, nil
}
