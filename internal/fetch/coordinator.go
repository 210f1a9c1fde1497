package fetch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"ftdcli/internal/config"
	apperrors "ftdcli/internal/errors"
)

// Job names one archive to download.
type Job struct {
	Identifier string
	URL        string
	DestPath   string
}

// Result reports the outcome of one job. Every submitted job produces
// exactly one result whether it succeeded or not.
type Result struct {
	Identifier string
	URL        string
	Path       string
	Bytes      int64
	Attempts   int
	Err        error
}

// Saved reports whether the archive reached its destination.
func (r Result) Saved() bool {
	return r.Err == nil
}

// Coordinator runs download jobs through a bounded worker pool with
// per-job retry.
type Coordinator struct {
	client      *Client
	concurrency int
	maxRetries  int
	retryBase   time.Duration
	logger      *slog.Logger
}

// NewCoordinator creates a coordinator over the given client.
func NewCoordinator(client *Client, cfg config.FetchConfig, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}

	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	return &Coordinator{
		client:      client,
		concurrency: concurrency,
		maxRetries:  maxRetries,
		retryBase:   cfg.RetryBase,
		logger:      logger,
	}
}

// FetchAll downloads every job and returns a result per identifier. Jobs
// run concurrently up to the configured limit; one job failing never stops
// the others. Cancellation stops retries but still yields a complete map.
func (c *Coordinator) FetchAll(ctx context.Context, jobs []Job) map[string]Result {
	resultsChan := make(chan Result, len(jobs))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, c.concurrency)

	for _, job := range jobs {
		wg.Add(1)
		go func(j Job) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			resultsChan <- c.fetchWithRetry(ctx, j)
		}(job)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	results := make(map[string]Result, len(jobs))
	for result := range resultsChan {
		results[result.Identifier] = result
	}

	return results
}

// fetchWithRetry attempts one job up to maxRetries times. The wait before
// attempt n+1 is retryBase multiplied by n. A not-found response is
// permanent and ends the attempts immediately.
func (c *Coordinator) fetchWithRetry(ctx context.Context, job Job) Result {
	result := Result{
		Identifier: job.Identifier,
		URL:        job.URL,
		Path:       job.DestPath,
	}

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		result.Attempts = attempt

		size, err := c.client.Download(ctx, job.URL, job.DestPath)
		if err == nil {
			result.Bytes = size
			result.Err = nil
			return result
		}
		result.Err = err

		if !apperrors.IsRetryable(err) {
			c.logger.WarnContext(ctx, "Archive not found, giving up",
				slog.String("identifier", job.Identifier),
				slog.String("url", job.URL))
			return result
		}

		c.logger.WarnContext(ctx, "Download attempt failed",
			slog.String("identifier", job.Identifier),
			slog.Int("attempt", attempt),
			slog.Int("max_retries", c.maxRetries),
			slog.String("error", err.Error()))

		if attempt == c.maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			result.Err = apperrors.NewNetworkError("fetch cancelled", ctx.Err())
			return result
		case <-time.After(c.retryBase * time.Duration(attempt)):
		}
	}

	return result
}
