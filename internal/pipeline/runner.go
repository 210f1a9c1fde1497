package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"ftdcli/internal/archive"
	"ftdcli/internal/config"
	"ftdcli/internal/dataprocessing"
	apperrors "ftdcli/internal/errors"
	"ftdcli/internal/exporter"
	"ftdcli/internal/fetch"
	"ftdcli/internal/infrastructure"
	"ftdcli/internal/ledger"
	"ftdcli/internal/periods"
	"ftdcli/internal/scraper"
	"ftdcli/pkg/contracts/domain"
)

// Runner executes the full batch flow: discover and fetch new archives,
// extract them, normalize and merge every raw source, then recompute the
// period aggregates from the master store. A Runner holds no per-run state;
// everything a run accumulates travels through its RunSummary.
type Runner struct {
	cfg         *config.Config
	paths       *config.Paths
	source      scraper.LinkSource
	coordinator *fetch.Coordinator
	extractor   *archive.Extractor
	normalizer  *dataprocessing.Normalizer
	filter      *dataprocessing.SymbolFilter
	merger      *exporter.MergeWriter
	aggregator  *periods.Aggregator
	logger      *slog.Logger
}

// NewRunner wires the pipeline stages from configuration. The link source is
// injected so tests and alternate frontends can substitute the browser-driven
// discovery.
func NewRunner(cfg *config.Config, paths *config.Paths, source scraper.LinkSource, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}

	mapDir := cfg.Processing.MapFileDir
	if mapDir == "" {
		mapDir = paths.MapFilesDir
	}

	// Each stage logs under its own component tag so one run's records can
	// be split by subsystem as well as by trace ID.
	fetchLogger := infrastructure.WithComponent(logger, "fetch")
	client := fetch.NewClient(cfg.Fetch, cfg.Source, fetchLogger)

	return &Runner{
		cfg:         cfg,
		paths:       paths,
		source:      source,
		coordinator: fetch.NewCoordinator(client, cfg.Fetch, fetchLogger),
		extractor:   archive.NewExtractor(infrastructure.WithComponent(logger, "extract")),
		normalizer:  dataprocessing.NewNormalizer(cfg.Processing, infrastructure.WithComponent(logger, "normalize")),
		filter:      dataprocessing.LoadSymbolFilter(mapDir, infrastructure.WithComponent(logger, "normalize")),
		merger:      exporter.NewMergeWriter(infrastructure.WithComponent(logger, "merge")),
		aggregator:  periods.NewAggregator(infrastructure.WithComponent(logger, "aggregate")),
		logger:      logger,
	}
}

// Run executes one full pipeline pass. Fetch, extract and merge failures are
// counted and logged but never abort the run; only a ledger write failure is
// fatal, because continuing without it would re-fetch everything forever.
func (r *Runner) Run(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{Started: time.Now()}
	defer func() { summary.Finished = time.Now() }()

	led := ledger.Load(r.paths.LedgerFile, r.logger)
	r.logger.InfoContext(ctx, "Pipeline run starting",
		slog.Int("ledger_size", led.Len()))

	if err := r.fetchStage(ctx, led, summary); err != nil {
		return summary, err
	}
	r.extractStage(ctx, summary)
	r.processStage(ctx, summary)
	// An aggregation failure is already counted; a partial run still
	// reports its summary.
	_ = r.aggregateStage(ctx, summary)

	r.logger.InfoContext(ctx, "Pipeline run finished",
		slog.Int("fetched", summary.Fetched),
		slog.Int("converted", summary.Converted),
		slog.Int("rows_merged", summary.RowsMerged),
		slog.Int("failures", summary.Failures))

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// RunFetch executes only link discovery and fetching, for the standalone
// scraper binary.
func (r *Runner) RunFetch(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{Started: time.Now()}
	defer func() { summary.Finished = time.Now() }()

	led := ledger.Load(r.paths.LedgerFile, r.logger)
	err := r.fetchStage(ctx, led, summary)
	return summary, err
}

// RunProcess executes only extraction and source conversion, for the
// standalone processor binary.
func (r *Runner) RunProcess(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{Started: time.Now()}
	defer func() { summary.Finished = time.Now() }()

	r.extractStage(ctx, summary)
	r.processStage(ctx, summary)
	return summary, ctx.Err()
}

// RunAggregate recomputes the period aggregates from the master store
// without touching the earlier stages.
func (r *Runner) RunAggregate(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{Started: time.Now()}
	defer func() { summary.Finished = time.Now() }()

	err := r.aggregateStage(ctx, summary)
	return summary, err
}

// fetchStage discovers archive links, plans the not-yet-ledgered ones and
// downloads them. Identifiers reach the ledger only once their archive is
// durably on disk.
func (r *Runner) fetchStage(ctx context.Context, led *ledger.Ledger, summary *RunSummary) error {
	var links []string
	var err error
	if r.source == nil {
		err = apperrors.NewConfigError("no link source configured", nil)
	} else {
		links, err = r.source.DiscoverLinks(ctx)
	}
	if err != nil {
		// Leftover archives and raw sources can still be processed, so a
		// dead index page degrades to a fetch-less run.
		r.logger.ErrorContext(ctx, "Link discovery failed, continuing with local work",
			slog.String("error", err.Error()))
		summary.Failures++
		links = nil
	}
	summary.LinksDiscovered = len(links)

	jobs := r.planJobs(ctx, links, led, summary)
	if len(jobs) == 0 {
		r.logger.InfoContext(ctx, "No new archives to fetch",
			slog.Int("links", len(links)),
			slog.Int("known", summary.Known),
			slog.Int("deferred", summary.Deferred))
		return r.recordFetches(ctx, led, nil, nil, summary)
	}

	r.logger.InfoContext(ctx, "Fetching new archives",
		slog.Int("count", len(jobs)),
		slog.Int("concurrency", r.cfg.Fetch.Concurrency))

	results := r.coordinator.FetchAll(ctx, jobs)

	savedIDs := make([]string, 0, len(jobs))
	savedPaths := make([]string, 0, len(jobs))
	for _, job := range jobs {
		result := results[job.Identifier]
		if !result.Saved() {
			summary.Failures++
			continue
		}
		savedIDs = append(savedIDs, result.Identifier)
		savedPaths = append(savedPaths, r.paths.RelativeToData(result.Path))
	}
	summary.Fetched = len(savedIDs)

	return r.recordFetches(ctx, led, savedIDs, savedPaths, summary)
}

// planJobs turns discovered links into fetch jobs, skipping identifiers the
// ledger already has and distributions whose process date has not arrived.
// Fetching a distribution early would ledger a preliminary file forever, so
// those wait. Jobs are ordered oldest first so a capped run backfills the
// dated backlog before anything else.
func (r *Runner) planJobs(ctx context.Context, links []string, led *ledger.Ledger, summary *RunSummary) []fetch.Job {
	today := midnightUTC(time.Now())

	var jobs []fetch.Job
	for _, link := range links {
		id := scraper.IdentifierFromURL(link)
		if led.Contains(id) {
			summary.Known++
			continue
		}
		if dist, ok := domain.ParseDistributionKey(archive.Stem(id)); ok && dist.ProcessDate().After(today) {
			r.logger.DebugContext(ctx, "Distribution not yet final, deferring",
				slog.String("identifier", id),
				slog.String("title", dist.Title()),
				slog.Time("process_date", dist.ProcessDate()))
			summary.Deferred++
			continue
		}
		jobs = append(jobs, fetch.Job{
			Identifier: id,
			URL:        link,
			DestPath:   r.paths.GetArchivePath(id),
		})
	}

	sort.SliceStable(jobs, func(i, j int) bool {
		return jobDate(jobs[i]).Before(jobDate(jobs[j]))
	})

	if limit := r.cfg.Source.Limit; limit > 0 && len(jobs) > limit {
		r.logger.InfoContext(ctx, "Capping new fetches",
			slog.Int("planned", len(jobs)),
			slog.Int("limit", limit))
		jobs = jobs[:limit]
	}
	return jobs
}

// jobDate orders fetch jobs chronologically. Identifiers without a
// distribution key sort last so capped runs spend their budget on the dated
// backlog first.
func jobDate(job fetch.Job) time.Time {
	if dist, ok := domain.ParseDistributionKey(archive.Stem(job.Identifier)); ok {
		return dist.ProcessDate()
	}
	return time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
}

// recordFetches ledgers the archives that reached disk and rewrites the
// last-run state. The ledger write is the one failure that aborts a run.
func (r *Runner) recordFetches(ctx context.Context, led *ledger.Ledger, savedIDs, savedPaths []string, summary *RunSummary) error {
	if len(savedIDs) > 0 {
		led.AddAll(savedIDs)
		if err := led.Save(); err != nil {
			return fmt.Errorf("failed to persist ledger: %w", err)
		}
	}

	state := ledger.RunSummary{SavedIdentifiers: savedIDs, SavedPaths: savedPaths}
	if err := ledger.WriteRunSummary(r.paths.LastRunFile, state); err != nil {
		r.logger.WarnContext(ctx, "Failed to write last-run state",
			slog.String("path", r.paths.LastRunFile),
			slog.String("error", err.Error()))
		summary.Failures++
	}
	return nil
}

// extractStage unpacks every archive still sitting in the archives
// directory, not just this run's downloads, so a crash between fetch and
// extract heals on the next invocation. An archive is removed only after all
// of its members reached the raw workspace.
func (r *Runner) extractStage(ctx context.Context, summary *RunSummary) {
	entries, err := os.ReadDir(r.paths.ArchivesDir)
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.ErrorContext(ctx, "Failed to list archives directory",
				slog.String("path", r.paths.ArchivesDir),
				slog.String("error", err.Error()))
			summary.Failures++
		}
		return
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		// The raw workspace lives underneath the archives directory.
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".zip") {
			continue
		}

		archivePath := filepath.Join(r.paths.ArchivesDir, entry.Name())
		memberDir := r.paths.GetRawMemberDir(archive.Stem(archivePath))

		members, err := r.extractor.ExtractToDir(archivePath, memberDir)
		if err != nil {
			r.logger.ErrorContext(ctx, "Archive extraction failed, keeping archive",
				slog.String("archive", entry.Name()),
				slog.String("error", err.Error()))
			summary.Failures++
			continue
		}

		if err := os.Remove(archivePath); err != nil {
			r.logger.WarnContext(ctx, "Failed to remove extracted archive",
				slog.String("archive", entry.Name()),
				slog.String("error", err.Error()))
		}
		summary.Extracted++
		r.logger.InfoContext(ctx, "Archive extracted",
			slog.String("archive", entry.Name()),
			slog.Int("members", len(members)))
	}
}

// processStage normalizes every source file in the raw workspace and merges
// the survivors into the ticker, universe and master stores. Sources run
// concurrently up to the configured worker count; all store writes go
// through the merge writer's per-destination locks.
func (r *Runner) processStage(ctx context.Context, summary *RunSummary) {
	sources := r.collectSources(ctx, summary)
	if len(sources) == 0 {
		r.logger.InfoContext(ctx, "No raw sources to process")
		return
	}

	r.logger.InfoContext(ctx, "Processing raw sources",
		slog.Int("count", len(sources)),
		slog.Int("workers", r.cfg.Processing.Workers))

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Processing.Workers)

	for _, sourcePath := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			outcome := r.processSource(ctx, sourcePath)

			mu.Lock()
			outcome.addTo(summary)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		r.logger.WarnContext(ctx, "Processing interrupted",
			slog.String("error", err.Error()))
	}
}

// collectSources walks the raw workspace for files awaiting conversion,
// including leftovers a previous failed run preserved.
func (r *Runner) collectSources(ctx context.Context, summary *RunSummary) []string {
	var sources []string
	err := filepath.WalkDir(r.paths.RawDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			sources = append(sources, path)
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		r.logger.ErrorContext(ctx, "Failed to scan raw workspace",
			slog.String("path", r.paths.RawDir),
			slog.String("error", err.Error()))
		summary.Failures++
	}

	sort.Strings(sources)
	return sources
}

// sourceOutcome accumulates one source file's contribution to the summary.
type sourceOutcome struct {
	converted  bool
	empty      bool
	failed     bool
	rowsKept   int
	rowsMerged int
}

func (o sourceOutcome) addTo(summary *RunSummary) {
	if o.converted {
		summary.Converted++
	}
	if o.empty {
		summary.EmptySources++
	}
	if o.failed {
		summary.Failures++
	}
	summary.RowsKept += o.rowsKept
	summary.RowsMerged += o.rowsMerged
}

// processSource converts one raw source end to end. The file is removed
// only after every destination store merged; an empty outcome appends the
// source's relative path to the empty-log and preserves the file.
func (r *Runner) processSource(ctx context.Context, sourcePath string) sourceOutcome {
	relPath := r.paths.RelativeToData(sourcePath)

	f, err := os.Open(sourcePath)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to open source",
			slog.String("source", relPath),
			slog.String("error", err.Error()))
		return sourceOutcome{failed: true}
	}
	records, stats := r.normalizer.NormalizeReader(f)
	f.Close()

	records = r.filterRecords(records)

	if len(records) == 0 {
		r.logger.WarnContext(ctx, "Source yielded no usable rows",
			slog.String("source", relPath),
			slog.Int("lines", stats.TotalLines),
			slog.Int("parse_failures", stats.ParseFailures))
		if err := exporter.AppendEmptyLog(r.paths.EmptyLogFile, relPath); err != nil {
			r.logger.ErrorContext(ctx, "Failed to append empty-log entry",
				slog.String("source", relPath),
				slog.String("error", err.Error()))
			return sourceOutcome{failed: true}
		}
		return sourceOutcome{empty: true}
	}

	outcome := sourceOutcome{rowsKept: len(records)}

	merged := true
	for _, m := range r.planMerges(ctx, sourcePath, records) {
		added, err := r.merger.MergeAppend(m.path, m.kind, m.lines)
		if err != nil {
			r.logger.ErrorContext(ctx, "Store merge failed, keeping source",
				slog.String("source", relPath),
				slog.String("store", m.path),
				slog.String("error", err.Error()))
			merged = false
			continue
		}
		if m.kind == exporter.KindMaster {
			outcome.rowsMerged = added
		}
	}
	if !merged {
		// Reruns converge: the stores that did merge deduplicate the
		// repeated lines, the ones that failed get the rows again.
		outcome.failed = true
		return outcome
	}

	if err := os.Remove(sourcePath); err != nil {
		r.logger.WarnContext(ctx, "Failed to remove converted source",
			slog.String("source", relPath),
			slog.String("error", err.Error()))
	} else if dir := filepath.Dir(sourcePath); dir != r.paths.RawDir {
		// Drops the per-archive directory once its last member is gone.
		_ = os.Remove(dir)
	}

	outcome.converted = true
	r.logger.InfoContext(ctx, "Source converted",
		slog.String("source", relPath),
		slog.Int("rows", len(records)),
		slog.Int("repaired", stats.Repaired),
		slog.Int("merged", outcome.rowsMerged))
	return outcome
}

// filterRecords applies the optional symbol allow-list. Filtered rows are
// dropped before any store sees them.
func (r *Runner) filterRecords(records []domain.FailRecord) []domain.FailRecord {
	kept := make([]domain.FailRecord, 0, len(records))
	for _, record := range records {
		if r.filter.Allows(record.Symbol) {
			kept = append(kept, record)
		}
	}
	return kept
}

// storeMerge names one destination store and the lines bound for it.
type storeMerge struct {
	path  string
	kind  exporter.StoreKind
	lines []string
}

// planMerges fans one source's records out to its destinations: one store
// per ticker, one universe store keyed by the distribution's process date,
// and the master store. Sources whose name carries no distribution key skip
// the universe store; their rows still reach the other destinations.
func (r *Runner) planMerges(ctx context.Context, sourcePath string, records []domain.FailRecord) []storeMerge {
	bySymbol := make(map[string][]string)
	master := make([]string, 0, len(records))
	for _, record := range records {
		line := exporter.EncodeStoreLine(record)
		bySymbol[record.Symbol] = append(bySymbol[record.Symbol], line)
		master = append(master, line)
	}

	symbols := make([]string, 0, len(bySymbol))
	for symbol := range bySymbol {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	merges := make([]storeMerge, 0, len(symbols)+2)
	for _, symbol := range symbols {
		merges = append(merges, storeMerge{
			path:  r.paths.GetTickerCSVPath(symbol),
			kind:  exporter.KindTicker,
			lines: bySymbol[symbol],
		})
	}

	if dist, ok := domain.ParseDistributionKey(archive.Stem(sourcePath)); ok {
		merges = append(merges, storeMerge{
			path:  r.paths.GetUniverseCSVPath(dist.ProcessDate()),
			kind:  exporter.KindUniverse,
			lines: master,
		})
	} else {
		r.logger.DebugContext(ctx, "Source name carries no distribution key, skipping universe store",
			slog.String("source", filepath.Base(sourcePath)))
	}

	merges = append(merges, storeMerge{
		path:  r.paths.MasterCSV,
		kind:  exporter.KindMaster,
		lines: master,
	})
	return merges
}

// aggregateStage recomputes the period aggregates from the full master
// store. Recomputing from scratch keeps the outputs deterministic no matter
// how many runs contributed rows.
func (r *Runner) aggregateStage(ctx context.Context, summary *RunSummary) error {
	records, err := exporter.ReadStoreRecords(r.paths.MasterCSV, exporter.KindMaster, r.logger)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to read master store for aggregation",
			slog.String("path", r.paths.MasterCSV),
			slog.String("error", err.Error()))
		summary.Failures++
		return err
	}

	aggregated := r.aggregator.Aggregate(records)
	if err := periods.WriteAggregates(r.paths.PeriodsCSV, r.paths.PeriodsWeightCSV, aggregated); err != nil {
		r.logger.ErrorContext(ctx, "Failed to write period aggregates",
			slog.String("error", err.Error()))
		summary.Failures++
		return err
	}

	summary.Periods = len(aggregated)
	r.logger.InfoContext(ctx, "Period aggregates written",
		slog.Int("periods", len(aggregated)),
		slog.Int("rows", len(records)))
	return nil
}

// midnightUTC truncates t to its UTC calendar day for process-date
// comparison.
func midnightUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
