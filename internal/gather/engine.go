package gather

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/corroborate/internal/cache"
	"github.com/ppiankov/corroborate/internal/extract"
	"github.com/ppiankov/corroborate/internal/extract/adapters"
	"github.com/ppiankov/corroborate/internal/fetch"
	"github.com/ppiankov/corroborate/internal/model"
	"github.com/ppiankov/corroborate/internal/search"
	"github.com/ppiankov/corroborate/internal/worker"
)

const minContentChars = 100

// Drop reasons reported in RunStats.Dropped
const (
	DropDuplicate      = "duplicate"
	DropFetch          = "fetch"
	DropExtraction     = "extraction"
	DropBelowThreshold = "below_threshold"
	DropAnalysis       = "analysis"
)

// Searcher is the search-provider collaborator of the engine
type Searcher interface {
	Search(ctx context.Context, query string, limit int) (search.Outcome, error)
}

// Options configures an Engine. Searcher and Fetcher are required.
type Options struct {
	Searcher  Searcher
	Fetcher   fetch.Fetcher
	Extractor extract.Extractor // Defaults to the adapter registry
	Analyzer  Analyzer          // Defaults to ContentAnalyzer
	Cache     cache.Cache       // Content cache; nil disables caching
	CacheTTL  time.Duration
	Retry     model.RetryConfig
	Workers   int
	Logger    *slog.Logger
}

// Engine runs research sessions one at a time. Its content cache, blacklist
// and URL dedup set are scoped to the engine and shared by all of its runs.
type Engine struct {
	searcher  Searcher
	fetcher   *ResilientFetcher
	extractor extract.Extractor
	analyzer  Analyzer
	workers   int
	seen      *cache.URLSet
	logger    *slog.Logger
	now       func() time.Time

	mu         sync.Mutex
	run        *run
	totalRuns  int
	onProgress func(model.Progress)
}

// NewEngine creates an engine from its collaborators
func NewEngine(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	extractor := opts.Extractor
	if extractor == nil {
		extractor = adapters.NewRegistry()
	}
	analyzer := opts.Analyzer
	if analyzer == nil {
		analyzer = ContentAnalyzer{}
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 5
	}

	return &Engine{
		searcher:  opts.Searcher,
		fetcher:   NewResilientFetcher(opts.Fetcher, opts.Cache, opts.CacheTTL, opts.Retry, logger),
		extractor: extractor,
		analyzer:  analyzer,
		workers:   workers,
		seen:      cache.NewURLSet(),
		logger:    logger,
		now:       time.Now,
	}
}

// OnProgress registers a callback invoked after every processed candidate.
// The callback runs on the processing goroutine and may call run controls.
func (e *Engine) OnProgress(fn func(model.Progress)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onProgress = fn
}

// RunOption customises a single run
type RunOption func(*runOptions)

type runOptions struct {
	searcher Searcher
}

// WithSearcher replaces the engine's searcher for one run
func WithSearcher(s Searcher) RunOption {
	return func(o *runOptions) {
		o.searcher = s
	}
}

// Snapshot is the configuration, statistics and items of a run
type Snapshot struct {
	Config model.RunConfig      `json:"config"`
	Stats  model.RunStats       `json:"stats"`
	Items  []model.EvidenceItem `json:"results"`
}

type run struct {
	id      string
	cfg     model.RunConfig
	ctl     *control
	started time.Time
	elapsed time.Duration
	done    chan struct{}

	items      []model.EvidenceItem
	candidates int
	processed  int
	errors     int
	revisits   int
	dropped    map[string]int
	provider   string
	degraded   bool
	hitsAtRun  int64
}

func (r *run) finished() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Start validates cfg and begins a run in the background, returning its id.
// It fails with ErrConcurrentRun while another run is running or paused.
func (e *Engine) Start(ctx context.Context, cfg model.RunConfig, opts ...RunOption) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	ro := runOptions{searcher: e.searcher}
	for _, opt := range opts {
		opt(&ro)
	}
	if ro.searcher == nil {
		return "", fmt.Errorf("%w: no search provider configured", model.ErrConfiguration)
	}

	e.mu.Lock()
	if e.run != nil && !e.run.finished() {
		e.mu.Unlock()
		return "", model.ErrConcurrentRun
	}
	r := &run{
		id:        uuid.NewString(),
		cfg:       cfg,
		ctl:       newControl(),
		started:   e.now(),
		done:      make(chan struct{}),
		dropped:   make(map[string]int),
		hitsAtRun: e.fetcher.CacheHits(),
	}
	e.run = r
	e.totalRuns++
	e.mu.Unlock()

	e.logger.Info("research run started", "run_id", r.id, "query", cfg.Query, "max_results", cfg.MaxResults)
	go e.execute(ctx, r, ro.searcher)
	return r.id, nil
}

// Run starts a run and blocks until it completes or is stopped
func (e *Engine) Run(ctx context.Context, cfg model.RunConfig, opts ...RunOption) (*Snapshot, error) {
	if _, err := e.Start(ctx, cfg, opts...); err != nil {
		return nil, err
	}
	return e.Wait(ctx)
}

// Wait blocks until the current run finishes and returns its snapshot
func (e *Engine) Wait(ctx context.Context) (*Snapshot, error) {
	e.mu.Lock()
	r := e.run
	e.mu.Unlock()
	if r == nil {
		return nil, model.ErrNoRun
	}

	select {
	case <-r.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return e.Snapshot()
}

// Pause suspends a running run at its next checkpoint
func (e *Engine) Pause() error {
	r, err := e.current()
	if err != nil {
		return err
	}
	if err := r.ctl.pause(); err != nil {
		return err
	}
	e.logger.Info("research run paused", "run_id", r.id)
	return nil
}

// Resume continues a paused run; a stopped run cannot be resumed
func (e *Engine) Resume() error {
	r, err := e.current()
	if err != nil {
		return err
	}
	if err := r.ctl.unpause(); err != nil {
		return err
	}
	e.logger.Info("research run resumed", "run_id", r.id)
	return nil
}

// Stop terminates the run; no further candidate starts processing
func (e *Engine) Stop() error {
	r, err := e.current()
	if err != nil {
		return err
	}
	if r.ctl.stop() {
		e.logger.Info("research run stopped", "run_id", r.id)
	}
	return nil
}

// UpdateParameters applies a partial update to the active run's configuration.
// Changes take effect from the next processed candidate.
func (e *Engine) UpdateParameters(patch model.RunPatch) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run == nil {
		return model.ErrNoRun
	}
	cfg := patch.Apply(e.run.cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.run.cfg = cfg
	return nil
}

// Stats returns a snapshot of the current (or last) run's statistics
func (e *Engine) Stats() model.RunStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run == nil {
		return model.RunStats{State: model.RunIdle, TotalRuns: e.totalRuns}
	}
	return e.statsLocked(e.run)
}

// Snapshot returns the configuration, statistics and items of the current run
func (e *Engine) Snapshot() (*Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run == nil {
		return nil, model.ErrNoRun
	}
	r := e.run
	items := make([]model.EvidenceItem, len(r.items))
	copy(items, r.items)
	return &Snapshot{Config: r.cfg, Stats: e.statsLocked(r), Items: items}, nil
}

// Results renders the current run's items in the given format
func (e *Engine) Results(format model.ResultFormat) (string, error) {
	var buf strings.Builder
	if err := e.Export(&buf, format); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Export writes the current run's items to w in the given format
func (e *Engine) Export(w io.Writer, format model.ResultFormat) error {
	snap, err := e.Snapshot()
	if err != nil {
		return err
	}
	return Render(w, snap, format)
}

func (e *Engine) current() (*run, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run == nil {
		return nil, model.ErrNoRun
	}
	return e.run, nil
}

func (e *Engine) statsLocked(r *run) model.RunStats {
	elapsed := r.elapsed
	if !r.finished() {
		elapsed = e.now().Sub(r.started)
	}

	total := 0.0
	for _, item := range r.items {
		total += item.Relevance
	}
	avg := 0.0
	if len(r.items) > 0 {
		avg = total / float64(len(r.items))
	}

	dropped := make(map[string]int, len(r.dropped))
	for k, v := range r.dropped {
		dropped[k] = v
	}

	state := r.ctl.current()
	if r.finished() && state != model.RunStopped {
		state = model.RunIdle
	}

	return model.RunStats{
		RunID:            r.id,
		State:            state,
		Progress:         percent(r.processed, r.candidates),
		Candidates:       r.candidates,
		Processed:        r.processed,
		Results:          len(r.items),
		AverageRelevance: avg,
		Elapsed:          elapsed,
		Errors:           r.errors,
		Dropped:          dropped,
		Revisits:         r.revisits,
		CacheHits:        int(e.fetcher.CacheHits() - r.hitsAtRun),
		Provider:         r.provider,
		Degraded:         r.degraded,
		TotalRuns:        e.totalRuns,
	}
}

func (e *Engine) execute(ctx context.Context, r *run, searcher Searcher) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer e.finish(r)

	e.mu.Lock()
	query, limit := r.cfg.Query, 2*r.cfg.MaxResults
	e.mu.Unlock()

	outcome, err := searcher.Search(ctx, query, limit)
	if err != nil {
		e.logger.Warn("search failed", "run_id", r.id, "error", err)
		return
	}
	if outcome.Degraded {
		e.logger.Warn("using synthetic search results", "run_id", r.id, "errors", outcome.Errors)
	}

	candidates, duplicates := uniqueCandidates(outcome.Results)

	e.mu.Lock()
	r.provider = outcome.Provider
	r.degraded = outcome.Degraded
	r.candidates = len(candidates)
	if duplicates > 0 {
		r.dropped[DropDuplicate] = duplicates
	}
	e.mu.Unlock()

	jobs := make([]worker.Job, len(candidates))
	for i, c := range candidates {
		jobs[i] = fetchJob{url: c.URL, fetcher: e.fetcher, ctl: r.ctl}
	}

	worker.Ordered(ctx, e.workers, jobs, func(i int, res worker.Result) bool {
		if !r.ctl.checkpoint(ctx) {
			return false
		}
		fr, _ := res.(fetchResult)
		return e.processCandidate(r, candidates[i], fr)
	})
}

// processCandidate turns one fetched candidate into an item or a drop and
// reports whether the run should continue
func (e *Engine) processCandidate(r *run, c search.Result, fr fetchResult) bool {
	e.mu.Lock()
	cfg := r.cfg
	e.mu.Unlock()

	var item *model.EvidenceItem
	err := fr.err
	if err == nil {
		item, err = e.buildItem(cfg, c, fr.page)
	}

	e.mu.Lock()
	r.processed++
	var extractErr *model.ExtractionError
	var analysisErr *model.AnalysisError
	switch {
	case err == nil:
		if !e.seen.Add(item.URL) {
			r.revisits++
		}
		r.items = append(r.items, *item)
	case errors.Is(err, model.ErrBelowThreshold):
		r.dropped[DropBelowThreshold]++
	case errors.As(err, &extractErr):
		r.dropped[DropExtraction]++
		r.errors++
	case errors.As(err, &analysisErr):
		r.dropped[DropAnalysis]++
		r.errors++
	default:
		r.dropped[DropFetch]++
		r.errors++
	}
	progress := model.Progress{
		RunID:     r.id,
		Processed: r.processed,
		Total:     r.candidates,
		Percent:   percent(r.processed, r.candidates),
		Results:   len(r.items),
	}
	full := len(r.items) >= r.cfg.MaxResults
	notify := e.onProgress
	e.mu.Unlock()

	if err != nil && !errors.Is(err, model.ErrBelowThreshold) {
		e.logger.Debug("candidate dropped", "run_id", r.id, "url", c.URL, "error", err)
	}
	if notify != nil {
		notify(progress)
	}
	return !full
}

func (e *Engine) buildItem(cfg model.RunConfig, c search.Result, page *fetch.Page) (*model.EvidenceItem, error) {
	doc, err := e.extractor.Extract(page.Body, page.FinalURL, page.ContentType)
	if err != nil {
		return nil, &model.ExtractionError{URL: c.URL, Reason: err.Error()}
	}
	text := strings.TrimSpace(doc.Text)
	if len([]rune(text)) < minContentChars {
		return nil, &model.ExtractionError{URL: c.URL, Reason: fmt.Sprintf("content shorter than %d characters", minContentChars)}
	}

	relevance := Relevance(text, cfg.Query)
	if relevance < cfg.RelevanceThreshold {
		return nil, fmt.Errorf("%s scored %.2f: %w", c.URL, relevance, model.ErrBelowThreshold)
	}

	analysis, err := e.analyzer.Analyze(text)
	if err != nil {
		return nil, &model.AnalysisError{URL: c.URL, Err: err}
	}

	title := c.Title
	if title == "" {
		title = doc.Title
	}
	if title == "" {
		title = fetch.TitleFromURL(c.URL)
	}
	source := c.Source
	if source == "" {
		source = search.SourceOf(c.URL)
	}
	published := c.Published
	if published == nil {
		published = page.LastModified
	}

	return &model.EvidenceItem{
		ID:           ItemID(c.URL),
		Title:        title,
		URL:          c.URL,
		Source:       source,
		Content:      extract.Truncate(text, 1000*cfg.DetailLevel),
		Summary:      Summarize(text, cfg.SummaryLength),
		Relevance:    relevance,
		SourceType:   cfg.SourceType,
		DiscoveredAt: e.now().UTC(),
		PublishedAt:  published,
		Citations:    doc.Links,
		Synthetic:    c.Synthetic,
		Analysis:     analysis,
	}, nil
}

func (e *Engine) finish(r *run) {
	e.mu.Lock()
	r.elapsed = e.now().Sub(r.started)
	close(r.done)
	stats := e.statsLocked(r)
	e.mu.Unlock()

	e.logger.Info("research run finished",
		"run_id", r.id,
		"state", stats.State,
		"results", stats.Results,
		"processed", stats.Processed,
		"errors", stats.Errors,
		"avg_relevance", fmt.Sprintf("%.2f", stats.AverageRelevance),
		"elapsed", stats.Elapsed)
}

// ItemID is the stable id of the item for a URL
func ItemID(rawURL string) string {
	sum := md5.Sum([]byte(rawURL))
	return hex.EncodeToString(sum[:])[:12]
}

func uniqueCandidates(results []search.Result) ([]search.Result, int) {
	seen := make(map[string]bool, len(results))
	unique := make([]search.Result, 0, len(results))
	for _, r := range results {
		if r.URL == "" || seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		unique = append(unique, r)
	}
	return unique, len(results) - len(unique)
}

func percent(n, total int) int {
	if total == 0 {
		return 0
	}
	return n * 100 / total
}

type fetchJob struct {
	url     string
	fetcher *ResilientFetcher
	ctl     *control
}

type fetchResult struct {
	page *fetch.Page
	err  error
}

func (r fetchResult) GetError() error { return r.err }

// Execute waits out a pause before fetching, so nothing is fetched while paused
func (j fetchJob) Execute(ctx context.Context) worker.Result {
	if !j.ctl.checkpoint(ctx) {
		return fetchResult{err: model.ErrRunStopped}
	}
	page, err := j.fetcher.Fetch(ctx, j.url)
	return fetchResult{page: page, err: err}
}
