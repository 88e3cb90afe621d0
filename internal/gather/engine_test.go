package gather

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/corroborate/internal/cache"
	"github.com/ppiankov/corroborate/internal/model"
	"github.com/ppiankov/corroborate/internal/search"
)

const relevantPage = `<html><head><title>Boiling</title></head><body><article>
<p>Water boils at 100 degrees Celsius at sea level. The boiling point of water depends on pressure.</p>
<p>At higher altitude water boils at a lower temperature because the air pressure is lower.</p>
</article></body></html>`

const offTopicPage = `<html><body><p>Tomatoes grow best in warm soil with plenty of sunlight and regular feeding.
Gardeners often stake the plants so the fruit stays off the ground during the summer months.</p></body></html>`

const shortPage = `<html><body><p>Too short.</p></body></html>`

func pageURL(i int) string {
	return fmt.Sprintf("https://source%d.example.org/water", i)
}

// relevantSite serves n relevant pages at pageURL(0..n-1)
func relevantSite(n int) (*fakeFetcher, *search.StaticProvider) {
	pages := make(map[string]string, n)
	urls := make([]string, 0, n)
	for i := 0; i < n; i++ {
		pages[pageURL(i)] = relevantPage
		urls = append(urls, pageURL(i))
	}
	return newFakeFetcher(pages), search.FromURLs("static", urls)
}

func newTestEngine(f *fakeFetcher, p search.Provider, workers int) *Engine {
	return NewEngine(Options{
		Searcher: search.NewChain([]search.Provider{p}, nil, nil),
		Fetcher:  f,
		Cache:    cache.NewMemoryCache(24*time.Hour, time.Hour),
		CacheTTL: 24 * time.Hour,
		Retry:    testRetry,
		Workers:  workers,
	})
}

func testConfig(query string, max int) model.RunConfig {
	cfg := model.DefaultRunConfig(query)
	cfg.MaxResults = max
	cfg.RelevanceThreshold = 0.5
	return cfg
}

func TestEngine_RunCollectsAndDrops(t *testing.T) {
	noSleep(t)
	f := newFakeFetcher(map[string]string{
		"https://a.example.org/": relevantPage,
		"https://b.example.org/": offTopicPage,
		"https://c.example.org/": shortPage,
	})
	p := search.FromURLs("static", []string{
		"https://a.example.org/",
		"https://b.example.org/",
		"https://c.example.org/",
		"https://d.example.org/",
		"https://a.example.org/",
	})
	e := newTestEngine(f, p, 2)

	snap, err := e.Run(context.Background(), testConfig("water boils", 10))
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(snap.Items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(snap.Items))
	}
	item := snap.Items[0]
	if item.URL != "https://a.example.org/" {
		t.Errorf("Unexpected item URL %s", item.URL)
	}
	if item.ID != ItemID(item.URL) || len(item.ID) != 12 {
		t.Errorf("Unexpected item id %q", item.ID)
	}
	if item.Relevance < 0.5 || item.Relevance > 1 {
		t.Errorf("Relevance out of range: %f", item.Relevance)
	}
	if item.Summary == "" || !strings.HasSuffix(item.Summary, ".") {
		t.Errorf("Unexpected summary %q", item.Summary)
	}
	if item.Analysis.WordCount == 0 {
		t.Error("Expected analysis metadata")
	}

	stats := snap.Stats
	if stats.State != model.RunIdle {
		t.Errorf("Expected idle after completion, got %s", stats.State)
	}
	if stats.Candidates != 4 || stats.Processed != 4 || stats.Progress != 100 {
		t.Errorf("Unexpected progress: %+v", stats)
	}
	if stats.Dropped[DropDuplicate] != 1 {
		t.Errorf("Expected 1 duplicate dropped, got %v", stats.Dropped)
	}
	if stats.Dropped[DropBelowThreshold] != 1 || stats.Dropped[DropExtraction] != 1 || stats.Dropped[DropFetch] != 1 {
		t.Errorf("Unexpected drop counts: %v", stats.Dropped)
	}
	// Below-threshold drops are not errors
	if stats.Errors != 2 {
		t.Errorf("Expected 2 errors, got %d", stats.Errors)
	}
	if stats.TotalRuns != 1 || stats.Provider != "static" || stats.Degraded {
		t.Errorf("Unexpected run metadata: %+v", stats)
	}
}

func TestEngine_StopsAtMaxResults(t *testing.T) {
	f, p := relevantSite(6)
	e := newTestEngine(f, p, 1)

	snap, err := e.Run(context.Background(), testConfig("water boils", 2))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(snap.Items) != 2 {
		t.Errorf("Expected 2 items, got %d", len(snap.Items))
	}
	if snap.Stats.Processed != 2 {
		t.Errorf("Expected processing to stop after 2 candidates, got %d", snap.Stats.Processed)
	}
	if snap.Stats.Candidates != 4 {
		t.Errorf("Expected 2×maxResults candidates, got %d", snap.Stats.Candidates)
	}
}

func TestEngine_ConfigurationError(t *testing.T) {
	f, p := relevantSite(1)
	e := newTestEngine(f, p, 1)

	cfg := testConfig("", 5)
	if _, err := e.Run(context.Background(), cfg); !errors.Is(err, model.ErrConfiguration) {
		t.Fatalf("Expected ErrConfiguration, got %v", err)
	}

	cfg = testConfig("water", 500)
	if _, err := e.Run(context.Background(), cfg); !errors.Is(err, model.ErrConfiguration) {
		t.Fatalf("Expected ErrConfiguration for max results, got %v", err)
	}

	if stats := e.Stats(); stats.TotalRuns != 0 || stats.State != model.RunIdle {
		t.Errorf("A rejected run must not start: %+v", stats)
	}
	if f.totalCalls() != 0 {
		t.Errorf("Expected no fetches, got %d", f.totalCalls())
	}
}

func TestEngine_ConcurrentRunConflict(t *testing.T) {
	f, p := relevantSite(2)
	f.gate = make(chan struct{})
	e := newTestEngine(f, p, 1)

	id, err := e.Start(context.Background(), testConfig("water boils", 2))
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := e.Start(context.Background(), testConfig("other", 2)); !errors.Is(err, model.ErrConcurrentRun) {
		t.Errorf("Expected ErrConcurrentRun, got %v", err)
	}
	if got := e.Stats().RunID; got != id {
		t.Errorf("Conflicting start changed the run: %s != %s", got, id)
	}

	close(f.gate)
	if _, err := e.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}

	// A finished run no longer blocks a new one
	if _, err := e.Run(context.Background(), testConfig("water boils", 2)); err != nil {
		t.Errorf("Expected second run to start, got %v", err)
	}
	if e.Stats().TotalRuns != 2 {
		t.Errorf("Expected 2 runs, got %d", e.Stats().TotalRuns)
	}
}

func TestEngine_PauseHaltsProcessingUntilResume(t *testing.T) {
	f, p := relevantSite(4)
	e := newTestEngine(f, p, 1)

	paused := make(chan struct{})
	e.OnProgress(func(pr model.Progress) {
		if pr.Processed == 1 {
			if err := e.Pause(); err != nil {
				t.Errorf("pause: %v", err)
			}
			close(paused)
		}
	})

	if _, err := e.Start(context.Background(), testConfig("water boils", 4)); err != nil {
		t.Fatalf("start: %v", err)
	}
	<-paused
	time.Sleep(50 * time.Millisecond)

	stats := e.Stats()
	if stats.State != model.RunPaused {
		t.Errorf("Expected paused, got %s", stats.State)
	}
	if stats.Processed != 1 || stats.Results != 1 {
		t.Errorf("Processing continued while paused: %+v", stats)
	}
	if err := e.Pause(); err == nil {
		t.Error("Pausing a paused run should fail")
	}

	if err := e.Resume(); err != nil {
		t.Fatalf("resume: %v", err)
	}
	snap, err := e.Wait(context.Background())
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if snap.Stats.Processed != 4 || len(snap.Items) != 4 {
		t.Errorf("Expected all candidates processed after resume: %+v", snap.Stats)
	}
}

func TestEngine_StopIsTerminal(t *testing.T) {
	f, p := relevantSite(6)
	e := newTestEngine(f, p, 1)

	e.OnProgress(func(pr model.Progress) {
		if pr.Processed == 1 {
			if err := e.Stop(); err != nil {
				t.Errorf("stop: %v", err)
			}
		}
	})

	snap, err := e.Run(context.Background(), testConfig("water boils", 6))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if snap.Stats.State != model.RunStopped {
		t.Errorf("Expected stopped, got %s", snap.Stats.State)
	}
	if snap.Stats.Processed != 1 || len(snap.Items) != 1 {
		t.Errorf("Expected no candidate to start after stop: %+v", snap.Stats)
	}
	if err := e.Resume(); !errors.Is(err, model.ErrRunStopped) {
		t.Errorf("Expected ErrRunStopped on resume, got %v", err)
	}
}

func TestEngine_RunControlsWithoutRun(t *testing.T) {
	f, p := relevantSite(1)
	e := newTestEngine(f, p, 1)

	for name, fn := range map[string]func() error{
		"pause":  e.Pause,
		"resume": e.Resume,
		"stop":   e.Stop,
		"update": func() error { return e.UpdateParameters(model.RunPatch{}) },
	} {
		if err := fn(); !errors.Is(err, model.ErrNoRun) {
			t.Errorf("%s: expected ErrNoRun, got %v", name, err)
		}
	}
	if _, err := e.Results(model.FormatJSON); !errors.Is(err, model.ErrNoRun) {
		t.Errorf("results: expected ErrNoRun, got %v", err)
	}
}

func TestEngine_UpdateParameters(t *testing.T) {
	f, p := relevantSite(4)
	f.gate = make(chan struct{})
	e := newTestEngine(f, p, 1)

	if _, err := e.Start(context.Background(), testConfig("water boils", 4)); err != nil {
		t.Fatalf("start: %v", err)
	}

	bad := 2.0
	if err := e.UpdateParameters(model.RunPatch{RelevanceThreshold: &bad}); !errors.Is(err, model.ErrConfiguration) {
		t.Errorf("Expected ErrConfiguration, got %v", err)
	}
	max := 1
	brief := model.SummaryBrief
	if err := e.UpdateParameters(model.RunPatch{MaxResults: &max, SummaryLength: &brief}); err != nil {
		t.Fatalf("update: %v", err)
	}

	close(f.gate)
	snap, err := e.Wait(context.Background())
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if len(snap.Items) != 1 {
		t.Errorf("Expected updated max results to stop the run at 1 item, got %d", len(snap.Items))
	}
	if snap.Config.SummaryLength != model.SummaryBrief {
		t.Errorf("Expected brief summaries, got %s", snap.Config.SummaryLength)
	}
}

func TestEngine_CacheSpansRuns(t *testing.T) {
	f, p := relevantSite(3)
	e := newTestEngine(f, p, 2)

	if _, err := e.Run(context.Background(), testConfig("water boils", 3)); err != nil {
		t.Fatalf("first run: %v", err)
	}
	// An unrelated query still reuses the pages cached by the first run
	snap, err := e.Run(context.Background(), testConfig("boiling point pressure", 3))
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	for i := 0; i < 3; i++ {
		if got := f.callsFor(pageURL(i)); got != 1 {
			t.Errorf("%s fetched %d times, expected 1", pageURL(i), got)
		}
	}
	if snap.Stats.CacheHits != 3 {
		t.Errorf("Expected 3 cache hits in the second run, got %d", snap.Stats.CacheHits)
	}
	if snap.Stats.Revisits != len(snap.Items) {
		t.Errorf("Expected every item to be a revisit, got %d of %d", snap.Stats.Revisits, len(snap.Items))
	}
}

func TestEngine_BlacklistSpansRuns(t *testing.T) {
	noSleep(t)
	const u = "https://down.example.org/"
	f := newFakeFetcher(nil)
	f.errs[u] = &model.FetchError{URL: u, Status: 502}
	e := newTestEngine(f, search.FromURLs("static", []string{u}), 1)

	for i := 0; i < 2; i++ {
		snap, err := e.Run(context.Background(), testConfig("water", 1))
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if snap.Stats.Errors != 1 || snap.Stats.Dropped[DropFetch] != 1 {
			t.Errorf("run %d: expected one fetch failure, got %+v", i, snap.Stats)
		}
	}
	if got := f.callsFor(u); got != 3 {
		t.Errorf("Expected 3 attempts in the first run only, got %d", got)
	}
}

type failingAnalyzer struct{}

func (failingAnalyzer) Analyze(string) (model.Analysis, error) {
	return model.Analysis{}, errors.New("lexicon unavailable")
}

func TestEngine_AnalysisErrorDropsItem(t *testing.T) {
	f, p := relevantSite(2)
	e := NewEngine(Options{
		Searcher: search.NewChain([]search.Provider{p}, nil, nil),
		Fetcher:  f,
		Analyzer: failingAnalyzer{},
		Retry:    testRetry,
	})

	snap, err := e.Run(context.Background(), testConfig("water boils", 2))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(snap.Items) != 0 || snap.Stats.Errors != 2 || snap.Stats.Dropped[DropAnalysis] != 2 {
		t.Errorf("Expected both items dropped as analysis errors: %+v", snap.Stats)
	}
}

func TestEngine_DegradedModeIsLabeled(t *testing.T) {
	f := newFakeFetcher(map[string]string{})
	chain := search.NewChain(
		[]search.Provider{search.NewFailingProvider("wikipedia", errors.New("unreachable"))},
		search.NewSyntheticProvider(),
		nil,
	)
	for i := 0; i < 4; i++ {
		results, _ := search.NewSyntheticProvider().Search(context.Background(), "water boils", 4)
		f.pages[results[i].URL] = relevantPage
	}
	e := NewEngine(Options{Searcher: chain, Fetcher: f, Retry: testRetry})

	snap, err := e.Run(context.Background(), testConfig("water boils", 2))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !snap.Stats.Degraded || snap.Stats.Provider != search.SyntheticName {
		t.Errorf("Expected degraded synthetic run: %+v", snap.Stats)
	}
	for _, item := range snap.Items {
		if !item.Synthetic {
			t.Errorf("Item %s not flagged synthetic", item.URL)
		}
	}

	for _, format := range []model.ResultFormat{model.FormatJSON, model.FormatMarkdown, model.FormatHTML, model.FormatText} {
		out, err := e.Results(format)
		if err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		if !strings.Contains(strings.ToLower(out), "degraded") {
			t.Errorf("%s output does not flag degraded mode", format)
		}
	}
}
