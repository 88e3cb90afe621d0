package verify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/corroborate/internal/fetch"
	"github.com/ppiankov/corroborate/internal/gather"
	"github.com/ppiankov/corroborate/internal/model"
	"github.com/ppiankov/corroborate/internal/search"
)

const claim = "Water boils at 100 degrees Celsius at sea level"

// fakeGatherer returns a fixed snapshot and records the run config
type fakeGatherer struct {
	mu    sync.Mutex
	items []model.EvidenceItem
	stats model.RunStats
	err   error
	cfgs  []model.RunConfig
}

func (g *fakeGatherer) Run(ctx context.Context, cfg model.RunConfig, opts ...gather.RunOption) (*gather.Snapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cfgs = append(g.cfgs, cfg)
	if g.err != nil {
		return nil, g.err
	}
	return &gather.Snapshot{Config: cfg, Stats: g.stats, Items: g.items}, nil
}

// pageFetcher serves canned HTML pages; unknown URLs are 404s
type pageFetcher struct {
	pages map[string]string
}

func (f *pageFetcher) Fetch(ctx context.Context, rawURL string) (*fetch.Page, error) {
	body, ok := f.pages[rawURL]
	if !ok {
		return nil, &model.FetchError{URL: rawURL, Status: 404}
	}
	return &fetch.Page{URL: rawURL, FinalURL: rawURL, Body: body, ContentType: "text/html"}, nil
}

const boilingPage = `<html><head><title>Boiling</title></head><body><article>
<p>Water boils at 100 degrees Celsius at sea level. The boiling point of water depends on pressure.</p>
<p>At higher altitude water boils at a lower temperature because the air pressure is lower.</p>
</article></body></html>`

func boilingEvidence(now time.Time) []model.EvidenceItem {
	published := now.Add(-24 * time.Hour)
	content := strings.Repeat("Water boils at 100 degrees Celsius at sea level according to the study (2021) [1]. ", 40)
	return []model.EvidenceItem{
		{
			ID:           "nature",
			Title:        "Boiling point of water",
			URL:          "https://www.nature.com/articles/boiling",
			Source:       "nature.com",
			Content:      content,
			Relevance:    0.9,
			DiscoveredAt: now,
			PublishedAt:  &published,
		},
		{
			ID:           "science",
			Title:        "Water boiling point",
			URL:          "https://www.science.org/doi/boiling",
			Source:       "science.org",
			Content:      content,
			Relevance:    0.9,
			DiscoveredAt: now,
			PublishedAt:  &published,
		},
	}
}

func TestVerify_HighOverlapCredibleSourcesAreVerified(t *testing.T) {
	g := &fakeGatherer{items: boilingEvidence(time.Now().UTC())}
	o := New(Options{Gatherer: g})

	v, err := o.Verify(context.Background(), Request{Claim: claim, Level: model.LevelFast})
	require.NoError(t, err)

	assert.Equal(t, model.StatusVerified, v.Status)
	assert.Greater(t, v.Confidence, 0.75)
	assert.LessOrEqual(t, v.Confidence, 1.0)
	assert.True(t, strings.HasPrefix(v.ID, "ver_"), v.ID)
	assert.Equal(t, 2, v.SourcesAnalyzed)
	assert.Equal(t, 1, v.Credits)
	assert.Equal(t, model.LevelFast, v.Level)
	assert.False(t, v.Degraded)

	require.Len(t, v.Evidence.Supporting, 2)
	assert.Empty(t, v.Evidence.Conflicting)
	for _, s := range v.Evidence.Supporting {
		assert.Greater(t, s.Similarity, 0.6)
		assert.Greater(t, s.Credibility, 0.6)
		assert.NotEmpty(t, s.Excerpt)
	}
	assert.Equal(t, 2, v.Evidence.Factors.SupportingCount)
	require.NotNil(t, v.Evidence.OSINT)
	assert.Greater(t, v.Evidence.OSINT.IntelligenceScore, 0.6)
	assert.Contains(t, v.Reasoning, "Claim verified with high confidence")

	// Fast tier with the verification relevance threshold
	require.Len(t, g.cfgs, 1)
	assert.Equal(t, claim, g.cfgs[0].Query)
	assert.Equal(t, 2, g.cfgs[0].Depth)
	assert.Equal(t, 5, g.cfgs[0].MaxResults)
	assert.InDelta(t, 0.3, g.cfgs[0].RelevanceThreshold, 1e-9)
}

func TestVerify_StoresVerdict(t *testing.T) {
	g := &fakeGatherer{items: boilingEvidence(time.Now().UTC())}
	o := New(Options{Gatherer: g})

	v, err := o.Verify(context.Background(), Request{Claim: claim})
	require.NoError(t, err)
	assert.Equal(t, model.LevelStandard, v.Level)
	assert.Equal(t, 3, v.Credits)

	got, err := o.Get(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, v.Confidence, got.Confidence)
	assert.Equal(t, v.Status, got.Status)

	_, err = o.Get(context.Background(), "ver_missing")
	assert.ErrorIs(t, err, model.ErrNotFound)

	list, err := o.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestVerify_ZeroCandidates(t *testing.T) {
	engine := gather.NewEngine(gather.Options{
		Searcher: search.NewChain([]search.Provider{search.NewStaticProvider("static", nil)}, nil, nil),
		Fetcher:  &pageFetcher{},
		Retry:    model.RetryConfig{MaxAttempts: 1},
	})
	o := New(Options{Gatherer: engine})

	v, err := o.Verify(context.Background(), Request{Claim: claim, Level: model.LevelFast})
	require.NoError(t, err)

	assert.Zero(t, v.Confidence)
	assert.Equal(t, model.StatusUnverified, v.Status)
	assert.Zero(t, v.SourcesAnalyzed)
	assert.Equal(t, "No sources found to verify the claim.", v.Reasoning)
	require.NotEmpty(t, v.Signals)
	assert.Equal(t, model.SignalNoEvidence, v.Signals[0].Type)
}

func TestVerify_ExplicitSourcesComeFirst(t *testing.T) {
	source := "https://physics.example.edu/boiling"
	searched := "https://news.example.com/boiling"
	engine := gather.NewEngine(gather.Options{
		Fetcher: &pageFetcher{pages: map[string]string{source: boilingPage, searched: boilingPage}},
		Retry:   model.RetryConfig{MaxAttempts: 1},
		Workers: 1,
	})
	o := New(Options{
		Gatherer: engine,
		Searcher: search.NewChain([]search.Provider{search.FromURLs("static", []string{searched})}, nil, nil),
	})

	v, err := o.Verify(context.Background(), Request{
		Claim:   claim,
		Context: "altitude",
		Sources: []string{source},
		Level:   model.LevelFast,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, v.SourcesAnalyzed)

	all := append(append(append([]model.SourceAssessment{}, v.Evidence.Supporting...), v.Evidence.Neutral...), v.Evidence.Conflicting...)
	urls := make([]string, 0, len(all))
	for _, a := range all {
		urls = append(urls, a.URL)
	}
	assert.ElementsMatch(t, []string{source, searched}, urls)
}

func TestVerify_SourcesWithoutSearcher(t *testing.T) {
	source := "https://physics.example.edu/boiling"
	engine := gather.NewEngine(gather.Options{
		Fetcher: &pageFetcher{pages: map[string]string{source: boilingPage}},
		Retry:   model.RetryConfig{MaxAttempts: 1},
	})
	o := New(Options{Gatherer: engine})

	v, err := o.Verify(context.Background(), Request{Claim: claim, Sources: []string{source}, Level: model.LevelFast})
	require.NoError(t, err)
	assert.Equal(t, 1, v.SourcesAnalyzed)
}

func TestVerify_ContextExtendsQuery(t *testing.T) {
	g := &fakeGatherer{}
	o := New(Options{Gatherer: g})

	_, err := o.Verify(context.Background(), Request{Claim: claim, Context: " physics ", Level: model.LevelDeep})
	require.NoError(t, err)

	require.Len(t, g.cfgs, 1)
	assert.Equal(t, claim+" physics", g.cfgs[0].Query)
	assert.Equal(t, 5, g.cfgs[0].Depth)
	assert.Equal(t, 20, g.cfgs[0].MaxResults)
}

func TestVerify_ConcurrentRunConflict(t *testing.T) {
	o := New(Options{Gatherer: &fakeGatherer{err: model.ErrConcurrentRun}})

	_, err := o.Verify(context.Background(), Request{Claim: claim})
	assert.ErrorIs(t, err, model.ErrConcurrentRun)
}

func TestVerify_InvalidRequests(t *testing.T) {
	o := New(Options{Gatherer: &fakeGatherer{}})

	_, err := o.Verify(context.Background(), Request{Claim: "   "})
	assert.ErrorIs(t, err, model.ErrConfiguration)

	_, err = o.Verify(context.Background(), Request{Claim: claim, Level: "extreme"})
	assert.ErrorIs(t, err, model.ErrConfiguration)

	_, err = New(Options{}).Verify(context.Background(), Request{Claim: claim})
	assert.ErrorIs(t, err, model.ErrConfiguration)
}

func TestVerify_DegradedEvidenceIsFlagged(t *testing.T) {
	items := boilingEvidence(time.Now().UTC())
	for i := range items {
		items[i].Synthetic = true
	}
	g := &fakeGatherer{items: items, stats: model.RunStats{Provider: search.SyntheticName, Degraded: true}}
	o := New(Options{Gatherer: g})

	v, err := o.Verify(context.Background(), Request{Claim: claim, Level: model.LevelFast})
	require.NoError(t, err)
	assert.True(t, v.Degraded)

	last := v.Signals[len(v.Signals)-1]
	assert.Equal(t, model.SignalDegraded, last.Type)
}

func TestVerify_ConflictingAndNeutralAreCapped(t *testing.T) {
	now := time.Now().UTC()
	var items []model.EvidenceItem
	for i := 0; i < 8; i++ {
		items = append(items, model.EvidenceItem{
			ID:           string(rune('a' + i)),
			Title:        "Garden notes",
			URL:          "https://garden.example.com/" + string(rune('a'+i)),
			Source:       "garden.example.com",
			Content:      "Tomatoes grow best in warm soil with plenty of sunlight and regular feeding.",
			Relevance:    0.4,
			DiscoveredAt: now,
		})
	}
	o := New(Options{Gatherer: &fakeGatherer{items: items}})

	v, err := o.Verify(context.Background(), Request{Claim: claim, Level: model.LevelDeep})
	require.NoError(t, err)

	assert.Equal(t, 8, v.SourcesAnalyzed)
	assert.Equal(t, 8, v.Evidence.Factors.ConflictingCount)
	assert.Len(t, v.Evidence.Conflicting, 5)
	assert.NotEqual(t, model.StatusVerified, v.Status)
	assert.Contains(t, v.Reasoning, "Warning: 8 sources present conflicting information.")
}

type fakeNarrator struct {
	err error
}

func (n fakeNarrator) Narrate(ctx context.Context, v *model.Verdict) (*model.LLMNarrative, error) {
	if n.err != nil {
		return nil, n.err
	}
	return &model.LLMNarrative{Provider: "fake", Text: "narrative for " + v.ID}, nil
}

func TestVerify_Narrative(t *testing.T) {
	g := &fakeGatherer{items: boilingEvidence(time.Now().UTC())}

	v, err := New(Options{Gatherer: g, Narrator: fakeNarrator{}}).Verify(context.Background(), Request{Claim: claim})
	require.NoError(t, err)
	require.NotNil(t, v.LLM)
	assert.Equal(t, "narrative for "+v.ID, v.LLM.Text)

	// A failing narrator never fails the verification
	v, err = New(Options{Gatherer: g, Narrator: fakeNarrator{err: errors.New("quota exceeded")}}).Verify(context.Background(), Request{Claim: claim})
	require.NoError(t, err)
	require.NotNil(t, v.LLM)
	assert.Empty(t, v.LLM.Text)
	require.Len(t, v.LLM.Warnings, 1)
	assert.Contains(t, v.LLM.Warnings[0], "quota exceeded")
	assert.Equal(t, model.StatusVerified, v.Status)
}
