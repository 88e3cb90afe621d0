// Package verify turns a claim into a verdict: it gathers evidence, ranks it
// against the claim, scores credibility, runs OSINT analysis over the result
// set and fuses everything into a confidence.
package verify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/corroborate/internal/credibility"
	"github.com/ppiankov/corroborate/internal/extract"
	"github.com/ppiankov/corroborate/internal/gather"
	"github.com/ppiankov/corroborate/internal/model"
	"github.com/ppiankov/corroborate/internal/osint"
	"github.com/ppiankov/corroborate/internal/score"
	"github.com/ppiankov/corroborate/internal/search"
	"github.com/ppiankov/corroborate/internal/semantic"
)

const (
	relevanceThreshold = 0.3

	supportSimilarity  = 0.6
	supportCredibility = 0.6
	conflictSimilarity = 0.3

	maxSupporting  = 5
	maxConflicting = 5
	maxNeutral     = 3

	excerptChars = 300
)

// Gatherer collects evidence for a query. *gather.Engine satisfies it.
type Gatherer interface {
	Run(ctx context.Context, cfg model.RunConfig, opts ...gather.RunOption) (*gather.Snapshot, error)
}

// Narrator writes an optional explanation of a verdict
type Narrator interface {
	Narrate(ctx context.Context, v *model.Verdict) (*model.LLMNarrative, error)
}

// Options wires the orchestrator collaborators. Gatherer is required.
type Options struct {
	Gatherer    Gatherer
	Searcher    gather.Searcher     // Tops up explicit sources with search results; nil means explicit sources only
	Credibility *credibility.Scorer // Defaults to the built-in domain table
	OSINT       *osint.Engine
	Scorer      *score.Scorer
	Store       Store // Defaults to a MemoryStore
	Narrator    Narrator
	Research    model.RunConfig // Research defaults; query, depth, max results and threshold are overridden
	Logger      *slog.Logger
}

// Request is one verification call
type Request struct {
	Claim   string
	Context string
	Sources []string // Explicit source URLs, fetched before searched candidates
	Level   model.Level
}

// Orchestrator runs verifications
type Orchestrator struct {
	gatherer    Gatherer
	searcher    gather.Searcher
	credibility *credibility.Scorer
	osint       *osint.Engine
	scorer      *score.Scorer
	store       Store
	narrator    Narrator
	research    model.RunConfig
	logger      *slog.Logger
	now         func() time.Time
}

// New creates an orchestrator from its collaborators
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cred := opts.Credibility
	if cred == nil {
		cred = credibility.NewScorer(nil)
	}
	engine := opts.OSINT
	if engine == nil {
		engine = osint.NewEngine()
	}
	scorer := opts.Scorer
	if scorer == nil {
		scorer = score.NewScorer()
	}
	store := opts.Store
	if store == nil {
		store = NewMemoryStore()
	}
	research := opts.Research
	if research.SourceType == "" {
		research = model.DefaultRunConfig("")
	}

	return &Orchestrator{
		gatherer:    opts.Gatherer,
		searcher:    opts.Searcher,
		credibility: cred,
		osint:       engine,
		scorer:      scorer,
		store:       store,
		narrator:    opts.Narrator,
		research:    research,
		logger:      logger,
		now:         time.Now,
	}
}

// Verify gathers and assesses evidence for a claim and stores the verdict
func (o *Orchestrator) Verify(ctx context.Context, req Request) (*model.Verdict, error) {
	claim := strings.TrimSpace(req.Claim)
	if claim == "" {
		return nil, fmt.Errorf("%w: claim must not be empty", model.ErrConfiguration)
	}
	level := req.Level
	if level == "" {
		level = model.LevelStandard
	}
	tier, ok := level.Tier()
	if !ok {
		return nil, fmt.Errorf("%w: unknown verification level %q", model.ErrConfiguration, req.Level)
	}
	if o.gatherer == nil {
		return nil, fmt.Errorf("%w: no evidence gatherer configured", model.ErrConfiguration)
	}

	start := o.now()
	cfg := o.research
	cfg.Query = claim
	if c := strings.TrimSpace(req.Context); c != "" {
		cfg.Query = claim + " " + c
	}
	cfg.Depth = tier.Depth
	cfg.MaxResults = tier.MaxResults
	cfg.RelevanceThreshold = relevanceThreshold

	var runOpts []gather.RunOption
	if len(req.Sources) > 0 {
		runOpts = append(runOpts, gather.WithSearcher(&sourcesFirst{
			sources: search.FromURLs("sources", req.Sources),
			base:    o.searcher,
		}))
	} else if o.searcher != nil {
		runOpts = append(runOpts, gather.WithSearcher(o.searcher))
	}

	o.logger.Info("verification started", "claim", claim, "level", level, "sources", len(req.Sources))
	snap, err := o.gatherer.Run(ctx, cfg, runOpts...)
	if err != nil {
		return nil, fmt.Errorf("gather evidence: %w", err)
	}

	v := &model.Verdict{
		ID:        "ver_" + uuid.NewString(),
		Claim:     claim,
		Level:     level,
		Credits:   tier.Credits,
		CreatedAt: start,
		Degraded:  snap.Stats.Degraded,
	}

	if len(snap.Items) == 0 {
		result := o.scorer.Calculate(score.Input{Degraded: snap.Stats.Degraded})
		o.apply(v, result)
	} else {
		bundle, in, err := o.assess(ctx, claim, snap.Items)
		if err != nil {
			return nil, err
		}
		in.Degraded = snap.Stats.Degraded
		result := o.scorer.Calculate(in)
		v.Evidence = bundle
		v.SourcesAnalyzed = len(snap.Items)
		o.apply(v, result)
	}
	v.ProcessingTime = o.now().Sub(start)

	if o.narrator != nil {
		o.narrate(ctx, v)
	}

	if err := o.store.Save(ctx, v); err != nil {
		return nil, fmt.Errorf("store verdict: %w", err)
	}
	o.logger.Info("verification finished",
		"id", v.ID, "status", v.Status, "confidence", v.Confidence,
		"sources", v.SourcesAnalyzed, "degraded", v.Degraded)
	return v, nil
}

// Get returns a stored verdict
func (o *Orchestrator) Get(ctx context.Context, id string) (*model.Verdict, error) {
	return o.store.Get(ctx, id)
}

// List returns the newest stored verdicts
func (o *Orchestrator) List(ctx context.Context, limit int) ([]*model.Verdict, error) {
	return o.store.List(ctx, limit)
}

func (o *Orchestrator) apply(v *model.Verdict, r score.Result) {
	v.Confidence = r.Confidence
	v.Status = r.Status
	v.Evidence.Factors = r.Factors
	v.Signals = r.Signals
	v.Reasoning = r.Reasoning
}

// assess ranks, scores and analyses the evidence in parallel, then categorises it
func (o *Orchestrator) assess(ctx context.Context, claim string, items []model.EvidenceItem) (model.EvidenceBundle, score.Input, error) {
	similarity := make(map[string]float64, len(items))
	reports := make([]credibility.Report, len(items))
	var summary *model.OSINTSummary

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ix := semantic.New(semantic.Options{SmoothIDF: true})
		for _, it := range items {
			ix.AddDocument(it.ID, it.Title, it.Content)
		}
		ix.BuildIndex()
		if err := gctx.Err(); err != nil {
			return err
		}
		for _, it := range items {
			similarity[it.ID] = ix.Similarity(it.ID, claim)
		}
		return nil
	})

	g.Go(func() error {
		for i, it := range items {
			if err := gctx.Err(); err != nil {
				return err
			}
			reports[i] = o.credibility.Score(it.URL, it.Title, it.Content, credibility.Metadata{Published: it.PublishedAt})
		}
		return nil
	})

	g.Go(func() error {
		summary = o.osint.ComprehensiveAnalysis(osint.FromEvidence(items)).Summary()
		return nil
	})

	if err := g.Wait(); err != nil {
		return model.EvidenceBundle{}, score.Input{}, fmt.Errorf("assess evidence: %w", err)
	}

	var (
		bundle model.EvidenceBundle
		in     score.Input
	)
	in.Credibility = make([]float64, 0, len(items))
	for i, it := range items {
		sim := similarity[it.ID]
		rep := reports[i]
		in.Credibility = append(in.Credibility, rep.Overall)

		a := model.SourceAssessment{
			Title:       it.Title,
			URL:         it.URL,
			Similarity:  round3(sim),
			Credibility: rep.Overall,
			TrustLevel:  string(rep.TrustLevel),
			Relevance:   it.Relevance,
			Excerpt:     extract.Truncate(excerptOf(it), excerptChars),
		}
		switch {
		case sim > supportSimilarity && rep.Overall > supportCredibility:
			in.Supporting++
			bundle.Supporting = append(bundle.Supporting, a)
		case sim < conflictSimilarity:
			in.Conflicting++
			bundle.Conflicting = append(bundle.Conflicting, a)
		default:
			in.Neutral++
			bundle.Neutral = append(bundle.Neutral, a)
		}
	}

	bundle.Supporting = topBySimilarity(bundle.Supporting, maxSupporting)
	bundle.Conflicting = topBySimilarity(bundle.Conflicting, maxConflicting)
	bundle.Neutral = topBySimilarity(bundle.Neutral, maxNeutral)

	if summary != nil {
		in.OSINTQuality = summary.IntelligenceScore
		bundle.OSINT = summary
	}
	return bundle, in, nil
}

func (o *Orchestrator) narrate(ctx context.Context, v *model.Verdict) {
	n, err := o.narrator.Narrate(ctx, v)
	if err != nil {
		o.logger.Warn("verdict narrative failed", "id", v.ID, "error", err)
		v.LLM = &model.LLMNarrative{Warnings: []string{fmt.Sprintf("narrative unavailable: %v", err)}}
		return
	}
	v.LLM = n
}

// sourcesFirst puts explicit sources ahead of searched candidates
type sourcesFirst struct {
	sources *search.StaticProvider
	base    gather.Searcher
}

func (s *sourcesFirst) Search(ctx context.Context, query string, limit int) (search.Outcome, error) {
	explicit, err := s.sources.Search(ctx, query, 0)
	if err != nil {
		return search.Outcome{}, err
	}
	out := search.Outcome{Results: explicit, Provider: s.sources.Name()}
	if s.base == nil {
		return out, nil
	}

	more, err := s.base.Search(ctx, query, limit)
	if err != nil {
		return search.Outcome{}, err
	}
	out.Results = append(out.Results, more.Results...)
	out.Errors = more.Errors
	if len(more.Results) > 0 {
		out.Provider += "+" + more.Provider
		out.Degraded = more.Degraded
	}
	return out, nil
}

func excerptOf(it model.EvidenceItem) string {
	if it.Summary != "" {
		return it.Summary
	}
	return it.Content
}

func topBySimilarity(list []model.SourceAssessment, n int) []model.SourceAssessment {
	sort.SliceStable(list, func(i, j int) bool { return list[i].Similarity > list[j].Similarity })
	if len(list) > n {
		list = list[:n]
	}
	return list
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
