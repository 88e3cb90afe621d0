// Package intelligence combines semantic indexing, credibility scoring,
// knowledge graph extraction and query expansion into one report.
package intelligence

import (
	"github.com/ppiankov/corroborate/internal/credibility"
	"github.com/ppiankov/corroborate/internal/expand"
	"github.com/ppiankov/corroborate/internal/knowledge"
	"github.com/ppiankov/corroborate/internal/model"
	"github.com/ppiankov/corroborate/internal/semantic"
)

const (
	highCredibility = 0.7
	lowCredibility  = 0.5
)

// CredibilityAnalysis aggregates per-source credibility
type CredibilityAnalysis struct {
	Average   float64              `json:"average_score"`
	HighCount int                  `json:"high_credibility_count"` // >= 0.7
	LowCount  int                  `json:"low_credibility_count"`  // < 0.5
	Details   []credibility.Report `json:"details"`
}

// Metrics counts what the analysis produced
type Metrics struct {
	Entities      int `json:"total_entities"`
	Relationships int `json:"total_relationships"`
	Vectors       int `json:"semantic_vectors"`
	Vocabulary    int `json:"vocabulary_size"`
}

// Report is the comprehensive analysis of a result set
type Report struct {
	Query       string              `json:"query"`
	Credibility CredibilityAnalysis `json:"credibility_analysis"`
	Graph       knowledge.Graph     `json:"knowledge_graph"`
	Expansion   expand.Expansion    `json:"query_expansion"`
	FollowUps   []string            `json:"follow_up_suggestions"`
	Metrics     Metrics             `json:"intelligence_metrics"`

	// Index is the built semantic index over the results
	Index *semantic.Index `json:"-"`
}

// Analyzer runs the intelligence components over evidence
type Analyzer struct {
	scorer   *credibility.Scorer
	expander *expand.Expander
	opts     semantic.Options
}

// New creates an analyzer. A nil scorer uses the default domain table.
func New(scorer *credibility.Scorer, opts semantic.Options) *Analyzer {
	if scorer == nil {
		scorer = credibility.NewScorer(nil)
	}
	return &Analyzer{scorer: scorer, expander: expand.New(), opts: opts}
}

// Analyze indexes, scores and graphs items and expands query
func (a *Analyzer) Analyze(items []model.EvidenceItem, query string) Report {
	ix := semantic.New(a.opts)
	docs := make([]knowledge.Document, 0, len(items))
	results := make([]expand.Result, 0, len(items))
	details := make([]credibility.Report, 0, len(items))

	total := 0.0
	cred := CredibilityAnalysis{}
	for _, it := range items {
		ix.AddDocument(it.ID, it.Title, it.Content)
		docs = append(docs, knowledge.Document{Title: it.Title, Content: it.Content})
		results = append(results, expand.Result{Title: it.Title, Content: it.Content})

		r := a.scorer.Score(it.URL, it.Title, it.Content, credibility.Metadata{Published: it.PublishedAt})
		details = append(details, r)
		total += r.Overall
		if r.Overall >= highCredibility {
			cred.HighCount++
		}
		if r.Overall < lowCredibility {
			cred.LowCount++
		}
	}
	ix.BuildIndex()

	cred.Details = details
	if len(items) > 0 {
		cred.Average = total / float64(len(items))
	}

	graph := knowledge.BuildGraph(docs)
	return Report{
		Query:       query,
		Credibility: cred,
		Graph:       graph,
		Expansion:   a.expander.Expand(query),
		FollowUps:   a.expander.SuggestFollowUps(query, results),
		Metrics: Metrics{
			Entities:      graph.Stats.TotalEntities,
			Relationships: graph.Stats.TotalRelationships,
			Vectors:       ix.Len(),
			Vocabulary:    ix.Vocabulary(),
		},
		Index: ix,
	}
}
