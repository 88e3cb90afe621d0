package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// RunConfig is the configuration snapshot of one research run
type RunConfig struct {
	Query              string        `json:"query" yaml:"query"`
	SourceType         SourceType    `json:"source_type" yaml:"source_type" mapstructure:"source_type"`
	Depth              int           `json:"depth" yaml:"depth"`
	MaxResults         int           `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
	RelevanceThreshold float64       `json:"relevance_threshold" yaml:"relevance_threshold" mapstructure:"relevance_threshold"`
	DetailLevel        int           `json:"detail_level" yaml:"detail_level" mapstructure:"detail_level"`
	SummaryLength      SummaryLength `json:"summary_length" yaml:"summary_length" mapstructure:"summary_length"`
}

// Validate checks the run parameters before a run may start
func (c RunConfig) Validate() error {
	if strings.TrimSpace(c.Query) == "" {
		return configErrorf("query must not be empty")
	}
	if !c.SourceType.Valid() {
		return configErrorf("unknown source type %q", c.SourceType)
	}
	if c.Depth < 1 || c.Depth > 10 {
		return configErrorf("depth must be within 1..10, got %d", c.Depth)
	}
	if c.MaxResults < 1 || c.MaxResults > 100 {
		return configErrorf("max results must be within 1..100, got %d", c.MaxResults)
	}
	if math.IsNaN(c.RelevanceThreshold) || c.RelevanceThreshold < 0 || c.RelevanceThreshold > 1 {
		return configErrorf("relevance threshold must be within [0,1], got %.2f", c.RelevanceThreshold)
	}
	if c.DetailLevel < 1 || c.DetailLevel > 10 {
		return configErrorf("detail level must be within 1..10, got %d", c.DetailLevel)
	}
	if _, ok := summarySentences[c.SummaryLength]; !ok {
		return configErrorf("unknown summary length %q", c.SummaryLength)
	}
	return nil
}

// DefaultRunConfig returns the research defaults for a query
func DefaultRunConfig(query string) RunConfig {
	return RunConfig{
		Query:              query,
		SourceType:         SourceAll,
		Depth:              5,
		MaxResults:         20,
		RelevanceThreshold: 0.7,
		DetailLevel:        5,
		SummaryLength:      SummaryModerate,
	}
}

// RunPatch is a partial parameter update applied while a run is active.
// Nil fields are left unchanged.
type RunPatch struct {
	MaxResults         *int
	RelevanceThreshold *float64
	DetailLevel        *int
	SummaryLength      *SummaryLength
	Depth              *int
}

// Apply returns a copy of cfg with the patch applied
func (p RunPatch) Apply(cfg RunConfig) RunConfig {
	if p.MaxResults != nil {
		cfg.MaxResults = *p.MaxResults
	}
	if p.RelevanceThreshold != nil {
		cfg.RelevanceThreshold = *p.RelevanceThreshold
	}
	if p.DetailLevel != nil {
		cfg.DetailLevel = *p.DetailLevel
	}
	if p.SummaryLength != nil {
		cfg.SummaryLength = *p.SummaryLength
	}
	if p.Depth != nil {
		cfg.Depth = *p.Depth
	}
	return cfg
}

// SummaryLength selects how many sentences go into a summary
type SummaryLength string

const (
	SummaryBrief    SummaryLength = "brief"
	SummaryModerate SummaryLength = "moderate"
	SummaryDetailed SummaryLength = "detailed"
)

var summarySentences = map[SummaryLength]int{
	SummaryBrief:    2,
	SummaryModerate: 5,
	SummaryDetailed: 10,
}

// Sentences returns the sentence budget for the tier (moderate when unknown)
func (s SummaryLength) Sentences() int {
	if n, ok := summarySentences[s]; ok {
		return n
	}
	return summarySentences[SummaryModerate]
}

// RunState is the lifecycle state of a research run
type RunState string

const (
	RunIdle    RunState = "idle"
	RunRunning RunState = "running"
	RunPaused  RunState = "paused"
	RunStopped RunState = "stopped"
)

// RunStats are aggregate statistics of the current (or last) run
type RunStats struct {
	RunID            string         `json:"run_id"`
	State            RunState       `json:"state"`
	Progress         int            `json:"progress"` // Percentage of candidates processed
	Candidates       int            `json:"candidates"`
	Processed        int            `json:"processed"`
	Results          int            `json:"results"`
	AverageRelevance float64        `json:"avg_relevance"`
	Elapsed          time.Duration  `json:"processing_time"`
	Errors           int            `json:"errors"`
	Dropped          map[string]int `json:"dropped,omitempty"` // Dropped candidates by reason
	Revisits         int            `json:"revisits"`          // Items whose URL produced evidence in an earlier run
	CacheHits        int            `json:"cache_hits"`
	Provider         string         `json:"provider,omitempty"`
	Degraded         bool           `json:"degraded"` // True when synthetic fallback candidates were used
	TotalRuns        int            `json:"total_runs"`
}

// Progress is emitted after every processed candidate
type Progress struct {
	RunID     string `json:"run_id"`
	Processed int    `json:"processed"`
	Total     int    `json:"total"`
	Percent   int    `json:"percent"`
	Results   int    `json:"results"`
}

// ResultFormat selects a rendering of evidence items
type ResultFormat string

const (
	FormatJSON     ResultFormat = "json"     // structured
	FormatMarkdown ResultFormat = "markdown" // prose outline
	FormatHTML     ResultFormat = "html"     // markup
	FormatText     ResultFormat = "text"     // plain text
)

// ParseResultFormat parses a format name, accepting a few aliases
func ParseResultFormat(s string) (ResultFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "structured":
		return FormatJSON, nil
	case "markdown", "md", "outline":
		return FormatMarkdown, nil
	case "html", "markup":
		return FormatHTML, nil
	case "text", "txt", "plain":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: unknown result format %q", ErrConfiguration, s)
}
