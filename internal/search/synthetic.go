package search

import (
	"context"
	"fmt"
	"strings"
)

// SyntheticName labels results produced by the fallback generator
const SyntheticName = "synthetic"

var syntheticBases = []string{
	"https://en.wikipedia.org/wiki/",
	"https://arxiv.org/abs/",
	"https://news.ycombinator.com/item?id=",
	"https://github.com/topics/",
	"https://medium.com/topic/",
}

// SyntheticProvider deterministically generates placeholder candidates over
// reference domains. Its results are flagged Synthetic and any outcome built
// from it is degraded.
type SyntheticProvider struct {
	max int
}

// NewSyntheticProvider creates the fallback generator (at most 10 candidates per query)
func NewSyntheticProvider() *SyntheticProvider {
	return &SyntheticProvider{max: 10}
}

func (p *SyntheticProvider) Name() string { return SyntheticName }

// Search generates min(limit, 10) candidates
func (p *SyntheticProvider) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	n := limit
	if n <= 0 || n > p.max {
		n = p.max
	}

	slug := strings.ReplaceAll(strings.TrimSpace(query), " ", "_")
	results := make([]Result, 0, n)
	for i := 0; i < n; i++ {
		base := syntheticBases[i%len(syntheticBases)]
		u := fmt.Sprintf("%s%s_%d", base, slug, i)
		results = append(results, Result{
			Title:     fmt.Sprintf("%s - Result %d", query, i+1),
			URL:       u,
			Snippet:   fmt.Sprintf("This is a snippet for %s. Contains relevant information about the topic.", query),
			Source:    SourceOf(u),
			Synthetic: true,
		})
	}
	return results, nil
}
