package search

import "context"

// StaticProvider serves a fixed result list (explicit sources, offline runs, tests)
type StaticProvider struct {
	name    string
	results []Result
	err     error
}

// NewStaticProvider creates a provider that always returns results
func NewStaticProvider(name string, results []Result) *StaticProvider {
	return &StaticProvider{name: name, results: results}
}

// NewFailingProvider creates a provider that always fails with err
func NewFailingProvider(name string, err error) *StaticProvider {
	return &StaticProvider{name: name, err: err}
}

// FromURLs builds a static provider over explicit source URLs
func FromURLs(name string, urls []string) *StaticProvider {
	results := make([]Result, 0, len(urls))
	for _, u := range urls {
		results = append(results, Result{Title: SourceOf(u), URL: u, Source: SourceOf(u)})
	}
	return NewStaticProvider(name, results)
}

func (p *StaticProvider) Name() string { return p.name }

// Search returns the fixed results, truncated to limit
func (p *StaticProvider) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if p.err != nil {
		return nil, p.err
	}
	out := make([]Result, len(p.results))
	copy(out, p.results)
	return truncate(out, limit), nil
}
