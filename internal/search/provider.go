package search

import (
	"context"
	"net/url"
	"strings"
	"time"
)

// Provider returns ordered candidate results for a query
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]Result, error)
}

// Result is one search candidate
type Result struct {
	Title     string     `json:"title"`
	URL       string     `json:"url"`
	Snippet   string     `json:"snippet"`
	Source    string     `json:"source"`
	Published *time.Time `json:"published,omitempty"`
	Synthetic bool       `json:"synthetic,omitempty"` // Generated by the fallback provider, not retrieved
}

// Outcome is the result of a chain search
type Outcome struct {
	Results  []Result `json:"results"`
	Provider string   `json:"provider"` // Name of the provider that produced Results
	Degraded bool     `json:"degraded"` // True when Results came from the fallback provider
	Errors   []string `json:"errors,omitempty"`
}

// SourceOf returns the host of a URL, without a leading "www."
func SourceOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}
