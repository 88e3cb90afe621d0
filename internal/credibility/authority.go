package credibility

import (
	"net/url"
	"strings"
)

// defaultDomainScores is the curated domain authority table. Bare TLD keys
// ("edu", "com") are consulted only after exact and suffix matches fail.
var defaultDomainScores = map[string]float64{
	// Academic and research
	"edu": 0.95, "arxiv.org": 0.95, "nature.com": 0.95, "science.org": 0.95,
	"ieee.org": 0.95, "acm.org": 0.95, "pubmed.ncbi.nlm.nih.gov": 0.95,

	// Government and official
	"gov": 0.90, "who.int": 0.90, "un.org": 0.90, "europa.eu": 0.90,

	// Major press
	"reuters.com": 0.85, "apnews.com": 0.85, "bbc.com": 0.85, "npr.org": 0.85,
	"theguardian.com": 0.80, "nytimes.com": 0.80, "wsj.com": 0.80,

	// Tech and professional
	"github.com": 0.75, "stackoverflow.com": 0.75, "medium.com": 0.70,
	"techcrunch.com": 0.70, "wired.com": 0.70, "arstechnica.com": 0.70,

	// Reference
	"wikipedia.org": 0.75, "britannica.com": 0.80,

	// Generic TLDs
	"com": 0.50, "org": 0.55, "net": 0.45,
}

const defaultAuthority = 0.50

// AuthorityTable scores hosts by domain authority
type AuthorityTable struct {
	scores map[string]float64
}

// NewAuthorityTable creates a table from the curated defaults with overrides applied
func NewAuthorityTable(overrides map[string]float64) *AuthorityTable {
	scores := make(map[string]float64, len(defaultDomainScores)+len(overrides))
	for domain, s := range defaultDomainScores {
		scores[domain] = s
	}
	for domain, s := range overrides {
		scores[strings.ToLower(strings.TrimSpace(domain))] = s
	}
	return &AuthorityTable{scores: scores}
}

// Host returns the lowercase host of rawURL without port
func Host(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

// Score returns the authority of host: exact match, then parent domain
// (en.wikipedia.org matches wikipedia.org), then TLD, then academic and
// government heuristics
func (a *AuthorityTable) Score(host string) float64 {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" {
		return defaultAuthority
	}

	if s, ok := a.scores[host]; ok {
		return s
	}

	// Walk parent domains, stopping before the bare TLD
	labels := strings.Split(host, ".")
	for i := 1; i < len(labels)-1; i++ {
		if s, ok := a.scores[strings.Join(labels[i:], ".")]; ok {
			return s
		}
	}

	if s, ok := a.scores[labels[len(labels)-1]]; ok {
		return s
	}

	switch {
	case strings.Contains(host, ".edu") || strings.HasSuffix(host, ".ac.uk"):
		return 0.95
	case strings.Contains(host, ".gov"):
		return 0.90
	case strings.Contains(host, ".org"):
		return 0.55
	}
	return defaultAuthority
}
