package credibility

import "testing"

func TestAuthorityTable_Score(t *testing.T) {
	table := NewAuthorityTable(map[string]float64{"example.com": 0.2, "Trusted.Example.NET": 0.99})

	tests := []struct {
		host     string
		expected float64
		desc     string
	}{
		{"arxiv.org", 0.95, "Exact academic domain"},
		{"reuters.com", 0.85, "Exact press domain"},
		{"en.wikipedia.org", 0.75, "Subdomain of reference domain"},
		{"www.bbc.com", 0.85, "www prefix"},
		{"cs.stanford.edu", 0.95, "edu TLD"},
		{"nasa.gov", 0.90, "gov TLD"},
		{"ox.ac.uk", 0.95, "UK academic suffix"},
		{"blog.example.com", 0.2, "Override applies to subdomains"},
		{"trusted.example.net", 0.99, "Override keys are normalised"},
		{"shop.io", 0.50, "Unknown TLD falls back to default"},
		{"charity.org", 0.55, "org TLD"},
		{"cheap.net", 0.45, "net TLD"},
		{"", 0.50, "Empty host"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := table.Score(tt.host); got != tt.expected {
				t.Errorf("Expected %.2f for %q, got %.2f", tt.expected, tt.host, got)
			}
		})
	}
}

func TestHost(t *testing.T) {
	if got := Host("https://WWW.Nature.com:443/articles/1"); got != "www.nature.com" {
		t.Errorf("Unexpected host %q", got)
	}
	if got := Host("://bad"); got != "" {
		t.Errorf("Expected empty host for bad URL, got %q", got)
	}
}
