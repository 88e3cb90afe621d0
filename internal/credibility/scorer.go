// Package credibility scores how trustworthy a single source is, independent
// of its relevance to a query.
package credibility

import (
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"
)

// TrustLevel is the label for an overall credibility score
type TrustLevel string

const (
	TrustVeryHigh TrustLevel = "Very High"
	TrustHigh     TrustLevel = "High"
	TrustModerate TrustLevel = "Moderate"
	TrustLow      TrustLevel = "Low"
	TrustVeryLow  TrustLevel = "Very Low"
)

// TrustLevelFor maps a score onto its label
func TrustLevelFor(score float64) TrustLevel {
	switch {
	case score >= 0.85:
		return TrustVeryHigh
	case score >= 0.70:
		return TrustHigh
	case score >= 0.55:
		return TrustModerate
	case score >= 0.40:
		return TrustLow
	default:
		return TrustVeryLow
	}
}

// Weights of the six sub-scores; they sum to 1
const (
	WeightDomainAuthority  = 0.30
	WeightContentQuality   = 0.25
	WeightCitationPresence = 0.15
	WeightFreshness        = 0.10
	WeightObjectivity      = 0.10
	WeightDepth            = 0.10
)

// Breakdown holds the six sub-scores, each in [0,1]
type Breakdown struct {
	DomainAuthority  float64 `json:"domain_authority"`
	ContentQuality   float64 `json:"content_quality"`
	CitationPresence float64 `json:"citation_presence"`
	Freshness        float64 `json:"freshness"`
	Objectivity      float64 `json:"objectivity"`
	Depth            float64 `json:"depth"`
}

// Weighted combines the sub-scores into the overall score
func (b Breakdown) Weighted() float64 {
	return b.DomainAuthority*WeightDomainAuthority +
		b.ContentQuality*WeightContentQuality +
		b.CitationPresence*WeightCitationPresence +
		b.Freshness*WeightFreshness +
		b.Objectivity*WeightObjectivity +
		b.Depth*WeightDepth
}

// Report is the credibility assessment of one source
type Report struct {
	Overall         float64    `json:"overall_credibility"`
	Breakdown       Breakdown  `json:"breakdown"`
	TrustLevel      TrustLevel `json:"trust_level"`
	Domain          string     `json:"domain"`
	Recommendations []string   `json:"recommendations"`
}

// Metadata carries optional source facts
type Metadata struct {
	Published *time.Time
}

var (
	citationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\[\d+\]`),
		regexp.MustCompile(`\(\d{4}\)`),
		regexp.MustCompile(`(?i)et al\.`),
		regexp.MustCompile(`(?i)according to`),
		regexp.MustCompile(`(?i)source:`),
		regexp.MustCompile(`(?i)https?://`),
	}
	dataPattern   = regexp.MustCompile(`\d+%|\d+\.\d+|statistics|data|study|research`)
	sentenceSplit = regexp.MustCompile(`[.!?]+`)

	opinionPhrases = []string{"i think", "i believe", "in my opinion", "i feel", "seems like",
		"probably", "maybe", "might be", "could be"}
	factualPhrases = []string{"study", "research", "data", "evidence", "found", "showed",
		"demonstrated", "according to", "statistics", "measured"}
)

// Scorer computes credibility reports
type Scorer struct {
	authority *AuthorityTable
	now       func() time.Time
}

// NewScorer creates a scorer; overrides replace or extend the domain table
func NewScorer(overrides map[string]float64) *Scorer {
	return &Scorer{authority: NewAuthorityTable(overrides), now: time.Now}
}

// Score assesses one source. title is accepted for symmetry with the
// evidence model and does not affect the score.
func (s *Scorer) Score(rawURL, title, content string, meta Metadata) Report {
	host := Host(rawURL)
	b := Breakdown{
		DomainAuthority:  s.authority.Score(host),
		ContentQuality:   contentQuality(content),
		CitationPresence: citationPresence(content),
		Freshness:        s.freshness(meta.Published),
		Objectivity:      objectivity(content),
		Depth:            depth(content),
	}
	overall := clamp(b.Weighted())

	return Report{
		Overall:         overall,
		Breakdown:       b,
		TrustLevel:      TrustLevelFor(overall),
		Domain:          host,
		Recommendations: recommendations(b),
	}
}

func contentQuality(content string) float64 {
	words := strings.Fields(content)
	if len(words) == 0 {
		return 0
	}

	score := 0.5
	if len(words) > 500 {
		score += 0.1
	}
	if len(words) > 1000 {
		score += 0.1
	}

	sentences := sentenceSplit.Split(content, -1)
	capitalized := 0
	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence != "" && unicode.IsUpper([]rune(sentence)[0]) {
			capitalized++
		}
	}
	score += float64(capitalized) / float64(len(sentences)) * 0.15

	if dataPattern.MatchString(strings.ToLower(content)) {
		score += 0.15
	}
	return clamp(score)
}

// citationPresence scores citations per 100 words; 5 or more scores 1
func citationPresence(content string) float64 {
	words := len(strings.Fields(content))
	if words == 0 {
		return 0
	}
	count := 0
	for _, p := range citationPatterns {
		count += len(p.FindAllStringIndex(content, -1))
	}
	density := float64(count) / (float64(words) / 100)
	return clamp(density / 5)
}

func (s *Scorer) freshness(published *time.Time) float64 {
	if published == nil || published.IsZero() {
		return 0.5
	}
	ageDays := s.now().Sub(*published).Hours() / 24
	switch {
	case ageDays < 30:
		return 1.0
	case ageDays < 90:
		return 0.9
	case ageDays < 180:
		return 0.8
	case ageDays < 365:
		return 0.7
	default:
		return 0.6
	}
}

func objectivity(content string) float64 {
	words := len(strings.Fields(content))
	if words == 0 {
		return 0.5
	}
	lower := strings.ToLower(content)
	per100 := float64(words) / 100
	opinion := float64(countPhrases(lower, opinionPhrases)) / per100
	factual := float64(countPhrases(lower, factualPhrases)) / per100
	return clamp(0.5 + factual*0.1 - opinion*0.1)
}

func depth(content string) float64 {
	n := len(strings.Fields(content))
	switch {
	case n < 100:
		return 0.2
	case n < 300:
		return 0.4
	case n < 500:
		return 0.6
	case n < 1000:
		return 0.8
	default:
		return 1.0
	}
}

// recommendations lists advice for weak sub-scores, weakest first
func recommendations(b Breakdown) []string {
	type weak struct {
		score float64
		text  string
	}
	var found []weak
	add := func(score, limit float64, text string) {
		if score < limit {
			found = append(found, weak{score, text})
		}
	}
	add(b.DomainAuthority, 0.6, "Cross-reference with more authoritative sources")
	add(b.CitationPresence, 0.3, "Look for sources with more citations")
	add(b.Freshness, 0.7, "Check for more recent information")
	add(b.Objectivity, 0.5, "Consider potential bias in this source")
	add(b.Depth, 0.5, "Seek more detailed coverage of the topic")

	if len(found) == 0 {
		return []string{"Source appears credible and comprehensive"}
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].score < found[j].score })
	out := make([]string, len(found))
	for i, w := range found {
		out[i] = w.text
	}
	return out
}

func countPhrases(s string, phrases []string) int {
	n := 0
	for _, p := range phrases {
		n += strings.Count(s, p)
	}
	return n
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
