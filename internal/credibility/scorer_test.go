package credibility

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedScorer(now time.Time) *Scorer {
	s := NewScorer(nil)
	s.now = func() time.Time { return now }
	return s
}

func TestWeightsSumToOne(t *testing.T) {
	sum := WeightDomainAuthority + WeightContentQuality + WeightCitationPresence +
		WeightFreshness + WeightObjectivity + WeightDepth
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestScore_AcademicSource(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	published := now.AddDate(0, 0, -10)
	content := strings.Repeat("According to the study (2021), researchers measured data showing 42% growth [1]. ", 80)

	r := fixedScorer(now).Score("https://arxiv.org/abs/2101.0001", "Growth study", content, Metadata{Published: &published})

	assert.Equal(t, "arxiv.org", r.Domain)
	assert.Equal(t, 0.95, r.Breakdown.DomainAuthority)
	assert.Equal(t, 1.0, r.Breakdown.Freshness)
	assert.Equal(t, 1.0, r.Breakdown.CitationPresence)
	assert.Equal(t, 1.0, r.Breakdown.Objectivity)
	assert.Equal(t, 0.8, r.Breakdown.Depth)
	assert.Greater(t, r.Overall, 0.85)
	assert.Equal(t, TrustVeryHigh, r.TrustLevel)
	assert.Equal(t, []string{"Source appears credible and comprehensive"}, r.Recommendations)
}

func TestScore_WeakSource(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	old := now.AddDate(-2, 0, 0)
	content := "i think maybe this could be true. i feel it probably is."

	r := fixedScorer(now).Score("http://random.xyz/post", "", content, Metadata{Published: &old})

	assert.Equal(t, 0.5, r.Breakdown.DomainAuthority)
	assert.Equal(t, 0.6, r.Breakdown.Freshness)
	assert.Equal(t, 0.0, r.Breakdown.Objectivity)
	assert.Equal(t, 0.2, r.Breakdown.Depth)
	assert.Less(t, r.Overall, 0.55)

	require.Len(t, r.Recommendations, 5)
	// Weakest first: citations and objectivity (0) lead, freshness (0.6) is last
	assert.Equal(t, "Look for sources with more citations", r.Recommendations[0])
	assert.Equal(t, "Consider potential bias in this source", r.Recommendations[1])
	assert.Equal(t, "Cross-reference with more authoritative sources", r.Recommendations[3])
	assert.Equal(t, "Check for more recent information", r.Recommendations[4])
}

func TestScore_UnknownFreshnessAndEmptyContent(t *testing.T) {
	r := NewScorer(nil).Score("https://example.org", "", "", Metadata{})
	assert.Equal(t, 0.5, r.Breakdown.Freshness)
	assert.Equal(t, 0.0, r.Breakdown.ContentQuality)
	assert.Equal(t, 0.0, r.Breakdown.CitationPresence)
	assert.Equal(t, 0.5, r.Breakdown.Objectivity)
}

func TestScore_OverallAlwaysInRange(t *testing.T) {
	inputs := []string{
		"",
		"x",
		strings.Repeat("[1] [2] (1999) et al. source: http://a ", 500),
		strings.Repeat("i think i believe maybe probably ", 300),
	}
	s := NewScorer(map[string]float64{"max.example": 1})
	for _, content := range inputs {
		for _, u := range []string{"https://max.example", "::bad", "https://nih.gov"} {
			r := s.Score(u, "", content, Metadata{})
			assert.False(t, math.IsNaN(r.Overall))
			assert.GreaterOrEqual(t, r.Overall, 0.0)
			assert.LessOrEqual(t, r.Overall, 1.0)
			for _, v := range []float64{r.Breakdown.DomainAuthority, r.Breakdown.ContentQuality, r.Breakdown.CitationPresence,
				r.Breakdown.Freshness, r.Breakdown.Objectivity, r.Breakdown.Depth} {
				assert.GreaterOrEqual(t, v, 0.0)
				assert.LessOrEqual(t, v, 1.0)
			}
		}
	}
}

func TestTrustLevelFor(t *testing.T) {
	assert.Equal(t, TrustVeryHigh, TrustLevelFor(0.85))
	assert.Equal(t, TrustHigh, TrustLevelFor(0.7))
	assert.Equal(t, TrustModerate, TrustLevelFor(0.55))
	assert.Equal(t, TrustLow, TrustLevelFor(0.4))
	assert.Equal(t, TrustVeryLow, TrustLevelFor(0.39))
}
