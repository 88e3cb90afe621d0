package intelligence

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/corroborate/internal/model"
	"github.com/ppiankov/corroborate/internal/semantic"
)

func TestAnalyze(t *testing.T) {
	items := []model.EvidenceItem{
		{
			ID:      "strong",
			Title:   "Growth study",
			URL:     "https://arxiv.org/abs/2101.0001",
			Content: strings.Repeat("According to the study (2021), researchers measured data showing 42% growth [1]. ", 80),
		},
		{
			ID:    "weak",
			Title: "Random post",
			URL:   "http://random.xyz/post",
		},
	}

	r := New(nil, semantic.Options{SmoothIDF: true}).Analyze(items, "growth data")

	assert.Equal(t, "growth data", r.Query)
	require.Len(t, r.Credibility.Details, 2)
	assert.Equal(t, 1, r.Credibility.HighCount)
	assert.Equal(t, 1, r.Credibility.LowCount)
	assert.InDelta(t, (r.Credibility.Details[0].Overall+r.Credibility.Details[1].Overall)/2, r.Credibility.Average, 1e-9)

	assert.Equal(t, r.Graph.Stats.TotalEntities, r.Metrics.Entities)
	assert.Equal(t, r.Graph.Stats.TotalRelationships, r.Metrics.Relationships)
	assert.Equal(t, 2, r.Metrics.Vectors)
	assert.Greater(t, r.Metrics.Vocabulary, 0)

	assert.Equal(t, "growth data", r.Expansion.Original)
	require.NotEmpty(t, r.FollowUps)
	for _, f := range r.FollowUps {
		assert.True(t, strings.HasPrefix(f, "growth data and "), f)
	}

	require.NotNil(t, r.Index)
	matches := r.Index.Search("researchers measured growth", 1)
	require.Len(t, matches, 1)
	assert.Equal(t, "strong", matches[0].ID)
}

func TestAnalyze_Empty(t *testing.T) {
	r := New(nil, semantic.Options{}).Analyze(nil, "anything")
	assert.Zero(t, r.Credibility.Average)
	assert.Empty(t, r.Credibility.Details)
	assert.Zero(t, r.Metrics.Vectors)
	assert.Empty(t, r.FollowUps)
}
