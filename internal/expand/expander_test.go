package expand

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	e := New()
	e.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

	x := e.Expand("AI health")
	assert.Equal(t, "AI health", x.Original)
	require.Len(t, x.Expanded, 9)
	assert.Equal(t, "AI health", x.Expanded[0])
	assert.Contains(t, x.Expanded, "artificial intelligence health")
	assert.Contains(t, x.Expanded, "ai healthcare")
	assert.Contains(t, x.RelatedTerms, "deep learning")
	assert.Len(t, x.RelatedTerms, 8)

	require.Len(t, x.QuestionForms, 6)
	assert.Equal(t, "What is AI health?", x.QuestionForms[0])
	require.Len(t, x.RelatedSearches, 8)
	assert.Equal(t, "latest AI health trends", x.RelatedSearches[7])
	assert.Contains(t, x.SearchTips, "Add 'recent' or '2026' for latest information")
}

func TestExpand_WholeWordsOnly(t *testing.T) {
	x := New().Expand("said daily")
	assert.Equal(t, []string{"said daily"}, x.Expanded)
	assert.Empty(t, x.RelatedTerms)
}

func TestSuggestFollowUps(t *testing.T) {
	results := []Result{
		{Title: "Boiling point of water", Content: "Pressure changes the boiling point. Altitude lowers pressure."},
		{Title: "Water at altitude", Content: "At altitude, pressure drops and boiling happens sooner. This is physics."},
	}

	got := New().SuggestFollowUps("water", results)
	require.NotEmpty(t, got)
	assert.LessOrEqual(t, len(got), 5)
	assert.Equal(t, []string{"water and boiling", "water and pressure", "water and altitude"}, got[:3])
	for _, s := range got {
		assert.NotEqual(t, "water and water", s)
		assert.NotEqual(t, "water and this", s)
	}
	assert.Empty(t, New().SuggestFollowUps("x", nil))
}
