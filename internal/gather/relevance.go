package gather

import (
	"math"
	"strings"

	"github.com/ppiankov/corroborate/internal/extract"
)

// Relevance scores how well text matches query, in [0,1]. It sums four factors:
//
//	term frequency  min(0.3, 10 × matched words / total words)
//	term coverage   0.25 × distinct query terms found / query terms
//	exact phrase    0.30 when the whole query appears verbatim
//	proximity       0.15 × max(0, 1 − mean gap between matches / 100)
func Relevance(text, query string) float64 {
	terms := queryTerms(query)
	words := extract.Words(text)
	if len(terms) == 0 || len(words) == 0 {
		return 0
	}

	matched := 0
	found := make(map[string]bool)
	var positions []int
	for i, w := range words {
		if terms[w] {
			matched++
			found[w] = true
			positions = append(positions, i)
		}
	}

	score := math.Min(0.3, 10*float64(matched)/float64(len(words)))
	score += 0.25 * float64(len(found)) / float64(len(terms))

	phrase := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	if phrase != "" && strings.Contains(strings.Join(strings.Fields(strings.ToLower(text)), " "), phrase) {
		score += 0.30
	}

	if len(positions) > 1 {
		gaps := 0
		for i := 1; i < len(positions); i++ {
			gaps += positions[i] - positions[i-1]
		}
		avgGap := float64(gaps) / float64(len(positions)-1)
		score += 0.15 * math.Max(0, 1-avgGap/100)
	}

	return math.Min(1.0, score)
}

func queryTerms(query string) map[string]bool {
	terms := make(map[string]bool)
	for _, w := range extract.Words(query) {
		terms[w] = true
	}
	return terms
}
