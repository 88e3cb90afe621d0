// Package expand generates query variants, question forms and follow-up
// searches.
package expand

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

var synonyms = map[string][]string{
	"ai":       {"artificial intelligence", "machine learning", "deep learning", "neural networks"},
	"ml":       {"machine learning", "ai", "predictive analytics"},
	"tech":     {"technology", "computing", "digital", "innovation"},
	"data":     {"information", "statistics", "analytics", "metrics"},
	"climate":  {"environment", "global warming", "weather", "sustainability"},
	"health":   {"healthcare", "medicine", "wellness", "medical"},
	"economy":  {"economic", "financial", "business", "market"},
	"research": {"study", "investigation", "analysis", "examination"},
}

var questionTemplates = []string{
	"What is %s?",
	"How does %s work?",
	"Why is %s important?",
	"When was %s discovered?",
	"Where is %s used?",
	"Who invented %s?",
}

var relatedTemplates = []string{
	"%s tutorial",
	"%s guide",
	"%s examples",
	"best %s",
	"%s vs alternatives",
	"%s benefits",
	"%s applications",
	"latest %s trends",
}

var followUpExcluded = map[string]bool{
	"this": true, "that": true, "with": true, "from": true, "have": true,
	"been": true, "were": true, "their": true, "there": true,
}

var longWord = regexp.MustCompile(`\b\w{4,}\b`)

// Expansion is the result of Expand
type Expansion struct {
	Original        string   `json:"original_query"`
	Expanded        []string `json:"expanded_queries"` // Original first, then synonym variants
	RelatedTerms    []string `json:"related_terms"`
	QuestionForms   []string `json:"question_forms"`
	RelatedSearches []string `json:"related_searches"`
	SearchTips      []string `json:"search_tips"`
}

// Result is a search result used for follow-up suggestions
type Result struct {
	Title   string
	Content string
}

// Expander expands queries
type Expander struct {
	now func() time.Time
}

// New creates an expander
func New() *Expander {
	return &Expander{now: time.Now}
}

// Expand substitutes synonyms word by word and adds question forms,
// related searches and search tips
func (e *Expander) Expand(query string) Expansion {
	query = strings.TrimSpace(query)
	words := strings.Fields(strings.ToLower(query))

	expanded := []string{query}
	seen := map[string]bool{query: true}
	related := map[string]bool{}

	for i, w := range words {
		alts, ok := synonyms[w]
		if !ok {
			continue
		}
		for _, alt := range alts {
			related[alt] = true
			variant := make([]string, len(words))
			copy(variant, words)
			variant[i] = alt
			q := strings.Join(variant, " ")
			if !seen[q] {
				seen[q] = true
				expanded = append(expanded, q)
			}
		}
	}

	terms := make([]string, 0, len(related))
	for t := range related {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	return Expansion{
		Original:        query,
		Expanded:        expanded,
		RelatedTerms:    terms,
		QuestionForms:   fill(questionTemplates, query),
		RelatedSearches: fill(relatedTemplates, query),
		SearchTips: []string{
			"Use quotes for exact phrases",
			fmt.Sprintf("Add 'recent' or '%d' for latest information", e.now().Year()),
			"Try specific terms instead of general ones",
			"Combine with action words: 'how to', 'guide', 'tutorial'",
		},
	}
}

// SuggestFollowUps proposes up to five "<query> and <term>" searches from
// the most frequent words in result titles and leading content
func (e *Expander) SuggestFollowUps(query string, results []Result) []string {
	var parts []string
	for _, r := range results {
		content := r.Content
		if len(content) > 200 {
			content = content[:200]
		}
		parts = append(parts, r.Title+" "+content)
	}

	counts := make(map[string]int)
	var order []string
	for _, w := range longWord.FindAllString(strings.ToLower(strings.Join(parts, " ")), -1) {
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > 10 {
		order = order[:10]
	}

	queryTerms := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(query)) {
		queryTerms[w] = true
	}

	var suggestions []string
	for _, term := range order {
		if queryTerms[term] || followUpExcluded[term] {
			continue
		}
		suggestions = append(suggestions, fmt.Sprintf("%s and %s", query, term))
		if len(suggestions) == 5 {
			break
		}
	}
	return suggestions
}

func fill(templates []string, query string) []string {
	out := make([]string, len(templates))
	for i, t := range templates {
		out[i] = fmt.Sprintf(t, query)
	}
	return out
}
