package gather

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/ppiankov/corroborate/internal/extract"
	"github.com/ppiankov/corroborate/internal/model"
)

// Analyzer derives analysis metadata from extracted text
type Analyzer interface {
	Analyze(text string) (model.Analysis, error)
}

// Summarize returns the first N sentences longer than 20 characters, N by tier
func Summarize(text string, length model.SummaryLength) string {
	var sentences []string
	for _, s := range extract.SplitSentences(text) {
		s = strings.Join(strings.Fields(s), " ")
		if len(s) > 20 {
			sentences = append(sentences, s)
		}
	}

	n := length.Sentences()
	if len(sentences) < n {
		n = len(sentences)
	}

	summary := strings.Join(sentences[:n], ". ")
	if summary != "" && !strings.HasSuffix(summary, ".") {
		summary += "."
	}
	return summary
}

var (
	positiveWords = wordSet("good", "great", "excellent", "positive", "benefit", "beneficial", "success",
		"successful", "improve", "improved", "improvement", "effective", "advantage", "progress", "win",
		"strong", "growth", "best", "gain", "safe", "reliable", "breakthrough")
	negativeWords = wordSet("bad", "poor", "negative", "risk", "harm", "harmful", "fail", "failure",
		"failed", "problem", "decline", "loss", "weak", "worst", "danger", "dangerous", "crisis",
		"concern", "threat", "error", "wrong", "controversy")

	capitalized = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\b`)
)

var contentTypeMarkers = []struct {
	kind    model.ContentType
	markers []string
}{
	{model.ContentAcademic, []string{"abstract", "methodology", "et al", "journal", "peer-reviewed", "doi", "hypothesis", "study"}},
	{model.ContentNews, []string{"reported", "said on", "announced", "according to", "breaking", "press release", "yesterday"}},
	{model.ContentTutorial, []string{"step", "how to", "tutorial", "install", "example", "guide", "let's"}},
	{model.ContentReference, []string{"is a", "refers to", "defined as", "also known as", "encyclopedia", "see also"}},
	{model.ContentOpinion, []string{"i think", "i believe", "in my opinion", "i feel", "we should", "editorial"}},
}

// ContentAnalyzer is the default heuristic analyzer
type ContentAnalyzer struct{}

// Analyze computes counts, readability, sentiment, topics, entities and content type
func (ContentAnalyzer) Analyze(text string) (model.Analysis, error) {
	fields := strings.Fields(text)
	sentences := extract.SplitSentences(text)

	return model.Analysis{
		WordCount:     len(fields),
		SentenceCount: len(sentences),
		Sentiment:     sentiment(text),
		Topics:        topics(text, 10),
		Entities:      entityCandidates(text, 10),
		Readability:   readability(fields, len(sentences)),
		ContentType:   classify(text),
	}, nil
}

// readability is the Flesch reading ease clamped to [0,100]
func readability(words []string, sentences int) float64 {
	if len(words) == 0 || sentences == 0 {
		return 0
	}
	syllables := 0
	for _, w := range words {
		syllables += extract.Syllables(strings.Trim(w, ".,;:!?\"'()[]"))
	}
	score := 206.835 - 1.015*float64(len(words))/float64(sentences) - 84.6*float64(syllables)/float64(len(words))
	return math.Max(0, math.Min(100, score))
}

func sentiment(text string) model.Sentiment {
	pos, neg := 0, 0
	for _, w := range extract.Words(text) {
		if positiveWords[w] {
			pos++
		} else if negativeWords[w] {
			neg++
		}
	}
	if pos+neg == 0 {
		return model.SentimentNeutral
	}
	return model.SentimentFromScore(float64(pos-neg) / float64(pos+neg))
}

func topics(text string, k int) []model.Topic {
	freq := make(map[string]int)
	for _, w := range extract.Words(text) {
		if len(w) > 3 && !extract.StopWords[w] {
			freq[w]++
		}
	}
	return topK(freq, k)
}

func topK(freq map[string]int, k int) []model.Topic {
	out := make([]model.Topic, 0, len(freq))
	for term, count := range freq {
		out = append(out, model.Topic{Term: term, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Term < out[j].Term
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}

// entityCandidates returns capitalised sequences that repeat or span several words
func entityCandidates(text string, k int) []string {
	freq := make(map[string]int)
	for _, m := range capitalized.FindAllString(text, -1) {
		freq[m]++
	}
	var ranked []model.Topic
	for _, t := range topK(freq, len(freq)) {
		if t.Count >= 2 || strings.Contains(t.Term, " ") {
			ranked = append(ranked, t)
		}
	}
	names := make([]string, 0, k)
	for _, t := range ranked {
		if len(names) == k {
			break
		}
		names = append(names, t.Term)
	}
	return names
}

func classify(text string) model.ContentType {
	lower := strings.ToLower(text)
	best, bestCount := model.ContentGeneral, 1
	for _, c := range contentTypeMarkers {
		count := 0
		for _, m := range c.markers {
			count += strings.Count(lower, m)
		}
		if count > bestCount {
			best, bestCount = c.kind, count
		}
	}
	return best
}

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
