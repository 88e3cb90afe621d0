package extract

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	sentenceSplit = regexp.MustCompile(`[.!?]+`)
	wordPattern   = regexp.MustCompile(`\b\w+\b`)
)

// StopWords are common English words ignored by topic and token extraction
var StopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "being": true, "have": true, "has": true,
	"had": true, "do": true, "does": true, "did": true, "will": true, "would": true,
	"could": true, "should": true, "may": true, "might": true, "must": true,
	"can": true, "this": true, "that": true, "these": true, "those": true,
	"it": true, "its": true, "they": true, "them": true, "their": true, "there": true,
	"what": true, "which": true, "who": true, "when": true, "where": true, "why": true,
	"how": true, "not": true, "also": true, "than": true, "then": true, "into": true,
	"about": true, "such": true, "more": true, "most": true, "other": true, "some": true,
	"only": true, "over": true, "very": true, "just": true, "each": true, "all": true,
}

// SplitSentences splits text on sentence terminators, returning trimmed non-empty pieces
func SplitSentences(text string) []string {
	var sentences []string
	for _, s := range sentenceSplit.Split(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// Words returns the lowercase word-boundary tokens of text
func Words(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}

// Tokenize returns lowercase words longer than two characters that are not stop words
func Tokenize(text string) []string {
	var tokens []string
	for _, w := range Words(text) {
		if len(w) > 2 && !StopWords[w] {
			tokens = append(tokens, w)
		}
	}
	return tokens
}

// Truncate shortens s to at most n runes, appending an ellipsis when cut
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

// Syllables estimates the syllable count of an English word
func Syllables(word string) int {
	word = strings.ToLower(word)
	count := 0
	prevVowel := false
	for _, r := range word {
		vowel := strings.ContainsRune("aeiouy", r)
		if vowel && !prevVowel {
			count++
		}
		prevVowel = vowel
	}
	if strings.HasSuffix(word, "e") && count > 1 && !strings.HasSuffix(word, "le") {
		count--
	}
	if count == 0 && strings.IndexFunc(word, unicode.IsLetter) >= 0 {
		count = 1
	}
	return count
}
