// Package semantic ranks documents by cosine similarity of TF-IDF vectors.
package semantic

import (
	"math"
	"sort"

	"github.com/ppiankov/corroborate/internal/extract"
)

// Vector maps terms to TF-IDF weights
type Vector map[string]float64

// Options tunes index weighting
type Options struct {
	// SmoothIDF uses ln(1 + N/df) instead of ln(N/df), so terms present in
	// every document keep a non-zero weight in small collections.
	SmoothIDF bool
}

// Match is one ranked document
type Match struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Similarity float64 `json:"similarity"`
}

type document struct {
	id     string
	title  string
	tokens []string
	vector Vector
}

// Index is an in-memory TF-IDF index. Documents are added, then BuildIndex
// computes idf and vectors; adding more documents requires another build.
type Index struct {
	opts  Options
	docs  []*document
	byID  map[string]int
	idf   map[string]float64
	vocab map[string]struct{}
}

// New creates an empty index
func New(opts Options) *Index {
	return &Index{
		opts:  opts,
		byID:  make(map[string]int),
		idf:   make(map[string]float64),
		vocab: make(map[string]struct{}),
	}
}

// AddDocument tokenizes title and content and stores the document.
// Re-adding an id replaces the earlier document.
func (ix *Index) AddDocument(id, title, content string) {
	doc := &document{id: id, title: title, tokens: extract.Tokenize(title + " " + content)}
	if i, ok := ix.byID[id]; ok {
		ix.docs[i] = doc
	} else {
		ix.byID[id] = len(ix.docs)
		ix.docs = append(ix.docs, doc)
	}
	for _, t := range doc.tokens {
		ix.vocab[t] = struct{}{}
	}
}

// BuildIndex computes idf over all documents and a vector per document
func (ix *Index) BuildIndex() {
	ix.idf = make(map[string]float64)
	if len(ix.docs) == 0 {
		return
	}

	df := make(map[string]int)
	for _, doc := range ix.docs {
		seen := make(map[string]bool)
		for _, t := range doc.tokens {
			if !seen[t] {
				seen[t] = true
				df[t]++
			}
		}
	}

	n := float64(len(ix.docs))
	for term, count := range df {
		ratio := n / float64(count)
		if ix.opts.SmoothIDF {
			ix.idf[term] = math.Log(1 + ratio)
		} else {
			ix.idf[term] = math.Log(ratio)
		}
	}

	for _, doc := range ix.docs {
		doc.vector = ix.vectorize(doc.tokens)
	}
}

// Vector returns the TF-IDF vector of text under the current idf
func (ix *Index) Vector(text string) Vector {
	return ix.vectorize(extract.Tokenize(text))
}

func (ix *Index) vectorize(tokens []string) Vector {
	v := make(Vector)
	if len(tokens) == 0 {
		return v
	}
	counts := make(map[string]int)
	for _, t := range tokens {
		counts[t]++
	}
	total := float64(len(tokens))
	for term, c := range counts {
		v[term] = float64(c) / total * ix.idf[term]
	}
	return v
}

// Search ranks all documents against query, best first
func (ix *Index) Search(query string, topK int) []Match {
	return ix.rank(ix.Vector(query), "", topK)
}

// FindSimilar ranks documents against the document id, excluding itself.
// It returns nil for an unknown id.
func (ix *Index) FindSimilar(id string, topK int) []Match {
	i, ok := ix.byID[id]
	if !ok {
		return nil
	}
	return ix.rank(ix.docs[i].vector, id, topK)
}

// Similarity returns the cosine similarity of the document with id to query
func (ix *Index) Similarity(id, query string) float64 {
	i, ok := ix.byID[id]
	if !ok {
		return 0
	}
	return Cosine(ix.Vector(query), ix.docs[i].vector)
}

func (ix *Index) rank(q Vector, exclude string, topK int) []Match {
	matches := make([]Match, 0, len(ix.docs))
	for _, doc := range ix.docs {
		if doc.id == exclude {
			continue
		}
		matches = append(matches, Match{ID: doc.id, Title: doc.title, Similarity: Cosine(q, doc.vector)})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}

// Len returns the number of documents
func (ix *Index) Len() int {
	return len(ix.docs)
}

// Vocabulary returns the number of distinct tokens across all documents
func (ix *Index) Vocabulary() int {
	return len(ix.vocab)
}

// Cosine returns the cosine similarity of two vectors; 0 when they share no
// terms or either has zero magnitude
func Cosine(a, b Vector) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	dot := 0.0
	shared := false
	for term, wa := range a {
		if wb, ok := b[term]; ok {
			dot += wa * wb
			shared = true
		}
	}
	if !shared {
		return 0
	}

	magA, magB := magnitude(a), magnitude(b)
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (magA * magB)
}

func magnitude(v Vector) float64 {
	sum := 0.0
	for _, w := range v {
		sum += w * w
	}
	return math.Sqrt(sum)
}
