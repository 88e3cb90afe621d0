package model

import "time"

// EvidenceItem is one retrieved, extracted and scored unit of external content
type EvidenceItem struct {
	ID           string     `json:"id"`                     // Content hash of the source URL
	Title        string     `json:"title"`                  // Title reported by the search provider
	URL          string     `json:"url"`                    // Source URL
	Source       string     `json:"source"`                 // Host or provider label the candidate came from
	Content      string     `json:"content"`                // Extracted text (truncated by detail level)
	Summary      string     `json:"summary"`                // Leading sentences by summary length tier
	Relevance    float64    `json:"relevance_score"`        // Heuristic [0,1] match against the query
	SourceType   SourceType `json:"source_type"`            // Source type tag from the run config
	DiscoveredAt time.Time  `json:"timestamp"`              // When the item was processed
	PublishedAt  *time.Time `json:"published_at,omitempty"` // Published / Last-Modified time when known
	Citations    []string   `json:"citations,omitempty"`    // Outbound links found in the page
	Synthetic    bool       `json:"synthetic,omitempty"`    // Candidate came from the fallback provider
	Analysis     Analysis   `json:"metadata"`               // Content analysis metadata
}

// Analysis contains heuristic content analysis for an evidence item
type Analysis struct {
	WordCount     int         `json:"word_count"`
	SentenceCount int         `json:"sentence_count"`
	Sentiment     Sentiment   `json:"sentiment"`
	Topics        []Topic     `json:"key_topics"`
	Entities      []string    `json:"entities"`
	Readability   float64     `json:"readability_score"` // Flesch reading ease, clamped to [0,100]
	ContentType   ContentType `json:"content_type"`
}

// Topic is a ranked keyword with its frequency
type Topic struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// SourceType tags what kind of sources a run targets
type SourceType string

const (
	SourceAll       SourceType = "all"
	SourceWeb       SourceType = "web"
	SourceNews      SourceType = "news"
	SourceAcademic  SourceType = "academic"
	SourceReference SourceType = "reference"
)

// Valid reports whether the source type is known
func (s SourceType) Valid() bool {
	switch s {
	case SourceAll, SourceWeb, SourceNews, SourceAcademic, SourceReference:
		return true
	}
	return false
}

// Sentiment is a coarse sentiment label
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Score maps a sentiment label onto {-1, 0, +1}
func (s Sentiment) Score() float64 {
	switch s {
	case SentimentPositive:
		return 1
	case SentimentNegative:
		return -1
	default:
		return 0
	}
}

// SentimentFromScore converts an averaged score back into a label
func SentimentFromScore(score float64) Sentiment {
	if score > 0.3 {
		return SentimentPositive
	}
	if score < -0.3 {
		return SentimentNegative
	}
	return SentimentNeutral
}

// ContentType classifies the nature of extracted content
type ContentType string

const (
	ContentAcademic  ContentType = "academic"
	ContentNews      ContentType = "news"
	ContentTutorial  ContentType = "tutorial"
	ContentReference ContentType = "reference"
	ContentOpinion   ContentType = "opinion"
	ContentGeneral   ContentType = "general"
)
