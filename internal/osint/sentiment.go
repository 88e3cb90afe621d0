package osint

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/corroborate/internal/extract"
	"github.com/ppiankov/corroborate/internal/model"
)

const (
	minShiftPoints   = 10
	minShiftWindow   = 5
	shiftThreshold   = 0.5
	defaultTrendDays = 30
	maxPointContent  = 200
)

// Trend directions of recent against overall sentiment
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

// SentimentPoint is one labeled observation
type SentimentPoint struct {
	Time    time.Time       `json:"timestamp"`
	Label   model.Sentiment `json:"sentiment"`
	Content string          `json:"content,omitempty"`
	Source  string          `json:"source"`
}

// Shift is a significant change between two adjacent windows
type Shift struct {
	At        time.Time       `json:"timestamp"`
	Direction model.Sentiment `json:"direction"`
	Magnitude float64         `json:"magnitude"`
	Before    model.Sentiment `json:"before_sentiment"`
	After     model.Sentiment `json:"after_sentiment"`
}

// SentimentTrend is the result of AnalyzeTrends
type SentimentTrend struct {
	Overall      model.Sentiment    `json:"overall_sentiment"`
	OverallScore float64            `json:"overall_score"`
	Recent       model.Sentiment    `json:"recent_sentiment"`
	RecentScore  float64            `json:"recent_score"`
	Trend        string             `json:"trend"`
	Shifts       []Shift            `json:"sentiment_shifts"`
	Sources      map[string]float64 `json:"source_breakdown"`
	Points       int                `json:"data_points_analyzed"`
}

// SentimentAnalyzer tracks sentiment over time
type SentimentAnalyzer struct {
	points []SentimentPoint
	now    func() time.Time
}

// NewSentimentAnalyzer creates an empty analyzer
func NewSentimentAnalyzer() *SentimentAnalyzer {
	return &SentimentAnalyzer{now: time.Now}
}

// Add records a point. Unknown labels count as neutral.
func (a *SentimentAnalyzer) Add(p SentimentPoint) {
	p.Label = model.Sentiment(strings.ToLower(string(p.Label)))
	p.Content = extract.Truncate(p.Content, maxPointContent)
	a.points = append(a.points, p)
}

// Len returns the number of recorded points
func (a *SentimentAnalyzer) Len() int { return len(a.points) }

// AnalyzeTrends compares the average of the last windowDays against the
// overall average and detects shifts. It returns false without points.
func (a *SentimentAnalyzer) AnalyzeTrends(windowDays int) (SentimentTrend, bool) {
	if len(a.points) == 0 {
		return SentimentTrend{}, false
	}
	if windowDays <= 0 {
		windowDays = defaultTrendDays
	}

	points := append([]SentimentPoint(nil), a.points...)
	sort.SliceStable(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })

	overall := 0.0
	for _, p := range points {
		overall += p.Label.Score()
	}
	overall /= float64(len(points))

	cutoff := a.now().AddDate(0, 0, -windowDays)
	recent, n := 0.0, 0
	for _, p := range points {
		if !p.Time.Before(cutoff) {
			recent += p.Label.Score()
			n++
		}
	}
	if n > 0 {
		recent /= float64(n)
	}

	trend := TrendStable
	switch {
	case recent > overall:
		trend = TrendImproving
	case recent < overall:
		trend = TrendDeclining
	}

	bySource := make(map[string][]float64)
	for _, p := range points {
		bySource[p.Source] = append(bySource[p.Source], p.Label.Score())
	}
	sources := make(map[string]float64, len(bySource))
	for src, scores := range bySource {
		sources[src] = round(mean(scores), 3)
	}

	return SentimentTrend{
		Overall:      model.SentimentFromScore(overall),
		OverallScore: round(overall, 3),
		Recent:       model.SentimentFromScore(recent),
		RecentScore:  round(recent, 3),
		Trend:        trend,
		Shifts:       detectShifts(points),
		Sources:      sources,
		Points:       len(points),
	}, true
}

// detectShifts slides a window of max(5, n/10) points and flags positions
// where the following window's average differs from the preceding one by
// more than 0.5.
func detectShifts(points []SentimentPoint) []Shift {
	shifts := []Shift{}
	if len(points) < minShiftPoints {
		return shifts
	}

	window := len(points) / 10
	if window < minShiftWindow {
		window = minShiftWindow
	}
	scores := make([]float64, len(points))
	for i, p := range points {
		scores[i] = p.Label.Score()
	}

	for i := window; i < len(points)-window; i++ {
		before := mean(scores[i-window : i])
		after := mean(scores[i : i+window])
		diff := after - before
		if math.Abs(diff) <= shiftThreshold {
			continue
		}
		dir := model.SentimentNegative
		if diff > 0 {
			dir = model.SentimentPositive
		}
		shifts = append(shifts, Shift{
			At:        points[i].Time,
			Direction: dir,
			Magnitude: round(math.Abs(diff), 3),
			Before:    model.SentimentFromScore(before),
			After:     model.SentimentFromScore(after),
		})
	}
	return shifts
}
