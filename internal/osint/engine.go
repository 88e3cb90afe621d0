package osint

import (
	"time"

	"github.com/ppiankov/corroborate/internal/model"
)

// Intelligence quality labels
const (
	QualityExcellent = "excellent"
	QualityGood      = "good"
	QualityModerate  = "moderate"
	QualityFair      = "fair"
	QualityPoor      = "poor"
	QualityNoData    = "no_data"
)

const (
	centralNodeCount = 10
	summaryListSize  = 3
	temporalDays     = 30
	depthChars       = 1000
)

var qualityThresholds = []struct {
	min   float64
	label string
}{
	{0.8, QualityExcellent},
	{0.6, QualityGood},
	{0.4, QualityModerate},
	{0.2, QualityFair},
}

// NetworkEntity is a node of NetworkInput
type NetworkEntity struct {
	ID       string            `json:"id"`
	Type     string            `json:"type"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// NetworkInput is the entity graph to analyse
type NetworkInput struct {
	Entities    []NetworkEntity `json:"entities"`
	Connections []Edge          `json:"connections"`
}

// FootprintRecord is one observation of an entity on a platform
type FootprintRecord struct {
	Entity   string         `json:"entity"`
	Platform string         `json:"platform"`
	Time     time.Time      `json:"timestamp"`
	Data     map[string]any `json:"data,omitempty"`
}

// Input is the structured data for ComprehensiveAnalysis. Each analyzer
// runs only when its input is present.
type Input struct {
	Sources    int                  `json:"source_count"`
	Entities   int                  `json:"entity_count"`
	TimeSpan   string               `json:"time_span,omitempty"`
	Network    *NetworkInput        `json:"network_data,omitempty"`
	Footprints []FootprintRecord    `json:"footprints,omitempty"`
	Timeline   []Event              `json:"timeline_events,omitempty"`
	Sentiment  []SentimentPoint     `json:"sentiment_data,omitempty"`
	Text       string               `json:"text,omitempty"`
	Locations  []string             `json:"location_data,omitempty"`
	Numbers    []float64            `json:"numbers,omitempty"`
	Evidence   []model.EvidenceItem `json:"-"`
}

// DataAnalyzed describes the analysed input
type DataAnalyzed struct {
	Sources  int    `json:"sources"`
	Entities int    `json:"entities"`
	TimeSpan string `json:"time_span"`
}

// NetworkReport is the network section of a Report
type NetworkReport struct {
	Stats       NetworkStats  `json:"stats"`
	Central     []CentralNode `json:"central_nodes"`
	Communities [][]string    `json:"communities"`
}

// Breakdown holds the intelligence score components
type Breakdown struct {
	SourceDiversity   float64 `json:"source_diversity"`
	AverageRelevance  float64 `json:"average_relevance"`
	ContentDepth      float64 `json:"content_depth"`
	TemporalDiversity float64 `json:"temporal_diversity"`
}

// Intelligence is the quality score of a result set
type Intelligence struct {
	Score           float64   `json:"intelligence_score"`
	Quality         string    `json:"quality"`
	Breakdown       Breakdown `json:"breakdown"`
	Recommendations []string  `json:"recommendations"`
}

// Report is the result of ComprehensiveAnalysis
type Report struct {
	Timestamp    time.Time           `json:"analysis_timestamp"`
	Data         DataAnalyzed        `json:"data_analyzed"`
	Network      *NetworkReport      `json:"social_network,omitempty"`
	Footprints   map[string]Presence `json:"digital_footprints,omitempty"`
	Links        map[string]Link     `json:"footprint_links,omitempty"`
	Timeline     *TimelinePatterns   `json:"timeline_patterns,omitempty"`
	Sentiment    *SentimentTrend     `json:"sentiment_trends,omitempty"`
	Geo          *LocationPatterns   `json:"geospatial,omitempty"`
	Numeric      *NumericPatterns    `json:"numeric_patterns,omitempty"`
	Intelligence *Intelligence       `json:"intelligence,omitempty"`
}

// Engine runs the OSINT analyzers over one input snapshot.
// Analyzers are built per call, so an Engine is safe for concurrent use.
type Engine struct {
	now              func() time.Time
	sentimentWindow  int
	centralNodeCount int
}

// NewEngine creates an engine with a 30-day sentiment window
func NewEngine() *Engine {
	return &Engine{now: time.Now, sentimentWindow: defaultTrendDays, centralNodeCount: centralNodeCount}
}

// ComprehensiveAnalysis runs every analyzer whose input is present
func (e *Engine) ComprehensiveAnalysis(in Input) Report {
	span := in.TimeSpan
	if span == "" {
		span = "unknown"
	}
	r := Report{
		Timestamp: e.now(),
		Data:      DataAnalyzed{Sources: in.Sources, Entities: in.Entities, TimeSpan: span},
	}

	if in.Network != nil {
		net := NewNetwork()
		for _, ent := range in.Network.Entities {
			net.AddEntity(ent.ID, ent.Type, ent.Metadata)
		}
		for _, c := range in.Network.Connections {
			net.AddConnection(c.Source, c.Target, c.Relation, c.Weight)
		}
		communities := net.DetectCommunities()
		r.Network = &NetworkReport{
			Stats:       net.Stats(),
			Central:     net.CentralNodes(e.centralNodeCount),
			Communities: communities,
		}
	}

	if len(in.Footprints) > 0 {
		tracker := NewFootprintTracker()
		tracker.now = e.now
		for _, fp := range in.Footprints {
			tracker.AddAt(fp.Entity, fp.Platform, fp.Time, fp.Data)
		}
		entities := tracker.Entities()
		r.Footprints = make(map[string]Presence, len(entities))
		for _, name := range entities {
			if p, err := tracker.AnalyzePresence(name); err == nil {
				r.Footprints[name] = p
			}
		}
		if len(entities) > 1 {
			r.Links = make(map[string]Link)
			for i := 0; i < len(entities); i++ {
				for j := i + 1; j < len(entities); j++ {
					r.Links[entities[i]+"|"+entities[j]] = tracker.FindConnections(entities[i], entities[j])
				}
			}
		}
	}

	if len(in.Timeline) > 0 {
		tl := NewTimeline()
		for _, ev := range in.Timeline {
			tl.AddEvent(ev)
		}
		patterns := tl.DetectPatterns()
		r.Timeline = &patterns
	}

	if len(in.Sentiment) > 0 {
		sa := NewSentimentAnalyzer()
		sa.now = e.now
		for _, p := range in.Sentiment {
			sa.Add(p)
		}
		if trend, ok := sa.AnalyzeTrends(e.sentimentWindow); ok {
			r.Sentiment = &trend
		}
	}

	if len(in.Locations) > 0 || in.Text != "" {
		geo := NewGeoAnalyzer()
		geo.now = e.now
		for _, name := range in.Locations {
			geo.AddLocation(name, nil, nil)
		}
		geo.AddText(in.Text)
		if p, ok := geo.Patterns(); ok {
			r.Geo = &p
		}
	}

	if p, ok := DetectNumericPatterns(in.Numbers); ok {
		r.Numeric = &p
	}

	if in.Evidence != nil {
		score := IntelligenceScore(in.Evidence)
		r.Intelligence = &score
	}
	return r
}

// IntelligenceScore rates a result set:
// 0.25 x source diversity + 0.35 x average relevance + 0.20 x content depth
// + 0.20 x temporal diversity.
func IntelligenceScore(items []model.EvidenceItem) Intelligence {
	if len(items) == 0 {
		return Intelligence{Quality: QualityNoData, Recommendations: recommendations(0)}
	}

	n := float64(len(items))
	sources := make(map[string]bool)
	days := make(map[string]bool)
	relevance, chars := 0.0, 0
	for _, it := range items {
		sources[it.Source] = true
		relevance += it.Relevance
		chars += len([]rune(it.Content))
		if !it.DiscoveredAt.IsZero() {
			days[it.DiscoveredAt.UTC().Format("2006-01-02")] = true
		}
	}

	b := Breakdown{
		SourceDiversity:  float64(len(sources)) / n,
		AverageRelevance: relevance / n,
		ContentDepth:     capOne(float64(chars) / n / depthChars),
	}
	if len(days) == 0 {
		b.TemporalDiversity = 0.5
	} else {
		b.TemporalDiversity = capOne(float64(len(days)) / temporalDays)
	}

	score := b.SourceDiversity*0.25 + b.AverageRelevance*0.35 + b.ContentDepth*0.20 + b.TemporalDiversity*0.20
	return Intelligence{
		Score:   round(score, 3),
		Quality: QualityLabel(score),
		Breakdown: Breakdown{
			SourceDiversity:   round(b.SourceDiversity, 3),
			AverageRelevance:  round(b.AverageRelevance, 3),
			ContentDepth:      round(b.ContentDepth, 3),
			TemporalDiversity: round(b.TemporalDiversity, 3),
		},
		Recommendations: recommendations(score),
	}
}

// QualityLabel maps an intelligence score to its label
func QualityLabel(score float64) string {
	for _, t := range qualityThresholds {
		if score >= t.min {
			return t.label
		}
	}
	return QualityPoor
}

func recommendations(score float64) []string {
	switch {
	case score < 0.3:
		return []string{
			"Expand search to include more diverse sources",
			"Increase query depth and detail level",
			"Consider using query expansion techniques",
		}
	case score < 0.6:
		return []string{
			"Add more specialized sources for better depth",
			"Cross-reference findings with authoritative sources",
		}
	default:
		return []string{
			"Intelligence quality is high - consider deeper analysis",
			"Look for patterns and relationships in the data",
		}
	}
}

// FromEvidence derives analyzer input from gathered evidence: a discovery
// timeline, sentiment points, location text and a source/entity
// co-occurrence network. Locations are extracted item by item.
func FromEvidence(items []model.EvidenceItem) Input {
	in := Input{Evidence: items}
	if len(items) == 0 {
		return in
	}

	net := &NetworkInput{}
	nodes := make(map[string]bool)
	addNode := func(id, typ string) {
		if !nodes[id] {
			nodes[id] = true
			net.Entities = append(net.Entities, NetworkEntity{ID: id, Type: typ})
		}
	}

	sources := make(map[string]bool)
	entities := make(map[string]bool)
	var first, last time.Time

	for _, it := range items {
		at := it.DiscoveredAt
		if it.PublishedAt != nil && !it.PublishedAt.IsZero() {
			at = *it.PublishedAt
		}
		if !at.IsZero() {
			if first.IsZero() || at.Before(first) {
				first = at
			}
			if at.After(last) {
				last = at
			}
		}

		in.Timeline = append(in.Timeline, Event{
			Type:        string(it.Analysis.ContentType),
			Time:        at,
			Description: it.Title,
			Data:        map[string]string{"url": it.URL, "source": it.Source},
		})
		in.Sentiment = append(in.Sentiment, SentimentPoint{
			Time:    at,
			Label:   it.Analysis.Sentiment,
			Content: it.Summary,
			Source:  it.Source,
		})
		// Per item, so a place named by several sources counts once for each
		in.Locations = append(in.Locations, ExtractLocations(it.Content)...)

		sources[it.Source] = true
		srcID := "source:" + it.Source
		addNode(srcID, "source")
		for i, name := range it.Analysis.Entities {
			entities[name] = true
			addNode(name, "entity")
			net.Connections = append(net.Connections, Edge{Source: srcID, Target: name, Relation: "mentions", Weight: 1})
			for _, other := range it.Analysis.Entities[i+1:] {
				if other == name {
					continue
				}
				addNode(other, "entity")
				net.Connections = append(net.Connections, Edge{Source: name, Target: other, Relation: "co_occurs", Weight: 1})
			}
		}
	}

	in.Sources = len(sources)
	in.Entities = len(entities)
	in.Network = net
	if !first.IsZero() {
		in.TimeSpan = last.Sub(first).Round(time.Second).String()
	}
	return in
}

// Summary condenses a report into the verdict's OSINT section
func (r Report) Summary() *model.OSINTSummary {
	s := &model.OSINTSummary{}
	if r.Intelligence != nil {
		s.IntelligenceScore = r.Intelligence.Score
		s.Quality = r.Intelligence.Quality
		s.Recommendations = r.Intelligence.Recommendations
	}
	if r.Network != nil {
		s.Communities = len(r.Network.Communities)
		for _, c := range r.Network.Central {
			if c.Type != "entity" {
				continue
			}
			if len(s.CentralEntities) == summaryListSize {
				break
			}
			s.CentralEntities = append(s.CentralEntities, c.ID)
		}
	}
	if r.Timeline != nil {
		s.TimelineClusters = len(r.Timeline.Clusters)
	}
	if r.Sentiment != nil {
		s.SentimentTrend = r.Sentiment.Trend
	}
	if r.Geo != nil {
		for _, loc := range r.Geo.Top {
			if len(s.TopLocations) == summaryListSize {
				break
			}
			s.TopLocations = append(s.TopLocations, loc.Name)
		}
	}
	return s
}

func capOne(x float64) float64 {
	if x > 1 {
		return 1
	}
	return x
}
