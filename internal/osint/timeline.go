package osint

import (
	"math"
	"sort"
	"strings"
	"time"
)

const (
	clusterGap         = 24 * time.Hour
	minClusterEvents   = 3
	maxSequenceLength  = 4
	anomalyDeviations  = 2.0
	minAnomalyEvents   = 3
	minRecurringEvents = 3
)

// Event is one dated occurrence on a timeline
type Event struct {
	Type        string            `json:"type"`
	Time        time.Time         `json:"timestamp"`
	Description string            `json:"description,omitempty"`
	Data        map[string]string `json:"metadata,omitempty"`
}

// Cluster is a run of at least three events, each within 24h of the previous
type Cluster struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	EventCount int       `json:"event_count"`
	EventTypes []string  `json:"event_types"`
}

// Recurrence is an event-type sequence seen at least twice
type Recurrence struct {
	Pattern []string  `json:"pattern"`
	First   time.Time `json:"first_occurrence"`
	Second  time.Time `json:"second_occurrence"`
	Length  int       `json:"pattern_length"`
}

// Anomaly is an inter-event gap more than two standard deviations from the mean
type Anomaly struct {
	Kind      string        `json:"type"` // gap or burst
	At        time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
	Deviation float64       `json:"deviation_from_normal"`
}

// PeakActivity is the busiest hour and weekday
type PeakActivity struct {
	Hour         int            `json:"peak_hour"`
	HourCount    int            `json:"peak_hour_count"`
	Weekday      string         `json:"peak_day"`
	WeekdayCount int            `json:"peak_day_count"`
	Hourly       map[int]int    `json:"hourly_distribution"`
	Daily        map[string]int `json:"daily_distribution"`
}

// TimelinePatterns is the result of DetectPatterns
type TimelinePatterns struct {
	Clusters  []Cluster     `json:"event_clusters"`
	Recurring []Recurrence  `json:"recurring_patterns"`
	Anomalies []Anomaly     `json:"anomalies"`
	Peak      *PeakActivity `json:"peak_activity_times,omitempty"`
}

// Timeline collects events for temporal analysis
type Timeline struct {
	events []Event
}

// NewTimeline creates an empty timeline
func NewTimeline() *Timeline {
	return &Timeline{}
}

// AddEvent appends an event. Events without a time are kept but never
// appear in the built timeline.
func (t *Timeline) AddEvent(e Event) {
	t.events = append(t.events, e)
}

// Build returns dated events in chronological order
func (t *Timeline) Build() []Event {
	var dated []Event
	for _, e := range t.events {
		if !e.Time.IsZero() {
			dated = append(dated, e)
		}
	}
	sort.SliceStable(dated, func(i, j int) bool { return dated[i].Time.Before(dated[j].Time) })
	return dated
}

// DetectPatterns finds clusters, recurring sequences, anomalies and peak times
func (t *Timeline) DetectPatterns() TimelinePatterns {
	patterns := TimelinePatterns{Clusters: []Cluster{}, Recurring: []Recurrence{}, Anomalies: []Anomaly{}}
	if len(t.events) < 2 {
		return patterns
	}

	events := t.Build()
	patterns.Clusters = findClusters(events)
	patterns.Recurring = findRecurring(events)
	patterns.Anomalies = findAnomalies(events)
	patterns.Peak = findPeak(events)
	return patterns
}

func findClusters(events []Event) []Cluster {
	clusters := []Cluster{}
	if len(events) == 0 {
		return clusters
	}

	flush := func(run []Event) {
		if len(run) < minClusterEvents {
			return
		}
		c := Cluster{Start: run[0].Time, End: run[len(run)-1].Time, EventCount: len(run)}
		for _, e := range run {
			c.EventTypes = append(c.EventTypes, e.Type)
		}
		clusters = append(clusters, c)
	}

	run := []Event{events[0]}
	for i := 1; i < len(events); i++ {
		if events[i].Time.Sub(events[i-1].Time) <= clusterGap {
			run = append(run, events[i])
			continue
		}
		flush(run)
		run = []Event{events[i]}
	}
	flush(run)
	return clusters
}

// findRecurring reports each distinct type sequence of length 2..4 that
// reappears later without overlapping its first occurrence.
func findRecurring(events []Event) []Recurrence {
	out := []Recurrence{}
	if len(events) < minRecurringEvents {
		return out
	}

	types := make([]string, len(events))
	for i, e := range events {
		types[i] = e.Type
	}
	seen := make(map[string]bool)

	for length := 2; length <= maxSequenceLength && length < len(types)/2; length++ {
		for i := 0; i+length < len(types); i++ {
			seq := types[i : i+length]
			key := strings.Join(seq, "\x00")
			if seen[key] {
				continue
			}
			for j := i + length; j+length <= len(types); j++ {
				if equalSeq(seq, types[j:j+length]) {
					seen[key] = true
					out = append(out, Recurrence{
						Pattern: append([]string(nil), seq...),
						First:   events[i].Time,
						Second:  events[j].Time,
						Length:  length,
					})
					break
				}
			}
		}
	}
	return out
}

func equalSeq(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func findAnomalies(events []Event) []Anomaly {
	out := []Anomaly{}
	if len(events) < minAnomalyEvents {
		return out
	}

	gaps := make([]float64, len(events)-1)
	for i := range gaps {
		gaps[i] = events[i+1].Time.Sub(events[i].Time).Seconds()
	}
	mean, std := meanStd(gaps)
	if std == 0 {
		return out
	}

	for i, g := range gaps {
		if math.Abs(g-mean) > anomalyDeviations*std {
			kind := "burst"
			if g > mean {
				kind = "gap"
			}
			out = append(out, Anomaly{
				Kind:      kind,
				At:        events[i].Time,
				Duration:  time.Duration(g * float64(time.Second)),
				Deviation: round((g-mean)/std, 2),
			})
		}
	}
	return out
}

// findPeak picks the most frequent hour and weekday; on a tie the value
// that reached the count first wins.
func findPeak(events []Event) *PeakActivity {
	if len(events) == 0 {
		return nil
	}
	p := &PeakActivity{Hourly: make(map[int]int), Daily: make(map[string]int), Hour: -1}
	for _, e := range events {
		h := e.Time.Hour()
		d := e.Time.Weekday().String()
		p.Hourly[h]++
		p.Daily[d]++
		if p.Hourly[h] > p.HourCount {
			p.Hour, p.HourCount = h, p.Hourly[h]
		}
		if p.Daily[d] > p.WeekdayCount {
			p.Weekday, p.WeekdayCount = d, p.Daily[d]
		}
	}
	return p
}
