package osint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/ppiankov/corroborate/internal/model"
)

const (
	recencyWindowDays  = 30
	frequencyCap       = 100
	overlapWindow      = time.Hour
	highFrequencyGap   = time.Hour
	multiPlatformFloor = 3
)

// Footprint is one timestamped observation of an entity on a platform
type Footprint struct {
	Platform    string         `json:"platform"`
	Timestamp   time.Time      `json:"timestamp"`
	Data        map[string]any `json:"data,omitempty"`
	Fingerprint string         `json:"fingerprint"`
}

// Presence is the digital presence of one entity
type Presence struct {
	Entity          string         `json:"entity"`
	Total           int            `json:"total_footprints"`
	PlatformsActive int            `json:"platforms_active"`
	Distribution    map[string]int `json:"platform_distribution"`
	FirstSeen       time.Time      `json:"first_seen"`
	LastSeen        time.Time      `json:"last_seen"`
	ActivityScore   float64        `json:"activity_score"`
	Patterns        []string       `json:"cross_platform_patterns"`
}

// Link describes what two entities share
type Link struct {
	CommonPlatforms  []string `json:"common_platforms"`
	TemporalOverlaps int      `json:"temporal_overlaps"`
	Strength         float64  `json:"connection_strength"`
}

// FootprintTracker records observations per entity
type FootprintTracker struct {
	footprints map[string][]Footprint
	now        func() time.Time
}

// NewFootprintTracker creates an empty tracker
func NewFootprintTracker() *FootprintTracker {
	return &FootprintTracker{footprints: make(map[string][]Footprint), now: time.Now}
}

// Add records an observation stamped with the current time
func (t *FootprintTracker) Add(entity, platform string, data map[string]any) {
	t.AddAt(entity, platform, t.now(), data)
}

// AddAt records an observation at a given time
func (t *FootprintTracker) AddAt(entity, platform string, at time.Time, data map[string]any) {
	t.footprints[entity] = append(t.footprints[entity], Footprint{
		Platform:    platform,
		Timestamp:   at,
		Data:        data,
		Fingerprint: Fingerprint(data),
	})
}

// Entities returns tracked entity names, sorted
func (t *FootprintTracker) Entities() []string {
	names := make([]string, 0, len(t.footprints))
	for name := range t.footprints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fingerprint is a stable 16-hex-digit hash of an observation payload.
// Map keys are encoded in sorted order, so equal payloads hash equally.
func Fingerprint(data map[string]any) string {
	encoded, err := json.Marshal(data)
	if err != nil {
		encoded = []byte(fmt.Sprint(data))
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:])[:16]
}

// AnalyzePresence reports platform activity for an entity
func (t *FootprintTracker) AnalyzePresence(entity string) (Presence, error) {
	fps, ok := t.footprints[entity]
	if !ok || len(fps) == 0 {
		return Presence{}, fmt.Errorf("footprints for %q: %w", entity, model.ErrNotFound)
	}

	p := Presence{
		Entity:       entity,
		Total:        len(fps),
		Distribution: make(map[string]int),
		FirstSeen:    fps[0].Timestamp,
		LastSeen:     fps[0].Timestamp,
	}
	for _, fp := range fps {
		p.Distribution[fp.Platform]++
		if fp.Timestamp.Before(p.FirstSeen) {
			p.FirstSeen = fp.Timestamp
		}
		if fp.Timestamp.After(p.LastSeen) {
			p.LastSeen = fp.Timestamp
		}
	}
	p.PlatformsActive = len(p.Distribution)
	p.ActivityScore = t.activityScore(len(fps), p.LastSeen)
	p.Patterns = presencePatterns(fps, p.PlatformsActive)
	return p, nil
}

// activityScore is 0.6 x recency (linear decay over 30 days) + 0.4 x frequency
func (t *FootprintTracker) activityScore(count int, latest time.Time) float64 {
	if count == 0 {
		return 0
	}
	daysAgo := int(t.now().Sub(latest).Hours() / 24)
	recency := 1 - float64(daysAgo)/recencyWindowDays
	if recency < 0 {
		recency = 0
	}
	frequency := float64(count) / frequencyCap
	if frequency > 1 {
		frequency = 1
	}
	return round(recency*0.6+frequency*0.4, 3)
}

func presencePatterns(fps []Footprint, platforms int) []string {
	patterns := []string{}
	if platforms >= multiPlatformFloor {
		patterns = append(patterns, "Multi-platform presence detected")
	}
	if len(fps) > 1 {
		times := make([]time.Time, len(fps))
		for i, fp := range fps {
			times[i] = fp.Timestamp
		}
		sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
		avgGap := times[len(times)-1].Sub(times[0]) / time.Duration(len(times)-1)
		if avgGap < highFrequencyGap {
			patterns = append(patterns, "High-frequency activity pattern")
		}
	}
	return patterns
}

// FindConnections reports shared platforms and observations of both entities
// within an hour of each other. Unknown entities yield an empty Link.
func (t *FootprintTracker) FindConnections(a, b string) Link {
	link := Link{CommonPlatforms: []string{}}
	fa, okA := t.footprints[a]
	fb, okB := t.footprints[b]
	if !okA || !okB {
		return link
	}

	platforms := make(map[string]bool)
	for _, fp := range fa {
		platforms[fp.Platform] = true
	}
	shared := make(map[string]bool)
	for _, fp := range fb {
		if platforms[fp.Platform] {
			shared[fp.Platform] = true
		}
	}
	for p := range shared {
		link.CommonPlatforms = append(link.CommonPlatforms, p)
	}
	sort.Strings(link.CommonPlatforms)

	for _, x := range fa {
		for _, y := range fb {
			gap := x.Timestamp.Sub(y.Timestamp)
			if gap < 0 {
				gap = -gap
			}
			if gap < overlapWindow {
				link.TemporalOverlaps++
			}
		}
	}

	overlapScore := 0.1 * float64(link.TemporalOverlaps)
	if overlapScore > 0.5 {
		overlapScore = 0.5
	}
	link.Strength = 0.5*float64(len(link.CommonPlatforms)) + overlapScore
	return link
}
