package osint

import (
	"regexp"
	"sort"
	"time"
)

const topLocations = 10

var locationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(?:in|at|from|to)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`),
	regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s+(?:city|country|state|region)`),
}

var countryPattern = regexp.MustCompile(`\b(?:United States|China|India|Russia|Japan|Germany|France|Brazil|UK)\b`)

// Coordinates is a latitude/longitude pair
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Location is one location reference
type Location struct {
	Name        string            `json:"name"`
	Coordinates *Coordinates      `json:"coordinates,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Seen        time.Time         `json:"timestamp"`
}

// LocationCount is a location with its reference count
type LocationCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// LocationPatterns is the result of Patterns
type LocationPatterns struct {
	Unique    int             `json:"unique_locations"`
	Total     int             `json:"total_references"`
	Top       []LocationCount `json:"top_locations"`
	Diversity float64         `json:"geographic_diversity_score"` // unique / total
}

// GeoAnalyzer collects location references
type GeoAnalyzer struct {
	locations []Location
	now       func() time.Time
}

// NewGeoAnalyzer creates an empty analyzer
func NewGeoAnalyzer() *GeoAnalyzer {
	return &GeoAnalyzer{now: time.Now}
}

// ExtractLocations finds location mentions in text: capitalized names after
// a preposition, names followed by city/country/state/region, and a fixed
// list of major countries. The result is sorted and unique.
func ExtractLocations(text string) []string {
	found := make(map[string]bool)
	for _, re := range locationPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			found[m[1]] = true
		}
	}
	for _, m := range countryPattern.FindAllString(text, -1) {
		found[m] = true
	}

	out := make([]string, 0, len(found))
	for name := range found {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// AddLocation records a reference; coords may be nil
func (g *GeoAnalyzer) AddLocation(name string, coords *Coordinates, metadata map[string]string) {
	g.locations = append(g.locations, Location{Name: name, Coordinates: coords, Metadata: metadata, Seen: g.now()})
}

// AddText extracts locations from text and records each one
func (g *GeoAnalyzer) AddText(text string) int {
	names := ExtractLocations(text)
	for _, name := range names {
		g.AddLocation(name, nil, nil)
	}
	return len(names)
}

// Patterns reports unique and total references, the ten most referenced
// locations and the diversity ratio. It returns false without references.
func (g *GeoAnalyzer) Patterns() (LocationPatterns, bool) {
	if len(g.locations) == 0 {
		return LocationPatterns{}, false
	}

	counts := make(map[string]int)
	var order []string
	for _, loc := range g.locations {
		if counts[loc.Name] == 0 {
			order = append(order, loc.Name)
		}
		counts[loc.Name]++
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })

	p := LocationPatterns{Unique: len(counts), Total: len(g.locations)}
	for _, name := range order {
		if len(p.Top) == topLocations {
			break
		}
		p.Top = append(p.Top, LocationCount{Name: name, Count: counts[name]})
	}
	p.Diversity = float64(p.Unique) / float64(p.Total)
	return p, true
}
