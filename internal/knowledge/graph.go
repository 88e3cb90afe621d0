// Package knowledge extracts named entities and their relationships from text.
package knowledge

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"sort"
	"strings"

	"github.com/ppiankov/corroborate/internal/extract"
)

// EntityType classifies an extracted entity
type EntityType string

const (
	EntityOrganization EntityType = "Organization"
	EntityPerson       EntityType = "Person"
	EntityLocation     EntityType = "Location"
	EntityEvent        EntityType = "Event"
	EntityConcept      EntityType = "Concept"
)

// Relation labels a relationship between two entities
type Relation string

const (
	RelFoundedBy        Relation = "founded_by"
	RelAffiliatedWith   Relation = "affiliated_with"
	RelLocatedIn        Relation = "located_in"
	RelResearches       Relation = "researches"
	RelCollaboratesWith Relation = "collaborates_with"
	RelRelatedTo        Relation = "related_to"
)

// Entity is a named entity with its mention count
type Entity struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Type     EntityType `json:"type"`
	Mentions int        `json:"mentions"`
}

// Relationship links two entities that co-occur in a sentence
type Relationship struct {
	Source   string   `json:"entity1"`
	Target   string   `json:"entity2"`
	Relation Relation `json:"relationship"`
	Context  string   `json:"context"`
}

// Document is one input text
type Document struct {
	Title   string
	Content string
}

// Stats summarises a graph
type Stats struct {
	TotalEntities      int                `json:"total_entities"`
	TotalRelationships int                `json:"total_relationships"`
	EntityTypes        map[EntityType]int `json:"entity_types"`
}

// Graph is the merged result of BuildGraph
type Graph struct {
	Entities      []Entity       `json:"entities"`
	Relationships []Relationship `json:"relationships"`
	Stats         Stats          `json:"stats"`
}

const contextChars = 100

var (
	properNoun = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\b`)
	yearRe     = regexp.MustCompile(`\d{4}`)

	organizationWords = []string{"University", "Institute", "Center", "Laboratory"}
	organizationTails = []string{"Inc", "Corp", "LLC"}
	personTitles      = []string{"Dr", "Professor", "President", "CEO"}
	placeNames        = []string{"United States", "China", "Europe", "Asia"}
)

var relationRules = []struct {
	relation Relation
	triggers []string
}{
	{RelFoundedBy, []string{"founded", "created", "established", "started"}},
	{RelAffiliatedWith, []string{"works at", "employed by", "member of"}},
	{RelLocatedIn, []string{"located in", "based in", "from"}},
	{RelResearches, []string{"researches", "studies", "investigates"}},
	{RelCollaboratesWith, []string{"collaborated with", "worked with", "partnered with"}},
}

// ExtractEntities returns capitalised sequences mentioned at least twice or
// spanning several words, most mentioned first
func ExtractEntities(text string) []Entity {
	freq := make(map[string]int)
	var order []string
	for _, m := range properNoun.FindAllString(text, -1) {
		if freq[m] == 0 {
			order = append(order, m)
		}
		freq[m]++
	}

	var entities []Entity
	for _, name := range order {
		if freq[name] >= 2 || strings.Contains(name, " ") {
			entities = append(entities, Entity{
				ID:       EntityID(name),
				Name:     name,
				Type:     Categorize(name),
				Mentions: freq[name],
			})
		}
	}
	sort.SliceStable(entities, func(i, j int) bool {
		return entities[i].Mentions > entities[j].Mentions
	})
	return entities
}

// EntityID is the stable id of an entity name
func EntityID(name string) string {
	sum := md5.Sum([]byte(name))
	return hex.EncodeToString(sum[:])[:8]
}

// Categorize assigns an entity type from keyword heuristics
func Categorize(name string) EntityType {
	words := strings.Fields(name)
	switch {
	case containsAny(name, organizationWords):
		return EntityOrganization
	case hasWord(words, personTitles):
		return EntityPerson
	case containsAny(name, placeNames):
		return EntityLocation
	case yearRe.MatchString(name):
		return EntityEvent
	case hasSuffixAny(name, organizationTails):
		return EntityOrganization
	case len(words) == 1:
		return EntityConcept
	default:
		return EntityOrganization
	}
}

// ExtractRelationships emits one relationship per pair of entities that
// appear in the same sentence
func ExtractRelationships(text string, entities []Entity) []Relationship {
	var rels []Relationship
	for _, sentence := range extract.SplitSentences(text) {
		var present []string
		for _, e := range entities {
			if strings.Contains(sentence, e.Name) {
				present = append(present, e.Name)
			}
		}
		if len(present) < 2 {
			continue
		}

		relation := detectRelation(sentence)
		context := extract.Truncate(strings.Join(strings.Fields(sentence), " "), contextChars)
		for i := 0; i < len(present); i++ {
			for j := i + 1; j < len(present); j++ {
				rels = append(rels, Relationship{
					Source:   present[i],
					Target:   present[j],
					Relation: relation,
					Context:  context,
				})
			}
		}
	}
	return rels
}

func detectRelation(sentence string) Relation {
	lower := strings.ToLower(sentence)
	for _, rule := range relationRules {
		if containsAny(lower, rule.triggers) {
			return rule.relation
		}
	}
	return RelRelatedTo
}

// BuildGraph extracts entities and relationships per document and merges
// entities with identical names, summing their mentions
func BuildGraph(docs []Document) Graph {
	merged := make(map[string]*Entity)
	var order []string
	var rels []Relationship

	for _, doc := range docs {
		text := doc.Title + " " + doc.Content
		entities := ExtractEntities(text)
		rels = append(rels, ExtractRelationships(text, entities)...)

		for _, e := range entities {
			if existing, ok := merged[e.Name]; ok {
				existing.Mentions += e.Mentions
				continue
			}
			e := e
			merged[e.Name] = &e
			order = append(order, e.Name)
		}
	}

	g := Graph{
		Entities:      make([]Entity, 0, len(order)),
		Relationships: rels,
		Stats:         Stats{EntityTypes: make(map[EntityType]int)},
	}
	for _, name := range order {
		e := *merged[name]
		g.Entities = append(g.Entities, e)
		g.Stats.EntityTypes[e.Type]++
	}
	sort.SliceStable(g.Entities, func(i, j int) bool {
		return g.Entities[i].Mentions > g.Entities[j].Mentions
	})
	g.Stats.TotalEntities = len(g.Entities)
	g.Stats.TotalRelationships = len(rels)
	return g
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func hasWord(words, targets []string) bool {
	for _, w := range words {
		for _, t := range targets {
			if w == t {
				return true
			}
		}
	}
	return false
}

func hasSuffixAny(s string, suffixes []string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}
