package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractEntities(t *testing.T) {
	text := "Stanford University published a paper. Curie studied radiation. Curie won twice. " +
		"The lab is alone. Acme Corp builds tools."

	entities := ExtractEntities(text)
	byName := map[string]Entity{}
	for _, e := range entities {
		byName[e.Name] = e
	}

	require.Contains(t, byName, "Stanford University")
	assert.Equal(t, EntityOrganization, byName["Stanford University"].Type)
	require.Contains(t, byName, "Curie")
	assert.Equal(t, 2, byName["Curie"].Mentions)
	assert.Equal(t, EntityConcept, byName["Curie"].Type)
	assert.Equal(t, EntityOrganization, byName["Acme Corp"].Type)
	assert.NotContains(t, byName, "The")
	assert.Equal(t, "Curie", entities[0].Name, "most mentioned first")
	assert.Len(t, byName["Curie"].ID, 8)
	assert.Equal(t, EntityID("Curie"), byName["Curie"].ID)
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name string
		want EntityType
	}{
		{"Max Planck Institute", EntityOrganization},
		{"President Lincoln", EntityPerson},
		{"Professor Smith", EntityPerson},
		{"United States", EntityLocation},
		{"Western Europe", EntityLocation},
		{"Globex Inc", EntityOrganization},
		{"Photosynthesis", EntityConcept},
		{"Grand Canyon", EntityOrganization},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Categorize(tt.name), tt.name)
	}
}

func TestExtractRelationships(t *testing.T) {
	entities := []Entity{{Name: "Marie Curie"}, {Name: "Sorbonne University"}, {Name: "Pierre Curie"}}
	text := "Marie Curie works at Sorbonne University. Marie Curie collaborated with Pierre Curie on radium. " +
		"Pierre Curie alone."

	rels := ExtractRelationships(text, entities)
	require.Len(t, rels, 2)
	assert.Equal(t, Relationship{
		Source: "Marie Curie", Target: "Sorbonne University", Relation: RelAffiliatedWith,
		Context: "Marie Curie works at Sorbonne University",
	}, rels[0])
	assert.Equal(t, RelCollaboratesWith, rels[1].Relation)
	assert.Equal(t, "Pierre Curie", rels[1].Target)
}

func TestExtractRelationships_ContextTruncated(t *testing.T) {
	long := "Alpha Beta and Gamma Delta met " +
		"during a very long meeting that went on and on about many unrelated matters for hours and hours without end"
	rels := ExtractRelationships(long, []Entity{{Name: "Alpha Beta"}, {Name: "Gamma Delta"}})
	require.Len(t, rels, 1)
	assert.LessOrEqual(t, len([]rune(rels[0].Context)), 100)
	assert.Equal(t, RelRelatedTo, rels[0].Relation)
}

func TestBuildGraph_MergesAcrossDocuments(t *testing.T) {
	docs := []Document{
		{Content: "Water Research Council founded the program. Water Research Council hired Jane Doe."},
		{Content: "Yesterday, Water Research Council is based in Geneva."},
	}

	g := BuildGraph(docs)
	var council *Entity
	for i := range g.Entities {
		if g.Entities[i].Name == "Water Research Council" {
			council = &g.Entities[i]
		}
	}
	require.NotNil(t, council)
	assert.Equal(t, 3, council.Mentions)
	assert.Equal(t, len(g.Entities), g.Stats.TotalEntities)
	assert.Equal(t, len(g.Relationships), g.Stats.TotalRelationships)

	total := 0
	for _, n := range g.Stats.EntityTypes {
		total += n
	}
	assert.Equal(t, g.Stats.TotalEntities, total)

	names := map[string]int{}
	for _, e := range g.Entities {
		names[e.Name]++
	}
	for name, n := range names {
		assert.Equal(t, 1, n, "entity %s duplicated", name)
	}
}
