package loader

import (
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flavorlab/nutrigraph/pkg/types"
)

func TestEntityFromNode(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	node := dbtype.Node{
		ElementId: "4:abc:1",
		Labels:    []string{"Entity", "Ingredient"},
		Props: map[string]any{
			"id":              "garlic",
			"name":            "Garlic",
			"classifications": []any{"ingredient", "bogus"},
			"health_outcomes": []any{"Immune Support"},
			"attributes":      `{"origin":{"value":"Central Asia","source":"usda"}}`,
			"compounds":       `[{"compound_id":"allicin","quantity":4.5,"unit":"mg/g"}]`,
			"calories":        int64(149),
			"created_at":      created,
			"updated_at":      "2024-03-02T00:00:00Z",
		},
	}

	e, err := EntityFromNode(node)
	require.NoError(t, err)
	assert.Equal(t, types.ClassIngredient, e.PrimaryClassification)
	assert.Equal(t, []types.Classification{types.ClassIngredient}, e.Classifications)
	assert.Equal(t, []string{"immune support"}, e.OutcomeTags())
	assert.Equal(t, "Central Asia", e.Attributes["origin"].Value.Text())
	assert.Equal(t, "usda", e.Attributes["origin"].Source)
	n, ok := e.Attributes["calories"].Value.AsNumber()
	require.True(t, ok)
	assert.Equal(t, 149.0, n)
	require.Len(t, e.Compounds, 1)
	assert.Equal(t, "allicin", e.Compounds[0].CompoundID)
	assert.Equal(t, created, e.CreatedAt)
	assert.Equal(t, 2, e.UpdatedAt.Day())
}

func TestEntityFromNodeRejectsMissingName(t *testing.T) {
	_, err := EntityFromNode(dbtype.Node{Props: map[string]any{"id": "x"}})
	assert.ErrorIs(t, err, types.ErrEmptyName)
}

func TestRelationshipFromNeo4j(t *testing.T) {
	rel := dbtype.Relationship{
		ElementId: "5:abc:9",
		Type:      "CONTAINS",
		Props: map[string]any{
			"quantity":         int64(3),
			"unit":             "mg",
			"confidence_score": int64(4),
			"context":          `{"preparation":"raw"}`,
		},
	}
	r, err := RelationshipFromNeo4j(rel, "garlic", "allicin")
	require.NoError(t, err)
	assert.Equal(t, "5:abc:9", r.ID)
	assert.Equal(t, types.RelContains, r.Type)
	assert.Equal(t, 4, r.Score())
	require.NotNil(t, r.Quantity)
	assert.Equal(t, 3.0, *r.Quantity)
	assert.Equal(t, "raw", r.Context["preparation"].Text())
}

func TestRelationshipFromNeo4jValidates(t *testing.T) {
	rel := dbtype.Relationship{
		Type:  "SUPPORTS",
		Props: map[string]any{"id": "r1", "confidence_score": int64(7)},
	}
	_, err := RelationshipFromNeo4j(rel, "a", "b")
	assert.ErrorIs(t, err, types.ErrInvalidConfidence)
}

func TestPropTimeRejectsUnknownType(t *testing.T) {
	_, err := propTime(map[string]any{"created_at": 12}, "created_at")
	assert.Error(t, err)
}
