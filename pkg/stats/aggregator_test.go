package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flavorlab/nutrigraph/pkg/store"
	"github.com/flavorlab/nutrigraph/pkg/types"
)

func TestConfidenceBucketsScenario(t *testing.T) {
	st := store.New(nil)
	for _, id := range []string{"a", "b"} {
		require.NoError(t, st.UpsertEntity(types.Entity{ID: id, Name: id}))
	}
	for i, score := range []int{1, 3, 5} {
		require.NoError(t, st.UpsertRelationship(types.Relationship{
			ID: string(rune('x' + i)), SourceID: "a", TargetID: "b", Type: types.RelRelatedTo, Confidence: types.IntPtr(score),
		}))
	}

	s, err := NewAggregator(st, nil).Aggregate(types.KindRelationship)
	require.NoError(t, err)
	require.NotNil(t, s.Relationships)
	assert.Nil(t, s.Entities)
	assert.Equal(t, map[string]int{"low": 1, "medium": 1, "high": 1}, s.Relationships.ByConfidenceBucket)
	assert.Equal(t, 3, s.Relationships.TotalRelationships)
	assert.Equal(t, 3.0, s.Relationships.AvgConfidence)
	assert.Equal(t, map[int]int{1: 1, 3: 1, 5: 1}, s.Relationships.ByScore)
}

func TestMissingConfidenceIsLowestTier(t *testing.T) {
	st := store.New(nil)
	require.NoError(t, st.UpsertRelationship(types.Relationship{ID: "r", SourceID: "a", TargetID: "b", Type: "x"}))

	s := NewAggregator(st, nil).Compute()
	assert.Equal(t, 1, s.Relationships.ByConfidenceBucket[types.BucketLow])
	assert.Equal(t, 0.0, s.Relationships.AvgConfidence)
}

func TestEntityStats(t *testing.T) {
	st := store.New(nil)
	old := time.Now().Add(-90 * 24 * time.Hour)
	require.NoError(t, st.UpsertEntity(types.Entity{ID: "garlic", Name: "Garlic", PrimaryClassification: types.ClassIngredient, CreatedAt: old}))
	require.NoError(t, st.UpsertEntity(types.Entity{ID: "ginger", Name: "Ginger", PrimaryClassification: types.ClassIngredient}))
	require.NoError(t, st.UpsertEntity(types.Entity{ID: "allicin", Name: "Allicin", PrimaryClassification: types.ClassCompound}))

	s, err := NewAggregator(st, nil).Aggregate(types.KindEntity)
	require.NoError(t, err)
	assert.Nil(t, s.Relationships)
	assert.Equal(t, 3, s.Entities.TotalEntities)
	assert.Equal(t, map[string]int{"ingredient": 2, "compound": 1}, s.Entities.ByClassification)
	assert.Equal(t, 2, s.Entities.RecentAdditions)
	assert.NotNil(t, s.Entities.LastUpdated)
}

func TestStatisticsFollowMutations(t *testing.T) {
	st := store.New(nil)
	agg := NewAggregator(st, nil)
	assert.Equal(t, 0, agg.Compute().Entities.TotalEntities)

	require.NoError(t, st.UpsertEntity(types.Entity{ID: "a", Name: "A"}))
	assert.Equal(t, 1, agg.Compute().Entities.TotalEntities)

	require.NoError(t, st.DeleteEntity("a"))
	assert.Equal(t, 0, agg.Compute().Entities.TotalEntities)
}

func TestMemoizedResultIsNotShared(t *testing.T) {
	st := store.New(nil)
	require.NoError(t, st.UpsertEntity(types.Entity{ID: "a", Name: "A", PrimaryClassification: types.ClassOther}))
	agg := NewAggregator(st, nil)

	first := agg.Compute()
	first.Entities.ByClassification["other"] = 99
	assert.Equal(t, 1, agg.Compute().Entities.ByClassification["other"])
}

func TestRelationshipTypes(t *testing.T) {
	st := store.New(nil)
	for i, typ := range []string{"contains", "found_in", "contains", "affects"} {
		require.NoError(t, st.UpsertRelationship(types.Relationship{
			ID: string(rune('a' + i)), SourceID: "s", TargetID: "t", Type: typ,
		}))
	}
	got := NewAggregator(st, nil).RelationshipTypes()
	assert.Equal(t, []types.TypeCount{
		{Type: "contains", Count: 2},
		{Type: "affects", Count: 1},
		{Type: "found_in", Count: 1},
	}, got)
}

func TestAggregateRejectsUnknownKind(t *testing.T) {
	_, err := NewAggregator(store.New(nil), nil).Aggregate("widgets")
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}
