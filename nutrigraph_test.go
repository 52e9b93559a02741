package nutrigraph_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flavorlab/nutrigraph"
	"github.com/flavorlab/nutrigraph/pkg/config"
	"github.com/flavorlab/nutrigraph/pkg/loader"
	"github.com/flavorlab/nutrigraph/pkg/search"
	"github.com/flavorlab/nutrigraph/pkg/store"
	"github.com/flavorlab/nutrigraph/pkg/types"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newClient(t *testing.T) *nutrigraph.Client {
	t.Helper()
	c := nutrigraph.NewClient(store.New(quiet()), nil, quiet())
	report, err := c.Load(context.Background(), &loader.StaticSource{Label: "fixture", Batch: &loader.Batch{
		Entities: []types.Entity{
			{ID: "garlic", Name: "Garlic", PrimaryClassification: types.ClassIngredient,
				HealthOutcomes: []types.HealthOutcome{{Outcome: "immune support"}}},
			{ID: "allicin", Name: "Allicin", PrimaryClassification: types.ClassCompound},
			{ID: "immunity", Name: "Immune Function", PrimaryClassification: types.ClassOther},
			{ID: "ginger", Name: "Ginger", PrimaryClassification: types.ClassIngredient},
		},
		Relationships: []types.Relationship{
			{ID: "r1", SourceID: "garlic", TargetID: "allicin", Type: types.RelContains, Confidence: types.IntPtr(5)},
			{ID: "r2", SourceID: "allicin", TargetID: "immunity", Type: types.RelSupports, Confidence: types.IntPtr(3)},
			{ID: "r3", SourceID: "ginger", TargetID: "ghost", Type: types.RelContains},
		},
	}})
	require.NoError(t, err)
	require.Equal(t, 4, report.EntitiesLoaded)
	require.Equal(t, 2, report.RelationshipsLoaded)
	require.Len(t, report.RelationshipErrors, 1)
	return c
}

func TestSearchEntitiesUsesConfiguredPageSize(t *testing.T) {
	cfg := nutrigraph.DefaultConfig()
	cfg.DefaultPageSize = 2
	c := nutrigraph.NewClient(newClient(t).Store(), cfg, quiet())

	res, err := c.SearchEntities(context.Background(), &types.EntityQuery{})
	require.NoError(t, err)
	assert.Equal(t, 4, res.TotalCount)
	assert.Equal(t, 2, res.Limit)
	assert.True(t, res.HasMore)
	assert.Equal(t, "allicin", res.Entities[0].ID)

	_, err = c.SearchEntities(context.Background(), &types.EntityQuery{Page: types.Page{Offset: -1}})
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestSearchRelationshipsDefaultsToConfidenceDesc(t *testing.T) {
	c := newClient(t)
	res, err := c.SearchRelationships(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, res.Relationships, 2)
	assert.Equal(t, "r1", res.Relationships[0].ID)
}

func TestFindPathDepthHandling(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	path, err := c.FindPath(ctx, "garlic", "immunity", 0, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"garlic", "allicin", "immunity"}, path.EntityIDs)
	assert.Equal(t, 8, path.TotalConfidence)

	_, err = c.FindPath(ctx, "garlic", "immunity", 1, "")
	assert.ErrorIs(t, err, types.ErrNotConnected)

	// Depths above the limit are capped, not rejected.
	_, err = c.FindPath(ctx, "garlic", "immunity", 100, "")
	assert.NoError(t, err)

	_, err = c.FindPath(ctx, "garlic", "immunity", -1, "")
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	_, err = c.FindPath(ctx, "garlic", "immunity", 0, "sideways")
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	_, err = c.FindPath(ctx, "garlic", "nope", 0, "")
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = c.FindPath(ctx, "immunity", "garlic", 0, types.DirectionOut)
	assert.ErrorIs(t, err, types.ErrNotConnected)
	path, err = c.FindPath(ctx, "immunity", "garlic", 0, types.DirectionBoth)
	require.NoError(t, err)
	assert.True(t, path.Steps[0].Reversed)
}

func TestGetEntityConnections(t *testing.T) {
	c := newClient(t)
	conns, err := c.GetEntityConnections(context.Background(), "allicin", "", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, conns.TotalConnections)
	assert.Equal(t, []string{"contains", "supports"}, conns.RelationshipTypes)

	_, err = c.GetEntityConnections(context.Background(), "missing", "", nil)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

type memoryCache struct {
	stats  map[uint64]*types.Statistics
	gets   int
	puts   int
	getErr error
}

func (m *memoryCache) GetStats(ctx context.Context, revision uint64) (*types.Statistics, bool, error) {
	m.gets++
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	s, ok := m.stats[revision]
	return s, ok, nil
}

func (m *memoryCache) PutStats(ctx context.Context, s *types.Statistics) error {
	m.puts++
	m.stats[s.Revision] = s
	return nil
}

func (m *memoryCache) Close() error { return nil }

func TestGetStatisticsThroughCache(t *testing.T) {
	c := newClient(t)
	mc := &memoryCache{stats: map[uint64]*types.Statistics{}}
	c.SetStatsCache(mc)
	ctx := context.Background()

	s, err := c.GetStatistics(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 4, s.Entities.TotalEntities)
	assert.Equal(t, 2, s.Relationships.TotalRelationships)
	assert.Equal(t, 1, mc.puts)

	s, err = c.GetStatistics(ctx, types.KindRelationship)
	require.NoError(t, err)
	assert.Nil(t, s.Entities)
	assert.Equal(t, 1, s.Relationships.ByConfidenceBucket[types.BucketHigh])
	assert.Equal(t, 1, mc.puts)

	_, err = c.GetStatistics(ctx, "widgets")
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestGetStatisticsCacheFailureFallsBack(t *testing.T) {
	c := newClient(t)
	c.SetStatsCache(&memoryCache{stats: map[uint64]*types.Statistics{}, getErr: errors.New("redis down")})

	s, err := c.GetStatistics(context.Background(), types.KindEntity)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Entities.TotalEntities)
	assert.Nil(t, s.Relationships)
}

func TestSuggest(t *testing.T) {
	c := newClient(t)
	out, err := c.Suggest(context.Background(), "g", types.KindEntity, "", 0)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "garlic", out[0].ID)

	_, err = c.Suggest(context.Background(), "g", types.KindEntity, "mineral", 0)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestSuggestHonoursConfiguredMaximum(t *testing.T) {
	cfg := nutrigraph.DefaultConfig()
	cfg.SuggestMax = 50
	c := nutrigraph.NewClient(store.New(quiet()), cfg, quiet())
	ctx := context.Background()
	for i := 0; i < 40; i++ {
		id := fmt.Sprintf("spice-%02d", i)
		require.NoError(t, c.UpsertEntity(ctx, types.Entity{ID: id, Name: "Spice " + id, PrimaryClassification: types.ClassIngredient}))
	}

	out, err := c.Suggest(ctx, "spice", types.KindEntity, "", 30)
	require.NoError(t, err)
	assert.Len(t, out, 30)

	out, err = c.Suggest(ctx, "spice", types.KindEntity, "", 100)
	require.NoError(t, err)
	assert.Len(t, out, 40)

	out, err = c.Suggest(ctx, "spice", types.KindEntity, "", 0)
	require.NoError(t, err)
	assert.Len(t, out, search.DefaultSuggestLimit)
}

func TestUpsertRelationshipRequiresEndpoints(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	err := c.UpsertRelationship(ctx, types.Relationship{ID: "r9", SourceID: "garlic", TargetID: "ghost", Type: types.RelRelatedTo})
	var ia *types.InvalidArgumentError
	require.ErrorAs(t, err, &ia)
	assert.Equal(t, "target_id", ia.Field)

	err = c.UpsertRelationship(ctx, types.Relationship{ID: "r9", SourceID: "garlic", TargetID: "ginger", Type: ""})
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	require.NoError(t, c.UpsertRelationship(ctx, types.Relationship{ID: "r9", SourceID: "garlic", TargetID: "ginger", Type: types.RelRelatedTo}))
	r, err := c.GetRelationship(ctx, "r9")
	require.NoError(t, err)
	assert.Equal(t, "ginger", r.TargetID)
}

func TestDeleteEntityHidesItFromTraversal(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()
	require.NoError(t, c.DeleteEntity(ctx, "allicin"))

	_, err := c.GetEntity(ctx, "allicin")
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = c.FindPath(ctx, "garlic", "immunity", 0, types.DirectionBoth)
	assert.ErrorIs(t, err, types.ErrNotConnected)
	assert.ErrorIs(t, c.DeleteEntity(ctx, "allicin"), types.ErrNotFound)
}

func TestConfigFromEngine(t *testing.T) {
	cfg := nutrigraph.ConfigFromEngine(config.EngineConfig{DefaultPageSize: 25, MaxDepthLimit: 6})
	assert.Equal(t, 25, cfg.DefaultPageSize)
	assert.Equal(t, 1000, cfg.MaxPageSize)
	assert.Equal(t, 6, cfg.MaxDepthLimit)
	assert.Equal(t, 4, cfg.DefaultMaxDepth)
}

func TestPillars(t *testing.T) {
	assert.Len(t, newClient(t).Pillars(), 8)
}
