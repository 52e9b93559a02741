package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flavorlab/nutrigraph/pkg/store"
	"github.com/flavorlab/nutrigraph/pkg/types"
)

func newStore(t *testing.T, ids []string, rels []types.Relationship) *store.Store {
	t.Helper()
	st := store.New(nil)
	for _, id := range ids {
		require.NoError(t, st.UpsertEntity(types.Entity{ID: id, Name: id}))
	}
	for _, r := range rels {
		require.NoError(t, st.UpsertRelationship(r))
	}
	return st
}

func rel(id, src, dst, typ string, conf int) types.Relationship {
	r := types.Relationship{ID: id, SourceID: src, TargetID: dst, Type: typ}
	if conf > 0 {
		r.Confidence = types.IntPtr(conf)
	}
	return r
}

func TestShortestPathGarlicAllicin(t *testing.T) {
	st := newStore(t, []string{"garlic", "allicin"}, []types.Relationship{
		rel("r1", "garlic", "allicin", types.RelContains, 4),
	})
	pf := NewPathFinder(st, nil)

	path, err := pf.ShortestPath("garlic", "allicin", 4, types.DirectionOut)
	require.NoError(t, err)
	require.Len(t, path.Steps, 1)
	assert.Equal(t, "r1", path.Steps[0].Relationship.ID)
	assert.False(t, path.Steps[0].Reversed)
	assert.Equal(t, 4, path.TotalConfidence)
	assert.Equal(t, 4.0, path.AvgConfidence)
	assert.Equal(t, []string{"garlic", "allicin"}, path.EntityIDs)

	_, err = pf.ShortestPath("allicin", "garlic", 4, types.DirectionOut)
	assert.True(t, errors.Is(err, types.ErrNotConnected))
	assert.False(t, errors.Is(err, types.ErrNotFound))

	path, err = pf.ShortestPath("allicin", "garlic", 4, types.DirectionBoth)
	require.NoError(t, err)
	require.Len(t, path.Steps, 1)
	step := path.Steps[0]
	assert.Equal(t, "r1", step.Relationship.ID)
	assert.True(t, step.Reversed)
	assert.Equal(t, "garlic", step.Relationship.SourceID)
	assert.Equal(t, "allicin", step.From)
	assert.Equal(t, "garlic", step.To)

	path, err = pf.ShortestPath("allicin", "garlic", 4, types.DirectionIn)
	require.NoError(t, err)
	assert.Equal(t, 1, path.Length)
}

func TestShortestPathSelfIsEmpty(t *testing.T) {
	st := newStore(t, []string{"a"}, nil)
	path, err := NewPathFinder(st, nil).ShortestPath("a", "a", 4, types.DirectionOut)
	require.NoError(t, err)
	assert.Empty(t, path.Steps)
	assert.Equal(t, 0, path.Length)
	assert.Equal(t, []string{"a"}, path.EntityIDs)
}

func TestShortestPathMissingEndpoint(t *testing.T) {
	st := newStore(t, []string{"a"}, nil)
	pf := NewPathFinder(st, nil)

	_, err := pf.ShortestPath("a", "zzz", 4, types.DirectionOut)
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = pf.ShortestPath("zzz", "a", 4, types.DirectionOut)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestShortestPathRespectsDepthBound(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e", "f"}
	var rels []types.Relationship
	for i := 0; i+1 < len(ids); i++ {
		rels = append(rels, rel("r"+ids[i], ids[i], ids[i+1], types.RelRelatedTo, 3))
	}
	pf := NewPathFinder(newStore(t, ids, rels), nil)

	_, err := pf.ShortestPath("a", "f", 4, types.DirectionOut)
	var nc *types.NotConnectedError
	require.ErrorAs(t, err, &nc)
	assert.Equal(t, 4, nc.MaxDepth)

	path, err := pf.ShortestPath("a", "f", 5, types.DirectionOut)
	require.NoError(t, err)
	assert.Equal(t, 5, path.Length)

	path, err = pf.ShortestPath("a", "e", 0, types.DirectionOut)
	require.NoError(t, err)
	assert.Equal(t, 4, path.Length)
}

func TestShortestPathTerminatesOnCycles(t *testing.T) {
	pf := NewPathFinder(newStore(t, []string{"a", "b", "c", "x"}, []types.Relationship{
		rel("r1", "a", "b", types.RelRelatedTo, 3),
		rel("r2", "b", "c", types.RelRelatedTo, 3),
		rel("r3", "c", "a", types.RelRelatedTo, 3),
		rel("r4", "a", "a", types.RelRelatedTo, 3),
	}), nil)

	_, err := pf.ShortestPath("a", "x", 50, types.DirectionBoth)
	assert.ErrorIs(t, err, types.ErrNotConnected)
}

func TestShortestPathPrefersHighestConfidenceParallelEdge(t *testing.T) {
	pf := NewPathFinder(newStore(t, []string{"a", "b"}, []types.Relationship{
		rel("r1", "a", "b", types.RelRelatedTo, 2),
		rel("r2", "a", "b", types.RelContains, 5),
		rel("r3", "a", "b", types.RelSupports, 5),
		rel("r0", "a", "b", types.RelSupports, 0),
	}), nil)

	path, err := pf.ShortestPath("a", "b", 4, types.DirectionOut)
	require.NoError(t, err)
	assert.Equal(t, "r2", path.Steps[0].Relationship.ID)
}

func TestShortestPathFewestHops(t *testing.T) {
	pf := NewPathFinder(newStore(t, []string{"a", "b", "c", "d"}, []types.Relationship{
		rel("r1", "a", "b", types.RelRelatedTo, 5),
		rel("r2", "b", "c", types.RelRelatedTo, 5),
		rel("r3", "c", "d", types.RelRelatedTo, 5),
		rel("r4", "a", "d", types.RelRelatedTo, 1),
	}), nil)

	path, err := pf.ShortestPath("a", "d", 4, types.DirectionOut)
	require.NoError(t, err)
	require.Len(t, path.Steps, 1)
	assert.Equal(t, "r4", path.Steps[0].Relationship.ID)
}

func TestShortestPathSymmetricUnderBoth(t *testing.T) {
	pf := NewPathFinder(newStore(t, []string{"a", "b", "c", "d"}, []types.Relationship{
		rel("r1", "a", "b", types.RelRelatedTo, 3),
		rel("r2", "c", "b", types.RelRelatedTo, 3),
		rel("r3", "c", "d", types.RelRelatedTo, 3),
	}), nil)

	ab, err := pf.ShortestPath("a", "d", 4, types.DirectionBoth)
	require.NoError(t, err)
	ba, err := pf.ShortestPath("d", "a", 4, types.DirectionBoth)
	require.NoError(t, err)
	assert.Equal(t, ab.Length, ba.Length)
	assert.Equal(t, 3, ab.Length)
}

func TestShortestPathSkipsDanglingRelationships(t *testing.T) {
	st := newStore(t, []string{"a", "b", "c"}, []types.Relationship{
		rel("r1", "a", "ghost", types.RelRelatedTo, 5),
		rel("r2", "ghost", "c", types.RelRelatedTo, 5),
		rel("r3", "a", "b", types.RelRelatedTo, 1),
	})
	_, err := NewPathFinder(st, nil).ShortestPath("a", "c", 4, types.DirectionOut)
	assert.ErrorIs(t, err, types.ErrNotConnected)
}

func TestConnections(t *testing.T) {
	st := newStore(t, []string{"garlic", "allicin", "ginger"}, []types.Relationship{
		rel("r1", "garlic", "allicin", types.RelContains, 4),
		rel("r2", "ginger", "garlic", types.RelRelatedTo, 2),
		rel("r3", "garlic", "ghost", types.RelContains, 2),
	})
	pf := NewPathFinder(st, nil)

	conns, err := pf.Connections("garlic", types.DirectionBoth, nil)
	require.NoError(t, err)
	require.Len(t, conns.Outgoing, 1)
	require.Len(t, conns.Incoming, 1)
	assert.Equal(t, "allicin", conns.Outgoing[0].NeighborID)
	assert.Equal(t, types.DirectionOut, conns.Outgoing[0].Direction)
	assert.Equal(t, "ginger", conns.Incoming[0].NeighborID)
	assert.Equal(t, types.DirectionIn, conns.Incoming[0].Direction)
	assert.Equal(t, 2, conns.TotalConnections)
	assert.Equal(t, []string{types.RelContains, types.RelRelatedTo}, conns.RelationshipTypes)

	conns, err = pf.Connections("garlic", types.DirectionOut, []string{types.RelRelatedTo})
	require.NoError(t, err)
	assert.Equal(t, 0, conns.TotalConnections)

	_, err = pf.Connections("nope", types.DirectionOut, nil)
	assert.ErrorIs(t, err, types.ErrNotFound)
}
