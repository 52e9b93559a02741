// Package graph implements traversal over the relationship graph held in
// the store: direct connections and bounded breadth-first shortest paths.
package graph

import (
	"log/slog"
	"sort"

	"github.com/flavorlab/nutrigraph/pkg/store"
	"github.com/flavorlab/nutrigraph/pkg/types"
)

// DefaultMaxDepth bounds shortest path searches when no depth is given.
const DefaultMaxDepth = 4

// PathFinder answers connection and path queries.
type PathFinder struct {
	store  *store.Store
	logger *slog.Logger
}

// NewPathFinder creates a PathFinder over st.
func NewPathFinder(st *store.Store, logger *slog.Logger) *PathFinder {
	if logger == nil {
		logger = slog.Default()
	}
	return &PathFinder{store: st, logger: logger}
}

// hop is one edge reachable from a node in the requested direction.
type hop struct {
	rel      types.Relationship
	neighbor string
	reversed bool
}

// hops lists the edges leaving node. Self-loops are reported once.
func hops(v *store.View, node string, dir types.Direction) []hop {
	var out []hop
	if dir == types.DirectionOut || dir == types.DirectionBoth {
		for _, r := range v.Outgoing(node) {
			out = append(out, hop{rel: r, neighbor: r.Other(node)})
		}
	}
	if dir == types.DirectionIn || dir == types.DirectionBoth {
		for _, r := range v.Incoming(node) {
			if dir == types.DirectionBoth && r.SourceID == r.TargetID {
				continue
			}
			out = append(out, hop{rel: r, neighbor: r.Other(node), reversed: true})
		}
	}
	return out
}

// Connections returns the relationships touching entityID in the given
// direction, optionally restricted to typeFilter. Relationships whose other
// end no longer exists are skipped.
func (pf *PathFinder) Connections(entityID string, dir types.Direction, typeFilter []string) (*types.Connections, error) {
	if dir == "" {
		dir = types.DirectionBoth
	}
	allowed := make(map[string]struct{}, len(typeFilter))
	for _, t := range typeFilter {
		if t != "" {
			allowed[t] = struct{}{}
		}
	}

	res := &types.Connections{
		EntityID: entityID,
		Outgoing: []types.Connection{},
		Incoming: []types.Connection{},
	}
	err := pf.store.Read(func(v *store.View) error {
		if !v.HasEntity(entityID) {
			return types.NewNotFound(types.KindEntity, entityID)
		}
		seenTypes := make(map[string]struct{})
		for _, h := range hops(v, entityID, dir) {
			if len(allowed) > 0 {
				if _, ok := allowed[h.rel.Type]; !ok {
					continue
				}
			}
			if !v.HasEntity(h.neighbor) {
				continue
			}
			c := types.Connection{Relationship: h.rel.Clone(), NeighborID: h.neighbor, Direction: types.DirectionOut}
			if h.reversed {
				c.Direction = types.DirectionIn
				res.Incoming = append(res.Incoming, c)
			} else {
				res.Outgoing = append(res.Outgoing, c)
			}
			seenTypes[h.rel.Type] = struct{}{}
		}
		for t := range seenTypes {
			res.RelationshipTypes = append(res.RelationshipTypes, t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(res.RelationshipTypes)
	res.TotalConnections = len(res.Outgoing) + len(res.Incoming)
	return res, nil
}

// ShortestPath finds a path with the fewest hops from sourceID to targetID,
// exploring at most maxDepth hops. Among parallel edges to the same
// neighbour the highest confidence wins, then the lowest relationship id.
// A path from an entity to itself is empty.
func (pf *PathFinder) ShortestPath(sourceID, targetID string, maxDepth int, dir types.Direction) (*types.Path, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if dir == "" {
		dir = types.DirectionOut
	}

	var path *types.Path
	err := pf.store.Read(func(v *store.View) error {
		if !v.HasEntity(sourceID) {
			return types.NewNotFound(types.KindEntity, sourceID)
		}
		if !v.HasEntity(targetID) {
			return types.NewNotFound(types.KindEntity, targetID)
		}
		if sourceID == targetID {
			path = buildPath(sourceID, targetID, nil)
			return nil
		}

		parent := make(map[string]types.PathStep)
		visited := map[string]struct{}{sourceID: {}}
		frontier := []string{sourceID}

		for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
			var next []string
			for _, node := range frontier {
				for _, h := range bestHops(hops(v, node, dir)) {
					if _, seen := visited[h.neighbor]; seen {
						continue
					}
					if !v.HasEntity(h.neighbor) {
						continue
					}
					visited[h.neighbor] = struct{}{}
					parent[h.neighbor] = types.PathStep{
						Relationship: h.rel,
						From:         node,
						To:           h.neighbor,
						Reversed:     h.reversed,
					}
					if h.neighbor == targetID {
						path = buildPath(sourceID, targetID, unwind(parent, sourceID, targetID))
						return nil
					}
					next = append(next, h.neighbor)
				}
			}
			frontier = next
		}
		return &types.NotConnectedError{SourceID: sourceID, TargetID: targetID, MaxDepth: maxDepth}
	})
	if err != nil {
		return nil, err
	}
	pf.logger.Debug("shortest path found",
		"source", sourceID,
		"target", targetID,
		"direction", dir,
		"length", path.Length)
	return path, nil
}

// bestHops keeps one hop per neighbour, preferring higher confidence and then
// lower relationship id, and orders the result by neighbour id.
func bestHops(all []hop) []hop {
	best := make(map[string]hop, len(all))
	for _, h := range all {
		cur, ok := best[h.neighbor]
		if !ok || better(h, cur) {
			best[h.neighbor] = h
		}
	}
	out := make([]hop, 0, len(best))
	for _, h := range best {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].neighbor < out[j].neighbor })
	return out
}

func better(a, b hop) bool {
	if a.rel.Score() != b.rel.Score() {
		return a.rel.Score() > b.rel.Score()
	}
	return a.rel.ID < b.rel.ID
}

func unwind(parent map[string]types.PathStep, sourceID, targetID string) []types.PathStep {
	var steps []types.PathStep
	for node := targetID; node != sourceID; {
		step := parent[node]
		steps = append(steps, step)
		node = step.From
	}
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return steps
}

func buildPath(sourceID, targetID string, steps []types.PathStep) *types.Path {
	p := &types.Path{
		SourceID:  sourceID,
		TargetID:  targetID,
		Steps:     make([]types.PathStep, 0, len(steps)),
		EntityIDs: []string{sourceID},
	}
	for _, s := range steps {
		s.Relationship = s.Relationship.Clone()
		p.Steps = append(p.Steps, s)
		p.EntityIDs = append(p.EntityIDs, s.To)
		p.TotalConfidence += s.Relationship.Score()
	}
	p.Length = len(p.Steps)
	if p.Length > 0 {
		p.AvgConfidence = float64(p.TotalConfidence) / float64(p.Length)
	}
	return p
}
