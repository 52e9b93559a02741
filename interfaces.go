package nutrigraph

import (
	"context"

	"github.com/flavorlab/nutrigraph/pkg/pillars"
	"github.com/flavorlab/nutrigraph/pkg/types"
)

// This file defines focused interfaces over the Client. Consumers such as
// the HTTP adapter should depend on the smallest one that meets their needs.

// Searcher runs filtered, sorted and paginated searches.
type Searcher interface {
	// SearchEntities returns one page of entities matching every clause of q.
	SearchEntities(ctx context.Context, q *types.EntityQuery) (*types.EntityResult, error)

	// SearchRelationships returns one page of relationships matching q.
	SearchRelationships(ctx context.Context, q *types.RelationshipQuery) (*types.RelationshipResult, error)

	// Suggest returns name-prefix autocomplete candidates.
	Suggest(ctx context.Context, prefix string, kind types.RecordKind, class types.Classification, limit int) ([]types.Suggestion, error)
}

// Navigator answers questions about how entities are linked.
type Navigator interface {
	// GetEntityConnections lists the direct relationships of an entity.
	GetEntityConnections(ctx context.Context, entityID string, dir types.Direction, relTypes []string) (*types.Connections, error)

	// FindPath returns a shortest path between two entities.
	FindPath(ctx context.Context, sourceID, targetID string, maxDepth int, dir types.Direction) (*types.Path, error)
}

// StatsReporter exposes aggregate statistics and vocabularies.
type StatsReporter interface {
	GetStatistics(ctx context.Context, kind types.RecordKind) (*types.Statistics, error)
	RelationshipTypes(ctx context.Context) []types.TypeCount
	Pillars() []pillars.Pillar
}

// RecordManager reads and writes individual records.
type RecordManager interface {
	GetEntity(ctx context.Context, id string) (*types.Entity, error)
	GetRelationship(ctx context.Context, id string) (*types.Relationship, error)
	UpsertEntity(ctx context.Context, e types.Entity) error
	UpsertRelationship(ctx context.Context, r types.Relationship) error
	DeleteEntity(ctx context.Context, id string) error
	DeleteRelationship(ctx context.Context, id string) error
}

// Engine is the full query façade.
type Engine interface {
	Searcher
	Navigator
	StatsReporter
	RecordManager

	// Close releases external resources.
	Close(ctx context.Context) error
}

var _ Engine = (*Client)(nil)
