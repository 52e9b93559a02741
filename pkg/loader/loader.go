// Package loader fills a store from seed sources. Records are validated one
// by one; a rejected record is reported and the rest of the batch continues.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/flavorlab/nutrigraph/pkg/metrics"
	"github.com/flavorlab/nutrigraph/pkg/store"
	"github.com/flavorlab/nutrigraph/pkg/types"
)

// Batch is a set of records produced by a Source.
type Batch struct {
	Entities      []types.Entity       `json:"entities,omitempty" yaml:"entities,omitempty"`
	Relationships []types.Relationship `json:"relationships,omitempty" yaml:"relationships,omitempty"`
}

// Append adds the records of other to b.
func (b *Batch) Append(other *Batch) {
	if other == nil {
		return
	}
	b.Entities = append(b.Entities, other.Entities...)
	b.Relationships = append(b.Relationships, other.Relationships...)
}

// Report summarizes a load from one or more sources.
type Report struct {
	EntitiesLoaded      int                     `json:"entities_loaded"`
	RelationshipsLoaded int                     `json:"relationships_loaded"`
	EntityErrors        []types.ValidationError `json:"-"`
	RelationshipErrors  []types.ValidationError `json:"-"`
	Duration            time.Duration           `json:"duration"`
}

// Rejected returns the number of records that were not stored.
func (r *Report) Rejected() int {
	return len(r.EntityErrors) + len(r.RelationshipErrors)
}

// Loader writes validated batches into a store.
type Loader struct {
	store  *store.Store
	logger *slog.Logger
}

// New creates a Loader for s.
func New(s *store.Store, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{store: s, logger: logger}
}

// LoadEntities stores every valid entity and returns the number stored along
// with one ValidationError per rejected record. An id repeated within the
// batch is rejected after its first occurrence.
func (l *Loader) LoadEntities(entities []types.Entity) (int, []types.ValidationError) {
	var (
		loaded int
		errs   []types.ValidationError
	)
	_ = l.store.Write(func(tx *store.Tx) error {
		seen := make(map[string]struct{}, len(entities))
		for i := range entities {
			e := entities[i]
			if err := e.Validate(); err != nil {
				errs = append(errs, reject(i, e.ID, err))
				continue
			}
			if _, dup := seen[e.ID]; dup {
				errs = append(errs, types.ValidationError{Index: i, ID: e.ID, Field: "id", Err: types.ErrDuplicateEntityID})
				continue
			}
			if err := tx.PutEntity(e); err != nil {
				errs = append(errs, reject(i, e.ID, err))
				continue
			}
			seen[e.ID] = struct{}{}
			loaded++
		}
		return nil
	})

	metrics.ObserveLoad(types.KindEntity, loaded, len(errs))
	l.logger.Info("Entities loaded", "loaded", loaded, "rejected", len(errs))
	return loaded, errs
}

// LoadRelationships stores every valid relationship whose endpoints exist in
// the store.
func (l *Loader) LoadRelationships(relationships []types.Relationship) (int, []types.ValidationError) {
	var (
		loaded int
		errs   []types.ValidationError
	)
	_ = l.store.Write(func(tx *store.Tx) error {
		seen := make(map[string]struct{}, len(relationships))
		for i := range relationships {
			r := relationships[i]
			if err := r.Validate(); err != nil {
				errs = append(errs, reject(i, r.ID, err))
				continue
			}
			if _, dup := seen[r.ID]; dup {
				errs = append(errs, types.ValidationError{Index: i, ID: r.ID, Field: "id", Err: types.ErrDuplicateRelationID})
				continue
			}
			if !tx.HasEntity(r.SourceID) {
				errs = append(errs, types.ValidationError{Index: i, ID: r.ID, Field: "source_id",
					Err: fmt.Errorf("%w: %s", types.ErrUnknownEntity, r.SourceID)})
				continue
			}
			if !tx.HasEntity(r.TargetID) {
				errs = append(errs, types.ValidationError{Index: i, ID: r.ID, Field: "target_id",
					Err: fmt.Errorf("%w: %s", types.ErrUnknownEntity, r.TargetID)})
				continue
			}
			if err := tx.PutRelationship(r); err != nil {
				errs = append(errs, reject(i, r.ID, err))
				continue
			}
			seen[r.ID] = struct{}{}
			loaded++
		}
		return nil
	})

	metrics.ObserveLoad(types.KindRelationship, loaded, len(errs))
	l.logger.Info("Relationships loaded", "loaded", loaded, "rejected", len(errs))
	return loaded, errs
}

// Load stores the entities of b before its relationships.
func (l *Loader) Load(b *Batch) *Report {
	start := time.Now()
	report := &Report{}
	if b == nil {
		return report
	}
	report.EntitiesLoaded, report.EntityErrors = l.LoadEntities(b.Entities)
	report.RelationshipsLoaded, report.RelationshipErrors = l.LoadRelationships(b.Relationships)
	report.Duration = time.Since(start)
	l.publishSize()
	return report
}

// LoadFrom fetches every source and loads the combined records. Entities of
// all sources are stored first, so relationships may reference entities
// provided by another source. A source that fails to fetch aborts the load
// before anything is written.
func (l *Loader) LoadFrom(ctx context.Context, sources ...Source) (*Report, error) {
	combined := &Batch{}
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := src.Fetch(ctx)
		if err != nil {
			l.logger.Error("Seed source failed", "source", src.Name(), "error", err)
			return nil, fmt.Errorf("fetch %s: %w", src.Name(), err)
		}
		l.logger.Debug("Seed source fetched", "source", src.Name(),
			"entities", len(b.Entities), "relationships", len(b.Relationships))
		combined.Append(b)
	}

	report := l.Load(combined)
	for _, ve := range report.EntityErrors {
		l.logger.Warn("Entity rejected", "index", ve.Index, "id", ve.ID, "field", ve.Field, "reason", ve.Reason())
	}
	for _, ve := range report.RelationshipErrors {
		l.logger.Warn("Relationship rejected", "index", ve.Index, "id", ve.ID, "field", ve.Field, "reason", ve.Reason())
	}
	return report, nil
}

func (l *Loader) publishSize() {
	_ = l.store.Read(func(v *store.View) error {
		metrics.SetStoreSize(v.EntityCount(), v.RelationshipCount())
		return nil
	})
}

func reject(index int, id string, err error) types.ValidationError {
	return types.ValidationError{Index: index, ID: id, Field: fieldOf(err), Err: err}
}

func fieldOf(err error) string {
	switch {
	case errors.Is(err, types.ErrEmptyID):
		return "id"
	case errors.Is(err, types.ErrEmptyName):
		return "name"
	case errors.Is(err, types.ErrEmptySourceID):
		return "source_id"
	case errors.Is(err, types.ErrEmptyTargetID):
		return "target_id"
	case errors.Is(err, types.ErrEmptyType):
		return "relationship_type"
	case errors.Is(err, types.ErrInvalidConfidence):
		return "confidence_score"
	case errors.Is(err, types.ErrInvalidQuantity):
		return "quantity"
	}
	return ""
}
