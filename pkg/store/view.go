package store

import (
	"sort"
	"time"

	"github.com/flavorlab/nutrigraph/pkg/types"
)

// View is a read-only window onto the store, valid only inside Read or
// Write. Returned records are shared with the store and must not be
// modified; clone them before handing them out.
type View struct {
	s *Store
}

// Revision returns the store revision seen by this view.
func (v *View) Revision() uint64 { return v.s.revision }

// ModifiedAt returns when the viewed state was produced.
func (v *View) ModifiedAt() time.Time { return v.s.modifiedAt }

// Entity looks up an entity by id.
func (v *View) Entity(id string) (types.Entity, bool) {
	e, ok := v.s.entities[id]
	return e, ok
}

// HasEntity reports whether an entity exists.
func (v *View) HasEntity(id string) bool {
	_, ok := v.s.entities[id]
	return ok
}

// Relationship looks up a relationship by id.
func (v *View) Relationship(id string) (types.Relationship, bool) {
	r, ok := v.s.relationships[id]
	return r, ok
}

// EntityCount returns the number of entities.
func (v *View) EntityCount() int { return len(v.s.entities) }

// RelationshipCount returns the number of relationships.
func (v *View) RelationshipCount() int { return len(v.s.relationships) }

// Entities returns every entity ordered by id.
func (v *View) Entities() []types.Entity {
	out := make([]types.Entity, 0, len(v.s.entities))
	for _, e := range v.s.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Relationships returns every relationship ordered by id.
func (v *View) Relationships() []types.Relationship {
	out := make([]types.Relationship, 0, len(v.s.relationships))
	for _, r := range v.s.relationships {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Outgoing returns relationships whose source is entityID, ordered by id.
func (v *View) Outgoing(entityID string) []types.Relationship {
	return v.lookup(v.s.outgoing[entityID])
}

// Incoming returns relationships whose target is entityID, ordered by id.
func (v *View) Incoming(entityID string) []types.Relationship {
	return v.lookup(v.s.incoming[entityID])
}

func (v *View) lookup(set map[string]struct{}) []types.Relationship {
	if len(set) == 0 {
		return nil
	}
	out := make([]types.Relationship, 0, len(set))
	for _, id := range sortedKeys(set) {
		out = append(out, v.s.relationships[id])
	}
	return out
}
