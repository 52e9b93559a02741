package store

import (
	"github.com/flavorlab/nutrigraph/pkg/types"
)

// Tx mutates the store inside Write. Reads through the embedded View see
// the changes already made by the same Tx.
type Tx struct {
	View
	changed bool
}

// PutEntity validates and stores e, preserving CreatedAt of an existing
// record with the same id.
func (tx *Tx) PutEntity(e types.Entity) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s := tx.s
	now := s.now()
	e = e.Clone()
	if prev, ok := s.entities[e.ID]; ok {
		e.CreatedAt = prev.CreatedAt
		e.UpdatedAt = now
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}
	s.entities[e.ID] = e
	tx.changed = true
	return nil
}

// DeleteEntity removes the entity with id.
func (tx *Tx) DeleteEntity(id string) error {
	s := tx.s
	if _, ok := s.entities[id]; !ok {
		return types.NewNotFound(types.KindEntity, id)
	}
	delete(s.entities, id)
	tx.changed = true
	return nil
}

// PutRelationship validates and stores r, re-indexing it when its
// endpoints changed.
func (tx *Tx) PutRelationship(r types.Relationship) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s := tx.s
	now := s.now()
	r = r.Clone()
	if prev, ok := s.relationships[r.ID]; ok {
		s.unindex(prev)
		r.CreatedAt = prev.CreatedAt
		r.UpdatedAt = now
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = r.CreatedAt
	}
	s.relationships[r.ID] = r
	s.index(r)
	tx.changed = true
	return nil
}

// DeleteRelationship removes the relationship with id.
func (tx *Tx) DeleteRelationship(id string) error {
	s := tx.s
	prev, ok := s.relationships[id]
	if !ok {
		return types.NewNotFound(types.KindRelationship, id)
	}
	s.unindex(prev)
	delete(s.relationships, id)
	tx.changed = true
	return nil
}
