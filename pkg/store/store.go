package store

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/flavorlab/nutrigraph/pkg/types"
)

// Store holds entities and relationships in memory together with an
// adjacency index from entity id to the relationships touching it.
//
// A single RWMutex guards the record tables and the index, so every reader
// observes a state where the index agrees with the relationship table.
type Store struct {
	mu            sync.RWMutex
	entities      map[string]types.Entity
	relationships map[string]types.Relationship
	outgoing      map[string]map[string]struct{}
	incoming      map[string]map[string]struct{}
	revision      uint64
	modifiedAt    time.Time

	logger *slog.Logger
	now    func() time.Time
}

// New creates an empty store.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		entities:      make(map[string]types.Entity),
		relationships: make(map[string]types.Relationship),
		outgoing:      make(map[string]map[string]struct{}),
		incoming:      make(map[string]map[string]struct{}),
		logger:        logger,
		now:           time.Now,
	}
}

// Revision increases on every successful mutation.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// ModifiedAt reports when the store last changed.
func (s *Store) ModifiedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modifiedAt
}

// Read runs fn against a consistent view of the store. The view must not
// escape fn.
func (s *Store) Read(fn func(v *View) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&View{s: s})
}

// Write runs fn with exclusive access. Mutations made through the Tx are
// visible to readers only after fn returns.
func (s *Store) Write(fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &Tx{View: View{s: s}}
	err := fn(tx)
	if tx.changed {
		s.revision++
		s.modifiedAt = s.now()
	}
	return err
}

// GetEntity returns a copy of the entity with the given id.
func (s *Store) GetEntity(id string) (types.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[id]
	if !ok {
		return types.Entity{}, types.NewNotFound(types.KindEntity, id)
	}
	return e.Clone(), nil
}

// GetRelationship returns a copy of the relationship with the given id.
func (s *Store) GetRelationship(id string) (types.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.relationships[id]
	if !ok {
		return types.Relationship{}, types.NewNotFound(types.KindRelationship, id)
	}
	return r.Clone(), nil
}

// AllEntities returns copies of every entity ordered by id.
func (s *Store) AllEntities() []types.Entity {
	var out []types.Entity
	_ = s.Read(func(v *View) error {
		for _, e := range v.Entities() {
			out = append(out, e.Clone())
		}
		return nil
	})
	return out
}

// AllRelationships returns copies of every relationship ordered by id.
func (s *Store) AllRelationships() []types.Relationship {
	var out []types.Relationship
	_ = s.Read(func(v *View) error {
		for _, r := range v.Relationships() {
			out = append(out, r.Clone())
		}
		return nil
	})
	return out
}

// UpsertEntity inserts or replaces an entity.
func (s *Store) UpsertEntity(e types.Entity) error {
	return s.Write(func(tx *Tx) error { return tx.PutEntity(e) })
}

// DeleteEntity removes an entity. Relationships referencing it are kept
// but become dangling and are skipped by traversal.
func (s *Store) DeleteEntity(id string) error {
	return s.Write(func(tx *Tx) error { return tx.DeleteEntity(id) })
}

// UpsertRelationship inserts or replaces a relationship.
func (s *Store) UpsertRelationship(r types.Relationship) error {
	return s.Write(func(tx *Tx) error { return tx.PutRelationship(r) })
}

// DeleteRelationship removes a relationship and its index entries.
func (s *Store) DeleteRelationship(id string) error {
	return s.Write(func(tx *Tx) error { return tx.DeleteRelationship(id) })
}

// Replace swaps the entire contents of the store.
func (s *Store) Replace(entities []types.Entity, relationships []types.Relationship) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities = make(map[string]types.Entity, len(entities))
	s.relationships = make(map[string]types.Relationship, len(relationships))
	s.outgoing = make(map[string]map[string]struct{})
	s.incoming = make(map[string]map[string]struct{})
	for _, e := range entities {
		s.entities[e.ID] = e.Clone()
	}
	for _, r := range relationships {
		s.relationships[r.ID] = r.Clone()
		s.index(r)
	}
	s.revision++
	s.modifiedAt = s.now()
	s.logger.Info("Store contents replaced",
		"entities", len(s.entities),
		"relationships", len(s.relationships),
		"revision", s.revision)
}

func (s *Store) index(r types.Relationship) {
	addEdge(s.outgoing, r.SourceID, r.ID)
	addEdge(s.incoming, r.TargetID, r.ID)
}

func (s *Store) unindex(r types.Relationship) {
	removeEdge(s.outgoing, r.SourceID, r.ID)
	removeEdge(s.incoming, r.TargetID, r.ID)
}

func addEdge(idx map[string]map[string]struct{}, entityID, relID string) {
	set, ok := idx[entityID]
	if !ok {
		set = make(map[string]struct{})
		idx[entityID] = set
	}
	set[relID] = struct{}{}
}

func removeEdge(idx map[string]map[string]struct{}, entityID, relID string) {
	set, ok := idx[entityID]
	if !ok {
		return
	}
	delete(set, relID)
	if len(set) == 0 {
		delete(idx, entityID)
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
