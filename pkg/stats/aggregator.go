// Package stats computes aggregate statistics over the store contents.
package stats

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/flavorlab/nutrigraph/pkg/store"
	"github.com/flavorlab/nutrigraph/pkg/types"
)

// RecentWindow is the age below which an entity counts as a recent addition.
const RecentWindow = 30 * 24 * time.Hour

// Aggregator computes statistics and memoizes them per store revision.
type Aggregator struct {
	store  *store.Store
	logger *slog.Logger
	now    func() time.Time

	mu         sync.Mutex
	cached     *types.Statistics
	typeCounts []types.TypeCount
}

// NewAggregator creates an Aggregator over st.
func NewAggregator(st *store.Store, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{store: st, logger: logger, now: time.Now}
}

// Compute returns statistics for both record kinds. Repeated calls at the
// same store revision reuse the previous result.
func (a *Aggregator) Compute() *types.Statistics {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out *types.Statistics
	_ = a.store.Read(func(v *store.View) error {
		if a.cached != nil && a.cached.Revision == v.Revision() {
			out = cloneStatistics(a.cached)
			return nil
		}
		s := &types.Statistics{
			Revision:      v.Revision(),
			Entities:      a.entityStats(v),
			Relationships: relationshipStats(v),
		}
		a.cached = s
		a.typeCounts = typeCounts(s.Relationships.ByType)
		out = cloneStatistics(s)
		a.logger.Debug("statistics recomputed",
			"revision", s.Revision,
			"entities", s.Entities.TotalEntities,
			"relationships", s.Relationships.TotalRelationships)
		return nil
	})
	return out
}

// Aggregate returns the statistics of one record kind.
func (a *Aggregator) Aggregate(kind types.RecordKind) (*types.Statistics, error) {
	s := a.Compute()
	switch kind {
	case types.KindEntity:
		s.Relationships = nil
	case types.KindRelationship:
		s.Entities = nil
	case "":
	default:
		return nil, types.NewInvalidArgument("kind", "unknown record kind %q", kind)
	}
	return s, nil
}

// RelationshipTypes lists relationship types by descending frequency, then
// by name.
func (a *Aggregator) RelationshipTypes() []types.TypeCount {
	a.Compute()
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]types.TypeCount(nil), a.typeCounts...)
}

func (a *Aggregator) entityStats(v *store.View) *types.EntityStats {
	s := &types.EntityStats{ByClassification: make(map[string]int)}
	cutoff := a.now().Add(-RecentWindow)
	var last time.Time
	for _, e := range v.Entities() {
		s.TotalEntities++
		s.ByClassification[string(e.PrimaryClassification)]++
		if e.CreatedAt.After(cutoff) {
			s.RecentAdditions++
		}
		if e.UpdatedAt.After(last) {
			last = e.UpdatedAt
		}
	}
	if !last.IsZero() {
		s.LastUpdated = &last
	}
	return s
}

func relationshipStats(v *store.View) *types.RelationshipStats {
	s := &types.RelationshipStats{
		ByType: make(map[string]int),
		ByConfidenceBucket: map[string]int{
			types.BucketLow:    0,
			types.BucketMedium: 0,
			types.BucketHigh:   0,
		},
		ByScore: make(map[int]int),
	}
	var last time.Time
	sum, scored := 0, 0
	for _, r := range v.Relationships() {
		s.TotalRelationships++
		s.ByType[r.Type]++
		score := r.Score()
		s.ByConfidenceBucket[types.ConfidenceBucket(score)]++
		s.ByScore[score]++
		if r.Confidence != nil {
			sum += score
			scored++
		}
		if r.UpdatedAt.After(last) {
			last = r.UpdatedAt
		}
	}
	if scored > 0 {
		s.AvgConfidence = float64(sum) / float64(scored)
	}
	if !last.IsZero() {
		s.LastUpdated = &last
	}
	return s
}

func typeCounts(byType map[string]int) []types.TypeCount {
	out := make([]types.TypeCount, 0, len(byType))
	for t, n := range byType {
		out = append(out, types.TypeCount{Type: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	return out
}

func cloneStatistics(s *types.Statistics) *types.Statistics {
	out := &types.Statistics{Revision: s.Revision}
	if s.Entities != nil {
		e := *s.Entities
		e.ByClassification = cloneCounts(s.Entities.ByClassification)
		out.Entities = &e
	}
	if s.Relationships != nil {
		r := *s.Relationships
		r.ByType = cloneCounts(s.Relationships.ByType)
		r.ByConfidenceBucket = cloneCounts(s.Relationships.ByConfidenceBucket)
		r.ByScore = make(map[int]int, len(s.Relationships.ByScore))
		for k, n := range s.Relationships.ByScore {
			r.ByScore[k] = n
		}
		out.Relationships = &r
	}
	return out
}

func cloneCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, n := range m {
		out[k] = n
	}
	return out
}
