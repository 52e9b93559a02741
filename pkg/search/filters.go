package search

import (
	"fmt"
	"strings"

	"github.com/flavorlab/nutrigraph/pkg/pillars"
	"github.com/flavorlab/nutrigraph/pkg/store"
	"github.com/flavorlab/nutrigraph/pkg/types"
)

// entityPredicate is one compiled clause of an entity query.
type entityPredicate func(v *store.View, e *types.Entity) bool

// relationshipPredicate is one compiled clause of a relationship query.
type relationshipPredicate func(r *types.Relationship) bool

func compileEntityQuery(q *types.EntityQuery) ([]entityPredicate, error) {
	var preds []entityPredicate

	if text := strings.ToLower(strings.TrimSpace(q.Text)); text != "" {
		preds = append(preds, func(_ *store.View, e *types.Entity) bool {
			return MatchText(e, text)
		})
	}

	if q.PrimaryClassification != "" {
		want, ok := types.ParseClassification(string(q.PrimaryClassification))
		if !ok {
			return nil, types.NewInvalidArgument("primary_classification", "unknown classification %q", q.PrimaryClassification)
		}
		preds = append(preds, func(_ *store.View, e *types.Entity) bool {
			return e.PrimaryClassification == want
		})
	}

	if len(q.Classifications) > 0 {
		set := make([]types.Classification, 0, len(q.Classifications))
		for i, c := range q.Classifications {
			want, ok := types.ParseClassification(string(c))
			if !ok {
				return nil, types.NewInvalidArgument(fmt.Sprintf("classifications[%d]", i), "unknown classification %q", c)
			}
			set = append(set, want)
		}
		preds = append(preds, func(_ *store.View, e *types.Entity) bool {
			return e.InClassifications(set)
		})
	}

	if len(q.HealthOutcomes) > 0 {
		want := lowerSet(q.HealthOutcomes)
		preds = append(preds, func(_ *store.View, e *types.Entity) bool {
			for _, tag := range e.OutcomeTags() {
				if _, ok := want[tag]; ok {
					return true
				}
			}
			return false
		})
	}

	if len(q.Pillars) > 0 {
		want := make(map[int]struct{}, len(q.Pillars))
		for _, id := range q.Pillars {
			if !pillars.Valid(id) {
				return nil, types.NewInvalidArgument("pillars", "unknown pillar id %d", id)
			}
			want[id] = struct{}{}
		}
		preds = append(preds, func(_ *store.View, e *types.Entity) bool {
			for _, id := range pillars.ForEntity(e) {
				if _, ok := want[id]; ok {
					return true
				}
			}
			return false
		})
	}

	if len(q.CompoundIDs) > 0 {
		want := make(map[string]struct{}, len(q.CompoundIDs))
		for _, id := range q.CompoundIDs {
			want[id] = struct{}{}
		}
		preds = append(preds, func(v *store.View, e *types.Entity) bool {
			for _, id := range e.CompoundIDs() {
				if _, ok := want[id]; ok {
					return true
				}
			}
			for _, r := range v.Outgoing(e.ID) {
				if r.Type != types.RelContains {
					continue
				}
				if _, ok := want[r.TargetID]; ok {
					return true
				}
			}
			return false
		})
	}

	for _, ap := range q.Attributes {
		ap := ap
		if strings.TrimSpace(ap.Key) == "" {
			return nil, types.NewInvalidArgument("attributes", "attribute key cannot be empty")
		}
		op, err := types.ParseOperator(string(ap.Operator))
		if err != nil {
			return nil, err
		}
		ap.Operator = op
		preds = append(preds, func(_ *store.View, e *types.Entity) bool {
			return MatchAttribute(e, ap)
		})
	}

	return preds, nil
}

func compileRelationshipQuery(q *types.RelationshipQuery) ([]relationshipPredicate, error) {
	var preds []relationshipPredicate

	if q.SourceID != "" {
		preds = append(preds, func(r *types.Relationship) bool { return r.SourceID == q.SourceID })
	}
	if q.TargetID != "" {
		preds = append(preds, func(r *types.Relationship) bool { return r.TargetID == q.TargetID })
	}
	if q.EntityID != "" {
		preds = append(preds, func(r *types.Relationship) bool {
			return r.SourceID == q.EntityID || r.TargetID == q.EntityID
		})
	}

	typeNames := append([]string(nil), q.Types...)
	if q.Type != "" {
		typeNames = append(typeNames, q.Type)
	}
	if len(typeNames) > 0 {
		want := lowerSet(typeNames)
		preds = append(preds, func(r *types.Relationship) bool {
			_, ok := want[strings.ToLower(r.Type)]
			return ok
		})
	}

	if q.MinConfidence != nil || q.MaxConfidence != nil {
		lo, hi := 0, types.MaxConfidence
		if q.MinConfidence != nil {
			lo = *q.MinConfidence
		}
		if q.MaxConfidence != nil {
			hi = *q.MaxConfidence
		}
		if lo < 0 || hi < 0 || lo > types.MaxConfidence || hi > types.MaxConfidence {
			return nil, types.NewInvalidArgument("confidence", "range bounds must be within 0..%d", types.MaxConfidence)
		}
		if lo > hi {
			return nil, types.NewInvalidArgument("confidence", "min %d exceeds max %d", lo, hi)
		}
		preds = append(preds, func(r *types.Relationship) bool {
			s := r.Score()
			return s >= lo && s <= hi
		})
	}

	if q.HasQuantity != nil {
		want := *q.HasQuantity
		preds = append(preds, func(r *types.Relationship) bool { return (r.Quantity != nil) == want })
	}

	if len(q.Context) > 0 {
		preds = append(preds, func(r *types.Relationship) bool {
			for k, want := range q.Context {
				got, ok := r.Context[k]
				if !ok || !got.Equal(want) {
					return false
				}
			}
			return true
		})
	}

	return preds, nil
}

// MatchText reports whether the lowercased needle occurs in the entity name,
// or in its id when the name does not contain it.
func MatchText(e *types.Entity, needle string) bool {
	if strings.Contains(strings.ToLower(e.Name), needle) {
		return true
	}
	return strings.Contains(strings.ToLower(e.ID), needle)
}

// MatchAttribute evaluates one attribute predicate. A missing key or path
// fails every operator, including ne.
func MatchAttribute(e *types.Entity, p types.AttributePredicate) bool {
	val, ok := e.Attribute(p.Key)
	if !ok {
		return false
	}
	if len(p.Path) > 0 {
		if val, ok = val.Get(p.Path...); !ok {
			return false
		}
	}

	switch p.Operator {
	case types.OpExists:
		return true
	case types.OpEq, "":
		return val.Equal(p.Value)
	case types.OpNe:
		return !val.Equal(p.Value)
	case types.OpGt, types.OpGte, types.OpLt, types.OpLte:
		cmp, ok := val.Compare(p.Value)
		if !ok {
			return false
		}
		switch p.Operator {
		case types.OpGt:
			return cmp > 0
		case types.OpGte:
			return cmp >= 0
		case types.OpLt:
			return cmp < 0
		default:
			return cmp <= 0
		}
	case types.OpIn:
		items, ok := p.Value.AsList()
		if !ok {
			return val.Equal(p.Value)
		}
		for _, item := range items {
			if val.Equal(item) {
				return true
			}
		}
		return false
	case types.OpContains:
		return val.Contains(p.Value)
	case types.OpStartsWith:
		return scalar(val) && strings.HasPrefix(strings.ToLower(val.Text()), strings.ToLower(p.Value.Text()))
	case types.OpEndsWith:
		return scalar(val) && strings.HasSuffix(strings.ToLower(val.Text()), strings.ToLower(p.Value.Text()))
	}
	return false
}

func scalar(v types.Value) bool {
	switch v.Kind() {
	case types.KindString, types.KindNumber, types.KindBool:
		return true
	}
	return false
}

func lowerSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			set[s] = struct{}{}
		}
	}
	return set
}
