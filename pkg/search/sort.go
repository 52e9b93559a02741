package search

import (
	"sort"
	"strings"

	"github.com/flavorlab/nutrigraph/pkg/types"
)

// Pagination defaults.
const (
	DefaultPageSize = 50
	MaxPageSize     = 1000
)

// NormalizePage validates a page request. A non-positive limit selects
// defaultSize, a limit above maxSize is clamped and a negative offset is
// rejected.
func NormalizePage(p types.Page, defaultSize, maxSize int) (types.Page, error) {
	if p.Offset < 0 {
		return p, types.NewInvalidArgument("offset", "must be >= 0, got %d", p.Offset)
	}
	if defaultSize <= 0 {
		defaultSize = DefaultPageSize
	}
	if maxSize <= 0 {
		maxSize = MaxPageSize
	}
	if p.Limit <= 0 {
		p.Limit = defaultSize
	}
	if p.Limit > maxSize {
		p.Limit = maxSize
	}
	return p, nil
}

// paginate returns the window of items selected by p.
func paginate[T any](items []T, p types.Page) []T {
	if p.Offset >= len(items) {
		return nil
	}
	end := p.Offset + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[p.Offset:end]
}

type entityCompare func(a, b *types.Entity) int

type relationshipCompare func(a, b *types.Relationship) int

func parseOrder(o types.SortOrder, def types.SortOrder) (types.SortOrder, error) {
	switch types.SortOrder(strings.ToLower(string(o))) {
	case "":
		return def, nil
	case types.Asc:
		return types.Asc, nil
	case types.Desc:
		return types.Desc, nil
	}
	return "", types.NewInvalidArgument("sort.order", "must be asc or desc, got %q", o)
}

func entityComparator(s types.Sort) (entityCompare, types.SortOrder, error) {
	var cmp entityCompare
	switch s.Field {
	case "", types.SortByName:
		cmp = func(a, b *types.Entity) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	case types.SortByClassification:
		cmp = func(a, b *types.Entity) int {
			return strings.Compare(string(a.PrimaryClassification), string(b.PrimaryClassification))
		}
	case types.SortByID:
		cmp = func(a, b *types.Entity) int { return strings.Compare(a.ID, b.ID) }
	case types.SortByCreatedAt:
		cmp = func(a, b *types.Entity) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case types.SortByUpdatedAt:
		cmp = func(a, b *types.Entity) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	default:
		return nil, "", types.NewInvalidArgument("sort.field", "cannot sort entities by %q", s.Field)
	}
	order, err := parseOrder(s.Order, types.Asc)
	return cmp, order, err
}

func relationshipComparator(s types.Sort) (relationshipCompare, types.SortOrder, error) {
	var cmp relationshipCompare
	def := types.Asc
	switch s.Field {
	case "", types.SortByConfidence:
		cmp = func(a, b *types.Relationship) int { return a.Score() - b.Score() }
		if s.Field == "" {
			def = types.Desc
		}
	case types.SortByType:
		cmp = func(a, b *types.Relationship) int { return strings.Compare(a.Type, b.Type) }
	case types.SortByID:
		cmp = func(a, b *types.Relationship) int { return strings.Compare(a.ID, b.ID) }
	case types.SortByCreatedAt:
		cmp = func(a, b *types.Relationship) int { return a.CreatedAt.Compare(b.CreatedAt) }
	default:
		return nil, "", types.NewInvalidArgument("sort.field", "cannot sort relationships by %q", s.Field)
	}
	order, err := parseOrder(s.Order, def)
	return cmp, order, err
}

// sortEntities orders by cmp in the given direction, then by id ascending.
func sortEntities(items []types.Entity, cmp entityCompare, order types.SortOrder) {
	sort.SliceStable(items, func(i, j int) bool {
		c := cmp(&items[i], &items[j])
		if order == types.Desc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return items[i].ID < items[j].ID
	})
}

// sortRelationships orders by cmp in the given direction, then by id ascending.
func sortRelationships(items []types.Relationship, cmp relationshipCompare, order types.SortOrder) {
	sort.SliceStable(items, func(i, j int) bool {
		c := cmp(&items[i], &items[j])
		if order == types.Desc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return items[i].ID < items[j].ID
	})
}
