package search

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/flavorlab/nutrigraph/pkg/store"
	"github.com/flavorlab/nutrigraph/pkg/types"
)

// Suggestion limits.
const (
	DefaultSuggestLimit = 10
	MaxSuggestLimit     = 20
)

// Searcher evaluates entity and relationship queries against a store.
type Searcher struct {
	store  *store.Store
	logger *slog.Logger

	pageSize    int
	maxPageSize int

	suggestLimit int
	suggestMax   int
}

// NewSearcher creates a Searcher over st.
func NewSearcher(st *store.Store, logger *slog.Logger) *Searcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Searcher{
		store:        st,
		logger:       logger,
		pageSize:     DefaultPageSize,
		maxPageSize:  MaxPageSize,
		suggestLimit: DefaultSuggestLimit,
		suggestMax:   MaxSuggestLimit,
	}
}

// SetPageLimits overrides the default and maximum page sizes. Non-positive
// values keep the current setting.
func (s *Searcher) SetPageLimits(defaultSize, maxSize int) {
	if defaultSize > 0 {
		s.pageSize = defaultSize
	}
	if maxSize > 0 {
		s.maxPageSize = maxSize
	}
}

// SetSuggestLimits overrides the default and maximum number of suggestions.
// Non-positive values keep the current setting.
func (s *Searcher) SetSuggestLimits(defaultLimit, maxLimit int) {
	if defaultLimit > 0 {
		s.suggestLimit = defaultLimit
	}
	if maxLimit > 0 {
		s.suggestMax = maxLimit
	}
}

// SearchEntities filters, sorts and paginates entities. The page must
// already be normalized; a negative offset is still rejected.
func (s *Searcher) SearchEntities(q *types.EntityQuery) (*types.EntityResult, error) {
	start := time.Now()
	if q == nil {
		q = &types.EntityQuery{}
	}
	page, err := NormalizePage(q.Page, s.pageSize, s.maxPageSize)
	if err != nil {
		return nil, err
	}
	preds, err := compileEntityQuery(q)
	if err != nil {
		return nil, err
	}
	cmp, order, err := entityComparator(q.Sort)
	if err != nil {
		return nil, err
	}

	var matches []types.Entity
	_ = s.store.Read(func(v *store.View) error {
		for _, e := range v.Entities() {
			if matchesAll(v, &e, preds) {
				matches = append(matches, e.Clone())
			}
		}
		return nil
	})

	sortEntities(matches, cmp, order)
	window := paginate(matches, page)

	res := &types.EntityResult{
		Entities:        append([]types.Entity{}, window...),
		TotalCount:      len(matches),
		Offset:          page.Offset,
		Limit:           page.Limit,
		HasMore:         page.Offset+len(window) < len(matches),
		ExecutionTimeMS: elapsedMS(start),
	}
	s.logger.Debug("entity search completed",
		"clauses", len(preds),
		"total", res.TotalCount,
		"returned", len(res.Entities))
	return res, nil
}

// SearchRelationships filters, sorts and paginates relationships.
func (s *Searcher) SearchRelationships(q *types.RelationshipQuery) (*types.RelationshipResult, error) {
	start := time.Now()
	if q == nil {
		q = &types.RelationshipQuery{}
	}
	page, err := NormalizePage(q.Page, s.pageSize, s.maxPageSize)
	if err != nil {
		return nil, err
	}
	preds, err := compileRelationshipQuery(q)
	if err != nil {
		return nil, err
	}
	cmp, order, err := relationshipComparator(q.Sort)
	if err != nil {
		return nil, err
	}

	var matches []types.Relationship
	_ = s.store.Read(func(v *store.View) error {
		for _, r := range v.Relationships() {
			ok := true
			for _, p := range preds {
				if !p(&r) {
					ok = false
					break
				}
			}
			if ok {
				matches = append(matches, r.Clone())
			}
		}
		return nil
	})

	sortRelationships(matches, cmp, order)
	window := paginate(matches, page)

	res := &types.RelationshipResult{
		Relationships:   append([]types.Relationship{}, window...),
		TotalCount:      len(matches),
		Offset:          page.Offset,
		Limit:           page.Limit,
		HasMore:         page.Offset+len(window) < len(matches),
		ExecutionTimeMS: elapsedMS(start),
	}
	s.logger.Debug("relationship search completed",
		"clauses", len(preds),
		"total", res.TotalCount,
		"returned", len(res.Relationships))
	return res, nil
}

// Suggest returns records whose name starts with prefix, case-insensitively,
// ordered alphabetically and then by id. For relationships the candidates
// are the distinct relationship types. An empty classification matches
// every entity.
func (s *Searcher) Suggest(prefix string, kind types.RecordKind, class types.Classification, limit int) ([]types.Suggestion, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return nil, types.NewInvalidArgument("prefix", "cannot be empty")
	}
	if limit <= 0 {
		limit = s.suggestLimit
	}
	if limit > s.suggestMax {
		limit = s.suggestMax
	}

	var out []types.Suggestion
	switch kind {
	case types.KindEntity, "":
		_ = s.store.Read(func(v *store.View) error {
			for _, e := range v.Entities() {
				if class != "" && e.PrimaryClassification != class {
					continue
				}
				if strings.HasPrefix(strings.ToLower(e.Name), prefix) {
					out = append(out, types.Suggestion{
						ID:             e.ID,
						Name:           e.Name,
						Classification: e.PrimaryClassification,
						Kind:           types.KindEntity,
					})
				}
			}
			return nil
		})
	case types.KindRelationship:
		seen := make(map[string]struct{})
		_ = s.store.Read(func(v *store.View) error {
			for _, r := range v.Relationships() {
				if _, dup := seen[r.Type]; dup {
					continue
				}
				if strings.HasPrefix(strings.ToLower(r.Type), prefix) {
					seen[r.Type] = struct{}{}
					out = append(out, types.Suggestion{ID: r.Type, Name: r.Type, Kind: types.KindRelationship})
				}
			}
			return nil
		})
	default:
		return nil, types.NewInvalidArgument("kind", "unknown record kind %q", kind)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if a != b {
			return a < b
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func matchesAll(v *store.View, e *types.Entity, preds []entityPredicate) bool {
	for _, p := range preds {
		if !p(v, e) {
			return false
		}
	}
	return true
}

func elapsedMS(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
