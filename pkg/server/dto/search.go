package dto

import (
	"fmt"

	"github.com/flavorlab/nutrigraph/pkg/types"
)

// AttributeFilter is one attribute predicate of an entity search.
type AttributeFilter struct {
	Key      string      `json:"key"`
	Path     []string    `json:"path,omitempty"`
	Operator string      `json:"operator,omitempty"`
	Value    types.Value `json:"value"`
}

// EntitySearchRequest is the body of POST /api/v1/entities/search.
type EntitySearchRequest struct {
	Text                  string            `json:"text,omitempty"`
	PrimaryClassification string            `json:"primary_classification,omitempty"`
	Classifications       []string          `json:"classifications,omitempty"`
	HealthOutcomes        []string          `json:"health_outcomes,omitempty"`
	Pillars               []int             `json:"pillars,omitempty"`
	CompoundIDs           []string          `json:"compound_ids,omitempty"`
	Attributes            []AttributeFilter `json:"attributes,omitempty"`
	SortBy                string            `json:"sort_by,omitempty"`
	SortOrder             string            `json:"sort_order,omitempty"`
	Offset                int               `json:"offset"`
	Limit                 int               `json:"limit"`
}

// Validate checks request sizes. Semantic checks happen in the engine.
func (r *EntitySearchRequest) Validate() error {
	if len(r.Text) > MaxTextLength {
		return ErrTextTooLong
	}
	for _, n := range []int{len(r.Classifications), len(r.HealthOutcomes), len(r.Pillars), len(r.CompoundIDs)} {
		if err := checkList(n); err != nil {
			return err
		}
	}
	if len(r.Attributes) > MaxAttributeCount {
		return ErrTooManyAttributes
	}
	return nil
}

// ToQuery converts the request into an engine query.
func (r *EntitySearchRequest) ToQuery() (*types.EntityQuery, error) {
	q := &types.EntityQuery{
		Text:           r.Text,
		HealthOutcomes: r.HealthOutcomes,
		Pillars:        r.Pillars,
		CompoundIDs:    r.CompoundIDs,
		Sort:           types.Sort{Field: types.SortField(r.SortBy), Order: types.SortOrder(r.SortOrder)},
		Page:           types.Page{Offset: r.Offset, Limit: r.Limit},
	}
	if r.PrimaryClassification != "" {
		q.PrimaryClassification = types.Classification(r.PrimaryClassification)
	}
	for _, c := range r.Classifications {
		q.Classifications = append(q.Classifications, types.Classification(c))
	}
	for i, a := range r.Attributes {
		op, err := types.ParseOperator(a.Operator)
		if err != nil {
			return nil, types.NewInvalidArgument(fmt.Sprintf("attributes[%d].operator", i), "unsupported operator %q", a.Operator)
		}
		q.Attributes = append(q.Attributes, types.AttributePredicate{
			Key:      a.Key,
			Path:     a.Path,
			Operator: op,
			Value:    a.Value,
		})
	}
	return q, nil
}

// RelationshipSearchRequest is the body of POST /api/v1/relationships/search.
type RelationshipSearchRequest struct {
	SourceID          string                 `json:"source_id,omitempty"`
	TargetID          string                 `json:"target_id,omitempty"`
	EntityID          string                 `json:"entity_id,omitempty"`
	RelationshipType  string                 `json:"relationship_type,omitempty"`
	RelationshipTypes []string               `json:"relationship_types,omitempty"`
	MinConfidence     *int                   `json:"min_confidence,omitempty"`
	MaxConfidence     *int                   `json:"max_confidence,omitempty"`
	HasQuantity       *bool                  `json:"has_quantity,omitempty"`
	Context           map[string]types.Value `json:"context,omitempty"`
	SortBy            string                 `json:"sort_by,omitempty"`
	SortOrder         string                 `json:"sort_order,omitempty"`
	Offset            int                    `json:"offset"`
	Limit             int                    `json:"limit"`
}

// Validate checks request sizes.
func (r *RelationshipSearchRequest) Validate() error {
	for _, id := range []string{r.SourceID, r.TargetID, r.EntityID} {
		if len(id) > MaxIDLength {
			return ErrIDTooLong
		}
	}
	if err := checkList(len(r.RelationshipTypes)); err != nil {
		return err
	}
	return checkList(len(r.Context))
}

// ToQuery converts the request into an engine query.
func (r *RelationshipSearchRequest) ToQuery() *types.RelationshipQuery {
	return &types.RelationshipQuery{
		SourceID:      r.SourceID,
		TargetID:      r.TargetID,
		EntityID:      r.EntityID,
		Type:          r.RelationshipType,
		Types:         r.RelationshipTypes,
		MinConfidence: r.MinConfidence,
		MaxConfidence: r.MaxConfidence,
		HasQuantity:   r.HasQuantity,
		Context:       r.Context,
		Sort:          types.Sort{Field: types.SortField(r.SortBy), Order: types.SortOrder(r.SortOrder)},
		Page:          types.Page{Offset: r.Offset, Limit: r.Limit},
	}
}

// PathQuery holds the query parameters of GET /api/v1/path.
type PathQuery struct {
	Source    string `form:"source" binding:"required"`
	Target    string `form:"target" binding:"required"`
	MaxDepth  int    `form:"max_depth"`
	Direction string `form:"direction"`
}

// SuggestQuery holds the query parameters of GET /api/v1/suggest.
type SuggestQuery struct {
	Q              string `form:"q" binding:"required"`
	Kind           string `form:"kind"`
	Classification string `form:"classification"`
	Limit          int    `form:"limit"`
}

// ConnectionsQuery holds the query parameters of
// GET /api/v1/entities/:id/connections.
type ConnectionsQuery struct {
	Direction string   `form:"direction"`
	Types     []string `form:"types"`
}

// PathResponse wraps a path for the API.
type PathResponse struct {
	Path     *types.Path    `json:"path"`
	Entities []types.Entity `json:"entities"`
}
