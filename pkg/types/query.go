package types

import "strings"

// Operator is a comparison applied by an attribute predicate.
type Operator string

const (
	OpEq         Operator = "eq"
	OpNe         Operator = "ne"
	OpGt         Operator = "gt"
	OpGte        Operator = "gte"
	OpLt         Operator = "lt"
	OpLte        Operator = "lte"
	OpIn         Operator = "in"
	OpContains   Operator = "contains"
	OpStartsWith Operator = "starts_with"
	OpEndsWith   Operator = "ends_with"
	// OpExists matches when the key is present, whatever its value.
	OpExists Operator = "exists"
)

// ParseOperator accepts the named operators and their symbolic forms.
func ParseOperator(s string) (Operator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "eq", "=", "==":
		return OpEq, nil
	case "ne", "!=", "<>":
		return OpNe, nil
	case "gt", ">":
		return OpGt, nil
	case "gte", ">=":
		return OpGte, nil
	case "lt", "<":
		return OpLt, nil
	case "lte", "<=":
		return OpLte, nil
	case "in":
		return OpIn, nil
	case "contains":
		return OpContains, nil
	case "starts_with":
		return OpStartsWith, nil
	case "ends_with":
		return OpEndsWith, nil
	case "exists":
		return OpExists, nil
	}
	return "", NewInvalidArgument("operator", "unsupported operator %q", s)
}

// AttributePredicate tests attributes[Key].value, optionally navigated by Path.
type AttributePredicate struct {
	Key      string   `json:"key"`
	Path     []string `json:"path,omitempty"`
	Operator Operator `json:"operator"`
	Value    Value    `json:"value"`
}

// SortOrder is ascending or descending.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// SortField names a sortable key. Valid fields depend on the record kind.
type SortField string

const (
	SortByName           SortField = "name"
	SortByClassification SortField = "classification"
	SortByID             SortField = "id"
	SortByCreatedAt      SortField = "created_at"
	SortByUpdatedAt      SortField = "updated_at"
	SortByConfidence     SortField = "confidence"
	SortByType           SortField = "relationship_type"
)

// Sort selects the result ordering. Ties are always broken by id ascending.
type Sort struct {
	Field SortField `json:"field,omitempty"`
	Order SortOrder `json:"order,omitempty"`
}

// Page is an offset/limit window.
type Page struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// EntityQuery is the predicate set for an entity search. All non-empty
// clauses must hold.
type EntityQuery struct {
	Text                  string               `json:"text,omitempty"`
	PrimaryClassification Classification       `json:"primary_classification,omitempty"`
	Classifications       []Classification     `json:"classifications,omitempty"`
	HealthOutcomes        []string             `json:"health_outcomes,omitempty"`
	Pillars               []int                `json:"pillars,omitempty"`
	CompoundIDs           []string             `json:"compound_ids,omitempty"`
	Attributes            []AttributePredicate `json:"attributes,omitempty"`
	Sort                  Sort                 `json:"sort"`
	Page                  Page                 `json:"page"`
}

// RelationshipQuery is the predicate set for a relationship search.
type RelationshipQuery struct {
	SourceID string `json:"source_id,omitempty"`
	TargetID string `json:"target_id,omitempty"`
	// EntityID matches relationships with EntityID at either end.
	EntityID      string           `json:"entity_id,omitempty"`
	Type          string           `json:"relationship_type,omitempty"`
	Types         []string         `json:"relationship_types,omitempty"`
	MinConfidence *int             `json:"min_confidence,omitempty"`
	MaxConfidence *int             `json:"max_confidence,omitempty"`
	HasQuantity   *bool            `json:"has_quantity,omitempty"`
	Context       map[string]Value `json:"context,omitempty"`
	Sort          Sort             `json:"sort"`
	Page          Page             `json:"page"`
}

// EntityResult is one page of an entity search.
type EntityResult struct {
	Entities        []Entity `json:"entities"`
	TotalCount      int      `json:"total_count"`
	Offset          int      `json:"offset"`
	Limit           int      `json:"limit"`
	HasMore         bool     `json:"has_more"`
	ExecutionTimeMS float64  `json:"execution_time_ms"`
}

// RelationshipResult is one page of a relationship search.
type RelationshipResult struct {
	Relationships   []Relationship `json:"relationships"`
	TotalCount      int            `json:"total_count"`
	Offset          int            `json:"offset"`
	Limit           int            `json:"limit"`
	HasMore         bool           `json:"has_more"`
	ExecutionTimeMS float64        `json:"execution_time_ms"`
}

// Connection is a relationship touching an entity, seen from that entity.
type Connection struct {
	Relationship Relationship `json:"relationship"`
	NeighborID   string       `json:"neighbor_id"`
	// Direction is DirectionOut when the entity is the source.
	Direction Direction `json:"direction"`
}

// Connections groups the direct relationships of an entity.
type Connections struct {
	EntityID          string       `json:"entity_id"`
	Outgoing          []Connection `json:"outgoing"`
	Incoming          []Connection `json:"incoming"`
	TotalConnections  int          `json:"total_connections"`
	RelationshipTypes []string     `json:"relationship_types"`
}

// All returns outgoing connections followed by incoming ones.
func (c *Connections) All() []Connection {
	out := make([]Connection, 0, len(c.Outgoing)+len(c.Incoming))
	out = append(out, c.Outgoing...)
	return append(out, c.Incoming...)
}

// PathStep is one hop of a path. Reversed is set when the hop walks the
// relationship against its direction.
type PathStep struct {
	Relationship Relationship `json:"relationship"`
	From         string       `json:"from"`
	To           string       `json:"to"`
	Reversed     bool         `json:"reversed"`
}

// Path is a shortest path between two entities.
type Path struct {
	SourceID        string     `json:"source_id"`
	TargetID        string     `json:"target_id"`
	Steps           []PathStep `json:"steps"`
	EntityIDs       []string   `json:"entity_ids"`
	Length          int        `json:"path_length"`
	TotalConfidence int        `json:"total_confidence"`
	AvgConfidence   float64    `json:"avg_confidence"`
}

// Relationships returns the relationships along the path in order.
func (p *Path) Relationships() []Relationship {
	out := make([]Relationship, len(p.Steps))
	for i, s := range p.Steps {
		out[i] = s.Relationship
	}
	return out
}

// Suggestion is an autocomplete candidate.
type Suggestion struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Classification Classification `json:"classification,omitempty"`
	Kind           RecordKind     `json:"kind"`
}
