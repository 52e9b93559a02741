package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/flavorlab/nutrigraph/pkg/config"
	"github.com/flavorlab/nutrigraph/pkg/types"
)

const (
	entityQuery = `
		MATCH (n)
		WHERE n.id IS NOT NULL AND n.name IS NOT NULL
		RETURN n
	`
	relationshipQuery = `
		MATCH (s)-[r]->(t)
		WHERE s.id IS NOT NULL AND t.id IS NOT NULL
		RETURN s.id AS source_id, t.id AS target_id, r
	`
)

// Neo4jSource reads entities and relationships from a Neo4j database. Nodes
// need an id and a name property; maps that Neo4j cannot store natively
// (attributes, compounds, context, uncertainty) are expected as JSON
// strings.
type Neo4jSource struct {
	client   neo4j.DriverWithContext
	database string
	logger   *slog.Logger
}

// NewNeo4jSource creates a source for cfg. The connection is established
// lazily by the first Fetch.
func NewNeo4jSource(cfg config.Neo4jConfig, logger *slog.Logger) (*Neo4jSource, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	database := cfg.Database
	if database == "" {
		database = "neo4j"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Neo4jSource{client: driver, database: database, logger: logger}, nil
}

// Name implements Source.
func (n *Neo4jSource) Name() string { return "neo4j" }

// Close releases the driver.
func (n *Neo4jSource) Close(ctx context.Context) error {
	return n.client.Close(ctx)
}

// Fetch implements Source. Nodes and relationships that cannot be converted
// are skipped with a warning; the loader validates the rest.
func (n *Neo4jSource) Fetch(ctx context.Context) (*Batch, error) {
	opts := []neo4j.ExecuteQueryConfigurationOption{
		neo4j.ExecuteQueryWithDatabase(n.database),
		neo4j.ExecuteQueryWithReadersRouting(),
	}

	nodes, err := neo4j.ExecuteQuery(ctx, n.client, entityQuery, nil, neo4j.EagerResultTransformer, opts...)
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	b := &Batch{}
	for _, rec := range nodes.Records {
		v, ok := rec.Get("n")
		if !ok {
			continue
		}
		node, ok := v.(dbtype.Node)
		if !ok {
			return nil, fmt.Errorf("unexpected type for node: got %T, expected dbtype.Node", v)
		}
		e, err := EntityFromNode(node)
		if err != nil {
			n.logger.Warn("Skipping neo4j node", "element_id", node.ElementId, "error", err)
			continue
		}
		b.Entities = append(b.Entities, e)
	}

	rels, err := neo4j.ExecuteQuery(ctx, n.client, relationshipQuery, nil, neo4j.EagerResultTransformer, opts...)
	if err != nil {
		return nil, fmt.Errorf("query relationships: %w", err)
	}
	for _, rec := range rels.Records {
		source, _ := rec.Get("source_id")
		target, _ := rec.Get("target_id")
		v, _ := rec.Get("r")
		rel, ok := v.(dbtype.Relationship)
		if !ok {
			return nil, fmt.Errorf("unexpected type for relationship: got %T, expected dbtype.Relationship", v)
		}
		sourceID, _ := source.(string)
		targetID, _ := target.(string)
		r, err := RelationshipFromNeo4j(rel, sourceID, targetID)
		if err != nil {
			n.logger.Warn("Skipping neo4j relationship", "element_id", rel.ElementId, "error", err)
			continue
		}
		b.Relationships = append(b.Relationships, r)
	}

	n.logger.Info("Fetched records from neo4j", "database", n.database,
		"entities", len(b.Entities), "relationships", len(b.Relationships))
	return b, nil
}

var entityProps = map[string]struct{}{
	"id": {}, "name": {}, "display_name": {}, "primary_classification": {},
	"classifications": {}, "aliases": {}, "attributes": {}, "health_outcomes": {},
	"compounds": {}, "created_at": {}, "updated_at": {},
}

// EntityFromNode converts a Neo4j node into an Entity. Properties without a
// dedicated field become attributes. When primary_classification is absent
// the first label naming a known classification is used.
func EntityFromNode(node dbtype.Node) (types.Entity, error) {
	p := node.Props
	e := types.Entity{
		ID:          propString(p, "id"),
		Name:        propString(p, "name"),
		DisplayName: propString(p, "display_name"),
		Aliases:     propStrings(p, "aliases"),
	}

	if c, ok := types.ParseClassification(propString(p, "primary_classification")); ok {
		e.PrimaryClassification = c
	} else {
		for _, label := range node.Labels {
			if c, ok := types.ParseClassification(label); ok {
				e.PrimaryClassification = c
				break
			}
		}
	}
	for _, s := range propStrings(p, "classifications") {
		if c, ok := types.ParseClassification(s); ok {
			e.Classifications = append(e.Classifications, c)
		}
	}
	for _, tag := range propStrings(p, "health_outcomes") {
		e.HealthOutcomes = append(e.HealthOutcomes, types.HealthOutcome{Outcome: tag})
	}

	if raw, ok := p["attributes"]; ok {
		if err := decodeProp(raw, &e.Attributes); err != nil {
			return types.Entity{}, fmt.Errorf("attributes: %w", err)
		}
	}
	if raw, ok := p["compounds"]; ok {
		if err := decodeProp(raw, &e.Compounds); err != nil {
			return types.Entity{}, fmt.Errorf("compounds: %w", err)
		}
	}

	keys := make([]string, 0, len(p))
	for k := range p {
		if _, known := entityProps[k]; !known {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if e.Attributes == nil {
			e.Attributes = make(map[string]types.AttributeValue)
		}
		if _, exists := e.Attributes[k]; !exists {
			e.Attributes[k] = types.AttributeValue{Value: types.FromAny(p[k]), Source: "neo4j"}
		}
	}

	var err error
	if e.CreatedAt, err = propTime(p, "created_at"); err != nil {
		return types.Entity{}, err
	}
	if e.UpdatedAt, err = propTime(p, "updated_at"); err != nil {
		return types.Entity{}, err
	}
	return e, e.Validate()
}

// RelationshipFromNeo4j converts a Neo4j relationship into a Relationship.
// The relationship type defaults to the lowercased Neo4j type and the id to
// the element id.
func RelationshipFromNeo4j(rel dbtype.Relationship, sourceID, targetID string) (types.Relationship, error) {
	p := rel.Props
	r := types.Relationship{
		ID:       propString(p, "id"),
		SourceID: sourceID,
		TargetID: targetID,
		Type:     propString(p, "relationship_type"),
		Unit:     propString(p, "unit"),
	}
	if r.ID == "" {
		r.ID = rel.ElementId
	}
	if r.Type == "" {
		r.Type = strings.ToLower(rel.Type)
	}
	if q, ok := propFloat(p, "quantity"); ok {
		r.Quantity = &q
	}
	if c, ok := propFloat(p, "confidence_score"); ok {
		r.Confidence = types.IntPtr(int(c))
	}
	if raw, ok := p["context"]; ok {
		if err := decodeProp(raw, &r.Context); err != nil {
			return types.Relationship{}, fmt.Errorf("context: %w", err)
		}
	}
	if raw, ok := p["uncertainty"]; ok {
		if err := decodeProp(raw, &r.Uncertainty); err != nil {
			return types.Relationship{}, fmt.Errorf("uncertainty: %w", err)
		}
	}

	var err error
	if r.CreatedAt, err = propTime(p, "created_at"); err != nil {
		return types.Relationship{}, err
	}
	if r.UpdatedAt, err = propTime(p, "updated_at"); err != nil {
		return types.Relationship{}, err
	}
	return r, r.Validate()
}

func propString(p map[string]any, key string) string {
	s, _ := p[key].(string)
	return s
}

func propStrings(p map[string]any, key string) []string {
	switch v := p[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v != "" {
			return []string{v}
		}
	}
	return nil
}

func propFloat(p map[string]any, key string) (float64, bool) {
	switch v := p[key].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}

func propTime(p map[string]any, key string) (time.Time, error) {
	switch v := p[key].(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return v, nil
	case dbtype.LocalDateTime:
		return v.Time(), nil
	case dbtype.Date:
		return v.Time(), nil
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, fmt.Errorf("%s: %w", key, err)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%s: unsupported time type %T", key, p[key])
}

// decodeProp decodes a JSON string property, or re-encodes a native value,
// into out.
func decodeProp(raw any, out any) error {
	var data []byte
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		data = []byte(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		data = b
	}
	return json.Unmarshal(data, out)
}
