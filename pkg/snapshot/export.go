package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/flavorlab/nutrigraph/pkg/store"
	"github.com/flavorlab/nutrigraph/pkg/types"
)

// ParquetEntity is the Parquet schema for an exported entity.
type ParquetEntity struct {
	ID                    string     `parquet:"id"`
	Name                  string     `parquet:"name"`
	DisplayName           string     `parquet:"display_name"`
	PrimaryClassification string     `parquet:"primary_classification"`
	Classifications       []string   `parquet:"classifications,list"`
	HealthOutcomes        []string   `parquet:"health_outcomes,list"`
	Attributes            string     `parquet:"attributes"` // JSON string
	CreatedAt             *time.Time `parquet:"created_at"`
	UpdatedAt             *time.Time `parquet:"updated_at"`
}

// ParquetRelationship is the Parquet schema for an exported relationship.
type ParquetRelationship struct {
	ID               string     `parquet:"id"`
	SourceID         string     `parquet:"source_id"`
	TargetID         string     `parquet:"target_id"`
	RelationshipType string     `parquet:"relationship_type"`
	Quantity         *float64   `parquet:"quantity"`
	Unit             string     `parquet:"unit"`
	ConfidenceScore  *int32     `parquet:"confidence_score"`
	Context          string     `parquet:"context"` // JSON string
	CreatedAt        *time.Time `parquet:"created_at"`
	UpdatedAt        *time.Time `parquet:"updated_at"`
}

// ExportResult lists the files written by Export.
type ExportResult struct {
	EntityFile       string `json:"entity_file"`
	RelationshipFile string `json:"relationship_file"`
	Entities         int    `json:"entities"`
	Relationships    int    `json:"relationships"`
}

// Export writes the store contents to entities.parquet and
// relationships.parquet under dir.
func Export(st *store.Store, dir string) (*ExportResult, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	var (
		entities      []types.Entity
		relationships []types.Relationship
	)
	_ = st.Read(func(v *store.View) error {
		entities = v.Entities()
		relationships = v.Relationships()
		return nil
	})

	res := &ExportResult{
		EntityFile:       filepath.Join(dir, "entities.parquet"),
		RelationshipFile: filepath.Join(dir, "relationships.parquet"),
		Entities:         len(entities),
		Relationships:    len(relationships),
	}

	pe := make([]ParquetEntity, 0, len(entities))
	for _, e := range entities {
		row, err := entityRow(e)
		if err != nil {
			return nil, err
		}
		pe = append(pe, row)
	}
	if err := parquet.WriteFile(res.EntityFile, pe); err != nil {
		return nil, fmt.Errorf("write entities: %w", err)
	}

	pr := make([]ParquetRelationship, 0, len(relationships))
	for _, r := range relationships {
		row, err := relationshipRow(r)
		if err != nil {
			return nil, err
		}
		pr = append(pr, row)
	}
	if err := parquet.WriteFile(res.RelationshipFile, pr); err != nil {
		return nil, fmt.Errorf("write relationships: %w", err)
	}
	return res, nil
}

func entityRow(e types.Entity) (ParquetEntity, error) {
	attrs, err := json.Marshal(e.Attributes)
	if err != nil {
		return ParquetEntity{}, fmt.Errorf("failed to marshal attributes of %s: %w", e.ID, err)
	}
	row := ParquetEntity{
		ID:                    e.ID,
		Name:                  e.Name,
		DisplayName:           e.DisplayName,
		PrimaryClassification: string(e.PrimaryClassification),
		HealthOutcomes:        e.OutcomeTags(),
		Attributes:            string(attrs),
	}
	for _, c := range e.Classifications {
		row.Classifications = append(row.Classifications, string(c))
	}
	if !e.CreatedAt.IsZero() {
		row.CreatedAt = &e.CreatedAt
	}
	if !e.UpdatedAt.IsZero() {
		row.UpdatedAt = &e.UpdatedAt
	}
	return row, nil
}

func relationshipRow(r types.Relationship) (ParquetRelationship, error) {
	ctxJSON, err := json.Marshal(r.Context)
	if err != nil {
		return ParquetRelationship{}, fmt.Errorf("failed to marshal context of %s: %w", r.ID, err)
	}
	row := ParquetRelationship{
		ID:               r.ID,
		SourceID:         r.SourceID,
		TargetID:         r.TargetID,
		RelationshipType: r.Type,
		Quantity:         r.Quantity,
		Unit:             r.Unit,
		Context:          string(ctxJSON),
	}
	if r.Confidence != nil {
		c := int32(*r.Confidence)
		row.ConfidenceScore = &c
	}
	if !r.CreatedAt.IsZero() {
		row.CreatedAt = &r.CreatedAt
	}
	if !r.UpdatedAt.IsZero() {
		row.UpdatedAt = &r.UpdatedAt
	}
	return row, nil
}
