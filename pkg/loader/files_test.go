package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flavorlab/nutrigraph/pkg/types"
)

func TestFormatFor(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"seed/entities.json", FormatJSON, false},
		{"seed/entities.YAML", FormatYAML, false},
		{"seed/entities.yml", FormatYAML, false},
		{"seed/entities.csv", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFor(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeEntitiesJSONArrayAndObject(t *testing.T) {
	array := []byte(`[{"id":"garlic","name":"Garlic","primary_classification":"ingredient"}]`)
	list, err := DecodeEntities(array, FormatJSON, false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, types.ClassIngredient, list[0].PrimaryClassification)

	object := []byte(`{"entities":[{"id":"a","name":"A"},{"id":"b","name":"B"}],"version":2}`)
	list, err = DecodeEntities(object, FormatJSON, false)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = DecodeEntities([]byte(`{"relationships":[]}`), FormatJSON, false)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDecodeLenientJSON(t *testing.T) {
	broken := []byte(`[{"id":"garlic","name":"Garlic",},]`)

	_, err := DecodeEntities(broken, FormatJSON, false)
	assert.Error(t, err)

	list, err := DecodeEntities(broken, FormatJSON, true)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "garlic", list[0].ID)
}

func TestDecodeRelationshipsYAML(t *testing.T) {
	doc := []byte(`
relationships:
  - id: r1
    source_id: garlic
    target_id: allicin
    relationship_type: contains
    quantity: 4.5
    unit: mg/g
    confidence_score: 4
    context:
      preparation: crushed
`)
	list, err := DecodeRelationships(doc, FormatYAML, false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	r := list[0]
	assert.Equal(t, "contains", r.Type)
	assert.Equal(t, 4, r.Score())
	require.NotNil(t, r.Quantity)
	assert.InDelta(t, 4.5, *r.Quantity, 1e-9)
	assert.Equal(t, "crushed", r.Context["preparation"].Text())
}

func TestFileSourceFetch(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
		return p
	}
	e1 := write("a.json", `[{"id":"garlic","name":"Garlic"}]`)
	e2 := write("b.yaml", "- id: allicin\n  name: Allicin\n")
	r1 := write("rels.json", `[{"id":"r1","source_id":"garlic","target_id":"allicin","relationship_type":"contains"}]`)

	src := &FileSource{EntityFiles: []string{e1, e2}, RelationshipFiles: []string{r1}}
	b, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, b.Entities, 2)
	assert.Equal(t, "garlic", b.Entities[0].ID)
	assert.Equal(t, "allicin", b.Entities[1].ID)
	assert.Len(t, b.Relationships, 1)
}

func TestFileSourceMissingFile(t *testing.T) {
	src := &FileSource{EntityFiles: []string{filepath.Join(t.TempDir(), "missing.json")}}
	_, err := src.Fetch(context.Background())
	assert.Error(t, err)
}
