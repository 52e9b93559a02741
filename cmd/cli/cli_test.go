package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flavorlab/nutrigraph/pkg/config"
	"github.com/flavorlab/nutrigraph/pkg/types"
)

const (
	seedEntities = `[
  {"id":"garlic","name":"Garlic","primary_classification":"ingredient",
   "attributes":{"calories":{"value":149,"source":"usda"}}},
  {"id":"allicin","name":"Allicin","primary_classification":"compound"}
]`
	seedRelationships = `relationships:
  - id: r1
    source_id: garlic
    target_id: allicin
    relationship_type: contains
    confidence_score: 5
`
)

func writeSeeds(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	ents := filepath.Join(dir, "entities.json")
	rels := filepath.Join(dir, "relationships.yaml")
	require.NoError(t, os.WriteFile(ents, []byte(seedEntities), 0o644))
	require.NoError(t, os.WriteFile(rels, []byte(seedRelationships), 0o644))
	return ents, rels
}

func testConfig(t *testing.T) *config.Config {
	ents, rels := writeSeeds(t)
	return &config.Config{
		Log:    config.LogConfig{Level: "error"},
		Server: config.ServerConfig{Host: "localhost", Port: 8080},
		Loader: config.LoaderConfig{
			EntityFiles:       []string{ents},
			RelationshipFiles: []string{rels},
			LenientJSON:       true,
		},
	}
}

func TestParseAttributeFilter(t *testing.T) {
	p, err := parseAttributeFilter("nutrition.per_100g.calories:lt:200")
	require.NoError(t, err)
	assert.Equal(t, "nutrition", p.Key)
	assert.Equal(t, []string{"per_100g", "calories"}, p.Path)
	assert.Equal(t, types.OpLt, p.Operator)
	n, ok := p.Value.AsNumber()
	require.True(t, ok)
	assert.Equal(t, 200.0, n)

	p, err = parseAttributeFilter("vegan:exists")
	require.NoError(t, err)
	assert.Nil(t, p.Path)
	assert.Equal(t, types.OpExists, p.Operator)
	assert.True(t, p.Value.IsNull())

	_, err = parseAttributeFilter("calories")
	assert.Error(t, err)
	_, err = parseAttributeFilter("calories:approx:3")
	assert.Error(t, err)
}

func TestParseScalar(t *testing.T) {
	assert.Equal(t, types.KindNumber, parseScalar("2.5").Kind())
	assert.Equal(t, types.KindBool, parseScalar("true").Kind())
	assert.Equal(t, types.KindList, parseScalar("a,b").Kind())
	s, ok := parseScalar("raw").AsString()
	require.True(t, ok)
	assert.Equal(t, "raw", s)
}

func TestBootstrapLoadsSeedFiles(t *testing.T) {
	ctx := context.Background()
	a, err := bootstrapWith(ctx, testConfig(t))
	require.NoError(t, err)
	defer a.close(ctx)

	e, err := a.client.GetEntity(ctx, "garlic")
	require.NoError(t, err)
	assert.Equal(t, "Garlic", e.Name)

	path, err := a.client.FindPath(ctx, "garlic", "allicin", 0, "")
	require.NoError(t, err)
	assert.Equal(t, 1, path.Length)
}

func TestBootstrapRestoresSnapshot(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Snapshot = config.SnapshotConfig{Enabled: true, Path: filepath.Join(t.TempDir(), "snap")}

	first, err := bootstrapWith(ctx, cfg)
	require.NoError(t, err)
	first.close(ctx)

	// Without seed files the second run can only be filled by the snapshot.
	cfg.Loader.EntityFiles = nil
	cfg.Loader.RelationshipFiles = nil
	second, err := bootstrapWith(ctx, cfg)
	require.NoError(t, err)
	defer second.close(ctx)

	s, err := second.client.GetStatistics(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Entities.TotalEntities)
	assert.Equal(t, 1, s.Relationships.TotalRelationships)
}

func TestBootstrapFailsOnMissingSeedFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Loader.EntityFiles = []string{filepath.Join(t.TempDir(), "missing.json")}

	_, err := bootstrapWith(context.Background(), cfg)
	assert.Error(t, err)
}

func TestSearchEntitiesCommand(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	ents, rels := writeSeeds(t)
	viper.Set("loader.entity_files", []string{ents})
	viper.Set("loader.relationship_files", []string{rels})
	viper.Set("log.level", "error")
	viper.Set("telemetry.parquet_path", "")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"search", "entities", "--attr", "calories:lt:200"})
	require.NoError(t, rootCmd.Execute())

	var res types.EntityResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, 1, res.TotalCount)
	require.Len(t, res.Entities, 1)
	assert.Equal(t, "garlic", res.Entities[0].ID)
}
