package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 50, cfg.Engine.DefaultPageSize)
	assert.Equal(t, 1000, cfg.Engine.MaxPageSize)
	assert.Equal(t, 4, cfg.Engine.DefaultMaxDepth)
	assert.False(t, cfg.Loader.Neo4j.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestEnvironmentOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("NEO4J_URI", "bolt://graph:7687")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("NUTRIGRAPH_ENTITY_FILES", "a.json, b.yaml,")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Loader.Neo4j.Enabled)
	assert.Equal(t, "bolt://graph:7687", cfg.Loader.Neo4j.URI)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"a.json", "b.yaml"}, cfg.Loader.EntityFiles)
	assert.True(t, cfg.Cache.Enabled)
}

func TestValidate(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	cfg, err := Load()
	require.NoError(t, err)

	bad := *cfg
	bad.Engine.DefaultPageSize = 5000
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Engine.DefaultMaxDepth = 0
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Snapshot.Enabled = true
	bad.Snapshot.Path = ""
	assert.Error(t, bad.Validate())
}
