package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := LoadFrom(viper.New(), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "mongo", cfg.Storage.Driver)
	assert.Equal(t, "firehose_episodes", cfg.Mongo.EpisodesCollection)
	assert.Equal(t, "surprise_facts", cfg.Mongo.FactsCollection)
	assert.Equal(t, int64(10), cfg.Query.DefaultLimit)
	assert.Equal(t, int64(100), cfg.Query.MaxLimit)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  port: 9090
storage:
  driver: memory
  fixturePath: ./fixtures.yaml
query:
  maxLimit: 50
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := LoadFrom(viper.New(), dir)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "./fixtures.yaml", cfg.Storage.FixturePath)
	assert.Equal(t, int64(50), cfg.Query.MaxLimit)
}

func TestEnvOverridesDefaults(t *testing.T) {
	t.Setenv("PODFACTS_MONGO_DATABASE", "staging")
	t.Setenv("PODFACTS_LOGGING_LEVEL", "debug")

	cfg, err := LoadFrom(viper.New(), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Mongo.Database)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	t.Setenv("PODFACTS_STORAGE_DRIVER", "postgres")

	_, err := LoadFrom(viper.New(), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
}

func TestValidateRejectsDefaultAboveMax(t *testing.T) {
	t.Setenv("PODFACTS_QUERY_DEFAULTLIMIT", "500")

	_, err := LoadFrom(viper.New(), t.TempDir())
	require.Error(t, err)
}
