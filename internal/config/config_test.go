package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) lookupFunc {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://localhost:8529", cfg.Arango.Endpoint())
	assert.Equal(t, "fundaciones_espana", cfg.Arango.Database)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Empty(t, cfg.Restore.APIKey)
}

func TestFileThenEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9000"
store:
  driver: memory
cache:
  ttl: 30s
kafka:
  brokers: ["k1:9092"]
catalog:
  chronologicalDateSort: true
`), 0o600))

	cfg := Default()
	require.NoError(t, cfg.loadFile(path))
	require.NoError(t, cfg.applyEnv(env(map[string]string{
		"MS_PORT":          "9100",
		"ARANGO_URL":       "http://arango:8529",
		"RESTORE_API_KEY":  "s3cret",
		"KAFKA_BROKERS":    "a:9092, b:9092,",
		"KAFKA_API_KEY":    "key",
		"KAFKA_API_SECRET": "secret",
	})))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.True(t, cfg.Catalog.ChronologicalDateSort)
	assert.Equal(t, "http://arango:8529", cfg.Arango.Endpoint())
	assert.Equal(t, "s3cret", cfg.Restore.APIKey)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "key", cfg.Kafka.Username)
	assert.Equal(t, "secret", cfg.Kafka.Password)
	assert.Equal(t, 50, cfg.Server.BodyLimitMB)
}

func TestInvalidValues(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.applyEnv(env(map[string]string{"CACHE_TTL": "soon"})))

	cfg = Default()
	require.NoError(t, cfg.applyEnv(env(map[string]string{"STORE_DRIVER": "mongodb"})))
	assert.Error(t, cfg.Validate())

	cfg = Default()
	require.NoError(t, cfg.applyEnv(env(map[string]string{"LOG_LEVEL": "verbose"})))
	assert.Error(t, cfg.Validate())
}
