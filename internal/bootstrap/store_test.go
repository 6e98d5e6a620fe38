package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/fundaciones-espana/catalog-backend/database/memory"
	"github.com/fundaciones-espana/catalog-backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestArangoConfig(t *testing.T) {
	a := config.Default().Arango
	a.Password = "pw"
	got := ArangoConfig(a)
	assert.Equal(t, "http://localhost:8529", got.URL)
	assert.Equal(t, "root", got.User)
	assert.Equal(t, "pw", got.Password)
	assert.Equal(t, "fundaciones_espana", got.Database)
	assert.Equal(t, "fundaciones", got.Collection)
	assert.Equal(t, 2*time.Minute, got.ConnectTimeout)
}

func TestOpenMemoryStore(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Driver = DriverMemory
	store, err := OpenStore(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, store)
}

func TestOpenUnknownStore(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Driver = "mongo"
	_, err := OpenStore(context.Background(), cfg, zap.NewNop())
	assert.ErrorContains(t, err, "unknown store driver")
}
