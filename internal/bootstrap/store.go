// Package bootstrap builds the process-wide dependencies shared by the server
// and the offline tool.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/fundaciones-espana/catalog-backend/database"
	"github.com/fundaciones-espana/catalog-backend/database/memory"
	"github.com/fundaciones-espana/catalog-backend/internal/config"
	"go.uber.org/zap"
)

// Store drivers.
const (
	DriverArangoDB = "arangodb"
	DriverMemory   = "memory"
)

// ArangoConfig converts the loaded settings to connector settings.
func ArangoConfig(a config.Arango) database.Config {
	return database.Config{
		URL:             a.Endpoint(),
		User:            a.User,
		Password:        a.Password,
		Database:        a.Database,
		Collection:      a.Collection,
		InitialInterval: time.Second,
		MaxInterval:     30 * time.Second,
		ConnectTimeout:  a.ConnectTimeout,
	}
}

// OpenStore returns the configured store. For ArangoDB it waits, with
// backoff, until the server answers or the connect timeout passes.
func OpenStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (database.Store, error) {
	switch cfg.Store.Driver {
	case DriverMemory:
		logger.Warn("Using the in-memory store; data is lost on exit")
		return memory.New(), nil
	case DriverArangoDB, "":
		conn := database.NewConnector(ArangoConfig(cfg.Arango), logger)
		if err := conn.ConnectWithRetry(ctx); err != nil {
			return nil, fmt.Errorf("failed to connect to ArangoDB: %w", err)
		}
		return database.NewArangoStore(conn, logger), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}
