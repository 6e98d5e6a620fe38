// Package database - Handles all interaction with the record store
package database

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"
	"github.com/arangodb/go-driver/v2/connection"
	"github.com/cenkalti/backoff"
	"go.uber.org/zap"
)

// DBConnection is the structure that holds the database and catalog collection
type DBConnection struct {
	Database       arangodb.Database
	Collection     arangodb.Collection
	CollectionName string
}

// Config locates the ArangoDB server and the catalog collection
type Config struct {
	URL        string
	User       string
	Password   string
	Database   string
	Collection string

	// Startup retry, see ConnectWithRetry
	InitialInterval time.Duration
	MaxInterval     time.Duration
	ConnectTimeout  time.Duration
}

// Connector owns the single ArangoDB connection of the process. The first
// successful Connection call opens it; later calls share it.
type Connector struct {
	cfg    Config
	logger *zap.Logger

	mu   sync.Mutex
	conn *DBConnection
}

// NewConnector returns a connector that has not connected yet.
func NewConnector(cfg Config, logger *zap.Logger) *Connector {
	if cfg.Database == "" {
		cfg.Database = "fundaciones_espana"
	}
	if cfg.Collection == "" {
		cfg.Collection = "fundaciones"
	}
	return &Connector{cfg: cfg, logger: logger}
}

func dbConnectionConfig(endpoint connection.Endpoint, dbuser string, dbpass string) connection.HttpConfiguration {
	return connection.HttpConfiguration{
		Authentication: connection.NewBasicAuth(dbuser, dbpass),
		Endpoint:       endpoint,
		ContentType:    connection.ApplicationJSON,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true, // #nosec G402
			},
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 90 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// Connection returns the shared connection, opening it on first use. Failures
// are not cached, so a later call tries again.
func (c *Connector) Connection(ctx context.Context) (DBConnection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return *c.conn, nil
	}

	conn, err := c.open(ctx)
	if err != nil {
		return DBConnection{}, err
	}
	c.conn = conn
	return *conn, nil
}

// ConnectWithRetry opens the connection with exponential backoff. It is meant
// for startup only; request paths call Connection and never retry.
func (c *Connector) ConnectWithRetry(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	if c.cfg.InitialInterval > 0 {
		bo.InitialInterval = c.cfg.InitialInterval
	}
	if c.cfg.MaxInterval > 0 {
		bo.MaxInterval = c.cfg.MaxInterval
	}
	bo.MaxElapsedTime = c.cfg.ConnectTimeout

	return backoff.RetryNotify(func() error {
		c.logger.Info("Attempting to connect to ArangoDB", zap.String("url", c.cfg.URL))
		_, err := c.Connection(ctx)
		return err
	}, backoff.WithContext(bo, ctx), func(err error, wait time.Duration) {
		c.logger.Warn("Retrying connection to ArangoDB", zap.Error(err), zap.Duration("wait", wait))
	})
}

func (c *Connector) open(ctx context.Context) (*DBConnection, error) {
	if c.cfg.URL == "" {
		return nil, errors.New("arangodb url is not configured")
	}

	endpoint := connection.NewRoundRobinEndpoints([]string{c.cfg.URL})
	conn := connection.NewHttpConnection(dbConnectionConfig(endpoint, c.cfg.User, c.cfg.Password))
	client := arangodb.NewClient(conn)

	// Ask the version of the server
	versionInfo, err := client.Version(ctx)
	if err != nil {
		return nil, err
	}
	c.logger.Sugar().Infof("Database has version '%s' and license '%s'", versionInfo.Version, versionInfo.License)

	//
	// Database creation
	//

	var db arangodb.Database
	exists := false
	dblist, err := client.Databases(ctx)
	if err != nil {
		return nil, err
	}

	for _, dbinfo := range dblist {
		if dbinfo.Name() == c.cfg.Database {
			exists = true
			break
		}
	}

	if exists {
		var options arangodb.GetDatabaseOptions
		if db, err = client.GetDatabase(ctx, c.cfg.Database, &options); err != nil {
			return nil, err
		}
	} else {
		if db, err = client.CreateDatabase(ctx, c.cfg.Database, nil); err != nil {
			return nil, err
		}
		c.logger.Sugar().Infof("Created database %s", c.cfg.Database)
	}

	//
	// Collection creation for document storage
	//

	var col arangodb.Collection
	exists, err = db.CollectionExists(ctx, c.cfg.Collection)
	if err != nil {
		return nil, err
	}
	if exists {
		var options arangodb.GetCollectionOptions
		if col, err = db.GetCollection(ctx, c.cfg.Collection, &options); err != nil {
			return nil, err
		}
	} else {
		if col, err = db.CreateCollectionV2(ctx, c.cfg.Collection, nil); err != nil {
			return nil, err
		}
		c.logger.Sugar().Infof("Created collection %s", c.cfg.Collection)
	}

	return &DBConnection{
		Database:       db,
		Collection:     col,
		CollectionName: c.cfg.Collection,
	}, nil
}
