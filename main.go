// Package main is the entry point of the foundations catalog service. It
// serves the REST API, the GraphQL dashboard and the restore endpoints.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fundaciones-espana/catalog-backend/events/modules/restore"
	"github.com/fundaciones-espana/catalog-backend/internal/api"
	"github.com/fundaciones-espana/catalog-backend/internal/bootstrap"
	"github.com/fundaciones-espana/catalog-backend/internal/config"
	"github.com/fundaciones-espana/catalog-backend/internal/services"
	"github.com/fundaciones-espana/catalog-backend/restapi"
	"github.com/fundaciones-espana/catalog-backend/util"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		util.InitLogger("info").Fatal("Failed to load configuration", zap.Error(err))
	}

	logger := util.InitLogger(cfg.Log.Level)
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := bootstrap.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open record store", zap.Error(err))
	}

	var statsCache *cache.Cache
	if cfg.Cache.TTL > 0 {
		statsCache = cache.New(cfg.Cache.TTL, 2*cfg.Cache.TTL)
	}
	stats := services.NewStatsService(store, statsCache, logger)
	catalog := services.NewCatalogService(store, logger, cfg.Catalog.ChronologicalDateSort)

	var notifier services.Notifier
	if len(cfg.Kafka.Brokers) > 0 {
		producer := restore.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic,
			restore.Credentials{Username: cfg.Kafka.Username, Password: cfg.Kafka.Password},
			cfg.Arango.Database, cfg.Arango.Collection)
		defer producer.Close()
		notifier = producer
		logger.Info("Publishing restore events", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	if cfg.Restore.APIKey == "" {
		logger.Warn("RESTORE_API_KEY is not set; restore endpoints will reject every request")
	}

	app, err := api.NewFiberApp(cfg.Server, restapi.Services{
		Catalog:       catalog,
		Stats:         stats,
		Restore:       services.NewRestoreService(store, notifier, stats, logger),
		RestoreAPIKey: cfg.Restore.APIKey,
		Logger:        logger,
	})
	if err != nil {
		logger.Fatal("Failed to build API", zap.Error(err))
	}

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error("Shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("Starting server", zap.String("port", cfg.Server.Port))
	logger.Info("GraphQL endpoint available at /graphql")
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}
