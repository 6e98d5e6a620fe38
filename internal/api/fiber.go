// Package api builds the Fiber application serving the catalog.
package api

import (
	"fmt"
	"time"

	gqlschema "github.com/fundaciones-espana/catalog-backend/graphql"
	"github.com/fundaciones-espana/catalog-backend/internal/config"
	"github.com/fundaciones-espana/catalog-backend/internal/metrics"
	"github.com/fundaciones-espana/catalog-backend/restapi"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
)

// NewFiberApp creates and configures a Fiber app with REST and GraphQL routes.
func NewFiberApp(srv config.Server, svc restapi.Services) (*fiber.App, error) {
	schema, err := gqlschema.CreateSchema(svc.Catalog, svc.Stats)
	if err != nil {
		return nil, fmt.Errorf("failed to create GraphQL schema: %w", err)
	}

	app := fiber.New(fiber.Config{
		AppName:     "fundaciones-catalog API v1.0",
		BodyLimit:   srv.BodyLimitMB * 1024 * 1024,
		ReadTimeout: 60 * time.Second, // restores upload large bodies
	})

	// Middleware
	app.Use(fiberrecover.New())
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, X-Api-Key",
		AllowMethods: "GET, POST, PUT, OPTIONS",
	}))
	app.Use(metrics.Middleware())

	app.Use(func(c *fiber.Ctx) error {
		c.Locals("graphql_op", "-")
		return c.Next()
	})
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} - ${latency} ${method} ${path} ${locals:graphql_op}\n",
	}))

	// Health check endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})
	app.Get("/metrics", metrics.Handler())

	restapi.SetupRoutes(app, svc, schema)

	return app, nil
}
