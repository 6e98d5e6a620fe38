package restapi

import (
	"github.com/fundaciones-espana/catalog-backend/internal/services"
	"github.com/fundaciones-espana/catalog-backend/restapi/modules/auth"
	"github.com/fundaciones-espana/catalog-backend/restapi/modules/fundaciones"
	"github.com/fundaciones-espana/catalog-backend/restapi/modules/restore"
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
	"go.uber.org/zap"
)

// Services are the handlers' dependencies.
type Services struct {
	Catalog *services.CatalogService
	Stats   *services.StatsService
	Restore *services.RestoreService

	// RestoreAPIKey guards POST and PUT /restore.
	RestoreAPIKey string
	Logger        *zap.Logger
}

// SetupRoutes mounts the catalog routes at the root and again under /api, and
// the GraphQL endpoint at /graphql.
func SetupRoutes(app *fiber.App, svc Services, schema graphql.Schema) {
	register(app, svc)
	register(app.Group("/api"), svc)

	app.Post("/graphql", GraphQLHandler(schema))

	svc.Logger.Info("API routes initialized successfully")
}

func register(r fiber.Router, svc Services) {
	f := r.Group("/fundaciones")
	f.Get("/", fundaciones.ListFundaciones(svc.Catalog))
	f.Post("/", fundaciones.GetFundacion(svc.Catalog))
	f.Get("/filters", fundaciones.GetFilters(svc.Stats))
	f.Get("/stats", fundaciones.GetStats(svc.Stats))
	f.Post("/export", fundaciones.ExportFundaciones(svc.Catalog, svc.Logger))

	guard := auth.RequireAPIKey(svc.RestoreAPIKey)
	r.Post("/restore", guard, restore.PostRestore(svc.Restore, svc.Logger))
	r.Put("/restore", guard, restore.PutRestoreBatch(svc.Restore, svc.Logger))
}
