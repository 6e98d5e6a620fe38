// Package graphql assembles the read-only GraphQL schema of the catalog.
package graphql

import (
	"github.com/fundaciones-espana/catalog-backend/graphql/modules/foundations"
	"github.com/fundaciones-espana/catalog-backend/graphql/modules/stats"
	"github.com/fundaciones-espana/catalog-backend/internal/services"
	"github.com/graphql-go/graphql"
)

// CreateSchema builds the root query from the module query fields.
func CreateSchema(catalog *services.CatalogService, statsSvc *services.StatsService) (graphql.Schema, error) {
	fields := graphql.Fields{}
	for _, module := range []graphql.Fields{
		foundations.GetQueryFields(catalog),
		stats.GetQueryFields(statsSvc),
	} {
		for name, f := range module {
			fields[name] = f
		}
	}

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{
			Name:   "Query",
			Fields: fields,
		}),
	})
}
