package foundations

import (
	"github.com/fundaciones-espana/catalog-backend/internal/services"
	"github.com/graphql-go/graphql"
)

// GetQueryFields returns the catalog queries to be mounted in the root schema.
func GetQueryFields(svc *services.CatalogService) graphql.Fields {
	return graphql.Fields{
		"foundation": &graphql.Field{
			Type: FoundationType,
			Args: graphql.FieldConfigArgument{
				"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return ResolveFoundation(p.Context, svc, int64(p.Args["id"].(int)))
			},
		},
		"foundations": &graphql.Field{
			Type: FoundationPageType,
			Args: graphql.FieldConfigArgument{
				"search":    &graphql.ArgumentConfig{Type: graphql.String},
				"provincia": &graphql.ArgumentConfig{Type: graphql.String},
				"estado":    &graphql.ArgumentConfig{Type: graphql.String},
				"actividad": &graphql.ArgumentConfig{Type: graphql.String},
				"funcion":   &graphql.ArgumentConfig{Type: graphql.String},
				"page":      &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: services.DefaultPage},
				"limit":     &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: services.DefaultLimit},
				"sortBy":    &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: services.SortByName},
				"sortOrder": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: services.SortAsc},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return ResolveFoundations(p.Context, svc, p.Args)
			},
		},
	}
}
