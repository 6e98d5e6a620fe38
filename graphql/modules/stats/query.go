package stats

import (
	"github.com/fundaciones-espana/catalog-backend/internal/services"
	"github.com/graphql-go/graphql"
)

// GetQueryFields returns the statistics queries to be mounted in the root schema.
func GetQueryFields(svc *services.StatsService) graphql.Fields {
	return graphql.Fields{
		"stats": &graphql.Field{
			Type: StatsType,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return svc.Stats(p.Context)
			},
		},
		"filters": &graphql.Field{
			Type: FilterOptionsType,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return svc.FilterOptions(p.Context)
			},
		},
	}
}
