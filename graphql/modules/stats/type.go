// Package stats defines the GraphQL types and queries for dashboard statistics.
package stats

import (
	"github.com/fundaciones-espana/catalog-backend/document"
	"github.com/fundaciones-espana/catalog-backend/model"
	"github.com/graphql-go/graphql"
)

// BucketType is one group of an aggregation. Keys are rendered as text.
var BucketType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Bucket",
	Fields: graphql.Fields{
		"_id": &graphql.Field{
			Type: graphql.String,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				if b, ok := p.Source.(model.Bucket); ok && b.ID != nil {
					return document.Text(b.ID), nil
				}
				return nil, nil
			},
		},
		"count": &graphql.Field{Type: graphql.Int},
	},
})

// YearCountType is one point of the constitution year trend.
var YearCountType = graphql.NewObject(graphql.ObjectConfig{
	Name: "YearCount",
	Fields: graphql.Fields{
		"year":  &graphql.Field{Type: graphql.Int},
		"count": &graphql.Field{Type: graphql.Int},
	},
})

// PatronosStatsType summarises trustee list sizes.
var PatronosStatsType = graphql.NewObject(graphql.ObjectConfig{
	Name: "PatronosStats",
	Fields: graphql.Fields{
		"totalPatronos": &graphql.Field{Type: graphql.Int},
		"avgPatronos":   &graphql.Field{Type: graphql.Float},
		"maxPatronos":   &graphql.Field{Type: graphql.Int},
		"minPatronos":   &graphql.Field{Type: graphql.Int},
	},
})

// FundadoresStatsType summarises founder list sizes.
var FundadoresStatsType = graphql.NewObject(graphql.ObjectConfig{
	Name: "FundadoresStats",
	Fields: graphql.Fields{
		"totalFundadores": &graphql.Field{Type: graphql.Int},
		"avgFundadores":   &graphql.Field{Type: graphql.Float},
	},
})

// StatsType mirrors the REST statistics payload.
var StatsType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Stats",
	Fields: graphql.Fields{
		"total":                        &graphql.Field{Type: graphql.Int},
		"byEstado":                     &graphql.Field{Type: graphql.NewList(BucketType)},
		"byProvincia":                  &graphql.Field{Type: graphql.NewList(BucketType)},
		"byActividad":                  &graphql.Field{Type: graphql.NewList(BucketType)},
		"byFuncion":                    &graphql.Field{Type: graphql.NewList(BucketType)},
		"yearlyTrends":                 &graphql.Field{Type: graphql.NewList(YearCountType)},
		"patronosStats":                &graphql.Field{Type: PatronosStatsType},
		"fundadoresStats":              &graphql.Field{Type: FundadoresStatsType},
		"activeFundacionesWithContact": &graphql.Field{Type: graphql.Int},
		"activitiesDistribution":       &graphql.Field{Type: graphql.NewList(BucketType)},
		"avgPatronosPerFoundation":     &graphql.Field{Type: graphql.Float},
	},
})

// FilterOptionsType lists the selectable values of each filter.
var FilterOptionsType = graphql.NewObject(graphql.ObjectConfig{
	Name: "FilterOptions",
	Fields: graphql.Fields{
		"provincias":  &graphql.Field{Type: graphql.NewList(BucketType)},
		"estados":     &graphql.Field{Type: graphql.NewList(BucketType)},
		"actividades": &graphql.Field{Type: graphql.NewList(BucketType)},
		"funciones":   &graphql.Field{Type: graphql.NewList(BucketType)},
	},
})
