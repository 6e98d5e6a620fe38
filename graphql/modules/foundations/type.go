// Package foundations defines the GraphQL types and queries for browsing the catalog.
package foundations

import (
	"github.com/graphql-go/graphql"
)

// DireccionType is a postal address block.
var DireccionType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Direccion",
	Fields: graphql.Fields{
		"domicilio":    &graphql.Field{Type: graphql.String},
		"localidad":    &graphql.Field{Type: graphql.String},
		"provincia":    &graphql.Field{Type: graphql.String},
		"codigoPostal": &graphql.Field{Type: graphql.String},
		"telefono":     &graphql.Field{Type: graphql.String},
		"fax":          &graphql.Field{Type: graphql.String},
		"email":        &graphql.Field{Type: graphql.String},
		"web":          &graphql.Field{Type: graphql.String},
	},
})

// ActividadType is one declared activity.
var ActividadType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Actividad",
	Fields: graphql.Fields{
		"nombre":         &graphql.Field{Type: graphql.String},
		"clasificacion1": &graphql.Field{Type: graphql.String},
		"clasificacion2": &graphql.Field{Type: graphql.String},
		"clasificacion3": &graphql.Field{Type: graphql.String},
		"clasificacion4": &graphql.Field{Type: graphql.String},
		"funcion1":       &graphql.Field{Type: graphql.String},
		"funcion2":       &graphql.Field{Type: graphql.String},
	},
})

// PersonaType is a founder, trustee or director.
var PersonaType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Persona",
	Fields: graphql.Fields{
		"nombre": &graphql.Field{Type: graphql.String},
		"cargo":  &graphql.Field{Type: graphql.String},
	},
})

// OrganoType is a governing body.
var OrganoType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Organo",
	Fields: graphql.Fields{
		"nombre": &graphql.Field{Type: graphql.String},
	},
})

// MetadataType records the data source of an entry.
var MetadataType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Metadata",
	Fields: graphql.Fields{
		"fechaActualizacion": &graphql.Field{Type: graphql.String},
		"fuenteDatos":        &graphql.Field{Type: graphql.String},
	},
})

// FoundationType is a catalog entry.
var FoundationType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Foundation",
	Fields: graphql.Fields{
		"_id":                   &graphql.Field{Type: graphql.Int},
		"nombre":                &graphql.Field{Type: graphql.String},
		"numRegistro":           &graphql.Field{Type: graphql.String},
		"nif":                   &graphql.Field{Type: graphql.String},
		"estado":                &graphql.Field{Type: graphql.String},
		"fechaConstitucion":     &graphql.Field{Type: graphql.String},
		"fechaInscripcion":      &graphql.Field{Type: graphql.String},
		"fechaExtincion":        &graphql.Field{Type: graphql.String},
		"fines":                 &graphql.Field{Type: graphql.String},
		"direccionEstatutaria":  &graphql.Field{Type: DireccionType},
		"direccionNotificacion": &graphql.Field{Type: DireccionType},
		"actividades":           &graphql.Field{Type: graphql.NewList(ActividadType)},
		"fundadores":            &graphql.Field{Type: graphql.NewList(PersonaType)},
		"patronos":              &graphql.Field{Type: graphql.NewList(PersonaType)},
		"directivos":            &graphql.Field{Type: graphql.NewList(PersonaType)},
		"organos":               &graphql.Field{Type: graphql.NewList(OrganoType)},
		"metadata":              &graphql.Field{Type: MetadataType},
	},
})

// FoundationPageType is one page of a listing.
var FoundationPageType = graphql.NewObject(graphql.ObjectConfig{
	Name: "FoundationPage",
	Fields: graphql.Fields{
		"data":       &graphql.Field{Type: graphql.NewList(FoundationType)},
		"total":      &graphql.Field{Type: graphql.Int},
		"page":       &graphql.Field{Type: graphql.Int},
		"limit":      &graphql.Field{Type: graphql.Int},
		"totalPages": &graphql.Field{Type: graphql.Int},
	},
})
