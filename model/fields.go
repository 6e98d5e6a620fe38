// Package model - field names and wire types for the foundation catalog
package model

// Stored field names and dot paths used by filters, sorts, groups and indexes.
const (
	FieldID                = "_id"
	FieldNombre            = "nombre"
	FieldNIF               = "nif"
	FieldEstado            = "estado"
	FieldFines             = "fines"
	FieldFechaConstitucion = "fechaConstitucion"
	FieldProvincia         = "direccionEstatutaria.provincia"
	FieldEmail             = "direccionEstatutaria.email"
	FieldWeb               = "direccionEstatutaria.web"
	FieldTelefono          = "direccionEstatutaria.telefono"
	FieldActividades       = "actividades"
	FieldClasificacion1    = "actividades.clasificacion1"
	FieldFuncion1          = "actividades.funcion1"
	FieldPatronos          = "patronos"
	FieldFundadores        = "fundadores"
)

// ArrayFields are the top level fields that hold lists of objects. A path that
// crosses one of them matches when any element matches.
var ArrayFields = map[string]bool{
	"actividades": true,
	"fundadores":  true,
	"patronos":    true,
	"directivos":  true,
	"organos":     true,
}

// ActiveStatus is the status value counted as active, compared case-folded.
const ActiveStatus = "activa"

// Persisted layout names.
const (
	DatabaseName   = "fundaciones_espana"
	CollectionName = "fundaciones"
)
