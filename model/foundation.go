package model

import (
	"encoding/json"

	"github.com/fundaciones-espana/catalog-backend/document"
)

// Direccion is a postal address block.
type Direccion struct {
	Domicilio    string `json:"domicilio,omitempty"`
	Localidad    string `json:"localidad,omitempty"`
	Provincia    string `json:"provincia,omitempty"`
	CodigoPostal string `json:"codigoPostal,omitempty"`
	Telefono     string `json:"telefono,omitempty"`
	Fax          string `json:"fax,omitempty"`
	Email        string `json:"email,omitempty"`
	Web          string `json:"web,omitempty"`
}

// Actividad is one declared activity with its classification.
type Actividad struct {
	Nombre         string `json:"nombre,omitempty"`
	Clasificacion1 string `json:"clasificacion1,omitempty"`
	Clasificacion2 string `json:"clasificacion2,omitempty"`
	Clasificacion3 string `json:"clasificacion3,omitempty"`
	Clasificacion4 string `json:"clasificacion4,omitempty"`
	Funcion1       string `json:"funcion1,omitempty"`
	Funcion2       string `json:"funcion2,omitempty"`
}

// Persona is a founder, trustee or director.
type Persona struct {
	Nombre string `json:"nombre,omitempty"`
	Cargo  string `json:"cargo,omitempty"`
}

// Organo is a governing body.
type Organo struct {
	Nombre string `json:"nombre,omitempty"`
}

// Metadata records where the entry came from.
type Metadata struct {
	FechaActualizacion string `json:"fechaActualizacion,omitempty"`
	FuenteDatos        string `json:"fuenteDatos,omitempty"`
}

// Foundation is the typed view of a catalog entry. Stored documents are not
// schema-checked, so FromDoc is lenient and drops what does not fit.
type Foundation struct {
	ID                    int64       `json:"_id"`
	Nombre                string      `json:"nombre,omitempty"`
	NumRegistro           string      `json:"numRegistro,omitempty"`
	NIF                   string      `json:"nif,omitempty"`
	Estado                string      `json:"estado,omitempty"`
	FechaConstitucion     string      `json:"fechaConstitucion,omitempty"`
	FechaInscripcion      string      `json:"fechaInscripcion,omitempty"`
	FechaExtincion        string      `json:"fechaExtincion,omitempty"`
	Fines                 string      `json:"fines,omitempty"`
	DireccionEstatutaria  Direccion   `json:"direccionEstatutaria"`
	DireccionNotificacion Direccion   `json:"direccionNotificacion"`
	Actividades           []Actividad `json:"actividades"`
	Fundadores            []Persona   `json:"fundadores"`
	Patronos              []Persona   `json:"patronos"`
	Directivos            []Persona   `json:"directivos"`
	Organos               []Organo    `json:"organos"`
	Metadata              *Metadata   `json:"metadata,omitempty"`
}

// FoundationFromDoc converts a stored document, turning every scalar into its
// text form and ignoring values of the wrong shape.
func FoundationFromDoc(d document.Doc) Foundation {
	var f Foundation
	if v, ok := d.Get(FieldID); ok {
		f.ID, _ = document.Int(v)
	}
	f.Nombre = text(d, "nombre")
	f.NumRegistro = text(d, "numRegistro")
	f.NIF = text(d, "nif")
	f.Estado = text(d, "estado")
	f.FechaConstitucion = text(d, "fechaConstitucion")
	f.FechaInscripcion = text(d, "fechaInscripcion")
	f.FechaExtincion = text(d, "fechaExtincion")
	f.Fines = text(d, "fines")
	f.DireccionEstatutaria = direccion(d, "direccionEstatutaria")
	f.DireccionNotificacion = direccion(d, "direccionNotificacion")
	f.Actividades = decodeList[Actividad](d, "actividades")
	f.Fundadores = decodeList[Persona](d, "fundadores")
	f.Patronos = decodeList[Persona](d, "patronos")
	f.Directivos = decodeList[Persona](d, "directivos")
	f.Organos = decodeList[Organo](d, "organos")
	if v, ok := d.Get("metadata"); ok {
		if obj, ok := document.AsDoc(v); ok {
			f.Metadata = &Metadata{
				FechaActualizacion: text(obj, "fechaActualizacion"),
				FuenteDatos:        text(obj, "fuenteDatos"),
			}
		}
	}
	return f
}

func text(d document.Doc, key string) string {
	v, ok := d.Get(key)
	if !ok {
		return ""
	}
	if _, isObj := document.AsDoc(v); isObj {
		return ""
	}
	if _, isArr := v.([]any); isArr {
		return ""
	}
	return document.Text(v)
}

func direccion(d document.Doc, key string) Direccion {
	v, ok := d.Get(key)
	if !ok {
		return Direccion{}
	}
	obj, ok := document.AsDoc(v)
	if !ok {
		return Direccion{}
	}
	return Direccion{
		Domicilio:    text(obj, "domicilio"),
		Localidad:    text(obj, "localidad"),
		Provincia:    text(obj, "provincia"),
		CodigoPostal: text(obj, "codigoPostal"),
		Telefono:     text(obj, "telefono"),
		Fax:          text(obj, "fax"),
		Email:        text(obj, "email"),
		Web:          text(obj, "web"),
	}
}

// decodeList converts each object element through a flat string map so that
// numeric codes and other scalars land in string fields.
func decodeList[T any](d document.Doc, key string) []T {
	out := []T{}
	v, ok := d.Get(key)
	if !ok {
		return out
	}
	items, ok := v.([]any)
	if !ok {
		return out
	}
	for _, item := range items {
		obj, ok := document.AsDoc(item)
		if !ok {
			continue
		}
		flat := map[string]string{}
		for _, f := range obj.Fields() {
			flat[f.Key] = text(obj, f.Key)
		}
		raw, err := json.Marshal(flat)
		if err != nil {
			continue
		}
		var elem T
		if json.Unmarshal(raw, &elem) == nil {
			out = append(out, elem)
		}
	}
	return out
}
