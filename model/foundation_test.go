package model

import (
	"testing"

	"github.com/fundaciones-espana/catalog-backend/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFoundationFromDocIsLenient(t *testing.T) {
	d, err := document.Parse([]byte(`{
		"_id": 12,
		"nombre": "Fundación Prueba",
		"estado": "Activa",
		"direccionEstatutaria": {"provincia": "Madrid", "codigoPostal": 28001, "email": null},
		"direccionNotificacion": "n/a",
		"actividades": [{"clasificacion1": "Cultura", "funcion1": "Becas"}, "basura"],
		"patronos": [{"nombre": "Ana", "cargo": "Presidenta"}],
		"fundadores": null,
		"metadata": {"fuenteDatos": "registro"}
	}`))
	require.NoError(t, err)

	f := FoundationFromDoc(d)
	assert.Equal(t, int64(12), f.ID)
	assert.Equal(t, "Fundación Prueba", f.Nombre)
	assert.Equal(t, "28001", f.DireccionEstatutaria.CodigoPostal)
	assert.Equal(t, "", f.DireccionEstatutaria.Email)
	assert.Equal(t, Direccion{}, f.DireccionNotificacion)
	require.Len(t, f.Actividades, 1)
	assert.Equal(t, "Becas", f.Actividades[0].Funcion1)
	assert.Equal(t, []Persona{{Nombre: "Ana", Cargo: "Presidenta"}}, f.Patronos)
	assert.Empty(t, f.Fundadores)
	require.NotNil(t, f.Metadata)
	assert.Equal(t, "registro", f.Metadata.FuenteDatos)
}
