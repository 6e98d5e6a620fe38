package graphql

import (
	"context"
	"testing"

	"github.com/fundaciones-espana/catalog-backend/database/memory"
	"github.com/fundaciones-espana/catalog-backend/document"
	"github.com/fundaciones-espana/catalog-backend/internal/services"
	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSchema(t *testing.T) graphql.Schema {
	t.Helper()
	store := memory.New()
	var docs []document.Doc
	for _, raw := range []string{
		`{"_id": 1, "nombre": "Fundación Alba", "estado": "Activa", "fechaConstitucion": "02/02/1995",
		  "direccionEstatutaria": {"provincia": "Sevilla", "codigoPostal": 41001},
		  "actividades": [{"clasificacion1": "Cultura"}], "patronos": [{"nombre": "P", "cargo": "Presidente"}]}`,
		`{"_id": 2, "nombre": "Fundación Brisa", "estado": "Activa", "direccionEstatutaria": {"provincia": "Sevilla"}}`,
		`{"_id": 3, "nombre": "Fundación Cumbre", "estado": "Extinguida"}`,
	} {
		d, err := document.Parse([]byte(raw))
		require.NoError(t, err)
		docs = append(docs, d)
	}
	_, err := store.InsertMany(context.Background(), docs)
	require.NoError(t, err)

	logger := zap.NewNop()
	schema, err := CreateSchema(
		services.NewCatalogService(store, logger, false),
		services.NewStatsService(store, nil, logger),
	)
	require.NoError(t, err)
	return schema
}

func run(t *testing.T, schema graphql.Schema, query string) map[string]interface{} {
	t.Helper()
	result := graphql.Do(graphql.Params{Schema: schema, RequestString: query, Context: context.Background()})
	require.Empty(t, result.Errors)
	data, ok := result.Data.(map[string]interface{})
	require.True(t, ok)
	return data
}

func TestFoundationQuery(t *testing.T) {
	schema := newSchema(t)

	data := run(t, schema, `{ foundation(id: 1) { _id nombre direccionEstatutaria { provincia codigoPostal } patronos { cargo } metadata { fuenteDatos } } }`)
	f := data["foundation"].(map[string]interface{})
	assert.Equal(t, 1, f["_id"])
	assert.Equal(t, "Fundación Alba", f["nombre"])
	assert.Equal(t, map[string]interface{}{"provincia": "Sevilla", "codigoPostal": "41001"}, f["direccionEstatutaria"])
	assert.Equal(t, []interface{}{map[string]interface{}{"cargo": "Presidente"}}, f["patronos"])
	assert.Nil(t, f["metadata"])

	data = run(t, schema, `{ foundation(id: 99) { nombre } }`)
	assert.Nil(t, data["foundation"])
}

func TestFoundationsQuery(t *testing.T) {
	schema := newSchema(t)

	data := run(t, schema, `{ foundations(provincia: "Sevilla", limit: 1, sortOrder: "desc") { total totalPages page data { nombre } } }`)
	page := data["foundations"].(map[string]interface{})
	assert.Equal(t, 2, page["total"])
	assert.Equal(t, 2, page["totalPages"])
	assert.Equal(t, 1, page["page"])
	assert.Equal(t, []interface{}{map[string]interface{}{"nombre": "Fundación Brisa"}}, page["data"])
}

func TestStatsQuery(t *testing.T) {
	schema := newSchema(t)

	data := run(t, schema, `{ stats { total byEstado { _id count } yearlyTrends { year count } patronosStats { maxPatronos } } filters { provincias { _id count } } }`)
	st := data["stats"].(map[string]interface{})
	assert.Equal(t, 3, st["total"])
	assert.Equal(t, []interface{}{
		map[string]interface{}{"_id": "Activa", "count": 2},
		map[string]interface{}{"_id": "Extinguida", "count": 1},
	}, st["byEstado"])
	assert.Equal(t, []interface{}{map[string]interface{}{"year": 1995, "count": 1}}, st["yearlyTrends"])
	assert.Equal(t, map[string]interface{}{"maxPatronos": 1}, st["patronosStats"])

	filters := data["filters"].(map[string]interface{})
	assert.Equal(t, []interface{}{map[string]interface{}{"_id": "Sevilla", "count": 2}}, filters["provincias"])
}
