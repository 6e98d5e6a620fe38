package export

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/fundaciones-espana/catalog-backend/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, raw string) document.Doc {
	t.Helper()
	d, err := document.Parse([]byte(raw))
	require.NoError(t, err)
	return d
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, CSV, f)

	f, err = ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, JSON, f)

	_, err = ParseFormat("xml")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFilename(t *testing.T) {
	now := time.Date(2024, 3, 9, 23, 30, 0, 0, time.FixedZone("CET", 3600))
	assert.Equal(t, "fundaciones_export_2024-03-09.csv", Filename(CSV, now))
	assert.Equal(t, "fundaciones_export_2024-03-09.json", Filename(JSON, now.Add(-time.Hour)))
}

func TestFlatten(t *testing.T) {
	d := parse(t, `{
		"_id": 1,
		"direccionEstatutaria": {"provincia": "Madrid", "geo": {"lat": 40.4}},
		"actividades": [{"clasificacion1": "Cultura"}, null, "suelta", 3],
		"metadata": null,
		"vacio": {}
	}`)

	flat := Flatten(d)
	assert.Equal(t, []string{"_id", "direccionEstatutaria_provincia", "direccionEstatutaria_geo_lat", "actividades", "metadata"}, flat.Keys())

	v, _ := flat.Get("actividades")
	assert.Equal(t, `{"clasificacion1":"Cultura"}; null; suelta; 3`, v)
	v, _ = flat.Get("metadata")
	assert.Equal(t, "", v)
	v, _ = flat.Get("direccionEstatutaria_geo_lat")
	assert.Equal(t, "40.4", v)
}

func TestCSVRoundTrip(t *testing.T) {
	records := []document.Doc{
		parse(t, `{"_id": 1, "nombre": "He said \"hello\", twice", "fines": "línea\nnueva"}`),
		parse(t, `{"_id": 2, "nombre": "Plain", "fines": null}`),
	}

	body, err := Render(CSV, records, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), `"_id","nombre","fines"`+"\n"))
	assert.Contains(t, string(body), `"He said ""hello"", twice"`)

	rows, err := csv.NewReader(strings.NewReader(string(body))).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"_id", "nombre", "fines"},
		{"1", `He said "hello", twice`, "línea\nnueva"},
		{"2", "Plain", ""},
	}, rows)
}

func TestCSVExplicitFields(t *testing.T) {
	records := []document.Doc{
		parse(t, `{"_id": 5, "nombre": "A", "direccionEstatutaria": {"provincia": "Madrid", "web": "a.es"}, "actividades": [{"clasificacion1": "Cultura"}, {"clasificacion1": "Docencia"}]}`),
	}

	body, err := Render(CSV, records, []string{"nombre", "direccionEstatutaria.provincia", "direccionEstatutaria", "actividades.clasificacion1", "missing"})
	require.NoError(t, err)
	assert.Equal(t,
		`"nombre","direccionEstatutaria.provincia","direccionEstatutaria","actividades.clasificacion1","missing"`+"\n"+
			`"A","Madrid","{""provincia"":""Madrid"",""web"":""a.es""}","Cultura; Docencia",""`,
		string(body))
}

func TestCSVHeaderFromFirstRecord(t *testing.T) {
	records := []document.Doc{
		parse(t, `{"_id": 1, "nombre": "A"}`),
		parse(t, `{"_id": 2, "nif": "G1", "nombre": "B"}`),
	}
	body, err := Render(CSV, records, nil)
	require.NoError(t, err)
	assert.Equal(t, `"_id","nombre"`+"\n"+`"1","A"`+"\n"+`"2","B"`, string(body))
}

func TestEmptyResults(t *testing.T) {
	body, err := Render(CSV, nil, []string{"nombre"})
	require.NoError(t, err)
	assert.Empty(t, body)

	body, err = Render(JSON, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(body))
}

func TestJSONKeepsKeyOrder(t *testing.T) {
	records := []document.Doc{parse(t, `{"_id": 1, "zeta": "<b>", "alfa": 2.50}`)}
	body, err := Render(JSON, records, nil)
	require.NoError(t, err)
	assert.Equal(t, `[{"_id":1,"zeta":"<b>","alfa":2.50}]`, string(body))
}
