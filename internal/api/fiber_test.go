package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fundaciones-espana/catalog-backend/database/memory"
	"github.com/fundaciones-espana/catalog-backend/document"
	"github.com/fundaciones-espana/catalog-backend/filter"
	"github.com/fundaciones-espana/catalog-backend/internal/config"
	"github.com/fundaciones-espana/catalog-backend/internal/services"
	"github.com/fundaciones-espana/catalog-backend/restapi"
	"github.com/gofiber/fiber/v2"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testKey = "s3cret"

func newTestApp(t *testing.T, apiKey string) (*fiber.App, *memory.Store) {
	t.Helper()
	store := memory.New()
	var docs []document.Doc
	for _, raw := range []string{
		`{"_id": 1, "nombre": "Fundación Alba", "nif": "G1", "estado": "Activa", "direccionEstatutaria": {"provincia": "Sevilla", "email": "a@b.es"},
		  "actividades": [{"clasificacion1": "Cultura", "funcion1": "Becas"}]}`,
		`{"_id": 2, "nombre": "Fundación \"Brisa\"", "nif": "G2", "estado": "Extinguida", "direccionEstatutaria": {"provincia": "Huelva"}}`,
	} {
		d, err := document.Parse([]byte(raw))
		require.NoError(t, err)
		docs = append(docs, d)
	}
	_, err := store.InsertMany(context.Background(), docs)
	require.NoError(t, err)

	logger := zap.NewNop()
	stats := services.NewStatsService(store, cache.New(time.Minute, time.Minute), logger)
	catalog := services.NewCatalogService(store, logger, false)
	catalog.Now = func() time.Time { return time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC) }

	app, err := NewFiberApp(config.Default().Server, restapi.Services{
		Catalog:       catalog,
		Stats:         stats,
		Restore:       services.NewRestoreService(store, nil, stats, logger),
		RestoreAPIKey: apiKey,
		Logger:        logger,
	})
	require.NoError(t, err)
	return app, store
}

func do(t *testing.T, app *fiber.App, method, target, body string, headers ...string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func count(t *testing.T, store *memory.Store) int64 {
	t.Helper()
	n, err := store.Count(context.Background(), filter.MatchAll())
	require.NoError(t, err)
	return n
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t, testKey)
	resp, body := do(t, app, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"healthy"}`, string(body))
}

func TestListingIsMountedTwice(t *testing.T) {
	app, _ := newTestApp(t, testKey)
	for _, prefix := range []string{"", "/api"} {
		resp, body := do(t, app, http.MethodGet, prefix+"/fundaciones?provincia=Sevilla&page=x&limit=0", "")
		require.Equal(t, http.StatusOK, resp.StatusCode, prefix)

		var page struct {
			Data       []map[string]any `json:"data"`
			Total      int              `json:"total"`
			Page       int              `json:"page"`
			Limit      int              `json:"limit"`
			TotalPages int              `json:"totalPages"`
		}
		require.NoError(t, json.Unmarshal(body, &page))
		assert.Equal(t, 1, page.Total)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 20, page.Limit)
		assert.Equal(t, 1, page.TotalPages)
		require.Len(t, page.Data, 1)
		assert.Equal(t, "Fundación Alba", page.Data[0]["nombre"])
	}
}

func TestGetFundacion(t *testing.T) {
	app, _ := newTestApp(t, testKey)

	resp, body := do(t, app, http.MethodPost, "/fundaciones", `{"id": "2"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(string(body), `{"_id":2,"nombre":"Fundación \"Brisa\""`), string(body))

	resp, body = do(t, app, http.MethodPost, "/api/fundaciones", `{"id": 404}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Fundación no encontrada"}`, string(body))

	resp, _ = do(t, app, http.MethodPost, "/fundaciones", `{"id": "abc"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = do(t, app, http.MethodPost, "/fundaciones", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatsAndFilters(t *testing.T) {
	app, _ := newTestApp(t, testKey)

	resp, body := do(t, app, http.MethodGet, "/fundaciones/stats", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var st map[string]any
	require.NoError(t, json.Unmarshal(body, &st))
	assert.EqualValues(t, 2, st["total"])
	assert.EqualValues(t, 1, st["activeFundacionesWithContact"])
	assert.Equal(t, []any{}, st["yearlyTrends"])

	resp, body = do(t, app, http.MethodGet, "/api/fundaciones/filters", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{
		"provincias": [{"_id": "Huelva", "count": 1}, {"_id": "Sevilla", "count": 1}],
		"estados": [{"_id": "Activa", "count": 1}, {"_id": "Extinguida", "count": 1}],
		"actividades": [{"_id": "Cultura", "count": 1}],
		"funciones": [{"_id": "Becas", "count": 1}]
	}`, string(body))
}

func TestExport(t *testing.T) {
	app, _ := newTestApp(t, testKey)

	resp, body := do(t, app, http.MethodPost, "/fundaciones/export", `{"fields": ["nombre", "nif"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get(fiber.HeaderContentType))
	assert.Equal(t, `attachment; filename="fundaciones_export_2024-01-31.csv"`, resp.Header.Get(fiber.HeaderContentDisposition))
	assert.Equal(t, "\"nombre\",\"nif\"\n\"Fundación Alba\",\"G1\"\n\"Fundación \"\"Brisa\"\"\",\"G2\"", string(body))

	resp, body = do(t, app, http.MethodPost, "/fundaciones/export", `{"filters": {"funcion": "bec"}, "fields": ["nombre"], "format": "json"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="fundaciones_export_2024-01-31.json"`, resp.Header.Get(fiber.HeaderContentDisposition))
	assert.JSONEq(t, `[{"_id": 1, "nombre": "Fundación Alba"}]`, string(body))

	resp, _ = do(t, app, http.MethodPost, "/fundaciones/export", `{"format": "xlsx"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRestoreRequiresKey(t *testing.T) {
	app, store := newTestApp(t, testKey)
	body := `{"data": [{"_id": 10}]}`

	resp, raw := do(t, app, http.MethodPost, "/restore", body)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, string(raw))

	resp, _ = do(t, app, http.MethodPut, "/api/restore", `{"batch": [{"_id": 10}], "batchNumber": 1, "totalBatches": 1, "clearFirst": true}`, "x-api-key", "wrong")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = do(t, app, http.MethodPost, "/restore", "not json", "x-api-key", "wrong")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	assert.Equal(t, int64(2), count(t, store))
}

func TestRestoreWithoutConfiguredKeyIsClosed(t *testing.T) {
	app, store := newTestApp(t, "")
	resp, _ := do(t, app, http.MethodPost, "/restore", `{"data": [{"_id": 10}]}`, "x-api-key", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, int64(2), count(t, store))
}

func TestFullRestore(t *testing.T) {
	app, store := newTestApp(t, testKey)

	// warm the stats cache so the restore has something to flush
	_, _ = do(t, app, http.MethodGet, "/fundaciones/stats", "")

	resp, body := do(t, app, http.MethodPost, "/restore", `{"data": [{"_id": 10, "nombre": "X"}, {"_id": 11}, {"_id": 12}]}`, "x-api-key", testKey)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"success": true, "message": "Database restored successfully", "documentsInserted": 3}`, string(body))
	assert.Equal(t, int64(3), count(t, store))

	names, err := store.IndexNames(context.Background())
	require.NoError(t, err)
	assert.Len(t, names, 6)

	_, body = do(t, app, http.MethodGet, "/fundaciones/stats", "")
	assert.Contains(t, string(body), `"total":3`)
}

func TestFullRestoreRejectsBadPayload(t *testing.T) {
	app, store := newTestApp(t, testKey)
	for _, body := range []string{`{"data": []}`, `{"data": [1, 2]}`, `{}`, `[`} {
		resp, _ := do(t, app, http.MethodPost, "/restore", body, "x-api-key", testKey)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
	assert.Equal(t, int64(2), count(t, store))
}

func TestBatchedRestore(t *testing.T) {
	app, store := newTestApp(t, testKey)

	resp, body := do(t, app, http.MethodPut, "/restore",
		`{"batch": [{"_id": 10}, {"_id": 11}], "batchNumber": 1, "totalBatches": 2, "clearFirst": true}`, "x-api-key", testKey)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"success": true, "message": "Batch 1/2 processed", "documentsInserted": 2}`, string(body))
	assert.Equal(t, int64(2), count(t, store))
	names, err := store.IndexNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"primary"}, names)

	resp, body = do(t, app, http.MethodPut, "/api/restore",
		`{"batch": [{"_id": 12}], "batchNumber": 2, "totalBatches": 2}`, "x-api-key", testKey)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"success": true, "message": "Batch 2/2 processed", "documentsInserted": 1}`, string(body))
	assert.Equal(t, int64(3), count(t, store))
	names, err = store.IndexNames(context.Background())
	require.NoError(t, err)
	assert.Len(t, names, 6)

	resp, _ = do(t, app, http.MethodPut, "/restore",
		`{"batch": [{"_id": 13}], "batchNumber": 0, "totalBatches": 2}`, "x-api-key", testKey)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, int64(3), count(t, store))
}

func TestDuplicateRestoreIsServerError(t *testing.T) {
	app, _ := newTestApp(t, testKey)
	resp, body := do(t, app, http.MethodPut, "/restore",
		`{"batch": [{"_id": 1}], "batchNumber": 2, "totalBatches": 3}`, "x-api-key", testKey)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, string(body))
}

func TestGraphQLAndMetrics(t *testing.T) {
	app, _ := newTestApp(t, testKey)

	resp, body := do(t, app, http.MethodPost, "/graphql", `{"query": "{ foundation(id: 1) { nombre } }"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"data": {"foundation": {"nombre": "Fundación Alba"}}}`, string(body))

	resp, body = do(t, app, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "fundaciones_api_requests_total")
}

func TestGraphQLRejectsBadBodies(t *testing.T) {
	app, _ := newTestApp(t, testKey)

	resp, body := do(t, app, http.MethodPost, "/graphql", `{"query": `)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Invalid request body"}`, string(body))

	resp, body = do(t, app, http.MethodPost, "/graphql", `{"query": "  "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Missing query"}`, string(body))
}

func TestListingPastTheLastRepresentablePage(t *testing.T) {
	app, _ := newTestApp(t, testKey)

	resp, body := do(t, app, http.MethodGet, "/fundaciones?page=922337203685477581&limit=20", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"data":[],"total":2,"page":922337203685477581,"limit":20,"totalPages":1}`, string(body))
}
