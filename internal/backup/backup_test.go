package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/fundaciones-espana/catalog-backend/database/memory"
	"github.com/fundaciones-espana/catalog-backend/document"
	"github.com/fundaciones-espana/catalog-backend/filter"
	"github.com/fundaciones-espana/catalog-backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func docs(t *testing.T, n int) []document.Doc {
	t.Helper()
	out := make([]document.Doc, 0, n)
	for i := n; i >= 1; i-- {
		d, err := document.Parse([]byte(fmt.Sprintf(`{"_id": %d, "nombre": "F%d", "patronos": []}`, i, i)))
		require.NoError(t, err)
		out = append(out, d)
	}
	return out
}

func TestBatches(t *testing.T) {
	all := docs(t, 5)
	assert.Len(t, Batches(all, 2), 3)
	assert.Len(t, Batches(all, 2)[2], 1)
	assert.Len(t, Batches(all, 0), 1)
	assert.Empty(t, Batches(nil, 2))
}

func TestDumpWriteRead(t *testing.T) {
	store := memory.New()
	_, err := store.InsertMany(context.Background(), docs(t, 3))
	require.NoError(t, err)

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	f, err := Dump(context.Background(), store, "fundaciones_espana", "fundaciones", now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), f.TotalDocuments)

	path := filepath.Join(t.TempDir(), "dump.json")
	require.NoError(t, Write(path, f))

	back, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "fundaciones_espana", back.Database)
	assert.Equal(t, "fundaciones", back.Collection)
	assert.True(t, now.Equal(back.ExportDate))
	assert.Equal(t, int64(3), back.TotalDocuments)
	require.Len(t, back.Data, 3)

	first, err := json.Marshal(back.Data[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"_id": 1, "nombre": "F1", "patronos": []}`, string(first))
}

func TestReadRejectsGarbage(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestReload(t *testing.T) {
	store := memory.New()
	_, err := store.InsertMany(context.Background(), docs(t, 2))
	require.NoError(t, err)
	svc := services.NewRestoreService(store, nil, nil, zap.NewNop())

	f := File{TotalDocuments: 7, Data: docs(t, 7)}
	require.NoError(t, Reload(context.Background(), svc, f, ReloadOptions{BatchSize: 3}, zap.NewNop()))

	n, err := store.Count(context.Background(), filter.MatchAll())
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	names, err := store.IndexNames(context.Background())
	require.NoError(t, err)
	assert.Len(t, names, 6)
}

func TestReloadWithoutIndexes(t *testing.T) {
	store := memory.New()
	svc := services.NewRestoreService(store, nil, nil, zap.NewNop())

	f := File{TotalDocuments: 2, Data: docs(t, 2)}
	require.NoError(t, Reload(context.Background(), svc, f, ReloadOptions{SkipIndexes: true}, zap.NewNop()))

	names, err := store.IndexNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"primary"}, names)
	assert.Len(t, svc.Indexes, 5)
}

func TestReloadDetectsCountMismatch(t *testing.T) {
	svc := services.NewRestoreService(memory.New(), nil, nil, zap.NewNop())
	f := File{TotalDocuments: 5, Data: docs(t, 2)}
	err := Reload(context.Background(), svc, f, ReloadOptions{}, zap.NewNop())
	assert.ErrorContains(t, err, "count mismatch")
}

func TestPush(t *testing.T) {
	var got []batchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/restore" || r.Header.Get("x-api-key") != "k" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req batchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		got = append(got, req)
		fmt.Fprintf(w, `{"success":true,"message":"Batch %d/%d processed","documentsInserted":%d}`,
			req.BatchNumber, req.TotalBatches, len(req.Batch))
	}))
	defer srv.Close()

	p := &Pusher{BaseURL: srv.URL + "/api/", APIKey: "k", Client: srv.Client()}
	n, err := p.Push(context.Background(), File{Data: docs(t, 5)}, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	require.Len(t, got, 3)
	assert.True(t, got[0].ClearFirst)
	assert.False(t, got[1].ClearFirst)
	assert.Equal(t, 3, got[2].BatchNumber)
	assert.Equal(t, 3, got[2].TotalBatches)
}

func TestPushStopsOnRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
	}))
	defer srv.Close()

	p := &Pusher{BaseURL: srv.URL, APIKey: "bad"}
	n, err := p.Push(context.Background(), File{Data: docs(t, 3)}, 2)
	assert.Zero(t, n)
	assert.ErrorContains(t, err, "server answered 401")
}
