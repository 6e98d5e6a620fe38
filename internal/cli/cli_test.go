package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/fundaciones-espana/catalog-backend/database"
	"github.com/fundaciones-espana/catalog-backend/database/memory"
	"github.com/fundaciones-espana/catalog-backend/document"
	"github.com/fundaciones-espana/catalog-backend/filter"
	"github.com/fundaciones-espana/catalog-backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func useStore(t *testing.T, s *memory.Store) {
	t.Helper()
	oldOpen, oldNow := openStore, now
	openStore = func(context.Context, config.Config, *zap.Logger) (database.Store, error) { return s, nil }
	now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("RESTORE_API_KEY", "")
	t.Cleanup(func() { openStore, now = oldOpen, oldNow })
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.Execute()
	return buf.String(), err
}

func seeded(t *testing.T, n int) *memory.Store {
	t.Helper()
	s := memory.New()
	var docs []document.Doc
	for i := 1; i <= n; i++ {
		d, err := document.Parse([]byte(fmt.Sprintf(`{"_id": %d, "nombre": "F%d"}`, i, i)))
		require.NoError(t, err)
		docs = append(docs, d)
	}
	_, err := s.InsertMany(context.Background(), docs)
	require.NoError(t, err)
	return s
}

func TestDumpThenReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.json")

	useStore(t, seeded(t, 5))
	out, err := execute(t, "dump", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Dumped 5 documents to "+path)

	target := seeded(t, 1)
	useStore(t, target)
	out, err = execute(t, "reload", "--in", path, "--batch-size", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Reload complete: 5 documents verified.")

	n, err := target.Count(context.Background(), filter.MatchAll())
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	names, err := target.IndexNames(context.Background())
	require.NoError(t, err)
	assert.Len(t, names, 6)
}

func TestReloadRequiresInput(t *testing.T) {
	useStore(t, memory.New())
	reloadIn = ""
	_, err := execute(t, "reload")
	assert.Error(t, err)
}

func TestPush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.json")
	useStore(t, seeded(t, 3))
	_, err := execute(t, "dump", "--out", path)
	require.NoError(t, err)

	var batches int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "k" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req struct {
			Batch []json.RawMessage `json:"batch"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		batches++
		fmt.Fprintf(w, `{"success":true,"message":"ok","documentsInserted":%d}`, len(req.Batch))
	}))
	defer srv.Close()

	out, err := execute(t, "push", "--in", path, "--url", srv.URL, "--api-key", "k", "--batch-size", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Pushed 3 documents to "+srv.URL)
	assert.Equal(t, 2, batches)
}

func TestPushNeedsKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.json")
	useStore(t, seeded(t, 1))
	_, err := execute(t, "dump", "--out", path)
	require.NoError(t, err)

	_, err = execute(t, "push", "--in", path, "--api-key", "")
	assert.ErrorContains(t, err, "API key is required")
}
