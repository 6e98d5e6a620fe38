// Package backup writes, reads and replays dataset dump files.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fundaciones-espana/catalog-backend/database"
	"github.com/fundaciones-espana/catalog-backend/document"
	"github.com/fundaciones-espana/catalog-backend/filter"
	"github.com/fundaciones-espana/catalog-backend/internal/services"
	"github.com/fundaciones-espana/catalog-backend/model"
	"go.uber.org/zap"
)

// DefaultBatchSize is the number of documents sent per restore batch.
const DefaultBatchSize = 1000

// File is the on-disk dump layout.
type File struct {
	Database       string         `json:"database"`
	Collection     string         `json:"collection"`
	ExportDate     time.Time      `json:"exportDate"`
	TotalDocuments int64          `json:"totalDocuments"`
	Data           []document.Doc `json:"data"`
}

// Dump reads the whole collection ordered by identifier.
func Dump(ctx context.Context, store database.Store, dbName, collection string, now time.Time) (File, error) {
	docs, err := store.Find(ctx, filter.MatchAll(), database.FindOptions{
		Sort: &database.SortSpec{Field: model.FieldID},
	})
	if err != nil {
		return File{}, fmt.Errorf("failed to read collection: %w", err)
	}
	if docs == nil {
		docs = []document.Doc{}
	}
	return File{
		Database:       dbName,
		Collection:     collection,
		ExportDate:     now.UTC(),
		TotalDocuments: int64(len(docs)),
		Data:           docs,
	}, nil
}

// Write encodes f to path with two-space indentation.
func Write(path string, f File) error {
	raw, err := json.Marshal(f)
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return err
	}
	out.WriteByte('\n')
	return os.WriteFile(path, out.Bytes(), 0o644)
}

// Read decodes the dump at path.
func Read(path string) (File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	var f File
	if err := json.Unmarshal(raw, &f); err != nil {
		return File{}, fmt.Errorf("invalid dump %s: %w", path, err)
	}
	return f, nil
}

// Batches splits docs into consecutive slices of at most size documents.
func Batches(docs []document.Doc, size int) [][]document.Doc {
	if size < 1 {
		size = DefaultBatchSize
	}
	var out [][]document.Doc
	for start := 0; start < len(docs); start += size {
		end := min(start+size, len(docs))
		out = append(out, docs[start:end])
	}
	return out
}

// ReloadOptions tune Reload.
type ReloadOptions struct {
	BatchSize int
	// SkipIndexes leaves the collection without the catalog indexes.
	SkipIndexes bool
}

// Reload clears the collection, inserts f.Data in batches and checks that the
// final count equals f.TotalDocuments.
func Reload(ctx context.Context, svc *services.RestoreService, f File, opts ReloadOptions, logger *zap.Logger) error {
	if err := svc.Clear(ctx); err != nil {
		return err
	}
	rs := *svc
	if opts.SkipIndexes {
		rs.Indexes = nil
	}

	batches := Batches(f.Data, opts.BatchSize)
	if len(batches) == 0 {
		if err := rs.Store.EnsureIndexes(ctx, rs.Indexes); err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}
	}
	for i, batch := range batches {
		if _, err := rs.ApplyBatch(ctx, services.RestoreBatch{
			Docs:         batch,
			BatchNumber:  i + 1,
			TotalBatches: len(batches),
		}); err != nil {
			return err
		}
		logger.Info("Batch inserted", zap.Int("batch", i+1), zap.Int("of", len(batches)), zap.Int("documents", len(batch)))
	}

	n, err := svc.Store.Count(ctx, filter.MatchAll())
	if err != nil {
		return fmt.Errorf("failed to verify count: %w", err)
	}
	if n != f.TotalDocuments {
		return fmt.Errorf("count mismatch: collection has %d documents, dump declares %d", n, f.TotalDocuments)
	}
	return nil
}

// Pusher replays a dump against a running server through PUT /restore.
type Pusher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Logger  *zap.Logger
}

type batchRequest struct {
	Batch        []document.Doc `json:"batch"`
	BatchNumber  int            `json:"batchNumber"`
	TotalBatches int            `json:"totalBatches"`
	ClearFirst   bool           `json:"clearFirst"`
}

// Push sends f.Data in batches, clearing the server collection with the first
// one, and returns the number of documents the server reports inserted.
func (p *Pusher) Push(ctx context.Context, f File, batchSize int) (int64, error) {
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	url := strings.TrimRight(p.BaseURL, "/") + "/restore"

	batches := Batches(f.Data, batchSize)
	var inserted int64
	for i, batch := range batches {
		body, err := json.Marshal(batchRequest{
			Batch:        batch,
			BatchNumber:  i + 1,
			TotalBatches: len(batches),
			ClearFirst:   i == 0,
		})
		if err != nil {
			return inserted, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
		if err != nil {
			return inserted, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", p.APIKey)

		resp, err := client.Do(req)
		if err != nil {
			return inserted, fmt.Errorf("batch %d: %w", i+1, err)
		}
		raw, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return inserted, fmt.Errorf("batch %d: %w", i+1, err)
		}
		if resp.StatusCode != http.StatusOK {
			return inserted, fmt.Errorf("batch %d: server answered %d: %s", i+1, resp.StatusCode, strings.TrimSpace(string(raw)))
		}

		var out model.RestoreResponse
		if err := json.Unmarshal(raw, &out); err != nil {
			return inserted, fmt.Errorf("batch %d: %w", i+1, err)
		}
		inserted += out.DocumentsInserted
		if p.Logger != nil {
			p.Logger.Info(out.Message, zap.Int64("documents", out.DocumentsInserted))
		}
	}
	return inserted, nil
}
