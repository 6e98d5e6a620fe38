package database

import (
	"context"
	"fmt"

	"github.com/arangodb/go-driver/v2/arangodb"
	"github.com/fundaciones-espana/catalog-backend/document"
	"github.com/fundaciones-espana/catalog-backend/filter"
	"github.com/fundaciones-espana/catalog-backend/model"
	"go.uber.org/zap"
)

// ArangoStore implements Store on an ArangoDB collection. The numeric _id of
// a foundation is stored as the document _key.
type ArangoStore struct {
	conn   *Connector
	logger *zap.Logger
}

// NewArangoStore wraps a connector. No connection is made until first use.
func NewArangoStore(conn *Connector, logger *zap.Logger) *ArangoStore {
	return &ArangoStore{conn: conn, logger: logger}
}

var _ Store = (*ArangoStore)(nil)

func (s *ArangoStore) query(ctx context.Context, q string, vars map[string]any) (arangodb.Cursor, error) {
	dbc, err := s.conn.Connection(ctx)
	if err != nil {
		return nil, fmt.Errorf("database unavailable: %w", err)
	}
	vars["@collection"] = dbc.CollectionName

	cursor, err := dbc.Database.Query(ctx, q, &arangodb.QueryOptions{
		BindVars: vars,
	})
	if err != nil {
		s.logger.Debug("AQL query failed", zap.String("query", q), zap.Error(err))
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return cursor, nil
}

func readAll[T any](ctx context.Context, cursor arangodb.Cursor) ([]T, error) {
	defer cursor.Close()

	var out []T
	for cursor.HasMore() {
		var v T
		if _, err := cursor.ReadDocument(ctx, &v); err != nil {
			return nil, fmt.Errorf("failed to read result: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *ArangoStore) readOne(ctx context.Context, q string, vars map[string]any, v any) (bool, error) {
	cursor, err := s.query(ctx, q, vars)
	if err != nil {
		return false, err
	}
	defer cursor.Close()

	if !cursor.HasMore() {
		return false, nil
	}
	if _, err := cursor.ReadDocument(ctx, v); err != nil {
		return false, fmt.Errorf("failed to read result: %w", err)
	}
	return true, nil
}

// fromStored maps _key to a leading _id and drops storage attributes.
func fromStored(raw document.Doc) document.Doc {
	var out document.Doc
	if key, ok := raw.Get("_key"); ok {
		out.Set(model.FieldID, keyToID(key))
	}
	for _, f := range raw.Fields() {
		switch f.Key {
		case "_key", "_id", "_rev":
			continue
		}
		out.Set(f.Key, f.Value)
	}
	return out
}

func keyToID(key any) any {
	if n, ok := document.Int(key); ok {
		return n
	}
	return key
}

// toStored moves _id into _key.
func toStored(d document.Doc) document.Doc {
	var out document.Doc
	if id, ok := d.Get(model.FieldID); ok {
		out.Set("_key", document.Text(id))
	}
	for _, f := range d.Fields() {
		if f.Key == model.FieldID {
			continue
		}
		out.Set(f.Key, f.Value)
	}
	return out
}

// Count returns the number of documents matching expr.
func (s *ArangoStore) Count(ctx context.Context, expr filter.Expr) (int64, error) {
	vars := map[string]any{}
	q, err := countQuery(expr, vars)
	if err != nil {
		return 0, err
	}
	var n int64
	if _, err := s.readOne(ctx, q, vars, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// Find returns matching documents in sort order, windowed and projected.
func (s *ArangoStore) Find(ctx context.Context, expr filter.Expr, opts FindOptions) ([]document.Doc, error) {
	vars := map[string]any{}
	q, err := findQuery(expr, opts, vars)
	if err != nil {
		return nil, err
	}
	cursor, err := s.query(ctx, q, vars)
	if err != nil {
		return nil, err
	}
	raw, err := readAll[document.Doc](ctx, cursor)
	if err != nil {
		return nil, err
	}

	docs := make([]document.Doc, 0, len(raw))
	for _, r := range raw {
		d := fromStored(r)
		if len(opts.Fields) > 0 {
			d = document.Project(d, opts.Fields)
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// FindByID returns the document whose _id is id, or ErrNotFound.
func (s *ArangoStore) FindByID(ctx context.Context, id int64) (document.Doc, error) {
	q := `FOR d IN @@collection
    FILTER d._key == @key
    LIMIT 1
    RETURN d`
	vars := map[string]any{"key": fmt.Sprintf("%d", id)}

	var raw document.Doc
	found, err := s.readOne(ctx, q, vars, &raw)
	if err != nil {
		return document.Doc{}, err
	}
	if !found {
		return document.Doc{}, ErrNotFound
	}
	return fromStored(raw), nil
}

// GroupCount runs a group-and-count aggregation.
func (s *ArangoStore) GroupCount(ctx context.Context, spec GroupSpec) ([]model.Bucket, error) {
	vars := map[string]any{}
	q, err := groupQuery(spec, vars)
	if err != nil {
		return nil, err
	}
	cursor, err := s.query(ctx, q, vars)
	if err != nil {
		return nil, err
	}
	buckets, err := readAll[model.Bucket](ctx, cursor)
	if err != nil {
		return nil, err
	}
	if buckets == nil {
		buckets = []model.Bucket{}
	}
	return buckets, nil
}

// ArraySizeStats summarises the sizes of non-empty arrays at field.
func (s *ArangoStore) ArraySizeStats(ctx context.Context, field string) (SizeStats, error) {
	vars := map[string]any{}
	q, err := sizeStatsQuery(field, vars)
	if err != nil {
		return SizeStats{}, err
	}
	var raw struct {
		Documents int64  `json:"documents"`
		Total     *int64 `json:"total"`
		Max       *int64 `json:"max"`
		Min       *int64 `json:"min"`
	}
	if _, err := s.readOne(ctx, q, vars, &raw); err != nil {
		return SizeStats{}, err
	}
	stats := SizeStats{Documents: raw.Documents}
	if raw.Total != nil {
		stats.Total = *raw.Total
	}
	if raw.Max != nil {
		stats.Max = *raw.Max
	}
	if raw.Min != nil {
		stats.Min = *raw.Min
	}
	return stats, nil
}

// DeleteAll removes every document and returns how many there were.
func (s *ArangoStore) DeleteAll(ctx context.Context) (int64, error) {
	var n int64
	if _, err := s.readOne(ctx, `RETURN LENGTH(@@collection)`, map[string]any{}, &n); err != nil {
		return 0, err
	}

	cursor, err := s.query(ctx, `FOR d IN @@collection
    REMOVE d IN @@collection`, map[string]any{})
	if err != nil {
		return 0, err
	}
	cursor.Close()

	s.logger.Info("Cleared collection", zap.Int64("removed", n))
	return n, nil
}

// InsertMany stores docs in one query. A document whose _id is already
// stored, or repeated within docs, fails the whole call with ErrDuplicateKey.
func (s *ArangoStore) InsertMany(ctx context.Context, docs []document.Doc) (int64, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	stored := make([]document.Doc, len(docs))
	keys := make([]string, 0, len(docs))
	seen := make(map[string]bool, len(docs))
	for i, d := range docs {
		stored[i] = toStored(d)
		key, ok := stored[i].Get("_key")
		if !ok {
			continue
		}
		k := key.(string)
		if seen[k] {
			return 0, fmt.Errorf("%w: %s", ErrDuplicateKey, k)
		}
		seen[k] = true
		keys = append(keys, k)
	}

	if len(keys) > 0 {
		var dup string
		found, err := s.readOne(ctx, `FOR k IN @keys
    FILTER DOCUMENT(@@collection, k) != null
    LIMIT 1
    RETURN k`, map[string]any{"keys": keys}, &dup)
		if err != nil {
			return 0, err
		}
		if found {
			return 0, fmt.Errorf("%w: %s", ErrDuplicateKey, dup)
		}
	}

	cursor, err := s.query(ctx, `FOR doc IN @docs
    INSERT doc INTO @@collection`, map[string]any{"docs": stored})
	if err != nil {
		return 0, err
	}
	cursor.Close()

	return int64(len(docs)), nil
}

// EnsureIndexes creates any missing index of defs.
func (s *ArangoStore) EnsureIndexes(ctx context.Context, defs []IndexDef) error {
	dbc, err := s.conn.Connection(ctx)
	if err != nil {
		return fmt.Errorf("database unavailable: %w", err)
	}

	existing, err := s.IndexNames(ctx)
	if err != nil {
		return err
	}
	have := map[string]bool{}
	for _, name := range existing {
		have[name] = true
	}

	False := false
	for _, idx := range defs {
		if have[idx.Name] {
			continue
		}

		// Define the index options
		indexOptions := arangodb.CreatePersistentIndexOptions{
			Unique: &False,
			Sparse: &False,
			Name:   idx.Name,
		}

		// Create the index
		if _, _, err := dbc.Collection.EnsurePersistentIndex(ctx, []string{idx.Field}, &indexOptions); err != nil {
			return fmt.Errorf("error creating index %s: %w", idx.Name, err)
		}
		s.logger.Sugar().Infof("Created index: %s on %s.%s", idx.Name, dbc.CollectionName, idx.Field)
	}
	return nil
}

// DropIndexes removes the named indexes that exist.
func (s *ArangoStore) DropIndexes(ctx context.Context, defs []IndexDef) error {
	dbc, err := s.conn.Connection(ctx)
	if err != nil {
		return fmt.Errorf("database unavailable: %w", err)
	}

	existing, err := s.IndexNames(ctx)
	if err != nil {
		return err
	}
	have := map[string]bool{}
	for _, name := range existing {
		have[name] = true
	}

	for _, idx := range defs {
		if !have[idx.Name] {
			continue
		}
		if err := dbc.Collection.DeleteIndex(ctx, idx.Name); err != nil {
			return fmt.Errorf("error dropping index %s: %w", idx.Name, err)
		}
		s.logger.Sugar().Infof("Dropped index: %s", idx.Name)
	}
	return nil
}

// IndexNames lists the names of all indexes on the collection.
func (s *ArangoStore) IndexNames(ctx context.Context) ([]string, error) {
	dbc, err := s.conn.Connection(ctx)
	if err != nil {
		return nil, fmt.Errorf("database unavailable: %w", err)
	}

	indexes, err := dbc.Collection.Indexes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list indexes: %w", err)
	}
	names := make([]string, 0, len(indexes))
	for _, index := range indexes {
		names = append(names, index.Name)
	}
	return names, nil
}
