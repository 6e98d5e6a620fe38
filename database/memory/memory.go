// Package memory provides an in-process Store with the same ordering and
// grouping semantics as the ArangoDB store.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"sync"

	"github.com/fundaciones-espana/catalog-backend/database"
	"github.com/fundaciones-espana/catalog-backend/document"
	"github.com/fundaciones-espana/catalog-backend/filter"
	"github.com/fundaciones-espana/catalog-backend/model"
)

var datePattern = regexp.MustCompile(database.DateYearPattern)

// Store keeps documents in insertion order.
type Store struct {
	mu      sync.RWMutex
	docs    []document.Doc
	ids     map[string]bool
	indexes []database.IndexDef
}

// New returns an empty store.
func New() *Store {
	return &Store{ids: map[string]bool{}}
}

var _ database.Store = (*Store)(nil)

func idKey(d document.Doc) (string, bool) {
	v, ok := d.Get(model.FieldID)
	if !ok || v == nil {
		return "", false
	}
	return document.Text(v), true
}

// normalizeID stores numeric identifiers as int64 so documents read back the
// same way they do from ArangoDB.
func normalizeID(d document.Doc) document.Doc {
	out := d.Clone()
	if v, ok := out.Get(model.FieldID); ok {
		if n, ok := document.Int(v); ok {
			out.Prepend(model.FieldID, n)
		} else {
			out.Prepend(model.FieldID, v)
		}
	}
	return out
}

// Count returns the number of documents matching expr.
func (s *Store) Count(_ context.Context, expr filter.Expr) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, d := range s.docs {
		if filter.Match(expr, d) {
			n++
		}
	}
	return n, nil
}

// Find returns matching documents in sort order, windowed and projected.
func (s *Store) Find(_ context.Context, expr filter.Expr, opts database.FindOptions) ([]document.Doc, error) {
	s.mu.RLock()
	var matched []document.Doc
	for _, d := range s.docs {
		if filter.Match(expr, d) {
			matched = append(matched, d)
		}
	}
	s.mu.RUnlock()

	if opts.Sort != nil {
		spec := *opts.Sort
		sort.SliceStable(matched, func(i, j int) bool {
			a := sortValue(matched[i], spec)
			b := sortValue(matched[j], spec)
			if c := compare(a, b); c != 0 {
				if spec.Desc {
					return c > 0
				}
				return c < 0
			}
			ai, _ := matched[i].Get(model.FieldID)
			bi, _ := matched[j].Get(model.FieldID)
			return compare(ai, bi) < 0
		})
	}

	n := int64(len(matched))
	start := min(max(opts.Skip, 0), n)
	end := n
	if opts.Limit > 0 && opts.Limit < n-start {
		end = start + opts.Limit
	}

	out := make([]document.Doc, 0, end-start)
	for _, d := range matched[start:end] {
		if len(opts.Fields) > 0 {
			out = append(out, document.Project(d, opts.Fields))
		} else {
			out = append(out, d.Clone())
		}
	}
	return out, nil
}

func sortValue(d document.Doc, spec database.SortSpec) any {
	v, _ := document.Value(d, spec.Field)
	if spec.Chronological {
		if s, ok := v.(string); ok && datePattern.MatchString(s) {
			return s[6:10] + s[3:5] + s[0:2]
		}
	}
	return v
}

// FindByID returns the document whose _id is id, or ErrNotFound.
func (s *Store) FindByID(_ context.Context, id int64) (document.Doc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := fmt.Sprintf("%d", id)
	for _, d := range s.docs {
		if k, ok := idKey(d); ok && k == want {
			return d.Clone(), nil
		}
	}
	return document.Doc{}, database.ErrNotFound
}

type group struct {
	key   any
	count int64
}

// GroupCount runs a group-and-count aggregation.
func (s *Store) GroupCount(_ context.Context, spec database.GroupSpec) ([]model.Bucket, error) {
	s.mu.RLock()
	rows := s.rows(spec.Unwind)
	s.mu.RUnlock()

	groups := map[string]*group{}
	var order []*group
	for _, row := range rows {
		key, ok := groupKey(row, spec)
		if !ok {
			continue
		}
		if !filter.Match(spec.Match, row) {
			continue
		}
		hk := hashKey(key)
		g, seen := groups[hk]
		if !seen {
			g = &group{key: key}
			groups[hk] = g
			order = append(order, g)
		}
		g.count++
	}

	sort.SliceStable(order, func(i, j int) bool {
		if spec.OrderBy == database.ByCountDesc && order[i].count != order[j].count {
			return order[i].count > order[j].count
		}
		return compare(order[i].key, order[j].key) < 0
	})
	if spec.Limit > 0 && len(order) > spec.Limit {
		order = order[:spec.Limit]
	}

	buckets := make([]model.Bucket, 0, len(order))
	for _, g := range order {
		buckets = append(buckets, model.Bucket{ID: g.key, Count: g.count})
	}
	return buckets, nil
}

// rows returns the documents, or one row per element of the unwound array
// with that field replaced by the element.
func (s *Store) rows(unwind string) []document.Doc {
	if unwind == "" {
		return append([]document.Doc(nil), s.docs...)
	}
	var rows []document.Doc
	for _, d := range s.docs {
		v, _ := d.Get(unwind)
		items, _ := v.([]any)
		for _, item := range items {
			row := document.New(d.Fields()...)
			row.Set(unwind, item)
			rows = append(rows, row)
		}
	}
	return rows
}

func groupKey(row document.Doc, spec database.GroupSpec) (any, bool) {
	v, found := document.Value(row, spec.Field)
	switch spec.Key {
	case database.KeyField:
		if !found {
			return nil, true
		}
		return normalize(v), true
	case database.KeyArrayLength:
		items, _ := v.([]any)
		return int64(len(items)), true
	case database.KeyDateYear:
		s, ok := v.(string)
		if !ok || !datePattern.MatchString(s) {
			return nil, false
		}
		year, err := strconv.ParseInt(s[6:10], 10, 64)
		return year, err == nil
	}
	return nil, false
}

func normalize(v any) any {
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
	}
	return v
}

func hashKey(v any) string {
	return fmt.Sprintf("%d:%s", typeRank(v), document.Text(v))
}

// typeRank follows the ArangoDB type order: null, bool, number, string, array, object.
func typeRank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case int, int64, float64, json.Number:
		return 2
	case string:
		return 3
	case []any:
		return 4
	default:
		return 5
	}
}

func number(v any) float64 {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case float64:
		return t
	case json.Number:
		f, _ := t.Float64()
		return f
	}
	return 0
}

func compare(a, b any) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch ra {
	case 0:
		return 0
	case 1:
		ab, bb := a.(bool), b.(bool)
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}
	case 2:
		na, nb := number(a), number(b)
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	default:
		sa, sb := document.Text(a), document.Text(b)
		switch {
		case sa < sb:
			return -1
		case sa > sb:
			return 1
		}
		return 0
	}
}

// ArraySizeStats summarises the sizes of non-empty arrays at field.
func (s *Store) ArraySizeStats(_ context.Context, field string) (database.SizeStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats database.SizeStats
	for _, d := range s.docs {
		v, _ := document.Value(d, field)
		items, _ := v.([]any)
		n := int64(len(items))
		if n == 0 {
			continue
		}
		if stats.Documents == 0 || n < stats.Min {
			stats.Min = n
		}
		if n > stats.Max {
			stats.Max = n
		}
		stats.Documents++
		stats.Total += n
	}
	return stats, nil
}

// DeleteAll removes every document and returns how many there were.
func (s *Store) DeleteAll(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := int64(len(s.docs))
	s.docs = nil
	s.ids = map[string]bool{}
	return n, nil
}

// InsertMany appends docs. A repeated _id fails the whole call.
func (s *Store) InsertMany(_ context.Context, docs []document.Doc) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := map[string]bool{}
	for _, d := range docs {
		k, ok := idKey(d)
		if !ok {
			continue
		}
		if s.ids[k] || batch[k] {
			return 0, fmt.Errorf("%w: %s", database.ErrDuplicateKey, k)
		}
		batch[k] = true
	}

	for _, d := range docs {
		s.docs = append(s.docs, normalizeID(d))
	}
	for k := range batch {
		s.ids[k] = true
	}
	return int64(len(docs)), nil
}

// EnsureIndexes records any missing index of defs.
func (s *Store) EnsureIndexes(_ context.Context, defs []database.IndexDef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, def := range defs {
		exists := false
		for _, have := range s.indexes {
			if have.Name == def.Name {
				exists = true
				break
			}
		}
		if !exists {
			s.indexes = append(s.indexes, def)
		}
	}
	return nil
}

// DropIndexes forgets the named indexes.
func (s *Store) DropIndexes(_ context.Context, defs []database.IndexDef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := map[string]bool{}
	for _, def := range defs {
		drop[def.Name] = true
	}
	kept := s.indexes[:0]
	for _, have := range s.indexes {
		if !drop[have.Name] {
			kept = append(kept, have)
		}
	}
	s.indexes = kept
	return nil
}

// IndexNames lists the primary index followed by the recorded indexes.
func (s *Store) IndexNames(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := []string{"primary"}
	for _, idx := range s.indexes {
		names = append(names, idx.Name)
	}
	return names, nil
}
