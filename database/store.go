package database

import (
	"context"
	"errors"

	"github.com/fundaciones-espana/catalog-backend/document"
	"github.com/fundaciones-espana/catalog-backend/filter"
	"github.com/fundaciones-espana/catalog-backend/model"
)

// Store errors.
var (
	ErrNotFound     = errors.New("document not found")
	ErrDuplicateKey = errors.New("duplicate document identifier")
	ErrInvalidField = errors.New("invalid field path")
)

// Store is the record store behind every catalog operation. Implementations
// return documents with an integer _id first and no storage internals.
type Store interface {
	Count(ctx context.Context, expr filter.Expr) (int64, error)
	Find(ctx context.Context, expr filter.Expr, opts FindOptions) ([]document.Doc, error)
	FindByID(ctx context.Context, id int64) (document.Doc, error)
	GroupCount(ctx context.Context, spec GroupSpec) ([]model.Bucket, error)
	ArraySizeStats(ctx context.Context, field string) (SizeStats, error)

	DeleteAll(ctx context.Context) (int64, error)
	InsertMany(ctx context.Context, docs []document.Doc) (int64, error)
	EnsureIndexes(ctx context.Context, defs []IndexDef) error
	DropIndexes(ctx context.Context, defs []IndexDef) error
	IndexNames(ctx context.Context) ([]string, error)
}

// SortSpec orders a Find. Ties are broken by ascending _id.
type SortSpec struct {
	Field string
	Desc  bool
	// Chronological reads DD/MM/YYYY text as a date instead of a string.
	Chronological bool
}

// FindOptions window and shape a Find. Zero Limit means no limit.
type FindOptions struct {
	Sort   *SortSpec
	Skip   int64
	Limit  int64
	Fields []string
}

// KeyKind selects how a GroupSpec derives the group key.
type KeyKind int

// Group key kinds.
const (
	// KeyField groups by the value at Field.
	KeyField KeyKind = iota
	// KeyArrayLength groups by the length of the array at Field, missing counts as 0.
	KeyArrayLength
	// KeyDateYear groups by the year of a DD/MM/YYYY string at Field and skips
	// anything that is not exactly in that form.
	KeyDateYear
)

// GroupOrder orders buckets.
type GroupOrder int

// Bucket orders. Ties on count fall back to ascending key.
const (
	ByCountDesc GroupOrder = iota
	ByKeyAsc
)

// GroupSpec describes a single group-and-count aggregation.
type GroupSpec struct {
	// Unwind names an array field; each element becomes a row and paths under
	// it address the element.
	Unwind  string
	Match   filter.Expr
	Key     KeyKind
	Field   string
	OrderBy GroupOrder
	Limit   int
}

// SizeStats describes the sizes of non-empty arrays at a field.
type SizeStats struct {
	Documents int64 `json:"documents"`
	Total     int64 `json:"total"`
	Max       int64 `json:"max"`
	Min       int64 `json:"min"`
}

// Avg is Total/Documents, or 0 when no document qualifies.
func (s SizeStats) Avg() float64 {
	if s.Documents == 0 {
		return 0
	}
	return float64(s.Total) / float64(s.Documents)
}

// IndexDef is a named non-unique persistent index on a single attribute path.
type IndexDef struct {
	Name  string
	Field string
}

// CatalogIndexes are the indexes every restore leaves behind.
var CatalogIndexes = []IndexDef{
	{Name: "idx_nombre", Field: "nombre"},
	{Name: "idx_estado", Field: "estado"},
	{Name: "idx_nif", Field: "nif"},
	{Name: "idx_provincia", Field: "direccionEstatutaria.provincia"},
	{Name: "idx_clasificacion1", Field: "actividades[*].clasificacion1"},
}

// DateYearPattern is the only date layout the year trend accepts.
const DateYearPattern = `^[0-9]{2}/[0-9]{2}/[0-9]{4}$`
