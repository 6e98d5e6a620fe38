// Package services implements the catalog operations shared by the REST API,
// the GraphQL dashboard and the offline tools.
package services

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/fundaciones-espana/catalog-backend/database"
	"github.com/fundaciones-espana/catalog-backend/document"
	"github.com/fundaciones-espana/catalog-backend/export"
	"github.com/fundaciones-espana/catalog-backend/filter"
	"github.com/fundaciones-espana/catalog-backend/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Domain errors returned by the services.
var (
	ErrNotFound       = errors.New("foundation not found")
	ErrInvalidPayload = errors.New("invalid payload")
)

// Listing defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 20
)

// Sort keys accepted by listings.
const (
	SortByName = "name"
	SortByDate = "date"
	SortAsc    = "asc"
	SortDesc   = "desc"
)

// ListQuery is a normalized listing request.
type ListQuery struct {
	Filters   filter.Params
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// NewListQuery normalizes raw query values. Anything unparsable or out of
// range falls back to its default.
func NewListQuery(filters filter.Params, page, limit, sortBy, sortOrder string) ListQuery {
	q := ListQuery{
		Filters:   filters,
		Page:      positiveOr(page, DefaultPage),
		Limit:     positiveOr(limit, DefaultLimit),
		SortBy:    SortByName,
		SortOrder: SortAsc,
	}
	if strings.EqualFold(strings.TrimSpace(sortBy), SortByDate) {
		q.SortBy = SortByDate
	}
	if strings.EqualFold(strings.TrimSpace(sortOrder), SortDesc) {
		q.SortOrder = SortDesc
	}
	return q
}

func positiveOr(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return def
	}
	return n
}

// CatalogService answers listing, detail and export requests.
type CatalogService struct {
	Store  database.Store
	Logger *zap.Logger

	// ChronologicalDateSort sorts DD/MM/YYYY dates as dates instead of text.
	ChronologicalDateSort bool

	Now func() time.Time
}

// NewCatalogService wires a catalog service to a store.
func NewCatalogService(store database.Store, logger *zap.Logger, chronologicalDateSort bool) *CatalogService {
	return &CatalogService{
		Store:                 store,
		Logger:                logger,
		ChronologicalDateSort: chronologicalDateSort,
		Now:                   time.Now,
	}
}

func (s *CatalogService) sortSpec(q ListQuery) *database.SortSpec {
	spec := &database.SortSpec{Field: model.FieldNombre, Desc: q.SortOrder == SortDesc}
	if q.SortBy == SortByDate {
		spec.Field = model.FieldFechaConstitucion
		spec.Chronological = s.ChronologicalDateSort
	}
	return spec
}

// List returns one page of matching foundations and the total match count.
func (s *CatalogService) List(ctx context.Context, q ListQuery) (model.PaginatedResponse, error) {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	expr := filter.Build(q.Filters)
	limit := int64(q.Limit)

	// A window past MaxInt64 cannot hold any document.
	beyond := int64(q.Page-1) > math.MaxInt64/limit

	var (
		total int64
		data  []document.Doc
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.Store.Count(gctx, expr)
		return err
	})
	if !beyond {
		g.Go(func() error {
			var err error
			data, err = s.Store.Find(gctx, expr, database.FindOptions{
				Sort:  s.sortSpec(q),
				Skip:  int64(q.Page-1) * limit,
				Limit: limit,
			})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		s.Logger.Error("Failed to list foundations", zap.Stringer("filter", expr), zap.Error(err))
		return model.PaginatedResponse{}, err
	}

	if data == nil {
		data = []document.Doc{}
	}
	return model.PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: pageCount(total, limit),
	}, nil
}

func pageCount(total, limit int64) int64 {
	n := total / limit
	if total%limit != 0 {
		n++
	}
	return n
}

// Get returns the foundation with the given identifier or ErrNotFound.
func (s *CatalogService) Get(ctx context.Context, id int64) (document.Doc, error) {
	d, err := s.Store.FindByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return document.Doc{}, ErrNotFound
	}
	if err != nil {
		s.Logger.Error("Failed to fetch foundation", zap.Int64("id", id), zap.Error(err))
		return document.Doc{}, err
	}
	return d, nil
}

// ExportRequest selects, shapes and formats an export.
type ExportRequest struct {
	Filters filter.Params `json:"filters"`
	Fields  []string      `json:"fields"`
	Format  string        `json:"format"`
}

// ExportFile is a rendered export ready to be sent as an attachment.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
	Records     int
}

// Export renders every matching foundation, ordered by identifier. The
// identifier is always part of the projection.
func (s *CatalogService) Export(ctx context.Context, req ExportRequest) (ExportFile, error) {
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		return ExportFile{}, err
	}

	var fields []string
	for _, f := range req.Fields {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}

	opts := database.FindOptions{Sort: &database.SortSpec{Field: model.FieldID}}
	if len(fields) > 0 {
		opts.Fields = append(append([]string{}, fields...), model.FieldID)
	}

	expr := filter.Build(req.Filters)
	docs, err := s.Store.Find(ctx, expr, opts)
	if err != nil {
		s.Logger.Error("Failed to export foundations", zap.Stringer("filter", expr), zap.Error(err))
		return ExportFile{}, err
	}

	body, err := export.Render(format, docs, fields)
	if err != nil {
		return ExportFile{}, err
	}

	return ExportFile{
		Filename:    export.Filename(format, s.Now()),
		ContentType: format.ContentType(),
		Body:        body,
		Records:     len(docs),
	}, nil
}
