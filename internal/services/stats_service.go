package services

import (
	"context"
	"sync"

	"github.com/fundaciones-espana/catalog-backend/database"
	"github.com/fundaciones-espana/catalog-backend/document"
	"github.com/fundaciones-espana/catalog-backend/filter"
	"github.com/fundaciones-espana/catalog-backend/model"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	statsCacheKey   = "stats"
	filtersCacheKey = "filters"

	// trendStartYear is the first year reported by the yearly trend.
	trendStartYear = 1990
	topGroups      = 10
)

// StatsService computes dashboard statistics and filter option lists.
type StatsService struct {
	Store  database.Store
	Cache  *cache.Cache // nil disables caching
	Logger *zap.Logger

	mu  sync.Mutex
	gen uint64 // bumped by Invalidate
}

// NewStatsService wires a stats service. c may be nil.
func NewStatsService(store database.Store, c *cache.Cache, logger *zap.Logger) *StatsService {
	return &StatsService{Store: store, Cache: c, Logger: logger}
}

// Invalidate drops cached results. Restores call it after changing data.
func (s *StatsService) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if s.Cache != nil {
		s.Cache.Flush()
	}
}

// cached returns the entry at key, or the current generation to pass to
// store once the value has been computed.
func (s *StatsService) cached(key string) (any, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Cache == nil {
		return nil, s.gen, false
	}
	v, ok := s.Cache.Get(key)
	return v, s.gen, ok
}

// store caches v unless an invalidation happened since gen was read.
func (s *StatsService) store(key string, v any, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Cache != nil && gen == s.gen {
		s.Cache.Set(key, v, cache.DefaultExpiration)
	}
}

type groupTask struct {
	dst  *[]model.Bucket
	spec database.GroupSpec
}

func (s *StatsService) runGroups(ctx context.Context, g *errgroup.Group, tasks []groupTask) {
	for _, t := range tasks {
		g.Go(func() error {
			buckets, err := s.Store.GroupCount(ctx, t.spec)
			if err != nil {
				return err
			}
			*t.dst = buckets
			return nil
		})
	}
}

// Stats computes the dashboard payload. Sub-queries run concurrently and see
// no common snapshot.
func (s *StatsService) Stats(ctx context.Context) (model.Stats, error) {
	v, gen, ok := s.cached(statsCacheKey)
	if ok {
		return v.(model.Stats), nil
	}

	var (
		st         model.Stats
		years      []model.Bucket
		patronos   database.SizeStats
		fundadores database.SizeStats
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.Store.Count(gctx, filter.MatchAll())
		st.Total = n
		return err
	})

	s.runGroups(gctx, g, []groupTask{
		{&st.ByEstado, database.GroupSpec{Field: model.FieldEstado}},
		{&st.ByProvincia, database.GroupSpec{
			Field: model.FieldProvincia,
			Match: filter.Exists(model.FieldProvincia),
			Limit: topGroups,
		}},
		{&st.ByActividad, database.GroupSpec{
			Unwind: model.FieldActividades,
			Field:  model.FieldClasificacion1,
			Match:  filter.Exists(model.FieldClasificacion1),
			Limit:  topGroups,
		}},
		{&st.ByFuncion, database.GroupSpec{
			Unwind: model.FieldActividades,
			Field:  model.FieldFuncion1,
			Match:  filter.Exists(model.FieldFuncion1),
		}},
		{&years, database.GroupSpec{
			Key:     database.KeyDateYear,
			Field:   model.FieldFechaConstitucion,
			OrderBy: database.ByKeyAsc,
		}},
		{&st.ActivitiesDistribution, database.GroupSpec{
			Key:     database.KeyArrayLength,
			Field:   model.FieldActividades,
			OrderBy: database.ByKeyAsc,
		}},
	})

	g.Go(func() error {
		var err error
		patronos, err = s.Store.ArraySizeStats(gctx, model.FieldPatronos)
		return err
	})
	g.Go(func() error {
		var err error
		fundadores, err = s.Store.ArraySizeStats(gctx, model.FieldFundadores)
		return err
	})
	g.Go(func() error {
		n, err := s.Store.Count(gctx, ActiveWithContact())
		st.ActiveFundacionesWithContact = n
		return err
	})

	if err := g.Wait(); err != nil {
		s.Logger.Error("Failed to compute statistics", zap.Error(err))
		return model.Stats{}, err
	}

	st.YearlyTrends = yearlyTrends(years)
	st.PatronosStats = model.PatronosStats{
		TotalPatronos: patronos.Total,
		AvgPatronos:   patronos.Avg(),
		MaxPatronos:   patronos.Max,
		MinPatronos:   patronos.Min,
	}
	st.FundadoresStats = model.FundadoresStats{
		TotalFundadores: fundadores.Total,
		AvgFundadores:   fundadores.Avg(),
	}
	st.AvgPatronosPerFoundation = st.PatronosStats.AvgPatronos

	for _, b := range []*[]model.Bucket{&st.ByEstado, &st.ByProvincia, &st.ByActividad, &st.ByFuncion, &st.ActivitiesDistribution} {
		if *b == nil {
			*b = []model.Bucket{}
		}
	}

	s.store(statsCacheKey, st, gen)
	return st, nil
}

// ActiveWithContact matches active foundations with a statutory email, web or phone.
func ActiveWithContact() filter.Expr {
	return filter.And(
		filter.EqualsFold(model.FieldEstado, model.ActiveStatus),
		filter.Or(
			filter.Exists(model.FieldEmail),
			filter.Exists(model.FieldWeb),
			filter.Exists(model.FieldTelefono),
		),
	)
}

func yearlyTrends(buckets []model.Bucket) []model.YearCount {
	out := []model.YearCount{}
	for _, b := range buckets {
		year, ok := document.Int(b.ID)
		if !ok || year < trendStartYear {
			continue
		}
		out = append(out, model.YearCount{Year: year, Count: b.Count})
	}
	return out
}

// FilterOptions lists the values each filter can take, sorted by value.
func (s *StatsService) FilterOptions(ctx context.Context) (model.FilterOptions, error) {
	v, gen, ok := s.cached(filtersCacheKey)
	if ok {
		return v.(model.FilterOptions), nil
	}

	var opts model.FilterOptions
	g, gctx := errgroup.WithContext(ctx)
	s.runGroups(gctx, g, []groupTask{
		{&opts.Provincias, database.GroupSpec{
			Field:   model.FieldProvincia,
			Match:   filter.Exists(model.FieldProvincia),
			OrderBy: database.ByKeyAsc,
		}},
		{&opts.Estados, database.GroupSpec{
			Field:   model.FieldEstado,
			Match:   filter.Exists(model.FieldEstado),
			OrderBy: database.ByKeyAsc,
		}},
		{&opts.Actividades, database.GroupSpec{
			Unwind:  model.FieldActividades,
			Field:   model.FieldClasificacion1,
			Match:   filter.Exists(model.FieldClasificacion1),
			OrderBy: database.ByKeyAsc,
		}},
		{&opts.Funciones, database.GroupSpec{
			Unwind:  model.FieldActividades,
			Field:   model.FieldFuncion1,
			Match:   filter.Exists(model.FieldFuncion1),
			OrderBy: database.ByKeyAsc,
		}},
	})
	if err := g.Wait(); err != nil {
		s.Logger.Error("Failed to compute filter options", zap.Error(err))
		return model.FilterOptions{}, err
	}

	for _, b := range []*[]model.Bucket{&opts.Provincias, &opts.Estados, &opts.Actividades, &opts.Funciones} {
		if *b == nil {
			*b = []model.Bucket{}
		}
	}

	s.store(filtersCacheKey, opts, gen)
	return opts, nil
}
