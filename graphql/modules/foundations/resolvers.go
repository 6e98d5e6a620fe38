package foundations

import (
	"context"
	"errors"
	"strconv"

	"github.com/fundaciones-espana/catalog-backend/filter"
	"github.com/fundaciones-espana/catalog-backend/internal/services"
	"github.com/fundaciones-espana/catalog-backend/model"
)

// Page is the typed listing result.
type Page struct {
	Data       []model.Foundation `json:"data"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int64              `json:"totalPages"`
}

// ResolveFoundation returns the foundation with id, or nil when there is none.
func ResolveFoundation(ctx context.Context, svc *services.CatalogService, id int64) (interface{}, error) {
	d, err := svc.Get(ctx, id)
	if errors.Is(err, services.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return model.FoundationFromDoc(d), nil
}

func stringArg(args map[string]interface{}, name string) string {
	s, _ := args[name].(string)
	return s
}

func intArg(args map[string]interface{}, name string) string {
	if n, ok := args[name].(int); ok {
		return strconv.Itoa(n)
	}
	return ""
}

// ResolveFoundations runs a listing with the same rules as GET /fundaciones.
func ResolveFoundations(ctx context.Context, svc *services.CatalogService, args map[string]interface{}) (interface{}, error) {
	params := filter.Params{
		Search:    stringArg(args, "search"),
		Provincia: stringArg(args, "provincia"),
		Estado:    stringArg(args, "estado"),
		Actividad: stringArg(args, "actividad"),
		Funcion:   stringArg(args, "funcion"),
	}
	q := services.NewListQuery(params,
		intArg(args, "page"), intArg(args, "limit"), stringArg(args, "sortBy"), stringArg(args, "sortOrder"))

	resp, err := svc.List(ctx, q)
	if err != nil {
		return nil, err
	}

	page := Page{
		Data:       make([]model.Foundation, 0, len(resp.Data)),
		Total:      resp.Total,
		Page:       resp.Page,
		Limit:      resp.Limit,
		TotalPages: resp.TotalPages,
	}
	for _, d := range resp.Data {
		page.Data = append(page.Data, model.FoundationFromDoc(d))
	}
	return page, nil
}
