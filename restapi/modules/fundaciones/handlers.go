// Package fundaciones implements the REST handlers for browsing, detail,
// statistics and export of the foundation catalog.
package fundaciones

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/fundaciones-espana/catalog-backend/document"
	"github.com/fundaciones-espana/catalog-backend/export"
	"github.com/fundaciones-espana/catalog-backend/filter"
	"github.com/fundaciones-espana/catalog-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const notFoundMessage = "Fundación no encontrada"

func internalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal Server Error",
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
	})
}

// ListFundaciones handles GET /fundaciones.
func ListFundaciones(catalog *services.CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var params filter.Params
		if err := c.QueryParser(&params); err != nil {
			return badRequest(c, "Invalid query parameters")
		}

		q := services.NewListQuery(params,
			c.Query("page"), c.Query("limit"), c.Query("sortBy"), c.Query("sortOrder"))

		resp, err := catalog.List(c.UserContext(), q)
		if err != nil {
			return internalError(c)
		}
		return c.JSON(resp)
	}
}

// parseID accepts a JSON number or a numeric string.
func parseID(raw json.RawMessage) (int64, bool) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	switch v.(type) {
	case float64, string:
		return document.Int(v)
	}
	return 0, false
}

// GetFundacion handles POST /fundaciones with body {"id": ...}.
func GetFundacion(catalog *services.CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			ID json.RawMessage `json:"id"`
		}
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return badRequest(c, "Invalid request body")
		}
		id, ok := parseID(req.ID)
		if !ok {
			return badRequest(c, "A numeric id is required")
		}

		d, err := catalog.Get(c.UserContext(), id)
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": notFoundMessage,
			})
		}
		if err != nil {
			return internalError(c)
		}
		return c.JSON(d)
	}
}

// GetFilters handles GET /fundaciones/filters.
func GetFilters(stats *services.StatsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		opts, err := stats.FilterOptions(c.UserContext())
		if err != nil {
			return internalError(c)
		}
		return c.JSON(opts)
	}
}

// GetStats handles GET /fundaciones/stats.
func GetStats(stats *services.StatsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := stats.Stats(c.UserContext())
		if err != nil {
			return internalError(c)
		}
		return c.JSON(st)
	}
}

// ExportFundaciones handles POST /fundaciones/export and answers with an
// attachment. An empty body exports everything as CSV.
func ExportFundaciones(catalog *services.CatalogService, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req services.ExportRequest
		if body := c.Body(); len(body) > 0 {
			if err := json.Unmarshal(body, &req); err != nil {
				return badRequest(c, "Invalid request body")
			}
		}

		file, err := catalog.Export(c.UserContext(), req)
		if errors.Is(err, export.ErrUnsupportedFormat) {
			return badRequest(c, "Unsupported format: "+strconv.Quote(req.Format))
		}
		if err != nil {
			return internalError(c)
		}

		logger.Info("Export generated",
			zap.String("file", file.Filename),
			zap.Int("records", file.Records))

		c.Set(fiber.HeaderContentType, file.ContentType)
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+file.Filename+`"`)
		return c.Send(file.Body)
	}
}
