// Package restore implements the full and batched dataset restore endpoints.
package restore

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fundaciones-espana/catalog-backend/document"
	"github.com/fundaciones-espana/catalog-backend/internal/services"
	"github.com/fundaciones-espana/catalog-backend/model"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var validate = validator.New()

// FullRequest is the body of POST /restore.
type FullRequest struct {
	Data []document.Doc `json:"data" validate:"required,min=1"`
}

// BatchRequest is the body of PUT /restore.
type BatchRequest struct {
	Batch        []document.Doc `json:"batch" validate:"required,min=1"`
	BatchNumber  int            `json:"batchNumber" validate:"required,min=1"`
	TotalBatches int            `json:"totalBatches" validate:"required,min=1"`
	ClearFirst   bool           `json:"clearFirst"`
}

func decode(c *fiber.Ctx, v any) error {
	if err := json.Unmarshal(c.Body(), v); err != nil {
		return fmt.Errorf("%w: %v", services.ErrInvalidPayload, err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", services.ErrInvalidPayload, err)
	}
	return nil
}

func fail(c *fiber.Ctx, logger *zap.Logger, err error) error {
	if errors.Is(err, services.ErrInvalidPayload) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	logger.Error("Restore failed", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal Server Error",
	})
}

// PostRestore replaces the whole dataset.
func PostRestore(svc *services.RestoreService, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req FullRequest
		if err := decode(c, &req); err != nil {
			return fail(c, logger, err)
		}

		summary, err := svc.Replace(c.UserContext(), req.Data)
		if err != nil {
			return fail(c, logger, err)
		}
		return c.JSON(model.RestoreResponse{
			Success:           true,
			Message:           "Database restored successfully",
			DocumentsInserted: summary.DocumentsInserted,
		})
	}
}

// PutRestoreBatch applies one batch of a multi-request restore.
func PutRestoreBatch(svc *services.RestoreService, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req BatchRequest
		if err := decode(c, &req); err != nil {
			return fail(c, logger, err)
		}

		summary, err := svc.ApplyBatch(c.UserContext(), services.RestoreBatch{
			Docs:         req.Batch,
			BatchNumber:  req.BatchNumber,
			TotalBatches: req.TotalBatches,
			ClearFirst:   req.ClearFirst,
		})
		if err != nil {
			return fail(c, logger, err)
		}
		return c.JSON(model.RestoreResponse{
			Success:           true,
			Message:           fmt.Sprintf("Batch %d/%d processed", req.BatchNumber, req.TotalBatches),
			DocumentsInserted: summary.DocumentsInserted,
		})
	}
}
