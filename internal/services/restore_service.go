package services

import (
	"context"
	"fmt"
	"time"

	"github.com/fundaciones-espana/catalog-backend/database"
	"github.com/fundaciones-espana/catalog-backend/document"
	"github.com/fundaciones-espana/catalog-backend/internal/metrics"
	"github.com/fundaciones-espana/catalog-backend/model"
	"go.uber.org/zap"
)

// Notifier is told about every completed restore.
type Notifier interface {
	PublishRestored(ctx context.Context, summary model.RestoreSummary) error
}

// Invalidator drops derived data after the dataset changes.
type Invalidator interface {
	Invalidate()
}

const notifyTimeout = 5 * time.Second

// RestoreService replaces the dataset, either at once or in ordered batches.
// Nothing is atomic across calls and nothing is rolled back.
type RestoreService struct {
	Store       database.Store
	Indexes     []database.IndexDef
	Notifier    Notifier    // optional
	Invalidator Invalidator // optional
	Logger      *zap.Logger
	Now         func() time.Time
}

// NewRestoreService wires a restore service managing the catalog indexes.
func NewRestoreService(store database.Store, notifier Notifier, invalidator Invalidator, logger *zap.Logger) *RestoreService {
	return &RestoreService{
		Store:       store,
		Indexes:     database.CatalogIndexes,
		Notifier:    notifier,
		Invalidator: invalidator,
		Logger:      logger,
		Now:         time.Now,
	}
}

// RestoreBatch is one slice of a batched restore.
type RestoreBatch struct {
	Docs         []document.Doc
	BatchNumber  int
	TotalBatches int
	ClearFirst   bool
}

// ValidateDocs requires a non-empty list of non-empty objects.
func ValidateDocs(docs []document.Doc) error {
	if len(docs) == 0 {
		return fmt.Errorf("%w: no documents", ErrInvalidPayload)
	}
	for i, d := range docs {
		if d.Len() == 0 {
			return fmt.Errorf("%w: document %d is not an object", ErrInvalidPayload, i)
		}
	}
	return nil
}

// Clear removes every document and the managed indexes.
func (s *RestoreService) Clear(ctx context.Context) error {
	removed, err := s.Store.DeleteAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear collection: %w", err)
	}
	if err := s.Store.DropIndexes(ctx, s.Indexes); err != nil {
		return fmt.Errorf("failed to drop indexes: %w", err)
	}
	s.Logger.Info("Collection cleared", zap.Int64("removed", removed))
	return nil
}

// Replace clears the collection, inserts docs and rebuilds the indexes.
func (s *RestoreService) Replace(ctx context.Context, docs []document.Doc) (model.RestoreSummary, error) {
	if err := ValidateDocs(docs); err != nil {
		return model.RestoreSummary{}, err
	}
	defer s.invalidate()

	if err := s.Clear(ctx); err != nil {
		return model.RestoreSummary{}, err
	}
	inserted, err := s.Store.InsertMany(ctx, docs)
	if err != nil {
		return model.RestoreSummary{}, fmt.Errorf("failed to insert documents: %w", err)
	}
	if err := s.Store.EnsureIndexes(ctx, s.Indexes); err != nil {
		return model.RestoreSummary{}, fmt.Errorf("failed to create indexes: %w", err)
	}

	summary := model.RestoreSummary{
		Mode:              model.RestoreFull,
		DocumentsInserted: inserted,
		Cleared:           true,
		IndexesEnsured:    true,
		CompletedAt:       s.Now().UTC(),
	}
	s.finish(ctx, summary)
	return summary, nil
}

// ApplyBatch inserts one batch. Batch 1 with ClearFirst empties the
// collection first; the batch numbered TotalBatches rebuilds the indexes.
func (s *RestoreService) ApplyBatch(ctx context.Context, b RestoreBatch) (model.RestoreSummary, error) {
	if err := ValidateDocs(b.Docs); err != nil {
		return model.RestoreSummary{}, err
	}
	if b.BatchNumber < 1 || b.TotalBatches < 1 {
		return model.RestoreSummary{}, fmt.Errorf("%w: batchNumber and totalBatches must be positive", ErrInvalidPayload)
	}
	defer s.invalidate()

	summary := model.RestoreSummary{
		Mode:         model.RestoreBatch,
		BatchNumber:  b.BatchNumber,
		TotalBatches: b.TotalBatches,
	}

	if b.BatchNumber == 1 && b.ClearFirst {
		if err := s.Clear(ctx); err != nil {
			return model.RestoreSummary{}, err
		}
		summary.Cleared = true
	}

	inserted, err := s.Store.InsertMany(ctx, b.Docs)
	if err != nil {
		return model.RestoreSummary{}, fmt.Errorf("failed to insert batch %d: %w", b.BatchNumber, err)
	}
	summary.DocumentsInserted = inserted

	if b.BatchNumber == b.TotalBatches {
		if err := s.Store.EnsureIndexes(ctx, s.Indexes); err != nil {
			return model.RestoreSummary{}, fmt.Errorf("failed to create indexes: %w", err)
		}
		summary.IndexesEnsured = true
	}

	summary.CompletedAt = s.Now().UTC()
	s.finish(ctx, summary)
	return summary, nil
}

func (s *RestoreService) invalidate() {
	if s.Invalidator != nil {
		s.Invalidator.Invalidate()
	}
}

// finish records and announces a completed restore. Notification failures are
// logged only.
func (s *RestoreService) finish(ctx context.Context, summary model.RestoreSummary) {
	metrics.AddRestored(string(summary.Mode), summary.DocumentsInserted)
	s.Logger.Info("Restore completed",
		zap.String("mode", string(summary.Mode)),
		zap.Int64("inserted", summary.DocumentsInserted),
		zap.Int("batch", summary.BatchNumber),
		zap.Int("totalBatches", summary.TotalBatches))

	if s.Notifier == nil {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := s.Notifier.PublishRestored(nctx, summary); err != nil {
		s.Logger.Warn("Failed to publish restore event", zap.Error(err))
	}
}
