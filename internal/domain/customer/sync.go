package customer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"customer-registry/internal/infrastructure/monitoring"
)

// IndexSynchronizer mirrors saved customers into the search index.
type IndexSynchronizer struct {
	index  SearchIndex
	logger *slog.Logger
}

var _ SaveListener = (*IndexSynchronizer)(nil)

func NewIndexSynchronizer(index SearchIndex, logger *slog.Logger) *IndexSynchronizer {
	if index == nil {
		panic("search index cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}
	return &IndexSynchronizer{
		index:  index,
		logger: logger.With(slog.String("component", "indexSynchronizer")),
	}
}

// Sync upserts the denormalized copy of c and reports the index error to the caller.
func (s *IndexSynchronizer) Sync(ctx context.Context, c *Customer) error {
	if c == nil {
		return fmt.Errorf("cannot index nil customer")
	}
	start := time.Now()
	err := s.index.Upsert(ctx, NewSearchDocument(c))
	if err != nil {
		monitoring.RecordIndexSync(monitoring.ResultFailure, time.Since(start))
		return fmt.Errorf("failed to index customer %s: %w", c.ID, err)
	}
	monitoring.RecordIndexSync(monitoring.ResultSuccess, time.Since(start))
	return nil
}

// OnCustomerSaved is fire-and-forget: a failed upsert is logged and never reaches the writer.
func (s *IndexSynchronizer) OnCustomerSaved(ctx context.Context, c *Customer) {
	if err := s.Sync(ctx, c); err != nil {
		s.logger.ErrorContext(ctx, "Search index synchronization failed", slog.Any("error", err))
		return
	}
	s.logger.DebugContext(ctx, "Customer synchronized to search index", slog.String("customerID", c.ID))
}
