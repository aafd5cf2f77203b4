package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"customer-registry/internal/domain/customer"
)

const (
	defaultPageSize = 500
	indexWorkers    = 4
)

type Indexer interface {
	Sync(ctx context.Context, c *customer.Customer) error
}

// ReindexJob walks the whole primary store and upserts every record into the search index,
// repairing entries a failed synchronous sync left behind. Index entries for deleted
// customers are not pruned.
type ReindexJob struct {
	repo     customer.Repository
	indexer  Indexer
	pageSize int
	logger   *slog.Logger
}

func NewReindexJob(repo customer.Repository, indexer Indexer, pageSize int, logger *slog.Logger) *ReindexJob {
	if repo == nil || indexer == nil || logger == nil {
		panic("ReindexJob dependencies cannot be nil")
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &ReindexJob{
		repo:     repo,
		indexer:  indexer,
		pageSize: pageSize,
		logger:   logger.With("job", "Reindex"),
	}
}

func (j *ReindexJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting customer reindex job.")

	var indexed, failed atomic.Int32
	request := customer.PageRequest{
		Size: j.pageSize,
		Sort: customer.Sort{Field: customer.FieldID, Direction: customer.SortAsc},
	}

	for {
		if err := ctx.Err(); err != nil {
			j.logger.WarnContext(ctx, "Reindex job interrupted.", slog.Int("page", request.Page), slog.Any("error", err))
			return fmt.Errorf("reindex interrupted at page %d: %w", request.Page, err)
		}

		page, err := j.repo.FindAll(ctx, nil, request)
		if err != nil {
			j.logger.ErrorContext(ctx, "Failed to read customers page, aborting job.", slog.Int("page", request.Page), slog.Any("error", err))
			return fmt.Errorf("cannot run job, failed to read page %d: %w", request.Page, err)
		}

		j.indexPage(ctx, page.Content, &indexed, &failed)

		if len(page.Content) < request.Size || request.Page+1 >= page.TotalPages() {
			break
		}
		request.Page++
	}

	summaryLog := j.logger.With(
		slog.Duration("duration", time.Since(startTime)),
		slog.Int("customers_indexed", int(indexed.Load())),
		slog.Int("errors_encountered", int(failed.Load())),
	)
	if n := failed.Load(); n > 0 {
		summaryLog.WarnContext(ctx, "Customer reindex job finished with errors.")
		return fmt.Errorf("job completed with %d errors", n)
	}
	summaryLog.InfoContext(ctx, "Customer reindex job finished successfully.")
	return nil
}

func (j *ReindexJob) indexPage(ctx context.Context, customers []*customer.Customer, indexed, failed *atomic.Int32) {
	var wg sync.WaitGroup
	slots := make(chan struct{}, indexWorkers)

	for _, c := range customers {
		wg.Add(1)
		slots <- struct{}{}
		go func(c *customer.Customer) {
			defer wg.Done()
			defer func() { <-slots }()

			if err := j.indexer.Sync(ctx, c); err != nil {
				j.logger.ErrorContext(ctx, "Failed to reindex customer", slog.String("customerID", c.ID), slog.Any("error", err))
				failed.Add(1)
				return
			}
			indexed.Add(1)
		}(c)
	}
	wg.Wait()
}
