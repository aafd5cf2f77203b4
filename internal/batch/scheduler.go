package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"customer-registry/internal/config"

	"github.com/robfig/cron/v3"
)

type Job interface {
	Run(ctx context.Context) error
}

// NewScheduler registers the reindex job on its cron spec; the caller starts and stops it.
func NewScheduler(cfg config.BatchConfig, job Job, logger *slog.Logger) (*cron.Cron, error) {
	logger.Info("Initializing batch job scheduler...")
	c := cron.New()

	scheduleSpec := cfg.ReindexSchedule
	if scheduleSpec == "" {
		scheduleSpec = "0 3 * * *"
		logger.Warn("Batch reindex schedule not configured, using default", "schedule", scheduleSpec)
	}
	jobTimeout := cfg.ReindexTimeout
	if jobTimeout <= 0 {
		jobTimeout = 1 * time.Hour
	}

	jobID, err := c.AddJob(scheduleSpec, cron.FuncJob(func() {
		jobLogger := logger.With("job_name", "Reindex")
		jobLogger.Info("Cron triggered: Running reindex job.")

		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		if runErr := job.Run(ctx); runErr != nil {
			jobLogger.Error("Reindex job finished with error", slog.Any("error", runErr))
		} else {
			jobLogger.Info("Reindex job finished successfully.")
		}
	}))
	if err != nil {
		logger.Error("Failed to schedule reindex job", "schedule", scheduleSpec, slog.Any("error", err))
		return nil, fmt.Errorf("invalid reindex schedule %q: %w", scheduleSpec, err)
	}

	logger.Info("Scheduled reindex job", "schedule", scheduleSpec, "job_id", jobID)
	return c, nil
}
