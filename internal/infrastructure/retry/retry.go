package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

type Policy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

// DefaultPolicy suits dependency dials at startup, when containers come up in any order.
var DefaultPolicy = Policy{
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     10 * time.Second,
	MaxElapsedTime:  1 * time.Minute,
}

// Permanent stops retrying and makes Do return err unwrapped.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do runs op with exponential backoff until it succeeds, fails permanently, the policy
// gives up, or ctx is done. The last error from op is returned.
func Do(ctx context.Context, name string, policy Policy, logger *slog.Logger, op func(ctx context.Context) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = policy.InitialInterval
	bo.MaxInterval = policy.MaxInterval
	bo.MaxElapsedTime = policy.MaxElapsedTime
	bo.Reset()

	attempt := 0
	operation := func() error {
		attempt++
		return op(ctx)
	}
	notify := func(err error, wait time.Duration) {
		logger.WarnContext(ctx, "Operation failed, retrying",
			slog.String("operation", name),
			slog.Int("attempt", attempt),
			slog.Duration("wait", wait),
			slog.Any("error", err),
		)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(bo, ctx), notify); err != nil {
		logger.ErrorContext(ctx, "Operation failed after retries",
			slog.String("operation", name),
			slog.Int("attempts", attempt),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}
