package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var fastPolicy = Policy{
	InitialInterval: time.Millisecond,
	MaxInterval:     5 * time.Millisecond,
	MaxElapsedTime:  time.Second,
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDo(t *testing.T) {
	t.Run("Succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := Do(context.Background(), "dial", fastPolicy, testLogger(), func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("connection refused")
			}
			return nil
		})

		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("Permanent error stops immediately", func(t *testing.T) {
		calls := 0
		authErr := errors.New("authentication failed")
		err := Do(context.Background(), "dial", fastPolicy, testLogger(), func(ctx context.Context) error {
			calls++
			return Permanent(authErr)
		})

		assert.ErrorIs(t, err, authErr)
		assert.Equal(t, 1, calls)
	})

	t.Run("Cancelled context stops retrying", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := Do(ctx, "dial", fastPolicy, testLogger(), func(ctx context.Context) error {
			calls++
			cancel()
			return errors.New("connection refused")
		})

		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}
