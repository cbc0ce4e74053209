package indexer

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const maxRetryDelay = 30 * time.Second

// retrier re-runs an RPC call with exponential backoff, logging each failed
// attempt under the call's name.
type retrier struct {
	maxRetries int
	baseDelay  time.Duration
	logger     *zap.Logger
}

func newRetrier(maxRetries int, baseDelay time.Duration, logger *zap.Logger) retrier {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return retrier{maxRetries: maxRetries, baseDelay: baseDelay, logger: logger}
}

func (r retrier) do(ctx context.Context, call string, fn func(context.Context) error, fields ...zap.Field) error {
	delay := r.baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= r.maxRetries {
			return err
		}
		r.logger.Warn(call+" failed", append(fields, zap.Error(err), zap.Int("attempt", attempt+1), zap.Duration("backoff", delay))...)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay = min(delay*2, maxRetryDelay)
	}
}
