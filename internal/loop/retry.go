package loop

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// retryConfig bounds the retry combinator at each tool-call site.
type retryConfig struct {
	Attempts    int // total attempts, including the first
	InitialWait time.Duration
	MaxWait     time.Duration
}

func defaultRetryConfig() retryConfig {
	return retryConfig{Attempts: 3, InitialWait: 500 * time.Millisecond, MaxWait: 8 * time.Second}
}

// withRetry runs fn with bounded exponential backoff. Only transient kinds
// are retried; everything else fails immediately. Rate limiting gets the full
// cfg.Attempts budget, unavailability gets one reconnect attempt and then
// fails — a down upstream doesn't come back for being hammered. The attempt
// cap is hard: cfg.Attempts total, never more.
func withRetry(ctx context.Context, logger *slog.Logger, op string, cfg retryConfig, fn func() error) error {
	if cfg.Attempts <= 0 {
		cfg = defaultRetryConfig()
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.InitialWait
	bo.MaxInterval = cfg.MaxWait

	attempt := 0
	wrapped := func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		kind := KindOf(err)
		if !transient(kind) {
			return backoff.Permanent(err)
		}
		if kind == KindUnavailable && attempt >= 2 {
			return backoff.Permanent(err)
		}
		logger.Warn("transient failure, backing off",
			"op", op,
			"attempt", attempt,
			"kind", string(kind),
			"error", err,
		)
		return err
	}

	policy := backoff.WithMaxRetries(backoff.WithContext(bo, ctx), uint64(cfg.Attempts-1))
	return backoff.Retry(wrapped, policy)
}
