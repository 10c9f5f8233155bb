package loop

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastRetry(attempts int) retryConfig {
	return retryConfig{Attempts: attempts, InitialWait: time.Millisecond, MaxWait: 2 * time.Millisecond}
}

func TestWithRetry_RateLimitedRetriedUpToCap(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), discard(), "op", fastRetry(3), func() error {
		calls++
		return newError(KindRateLimited, "slow down", nil)
	})
	if err == nil {
		t.Fatal("expected failure after exhausting attempts")
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
}

func TestWithRetry_UnavailableGetsOneReconnectAttempt(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), discard(), "op", fastRetry(5), func() error {
		calls++
		return newError(KindUnavailable, "store down", nil)
	})
	if err == nil {
		t.Fatal("expected failure")
	}
	if calls != 2 {
		t.Errorf("fn called %d times, want 2", calls)
	}
}

func TestWithRetry_UnavailableRecoversOnReconnect(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), discard(), "op", fastRetry(5), func() error {
		calls++
		if calls == 1 {
			return newError(KindUnavailable, "store down", nil)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("fn called %d times, want 2", calls)
	}
}

func TestWithRetry_PermanentFailsImmediately(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), discard(), "op", fastRetry(3), func() error {
		calls++
		return newError(KindQuerySyntax, "bad query", nil)
	})
	if err == nil {
		t.Fatal("expected failure")
	}
	if calls != 1 {
		t.Errorf("non-transient error retried %d times", calls)
	}
}

func TestWithRetry_SucceedsAfterTransientFailure(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), discard(), "op", fastRetry(3), func() error {
		calls++
		if calls < 3 {
			return newError(KindRateLimited, "slow down", nil)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
}

func TestWithRetry_ContextCancelStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := withRetry(ctx, discard(), "op", fastRetry(5), func() error {
		return newError(KindUnavailable, "down", nil)
	})
	if err == nil {
		t.Fatal("expected failure under a cancelled context")
	}
}

func TestKindOf_MapsForeignErrors(t *testing.T) {
	if got := KindOf(context.DeadlineExceeded); got != KindTimeout {
		t.Errorf("deadline = %v, want %v", got, KindTimeout)
	}
	if got := KindOf(errors.New("mystery")); got != KindUnavailable {
		t.Errorf("unknown error = %v, want %v", got, KindUnavailable)
	}
	wrapped := newError(KindContextOverflow, "too big", errors.New("inner"))
	if got := KindOf(wrapped); got != KindContextOverflow {
		t.Errorf("typed error = %v, want %v", got, KindContextOverflow)
	}
}
