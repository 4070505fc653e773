package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		CapDelay:    5 * time.Millisecond,
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	attempts, err := fastPolicy().Do(context.Background(), func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestDoRetriesTransientFailures(t *testing.T) {
	calls := 0
	attempts, err := fastPolicy().Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestDoStopsAtMaxAttempts(t *testing.T) {
	boom := errors.New("still broken")
	attempts, err := fastPolicy().Do(context.Background(), func(ctx context.Context) error {
		return boom
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestDoPermanentShortCircuits(t *testing.T) {
	boom := errors.New("rejected")
	attempts, err := fastPolicy().Do(context.Background(), func(ctx context.Context) error {
		return Permanent(boom)
	})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestDoContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts, err := fastPolicy().Do(ctx, func(ctx context.Context) error {
		return errors.New("transient")
	})
	if err == nil {
		t.Fatal("expected error on cancelled context")
	}
	if attempts > 3 {
		t.Errorf("attempts = %d, want at most 3", attempts)
	}
}
