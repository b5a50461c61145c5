package util

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetry_SuccessImmediate(t *testing.T) {
	result, err := Retry(3, func() (int, error) {
		return 42, nil
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if result != 42 {
		t.Fatalf("expected 42, got %d", result)
	}
}

func TestRetry_SuccessAfterRetries(t *testing.T) {
	calls := 0
	result, err := Retry(3, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("transient")
		}
		return 99, nil
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if result != 99 {
		t.Fatalf("expected 99, got %d", result)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_PersistentFailure(t *testing.T) {
	calls := 0
	_, err := Retry(3, func() (int, error) {
		calls++
		return 0, errors.New("persistent")
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err.Error() != "persistent" {
		t.Fatalf("expected persistent error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_MaxTriesZeroOrNegative(t *testing.T) {
	calls := 0
	_, err := Retry(0, func() (int, error) {
		calls++
		return 0, errors.New("fail")
	})
	if calls != 1 {
		t.Fatalf("expected 1 call for maxTries=0, got %d", calls)
	}
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	calls = 0
	_, err = Retry(-2, func() (int, error) {
		calls++
		return 0, errors.New("fail")
	})
	if calls != 1 {
		t.Fatalf("expected 1 call for maxTries=-2, got %d", calls)
	}
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestRetryErr_SuccessAfterRetries(t *testing.T) {
	calls := 0
	err := RetryErr(3, func() error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestRetryWithContext_SuccessImmediate(t *testing.T) {
	ctx := context.Background()
	result, err := RetryWithContext(ctx, 3, func(ctx context.Context) (string, error) {
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if result != "ok" {
		t.Fatalf("expected ok, got %s", result)
	}
}

func TestRetryWithContext_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	calls := 0
	_, err := RetryWithContext(ctx, 3, func(ctx context.Context) (int, error) {
		calls++
		return 0, nil
	})
	if err == nil {
		t.Fatal("expected context error, got nil")
	}
	if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context error, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected 0 calls due to immediate cancellation, got %d", calls)
	}
}

func TestRetryWithContext_FunctionReturnsContextError(t *testing.T) {
	ctx := context.Background()
	calls := 0
	_, err := RetryWithContext(ctx, 3, func(ctx context.Context) (int, error) {
		calls++
		if calls < 2 {
			return 0, errors.New("transient")
		}
		return 0, context.Canceled
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestRetryErrWithContext_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := RetryErrWithContext(ctx, 3, func(ctx context.Context) error {
		calls++
		return nil
	})
	if err == nil {
		t.Fatal("expected context error, got nil")
	}
	if calls != 0 {
		t.Fatalf("expected 0 calls due to immediate cancellation, got %d", calls)
	}
}

func TestRetryWithDelay_SleepsBetweenAttempts(t *testing.T) {
	ctx := context.Background()
	calls := 0
	start := time.Now()
	result, err := RetryWithDelay(ctx, 3, 20*time.Millisecond, func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "done", nil
	})
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if result != "done" {
		t.Fatalf("expected done, got %s", result)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
	// Two failures mean two sleeps of 20ms each.
	if elapsed < 40*time.Millisecond {
		t.Fatalf("expected at least 40ms elapsed, got %v", elapsed)
	}
}

func TestRetryWithDelay_NoSleepAfterFinalAttempt(t *testing.T) {
	ctx := context.Background()
	calls := 0
	start := time.Now()
	_, err := RetryWithDelay(ctx, 2, 30*time.Millisecond, func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("persistent")
	})
	elapsed := time.Since(start)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	// One sleep between the two attempts, none after the last one.
	if elapsed > 90*time.Millisecond {
		t.Fatalf("expected roughly one 30ms sleep, got %v", elapsed)
	}
}

func TestRetryWithDelay_ReturnsLastError(t *testing.T) {
	ctx := context.Background()
	_, err := RetryWithDelay(ctx, 3, time.Millisecond, func(ctx context.Context) (int, error) {
		return 0, errors.New("persistent")
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err.Error() != "persistent" {
		t.Fatalf("expected persistent error, got %v", err)
	}
}

func TestRetryWithDelay_CancelDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := RetryWithDelay(ctx, 5, time.Second, func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", calls)
	}
}

func TestRetryWithDelay_MaxTriesZero(t *testing.T) {
	ctx := context.Background()
	calls := 0
	_, err := RetryWithDelay(ctx, 0, time.Millisecond, func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("fail")
	})
	if calls != 1 {
		t.Fatalf("expected 1 call for maxTries=0, got %d", calls)
	}
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}
