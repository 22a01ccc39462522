package fn

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestResultBasics(t *testing.T) {
	ok := Ok(42)
	if !ok.IsOk() || ok.IsErr() {
		t.Error("Ok should be ok")
	}
	if v, err := ok.Unwrap(); v != 42 || err != nil {
		t.Errorf("unexpected unwrap: %v %v", v, err)
	}

	bad := Err[int](errors.New("boom"))
	if bad.IsOk() {
		t.Error("Err should not be ok")
	}
	if bad.UnwrapOr(7) != 7 {
		t.Error("UnwrapOr should return fallback")
	}

	if r := FromPair(1, nil); r.IsErr() {
		t.Error("FromPair with nil error should be ok")
	}
	if r := FromPair(0, errors.New("x")); r.IsOk() {
		t.Error("FromPair with error should be err")
	}
}

func TestRetry_EventualSuccess(t *testing.T) {
	calls := 0
	opts := RetryOpts{MaxAttempts: 3, InitialWait: time.Millisecond}
	r := Retry(context.Background(), opts, func(context.Context) Result[string] {
		calls++
		if calls < 3 {
			return Errf[string]("transient %d", calls)
		}
		return Ok("done")
	})
	if r.IsErr() {
		t.Fatalf("expected success, got %v", r)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_Exhausted(t *testing.T) {
	calls := 0
	opts := RetryOpts{MaxAttempts: 2, InitialWait: time.Millisecond}
	r := Retry(context.Background(), opts, func(context.Context) Result[int] {
		calls++
		return Errf[int]("always fails")
	})
	if r.IsOk() {
		t.Fatal("expected failure")
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestRetry_StopsOnRetryIf(t *testing.T) {
	permanent := errors.New("permanent")
	calls := 0
	opts := RetryOpts{
		MaxAttempts: 5,
		InitialWait: time.Millisecond,
		RetryIf:     func(err error) bool { return !errors.Is(err, permanent) },
	}
	r := Retry(context.Background(), opts, func(context.Context) Result[int] {
		calls++
		return Err[int](permanent)
	})
	if r.IsOk() {
		t.Fatal("expected failure")
	}
	if calls != 1 {
		t.Errorf("permanent error should not be retried, got %d calls", calls)
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	opts := RetryOpts{MaxAttempts: 3, InitialWait: 50 * time.Millisecond}
	r := Retry(ctx, opts, func(context.Context) Result[int] {
		return Errf[int]("transient")
	})
	_, err := r.Unwrap()
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
