package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestExecutor(maxRetries int) *Executor {
	return NewExecutor(maxRetries, time.Millisecond, nil)
}

func TestRun_TransientErrorIsBounded(t *testing.T) {
	attempts := 0
	wantErr := &HTTPError{StatusCode: 503}

	err := newTestExecutor(3).Run(context.Background(), "always-503", func(ctx context.Context) error {
		attempts++
		return wantErr
	})

	if attempts != 4 {
		t.Fatalf("expected maxRetries+1 = 4 attempts, got %d", attempts)
	}
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 503 {
		t.Fatalf("expected original HTTPError 503, got %v", err)
	}
}

func TestRun_PermanentErrorNotRetried(t *testing.T) {
	attempts := 0
	wantErr := &HTTPError{StatusCode: 400, Body: "bad request"}

	err := newTestExecutor(5).Run(context.Background(), "always-400", func(ctx context.Context) error {
		attempts++
		return wantErr
	})

	if attempts != 1 {
		t.Fatalf("expected exactly 1 attempt for a 4xx error, got %d", attempts)
	}
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 400 {
		t.Fatalf("expected original HTTPError 400, got %v", err)
	}
}

func TestRun_TransientThenSuccess(t *testing.T) {
	attempts := 0

	err := newTestExecutor(3).Run(context.Background(), "flaky", func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return &HTTPError{StatusCode: 500}
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success after transient failures, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRun_SuccessFirstTry(t *testing.T) {
	attempts := 0
	err := newTestExecutor(3).Run(context.Background(), "ok", func(ctx context.Context) error {
		attempts++
		return nil
	})
	if err != nil || attempts != 1 {
		t.Fatalf("expected single successful attempt, got attempts=%d err=%v", attempts, err)
	}
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"http 500", &HTTPError{StatusCode: 500}, true},
		{"http 429", &HTTPError{StatusCode: 429}, true},
		{"http 404", &HTTPError{StatusCode: 404}, false},
		{"http 401", &HTTPError{StatusCode: 401}, false},
		{"connection reset", errors.New("read tcp: connection reset by peer"), true},
		{"service unavailable", errors.New("assemblyai: service unavailable"), true},
		{"vendor overloaded", errors.New("model is overloaded, try again"), true},
		{"validation", errors.New("invalid audio format"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsTransient(tc.err); got != tc.want {
				t.Fatalf("IsTransient(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
