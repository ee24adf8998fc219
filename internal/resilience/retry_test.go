package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/jdcastano06/FlowNote/internal/errors"
)

func TestRetrySucceedsFirst(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), DefaultRetryConfig(), func() error {
		calls++
		return nil
	})

	if err != nil {
		t.Errorf("Retry() = %v, want nil", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond}
	calls := 0
	err := Retry(context.Background(), cfg, func() error {
		calls++
		if calls < 3 {
			return apperrors.New(apperrors.CodeUnavailable, "transient")
		}
		return nil
	})

	if err != nil {
		t.Errorf("Retry() = %v, want nil", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryExhaustsRetries(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond}
	calls := 0
	retryErr := apperrors.New(apperrors.CodeUnavailable, "always fail")

	err := Retry(context.Background(), cfg, func() error {
		calls++
		return retryErr
	})

	if !errors.Is(err, retryErr) {
		t.Errorf("Retry() = %v, want %v", err, retryErr)
	}
	if calls != 3 { // initial + 2 retries
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryNonRetryableError(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 5, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond}
	calls := 0
	nonRetryErr := apperrors.New(apperrors.CodeInvalidArgument, "bad request")

	err := Retry(context.Background(), cfg, func() error {
		calls++
		return nonRetryErr
	})

	if !errors.Is(err, nonRetryErr) {
		t.Errorf("Retry() = %v, want %v", err, nonRetryErr)
	}
	if calls != 1 { // Should not retry non-retryable errors
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := RetryConfig{MaxRetries: 10, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second}
	calls := 0

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := Retry(ctx, cfg, func() error {
		calls++
		return apperrors.New(apperrors.CodeUnavailable, "fail")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Retry() = %v, want context.Canceled", err)
	}
}

func TestRetrySchedule(t *testing.T) {
	cfg := RetryConfig{
		MaxRetries:  3,
		Schedule:    []time.Duration{time.Millisecond, 2 * time.Millisecond, 4 * time.Millisecond},
		IsRetryable: func(error) bool { return true },
	}
	calls := 0
	err := Retry(context.Background(), cfg, func() error {
		calls++
		return errors.New("fail")
	})

	if err == nil {
		t.Error("Retry() = nil, want error")
	}
	if calls != 4 { // initial + 3 retries
		t.Errorf("calls = %d, want 4", calls)
	}
}

func TestInsightRetryConfig(t *testing.T) {
	cfg := InsightRetryConfig()
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	for i, d := range cfg.Schedule {
		if d != want[i] {
			t.Errorf("Schedule[%d] = %v, want %v", i, d, want[i])
		}
	}
	if !cfg.IsRetryable(errors.New("anything")) {
		t.Error("insight retries should treat all errors as retryable")
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unavailable", apperrors.New(apperrors.CodeUnavailable, "x"), true},
		{"rate limited", apperrors.New(apperrors.CodeRateLimited, "x"), true},
		{"timeout", apperrors.New(apperrors.CodeTimeout, "x"), true},
		{"invalid argument", apperrors.New(apperrors.CodeInvalidArgument, "x"), false},
		{"config missing", apperrors.New(apperrors.CodeConfigMissing, "x"), false},
		{"plain network error", errors.New("connection reset"), true},
	}

	for _, tt := range tests {
		if got := IsRetryableError(tt.err); got != tt.want {
			t.Errorf("IsRetryableError(%s) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestIsRetryableStatus(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{429, true},
		{500, true},
		{502, true},
		{503, true},
		{504, true},
		{400, false},
		{401, false},
		{404, false},
	}

	for _, tt := range tests {
		if got := IsRetryableStatus(tt.status); got != tt.want {
			t.Errorf("IsRetryableStatus(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestBackoffDelay(t *testing.T) {
	cfg := RetryConfig{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, JitterFactor: 0.0001}

	d0 := cfg.delay(0)
	d1 := cfg.delay(1)
	d2 := cfg.delay(2)

	if d0 < 99*time.Millisecond || d0 > 101*time.Millisecond {
		t.Errorf("attempt 0 delay = %v, want ~100ms", d0)
	}
	if d1 < 199*time.Millisecond || d1 > 201*time.Millisecond {
		t.Errorf("attempt 1 delay = %v, want ~200ms", d1)
	}
	if d2 < 399*time.Millisecond || d2 > 401*time.Millisecond {
		t.Errorf("attempt 2 delay = %v, want ~400ms", d2)
	}
}

func TestScheduleDelayClamped(t *testing.T) {
	cfg := RetryConfig{Schedule: []time.Duration{time.Second, 2 * time.Second}}
	if got := cfg.delay(5); got != 2*time.Second {
		t.Errorf("delay(5) = %v, want last schedule entry 2s", got)
	}
}
