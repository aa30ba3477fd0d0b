package httpclient

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"
)

func TestBackoff_ExponentialGrowth(t *testing.T) {
	t.Parallel()

	cfg := retryConfig{
		maxAttempts:     5,
		initialInterval: 100 * time.Millisecond,
		maxInterval:     10 * time.Second,
		multiplier:      2.0,
	}

	tests := []struct {
		attempt int
		base    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
	}

	for _, tt := range tests {
		delay := backoff(tt.attempt, cfg)

		// Jitter is +-25% of the base delay.
		minDelay := time.Duration(float64(tt.base) * (1 - jitterFraction))
		maxDelay := time.Duration(float64(tt.base) * (1 + jitterFraction))

		if delay < minDelay || delay > maxDelay {
			t.Errorf("backoff(%d) = %v, want in [%v, %v]", tt.attempt, delay, minDelay, maxDelay)
		}
	}
}

func TestBackoff_CappedAtMaxInterval(t *testing.T) {
	t.Parallel()

	cfg := retryConfig{
		maxAttempts:     20,
		initialInterval: 100 * time.Millisecond,
		maxInterval:     time.Second,
		multiplier:      2.0,
	}

	// Attempt 10 would be ~51s uncapped.
	delay := backoff(10, cfg)

	maxWithJitter := time.Duration(float64(time.Second) * (1 + jitterFraction))
	if delay > maxWithJitter {
		t.Errorf("backoff(10) = %v, want <= %v", delay, maxWithJitter)
	}
}

func TestBackoff_NeverNegative(t *testing.T) {
	t.Parallel()

	cfg := retryConfig{
		maxAttempts:     3,
		initialInterval: time.Nanosecond,
		maxInterval:     time.Nanosecond,
		multiplier:      1.0,
	}

	for range 100 {
		if delay := backoff(1, cfg); delay < 0 {
			t.Fatalf("backoff returned negative delay %v", delay)
		}
	}
}

type fakeNetError struct{}

func (fakeNetError) Error() string   { return "connection refused" }
func (fakeNetError) Timeout() bool   { return true }
func (fakeNetError) Temporary() bool { return true }

var _ net.Error = fakeNetError{}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"context canceled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, false},
		{"wrapped cancellation", errors.Join(errors.New("doing request"), context.Canceled), false},
		{"network error", fakeNetError{}, true},
		{"generic error", errors.New("connection reset"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := isRetryable(tt.err); got != tt.want {
				t.Errorf("isRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsRetryableStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		want   bool
	}{
		{http.StatusOK, false},
		{http.StatusCreated, false},
		{http.StatusBadRequest, false},
		{http.StatusNotFound, false},
		{http.StatusConflict, false},
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
		{http.StatusServiceUnavailable, true},
	}

	for _, tt := range tests {
		if got := isRetryableStatus(tt.status); got != tt.want {
			t.Errorf("isRetryableStatus(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestSecureRandFloat64_Range(t *testing.T) {
	t.Parallel()

	for range 1000 {
		v := secureRandFloat64()
		if v < 0 || v >= 1 {
			t.Fatalf("secureRandFloat64() = %v, want in [0, 1)", v)
		}
	}
}
