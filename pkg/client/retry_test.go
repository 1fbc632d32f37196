package client

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fastRetry keeps backoff short so retry tests run quickly.
func fastRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    10 * time.Millisecond,
		MaxBackoff:        40 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func networkErr(msg string) error {
	return &WMSError{ErrorClass: ErrorClassNetwork, Message: "transport error", Err: errors.New(msg)}
}

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", config.MaxAttempts)
	}
	if config.InitialBackoff != 1*time.Second {
		t.Errorf("InitialBackoff = %v, want 1s", config.InitialBackoff)
	}
	if config.MaxBackoff != 10*time.Second {
		t.Errorf("MaxBackoff = %v, want 10s", config.MaxBackoff)
	}
	if config.BackoffMultiplier != 2.0 {
		t.Errorf("BackoffMultiplier = %v, want 2.0", config.BackoffMultiplier)
	}
}

func TestNoRetry(t *testing.T) {
	if got := NoRetry().MaxAttempts; got != 1 {
		t.Errorf("NoRetry().MaxAttempts = %d, want 1", got)
	}
}

func TestRetryWithBackoff_Success(t *testing.T) {
	callCount := 0
	fn := func() error {
		callCount++
		return nil
	}

	err := retryWithBackoff(context.Background(), fastRetry(), fn, classifyError)

	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("Expected 1 call, got %d", callCount)
	}
}

func TestRetryWithBackoff_SuccessAfterRetry(t *testing.T) {
	// Function fails twice, then succeeds
	callCount := 0
	fn := func() error {
		callCount++
		if callCount < 3 {
			return networkErr("connection reset")
		}
		return nil
	}

	start := time.Now()
	err := retryWithBackoff(context.Background(), fastRetry(), fn, classifyError)
	duration := time.Since(start)

	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if callCount != 3 {
		t.Errorf("Expected 3 calls, got %d", callCount)
	}

	// ~10ms + ~20ms of backoff, jitter can shave 20%
	if duration < 20*time.Millisecond {
		t.Errorf("Expected some backoff delay, got %v", duration)
	}
}

func TestRetryWithBackoff_MaxAttemptsExhausted(t *testing.T) {
	callCount := 0
	testErr := networkErr("dial tcp: connection refused")
	fn := func() error {
		callCount++
		return testErr
	}

	err := retryWithBackoff(context.Background(), fastRetry(), fn, classifyError)

	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("Expected ErrRetryExhausted, got %v", err)
	}
	if !errors.Is(err, testErr) {
		t.Errorf("Expected wrapped original error, got %v", err)
	}
	if callCount != 3 {
		t.Errorf("Expected 3 calls (MaxAttempts), got %d", callCount)
	}
}

func TestRetryWithBackoff_SingleAttemptReturnsOriginal(t *testing.T) {
	callCount := 0
	testErr := networkErr("timeout")
	fn := func() error {
		callCount++
		return testErr
	}

	cfg := fastRetry()
	cfg.MaxAttempts = 1
	err := retryWithBackoff(context.Background(), cfg, fn, classifyError)

	if callCount != 1 {
		t.Errorf("Expected 1 call, got %d", callCount)
	}
	if err != testErr {
		t.Errorf("Expected original error, got %v", err)
	}
}

func TestRetryWithBackoff_ApplicationErrorsNotRetried(t *testing.T) {
	tests := []struct {
		name  string
		class ErrorClass
	}{
		{name: "client", class: ErrorClassClient},
		{name: "server", class: ErrorClassServer},
		{name: "decode", class: ErrorClassDecode},
		{name: "unclassified", class: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			callCount := 0
			testErr := &WMSError{StatusCode: 500, ErrorClass: tt.class, Message: "boom"}
			fn := func() error {
				callCount++
				return testErr
			}

			err := retryWithBackoff(context.Background(), fastRetry(), fn, classifyError)

			if callCount != 1 {
				t.Errorf("Expected 1 call, got %d", callCount)
			}
			if errors.Is(err, ErrRetryExhausted) {
				t.Error("Should not return ErrRetryExhausted when no retry was attempted")
			}
			if !errors.Is(err, testErr) {
				t.Errorf("Expected original error, got %v", err)
			}
		})
	}
}

func TestRetryWithBackoff_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	callCount := 0
	fn := func() error {
		callCount++
		if callCount == 1 {
			cancel()
		}
		return networkErr("error")
	}

	err := retryWithBackoff(ctx, fastRetry(), fn, classifyError)

	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !errors.Is(err, ErrContextCancelled) {
		t.Errorf("Expected ErrContextCancelled, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("Expected 1 call due to cancellation, got %d", callCount)
	}
}

func TestRetryWithBackoff_ExponentialBackoff(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    50 * time.Millisecond,
		MaxBackoff:        time.Second,
		BackoffMultiplier: 2.0,
	}

	timestamps := []time.Time{}
	fn := func() error {
		timestamps = append(timestamps, time.Now())
		return networkErr("error")
	}

	_ = retryWithBackoff(context.Background(), cfg, fn, classifyError)

	if len(timestamps) != 3 {
		t.Fatalf("Expected 3 timestamps, got %d", len(timestamps))
	}

	firstDelay := timestamps[1].Sub(timestamps[0])
	secondDelay := timestamps[2].Sub(timestamps[1])

	// With jitter (±20%), first delay is in [40ms, 60ms]
	if firstDelay < 40*time.Millisecond {
		t.Errorf("First retry delay %v shorter than expected", firstDelay)
	}

	// Second delay is ~100ms, at least 80ms
	if secondDelay < 80*time.Millisecond {
		t.Errorf("Second retry delay %v shorter than expected", secondDelay)
	}
}

func TestRetryConfig_Delay(t *testing.T) {
	config := RetryConfig{
		InitialBackoff:    time.Second,
		MaxBackoff:        3 * time.Second,
		BackoffMultiplier: 10.0,
	}

	tests := []struct {
		retry int
		base  time.Duration
	}{
		{retry: 1, base: time.Second},
		{retry: 2, base: 3 * time.Second},
		{retry: 5, base: 3 * time.Second},
	}

	for _, tt := range tests {
		for i := 0; i < 20; i++ {
			got := config.delay(tt.retry)
			low := time.Duration(float64(tt.base) * 0.8)
			high := time.Duration(float64(tt.base) * 1.2)
			if got < low || got > high {
				t.Errorf("delay(%d) = %v, want within [%v, %v]", tt.retry, got, low, high)
			}
		}
	}
}
