package client

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

var (
	wmsRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wms_retries_total",
		Help: "Retries scheduled after a failed attempt, by error class",
	}, []string{"error_class"})

	wmsRetryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wms_retry_backoff_seconds",
		Help:    "Wait before each retry, by error class",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10},
	}, []string{"error_class"})

	wmsRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wms_retry_exhausted_total",
		Help: "Requests abandoned after the last allowed attempt, by error class",
	}, []string{"error_class"})
)

// RetryConfig bounds retries of transport failures.
type RetryConfig struct {
	// MaxAttempts counts the first request. 1 disables retry.
	MaxAttempts int

	// InitialBackoff is the wait before the first retry.
	InitialBackoff time.Duration

	// MaxBackoff caps the wait before any retry.
	MaxBackoff time.Duration

	// BackoffMultiplier grows the wait after each retry.
	BackoffMultiplier float64
}

// DefaultRetryConfig allows three attempts, waiting about 1s then 2s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    time.Second,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// NoRetry returns a configuration performing a single attempt.
func NoRetry() RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.MaxAttempts = 1
	return cfg
}

// delay is the wait before retry number n (1-based), capped at MaxBackoff
// and spread by ±20% jitter.
func (c RetryConfig) delay(n int) time.Duration {
	d := float64(c.InitialBackoff) * math.Pow(c.BackoffMultiplier, float64(n-1))
	if c.MaxBackoff > 0 {
		d = math.Min(d, float64(c.MaxBackoff))
	}
	return time.Duration(d * (0.8 + rand.Float64()*0.4))
}

// sleep waits for d or until ctx ends.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// retryWithBackoff calls fn until it succeeds, fails with a class that is
// not retryable, or MaxAttempts is reached. Non-retryable errors come back
// unchanged; so does the only error of a single-attempt configuration.
func retryWithBackoff(ctx context.Context, config RetryConfig, fn func() error, classify func(error) ErrorClass) error {
	attempts := max(config.MaxAttempts, 1)

	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 1 {
				log.Debug().Int("attempt", attempt).Msg("WMS request recovered after retry")
			}
			return nil
		}

		class := classify(err)
		switch {
		case !class.Retryable():
			return err
		case ctx.Err() != nil:
			return fmt.Errorf("%w: %w", ErrContextCancelled, err)
		case attempts == 1:
			return err
		case attempt == attempts:
			wmsRetryExhaustedTotal.WithLabelValues(string(class)).Inc()
			log.Warn().
				Str("error_class", string(class)).
				Int("attempts", attempts).
				Err(err).
				Msg("Giving up on WMS request")
			return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, attempts, err)
		}

		wait := config.delay(attempt)
		wmsRetriesTotal.WithLabelValues(string(class)).Inc()
		wmsRetryBackoffSeconds.WithLabelValues(string(class)).Observe(wait.Seconds())
		log.Debug().
			Str("error_class", string(class)).
			Int("attempt", attempt).
			Dur("wait", wait).
			Msg("Retrying WMS request")

		if sleep(ctx, wait) != nil {
			return fmt.Errorf("%w: %w", ErrContextCancelled, err)
		}
	}
}
