package submit

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sabaqlab/sabaq/internal/api"
	"github.com/sabaqlab/sabaq/internal/assessment"
)

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultRetryConfig is the primary transport's policy: three attempts
// waiting 1s then 2s, never more than 10s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: 1 * time.Second,
		MaxWait:     10 * time.Second,
		Multiplier:  2.0,
	}
}

// Validate checks the policy for values that would never submit.
func (c RetryConfig) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("retry max attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.InitialWait < 0 || c.MaxWait < 0 {
		return fmt.Errorf("retry waits must not be negative")
	}
	if c.Multiplier < 1 {
		return fmt.Errorf("retry multiplier must be at least 1, got %g", c.Multiplier)
	}
	return nil
}

// Backoff returns the wait after the given zero-based failed attempt:
// InitialWait * Multiplier^attempt, capped at MaxWait.
func (c RetryConfig) Backoff(attempt int) time.Duration {
	wait := float64(c.InitialWait) * math.Pow(c.Multiplier, float64(attempt))
	if c.MaxWait > 0 && wait > float64(c.MaxWait) {
		wait = float64(c.MaxWait)
	}
	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}

// RetryTransport is a decorator that retries transient errors with
// exponential backoff.
type RetryTransport struct {
	inner  Transport
	config RetryConfig
}

// WithRetry wraps a Transport with retry logic.
func WithRetry(t Transport, cfg RetryConfig) Transport {
	return &RetryTransport{inner: t, config: cfg}
}

func (r *RetryTransport) Submit(ctx context.Context, rec *Record) (*assessment.Result, error) {
	var lastErr error
	attempts := max(r.config.MaxAttempts, 1)

	for attempt := range attempts {
		res, err := r.inner.Submit(ctx, rec)
		if err == nil {
			return res, nil
		}
		lastErr = err

		if !api.IsTransient(err) {
			return nil, err
		}

		// Last attempt: return without sleeping.
		if attempt == attempts-1 {
			break
		}

		wait := r.config.Backoff(attempt)
		log.Debug().
			Str("transport", r.inner.Name()).
			Int("attempt", attempt+1).
			Dur("wait", wait).
			Err(err).
			Msg("submit attempt failed, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}

	return nil, lastErr
}

func (r *RetryTransport) Name() string {
	return r.inner.Name()
}
