package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// RetryConfig configures retry behavior for model calls.
type RetryConfig struct {
	MaxRetries      int           // retry attempts after the first call
	InitialInterval time.Duration // first backoff interval
	MaxInterval     time.Duration // backoff cap
}

// DefaultRetryConfig returns sensible defaults for LLM API calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
	}
}

// retryablePatterns groups transient-error substrings by category.
// Matched case-insensitively against err.Error().
//
// NOTE: string matching because Genkit and provider SDKs do not expose
// typed errors for transient failures. Re-evaluate if Genkit adds
// structured error types.
var retryablePatterns = [][]string{
	{"rate limit", "quota exceeded", "429"},      // rate limiting
	{"500", "502", "503", "504", "unavailable"},  // transient server errors
	{"connection reset", "timeout", "temporary"}, // network errors
}

// retryableError reports whether err is transient.
func retryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	for _, group := range retryablePatterns {
		for _, sub := range group {
			if strings.Contains(errStr, sub) {
				return true
			}
		}
	}
	return false
}

// generateWithRetry calls the model with rate limiting, circuit
// breaking and exponential backoff. Each attempt waits on the rate
// limiter; non-retryable errors fail immediately.
func (a *Agent) generateWithRetry(ctx context.Context, opts []ai.GenerateOption) (*ai.ModelResponse, error) {
	if a.breaker != nil {
		if err := a.breaker.Allow(); err != nil {
			return nil, err
		}
	}

	var lastErr error
	delay := a.retry.InitialInterval
	start := time.Now()

	for attempt := 0; attempt <= a.retry.MaxRetries; attempt++ {
		if a.limiter != nil {
			if err := a.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limit wait: %w", err)
			}
		}

		resp, err := genkit.Generate(ctx, a.g, opts...)
		if err == nil {
			if a.breaker != nil {
				a.breaker.Success()
			}
			a.logger.Debug("model call succeeded",
				"attempts", attempt+1,
				"elapsed", time.Since(start),
			)
			return resp, nil
		}
		lastErr = err

		if !retryableError(err) {
			if a.breaker != nil {
				a.breaker.Failure()
			}
			return nil, fmt.Errorf("generate: %w", err)
		}
		if attempt == a.retry.MaxRetries {
			break
		}

		a.logger.Debug("retrying model call",
			"attempt", attempt+1,
			"delay", delay,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context canceled during retry: %w", ctx.Err())
		case <-time.After(delay):
			delay = min(delay*2, a.retry.MaxInterval)
		}
	}

	if a.breaker != nil {
		a.breaker.Failure()
	}
	return nil, fmt.Errorf("generate after %d retries (elapsed: %v): %w",
		a.retry.MaxRetries, time.Since(start), lastErr)
}
