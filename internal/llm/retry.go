package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"
)

const (
	// DefaultBaseRetryDelay is the base delay for exponential backoff.
	DefaultBaseRetryDelay = 2 * time.Second
	// RateLimitBackoffMultiplier is the multiplier for rate limit backoff (3^n)
	RateLimitBackoffMultiplier = 3
)

// RetryClient decorates a Client with bounded retries and exponential
// backoff. The gateway itself performs no retries; wrap the backend client
// in a RetryClient when resilience is wanted, keeping the cache and audit
// contract independent of resilience policy.
type RetryClient struct {
	inner          Client
	logger         *slog.Logger
	maxRetries     int
	baseRetryDelay time.Duration
}

// NewRetryClient wraps inner with up to maxRetries additional attempts.
func NewRetryClient(inner Client, maxRetries int, logger *slog.Logger) *RetryClient {
	return &RetryClient{
		inner:          inner,
		logger:         logger,
		maxRetries:     maxRetries,
		baseRetryDelay: DefaultBaseRetryDelay,
	}
}

func (c *RetryClient) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * c.baseRetryDelay

			// Rate limit errors get longer delays (3^n: 6s, 18s, 54s)
			var apiErr *APIError
			if errors.As(lastErr, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
				backoff = time.Duration(math.Pow(RateLimitBackoffMultiplier, float64(attempt))) * c.baseRetryDelay
			}

			jitter := time.Duration(float64(backoff) * 0.1 * (2*float64(time.Now().UnixNano()%100)/100 - 1))
			sleepDuration := backoff + jitter

			c.logger.Warn("Retrying model request",
				"attempt", attempt,
				"max_retries", c.maxRetries,
				"backoff", sleepDuration)

			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(sleepDuration):
			}
		}

		response, err := c.inner.Generate(ctx, prompt)
		if err == nil {
			return response, nil
		}

		lastErr = err
		if !isRetryable(err) {
			return "", err
		}
	}

	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

func isRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable
	}
	return false
}
