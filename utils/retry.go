package utils

import (
	"context"
	"fmt"
	"time"
)

// RetryWithBackoff retries a function up to maxRetries times with exponential
// backoff (2^attempt seconds). The context aborts the wait between attempts;
// a cancelled context is returned as-is so callers can distinguish shutdown
// from exhausted retries.
func RetryWithBackoff(ctx context.Context, maxRetries int, fn func() error, logger *Logger) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			logger.Warn("Retrying (attempt %d/%d) after %v...", attempt+1, maxRetries, backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := fn(); err != nil {
			lastErr = err
			logger.Debug("Attempt %d failed: %v", attempt+1, err)
			continue
		}
		return nil
	}
	return fmt.Errorf("all %d attempts failed, last error: %w", maxRetries, lastErr)
}
