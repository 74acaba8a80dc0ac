package particle

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"
)

// IsRateLimited returns true if the API rejected the call with 429.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}

// RetryAfter returns the wait a rate-limited reply asked for, or zero.
func RetryAfter(err error) time.Duration {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return apiErr.RetryAfter
	}
	return 0
}

// parseRetryAfter parses the Retry-After header value.
// It handles both delta-seconds (e.g., "120") and HTTP-date formats.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(value); err == nil {
		if delta := time.Until(t); delta > 0 {
			return delta
		}
	}

	return 0
}

// WaitForRateLimit blocks for the wait requested by a rate-limited err.
// It returns immediately for any other error. The library never retries on
// its own; this is for callers that do.
//
// Example:
//
//	for {
//	    err := client.PublishEvent(ctx, ev)
//	    if particle.IsRateLimited(err) {
//	        if err := particle.WaitForRateLimit(ctx, err); err != nil {
//	            return err // Context canceled
//	        }
//	        continue
//	    }
//	    return err
//	}
func WaitForRateLimit(ctx context.Context, err error) error {
	wait := RetryAfter(err)
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
