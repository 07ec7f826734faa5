package llm

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// MaxCallRetries bounds transport retries per generation call.
const MaxCallRetries = 3

// IsRetryable reports whether an error is worth retrying. Caller
// cancellation never is.
func IsRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var callErr *CallError
	return errors.As(err, &callErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int63n(int64(base) / 2))
	return base + jitter
}

// generateWithRetry runs gen.Generate, retrying transient failures with
// exponential backoff until the retry budget or the context runs out.
func generateWithRetry(ctx context.Context, gen Generator, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < MaxCallRetries; attempt++ {
		out, err := gen.Generate(ctx, prompt)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return "", err
		}
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", lastErr
}
