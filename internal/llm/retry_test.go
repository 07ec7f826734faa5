package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateWithRetry_DeadlinePassesThroughUnretried(t *testing.T) {
	// An expired caller deadline surfaces as a bare context error, never a
	// CallError, so it must come back after exactly one call with no backoff.
	fake := &Fake{Err: context.DeadlineExceeded}

	_, err := generateWithRetry(context.Background(), fake, "prompt")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, fake.Calls(), 1)
}

func TestGenerateWithRetry_CanceledPassesThroughUnretried(t *testing.T) {
	fake := &Fake{Err: context.Canceled}

	_, err := generateWithRetry(context.Background(), fake, "prompt")
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, fake.Calls(), 1)
}

func TestIsRetryable_ContextErrors(t *testing.T) {
	assert.False(t, IsRetryable(context.DeadlineExceeded))
	assert.False(t, IsRetryable(context.Canceled))
}

func TestBackoff_GrowsAndCaps(t *testing.T) {
	for attempt := 0; attempt < 8; attempt++ {
		d := Backoff(attempt)
		assert.GreaterOrEqual(t, d, 1*time.Second)
		assert.Less(t, d, 45*time.Second)
	}
}
