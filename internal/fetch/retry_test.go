package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExponentialRetryPolicy_ShouldRetry(t *testing.T) {
	p := NewExponentialRetryPolicy()

	t.Run("nil error", func(t *testing.T) {
		assert.False(t, p.ShouldRetry(nil, 1))
	})

	t.Run("attempts exhausted", func(t *testing.T) {
		assert.False(t, p.ShouldRetry(errors.New("boom"), 5))
	})

	t.Run("context cancellation is terminal", func(t *testing.T) {
		assert.False(t, p.ShouldRetry(context.Canceled, 1))
		assert.False(t, p.ShouldRetry(context.DeadlineExceeded, 1))
	})

	t.Run("retryable status codes", func(t *testing.T) {
		for _, code := range []int{429, 500, 502, 503, 504} {
			assert.True(t, p.ShouldRetry(&StatusError{StatusCode: code}, 1), "status %d", code)
		}
	})

	t.Run("non-retryable status codes", func(t *testing.T) {
		for _, code := range []int{400, 401, 403, 404, 410} {
			assert.False(t, p.ShouldRetry(&StatusError{StatusCode: code}, 1), "status %d", code)
		}
	})

	t.Run("generic errors retry", func(t *testing.T) {
		assert.True(t, p.ShouldRetry(errors.New("connection reset"), 1))
	})
}

func TestExponentialRetryPolicy_Backoff(t *testing.T) {
	p := NewExponentialRetryPolicy()
	for attempt := 0; attempt < 8; attempt++ {
		d := p.Backoff(attempt)
		assert.Greater(t, d, time.Duration(0), "attempt %d", attempt)
		assert.LessOrEqual(t, d, p.maxDelay, "attempt %d", attempt)
	}
}

func TestStatusError_Error(t *testing.T) {
	err := &StatusError{URL: "https://a.com/x", StatusCode: 503}
	assert.Equal(t, "GET https://a.com/x: unexpected status 503", err.Error())
}
