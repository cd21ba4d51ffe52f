package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/expense-tracker/internal/service"
)

func fastRetry(attempts int) service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestWithRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, func() error {
			calls++
			if calls < 3 {
				return &RetryableError{Err: errors.New("unavailable"), Retryable: true}
			}
			return nil
		}, fastRetry(5))
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on permanent failure", func(t *testing.T) {
		calls := 0
		permanent := errors.New("invalid token")
		err := WithRetry(ctx, func() error {
			calls++
			return permanent
		}, fastRetry(5))
		require.ErrorIs(t, err, permanent)
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		cause := errors.New("unavailable")
		err := WithRetry(ctx, func() error {
			calls++
			return Retryable(cause)
		}, fastRetry(3))
		require.ErrorIs(t, err, ErrMaxRetries)
		require.ErrorIs(t, err, cause)
		assert.Equal(t, 3, calls)
	})

	t.Run("honors cancellation", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		err := WithRetry(cancelled, func() error {
			return &RetryableError{Err: errors.New("unavailable"), Retryable: true}
		}, fastRetry(3))
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrRateLimit))
	assert.True(t, IsRetryable(context.DeadlineExceeded))
	assert.True(t, IsRetryable(&RetryableError{Err: errors.New("x"), Retryable: true}))
	assert.False(t, IsRetryable(&RetryableError{Err: errors.New("x"), Retryable: false}))
	assert.False(t, IsRetryable(errors.New("boom")))
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", level.String())

	_, err = ParseLevel("chatty")
	require.ErrorIs(t, err, ErrInvalidConfig)
}
