package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rohmanhakim/fic-roulette/pkg/failure"
	"github.com/rohmanhakim/fic-roulette/pkg/retry"
	"github.com/rohmanhakim/fic-roulette/pkg/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockError is a mock implementation of failure.ClassifiedError for testing
type mockError struct {
	msg       string
	retryable bool
}

func (m *mockError) Error() string {
	return m.msg
}

func (m *mockError) Severity() failure.Severity {
	if m.retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (m *mockError) IsRetryable() bool {
	return m.retryable
}

func fastParams(maxAttempts int) retry.RetryParam {
	return retry.NewRetryParam(
		time.Millisecond,
		42,
		maxAttempts,
		timeutil.NewBackoffParam(time.Millisecond, 2.0, 10*time.Millisecond),
	)
}

func TestRetry_SuccessOnFirstAttempt(t *testing.T) {
	callCount := 0
	fn := func(attempt int) (string, failure.ClassifiedError) {
		callCount++
		return "success", nil
	}

	result, err := retry.Retry(context.Background(), fastParams(3), fn)

	require.Nil(t, err)
	assert.Equal(t, "success", result)
	assert.Equal(t, 1, callCount)
}

func TestRetry_SuccessAfterRetries(t *testing.T) {
	callCount := 0
	fn := func(attempt int) (int, failure.ClassifiedError) {
		callCount++
		if attempt < 3 {
			return 0, &mockError{msg: "transient", retryable: true}
		}
		return 7, nil
	}

	result, err := retry.Retry(context.Background(), fastParams(5), fn)

	require.Nil(t, err)
	assert.Equal(t, 7, result)
	assert.Equal(t, 3, callCount)
}

func TestRetry_NonRetryableErrorReturnsImmediately(t *testing.T) {
	callCount := 0
	nonRetryable := &mockError{msg: "forbidden", retryable: false}
	fn := func(attempt int) (string, failure.ClassifiedError) {
		callCount++
		return "", nonRetryable
	}

	_, err := retry.Retry(context.Background(), fastParams(5), fn)

	require.NotNil(t, err)
	assert.Same(t, nonRetryable, err)
	assert.Equal(t, 1, callCount)
}

func TestRetry_ExhaustedAttemptsWrapsLastError(t *testing.T) {
	callCount := 0
	fn := func(attempt int) (string, failure.ClassifiedError) {
		callCount++
		return "", &mockError{msg: "still failing", retryable: true}
	}

	_, err := retry.Retry(context.Background(), fastParams(3), fn)

	require.NotNil(t, err)
	assert.Equal(t, 3, callCount)

	var retryErr *retry.RetryError
	require.True(t, errors.As(err, &retryErr))
	assert.Equal(t, retry.ErrExhaustedAttempts, retryErr.Cause)
	assert.Equal(t, 3, retryErr.Attempts)
	assert.True(t, retryErr.IsRetryable())

	var last *mockError
	require.True(t, errors.As(err, &last))
	assert.Equal(t, "still failing", last.msg)
}

func TestRetry_MaxAttemptsLessThanOne(t *testing.T) {
	called := false
	fn := func(attempt int) (string, failure.ClassifiedError) {
		called = true
		return "", nil
	}

	_, err := retry.Retry(context.Background(), fastParams(0), fn)

	require.NotNil(t, err)
	assert.False(t, called)
	var retryErr *retry.RetryError
	require.True(t, errors.As(err, &retryErr))
	assert.Equal(t, retry.ErrZeroAttempt, retryErr.Cause)
}

func TestRetry_StopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	params := retry.NewRetryParam(
		0,
		1,
		5,
		timeutil.NewBackoffParam(time.Minute, 2.0, time.Minute),
	)

	callCount := 0
	fn := func(attempt int) (string, failure.ClassifiedError) {
		callCount++
		cancel()
		return "", &mockError{msg: "transient", retryable: true}
	}

	_, err := retry.Retry(ctx, params, fn)

	require.NotNil(t, err)
	assert.Equal(t, 1, callCount)
	var retryErr *retry.RetryError
	require.True(t, errors.As(err, &retryErr))
	assert.Equal(t, retry.ErrCancelled, retryErr.Cause)
	assert.False(t, retryErr.IsRetryable())
}

func TestRetry_GenericTypeSlice(t *testing.T) {
	fn := func(attempt int) ([]string, failure.ClassifiedError) {
		return []string{"a", "b"}, nil
	}

	result, err := retry.Retry(context.Background(), fastParams(1), fn)

	require.Nil(t, err)
	assert.Equal(t, []string{"a", "b"}, result)
}
