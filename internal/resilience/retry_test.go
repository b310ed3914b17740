package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() RetryConfig {
	config := SQLiteRetryConfig()
	config.InitialDelay = time.Millisecond
	config.MaxDelay = 5 * time.Millisecond
	config.JitterEnabled = false
	return config
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := RetryWithConfig(context.Background(), fastConfig(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("database is locked")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryStopsOnNonRetryableError(t *testing.T) {
	attempts := 0
	permanent := errors.New("UNIQUE constraint failed: applicants.phone")

	err := RetryWithConfig(context.Background(), fastConfig(), func() error {
		attempts++
		return permanent
	})

	assert.Equal(t, permanent, err)
	assert.Equal(t, 1, attempts, "non-retryable errors should not be retried")
}

func TestRetryExhaustsAttempts(t *testing.T) {
	attempts := 0
	locked := errors.New("database table is locked")

	err := RetryWithConfig(context.Background(), fastConfig(), func() error {
		attempts++
		return locked
	})

	assert.Equal(t, locked, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := RetryWithConfig(ctx, fastConfig(), func() error {
		attempts++
		return errors.New("database is locked")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, attempts)
}

func TestIsRetryableSQLiteError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil error", nil, false},
		{"busy database", errors.New("database is locked"), true},
		{"locked table", errors.New("database table is locked"), true},
		{"nested transaction", errors.New("cannot start a transaction within a transaction"), true},
		{"io failure", errors.New("disk I/O error"), true},
		{"wrapped lock error", errors.New("failed to commit transaction: database is locked"), true},
		{"constraint violation", errors.New("UNIQUE constraint failed: applicants.phone"), false},
		{"missing row", errors.New("sql: no rows in result set"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, IsRetryableSQLiteError(tt.err))
		})
	}
}

func TestCalculateDelayBackoffAndCap(t *testing.T) {
	config := RetryConfig{
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      300 * time.Millisecond,
		BackoffFactor: 2.0,
		JitterEnabled: false,
	}

	assert.Equal(t, 100*time.Millisecond, calculateDelay(config, 0))
	assert.Equal(t, 200*time.Millisecond, calculateDelay(config, 1))
	assert.Equal(t, 300*time.Millisecond, calculateDelay(config, 2), "delay should be capped at MaxDelay")
	assert.Equal(t, 300*time.Millisecond, calculateDelay(config, 5))
}

func TestCalculateDelayJitterStaysBounded(t *testing.T) {
	config := SQLiteRetryConfig()

	for i := 0; i < 50; i++ {
		delay := calculateDelay(config, 0)
		assert.GreaterOrEqual(t, delay, config.InitialDelay)
		assert.Less(t, delay, config.InitialDelay+config.InitialDelay/10+time.Millisecond)
	}
}

func TestSQLiteRetryConfigMatchesContention(t *testing.T) {
	config := SQLiteRetryConfig()

	assert.Equal(t, 3, config.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, config.InitialDelay)
	assert.True(t, config.JitterEnabled)
	require.NotNil(t, config.RetryableErrors)
	assert.True(t, config.RetryableErrors(errors.New("database is locked")))
	assert.False(t, config.RetryableErrors(errors.New("syntax error")))
}
