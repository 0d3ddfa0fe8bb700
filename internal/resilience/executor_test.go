package resilience_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelmodel/modechoice/internal/resilience"
)

var errUnavailable = errors.New("store unavailable")

func fastConfig(name string) resilience.ExecutorConfig {
	cbConfig := resilience.DefaultCircuitBreakerConfig(name)
	// Increase threshold so circuit doesn't trip during test
	cbConfig.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.Requests >= 100
	}
	return resilience.ExecutorConfig{
		Name:            name,
		MaxRetries:      5,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		CircuitBreaker:  &cbConfig,
	}
}

func TestExecutor_Success(t *testing.T) {
	exec := resilience.NewExecutor[int](resilience.DefaultExecutorConfig("test"))

	got, err := exec.Execute(context.Background(), func(context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, "test", exec.Name())
}

func TestExecutor_RetriesTransientFailures(t *testing.T) {
	var attempts atomic.Int32
	exec := resilience.NewExecutor[string](fastConfig("test-retry"))

	got, err := exec.Execute(context.Background(), func(context.Context) (string, error) {
		if attempts.Add(1) < 3 {
			return "", errUnavailable
		}
		return "loaded", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "loaded", got)
	assert.Equal(t, int32(3), attempts.Load(), "should have retried until success")
}

func TestExecutor_GivesUpAfterMaxRetries(t *testing.T) {
	var attempts atomic.Int32
	cfg := fastConfig("test-exhaust")
	cfg.MaxRetries = 2
	exec := resilience.NewExecutor[int](cfg)

	_, err := exec.Execute(context.Background(), func(context.Context) (int, error) {
		attempts.Add(1)
		return 0, errUnavailable
	})
	assert.ErrorIs(t, err, errUnavailable)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestExecutor_PermanentNotRetried(t *testing.T) {
	var attempts atomic.Int32
	exec := resilience.NewExecutor[int](fastConfig("test-permanent"))

	_, err := exec.Execute(context.Background(), func(context.Context) (int, error) {
		attempts.Add(1)
		return 0, resilience.Permanent(errUnavailable)
	})
	assert.ErrorIs(t, err, errUnavailable)
	assert.Equal(t, int32(1), attempts.Load(), "should not retry permanent errors")
}

func TestExecutor_CircuitBreakerTrips(t *testing.T) {
	cbConfig := resilience.CircuitBreakerConfig{
		Name:        "test-trip",
		MaxRequests: 1,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 2
		},
	}
	exec := resilience.NewExecutor[int](resilience.ExecutorConfig{
		Name:            "test-trip",
		MaxRetries:      1,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
		CircuitBreaker:  &cbConfig,
	})

	_, err := exec.Execute(context.Background(), func(context.Context) (int, error) {
		return 0, errUnavailable
	})
	require.Error(t, err)
	assert.Equal(t, gobreaker.StateOpen, exec.CircuitBreakerState())

	var called bool
	_, err = exec.Execute(context.Background(), func(context.Context) (int, error) {
		called = true
		return 1, nil
	})
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.False(t, called)
}

func TestExecutor_AttemptTimeout(t *testing.T) {
	cfg := fastConfig("test-timeout")
	cfg.MaxRetries = 1
	cfg.Timeout = 20 * time.Millisecond
	exec := resilience.NewExecutor[int](cfg)

	_, err := exec.Execute(context.Background(), func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExecutor_ContextCancellation(t *testing.T) {
	exec := resilience.NewExecutor[int](fastConfig("test-cancel"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := exec.Execute(ctx, func(context.Context) (int, error) {
		return 0, errUnavailable
	})
	assert.Error(t, err, "should be canceled")
}

func TestDefaultCircuitBreakerConfig(t *testing.T) {
	cfg := resilience.DefaultCircuitBreakerConfig("test")

	assert.Equal(t, "test", cfg.Name)
	assert.Equal(t, uint32(1), cfg.MaxRequests)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.NotNil(t, cfg.ReadyToTrip)
}

func TestDefaultReadyToTrip(t *testing.T) {
	tests := []struct {
		name     string
		counts   gobreaker.Counts
		expected bool
	}{
		{
			name:     "not enough requests",
			counts:   gobreaker.Counts{Requests: 4, TotalFailures: 2, ConsecutiveFailures: 1},
			expected: false,
		},
		{
			name:     "consecutive failures",
			counts:   gobreaker.Counts{Requests: 3, TotalFailures: 3, ConsecutiveFailures: 3},
			expected: true,
		},
		{
			name:     "enough requests but low failure rate",
			counts:   gobreaker.Counts{Requests: 10, TotalFailures: 4},
			expected: false,
		},
		{
			name:     "enough requests and high failure rate",
			counts:   gobreaker.Counts{Requests: 10, TotalFailures: 5},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, resilience.DefaultReadyToTrip(tt.counts))
		})
	}
}

func TestDefaultExecutorConfig(t *testing.T) {
	cfg := resilience.DefaultExecutorConfig("networks")

	assert.Equal(t, "networks", cfg.Name)
	assert.Equal(t, uint64(3), cfg.MaxRetries)
	assert.Equal(t, 200*time.Millisecond, cfg.InitialInterval)
	assert.Equal(t, 5*time.Second, cfg.MaxInterval)
	assert.NotNil(t, cfg.CircuitBreaker)
}
