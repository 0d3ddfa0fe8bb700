package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// Predefined errors for resilient operations.
var (
	// ErrCircuitOpen is returned when the circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// PermanentError marks an error that must not be retried. It still counts
// as a failure for the circuit breaker.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so Execute returns it without retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// ExecutorConfig holds configuration for an Executor.
type ExecutorConfig struct {
	// Name identifies the guarded operation.
	Name string

	// Timeout bounds a single attempt. Zero disables the per-attempt deadline.
	Timeout time.Duration

	// MaxRetries is the maximum number of retry attempts.
	// Default: 3
	MaxRetries uint64

	// InitialInterval is the initial retry backoff interval.
	// Default: 200ms
	InitialInterval time.Duration

	// MaxInterval is the maximum retry backoff interval.
	// Default: 5 seconds
	MaxInterval time.Duration

	// CircuitBreaker is the circuit breaker configuration.
	// If nil, uses DefaultCircuitBreakerConfig.
	CircuitBreaker *CircuitBreakerConfig

	// Registry receives the executor and its outcomes when set.
	Registry *Registry
}

// DefaultExecutorConfig returns sensible defaults for store loads.
func DefaultExecutorConfig(name string) ExecutorConfig {
	cbConfig := DefaultCircuitBreakerConfig(name)
	return ExecutorConfig{
		Name:            name,
		Timeout:         2 * time.Minute,
		MaxRetries:      3,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		CircuitBreaker:  &cbConfig,
	}
}

// Executor runs an operation through a circuit breaker with exponential
// backoff retries.
type Executor[T any] struct {
	circuitBreaker *gobreaker.CircuitBreaker[T]
	config         ExecutorConfig
}

// NewExecutor creates a new executor.
func NewExecutor[T any](cfg ExecutorConfig) *Executor[T] {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 200 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = 5 * time.Second
	}

	cbConfig := DefaultCircuitBreakerConfig(cfg.Name)
	if cfg.CircuitBreaker != nil {
		cbConfig = *cfg.CircuitBreaker
	}

	e := &Executor[T]{
		circuitBreaker: NewCircuitBreaker[T](cbConfig),
		config:         cfg,
	}
	if cfg.Registry != nil {
		cfg.Registry.Register(cfg.Name, e)
	}
	return e
}

// Name returns the executor name.
func (e *Executor[T]) Name() string {
	return e.config.Name
}

// Execute runs op until it succeeds, returns a permanent error, exhausts the
// retries or ctx is done. Returns ErrCircuitOpen without calling op when the
// breaker is open.
func (e *Executor[T]) Execute(ctx context.Context, op func(ctx context.Context) (T, error)) (T, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.config.InitialInterval
	bo.MaxInterval = e.config.MaxInterval
	bo.MaxElapsedTime = 0 // retries are bounded by WithMaxRetries

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, e.config.MaxRetries), ctx)

	var result T
	operation := func() error {
		res, err := e.circuitBreaker.Execute(func() (T, error) {
			attemptCtx := ctx
			if e.config.Timeout > 0 {
				var cancel context.CancelFunc
				attemptCtx, cancel = context.WithTimeout(ctx, e.config.Timeout)
				defer cancel()
			}
			return op(attemptCtx)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}
			var perm *PermanentError
			if errors.As(err, &perm) {
				return backoff.Permanent(perm.Err)
			}
			return err
		}
		result = res
		return nil
	}

	err := backoff.Retry(operation, policy)
	if e.config.Registry != nil {
		if err != nil {
			e.config.Registry.RecordFailure(e.config.Name, err)
		} else {
			e.config.Registry.RecordSuccess(e.config.Name)
		}
	}
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// CircuitBreakerState returns the current state of the circuit breaker.
func (e *Executor[T]) CircuitBreakerState() gobreaker.State {
	return e.circuitBreaker.State()
}

// CircuitBreakerCounts returns the current counts of the circuit breaker.
func (e *Executor[T]) CircuitBreakerCounts() gobreaker.Counts {
	return e.circuitBreaker.Counts()
}
