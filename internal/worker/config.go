// Package worker runs batch evaluation jobs for modechoice.
package worker

import (
	"time"
)

// EvaluationConfig holds configuration for the batch evaluation job.
type EvaluationConfig struct {
	// Concurrency is the number of households evaluated at once.
	// Default: 4
	Concurrency int

	// EngineTimeout bounds how long a run waits for the evaluation engine
	// to become available.
	// Default: 30 seconds
	EngineTimeout time.Duration

	// MaxBatchSize caps the households accepted in one run.
	// Default: 10000
	MaxBatchSize int

	// KeepResults retains every household result in the run result.
	// Default: false
	KeepResults bool
}

// DefaultEvaluationConfig returns the default evaluation configuration.
func DefaultEvaluationConfig() EvaluationConfig {
	return EvaluationConfig{
		Concurrency:   4,
		EngineTimeout: 30 * time.Second,
		MaxBatchSize:  10000,
	}
}

func (c EvaluationConfig) withDefaults() EvaluationConfig {
	d := DefaultEvaluationConfig()
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
	if c.EngineTimeout <= 0 {
		c.EngineTimeout = d.EngineTimeout
	}
	if c.MaxBatchSize <= 0 {
		c.MaxBatchSize = d.MaxBatchSize
	}
	return c
}
