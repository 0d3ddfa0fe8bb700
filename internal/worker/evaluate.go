package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/travelmodel/modechoice/internal/evaluation"
	"github.com/travelmodel/modechoice/internal/household"
)

// ErrBatchTooLarge is returned when a batch exceeds MaxBatchSize.
var ErrBatchTooLarge = errors.New("batch too large")

// EngineSource supplies the evaluation engine. *evaluation.Service
// implements it.
type EngineSource interface {
	Engine(ctx context.Context) (*evaluation.Engine, error)
}

// EvaluationJob evaluates batches of households on a bounded pool of
// goroutines.
type EvaluationJob struct {
	config  EvaluationConfig
	engines EngineSource
	logger  zerolog.Logger

	metrics *EvaluationMetrics
}

// EvaluationMetrics tracks evaluation job statistics.
type EvaluationMetrics struct {
	mu sync.RWMutex

	// Counters
	TotalRuns           int64
	HouseholdsEvaluated int64
	HouseholdsFailed    int64
	HouseholdsSkipped   int64
	TripsEvaluated      int64

	// Timings
	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// EvaluationJobConfig holds configuration for creating an EvaluationJob.
type EvaluationJobConfig struct {
	Config  EvaluationConfig
	Engines EngineSource
	Logger  zerolog.Logger
}

// NewEvaluationJob creates a new evaluation job.
func NewEvaluationJob(cfg EvaluationJobConfig) *EvaluationJob {
	return &EvaluationJob{
		config:  cfg.Config.withDefaults(),
		engines: cfg.Engines,
		logger:  cfg.Logger,
		metrics: &EvaluationMetrics{},
	}
}

// EvaluationResult contains the outcome of one run.
type EvaluationResult struct {
	RunID     string
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	Total   int
	Skipped int
	Summary evaluation.Summary
	Errors  []EvaluationError

	// Households is only filled when KeepResults is set. Order follows
	// completion, not input.
	Households []*evaluation.HouseholdResult
}

// EvaluationError is a household that could not be evaluated.
type EvaluationError struct {
	HouseholdID int
	Error       string
}

type workerResult struct {
	summary    evaluation.Summary
	errors     []EvaluationError
	households []*evaluation.HouseholdResult
	processed  int
}

// Run evaluates docs. Cancellation is honoured between households; the
// households not started are counted as skipped.
func (j *EvaluationJob) Run(ctx context.Context, docs []household.Document) (*EvaluationResult, error) {
	if len(docs) > j.config.MaxBatchSize {
		return nil, fmt.Errorf("%w: %d households, limit %d", ErrBatchTooLarge, len(docs), j.config.MaxBatchSize)
	}

	startTime := time.Now()
	result := &EvaluationResult{
		RunID:     uuid.NewString(),
		StartTime: startTime,
		Total:     len(docs),
		Summary:   evaluation.NewSummary(),
	}
	logger := j.logger.With().Str("run_id", result.RunID).Logger()

	engineCtx, cancel := context.WithTimeout(ctx, j.config.EngineTimeout)
	engine, err := j.engines.Engine(engineCtx)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("evaluation engine: %w", err)
	}

	logger.Info().
		Int("households", len(docs)).
		Int("concurrency", j.config.Concurrency).
		Msg("starting evaluation job")

	docsChan := make(chan household.Document, len(docs))
	for _, d := range docs {
		docsChan <- d
	}
	close(docsChan)

	// Each worker folds into its own result; they are merged in worker order.
	results := make([]workerResult, j.config.Concurrency)
	names := engine.ModeNames()

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			results[workerID] = j.evaluateWorker(ctx, engine, names, docsChan)
		}(i)
	}
	wg.Wait()

	processed := 0
	for _, wr := range results {
		result.Summary.Merge(wr.summary)
		result.Errors = append(result.Errors, wr.errors...)
		result.Households = append(result.Households, wr.households...)
		processed += wr.processed
	}
	result.Skipped = result.Total - processed

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)
	j.updateMetrics(result)

	logger.Info().
		Dur("duration", result.Duration).
		Int("evaluated", result.Summary.Households).
		Int("failed", result.Summary.Failures).
		Int("skipped", result.Skipped).
		Int("trips", result.Summary.Trips).
		Msg("evaluation job completed")

	return result, nil
}

func (j *EvaluationJob) evaluateWorker(ctx context.Context, engine *evaluation.Engine, names []string, docs <-chan household.Document) workerResult {
	wr := workerResult{summary: evaluation.NewSummary()}
	for doc := range docs {
		select {
		case <-ctx.Done():
			return wr
		default:
		}

		wr.processed++
		h, err := engine.Build(doc)
		if err != nil {
			j.logger.Warn().Err(err).Int("household_id", doc.ID).Msg("skipping household")
			wr.summary.AddFailure()
			wr.errors = append(wr.errors, EvaluationError{HouseholdID: doc.ID, Error: err.Error()})
			continue
		}
		r := engine.EvaluateHousehold(ctx, h)
		wr.summary.Add(r, names)
		if j.config.KeepResults {
			wr.households = append(wr.households, r)
		}
	}
	return wr
}

func (j *EvaluationJob) updateMetrics(result *EvaluationResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.HouseholdsEvaluated += int64(result.Summary.Households)
	j.metrics.HouseholdsFailed += int64(result.Summary.Failures)
	j.metrics.HouseholdsSkipped += int64(result.Skipped)
	j.metrics.TripsEvaluated += int64(result.Summary.Trips)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *EvaluationJob) GetMetrics() EvaluationMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return EvaluationMetrics{
		TotalRuns:           j.metrics.TotalRuns,
		HouseholdsEvaluated: j.metrics.HouseholdsEvaluated,
		HouseholdsFailed:    j.metrics.HouseholdsFailed,
		HouseholdsSkipped:   j.metrics.HouseholdsSkipped,
		TripsEvaluated:      j.metrics.TripsEvaluated,
		LastRunAt:           j.metrics.LastRunAt,
		LastRunDuration:     j.metrics.LastRunDuration,
		TotalDuration:       j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *EvaluationJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":           m.TotalRuns,
		"households_evaluated": m.HouseholdsEvaluated,
		"households_failed":    m.HouseholdsFailed,
		"households_skipped":   m.HouseholdsSkipped,
		"trips_evaluated":      m.TripsEvaluated,
		"last_run_at":          m.LastRunAt,
		"last_run_duration":    m.LastRunDuration.String(),
		"total_duration":       m.TotalDuration.String(),
	}
}
