package worker_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelmodel/modechoice/internal/clock"
	"github.com/travelmodel/modechoice/internal/evaluation"
	"github.com/travelmodel/modechoice/internal/household"
	"github.com/travelmodel/modechoice/internal/mode"
	"github.com/travelmodel/modechoice/internal/network"
	"github.com/travelmodel/modechoice/internal/worker"
)

type staticEngine struct {
	engine *evaluation.Engine
	err    error
}

func (s staticEngine) Engine(context.Context) (*evaluation.Engine, error) {
	return s.engine, s.err
}

func testEngine(t *testing.T) *evaluation.Engine {
	t.Helper()
	f, err := os.Open("../network/testdata/network.json")
	require.NoError(t, err)
	defer f.Close()

	repo, err := network.ReadFixture(f)
	require.NoError(t, err)
	ds, err := network.LoadDataset(context.Background(), repo)
	require.NoError(t, err)
	snap, err := network.Build(ds)
	require.NoError(t, err)

	e, err := evaluation.NewEngine(evaluation.EngineConfig{
		Parameters: mode.DefaultParameters(),
		Snapshot:   snap,
		Logger:     zerolog.Nop(),
	})
	require.NoError(t, err)
	return e
}

func commuter(id int) household.Document {
	return household.Document{
		ID:       id,
		HomeZone: 1,
		Vehicles: []string{"Auto"},
		Persons: []household.PersonDocument{{
			ID:      1,
			Age:     40,
			Licence: true,
			TripChains: []household.TripChainDocument{{
				Trips: []household.TripDocument{
					{Origin: 1, Destination: 2, Purpose: "primary_work", TripStartTime: clock.New(7, 30), ActivityStartTime: clock.New(8, 0)},
					{Origin: 2, Destination: 1, Purpose: "home", TripStartTime: clock.New(17, 0), ActivityStartTime: clock.New(17, 30)},
				},
			}},
		}},
	}
}

func batch(n int) []household.Document {
	docs := make([]household.Document, n)
	for i := range docs {
		docs[i] = commuter(i + 1)
	}
	return docs
}

func newJob(t *testing.T, cfg worker.EvaluationConfig) *worker.EvaluationJob {
	return worker.NewEvaluationJob(worker.EvaluationJobConfig{
		Config:  cfg,
		Engines: staticEngine{engine: testEngine(t)},
		Logger:  zerolog.Nop(),
	})
}

func TestDefaultEvaluationConfig(t *testing.T) {
	cfg := worker.DefaultEvaluationConfig()

	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.EngineTimeout)
	assert.Equal(t, 10000, cfg.MaxBatchSize)
	assert.False(t, cfg.KeepResults)
}

func TestEvaluationJob_Run(t *testing.T) {
	job := newJob(t, worker.EvaluationConfig{Concurrency: 3})

	docs := batch(10)
	bad := commuter(99)
	bad.HomeZone = 404
	docs = append(docs, bad)

	result, err := job.Run(context.Background(), docs)
	require.NoError(t, err)

	_, err = uuid.Parse(result.RunID)
	assert.NoError(t, err)
	assert.Equal(t, 11, result.Total)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, 10, result.Summary.Households)
	assert.Equal(t, 20, result.Summary.Trips)
	assert.Equal(t, 1, result.Summary.Failures)
	assert.Equal(t, 20, result.Summary.Modes["Auto"].Feasible)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 99, result.Errors[0].HouseholdID)
	assert.Empty(t, result.Households)
	assert.GreaterOrEqual(t, result.Duration, time.Duration(0))
}

func TestEvaluationJob_ConcurrencyDoesNotChangeCounts(t *testing.T) {
	docs := batch(25)

	serial, err := newJob(t, worker.EvaluationConfig{Concurrency: 1}).Run(context.Background(), docs)
	require.NoError(t, err)
	parallel, err := newJob(t, worker.EvaluationConfig{Concurrency: 8}).Run(context.Background(), docs)
	require.NoError(t, err)

	assert.Equal(t, serial.Summary.Households, parallel.Summary.Households)
	assert.Equal(t, serial.Summary.Trips, parallel.Summary.Trips)
	for name, want := range serial.Summary.Modes {
		got := parallel.Summary.Modes[name]
		assert.Equal(t, want.Feasible, got.Feasible, name)
		assert.Equal(t, want.Infeasible, got.Infeasible, name)
	}
}

func TestEvaluationJob_KeepResults(t *testing.T) {
	job := newJob(t, worker.EvaluationConfig{Concurrency: 2, KeepResults: true})

	result, err := job.Run(context.Background(), batch(5))
	require.NoError(t, err)
	require.Len(t, result.Households, 5)

	ids := make(map[int]bool)
	for _, h := range result.Households {
		ids[h.HouseholdID] = true
		assert.Len(t, h.Trips, 2)
	}
	assert.Len(t, ids, 5)
}

func TestEvaluationJob_ContextCancellation(t *testing.T) {
	job := newJob(t, worker.EvaluationConfig{Concurrency: 2})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := job.Run(ctx, batch(100))
	require.NoError(t, err)
	assert.Equal(t, 100, result.Skipped)
	assert.Equal(t, 0, result.Summary.Households)
}

func TestEvaluationJob_BatchTooLarge(t *testing.T) {
	job := newJob(t, worker.EvaluationConfig{MaxBatchSize: 3})

	_, err := job.Run(context.Background(), batch(4))
	assert.ErrorIs(t, err, worker.ErrBatchTooLarge)
}

func TestEvaluationJob_EngineUnavailable(t *testing.T) {
	job := worker.NewEvaluationJob(worker.EvaluationJobConfig{
		Engines: staticEngine{err: evaluation.ErrNotReady},
		Logger:  zerolog.Nop(),
	})

	_, err := job.Run(context.Background(), batch(1))
	assert.ErrorIs(t, err, evaluation.ErrNotReady)
}

func TestEvaluationJob_Metrics(t *testing.T) {
	job := newJob(t, worker.EvaluationConfig{Concurrency: 2})

	_, err := job.Run(context.Background(), batch(3))
	require.NoError(t, err)
	_, err = job.Run(context.Background(), batch(2))
	require.NoError(t, err)

	m := job.GetMetrics()
	assert.Equal(t, int64(2), m.TotalRuns)
	assert.Equal(t, int64(5), m.HouseholdsEvaluated)
	assert.Equal(t, int64(10), m.TripsEvaluated)
	assert.NotZero(t, m.LastRunAt)

	snapshot := job.MetricsSnapshot()
	assert.Contains(t, snapshot, "total_runs")
	assert.Contains(t, snapshot, "households_evaluated")
	assert.Contains(t, snapshot, "last_run_duration")
}

func message(t *testing.T, msg worker.JobMessage) []byte {
	t.Helper()
	b, err := json.Marshal(msg)
	require.NoError(t, err)
	return b
}

func TestProcessor_Handle(t *testing.T) {
	engine := testEngine(t)
	ready := worker.NewEvaluationJob(worker.EvaluationJobConfig{
		Config:  worker.EvaluationConfig{MaxBatchSize: 5},
		Engines: staticEngine{engine: engine},
		Logger:  zerolog.Nop(),
	})
	down := worker.NewEvaluationJob(worker.EvaluationJobConfig{
		Engines: staticEngine{err: errors.New("no network")},
		Logger:  zerolog.Nop(),
	})

	brokenBatch := batch(2)
	brokenBatch[1].HomeZone = 404

	tests := []struct {
		name string
		job  *worker.EvaluationJob
		body []byte
		want worker.Outcome
	}{
		{
			name: "evaluate batch",
			job:  ready,
			body: message(t, worker.JobMessage{JobType: worker.JobEvaluateBatch, Households: batch(3)}),
			want: worker.Done,
		},
		{
			name: "health check",
			job:  ready,
			body: message(t, worker.JobMessage{JobType: worker.JobHealthCheck}),
			want: worker.Done,
		},
		{
			name: "health check without engine",
			job:  down,
			body: message(t, worker.JobMessage{JobType: worker.JobHealthCheck}),
			want: worker.Retry,
		},
		{
			name: "malformed body",
			job:  ready,
			body: []byte(`{"job_type":`),
			want: worker.Drop,
		},
		{
			name: "unknown job type",
			job:  ready,
			body: message(t, worker.JobMessage{JobType: "provider_refresh"}),
			want: worker.Drop,
		},
		{
			name: "batch too large",
			job:  ready,
			body: message(t, worker.JobMessage{JobType: worker.JobEvaluateBatch, Households: batch(6)}),
			want: worker.Drop,
		},
		{
			name: "failures tolerated",
			job:  ready,
			body: message(t, worker.JobMessage{JobType: worker.JobEvaluateBatch, Households: brokenBatch}),
			want: worker.Done,
		},
		{
			name: "failure ratio exceeded",
			job:  ready,
			body: message(t, worker.JobMessage{JobType: worker.JobEvaluateBatch, Households: brokenBatch, MaxFailureRatio: 0.25}),
			want: worker.Retry,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := worker.NewProcessor(tt.job, zerolog.Nop())
			assert.Equal(t, tt.want, p.Handle(context.Background(), tt.body, zerolog.Nop()))
		})
	}
}
