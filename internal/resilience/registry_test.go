package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelmodel/modechoice/internal/resilience"
)

func TestRegistry_RegisterAndGetHealth(t *testing.T) {
	registry := resilience.NewRegistry()
	cfg := resilience.DefaultExecutorConfig("network-store")
	cfg.Registry = registry

	_ = resilience.NewExecutor[int](cfg)

	assert.Equal(t, 1, registry.SourceCount())

	health := registry.GetHealth("network-store")
	require.NotNil(t, health)
	assert.Equal(t, "network-store", health.Name)
	assert.Equal(t, gobreaker.StateClosed, health.CircuitState)
	assert.True(t, health.IsHealthy())
	assert.False(t, health.IsDegraded())
	assert.False(t, health.IsUnhealthy())
}

func TestRegistry_Unregister(t *testing.T) {
	registry := resilience.NewRegistry()
	cfg := resilience.DefaultExecutorConfig("network-store")
	cfg.Registry = registry

	_ = resilience.NewExecutor[int](cfg)
	registry.Unregister("network-store")

	assert.Equal(t, 0, registry.SourceCount())
	assert.Nil(t, registry.GetHealth("network-store"))
}

func TestRegistry_RecordsExecutorOutcomes(t *testing.T) {
	registry := resilience.NewRegistry()
	cfg := fastConfig("network-store")
	cfg.MaxRetries = 1
	cfg.Registry = registry
	exec := resilience.NewExecutor[int](cfg)

	health := registry.GetHealth("network-store")
	require.NotNil(t, health)
	assert.Nil(t, health.LastSuccessAt)
	assert.Nil(t, health.LastFailureAt)

	_, err := exec.Execute(context.Background(), func(context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)

	health = registry.GetHealth("network-store")
	require.NotNil(t, health.LastSuccessAt)
	assert.WithinDuration(t, time.Now(), *health.LastSuccessAt, time.Second)

	_, err = exec.Execute(context.Background(), func(context.Context) (int, error) {
		return 0, errors.New("connection refused")
	})
	require.Error(t, err)

	health = registry.GetHealth("network-store")
	require.NotNil(t, health.LastFailureAt)
	assert.Equal(t, "connection refused", health.LastError)
}

func TestRegistry_RecordUnknownSourceIgnored(t *testing.T) {
	registry := resilience.NewRegistry()

	registry.RecordSuccess("missing")
	registry.RecordFailure("missing", errors.New("boom"))

	assert.Nil(t, registry.GetHealth("missing"))
}

func TestRegistry_GetAllHealthSorted(t *testing.T) {
	registry := resilience.NewRegistry()
	for _, name := range []string{"zones", "skims", "rail"} {
		cfg := resilience.DefaultExecutorConfig(name)
		cfg.Registry = registry
		_ = resilience.NewExecutor[int](cfg)
	}

	all := registry.GetAllHealth()
	require.Len(t, all, 3)
	assert.Equal(t, "rail", all[0].Name)
	assert.Equal(t, "skims", all[1].Name)
	assert.Equal(t, "zones", all[2].Name)
}
