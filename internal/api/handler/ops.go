// Package handler provides HTTP handlers for the modechoice API.
package handler

import (
	"net/http"
	"time"

	"github.com/travelmodel/modechoice/internal/api/models"
	"github.com/travelmodel/modechoice/internal/api/response"
	"github.com/travelmodel/modechoice/internal/network"
	"github.com/travelmodel/modechoice/internal/resilience"
)

// ReadinessSource reports whether an evaluation engine is installed.
// *evaluation.Service implements it.
type ReadinessSource interface {
	Ready() bool
}

// NetworkStats reports the state of the network cache. *network.Service
// implements it.
type NetworkStats interface {
	CacheStats() network.CacheStats
}

// SourceHealth reports the circuit breaker state of guarded stores.
// *resilience.Registry implements it.
type SourceHealth interface {
	GetAllHealth() []*resilience.SourceHealth
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	engines   ReadinessSource
	networks  NetworkStats
	sources   SourceHealth
}

// NewOpsHandler creates a new OpsHandler. engines and networks may be nil,
// in which case readiness is reported as failing. sources may be nil.
func NewOpsHandler(version, buildTime string, engines ReadinessSource, networks NetworkStats, sources SourceHealth) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		engines:   engines,
		networks:  networks,
		sources:   sources,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check. The service
// is ready once a network snapshot has been loaded and an engine built.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	ready := h.engines != nil && h.engines.Ready()
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}
	if !ready {
		health.Status = models.HealthStatusFail
		response.JSON(w, r, http.StatusServiceUnavailable, health)
		return
	}
	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	netStatus := h.networkStatus()

	engine := models.SubsystemStatus{Name: "evaluation", Status: models.HealthStatusOK}
	if h.engines == nil || !h.engines.Ready() {
		engine.Status = models.HealthStatusFail
		engine.Detail = strPtr("no engine installed")
	}

	networks := models.SubsystemStatus{Name: "networks", Status: models.HealthStatusOK}
	switch {
	case !netStatus.Loaded:
		networks.Status = models.HealthStatusFail
		networks.Detail = strPtr("no snapshot loaded")
	case !netStatus.Fresh:
		networks.Status = models.HealthStatusDegraded
		networks.Detail = strPtr("serving stale snapshot")
	}

	subsystems := []models.SubsystemStatus{engine, networks}
	if h.sources != nil {
		for _, src := range h.sources.GetAllHealth() {
			subsystems = append(subsystems, sourceStatus(src))
		}
	}

	statuses := make([]models.HealthStatus, len(subsystems))
	for i, sub := range subsystems {
		statuses[i] = sub.Status
	}

	status := models.SystemStatus{
		Status:     worst(statuses...),
		Time:       models.Timestamp(time.Now()),
		Subsystems: subsystems,
		Network:    netStatus,
	}
	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) networkStatus() models.NetworkStatus {
	if h.networks == nil {
		return models.NetworkStatus{Networks: []string{}}
	}
	stats := h.networks.CacheStats()
	status := models.NetworkStatus{
		Loaded:   stats.Loaded,
		Fresh:    stats.Fresh,
		Zones:    stats.Zones,
		Networks: stats.Networks,
	}
	if status.Networks == nil {
		status.Networks = []string{}
	}
	if stats.Loaded {
		ts := models.Timestamp(stats.FetchedAt)
		status.FetchedAt = &ts
	}
	return status
}

// sourceStatus maps a store's breaker state. An open breaker while a
// snapshot is still cached only degrades the service.
func sourceStatus(src *resilience.SourceHealth) models.SubsystemStatus {
	status := models.SubsystemStatus{Name: src.Name, Status: models.HealthStatusOK}
	switch {
	case src.IsUnhealthy():
		status.Status = models.HealthStatusDegraded
		status.Detail = strPtr("circuit open: " + src.LastError)
	case src.IsDegraded():
		status.Status = models.HealthStatusDegraded
		status.Detail = strPtr("circuit half-open")
	case src.LastFailureAt != nil && (src.LastSuccessAt == nil || src.LastFailureAt.After(*src.LastSuccessAt)):
		status.Detail = strPtr("last load failed: " + src.LastError)
	}
	return status
}

func worst(statuses ...models.HealthStatus) models.HealthStatus {
	result := models.HealthStatusOK
	for _, s := range statuses {
		switch {
		case s == models.HealthStatusFail:
			return s
		case s == models.HealthStatusDegraded:
			result = s
		}
	}
	return result
}

func strPtr(s string) *string {
	return &s
}
