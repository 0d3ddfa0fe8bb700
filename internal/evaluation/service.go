package evaluation

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/travelmodel/modechoice/internal/mode"
	"github.com/travelmodel/modechoice/internal/network"
)

// SnapshotSource supplies network snapshots. *network.Service implements it.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*network.Snapshot, error)
	Reload(ctx context.Context) (*network.Snapshot, error)
}

// ServiceConfig holds configuration for the evaluation service.
type ServiceConfig struct {
	Networks        SnapshotSource
	Parameters      mode.Parameters
	VehicleTypes    []string
	AutoVehicleType string
	Metrics         *Metrics
	Logger          zerolog.Logger
}

// Service keeps an Engine bound to the latest network snapshot. A new
// engine is built whenever the snapshot changes; callers holding an older
// engine keep using it until they ask again.
type Service struct {
	cfg    ServiceConfig
	logger zerolog.Logger

	mu     sync.Mutex
	engine atomic.Pointer[Engine]
}

// NewService creates a new evaluation service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{cfg: cfg, logger: cfg.Logger}
}

// Engine returns an engine for the current snapshot. When the snapshot
// source fails, the last engine is served.
func (s *Service) Engine(ctx context.Context) (*Engine, error) {
	snap, err := s.cfg.Networks.Snapshot(ctx)
	if err != nil {
		if cur := s.engine.Load(); cur != nil {
			s.logger.Warn().Err(err).Msg("serving evaluation engine for previous network snapshot")
			return cur, nil
		}
		return nil, err
	}
	if cur := s.engine.Load(); cur != nil && cur.Snapshot() == snap {
		return cur, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check: another caller may have built it.
	if cur := s.engine.Load(); cur != nil && cur.Snapshot() == snap {
		return cur, nil
	}
	return s.install(snap)
}

// Reload forces a fresh snapshot load and rebuilds the engine. On failure
// the current engine stays in place.
func (s *Service) Reload(ctx context.Context) (*Engine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.cfg.Networks.Reload(ctx)
	if err != nil {
		return nil, err
	}
	return s.install(snap)
}

// Ready reports whether an engine has been built.
func (s *Service) Ready() bool {
	return s.engine.Load() != nil
}

// install builds and publishes an engine for snap. Callers hold s.mu.
func (s *Service) install(snap *network.Snapshot) (*Engine, error) {
	e, err := NewEngine(EngineConfig{
		Parameters:      s.cfg.Parameters,
		Snapshot:        snap,
		VehicleTypes:    s.cfg.VehicleTypes,
		AutoVehicleType: s.cfg.AutoVehicleType,
		Metrics:         s.cfg.Metrics,
		Logger:          s.logger,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to build evaluation engine")
		return nil, err
	}
	s.engine.Store(e)

	s.logger.Info().
		Strs("modes", e.ModeNames()).
		Int("zones", snap.Zones.Len()).
		Msg("evaluation engine ready")
	return e, nil
}
