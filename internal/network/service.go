package network

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/travelmodel/modechoice/internal/resilience"
)

// ServiceConfig holds configuration for the network service.
type ServiceConfig struct {
	// Repository is the network data store.
	Repository Repository

	// Executor guards store reads. If nil, one is created with
	// resilience.DefaultExecutorConfig("network-store").
	Executor *resilience.Executor[Dataset]

	// Health receives the default executor's outcomes. Ignored when
	// Executor is set.
	Health *resilience.Registry

	// Logger for service operations.
	Logger zerolog.Logger

	// Metrics records loads and cache lookups. If nil, instruments are
	// no-ops.
	Metrics *Metrics

	// CacheTTL is how long a loaded snapshot is fresh (default: 1 hour).
	CacheTTL time.Duration

	// StaleIfErrorTTL allows serving a stale snapshot when the store fails
	// (default: 24 hours).
	StaleIfErrorTTL time.Duration
}

// Service loads network snapshots from a repository and caches the latest.
type Service struct {
	repo            Repository
	executor        *resilience.Executor[Dataset]
	logger          zerolog.Logger
	metrics         *Metrics
	cacheTTL        time.Duration
	staleIfErrorTTL time.Duration

	mu      sync.RWMutex
	current *cachedSnapshot
}

type cachedSnapshot struct {
	snapshot  *Snapshot
	fetchedAt time.Time
	expiresAt time.Time
}

// NewService creates a new network service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = time.Hour
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 24 * time.Hour
	}

	executor := cfg.Executor
	if executor == nil {
		execCfg := resilience.DefaultExecutorConfig("network-store")
		execCfg.Registry = cfg.Health
		executor = resilience.NewExecutor[Dataset](execCfg)
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = noopMetrics()
	}

	return &Service{
		repo:            cfg.Repository,
		executor:        executor,
		logger:          cfg.Logger,
		metrics:         metrics,
		cacheTTL:        cacheTTL,
		staleIfErrorTTL: staleIfErrorTTL,
	}
}

// Snapshot returns the cached snapshot, loading a new one when the cache is
// empty or expired.
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	s.mu.RLock()
	if c := s.current; c != nil && time.Now().Before(c.expiresAt) {
		s.mu.RUnlock()
		s.metrics.recordCacheHit()
		return c.snapshot, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check cache (prevents thundering herd)
	if c := s.current; c != nil && time.Now().Before(c.expiresAt) {
		s.metrics.recordCacheHit()
		return c.snapshot, nil
	}
	s.metrics.recordCacheMiss()

	snap, err := s.load(ctx, "expired")
	if err != nil {
		if c := s.current; c != nil && time.Now().Before(c.fetchedAt.Add(s.staleIfErrorTTL)) {
			s.logger.Warn().Err(err).
				Time("fetched_at", c.fetchedAt).
				Msg("serving stale network snapshot due to store error")
			return c.snapshot, nil
		}
		return nil, err
	}
	return snap, nil
}

// Reload loads a new snapshot regardless of cache state. On failure the
// cached snapshot is kept and the error returned.
func (s *Service) Reload(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, "reload")
}

// load reads and builds a snapshot. Callers hold s.mu.
func (s *Service) load(ctx context.Context, reason string) (*Snapshot, error) {
	start := time.Now()
	ds, err := s.executor.Execute(ctx, func(ctx context.Context) (Dataset, error) {
		return LoadDataset(ctx, s.repo)
	})
	s.metrics.recordLoad(reason, time.Since(start), err)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load network data")
		return nil, err
	}

	snap, err := Build(ds)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to build network snapshot")
		return nil, err
	}

	now := time.Now()
	s.current = &cachedSnapshot{
		snapshot:  snap,
		fetchedAt: now,
		expiresAt: now.Add(s.cacheTTL),
	}

	s.logger.Info().
		Int("zones", snap.Zones.Len()).
		Strs("networks", snap.Networks.Names()).
		Dur("duration", time.Since(start)).
		Msg("loaded network snapshot")

	return snap, nil
}

// InvalidateCache drops the cached snapshot.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

// CacheStats returns cache statistics.
func (s *Service) CacheStats() CacheStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.current
	if c == nil {
		return CacheStats{}
	}
	return CacheStats{
		Loaded:    true,
		Fresh:     time.Now().Before(c.expiresAt),
		FetchedAt: c.fetchedAt,
		Zones:     c.snapshot.Zones.Len(),
		Networks:  c.snapshot.Networks.Names(),
	}
}

// CacheStats contains cache statistics.
type CacheStats struct {
	Loaded    bool
	Fresh     bool
	FetchedAt time.Time
	Zones     int
	Networks  []string
}
