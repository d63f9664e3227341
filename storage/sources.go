package storage

import (
	"context"
	"sync"

	"github.com/formvault/document-storage-backend/interfaces"
)

// StaticConfigSource always returns the same configuration. Suitable for
// deployments whose backend never changes at runtime, and for tests.
type StaticConfigSource struct {
	cfg interfaces.BackendConfiguration
}

// NewStaticConfigSource wraps a fixed configuration.
func NewStaticConfigSource(cfg interfaces.BackendConfiguration) *StaticConfigSource {
	if cfg.Kind == "" {
		cfg.Kind = interfaces.BackendLocal
	}
	return &StaticConfigSource{cfg: cfg}
}

// BackendConfig returns the fixed configuration.
func (s *StaticConfigSource) BackendConfig(ctx context.Context) (interfaces.BackendConfiguration, error) {
	return s.cfg, nil
}

// RuntimeConfigSource holds a configuration that operators can replace while
// the service runs. Since resolution queries the source on every call, an
// update is picked up by the next request without a restart.
type RuntimeConfigSource struct {
	mu  sync.RWMutex
	cfg interfaces.BackendConfiguration
}

// NewRuntimeConfigSource seeds the source with an initial configuration.
func NewRuntimeConfigSource(initial interfaces.BackendConfiguration) *RuntimeConfigSource {
	if initial.Kind == "" {
		initial.Kind = interfaces.BackendLocal
	}
	return &RuntimeConfigSource{cfg: initial}
}

// BackendConfig returns the most recently set configuration.
func (s *RuntimeConfigSource) BackendConfig(ctx context.Context) (interfaces.BackendConfiguration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg, nil
}

// Update replaces the active configuration. An empty kind defaults to local.
func (s *RuntimeConfigSource) Update(cfg interfaces.BackendConfiguration) {
	if cfg.Kind == "" {
		cfg.Kind = interfaces.BackendLocal
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}
