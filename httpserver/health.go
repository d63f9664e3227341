package httpserver

import (
	"context"
	"fmt"

	"github.com/formvault/document-storage-backend/interfaces"
	"github.com/formvault/document-storage-backend/metadata"
)

// ReadinessProber reports whether the service's dependencies can serve
// requests right now. The readiness endpoint degrades to 503 while it
// returns an error.
type ReadinessProber interface {
	Ready(ctx context.Context) error
}

// ServiceProber probes the active storage backend and the metadata store.
// Store may be nil when metadata health is covered elsewhere.
type ServiceProber struct {
	Resolver interfaces.BackendResolver
	Store    metadata.Store
}

func (p ServiceProber) Ready(ctx context.Context) error {
	backend, err := p.Resolver.Resolve(ctx)
	if err != nil {
		return fmt.Errorf("backend resolution failed: %w", err)
	}
	if !backend.Available(ctx) {
		return fmt.Errorf("%w: %s", interfaces.ErrBackendUnavailable, backend.Name())
	}

	if p.Store != nil {
		if err := p.Store.Healthy(ctx); err != nil {
			return fmt.Errorf("metadata store unhealthy: %w", err)
		}
	}
	return nil
}
