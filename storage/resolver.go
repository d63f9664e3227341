package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/formvault/document-storage-backend/interfaces"
)

// Resolver turns the active BackendConfiguration into a usable backend. It
// queries the configuration source on every call and never caches the
// result, so a runtime backend switch takes effect on the very next request.
//
// Selection policy: a remote configuration that is missing credentials or
// whose client cannot be constructed resolves to the local backend with a
// warning. Uploads stay available even when remote storage is misconfigured;
// the backend actually chosen is observable through Kind() on the result.
type Resolver struct {
	source    interfaces.BackendConfigSource
	localRoot string
	obs       Observer
	log       *slog.Logger
}

// NewResolver creates a resolver that falls back to a local backend rooted
// at localRoot. A nil observer disables instrumentation.
func NewResolver(source interfaces.BackendConfigSource, localRoot string, obs Observer, log *slog.Logger) *Resolver {
	if obs == nil {
		obs = NewNopObserver()
	}
	return &Resolver{
		source:    source,
		localRoot: localRoot,
		obs:       obs,
		log:       log,
	}
}

// Resolve returns the backend for the configuration active right now.
func (r *Resolver) Resolve(ctx context.Context) (interfaces.StorageBackend, error) {
	cfg, err := r.source.BackendConfig(ctx)
	if err != nil {
		r.log.Warn("Failed to read backend configuration, falling back to local storage", "err", err)
		return r.local()
	}

	if cfg.Kind != interfaces.BackendRemote {
		return r.local()
	}

	if !cfg.RemoteReady() {
		r.log.Warn("Remote backend configured without complete credentials, falling back to local storage",
			slog.String("bucket", cfg.Bucket),
			slog.String("endpoint", cfg.Endpoint))
		return r.local()
	}

	remote, err := NewS3Backend(cfg, r.log)
	if err != nil {
		r.log.Warn("Failed to construct remote backend, falling back to local storage",
			slog.String("bucket", cfg.Bucket),
			"err", err)
		return r.local()
	}
	return instrument(remote, r.obs), nil
}

func (r *Resolver) local() (interfaces.StorageBackend, error) {
	local, err := NewLocalBackend(r.localRoot, r.log)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	return instrument(local, r.obs), nil
}
