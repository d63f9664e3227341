// Package storage provides named-object persistence with a local filesystem
// backend, an S3-compatible remote backend, and per-call backend resolution.
//
// # Backends
//
// LocalBackend writes objects as flat files under a dedicated upload root
// created with 0750 permissions; files are written 0640 with O_EXCL so an
// existing name is never overwritten, and partial files are removed when a
// write fails or is cancelled.
//
// S3Backend talks to Amazon S3 or an S3-compatible service (custom endpoint,
// path-style addressing) using per-configuration static credentials. It adds
// presigned GET URLs, which the local backend reports as unsupported.
//
// # Resolution
//
// Resolver selects the backend for each call by querying a
// BackendConfigSource. Nothing is cached: switching the configured kind, or
// repairing remote credentials, takes effect on the next request. A remote
// configuration without complete credentials, or whose client cannot be
// constructed, degrades to the local backend with a warning; the chosen
// backend is observable through Kind() on the returned backend and on store
// results.
//
// Two configuration sources ship: StaticConfigSource for fixed deployments
// and RuntimeConfigSource for operator-updatable switching at runtime.
//
// # Instrumentation
//
// The resolver wraps every backend it hands out with an Observer that
// records operation durations, error counts and uploaded bytes.
// PrometheusObserver exports these; NewNopObserver disables them.
package storage
