package interfaces

import (
	"context"
	"time"
)

// StorageBackend provides named-object persistence. Implementations are the
// local filesystem and S3-compatible object stores; both are constructed per
// call by the resolver, never held across requests.
type StorageBackend interface {
	// Put writes data under name. The name must not already exist; backends
	// that can detect the conflict return ErrNameCollision.
	Put(ctx context.Context, name OpaqueName, data []byte, contentType string) error

	// Get retrieves the full content stored under name.
	// Returns ErrObjectNotFound when the name is absent.
	Get(ctx context.Context, name OpaqueName) ([]byte, error)

	// Delete removes the object. The bool reports whether it existed.
	Delete(ctx context.Context, name OpaqueName) (bool, error)

	// Exists reports whether the name is taken in this backend's namespace.
	Exists(ctx context.Context, name OpaqueName) (bool, error)

	// Head returns object metadata without fetching content.
	// Returns ErrObjectNotFound when the name is absent.
	Head(ctx context.Context, name OpaqueName) (ObjectInfo, error)

	// Presign returns a time-limited read URL for the object. Backends
	// without this capability return ErrPresignUnsupported.
	Presign(ctx context.Context, name OpaqueName, ttl time.Duration) (string, error)

	// Available checks whether the backend is currently usable.
	Available(ctx context.Context) bool

	// Kind identifies the storage medium.
	Kind() BackendKind

	// Name returns an identifier for logging.
	Name() string
}

// BackendConfigSource supplies the current BackendConfiguration. It is
// queried on every resolution so runtime reconfiguration takes effect
// without restart.
type BackendConfigSource interface {
	// BackendConfig returns the active configuration.
	BackendConfig(ctx context.Context) (BackendConfiguration, error)
}

// BackendResolver turns the current configuration into a usable backend.
type BackendResolver interface {
	// Resolve returns the backend for the configuration active right now.
	// A remote configuration that cannot produce a working client resolves
	// to the local backend instead, with a warning.
	Resolve(ctx context.Context) (StorageBackend, error)
}

// UploadValidator rejects unsafe or non-conformant uploads before any
// storage I/O happens.
type UploadValidator interface {
	// Validate runs the full check pipeline. A nil return means the
	// candidate may be stored; otherwise the error is a ValidationError.
	Validate(candidate UploadCandidate) error

	// Rules returns the publicly exposable validation limits.
	Rules() ValidationRules
}

// NameCipher turns logical identities into opaque storage names and back.
type NameCipher interface {
	// EncryptName produces an opaque name for (logicalID, filename).
	// attempt > 0 mixes extra randomness for collision retries; the same
	// inputs with a different attempt yield an unrelated name.
	EncryptName(logicalID DocumentID, filename string, attempt int) (OpaqueName, error)

	// DecryptName reverses an opaque name for diagnostics. Foreign or
	// tampered names yield the benign marker "unknown", never an error.
	DecryptName(name OpaqueName) string
}

// DocumentVault is the storage facade: the only entry point the calling
// service layer uses.
type DocumentVault interface {
	// Validate checks a candidate without storing it.
	Validate(candidate UploadCandidate) error

	// Store validates, names, persists and hashes a candidate.
	Store(ctx context.Context, candidate UploadCandidate, logicalID DocumentID) (StoredObject, error)

	// Retrieve returns the stored bytes for an opaque name.
	Retrieve(ctx context.Context, name OpaqueName) ([]byte, error)

	// Delete removes a stored object. The bool reports whether it existed.
	Delete(ctx context.Context, name OpaqueName) (bool, error)

	// VerifyIntegrity recomputes the content hash and compares it to the
	// recorded one. Read errors and mismatches are both false.
	VerifyIntegrity(ctx context.Context, name OpaqueName, expected TaggedHash) bool

	// Presign returns a time-limited read URL when the active backend
	// supports it.
	Presign(ctx context.Context, name OpaqueName, ttl time.Duration) (string, error)

	// Rules returns the active validation limits.
	Rules() ValidationRules
}
