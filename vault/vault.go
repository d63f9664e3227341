// Package vault implements the storage facade: the single entry point the
// service layer uses to validate, store, retrieve and verify documents.
package vault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/formvault/document-storage-backend/interfaces"
)

// maxNameAttempts bounds the collision regeneration loop: the initial name
// plus one retry. Collisions on 256-bit ciphertext names mean something is
// deeply wrong, so there is no point looping further.
const maxNameAttempts = 2

// Vault sequences validation, naming, backend resolution, persistence and
// hashing. It holds no per-request state and is safe for concurrent use.
type Vault struct {
	validator interfaces.UploadValidator
	namer     interfaces.NameCipher
	resolver  interfaces.BackendResolver
	log       *slog.Logger
}

// New assembles the facade from its components.
func New(validator interfaces.UploadValidator, namer interfaces.NameCipher, resolver interfaces.BackendResolver, log *slog.Logger) *Vault {
	return &Vault{
		validator: validator,
		namer:     namer,
		resolver:  resolver,
		log:       log,
	}
}

// Validate checks a candidate without storing it.
func (v *Vault) Validate(candidate interfaces.UploadCandidate) error {
	return v.validator.Validate(candidate)
}

// Rules returns the active validation limits.
func (v *Vault) Rules() interfaces.ValidationRules {
	return v.validator.Rules()
}

// Store runs the full pipeline: validate, encrypt a name, resolve the
// backend, write, hash. Validation failure aborts before any storage I/O.
// A name that is already taken is regenerated once before ErrNameCollision.
// The result records which backend actually served the write.
func (v *Vault) Store(ctx context.Context, candidate interfaces.UploadCandidate, logicalID interfaces.DocumentID) (interfaces.StoredObject, error) {
	if err := v.validator.Validate(candidate); err != nil {
		return interfaces.StoredObject{}, err
	}

	name, err := v.namer.EncryptName(logicalID, candidate.Filename, 0)
	if err != nil {
		return interfaces.StoredObject{}, err
	}

	backend, err := v.resolver.Resolve(ctx)
	if err != nil {
		return interfaces.StoredObject{}, err
	}

	for attempt := 1; ; attempt++ {
		taken, err := backend.Exists(ctx, name)
		if err != nil {
			return interfaces.StoredObject{}, fmt.Errorf("failed to check name availability: %w", err)
		}
		if !taken {
			break
		}
		if attempt >= maxNameAttempts {
			v.log.Error("Opaque name collision persisted after retry",
				slog.String("logicalID", logicalID.String()),
				slog.String("backend", backend.Name()))
			return interfaces.StoredObject{}, fmt.Errorf("%w: retries exhausted", interfaces.ErrNameCollision)
		}

		v.log.Warn("Opaque name collision, regenerating",
			slog.String("logicalID", logicalID.String()),
			slog.Int("attempt", attempt))
		name, err = v.namer.EncryptName(logicalID, candidate.Filename, attempt)
		if err != nil {
			return interfaces.StoredObject{}, err
		}
	}

	if _, err := candidate.Content.Seek(0, io.SeekStart); err != nil {
		return interfaces.StoredObject{}, fmt.Errorf("failed to rewind upload content: %w", err)
	}
	data, err := io.ReadAll(candidate.Content)
	if err != nil {
		return interfaces.StoredObject{}, fmt.Errorf("failed to read upload content: %w", err)
	}

	if err := backend.Put(ctx, name, data, candidate.DeclaredMIME); err != nil {
		if errors.Is(err, interfaces.ErrNameCollision) {
			return interfaces.StoredObject{}, err
		}
		return interfaces.StoredObject{}, fmt.Errorf("%w: %v", interfaces.ErrWriteFailure, err)
	}

	stored := interfaces.StoredObject{
		LogicalID:  logicalID,
		OpaqueName: name,
		Size:       int64(len(data)),
		MIMEType:   candidate.DeclaredMIME,
		Hash:       HashBytes(data),
		Backend:    backend.Kind(),
	}

	v.log.Info("Stored document",
		slog.String("logicalID", logicalID.String()),
		slog.String("opaqueName", name.String()),
		slog.Int64("size", stored.Size),
		slog.String("backend", stored.Backend.String()))
	return stored, nil
}

// Retrieve returns the stored bytes for an opaque name through the backend
// active right now.
func (v *Vault) Retrieve(ctx context.Context, name interfaces.OpaqueName) ([]byte, error) {
	backend, err := v.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	data, err := backend.Get(ctx, name)
	if err != nil {
		if errors.Is(err, interfaces.ErrObjectNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", interfaces.ErrReadFailure, err)
	}
	return data, nil
}

// Delete removes a stored object. The bool reports whether it existed.
// Callers use this as the compensating action when their own persistence
// fails after a successful Store.
func (v *Vault) Delete(ctx context.Context, name interfaces.OpaqueName) (bool, error) {
	backend, err := v.resolver.Resolve(ctx)
	if err != nil {
		return false, err
	}

	existed, err := backend.Delete(ctx, name)
	if err != nil {
		return false, fmt.Errorf("failed to delete object: %w", err)
	}
	return existed, nil
}

// VerifyIntegrity recomputes the content hash of a locally stored object and
// compares it to the recorded one. Any read error or mismatch is false.
//
// For remote-backed objects the full re-download is skipped: verification
// checks existence and otherwise trusts the object store's own checksums.
func (v *Vault) VerifyIntegrity(ctx context.Context, name interfaces.OpaqueName, expected interfaces.TaggedHash) bool {
	backend, err := v.resolver.Resolve(ctx)
	if err != nil {
		v.log.Warn("Integrity check could not resolve a backend", "err", err)
		return false
	}

	if backend.Kind() == interfaces.BackendRemote {
		exists, err := backend.Exists(ctx, name)
		if err != nil {
			v.log.Warn("Integrity check failed to reach remote backend",
				slog.String("opaqueName", name.String()), "err", err)
			return false
		}
		return exists
	}

	data, err := backend.Get(ctx, name)
	if err != nil {
		v.log.Warn("Integrity check failed to read object",
			slog.String("opaqueName", name.String()), "err", err)
		return false
	}

	computed := HashBytes(data)
	if !computed.Equal(expected) {
		v.log.Error("Integrity mismatch",
			slog.String("opaqueName", name.String()),
			slog.String("expected", expected.String()),
			slog.String("computed", computed.String()))
		return false
	}
	return true
}

// Presign returns a time-limited read URL when the active backend supports
// it; the local backend answers ErrPresignUnsupported.
func (v *Vault) Presign(ctx context.Context, name interfaces.OpaqueName, ttl time.Duration) (string, error) {
	backend, err := v.resolver.Resolve(ctx)
	if err != nil {
		return "", err
	}
	return backend.Presign(ctx, name, ttl)
}
