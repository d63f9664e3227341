package interfaces

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrObjectNotFound is returned when no object exists under the
	// requested opaque name.
	ErrObjectNotFound = errors.New("stored object not found")

	// ErrBackendUnavailable is returned when a storage backend cannot be
	// reached or used. Network failures, bad credentials and missing roots
	// all map here.
	ErrBackendUnavailable = errors.New("storage backend unavailable")

	// ErrNameCollision is returned when an opaque name is already taken and
	// the bounded regeneration retries are exhausted. Existing content is
	// never overwritten.
	ErrNameCollision = errors.New("storage name collision")

	// ErrWriteFailure wraps backend write errors. Partially written local
	// bytes are removed before it propagates.
	ErrWriteFailure = errors.New("storage write failed")

	// ErrReadFailure wraps backend read errors that are not ErrObjectNotFound.
	ErrReadFailure = errors.New("storage read failed")

	// ErrPresignUnsupported is returned by backends that cannot issue
	// time-limited URLs, such as the local filesystem.
	ErrPresignUnsupported = errors.New("presigned URLs not supported by this backend")

	// ErrIntegrityMismatch is returned by integrity audits when recomputed
	// content hashes differ from the recorded ones.
	ErrIntegrityMismatch = errors.New("content hash mismatch")

	// ErrInvalidOpaqueName is returned for storage names that are malformed
	// or attempt to escape the backend namespace.
	ErrInvalidOpaqueName = errors.New("invalid opaque name")
)

// ValidationError is implemented by every upload rejection error. Code
// returns a stable machine-readable identifier for API mapping; the Error
// text is the human-readable detail.
type ValidationError interface {
	error

	// Code returns the stable rejection code, e.g. "SIZE_EXCEEDED".
	Code() string
}

// SizeExceededError rejects uploads whose declared size is over the limit.
// No content is read before this check.
type SizeExceededError struct {
	Max    int64
	Actual int64
}

func (e *SizeExceededError) Error() string {
	return fmt.Sprintf("file size %d bytes exceeds maximum allowed size of %d bytes", e.Actual, e.Max)
}

// Code returns the stable rejection code.
func (e *SizeExceededError) Code() string { return "SIZE_EXCEEDED" }

// TypeNotAllowedError rejects uploads whose declared MIME type or filename
// extension is outside the configured allow-list.
type TypeNotAllowedError struct {
	// Value is the offending MIME type or extension.
	Value string

	// Allowed lists what the configuration accepts.
	Allowed []string
}

func (e *TypeNotAllowedError) Error() string {
	return fmt.Sprintf("file type %q is not allowed (allowed: %s)", e.Value, strings.Join(e.Allowed, ", "))
}

// Code returns the stable rejection code.
func (e *TypeNotAllowedError) Code() string { return "TYPE_NOT_ALLOWED" }

// MalwareSuspectedError rejects uploads whose content header matches a
// pattern associated with active or executable content.
type MalwareSuspectedError struct {
	// Pattern is the matched banned pattern.
	Pattern string
}

func (e *MalwareSuspectedError) Error() string {
	return fmt.Sprintf("suspicious content: pattern %q detected in file header", e.Pattern)
}

// Code returns the stable rejection code.
func (e *MalwareSuspectedError) Code() string { return "MALWARE_DETECTED" }

// SignatureMismatchError rejects uploads whose magic number does not match
// the declared MIME type.
type SignatureMismatchError struct {
	DeclaredType string
}

func (e *SignatureMismatchError) Error() string {
	return fmt.Sprintf("file signature does not match declared type %q", e.DeclaredType)
}

// Code returns the stable rejection code.
func (e *SignatureMismatchError) Code() string { return "SIGNATURE_MISMATCH" }
