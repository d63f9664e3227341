// Package interfaces defines the core interfaces and types of the document
// storage pipeline, separating interface definitions from implementations.
//
// The package provides the contracts between the components of the system:
//
// # Storage Interfaces
//
// StorageBackend: Named-object persistence with Put/Get/Delete/Exists/Head,
// presigned read URLs where the medium supports them, and an availability
// probe. Implemented by the local filesystem backend and the S3-compatible
// remote backend.
//
// BackendConfigSource: Supplies the currently active BackendConfiguration.
// Queried on every call, never cached, so runtime reconfiguration takes
// effect without a restart.
//
// BackendResolver: Turns the active configuration into a usable backend,
// falling back from remote to local when the remote side is misconfigured.
//
// # Pipeline Interfaces
//
// UploadValidator: The fixed-order, fail-fast check pipeline applied to every
// upload before storage I/O.
//
// NameCipher: Authenticated encryption of logical identity into opaque
// storage names, and the non-fatal diagnostic reversal.
//
// DocumentVault: The storage facade sequencing validation, naming, backend
// resolution, persistence and hashing. The only entry point used by the
// calling service layer.
//
// # Type Definitions
//
//   - DocumentID: UUID string identifying a document logically
//   - DocumentType: label for what a document represents
//   - OpaqueName: encrypted storage name with the original extension appended
//   - TaggedHash: algorithm-tagged content hash ("sha256:<hex>")
//   - BackendKind: which storage medium served a call (local or remote)
//   - UploadCandidate: an upload before validation, never persisted
//   - StoredObject: the result shape of a successful store
//   - BackendConfiguration: per-call storage medium selection and credentials
//
// # Error Types
//
// Sentinel errors (ErrObjectNotFound, ErrBackendUnavailable, ErrNameCollision,
// ErrPresignUnsupported, ...) are matched with errors.Is. Upload rejections
// implement the ValidationError interface and carry a stable Code for API
// mapping: SizeExceededError, TypeNotAllowedError, MalwareSuspectedError,
// SignatureMismatchError.
package interfaces
