package api

import (
	"context"
	"io"
	"time"

	"github.com/formvault/document-storage-backend/interfaces"
)

// Error codes produced by the HTTP layer itself. Validation failures carry
// the code of the interfaces.ValidationError that caused them instead.
const (
	// CodeValidationError marks malformed or missing request fields.
	CodeValidationError = "VALIDATION_ERROR"

	// CodeFileNotFound marks lookups of unknown file IDs.
	CodeFileNotFound = "FILE_NOT_FOUND"

	// CodeDatabaseError marks metadata store failures.
	CodeDatabaseError = "DATABASE_ERROR"

	// CodePresignUnsupported marks presign requests against a backend
	// without presigned URLs.
	CodePresignUnsupported = "PRESIGN_UNSUPPORTED"

	// CodeInternalError marks everything else.
	CodeInternalError = "INTERNAL_ERROR"
)

// ErrorDetail is the body of every error response.
type ErrorDetail struct {
	Message   string    `json:"message"`
	Code      string    `json:"code"`
	Timestamp time.Time `json:"timestamp"`
	Path      string    `json:"path"`
}

// ErrorEnvelope wraps ErrorDetail under the "error" key.
type ErrorEnvelope struct {
	Error ErrorDetail `json:"error"`
}

// FileInfo describes an uploaded file as served by the API.
type FileInfo struct {
	// ID is the logical document identifier.
	ID interfaces.DocumentID `json:"id"`

	// DocumentType labels what the upload represents.
	DocumentType interfaces.DocumentType `json:"document_type"`

	// OriginalFilename is the name the uploader declared.
	OriginalFilename string `json:"original_filename"`

	// Size is the stored size in bytes.
	Size int64 `json:"size"`

	// MIMEType is the stored content type.
	MIMEType string `json:"mime_type"`

	// Hash is the algorithm-tagged content hash recorded at upload time.
	Hash interfaces.TaggedHash `json:"file_hash"`

	// Backend is the storage medium that served the upload.
	Backend interfaces.BackendKind `json:"backend"`

	// UploadedAt is the upload timestamp.
	UploadedAt time.Time `json:"uploaded_at"`
}

// UploadResponse is returned by POST /api/v1/files/upload.
type UploadResponse struct {
	FileInfo
}

// ListResponse is returned by GET /api/v1/files.
type ListResponse struct {
	Files []FileInfo `json:"files"`
	Count int        `json:"count"`
}

// DeleteResponse is returned by DELETE /api/v1/files/{file_id}.
type DeleteResponse struct {
	FileID  interfaces.DocumentID `json:"file_id"`
	Deleted bool                  `json:"deleted"`
}

// VerifyResponse is returned by POST /api/v1/files/{file_id}/verify.
type VerifyResponse struct {
	FileID         interfaces.DocumentID `json:"file_id"`
	IntegrityValid bool                  `json:"integrity_valid"`
	Message        string                `json:"message"`
}

// PresignResponse is returned by GET /api/v1/files/{file_id}/presign.
type PresignResponse struct {
	FileID           interfaces.DocumentID `json:"file_id"`
	URL              string                `json:"url"`
	ExpiresInSeconds int64                 `json:"expires_in_seconds"`
}

// UploadRequest carries one upload through a FileServiceProvider.
type UploadRequest struct {
	// Filename is the original filename, extension included.
	Filename string

	// DocumentType labels what the upload represents.
	DocumentType interfaces.DocumentType

	// ApplicationID optionally associates the file with an application.
	ApplicationID string

	// ContentType is the declared MIME type.
	ContentType string

	// Content is the file byte stream.
	Content io.Reader
}

// FileServiceProvider is the client-side view of the files API.
type FileServiceProvider interface {
	// Upload submits a file and returns its stored description.
	Upload(ctx context.Context, req UploadRequest) (*UploadResponse, error)

	// Info fetches metadata for a file ID.
	Info(ctx context.Context, id interfaces.DocumentID) (*FileInfo, error)

	// Download fetches the stored content for a file ID.
	Download(ctx context.Context, id interfaces.DocumentID) ([]byte, error)

	// Delete removes a file and its metadata.
	Delete(ctx context.Context, id interfaces.DocumentID) (*DeleteResponse, error)

	// Verify asks the server to recheck the stored content hash.
	Verify(ctx context.Context, id interfaces.DocumentID) (*VerifyResponse, error)
}
