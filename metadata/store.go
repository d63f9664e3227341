// Package metadata persists descriptions of stored documents. The storage
// facade itself never touches these records: the service layer saves one
// after a successful store and compensates with a facade delete when saving
// fails.
package metadata

import (
	"context"
	"errors"
	"time"

	"github.com/formvault/document-storage-backend/interfaces"
)

// ErrRecordNotFound is returned when no record exists for a document ID.
var ErrRecordNotFound = errors.New("file record not found")

// Record is the persisted description of a stored document.
type Record struct {
	ID               interfaces.DocumentID   `json:"id"`
	ApplicationID    string                  `json:"application_id,omitempty"`
	DocumentType     interfaces.DocumentType `json:"document_type"`
	OriginalFilename string                  `json:"original_filename"`
	StoredName       interfaces.OpaqueName   `json:"stored_name"`
	Size             int64                   `json:"size"`
	MIMEType         string                  `json:"mime_type"`
	Hash             interfaces.TaggedHash   `json:"hash"`
	Backend          interfaces.BackendKind  `json:"backend"`
	UploadIP         string                  `json:"upload_ip,omitempty"`
	UploadedAt       time.Time               `json:"uploaded_at"`
}

// ListFilter narrows and pages List results. Zero values mean "no filter".
type ListFilter struct {
	ApplicationID string
	DocumentType  interfaces.DocumentType
	Limit         int
	Offset        int
}

const (
	// defaultListLimit applies when the filter leaves Limit unset.
	defaultListLimit = 100

	// maxListLimit caps a single page.
	maxListLimit = 1000
)

// pageSize normalizes the requested limit.
func (f ListFilter) pageSize() int {
	switch {
	case f.Limit <= 0:
		return defaultListLimit
	case f.Limit > maxListLimit:
		return maxListLimit
	default:
		return f.Limit
	}
}

// matches reports whether rec passes the filter's field constraints.
func (f ListFilter) matches(rec Record) bool {
	if f.ApplicationID != "" && rec.ApplicationID != f.ApplicationID {
		return false
	}
	if f.DocumentType != "" && rec.DocumentType != f.DocumentType {
		return false
	}
	return true
}

// Store persists file records. Implementations must order List results
// newest first.
type Store interface {
	// Save inserts or replaces the record under its ID.
	Save(ctx context.Context, rec Record) error

	// Get returns the record for id, or ErrRecordNotFound.
	Get(ctx context.Context, id interfaces.DocumentID) (Record, error)

	// List returns records passing the filter, newest first.
	List(ctx context.Context, filter ListFilter) ([]Record, error)

	// Delete removes the record for id, or ErrRecordNotFound.
	Delete(ctx context.Context, id interfaces.DocumentID) error

	// Healthy reports whether the store can serve requests.
	Healthy(ctx context.Context) error

	// Close releases the store's resources.
	Close() error
}
