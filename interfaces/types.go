// Package interfaces defines the core types, capability interfaces and error
// taxonomy of the document storage pipeline. It is the contract between
// components and carries no implementation.
package interfaces

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DocumentID is the logical identifier of an uploaded document. It is a UUID
// string assigned by the calling service layer, never derived from content.
type DocumentID string

// NewDocumentID generates a fresh random document ID.
func NewDocumentID() DocumentID {
	return DocumentID(uuid.New().String())
}

// ParseDocumentID validates a document ID received from an untrusted source.
func ParseDocumentID(s string) (DocumentID, error) {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid document ID: %w", err)
	}
	return DocumentID(parsed.String()), nil
}

// String returns the ID as a string.
func (id DocumentID) String() string {
	return string(id)
}

// DocumentType labels what kind of document an upload represents, for example
// "drivers_license" or "insurance_card". The value set is owned by the calling
// service; this layer only constrains the format.
type DocumentType string

// NewDocumentType validates a document type label.
func NewDocumentType(s string) (DocumentType, error) {
	if s == "" {
		return "", errors.New("document type must not be empty")
	}
	if len(s) > 64 {
		return "", errors.New("document type too long: maximum 64 characters")
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' && r != '-' {
			return "", fmt.Errorf("invalid document type %q: lowercase letters, digits, '_' and '-' only", s)
		}
	}
	return DocumentType(s), nil
}

// String returns the type label as a string.
func (dt DocumentType) String() string {
	return string(dt)
}

// BackendKind identifies which storage medium served or should serve a call.
// It is carried on results so callers and tests can observe which backend a
// request actually hit, including after a remote-to-local fallback.
type BackendKind string

const (
	// BackendLocal is the restricted-permission filesystem backend.
	BackendLocal BackendKind = "local"

	// BackendRemote is the S3-compatible object store backend.
	BackendRemote BackendKind = "remote"
)

// ParseBackendKind validates a backend kind label.
func ParseBackendKind(s string) (BackendKind, error) {
	switch BackendKind(strings.ToLower(s)) {
	case BackendLocal:
		return BackendLocal, nil
	case BackendRemote:
		return BackendRemote, nil
	default:
		return "", fmt.Errorf("unknown backend kind %q: must be local or remote", s)
	}
}

// String returns the kind label.
func (k BackendKind) String() string {
	return string(k)
}

// OpaqueName is the storage name of an object: URL-safe base64 ciphertext
// with the lower-cased original extension appended. Names never contain path
// separators, so they are safe as both filesystem entries and object keys.
type OpaqueName string

// ParseOpaqueName validates a storage name received from an untrusted source.
// It rejects anything that could escape the backend namespace.
func ParseOpaqueName(s string) (OpaqueName, error) {
	if s == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidOpaqueName)
	}
	if len(s) > 1024 {
		return "", fmt.Errorf("%w: name exceeds 1024 characters", ErrInvalidOpaqueName)
	}
	if strings.ContainsAny(s, "/\\\x00") {
		return "", fmt.Errorf("%w: path separator in %q", ErrInvalidOpaqueName, s)
	}
	if s == "." || s == ".." {
		return "", fmt.Errorf("%w: traversal in %q", ErrInvalidOpaqueName, s)
	}
	return OpaqueName(s), nil
}

// String returns the name as a string.
func (n OpaqueName) String() string {
	return string(n)
}

// Ext returns the name's lower-cased extension without the dot, or "".
func (n OpaqueName) Ext() string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(string(n)), "."))
}

// taggedHashPrefix names the digest algorithm so the format can evolve.
const taggedHashPrefix = "sha256:"

// TaggedHash is an algorithm-tagged content hash: "sha256:<64 hex chars>".
type TaggedHash string

// NewTaggedHash builds a tagged hash from a raw SHA-256 digest.
func NewTaggedHash(digest [32]byte) TaggedHash {
	return TaggedHash(fmt.Sprintf("%s%x", taggedHashPrefix, digest))
}

// ParseTaggedHash validates a tagged hash received from an untrusted source.
func ParseTaggedHash(s string) (TaggedHash, error) {
	hexPart, ok := strings.CutPrefix(s, taggedHashPrefix)
	if !ok {
		return "", fmt.Errorf("invalid tagged hash %q: missing %q prefix", s, taggedHashPrefix)
	}
	if len(hexPart) != 64 {
		return "", fmt.Errorf("invalid tagged hash: digest must be 64 hex characters, got %d", len(hexPart))
	}
	for _, r := range hexPart {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return "", fmt.Errorf("invalid tagged hash: unexpected character %q", r)
		}
	}
	return TaggedHash(s), nil
}

// String returns the tagged hash as a string.
func (h TaggedHash) String() string {
	return string(h)
}

// Hex returns the digest part without the algorithm tag.
func (h TaggedHash) Hex() string {
	return strings.TrimPrefix(string(h), taggedHashPrefix)
}

// Equal compares two tagged hashes.
func (h TaggedHash) Equal(other TaggedHash) bool {
	return h == other
}

// UploadCandidate is an incoming upload before validation. It is ephemeral:
// created per request, discarded after validation and store, never persisted.
type UploadCandidate struct {
	// Filename as declared by the uploader. Untrusted.
	Filename string

	// DeclaredMIME is the uploader-declared content type. Untrusted; the
	// validator cross-checks it against the content's magic number.
	DeclaredMIME string

	// DeclaredSize is the uploader-declared size in bytes.
	DeclaredSize int64

	// Content is the upload byte stream, positioned at offset 0. Validation
	// restores whatever offset it finds, so storage can re-read from the top.
	Content io.ReadSeeker
}

// Ext returns the candidate filename's lower-cased extension without the dot.
func (c UploadCandidate) Ext() string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(c.Filename), "."))
}

// StoredObject describes a successfully stored upload. The calling service
// owns its persistence; this layer only defines the shape.
type StoredObject struct {
	LogicalID  DocumentID  `json:"logical_id"`
	OpaqueName OpaqueName  `json:"opaque_name"`
	Size       int64       `json:"size"`
	MIMEType   string      `json:"mime_type"`
	Hash       TaggedHash  `json:"tagged_hash"`
	Backend    BackendKind `json:"backend"`
}

// ObjectInfo is backend metadata about a stored object.
type ObjectInfo struct {
	Size       int64
	ModifiedAt time.Time
}

// BackendConfiguration selects the storage medium and its credentials. It is
// dynamic: resolved fresh on every call so runtime backend switches take
// effect without restart. Never cache one across calls.
type BackendConfiguration struct {
	Kind      BackendKind
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// RemoteReady reports whether the configuration carries enough to construct
// a remote client. Kind=remote without this falls back to local.
func (c BackendConfiguration) RemoteReady() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// ValidationRules is the publicly exposable subset of the validator
// configuration, served to clients so they can pre-check uploads.
type ValidationRules struct {
	MaxSizeBytes      int64    `json:"max_size_bytes"`
	AllowedMIMETypes  []string `json:"allowed_mime_types"`
	AllowedExtensions []string `json:"allowed_extensions"`
}
