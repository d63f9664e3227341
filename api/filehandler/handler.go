package filehandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/formvault/document-storage-backend/api"
	"github.com/formvault/document-storage-backend/interfaces"
	"github.com/formvault/document-storage-backend/metadata"
)

// Multipart form field names accepted by the upload endpoint. file_type is
// the legacy alias some callers still send.
const (
	formFieldFile          = "file"
	formFieldDocumentType  = "document_type"
	formFieldLegacyType    = "file_type"
	formFieldApplicationID = "application_id"
)

const (
	// uploadFormOverheadBytes is the slack on top of the size limit for the
	// multipart framing and the non-file form fields.
	uploadFormOverheadBytes = 1 << 20

	// defaultPresignTTL applies when the presign request names no ttl.
	defaultPresignTTL = 15 * time.Minute

	// maxPresignTTL caps requested presign lifetimes. S3 signature v4
	// rejects anything longer.
	maxPresignTTL = 7 * 24 * time.Hour
)

// Handler serves the files API: upload, metadata, download, deletion,
// integrity verification and presigned URLs. Every request flows through
// the storage facade; metadata lives in the record store.
type Handler struct {
	vault interfaces.DocumentVault
	store metadata.Store
	log   *slog.Logger
}

// NewHandler creates the files API handler with the given dependencies.
func NewHandler(vault interfaces.DocumentVault, store metadata.Store, log *slog.Logger) *Handler {
	return &Handler{
		vault: vault,
		store: store,
		log:   log,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/v1/files/upload", h.HandleUpload)
	r.Get("/api/v1/files", h.HandleList)
	r.Get("/api/v1/files/validation/rules", h.HandleValidationRules)
	r.Get("/api/v1/files/{file_id}", h.HandleInfo)
	r.Get("/api/v1/files/{file_id}/download", h.HandleDownload)
	r.Get("/api/v1/files/{file_id}/presign", h.HandlePresign)
	r.Post("/api/v1/files/{file_id}/verify", h.HandleVerify)
	r.Delete("/api/v1/files/{file_id}", h.HandleDelete)
}

// HandleUpload processes a multipart upload.
//
// URL format: POST /api/v1/files/upload
// Form fields: file (required), document_type (required), application_id
// (optional).
//
// The upload is validated before any storage I/O. If the metadata record
// cannot be saved after the content was stored, the stored object is
// deleted again so the two stores never disagree.
//
// Response: 201 with the stored file's description.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	rules := h.vault.Rules()
	r.Body = http.MaxBytesReader(w, r.Body, rules.MaxSizeBytes+uploadFormOverheadBytes)

	file, header, err := r.FormFile(formFieldFile)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sizeErr := &interfaces.SizeExceededError{Max: rules.MaxSizeBytes, Actual: r.ContentLength}
			h.writeError(w, r, http.StatusBadRequest, sizeErr.Code(), sizeErr.Error())
			return
		}
		h.writeError(w, r, http.StatusBadRequest, api.CodeValidationError, fmt.Sprintf("missing or unreadable %q form field", formFieldFile))
		return
	}
	defer file.Close()

	typeField := r.FormValue(formFieldDocumentType)
	if typeField == "" {
		typeField = r.FormValue(formFieldLegacyType)
	}
	docType, err := interfaces.NewDocumentType(typeField)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, api.CodeValidationError, err.Error())
		return
	}
	applicationID := r.FormValue(formFieldApplicationID)

	candidate := interfaces.UploadCandidate{
		Filename:     header.Filename,
		DeclaredMIME: header.Header.Get("Content-Type"),
		DeclaredSize: header.Size,
		Content:      file,
	}

	id := interfaces.NewDocumentID()
	stored, err := h.vault.Store(r.Context(), candidate, id)
	if err != nil {
		var valErr interfaces.ValidationError
		if errors.As(err, &valErr) {
			h.writeError(w, r, http.StatusBadRequest, valErr.Code(), valErr.Error())
			return
		}
		h.log.Error("Upload store failed", slog.String("documentID", id.String()), "err", err)
		h.writeError(w, r, http.StatusInternalServerError, api.CodeInternalError, "failed to store upload")
		return
	}

	rec := metadata.Record{
		ID:               stored.LogicalID,
		ApplicationID:    applicationID,
		DocumentType:     docType,
		OriginalFilename: header.Filename,
		StoredName:       stored.OpaqueName,
		Size:             stored.Size,
		MIMEType:         stored.MIMEType,
		Hash:             stored.Hash,
		Backend:          stored.Backend,
		UploadIP:         clientIP(r),
		UploadedAt:       time.Now().UTC(),
	}
	if err := h.store.Save(r.Context(), rec); err != nil {
		h.log.Error("Metadata save failed, removing stored object",
			slog.String("documentID", id.String()), "err", err)
		if _, delErr := h.vault.Delete(r.Context(), stored.OpaqueName); delErr != nil {
			h.log.Error("Compensating delete failed, stored object is orphaned",
				slog.String("documentID", id.String()), "err", delErr)
		}
		h.writeError(w, r, http.StatusInternalServerError, api.CodeDatabaseError, "failed to save file record")
		return
	}

	h.log.Info("File uploaded",
		slog.String("documentID", id.String()),
		slog.String("documentType", docType.String()),
		slog.Int64("size", stored.Size),
		slog.String("backend", stored.Backend.String()),
	)
	h.writeJSON(w, http.StatusCreated, api.UploadResponse{FileInfo: recordInfo(rec)})
}

// HandleList returns uploaded files, newest first.
//
// URL format: GET /api/v1/files?application_id=&document_type=&limit=&offset=
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter := metadata.ListFilter{
		ApplicationID: r.URL.Query().Get(formFieldApplicationID),
	}

	typeField := r.URL.Query().Get(formFieldDocumentType)
	if typeField == "" {
		typeField = r.URL.Query().Get(formFieldLegacyType)
	}
	if typeField != "" {
		docType, err := interfaces.NewDocumentType(typeField)
		if err != nil {
			h.writeError(w, r, http.StatusBadRequest, api.CodeValidationError, err.Error())
			return
		}
		filter.DocumentType = docType
	}

	var err error
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		h.writeError(w, r, http.StatusBadRequest, api.CodeValidationError, err.Error())
		return
	}
	if filter.Offset, err = queryInt(r, "offset"); err != nil {
		h.writeError(w, r, http.StatusBadRequest, api.CodeValidationError, err.Error())
		return
	}

	records, err := h.store.List(r.Context(), filter)
	if err != nil {
		h.log.Error("Metadata list failed", "err", err)
		h.writeError(w, r, http.StatusInternalServerError, api.CodeDatabaseError, "failed to list files")
		return
	}

	files := make([]api.FileInfo, len(records))
	for i, rec := range records {
		files[i] = recordInfo(rec)
	}
	h.writeJSON(w, http.StatusOK, api.ListResponse{Files: files, Count: len(files)})
}

// HandleInfo returns metadata for one file.
//
// URL format: GET /api/v1/files/{file_id}
func (h *Handler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookupRecord(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, recordInfo(rec))
}

// HandleDownload streams the stored content back to the caller with
// attachment headers. Responses are marked uncacheable; the content may be
// personal data.
//
// URL format: GET /api/v1/files/{file_id}/download
func (h *Handler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookupRecord(w, r)
	if !ok {
		return
	}

	data, err := h.vault.Retrieve(r.Context(), rec.StoredName)
	if err != nil {
		if errors.Is(err, interfaces.ErrObjectNotFound) {
			h.writeError(w, r, http.StatusNotFound, api.CodeFileNotFound, fmt.Sprintf("content for file %q is missing", rec.ID))
			return
		}
		h.log.Error("Download retrieve failed", slog.String("documentID", rec.ID.String()), "err", err)
		h.writeError(w, r, http.StatusInternalServerError, api.CodeInternalError, "failed to read stored content")
		return
	}

	w.Header().Set("Content-Type", rec.MIMEType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": rec.OriginalFilename}))
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	if _, err := w.Write(data); err != nil {
		h.log.Debug("Download write aborted", slog.String("documentID", rec.ID.String()), "err", err)
	}
}

// HandleDelete removes a file's content and its record. The content goes
// first: a record without content is recoverable noise, content without a
// record is an orphan nobody can find.
//
// URL format: DELETE /api/v1/files/{file_id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookupRecord(w, r)
	if !ok {
		return
	}

	existed, err := h.vault.Delete(r.Context(), rec.StoredName)
	if err != nil {
		h.log.Error("Content delete failed", slog.String("documentID", rec.ID.String()), "err", err)
		h.writeError(w, r, http.StatusInternalServerError, api.CodeInternalError, "failed to delete stored content")
		return
	}
	if !existed {
		h.log.Warn("Record pointed at missing content", slog.String("documentID", rec.ID.String()))
	}

	if err := h.store.Delete(r.Context(), rec.ID); err != nil && !errors.Is(err, metadata.ErrRecordNotFound) {
		h.log.Error("Record delete failed after content removal", slog.String("documentID", rec.ID.String()), "err", err)
		h.writeError(w, r, http.StatusInternalServerError, api.CodeDatabaseError, "failed to delete file record")
		return
	}

	h.log.Info("File deleted", slog.String("documentID", rec.ID.String()))
	h.writeJSON(w, http.StatusOK, api.DeleteResponse{FileID: rec.ID, Deleted: true})
}

// HandleVerify recomputes the stored content's hash and compares it to the
// one recorded at upload time. The result is reported with 200 either way;
// only lookup failures are errors.
//
// URL format: POST /api/v1/files/{file_id}/verify
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookupRecord(w, r)
	if !ok {
		return
	}

	valid := h.vault.VerifyIntegrity(r.Context(), rec.StoredName, rec.Hash)
	message := "file integrity verified"
	if !valid {
		message = "file integrity check failed"
	}
	h.writeJSON(w, http.StatusOK, api.VerifyResponse{
		FileID:         rec.ID,
		IntegrityValid: valid,
		Message:        message,
	})
}

// HandlePresign returns a time-limited direct download URL when the active
// backend supports it.
//
// URL format: GET /api/v1/files/{file_id}/presign?ttl=900
// The ttl is in seconds, defaulting to 15 minutes, capped at 7 days.
func (h *Handler) HandlePresign(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookupRecord(w, r)
	if !ok {
		return
	}

	ttl := defaultPresignTTL
	if raw := r.URL.Query().Get("ttl"); raw != "" {
		seconds, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || seconds <= 0 {
			h.writeError(w, r, http.StatusBadRequest, api.CodeValidationError, "ttl must be a positive number of seconds")
			return
		}
		ttl = time.Duration(seconds) * time.Second
		if ttl > maxPresignTTL {
			ttl = maxPresignTTL
		}
	}

	url, err := h.vault.Presign(r.Context(), rec.StoredName, ttl)
	if err != nil {
		if errors.Is(err, interfaces.ErrPresignUnsupported) {
			h.writeError(w, r, http.StatusBadRequest, api.CodePresignUnsupported, "active storage backend does not support presigned URLs")
			return
		}
		h.log.Error("Presign failed", slog.String("documentID", rec.ID.String()), "err", err)
		h.writeError(w, r, http.StatusInternalServerError, api.CodeInternalError, "failed to presign download URL")
		return
	}

	h.writeJSON(w, http.StatusOK, api.PresignResponse{
		FileID:           rec.ID,
		URL:              url,
		ExpiresInSeconds: int64(ttl.Seconds()),
	})
}

// HandleValidationRules returns the active upload limits so clients can
// pre-check files before submitting them.
//
// URL format: GET /api/v1/files/validation/rules
func (h *Handler) HandleValidationRules(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.vault.Rules())
}

// lookupRecord parses the file_id path segment and fetches its record,
// writing the error response itself when either step fails.
func (h *Handler) lookupRecord(w http.ResponseWriter, r *http.Request) (metadata.Record, bool) {
	id, err := interfaces.ParseDocumentID(r.PathValue("file_id"))
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, api.CodeValidationError, err.Error())
		return metadata.Record{}, false
	}

	rec, err := h.store.Get(r.Context(), id)
	if errors.Is(err, metadata.ErrRecordNotFound) {
		h.writeError(w, r, http.StatusNotFound, api.CodeFileNotFound, fmt.Sprintf("file with ID %q not found", id))
		return metadata.Record{}, false
	}
	if err != nil {
		h.log.Error("Metadata lookup failed", slog.String("documentID", id.String()), "err", err)
		h.writeError(w, r, http.StatusInternalServerError, api.CodeDatabaseError, "failed to load file record")
		return metadata.Record{}, false
	}

	// The stored name round-trips through an external store. Re-validate it
	// before it reaches a backend so a tampered record cannot name a path.
	if _, err := interfaces.ParseOpaqueName(rec.StoredName.String()); err != nil {
		h.log.Error("Record carries an invalid stored name",
			slog.String("documentID", id.String()), "err", err)
		h.writeError(w, r, http.StatusInternalServerError, api.CodeInternalError, "file record is corrupted")
		return metadata.Record{}, false
	}
	return rec, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	envelope := api.ErrorEnvelope{Error: api.ErrorDetail{
		Message:   message,
		Code:      code,
		Timestamp: time.Now().UTC(),
		Path:      r.URL.Path,
	}}
	if err := json.NewEncoder(w).Encode(envelope); err != nil {
		h.log.Error("Failed to encode error response", "err", err)
	}
}

// recordInfo converts a metadata record to its API representation.
func recordInfo(rec metadata.Record) api.FileInfo {
	return api.FileInfo{
		ID:               rec.ID,
		DocumentType:     rec.DocumentType,
		OriginalFilename: rec.OriginalFilename,
		Size:             rec.Size,
		MIMEType:         rec.MIMEType,
		Hash:             rec.Hash,
		Backend:          rec.Backend,
		UploadedAt:       rec.UploadedAt,
	}
}

// queryInt parses a non-negative integer query parameter, 0 when absent.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return value, nil
}

// clientIP extracts the uploader's address, honoring the first entry of
// X-Forwarded-For when a proxy set one.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
