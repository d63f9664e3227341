package httpserver

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/formvault/document-storage-backend/interfaces"
	"github.com/formvault/document-storage-backend/storage"
)

// AdminHandler serves the runtime storage configuration endpoints. Updates
// take effect on the next request: backends are resolved per call, so no
// restart or connection draining is involved.
//
// Every admin request must carry X-Admin-ID and X-Admin-Signature headers.
// The signature is ECDSA (ASN.1) over sha256(request path + body), verified
// against the admin's registered public key.
type AdminHandler struct {
	log          *slog.Logger
	source       *storage.RuntimeConfigSource
	adminPubKeys map[string][]byte // Map of admin ID to public key PEM
}

// NewAdminHandler creates an admin handler over the runtime configuration
// source the storage resolver reads.
//
// Parameters:
//   - source: The runtime storage configuration source
//   - adminPubKeys: Map of admin IDs to their public keys in PEM format
//   - log: Structured logger for operational insights
func NewAdminHandler(source *storage.RuntimeConfigSource, adminPubKeys map[string][]byte, log *slog.Logger) *AdminHandler {
	return &AdminHandler{
		log:          log,
		source:       source,
		adminPubKeys: adminPubKeys,
	}
}

func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/v1/admin/storage-config", h.handleGetConfig)
	r.Put("/api/v1/admin/storage-config", h.handleUpdateConfig)
}

// StorageConfigView is the redacted form of the active configuration.
// Credentials are reported as presence booleans, never echoed.
type StorageConfigView struct {
	Kind         interfaces.BackendKind `json:"kind"`
	Endpoint     string                 `json:"endpoint,omitempty"`
	Bucket       string                 `json:"bucket,omitempty"`
	Region       string                 `json:"region,omitempty"`
	AccessKeySet bool                   `json:"access_key_set"`
	SecretKeySet bool                   `json:"secret_key_set"`
}

func configView(cfg interfaces.BackendConfiguration) StorageConfigView {
	return StorageConfigView{
		Kind:         cfg.Kind,
		Endpoint:     cfg.Endpoint,
		Bucket:       cfg.Bucket,
		Region:       cfg.Region,
		AccessKeySet: cfg.AccessKey != "",
		SecretKeySet: cfg.SecretKey != "",
	}
}

// StorageConfigUpdate is the body of a configuration update request.
type StorageConfigUpdate struct {
	Kind      string `json:"kind"`
	Endpoint  string `json:"endpoint"`
	Bucket    string `json:"bucket"`
	Region    string `json:"region"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
}

// handleGetConfig returns the active storage configuration, redacted.
//
// Endpoint: GET /api/v1/admin/storage-config
func (h *AdminHandler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.verifyAdmin(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	cfg, err := h.source.BackendConfig(r.Context())
	if err != nil {
		h.log.Error("Failed to read storage configuration", "err", err, "adminID", adminID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(configView(cfg))
}

// handleUpdateConfig replaces the active storage configuration. The next
// request resolves against the new backend.
//
// A remote configuration without credentials is accepted but will fall
// back to local storage until credentials arrive; the response carries the
// applied view so the caller can see what is in effect.
//
// Endpoint: PUT /api/v1/admin/storage-config
// Body: {"kind": "local|remote", "endpoint": ..., "bucket": ..., "region": ..., "access_key": ..., "secret_key": ...}
func (h *AdminHandler) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.verifyAdmin(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var update StorageConfigUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	kind, err := interfaces.ParseBackendKind(update.Kind)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cfg := interfaces.BackendConfiguration{
		Kind:      kind,
		Endpoint:  update.Endpoint,
		Bucket:    update.Bucket,
		Region:    update.Region,
		AccessKey: update.AccessKey,
		SecretKey: update.SecretKey,
	}
	if kind == interfaces.BackendRemote && !cfg.RemoteReady() {
		h.log.Warn("Remote storage configured without full credentials, requests will fall back to local",
			"adminID", adminID, slog.String("bucket", cfg.Bucket))
	}

	h.source.Update(cfg)
	h.log.Info("Storage configuration updated",
		"adminID", adminID,
		slog.String("kind", kind.String()),
		slog.String("bucket", cfg.Bucket),
		slog.String("endpoint", cfg.Endpoint),
	)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(configView(cfg))
}

// verifyAdmin checks if the request is from a whitelisted admin.
//
// The function verifies that:
//  1. The admin is in the whitelist (has a registered public key)
//  2. The request includes a valid signature created with the admin's private key
//
// Parameters:
//   - r: The HTTP request to verify
//
// Returns:
//   - The admin ID if verification is successful
//   - A boolean indicating if verification was successful
func (h *AdminHandler) verifyAdmin(r *http.Request) (string, bool) {
	adminID := r.Header.Get("X-Admin-ID")
	adminSignatureStr := r.Header.Get("X-Admin-Signature")

	if adminID == "" || adminSignatureStr == "" {
		return "", false
	}

	pubKeyPEM, exists := h.adminPubKeys[adminID]
	if !exists {
		h.log.Warn("Authentication failed: unknown admin ID", "adminID", adminID)
		return adminID, false
	}

	adminSignature, err := base64.StdEncoding.DecodeString(adminSignatureStr)
	if err != nil {
		h.log.Warn("Authentication failed: invalid signature encoding", "adminID", adminID, "err", err)
		return adminID, false
	}

	block, _ := pem.Decode(pubKeyPEM)
	if block == nil {
		h.log.Error("Failed to decode admin public key PEM", "adminID", adminID)
		return adminID, false
	}

	pubKey, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		h.log.Error("Failed to parse admin public key", "adminID", adminID, "err", err)
		return adminID, false
	}

	ecdsaPubKey, ok := pubKey.(*ecdsa.PublicKey)
	if !ok {
		h.log.Error("Admin public key is not an ECDSA key", "adminID", adminID)
		return adminID, false
	}

	// Read the request body without consuming it.
	var bodyBytes []byte
	if r.Body != nil {
		bodyBytes, err = io.ReadAll(r.Body)
		if err != nil {
			h.log.Error("Failed to read request body", "err", err)
			return adminID, false
		}
		r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
	}

	// The signed message is the request path followed by the body.
	message := r.URL.Path
	if len(bodyBytes) > 0 {
		message += string(bodyBytes)
	}
	hash := sha256.Sum256([]byte(message))

	if !ecdsa.VerifyASN1(ecdsaPubKey, hash[:], adminSignature) {
		h.log.Warn("Authentication failed: invalid signature", "adminID", adminID)
		return adminID, false
	}

	h.log.Debug("Admin authentication successful", "adminID", adminID)
	return adminID, true
}

type AdminsConfig struct {
	Admins []AdminMetadata `json:"admins"`
}

type AdminMetadata struct {
	ID     string `json:"id"`
	PubKey string `json:"pubkey"`
}

// LoadAdminKeys loads admin public keys from a JSON file.
//
// The JSON file should contain an "admins" array with entries that include:
//   - "id": A unique identifier for the admin
//   - "pubkey": The admin's public key in PEM format
//
// Parameters:
//   - r: Reader containing the JSON data
//
// Returns:
//   - Map of admin IDs to their public keys in PEM format
//   - Error if loading fails
func LoadAdminKeys(r io.Reader) (map[string][]byte, error) {
	var data AdminsConfig

	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode admin keys JSON: %w", err)
	}

	result := make(map[string][]byte)
	for _, admin := range data.Admins {
		block, _ := pem.Decode([]byte(admin.PubKey))
		if block == nil {
			return nil, fmt.Errorf("invalid PEM data for admin %s", admin.ID)
		}

		if _, err := x509.ParsePKIXPublicKey(block.Bytes); err != nil {
			return nil, fmt.Errorf("invalid public key for admin %s: %w", admin.ID, err)
		}

		result[admin.ID] = []byte(admin.PubKey)
	}

	return result, nil
}

// GenerateAdminKeyPair generates a new ECDSA key pair for an administrator.
//
// Returns:
//   - Private key PEM string (should be securely distributed to the admin)
//   - Public key PEM string (should be registered with the AdminHandler)
//   - Error if key generation fails
func GenerateAdminKeyPair() (string, string, error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate ECDSA key: %w", err)
	}

	privateKeyBytes, err := x509.MarshalECPrivateKey(privateKey)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal private key: %w", err)
	}
	privateKeyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "EC PRIVATE KEY",
		Bytes: privateKeyBytes,
	})

	publicKeyBytes, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal public key: %w", err)
	}
	publicKeyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: publicKeyBytes,
	})

	return string(privateKeyPEM), string(publicKeyPEM), nil
}

// ParsePrivateKey parses an ECDSA private key from PEM format.
//
// Parameters:
//   - privateKeyPEM: The private key in PEM format
//
// Returns:
//   - The parsed ECDSA private key
//   - Error if parsing fails
func ParsePrivateKey(privateKeyPEM []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(privateKeyPEM)
	if block == nil {
		return nil, errors.New("failed to decode PEM block containing private key")
	}

	privateKey, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ECDSA private key: %w", err)
	}

	return privateKey, nil
}
