package httpserver

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formvault/document-storage-backend/interfaces"
	"github.com/formvault/document-storage-backend/storage"
)

var testLog = slog.New(slog.NewTextHandler(io.Discard, nil))

// generateAdminKeyPairs generates n admin key pairs for testing.
func generateAdminKeyPairs(t *testing.T, n int) (map[string]*ecdsa.PrivateKey, map[string][]byte) {
	t.Helper()

	adminPrivKeys := make(map[string]*ecdsa.PrivateKey, n)
	adminPubKeyPEMs := make(map[string][]byte, n)

	for i := 0; i < n; i++ {
		adminID := fmt.Sprintf("admin%d", i+1)

		privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		require.NoError(t, err, "Failed to generate ECDSA key")
		adminPrivKeys[adminID] = privateKey

		pubKeyBytes, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
		require.NoError(t, err, "Failed to marshal public key")

		adminPubKeyPEMs[adminID] = pem.EncodeToMemory(&pem.Block{
			Type:  "PUBLIC KEY",
			Bytes: pubKeyBytes,
		})
	}

	return adminPrivKeys, adminPubKeyPEMs
}

// signedAdminRequest builds a request carrying a valid admin signature over
// path + body.
func signedAdminRequest(t *testing.T, method, target string, body []byte, adminID string, key *ecdsa.PrivateKey) *http.Request {
	t.Helper()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	message := req.URL.Path
	if len(body) > 0 {
		message += string(body)
	}
	hash := sha256.Sum256([]byte(message))
	sig, err := ecdsa.SignASN1(rand.Reader, key, hash[:])
	require.NoError(t, err)

	req.Header.Set("X-Admin-ID", adminID)
	req.Header.Set("X-Admin-Signature", base64.StdEncoding.EncodeToString(sig))
	return req
}

func newAdminEnv(t *testing.T) (*chi.Mux, *storage.RuntimeConfigSource, map[string]*ecdsa.PrivateKey) {
	t.Helper()

	privKeys, pubKeys := generateAdminKeyPairs(t, 2)
	source := storage.NewRuntimeConfigSource(interfaces.BackendConfiguration{Kind: interfaces.BackendLocal})
	handler := NewAdminHandler(source, pubKeys, testLog)

	mux := chi.NewRouter()
	handler.RegisterRoutes(mux)
	return mux, source, privKeys
}

func TestAdminUpdateStorageConfig(t *testing.T) {
	mux, source, privKeys := newAdminEnv(t)

	update, err := json.Marshal(StorageConfigUpdate{
		Kind:      "remote",
		Endpoint:  "http://localhost:9000",
		Bucket:    "documents",
		Region:    "eu-west-1",
		AccessKey: "test-access",
		SecretKey: "test-secret",
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, signedAdminRequest(t, http.MethodPut, "/api/v1/admin/storage-config", update, "admin1", privKeys["admin1"]))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var view StorageConfigView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, interfaces.BackendRemote, view.Kind)
	assert.Equal(t, "documents", view.Bucket)
	assert.True(t, view.AccessKeySet)
	assert.True(t, view.SecretKeySet)
	assert.NotContains(t, w.Body.String(), "test-secret")
	assert.NotContains(t, w.Body.String(), "test-access")

	cfg, err := source.BackendConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, interfaces.BackendRemote, cfg.Kind)
	assert.Equal(t, "test-secret", cfg.SecretKey)

	// The resolver picks the new configuration up on the next call.
	resolver := storage.NewResolver(source, filepath.Join(t.TempDir(), "uploads"), nil, testLog)
	backend, err := resolver.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, interfaces.BackendRemote, backend.Kind())
}

func TestAdminUpdateRejectsUnknownKind(t *testing.T) {
	mux, _, privKeys := newAdminEnv(t)

	update := []byte(`{"kind":"ipfs"}`)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, signedAdminRequest(t, http.MethodPut, "/api/v1/admin/storage-config", update, "admin1", privKeys["admin1"]))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminGetConfigRedactsCredentials(t *testing.T) {
	mux, source, privKeys := newAdminEnv(t)

	source.Update(interfaces.BackendConfiguration{
		Kind:      interfaces.BackendRemote,
		Bucket:    "documents",
		AccessKey: "AKIAEXAMPLE",
		SecretKey: "super-secret-value",
	})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, signedAdminRequest(t, http.MethodGet, "/api/v1/admin/storage-config", nil, "admin2", privKeys["admin2"]))
	require.Equal(t, http.StatusOK, w.Code)

	var view StorageConfigView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.True(t, view.AccessKeySet)
	assert.True(t, view.SecretKeySet)
	assert.NotContains(t, w.Body.String(), "super-secret-value")
	assert.NotContains(t, w.Body.String(), "AKIAEXAMPLE")
}

func TestAdminAuthenticationFailures(t *testing.T) {
	mux, _, privKeys := newAdminEnv(t)

	strangerKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	update := []byte(`{"kind":"local"}`)

	t.Run("missing headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/storage-config", bytes.NewReader(update))
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown admin", func(t *testing.T) {
		req := signedAdminRequest(t, http.MethodPut, "/api/v1/admin/storage-config", update, "nobody", strangerKey)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong key", func(t *testing.T) {
		req := signedAdminRequest(t, http.MethodPut, "/api/v1/admin/storage-config", update, "admin1", strangerKey)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("tampered body", func(t *testing.T) {
		req := signedAdminRequest(t, http.MethodPut, "/api/v1/admin/storage-config", update, "admin1", privKeys["admin1"])
		req.Body = io.NopCloser(strings.NewReader(`{"kind":"remote"}`))
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestLoadAdminKeys(t *testing.T) {
	_, pubKeys := generateAdminKeyPairs(t, 2)

	doc := map[string]any{
		"admins": []map[string]string{
			{"id": "admin1", "pubkey": string(pubKeys["admin1"])},
			{"id": "admin2", "pubkey": string(pubKeys["admin2"])},
		},
	}
	encoded, err := json.Marshal(doc)
	require.NoError(t, err)

	loaded, err := LoadAdminKeys(bytes.NewReader(encoded))
	require.NoError(t, err)
	assert.Len(t, loaded, 2)
	assert.Equal(t, pubKeys["admin1"], loaded["admin1"])

	_, err = LoadAdminKeys(strings.NewReader(`{"admins":[{"id":"bad","pubkey":"not pem"}]}`))
	assert.Error(t, err)
}

func TestGenerateAdminKeyPairRoundTrip(t *testing.T) {
	privPEM, pubPEM, err := GenerateAdminKeyPair()
	require.NoError(t, err)

	privateKey, err := ParsePrivateKey([]byte(privPEM))
	require.NoError(t, err)

	// The generated pair must satisfy the handler's verification path.
	source := storage.NewRuntimeConfigSource(interfaces.BackendConfiguration{})
	handler := NewAdminHandler(source, map[string][]byte{"ops": []byte(pubPEM)}, testLog)
	mux := chi.NewRouter()
	handler.RegisterRoutes(mux)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, signedAdminRequest(t, http.MethodGet, "/api/v1/admin/storage-config", nil, "ops", privateKey))
	assert.Equal(t, http.StatusOK, w.Code)
}
