package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formvault/document-storage-backend/api"
	"github.com/formvault/document-storage-backend/api/filehandler"
	"github.com/formvault/document-storage-backend/cryptoname"
	"github.com/formvault/document-storage-backend/interfaces"
	"github.com/formvault/document-storage-backend/metadata"
	"github.com/formvault/document-storage-backend/storage"
	"github.com/formvault/document-storage-backend/validation"
	"github.com/formvault/document-storage-backend/vault"
)

type fakeProber struct{ err error }

func (p fakeProber) Ready(context.Context) error { return p.err }

func newTestServer(t *testing.T, prober ReadinessProber, corsOrigins ...string) *Server {
	t.Helper()

	namer, err := cryptoname.New("test-secret")
	require.NoError(t, err)

	resolver := storage.NewResolver(
		storage.NewStaticConfigSource(interfaces.BackendConfiguration{Kind: interfaces.BackendLocal}),
		filepath.Join(t.TempDir(), "uploads"), nil, testLog)

	documentVault := vault.New(validation.New(validation.Config{}, testLog), namer, resolver, testLog)
	files := filehandler.NewHandler(documentVault, metadata.NewMemoryStore(), testLog)

	srv, err := New(&api.HTTPServerConfig{
		ListenAddr:               "127.0.0.1:0",
		Log:                      testLog,
		DrainDuration:            10 * time.Millisecond,
		GracefulShutdownDuration: time.Second,
		CORSAllowedOrigins:       corsOrigins,
	}, files, nil, prober)
	require.NoError(t, err)
	return srv
}

func get(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestServer(t, nil).getRouter()

	w := get(t, router, "/livez")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"alive"}`, w.Body.String())

	w = get(t, router, "/readyz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ready"}`, w.Body.String())
}

func TestDrainAndUndrain(t *testing.T) {
	router := newTestServer(t, nil).getRouter()

	w := get(t, router, "/drain")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"draining"}`, w.Body.String())

	w = get(t, router, "/drain")
	assert.JSONEq(t, `{"status":"already draining"}`, w.Body.String())

	w = get(t, router, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"not ready"}`, w.Body.String())

	w = get(t, router, "/undrain")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ready"}`, w.Body.String())

	w = get(t, router, "/undrain")
	assert.JSONEq(t, `{"status":"already ready"}`, w.Body.String())

	w = get(t, router, "/readyz")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadyzDegradedWhenProbeFails(t *testing.T) {
	router := newTestServer(t, fakeProber{err: errors.New("redis down")}).getRouter()

	w := get(t, router, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"degraded"}`, w.Body.String())

	// Liveness is unaffected by dependency health.
	w = get(t, router, "/livez")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFilesAPIRoutedThroughServer(t *testing.T) {
	router := newTestServer(t, nil).getRouter()

	w := get(t, router, "/api/v1/files/validation/rules")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "max_size_bytes")

	w = get(t, router, "/api/v1/files")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	router := newTestServer(t, nil, "http://localhost:3000").getRouter()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/files", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

type failingResolver struct{ err error }

func (r failingResolver) Resolve(context.Context) (interfaces.StorageBackend, error) {
	return nil, r.err
}

type unavailableBackend struct{ interfaces.StorageBackend }

func (unavailableBackend) Available(context.Context) bool { return false }
func (unavailableBackend) Name() string                   { return "remote-s3" }

type unavailableResolver struct{}

func (unavailableResolver) Resolve(context.Context) (interfaces.StorageBackend, error) {
	return unavailableBackend{}, nil
}

type unhealthyStore struct{ *metadata.MemoryStore }

func (unhealthyStore) Healthy(context.Context) error { return errors.New("connection refused") }

func TestServiceProber(t *testing.T) {
	resolver := storage.NewResolver(
		storage.NewStaticConfigSource(interfaces.BackendConfiguration{Kind: interfaces.BackendLocal}),
		filepath.Join(t.TempDir(), "uploads"), nil, testLog)

	t.Run("healthy", func(t *testing.T) {
		prober := ServiceProber{Resolver: resolver, Store: metadata.NewMemoryStore()}
		assert.NoError(t, prober.Ready(context.Background()))
	})

	t.Run("nil store is skipped", func(t *testing.T) {
		prober := ServiceProber{Resolver: resolver}
		assert.NoError(t, prober.Ready(context.Background()))
	})

	t.Run("resolution failure", func(t *testing.T) {
		prober := ServiceProber{Resolver: failingResolver{err: errors.New("no backend")}}
		err := prober.Ready(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "backend resolution failed")
	})

	t.Run("backend unavailable", func(t *testing.T) {
		prober := ServiceProber{Resolver: unavailableResolver{}}
		err := prober.Ready(context.Background())
		assert.ErrorIs(t, err, interfaces.ErrBackendUnavailable)
	})

	t.Run("unhealthy store", func(t *testing.T) {
		prober := ServiceProber{Resolver: resolver, Store: unhealthyStore{metadata.NewMemoryStore()}}
		err := prober.Ready(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "metadata store unhealthy")
	})
}
