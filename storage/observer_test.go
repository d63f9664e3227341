package storage

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formvault/document-storage-backend/interfaces"
)

func TestPrometheusObserverRecordsUploads(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := NewPrometheusObserver("test", reg)
	require.NoError(t, err)

	local, err := NewLocalBackend(t.TempDir(), testLog)
	require.NoError(t, err)
	backend := instrument(local, obs)

	ctx := context.Background()
	content := []byte("document content")
	require.NoError(t, backend.Put(ctx, "abc123.jpg", content, "image/jpeg"))

	uploaded := testutil.ToFloat64(obs.uploadedBytes.WithLabelValues("local"))
	assert.Equal(t, float64(len(content)), uploaded)
	assert.Zero(t, testutil.ToFloat64(obs.operationErrors.WithLabelValues("local", "put")))
}

func TestPrometheusObserverRecordsErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := NewPrometheusObserver("test", reg)
	require.NoError(t, err)

	local, err := NewLocalBackend(t.TempDir(), testLog)
	require.NoError(t, err)
	backend := instrument(local, obs)

	ctx := context.Background()
	_, err = backend.Get(ctx, "missing.jpg")
	require.ErrorIs(t, err, interfaces.ErrObjectNotFound)

	assert.Equal(t, float64(1), testutil.ToFloat64(obs.operationErrors.WithLabelValues("local", "get")))

	// Failed uploads must not count toward the volume metric.
	require.NoError(t, backend.Put(ctx, "abc123.jpg", []byte("data"), "image/jpeg"))
	err = backend.Put(ctx, "abc123.jpg", []byte("data"), "image/jpeg")
	require.ErrorIs(t, err, interfaces.ErrNameCollision)
	assert.Equal(t, float64(4), testutil.ToFloat64(obs.uploadedBytes.WithLabelValues("local")))
}

func TestPrometheusObserverDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()

	_, err := NewPrometheusObserver("test", reg)
	require.NoError(t, err)

	// A second observer in the same process reuses the collectors.
	_, err = NewPrometheusObserver("test", reg)
	assert.NoError(t, err)
}

func TestInstrumentPreservesBackendIdentity(t *testing.T) {
	local, err := NewLocalBackend(t.TempDir(), testLog)
	require.NoError(t, err)

	obs, err := NewPrometheusObserver("test", prometheus.NewRegistry())
	require.NoError(t, err)

	backend := instrument(local, obs)
	assert.Equal(t, interfaces.BackendLocal, backend.Kind())
	assert.Equal(t, local.Name(), backend.Name())

	// The nop observer adds no wrapper at all.
	assert.Equal(t, interfaces.StorageBackend(local), instrument(local, NewNopObserver()))
}
