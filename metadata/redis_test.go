package metadata

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLog = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestNewRedisStoreRejectsBadURL(t *testing.T) {
	_, err := NewRedisStore(context.Background(), RedisConfig{URL: "not-a-url"}, testLog)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse redis url")
}

// newIntegrationStore connects to the Redis named by TEST_REDIS_URL, or
// skips the test when the variable is unset.
func newIntegrationStore(t *testing.T) *RedisStore {
	t.Helper()

	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	store, err := NewRedisStore(context.Background(), RedisConfig{URL: url}, testLog)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newIntegrationStore(t)

	rec := testRecord(t, "app-redis", "passport", time.Now().UTC().Truncate(time.Millisecond))
	require.NoError(t, store.Save(ctx, rec))
	t.Cleanup(func() { store.Delete(ctx, rec.ID) })

	got, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	listed, err := store.List(ctx, ListFilter{ApplicationID: "app-redis"})
	require.NoError(t, err)
	require.NotEmpty(t, listed)
	assert.Equal(t, rec.ID, listed[0].ID)

	require.NoError(t, store.Delete(ctx, rec.ID))
	_, err = store.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)
	assert.ErrorIs(t, store.Delete(ctx, rec.ID), ErrRecordNotFound)
}

func TestRedisStoreHealthy(t *testing.T) {
	store := newIntegrationStore(t)
	assert.NoError(t, store.Healthy(context.Background()))
}

func TestRedisStoreListPrunesExpired(t *testing.T) {
	ctx := context.Background()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	store, err := NewRedisStore(ctx, RedisConfig{URL: url, TTL: 50 * time.Millisecond}, testLog)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	rec := testRecord(t, "app-expiry", "passport", time.Now().UTC())
	require.NoError(t, store.Save(ctx, rec))
	time.Sleep(100 * time.Millisecond)

	listed, err := store.List(ctx, ListFilter{ApplicationID: "app-expiry"})
	require.NoError(t, err)
	for _, got := range listed {
		assert.NotEqual(t, rec.ID, got.ID)
	}
}
