package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/formvault/document-storage-backend/interfaces"
)

const (
	// fileKeyPrefix namespaces record keys.
	fileKeyPrefix = "file:"

	// indexKey is the sorted set of all record IDs, scored by upload time.
	indexKey = "files:index"

	// appKeyPrefix namespaces per-application ID sets.
	appKeyPrefix = "application:"
)

// RedisConfig configures the Redis-backed store.
type RedisConfig struct {
	// URL is a redis:// connection string.
	URL string

	// TTL expires records after the given duration. Zero keeps them forever.
	TTL time.Duration
}

// RedisStore persists records as JSON values in Redis, with a global
// upload-time index and one ID set per application for filtered listing.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

// NewRedisStore connects to Redis and verifies the connection with a ping.
func NewRedisStore(ctx context.Context, cfg RedisConfig, log *slog.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("Connected to redis metadata store", slog.String("addr", opts.Addr))
	return &RedisStore{client: client, ttl: cfg.TTL, log: log}, nil
}

func (s *RedisStore) Save(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, fileKey(rec.ID), data, s.ttl)
		pipe.ZAdd(ctx, indexKey, redis.Z{
			Score:  float64(rec.UploadedAt.UnixNano()),
			Member: rec.ID.String(),
		})
		if rec.ApplicationID != "" {
			pipe.SAdd(ctx, appKey(rec.ApplicationID), rec.ID.String())
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id interfaces.DocumentID) (Record, error) {
	data, err := s.client.Get(ctx, fileKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrRecordNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to fetch record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return rec, nil
}

func (s *RedisStore) List(ctx context.Context, filter ListFilter) ([]Record, error) {
	var ids []string
	var err error
	if filter.ApplicationID != "" {
		ids, err = s.client.SMembers(ctx, appKey(filter.ApplicationID)).Result()
	} else {
		ids, err = s.client.ZRevRange(ctx, indexKey, 0, -1).Result()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list record ids: %w", err)
	}
	if len(ids) == 0 {
		return []Record{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = fileKeyPrefix + id
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch records: %w", err)
	}

	matched := make([]Record, 0, len(values))
	var stale []string
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			// Expired record left behind in the index.
			stale = append(stale, ids[i])
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			s.log.Warn("Skipping undecodable record", slog.String("key", keys[i]), "err", err)
			continue
		}
		if filter.matches(rec) {
			matched = append(matched, rec)
		}
	}
	if len(stale) > 0 {
		s.dropStale(ctx, stale)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].UploadedAt.Equal(matched[j].UploadedAt) {
			return matched[i].UploadedAt.After(matched[j].UploadedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	if filter.Offset >= len(matched) {
		return []Record{}, nil
	}
	matched = matched[filter.Offset:]
	if limit := filter.pageSize(); len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *RedisStore) Delete(ctx context.Context, id interfaces.DocumentID) error {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, fileKey(id))
		pipe.ZRem(ctx, indexKey, id.String())
		if rec.ApplicationID != "" {
			pipe.SRem(ctx, appKey(rec.ApplicationID), id.String())
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

func (s *RedisStore) Healthy(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// dropStale removes index entries whose records have expired.
func (s *RedisStore) dropStale(ctx context.Context, ids []string) {
	members := make([]interface{}, len(ids))
	for i, id := range ids {
		members[i] = id
	}
	if err := s.client.ZRem(ctx, indexKey, members...).Err(); err != nil {
		s.log.Warn("Failed to prune stale index entries", "err", err)
		return
	}
	s.log.Debug("Pruned stale index entries", slog.Int("count", len(ids)))
}

func fileKey(id interfaces.DocumentID) string {
	return fileKeyPrefix + id.String()
}

func appKey(applicationID string) string {
	return appKeyPrefix + applicationID
}
