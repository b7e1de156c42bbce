package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	nerrors "github.com/genecyber/NOESIS-sub002/pkg/errors"
	"github.com/genecyber/NOESIS-sub002/pkg/session"
)

const (
	redisPrefix   = "noesis:session:"
	redisIndexKey = "noesis:sessions"
)

// RedisStore keeps session records in Redis. Records expire after ttl when
// ttl is positive.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to redisURL and checks the connection.
func NewRedisStore(ctx context.Context, redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nerrors.Wrap(err, nerrors.ErrStorageOpenFailed, nerrors.CategoryStorage, "invalid redis url").
			WithContext("url", redisURL)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nerrors.Wrap(err, nerrors.ErrStorageOpenFailed, nerrors.CategoryStorage, "failed to connect to redis").
			WithContext("url", redisURL).
			WithSuggestion("Check that Redis is running and storage.redis_url is correct")
	}
	return NewRedisStoreWithClient(client, ttl), nil
}

// NewRedisStoreWithClient creates a store from an existing client.
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) key(id string) string {
	return redisPrefix + id
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, rec *session.Record) error {
	data, err := rec.Marshal()
	if err != nil {
		return writeFailed(err, rec.ID)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(rec.ID), data, s.ttl)
	pipe.SAdd(ctx, redisIndexKey, rec.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return writeFailed(err, rec.ID)
	}
	return nil
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context, id string) (*session.Record, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, readFailed(err, id)
	}
	rec, err := session.UnmarshalRecord(data)
	if err != nil {
		return nil, readFailed(err, id)
	}
	return rec, nil
}

// List implements Store. Expired records are dropped from the index as
// they are found.
func (s *RedisStore) List(ctx context.Context) ([]Summary, error) {
	ids, err := s.client.SMembers(ctx, redisIndexKey).Result()
	if err != nil {
		return nil, nerrors.Wrap(err, nerrors.ErrStorageReadFailed, nerrors.CategoryStorage, "failed to list sessions")
	}

	out := make([]Summary, 0, len(ids))
	for _, id := range ids {
		rec, err := s.Load(ctx, id)
		if nerrors.IsCode(err, nerrors.ErrStorageNotFound) {
			s.client.SRem(ctx, redisIndexKey, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, summarize(rec))
	}
	sortSummaries(out)
	return out, nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, s.key(id)).Result()
	if err != nil {
		return writeFailed(err, id)
	}
	s.client.SRem(ctx, redisIndexKey, id)
	if n == 0 {
		return notFound(id)
	}
	return nil
}

// Ping checks if Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
