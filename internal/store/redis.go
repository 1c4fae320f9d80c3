package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// DefaultSnapshotKey is the redis key holding the serialized collection.
const DefaultSnapshotKey = "linkbatch:snapshot"

// RedisBlob stores the serialized collection as a single redis value.
type RedisBlob struct {
	client *redis.Client
	key    string
}

// NewRedisBlob creates a redis-backed blob. An empty key uses
// DefaultSnapshotKey.
func NewRedisBlob(client *redis.Client, key string) *RedisBlob {
	if key == "" {
		key = DefaultSnapshotKey
	}

	return &RedisBlob{client: client, key: key}
}

// Load returns the stored snapshot, or ErrNoSnapshot when the key is absent.
func (r *RedisBlob) Load(ctx context.Context) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSnapshot
		}

		return nil, err
	}

	return data, nil
}

// Save replaces the stored snapshot. No TTL: records expire logically, not
// physically.
func (r *RedisBlob) Save(ctx context.Context, data []byte) error {
	return r.client.Set(ctx, r.key, data, 0).Err()
}
