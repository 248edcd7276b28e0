package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a TaggedStore backed by Redis. All keys, including the
// sets that track tag membership, live under prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(key string) string {
	return s.prefix + key
}

func (s *RedisStore) tagKey(tag string) string {
	return s.prefix + "tag:" + tag
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return raw, nil
}

// Set implements Store. A ttl <= 0 stores the value without expiry.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(key), value, redisTTL(ttl)).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Flush deletes every key under the store's prefix.
func (s *RedisStore) Flush(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := s.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("redis flush: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	if len(batch) > 0 {
		if err := s.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis flush: %w", err)
		}
	}
	return nil
}

// SetTagged implements TaggedStore.
func (s *RedisStore) SetTagged(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) error {
	full := s.key(key)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, full, value, redisTTL(ttl))
		for _, tag := range tags {
			pipe.SAdd(ctx, s.tagKey(tag), full)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set tagged: %w", err)
	}
	return nil
}

// FlushTag implements TaggedStore.
func (s *RedisStore) FlushTag(ctx context.Context, tag string) error {
	tagKey := s.tagKey(tag)
	members, err := s.client.SMembers(ctx, tagKey).Result()
	if err != nil {
		return fmt.Errorf("redis tag members: %w", err)
	}
	if err := s.client.Del(ctx, append(members, tagKey)...).Err(); err != nil {
		return fmt.Errorf("redis flush tag: %w", err)
	}
	return nil
}

func redisTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	return ttl
}
