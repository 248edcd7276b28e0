package cache

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/phrazzld/taskboard-api/internal/config"
	"github.com/redis/go-redis/v9"
)

// Open builds the Store selected by cfg.Driver. The returned closer
// releases any connection the store holds.
func Open(ctx context.Context, cfg config.CacheConfig) (Store, io.Closer, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryStore(10 * time.Minute), nopCloser{}, nil
	case "none":
		return NullStore{}, nopCloser{}, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return NewRedisStore(client, cfg.Prefix), client, nil
	default:
		return nil, nil, fmt.Errorf("unsupported cache driver %q", cfg.Driver)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
