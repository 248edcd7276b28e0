package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/taskboard-api/internal/redact"
)

// ErrMiss is returned by Store.Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Store is a byte-oriented key/value store with expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Flush removes every key owned by the store.
	Flush(ctx context.Context) error
}

// TaggedStore is a Store that can group keys under tags and drop a whole
// group at once.
type TaggedStore interface {
	Store
	SetTagged(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) error
	FlushTag(ctx context.Context, tag string) error
}

// Cache binds a Store to a single tag.
type Cache struct {
	store         Store
	tag           string
	ttl           time.Duration
	flushUntagged bool
	logger        *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithFlushUntagged makes Invalidate flush the entire store when the store
// does not support tags.
func WithFlushUntagged(enabled bool) Option {
	return func(c *Cache) { c.flushUntagged = enabled }
}

// WithDefaultTTL sets the TTL used when Remember is called with ttl <= 0.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithLogger sets the logger used for degraded-mode warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// New creates a Cache over store for entries tagged with tag.
func New(store Store, tag string, opts ...Option) *Cache {
	c := &Cache{
		store:  store,
		tag:    tag,
		ttl:    time.Hour,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "cache", "tag", tag)
	return c
}

// Tag returns the tag that scopes this cache's entries.
func (c *Cache) Tag() string {
	return c.tag
}

// Remember returns the cached value for key, or calls fn, caches its
// result for ttl and returns it. Errors from fn are returned unchanged and
// nothing is cached.
func Remember[T any](
	ctx context.Context,
	c *Cache,
	key string,
	ttl time.Duration,
	fn func(ctx context.Context) (T, error),
) (T, error) {
	if c == nil {
		return fn(ctx)
	}

	raw, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var value T
		decodeErr := json.Unmarshal(raw, &value)
		if decodeErr == nil {
			return value, nil
		}
		c.logger.WarnContext(ctx, "discarding undecodable cache entry",
			slog.String("key", key),
			redact.Attr(decodeErr))
	case !errors.Is(err, ErrMiss):
		c.logger.WarnContext(ctx, "cache read failed, falling back to loader",
			slog.String("key", key),
			redact.Attr(err))
	}

	value, err := fn(ctx)
	if err != nil {
		return value, err
	}

	raw, err = json.Marshal(value)
	if err != nil {
		c.logger.WarnContext(ctx, "cache value not encodable",
			slog.String("key", key),
			redact.Attr(err))
		return value, nil
	}
	if ttl <= 0 {
		ttl = c.ttl
	}
	if err := c.put(ctx, key, raw, ttl); err != nil {
		c.logger.WarnContext(ctx, "cache write failed",
			slog.String("key", key),
			redact.Attr(err))
	}
	return value, nil
}

func (c *Cache) put(ctx context.Context, key string, raw []byte, ttl time.Duration) error {
	if tagged, ok := c.store.(TaggedStore); ok {
		return tagged.SetTagged(ctx, key, raw, ttl, c.tag)
	}
	return c.store.Set(ctx, key, raw, ttl)
}

// Invalidate drops every entry under the cache's tag. Stores without tag
// support are flushed entirely when WithFlushUntagged is set, and left
// alone otherwise.
func (c *Cache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if tagged, ok := c.store.(TaggedStore); ok {
		return tagged.FlushTag(ctx, c.tag)
	}
	if c.flushUntagged {
		return c.store.Flush(ctx)
	}
	c.logger.WarnContext(ctx, "cache store does not support tags, skipping flush")
	return nil
}
