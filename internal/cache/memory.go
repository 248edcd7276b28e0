package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore is a process-local TaggedStore backed by go-cache.
type MemoryStore struct {
	items *gocache.Cache

	mu   sync.Mutex
	tags map[string]map[string]struct{}
}

// NewMemoryStore creates a MemoryStore. Expired items are purged every
// cleanupInterval.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{
		items: gocache.New(gocache.NoExpiration, cleanupInterval),
		tags:  make(map[string]map[string]struct{}),
	}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := s.items.Get(key)
	if !ok {
		return nil, ErrMiss
	}
	raw, ok := v.([]byte)
	if !ok {
		return nil, ErrMiss
	}
	return raw, nil
}

// Set implements Store. A ttl <= 0 stores the value without expiry.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.items.Set(key, value, expiration(ttl))
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.items.Delete(key)
	return nil
}

// Flush implements Store.
func (s *MemoryStore) Flush(_ context.Context) error {
	s.items.Flush()
	s.mu.Lock()
	s.tags = make(map[string]map[string]struct{})
	s.mu.Unlock()
	return nil
}

// SetTagged implements TaggedStore.
func (s *MemoryStore) SetTagged(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) error {
	s.mu.Lock()
	for _, tag := range tags {
		members, ok := s.tags[tag]
		if !ok {
			members = make(map[string]struct{})
			s.tags[tag] = members
		}
		members[key] = struct{}{}
	}
	s.mu.Unlock()
	return s.Set(ctx, key, value, ttl)
}

// FlushTag implements TaggedStore.
func (s *MemoryStore) FlushTag(_ context.Context, tag string) error {
	s.mu.Lock()
	members := s.tags[tag]
	delete(s.tags, tag)
	s.mu.Unlock()

	for key := range members {
		s.items.Delete(key)
	}
	return nil
}

func expiration(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return gocache.NoExpiration
	}
	return ttl
}
