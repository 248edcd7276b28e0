package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// untaggedStore hides the tag support of the wrapped store.
type untaggedStore struct {
	Store
	flushed int
}

func (s *untaggedStore) Flush(ctx context.Context) error {
	s.flushed++
	return s.Store.Flush(ctx)
}

// brokenStore fails every operation.
type brokenStore struct{}

var errBroken = errors.New("connection refused")

func (brokenStore) Get(context.Context, string) ([]byte, error) { return nil, errBroken }
func (brokenStore) Set(context.Context, string, []byte, time.Duration) error { return errBroken }
func (brokenStore) Delete(context.Context, string) error { return errBroken }
func (brokenStore) Flush(context.Context) error { return errBroken }

type item struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRemember(t *testing.T) {
	ctx := context.Background()

	t.Run("miss loads and caches, hit skips loader", func(t *testing.T) {
		c := New(NewMemoryStore(time.Minute), "items", WithLogger(discardLogger()))
		calls := 0
		load := func(context.Context) (item, error) {
			calls++
			return item{ID: 1, Title: "first"}, nil
		}

		got, err := Remember(ctx, c, "items:1", time.Minute, load)
		require.NoError(t, err)
		assert.Equal(t, item{ID: 1, Title: "first"}, got)

		got, err = Remember(ctx, c, "items:1", time.Minute, load)
		require.NoError(t, err)
		assert.Equal(t, "first", got.Title)
		assert.Equal(t, 1, calls)
	})

	t.Run("loader error is returned and not cached", func(t *testing.T) {
		c := New(NewMemoryStore(time.Minute), "items", WithLogger(discardLogger()))
		boom := errors.New("not found")
		calls := 0
		load := func(context.Context) (*item, error) {
			calls++
			return nil, boom
		}

		_, err := Remember(ctx, c, "items:2", time.Minute, load)
		assert.ErrorIs(t, err, boom)
		_, err = Remember(ctx, c, "items:2", time.Minute, load)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 2, calls)
	})

	t.Run("store failure falls back to loader", func(t *testing.T) {
		log, buf := logger.NewBufferLogger()
		c := New(brokenStore{}, "items", WithLogger(log))

		got, err := Remember(ctx, c, "items:3", time.Minute, func(context.Context) ([]item, error) {
			return []item{{ID: 3}}, nil
		})
		require.NoError(t, err)
		assert.Len(t, got, 1)
		assert.Contains(t, buf.String(), "cache read failed")
		assert.Contains(t, buf.String(), "cache write failed")
	})

	t.Run("undecodable entry is replaced", func(t *testing.T) {
		store := NewMemoryStore(time.Minute)
		require.NoError(t, store.Set(ctx, "items:4", []byte("not json"), time.Minute))
		c := New(store, "items", WithLogger(discardLogger()))

		got, err := Remember(ctx, c, "items:4", time.Minute, func(context.Context) (item, error) {
			return item{ID: 4}, nil
		})
		require.NoError(t, err)
		assert.Equal(t, int64(4), got.ID)
	})

	t.Run("nil cache always loads", func(t *testing.T) {
		var c *Cache
		got, err := Remember(ctx, c, "k", 0, func(context.Context) (int, error) { return 7, nil })
		require.NoError(t, err)
		assert.Equal(t, 7, got)
		assert.NoError(t, c.Invalidate(ctx))
	})
}

func TestInvalidate(t *testing.T) {
	ctx := context.Background()
	load := func(v string) func(context.Context) (string, error) {
		return func(context.Context) (string, error) { return v, nil }
	}

	t.Run("tagged store drops only its tag", func(t *testing.T) {
		store := NewMemoryStore(time.Minute)
		tasks := New(store, "tasks", WithLogger(discardLogger()))
		users := New(store, "users", WithLogger(discardLogger()))

		_, err := Remember(ctx, tasks, "tasks:item:1", time.Minute, load("task"))
		require.NoError(t, err)
		_, err = Remember(ctx, users, "users:item:1", time.Minute, load("user"))
		require.NoError(t, err)

		require.NoError(t, tasks.Invalidate(ctx))

		_, err = store.Get(ctx, "tasks:item:1")
		assert.ErrorIs(t, err, ErrMiss)
		_, err = store.Get(ctx, "users:item:1")
		assert.NoError(t, err)
	})

	t.Run("untagged store is skipped by default", func(t *testing.T) {
		log, buf := logger.NewBufferLogger()
		store := &untaggedStore{Store: NewMemoryStore(time.Minute)}
		c := New(store, "tasks", WithLogger(log))

		_, err := Remember(ctx, c, "tasks:item:1", time.Minute, load("task"))
		require.NoError(t, err)
		require.NoError(t, c.Invalidate(ctx))

		assert.Zero(t, store.flushed)
		_, err = store.Get(ctx, "tasks:item:1")
		assert.NoError(t, err)
		assert.Contains(t, buf.String(), "cache store does not support tags, skipping flush")
	})

	t.Run("untagged store is flushed when enabled", func(t *testing.T) {
		store := &untaggedStore{Store: NewMemoryStore(time.Minute)}
		c := New(store, "tasks", WithFlushUntagged(true), WithLogger(discardLogger()))

		_, err := Remember(ctx, c, "tasks:item:1", time.Minute, load("task"))
		require.NoError(t, err)
		require.NoError(t, c.Invalidate(ctx))

		assert.Equal(t, 1, store.flushed)
		_, err = store.Get(ctx, "tasks:item:1")
		assert.ErrorIs(t, err, ErrMiss)
	})
}

func TestHashKey(t *testing.T) {
	a := HashKey("tasks:list:", map[string]string{"status": "todo", "search": "milk", "due_before": ""})
	b := HashKey("tasks:list:", map[string]string{"search": "milk", "status": "todo"})
	c := HashKey("tasks:list:", map[string]string{"search": "milk", "status": "done"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Regexp(t, `^tasks:list:[0-9a-f]{64}$`, a)

	injected := HashKey("tasks:list:", map[string]string{"search": "x|status:todo", "page": "1"})
	honest := HashKey("tasks:list:", map[string]string{"search": "x", "status": "todo", "page": "1"})
	assert.NotEqual(t, injected, honest, "separators inside values must not collide")

	amp := HashKey("tasks:list:", map[string]string{"search": "x&status=todo"})
	split := HashKey("tasks:list:", map[string]string{"search": "x", "status": "todo"})
	assert.NotEqual(t, amp, split)
}

func TestNullStore(t *testing.T) {
	ctx := context.Background()
	c := New(NullStore{}, "tasks", WithLogger(discardLogger()))
	calls := 0
	for i := 0; i < 2; i++ {
		_, err := Remember(ctx, c, "k", time.Minute, func(context.Context) (int, error) {
			calls++
			return calls, nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls)
}
