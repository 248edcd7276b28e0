package job

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testJob counts executions and delegates to fn.
type testJob struct {
	id       uuid.UUID
	jobType  string
	attempts int
	limit    time.Duration
	fn       func(ctx context.Context, call int) error

	calls atomic.Int32

	mu        sync.Mutex
	failedErr error
	failed    int
}

func newTestJob(attempts int, fn func(ctx context.Context, call int) error) *testJob {
	return &testJob{id: uuid.New(), jobType: "test", attempts: attempts, fn: fn}
}

func (j *testJob) ID() uuid.UUID          { return j.id }
func (j *testJob) Type() string           { return j.jobType }
func (j *testJob) Payload() []byte        { return []byte(`{}`) }
func (j *testJob) MaxAttempts() int       { return j.attempts }
func (j *testJob) Timeout() time.Duration { return j.limit }

func (j *testJob) Execute(ctx context.Context) error {
	call := int(j.calls.Add(1))
	if j.fn == nil {
		return nil
	}
	return j.fn(ctx, call)
}

func (j *testJob) Failed(_ context.Context, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.failed++
	j.failedErr = err
}

func (j *testJob) failedCalls() (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.failed, j.failedErr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func testConfig() RunnerConfig {
	cfg := DefaultRunnerConfig()
	cfg.RetryBackoff = time.Millisecond
	cfg.MaxRetryBackoff = 5 * time.Millisecond
	cfg.DefaultTimeout = time.Second
	return cfg
}

func newStartedRunner(t *testing.T, store *MockStore, cfg RunnerConfig) *Runner {
	t.Helper()
	r, err := NewRunner(store, cfg, testLogger())
	require.NoError(t, err)
	require.NoError(t, r.Start())
	t.Cleanup(r.Stop)
	return r
}

func waitForStatus(t *testing.T, store *MockStore, id uuid.UUID, want Status) Record {
	t.Helper()
	var rec Record
	require.Eventually(t, func() bool {
		var ok bool
		rec, ok = store.Get(id)
		return ok && rec.Status == want
	}, 2*time.Second, 5*time.Millisecond, "job %s never reached %s", id, want)
	return rec
}

func TestNewRunner(t *testing.T) {
	_, err := NewRunner(nil, DefaultRunnerConfig(), testLogger())
	assert.Error(t, err)

	_, err = NewRunner(NewMockStore(), DefaultRunnerConfig(), nil)
	assert.Error(t, err)

	r, err := NewRunner(NewMockStore(), RunnerConfig{}, testLogger())
	require.NoError(t, err)
	assert.Equal(t, DefaultRunnerConfig(), r.config)
}

func TestRunner_Submit(t *testing.T) {
	t.Run("persists then executes", func(t *testing.T) {
		store := NewMockStore()
		r := newStartedRunner(t, store, testConfig())

		j := newTestJob(1, nil)
		require.NoError(t, r.Submit(context.Background(), j))

		rec := waitForStatus(t, store, j.ID(), StatusCompleted)
		assert.Equal(t, 1, rec.Attempts)
		assert.Equal(t, "test", rec.Type)
		assert.Equal(t, int32(1), j.calls.Load())
	})

	t.Run("full queue leaves job pending without error", func(t *testing.T) {
		store := NewMockStore()
		cfg := testConfig()
		cfg.QueueSize = 1
		r, err := NewRunner(store, cfg, testLogger())
		require.NoError(t, err)

		first, second := newTestJob(1, nil), newTestJob(1, nil)
		require.NoError(t, r.Submit(context.Background(), first))
		require.NoError(t, r.Submit(context.Background(), second))

		for _, j := range []*testJob{first, second} {
			rec, ok := store.Get(j.ID())
			require.True(t, ok)
			assert.Equal(t, StatusPending, rec.Status)
		}
		assert.False(t, r.isInflight(second.ID()))
	})

	t.Run("store error is returned", func(t *testing.T) {
		store := NewMockStore()
		store.SaveFn = func(context.Context, Record) error { return errors.New("mock store error") }
		r, err := NewRunner(store, testConfig(), testLogger())
		require.NoError(t, err)

		j := newTestJob(1, nil)
		err = r.Submit(context.Background(), j)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to save job")
		assert.False(t, r.isInflight(j.ID()))
	})

	t.Run("rejected after stop", func(t *testing.T) {
		r, err := NewRunner(NewMockStore(), testConfig(), testLogger())
		require.NoError(t, err)
		require.NoError(t, r.Start())
		r.Stop()
		assert.ErrorIs(t, r.Submit(context.Background(), newTestJob(1, nil)), ErrRunnerStopped)
	})
}

func TestRunner_Retries(t *testing.T) {
	t.Run("exhausts all attempts then reports failure", func(t *testing.T) {
		store := NewMockStore()
		r, err := NewRunner(store, testConfig(), testLogger())
		require.NoError(t, err)

		var handled atomic.Int32
		r.SetErrorHandler(func(Job, error) { handled.Add(1) })
		require.NoError(t, r.Start())
		t.Cleanup(r.Stop)

		boom := errors.New("user vanished")
		j := newTestJob(3, func(context.Context, int) error { return boom })
		require.NoError(t, r.Submit(context.Background(), j))

		rec := waitForStatus(t, store, j.ID(), StatusFailed)
		assert.Equal(t, 3, rec.Attempts)
		require.NotNil(t, rec.LastError)
		assert.Equal(t, "user vanished", *rec.LastError)
		assert.Equal(t, int32(3), j.calls.Load())

		require.Eventually(t, func() bool { return handled.Load() == 1 }, time.Second, 5*time.Millisecond)
		n, ferr := j.failedCalls()
		assert.Equal(t, 1, n)
		assert.ErrorIs(t, ferr, boom)
	})

	t.Run("succeeds on a later attempt", func(t *testing.T) {
		store := NewMockStore()
		r := newStartedRunner(t, store, testConfig())

		j := newTestJob(3, func(_ context.Context, call int) error {
			if call < 2 {
				return errors.New("transient")
			}
			return nil
		})
		require.NoError(t, r.Submit(context.Background(), j))

		rec := waitForStatus(t, store, j.ID(), StatusCompleted)
		assert.Equal(t, 2, rec.Attempts)
		n, _ := j.failedCalls()
		assert.Zero(t, n)
	})

	t.Run("single attempt job is not retried", func(t *testing.T) {
		store := NewMockStore()
		r := newStartedRunner(t, store, testConfig())

		j := newTestJob(0, func(context.Context, int) error { return errors.New("nope") })
		require.NoError(t, r.Submit(context.Background(), j))

		waitForStatus(t, store, j.ID(), StatusFailed)
		assert.Equal(t, int32(1), j.calls.Load())
	})
}

func TestRunner_AttemptGuards(t *testing.T) {
	t.Run("attempt exceeding its timeout fails", func(t *testing.T) {
		store := NewMockStore()
		r := newStartedRunner(t, store, testConfig())

		j := newTestJob(1, func(ctx context.Context, _ int) error {
			<-ctx.Done()
			return ctx.Err()
		})
		j.limit = 20 * time.Millisecond
		require.NoError(t, r.Submit(context.Background(), j))

		rec := waitForStatus(t, store, j.ID(), StatusFailed)
		require.NotNil(t, rec.LastError)
		assert.Contains(t, *rec.LastError, "timed out")
	})

	t.Run("panic is converted to failure", func(t *testing.T) {
		store := NewMockStore()
		r := newStartedRunner(t, store, testConfig())

		j := newTestJob(1, func(context.Context, int) error { panic("bad job") })
		require.NoError(t, r.Submit(context.Background(), j))

		rec := waitForStatus(t, store, j.ID(), StatusFailed)
		require.NotNil(t, rec.LastError)
		assert.Contains(t, *rec.LastError, "panic: bad job")
	})
}

func TestRunner_Recovery(t *testing.T) {
	registerTestFactory := func(r *Runner, built map[uuid.UUID]*testJob, mu *sync.Mutex) {
		r.Register("test", func(rec Record) (Job, error) {
			mu.Lock()
			defer mu.Unlock()
			j := newTestJob(1, nil)
			j.id = rec.ID
			built[rec.ID] = j
			return j, nil
		})
	}

	t.Run("start re-queues pending and processing jobs", func(t *testing.T) {
		store := NewMockStore()
		now := time.Now()
		pending := Record{ID: uuid.New(), Type: "test", Status: StatusPending, CreatedAt: now, UpdatedAt: now}
		processing := Record{ID: uuid.New(), Type: "test", Status: StatusProcessing, CreatedAt: now, UpdatedAt: now}
		store.Put(pending)
		store.Put(processing)

		r, err := NewRunner(store, testConfig(), testLogger())
		require.NoError(t, err)
		built := map[uuid.UUID]*testJob{}
		var mu sync.Mutex
		registerTestFactory(r, built, &mu)

		require.NoError(t, r.Start())
		t.Cleanup(r.Stop)

		waitForStatus(t, store, pending.ID, StatusCompleted)
		waitForStatus(t, store, processing.ID, StatusCompleted)
		mu.Lock()
		assert.Len(t, built, 2)
		mu.Unlock()
	})

	t.Run("unknown job type is marked failed", func(t *testing.T) {
		store := NewMockStore()
		now := time.Now()
		orphan := Record{ID: uuid.New(), Type: "retired", Status: StatusPending, CreatedAt: now, UpdatedAt: now}
		store.Put(orphan)

		newStartedRunner(t, store, testConfig())

		rec := waitForStatus(t, store, orphan.ID, StatusFailed)
		require.NotNil(t, rec.LastError)
		assert.Contains(t, *rec.LastError, "no factory registered")
	})

	t.Run("sweep resets stuck jobs and picks up pending ones", func(t *testing.T) {
		store := NewMockStore()
		r, err := NewRunner(store, testConfig(), testLogger())
		require.NoError(t, err)
		built := map[uuid.UUID]*testJob{}
		var mu sync.Mutex
		registerTestFactory(r, built, &mu)
		require.NoError(t, r.Start())
		t.Cleanup(r.Stop)

		old := time.Now().Add(-time.Hour)
		stuck := Record{ID: uuid.New(), Type: "test", Status: StatusProcessing, CreatedAt: old, UpdatedAt: old}
		fresh := Record{ID: uuid.New(), Type: "test", Status: StatusProcessing, CreatedAt: time.Now(), UpdatedAt: time.Now()}
		left := Record{ID: uuid.New(), Type: "test", Status: StatusPending, CreatedAt: old, UpdatedAt: old}
		store.Put(stuck)
		store.Put(fresh)
		store.Put(left)

		r.Sweep(context.Background())

		waitForStatus(t, store, stuck.ID, StatusCompleted)
		waitForStatus(t, store, left.ID, StatusCompleted)
		rec, _ := store.Get(fresh.ID)
		assert.Equal(t, StatusProcessing, rec.Status)
	})

	t.Run("stale sweep listing does not re-run finished jobs", func(t *testing.T) {
		store := NewMockStore()
		r, err := NewRunner(store, testConfig(), testLogger())
		require.NoError(t, err)
		built := map[uuid.UUID]*testJob{}
		var mu sync.Mutex
		registerTestFactory(r, built, &mu)
		require.NoError(t, r.Start())
		t.Cleanup(r.Stop)

		old := time.Now().Add(-time.Hour)
		listedPending := Record{ID: uuid.New(), Type: "test", Status: StatusPending, CreatedAt: old, UpdatedAt: old}
		listedStuck := Record{ID: uuid.New(), Type: "test", Status: StatusProcessing, CreatedAt: old, UpdatedAt: old}

		// Both finished after the sweep listed them.
		for _, rec := range []Record{listedPending, listedStuck} {
			done := rec
			done.Status = StatusCompleted
			done.Attempts = 1
			store.Put(done)
		}

		r.requeue(context.Background(), []Record{listedPending}, false, "")
		r.requeue(context.Background(), []Record{listedStuck}, true, "reset after being stuck in processing state")

		require.Eventually(t, func() bool {
			return !r.isInflight(listedPending.ID) && !r.isInflight(listedStuck.ID)
		}, 2*time.Second, 5*time.Millisecond)

		mu.Lock()
		defer mu.Unlock()
		for _, id := range []uuid.UUID{listedPending.ID, listedStuck.ID} {
			rec, ok := store.Get(id)
			require.True(t, ok)
			assert.Equal(t, StatusCompleted, rec.Status)
			assert.Equal(t, 1, rec.Attempts)
			if j, ok := built[id]; ok {
				assert.Zero(t, j.calls.Load(), "job %s executed again", id)
			}
		}
	})
}
