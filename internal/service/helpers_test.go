package service_test

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/events"
	"github.com/phrazzld/taskboard-api/internal/platform/database"
	"github.com/phrazzld/taskboard-api/internal/platform/database/databasetest"
	"github.com/phrazzld/taskboard-api/internal/service"
	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testOptions() []service.Option {
	return []service.Option{
		service.WithClock(func() time.Time { return fixedNow }),
		service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
}

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

func date(t *testing.T, s string) *domain.Date {
	t.Helper()
	d, err := domain.ParseDate(s)
	require.NoError(t, err)
	return &d
}

// mockEmitter records emitted events through testify's mock.
type mockEmitter struct {
	mock.Mock
}

func (m *mockEmitter) EmitEvent(ctx context.Context, event *events.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// countingTaskStore counts reads that reach the database outside a
// transaction.
type countingTaskStore struct {
	store.TaskStore
	lists atomic.Int32
	gets  atomic.Int32
}

func (s *countingTaskStore) List(
	ctx context.Context,
	filter domain.TaskFilter,
	page domain.PageRequest,
) ([]domain.Task, int64, error) {
	s.lists.Add(1)
	return s.TaskStore.List(ctx, filter, page)
}

func (s *countingTaskStore) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	s.gets.Add(1)
	return s.TaskStore.GetByID(ctx, id)
}

func openDB(t *testing.T) *sqlx.DB {
	t.Helper()
	return databasetest.New(t)
}

func newUserStore(db *sqlx.DB) store.UserStore {
	return database.NewUserStore(db, nil)
}
