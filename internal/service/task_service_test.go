package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/phrazzld/taskboard-api/internal/cache"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/events"
	"github.com/phrazzld/taskboard-api/internal/platform/database"
	"github.com/phrazzld/taskboard-api/internal/service"
	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type taskFixture struct {
	svc     *service.TaskService
	tasks   *countingTaskStore
	emitter *mockEmitter
}

func newTaskFixture(t *testing.T) *taskFixture {
	t.Helper()
	db := openDB(t)
	tasks := &countingTaskStore{TaskStore: database.NewTaskStore(db, nil)}
	emitter := &mockEmitter{}
	taskCache := cache.New(cache.NewMemoryStore(time.Minute), service.TaskCacheTag)

	svc, err := service.NewTaskService(db, tasks, taskCache, emitter, testOptions()...)
	require.NoError(t, err)
	return &taskFixture{svc: svc, tasks: tasks, emitter: emitter}
}

func (f *taskFixture) create(t *testing.T, title string) *domain.Task {
	t.Helper()
	task, err := f.svc.Create(context.Background(), domain.CreateTaskInput{Title: title})
	require.NoError(t, err)
	return task
}

func TestNewTaskService(t *testing.T) {
	db := openDB(t)
	tasks := database.NewTaskStore(db, nil)

	_, err := service.NewTaskService(nil, tasks, nil, &mockEmitter{})
	assert.Error(t, err)
	_, err = service.NewTaskService(db, nil, nil, &mockEmitter{})
	assert.Error(t, err)
	_, err = service.NewTaskService(db, tasks, nil, nil)
	assert.Error(t, err)

	svc, err := service.NewTaskService(db, tasks, nil, &mockEmitter{})
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestTaskService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults status to todo and trims the title", func(t *testing.T) {
		f := newTaskFixture(t)
		task, err := f.svc.Create(ctx, domain.CreateTaskInput{
			Title:       "  Write report  ",
			Description: strPtr("numbers"),
			DueDate:     date(t, "2025-06-01"),
		})
		require.NoError(t, err)
		assert.Positive(t, task.ID)
		assert.Equal(t, "Write report", task.Title)
		assert.Equal(t, domain.TaskStatusTodo, task.Status)
		assert.Equal(t, fixedNow, task.CreatedAt)

		got, err := f.svc.Get(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, task.Title, got.Title)
		assert.Equal(t, "2025-06-01", got.DueDate.String())
	})

	t.Run("validation failures carry field details", func(t *testing.T) {
		f := newTaskFixture(t)
		_, err := f.svc.Create(ctx, domain.CreateTaskInput{
			Title:   "",
			Status:  "archived",
			DueDate: date(t, "2025-05-31"),
		})
		require.Error(t, err)

		var verr *domain.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Contains(t, verr.Fields, "title")
		assert.Contains(t, verr.Fields, "status")
		assert.Contains(t, verr.Fields, "due_date")
	})

	t.Run("created task shows up in a cached list", func(t *testing.T) {
		f := newTaskFixture(t)
		page := domain.NewPageRequest(1, domain.DefaultPerPage)

		before, err := f.svc.List(ctx, domain.TaskFilter{}, page)
		require.NoError(t, err)
		assert.Zero(t, before.Total)

		f.create(t, "new")

		after, err := f.svc.List(ctx, domain.TaskFilter{}, page)
		require.NoError(t, err)
		assert.Equal(t, int64(1), after.Total)
		assert.Equal(t, int32(2), f.tasks.lists.Load(), "create must invalidate the list cache")
	})
}

func TestTaskService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("second identical read is served from cache", func(t *testing.T) {
		f := newTaskFixture(t)
		f.create(t, "one")
		f.create(t, "two")

		page := domain.NewPageRequest(1, 15)
		first, err := f.svc.List(ctx, domain.TaskFilter{}, page)
		require.NoError(t, err)
		second, err := f.svc.List(ctx, domain.TaskFilter{}, page)
		require.NoError(t, err)

		assert.Equal(t, first.Total, second.Total)
		assert.Len(t, second.Items, 2)
		assert.Equal(t, int32(1), f.tasks.lists.Load())
	})

	t.Run("page and filters are part of the cache key", func(t *testing.T) {
		f := newTaskFixture(t)
		for i := 0; i < 3; i++ {
			f.create(t, "task")
		}

		p1, err := f.svc.List(ctx, domain.TaskFilter{}, domain.NewPageRequest(1, 2))
		require.NoError(t, err)
		p2, err := f.svc.List(ctx, domain.TaskFilter{}, domain.NewPageRequest(2, 2))
		require.NoError(t, err)
		_, err = f.svc.List(ctx, domain.TaskFilter{Status: domain.TaskStatusDone}, domain.NewPageRequest(1, 2))
		require.NoError(t, err)

		assert.Len(t, p1.Items, 2)
		assert.Len(t, p2.Items, 1)
		assert.NotEqual(t, p1.Items[0].ID, p2.Items[0].ID)
		assert.Equal(t, int32(3), f.tasks.lists.Load())
	})

	t.Run("search text cannot share another filter set's entry", func(t *testing.T) {
		f := newTaskFixture(t)
		f.create(t, "x one")
		page := domain.NewPageRequest(1, 15)

		seeded, err := f.svc.List(ctx, domain.TaskFilter{Search: "x|status:todo"}, page)
		require.NoError(t, err)
		assert.Zero(t, seeded.Total)

		honest, err := f.svc.List(ctx, domain.TaskFilter{Status: domain.TaskStatusTodo, Search: "x"}, page)
		require.NoError(t, err)
		assert.Equal(t, int64(1), honest.Total)
		assert.Equal(t, int32(2), f.tasks.lists.Load())
	})

	t.Run("per page is clamped", func(t *testing.T) {
		f := newTaskFixture(t)
		got, err := f.svc.List(ctx, domain.TaskFilter{}, domain.PageRequest{Page: 0, PerPage: 500})
		require.NoError(t, err)
		assert.Equal(t, domain.MaxPerPage, got.PerPage)
		assert.Equal(t, 1, got.CurrentPage)
	})
}

func TestTaskService_Get(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)

	_, err := f.svc.Get(ctx, 0)
	assert.ErrorIs(t, err, service.ErrInvalidTaskID)
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = f.svc.Get(ctx, 999)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)

	task := f.create(t, "cached")
	reads := f.tasks.gets.Load()
	for i := 0; i < 3; i++ {
		_, err := f.svc.Get(ctx, task.ID)
		require.NoError(t, err)
	}
	assert.Equal(t, reads+1, f.tasks.gets.Load())
}

func TestTaskService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("emits one event with the changed fields", func(t *testing.T) {
		f := newTaskFixture(t)
		task := f.create(t, "Ship it")

		var emitted *events.Event
		f.emitter.On("EmitEvent", mock.Anything, mock.AnythingOfType("*events.Event")).
			Run(func(args mock.Arguments) { emitted = args.Get(1).(*events.Event) }).
			Return(nil).Once()

		done := domain.TaskStatusDone
		updated, err := f.svc.Update(ctx, task.ID, domain.UpdateTaskInput{
			Title:  strPtr("Ship it"),
			Status: &done,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusDone, updated.Status)
		f.emitter.AssertExpectations(t)

		require.NotNil(t, emitted)
		assert.Equal(t, events.TypeTaskUpdated, emitted.Type)
		var payload events.TaskUpdatedPayload
		require.NoError(t, json.Unmarshal(emitted.Payload, &payload))
		assert.Equal(t, []string{"status"}, payload.ChangedFields)
		assert.Equal(t, task.ID, payload.Task.ID)
		assert.Equal(t, domain.TaskStatusDone, payload.Task.Status)

		got, err := f.svc.Get(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusDone, got.Status)
	})

	t.Run("no event when nothing changed", func(t *testing.T) {
		f := newTaskFixture(t)
		task := f.create(t, "Same")

		updated, err := f.svc.Update(ctx, task.ID, domain.UpdateTaskInput{Title: strPtr("Same")})
		require.NoError(t, err)
		assert.Equal(t, "Same", updated.Title)

		_, err = f.svc.Update(ctx, task.ID, domain.UpdateTaskInput{})
		require.NoError(t, err)
		f.emitter.AssertNotCalled(t, "EmitEvent", mock.Anything, mock.Anything)
	})

	t.Run("changed fields follow the fixed order", func(t *testing.T) {
		f := newTaskFixture(t)
		task := f.create(t, "Old")

		var emitted *events.Event
		f.emitter.On("EmitEvent", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { emitted = args.Get(1).(*events.Event) }).
			Return(nil).Once()

		inProgress := domain.TaskStatusInProgress
		_, err := f.svc.Update(ctx, task.ID, domain.UpdateTaskInput{
			DueDate:     date(t, "2020-01-01"),
			Status:      &inProgress,
			Description: strPtr("details"),
			Title:       strPtr("New"),
		})
		require.NoError(t, err)

		var payload events.TaskUpdatedPayload
		require.NoError(t, emitted.UnmarshalPayload(&payload))
		assert.Equal(t, []string{"title", "description", "status", "due_date"}, payload.ChangedFields)
	})

	t.Run("emit failure does not fail the update", func(t *testing.T) {
		f := newTaskFixture(t)
		task := f.create(t, "t")
		f.emitter.On("EmitEvent", mock.Anything, mock.Anything).Return(errors.New("listener down")).Once()

		updated, err := f.svc.Update(ctx, task.ID, domain.UpdateTaskInput{Title: strPtr("t2")})
		require.NoError(t, err)
		assert.Equal(t, "t2", updated.Title)
	})

	t.Run("invalid id, missing task and bad input", func(t *testing.T) {
		f := newTaskFixture(t)

		_, err := f.svc.Update(ctx, -1, domain.UpdateTaskInput{})
		assert.ErrorIs(t, err, service.ErrInvalidTaskID)

		_, err = f.svc.Update(ctx, 404, domain.UpdateTaskInput{Title: strPtr("x")})
		assert.ErrorIs(t, err, store.ErrTaskNotFound)

		bad := domain.TaskStatus("archived")
		_, err = f.svc.Update(ctx, 1, domain.UpdateTaskInput{Status: &bad})
		assert.ErrorIs(t, err, domain.ErrValidation)
		f.emitter.AssertNotCalled(t, "EmitEvent", mock.Anything, mock.Anything)
	})
}

func TestTaskService_Delete(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)
	task := f.create(t, "Doomed")

	_, err := f.svc.Get(ctx, task.ID)
	require.NoError(t, err)

	snapshot, err := f.svc.Delete(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskSnapshot{ID: task.ID, Title: "Doomed", Status: domain.TaskStatusTodo}, snapshot)

	_, err = f.svc.Get(ctx, task.ID)
	assert.ErrorIs(t, err, store.ErrTaskNotFound, "cached entry must be invalidated")

	_, err = f.svc.Delete(ctx, task.ID)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)

	_, err = f.svc.Delete(ctx, 0)
	assert.ErrorIs(t, err, service.ErrInvalidTaskID)
}
