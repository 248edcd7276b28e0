package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/database"
	"github.com/phrazzld/taskboard-api/internal/platform/database/databasetest"
	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectStore(t *testing.T) {
	db := databasetest.New(t)
	s := database.NewProjectStore(db, nil)
	ctx := context.Background()
	owner := databasetest.CreateUser(t, db, "Owner", "owner@example.com")
	other := databasetest.CreateUser(t, db, "Other", "other@example.com")
	now := time.Now().UTC()

	newProject := func(title string, userID int64, status domain.ProjectStatus) *domain.Project {
		p := &domain.Project{
			Title: title, Status: status, UserID: userID,
			StartDate: date(t, "2030-01-01"), EndDate: date(t, "2030-02-01"),
			CreatedAt: now, UpdatedAt: now,
		}
		require.NoError(t, s.Create(ctx, p))
		return p
	}

	launch := newProject("Launch", owner.ID, domain.ProjectStatusPending)
	newProject("Refactor", owner.ID, domain.ProjectStatusInProgress)
	newProject("Hiring", other.ID, domain.ProjectStatusPending)

	got, err := s.GetByID(ctx, launch.ID)
	require.NoError(t, err)
	assert.Equal(t, "2030-02-01", got.EndDate.String())

	got.Status = domain.ProjectStatusCompleted
	require.NoError(t, s.Update(ctx, got))
	got, err = s.GetByID(ctx, launch.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectStatusCompleted, got.Status)

	_, total, err := s.List(ctx, domain.ProjectFilter{UserID: owner.ID}, domain.NewPageRequest(1, 15))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	list, total, err := s.List(ctx, domain.ProjectFilter{Status: domain.ProjectStatusPending}, domain.NewPageRequest(1, 15))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Hiring", list[0].Title)

	err = s.Create(ctx, &domain.Project{Title: "Orphan", Status: domain.ProjectStatusPending, UserID: 999, CreatedAt: now, UpdatedAt: now})
	assert.ErrorIs(t, err, store.ErrInvalidEntity)

	require.NoError(t, s.Delete(ctx, launch.ID))
	_, err = s.GetByID(ctx, launch.ID)
	assert.ErrorIs(t, err, store.ErrProjectNotFound)
}
