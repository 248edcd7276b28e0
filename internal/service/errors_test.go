package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestInvalidIDErrors(t *testing.T) {
	for _, err := range []error{
		ErrInvalidTaskID, ErrInvalidUserID, ErrInvalidNotificationID, ErrInvalidCommentID, ErrInvalidProjectID,
	} {
		assert.ErrorIs(t, err, domain.ErrInvalidID)
	}
	assert.False(t, errors.Is(ErrInvalidTaskID, ErrInvalidUserID))
}

func TestServiceError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ServiceError
		expected string
	}{
		{
			name:     "with underlying error",
			err:      &ServiceError{Service: "task", Operation: "update", Message: "failed to update task", Err: errors.New("disk full")},
			expected: "task service update failed: failed to update task: disk full",
		},
		{
			name:     "without underlying error",
			err:      &ServiceError{Service: "user", Operation: "create_service", Message: "db cannot be nil"},
			expected: "user service create_service failed: db cannot be nil",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestNewServiceError(t *testing.T) {
	assert.NoError(t, NewServiceError("task", "get", "x", nil))

	expected := []error{
		store.ErrTaskNotFound,
		fmt.Errorf("loading: %w", store.ErrUserNotFound),
		domain.NewValidationError("title", "required"),
		ErrInvalidTaskID,
		store.ErrEmailExists,
		domain.ErrInvalidCredentials,
	}
	for _, err := range expected {
		assert.Same(t, err, NewServiceError("task", "get", "x", err), "%v is returned unchanged", err)
	}

	infra := errors.New("connection reset")
	wrapped := NewServiceError("task", "list", "failed to list tasks", infra)
	var serr *ServiceError
	assert.True(t, errors.As(wrapped, &serr))
	assert.Equal(t, "list", serr.Operation)
	assert.ErrorIs(t, wrapped, infra)
}
