package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// Identifier errors, one per entity, so the API can answer with an
// entity-specific code. All of them unwrap to domain.ErrInvalidID.
var (
	ErrInvalidTaskID         = fmt.Errorf("%w: task", domain.ErrInvalidID)
	ErrInvalidUserID         = fmt.Errorf("%w: user", domain.ErrInvalidID)
	ErrInvalidNotificationID = fmt.Errorf("%w: notification", domain.ErrInvalidID)
	ErrInvalidCommentID      = fmt.Errorf("%w: comment", domain.ErrInvalidID)
	ErrInvalidProjectID      = fmt.Errorf("%w: project", domain.ErrInvalidID)
)

// ServiceError wraps unexpected failures with the service operation that
// hit them.
type ServiceError struct {
	// Service names the failing service, e.g. "task"
	Service string
	// Operation is the operation that failed, e.g. "update"
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s failed: %s: %v", e.Service, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s service %s failed: %s", e.Service, e.Operation, e.Message)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError wraps err. Errors the caller is expected to branch on
// (validation, not found, invalid id, duplicates, bad credentials) are
// returned unchanged.
func NewServiceError(service, operation, message string, err error) error {
	if err == nil {
		return nil
	}
	if isExpected(err) {
		return err
	}
	return &ServiceError{
		Service:   service,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

func isExpected(err error) bool {
	return errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrInvalidID) ||
		errors.Is(err, domain.ErrInvalidCredentials) ||
		errors.Is(err, store.ErrNotFound) ||
		errors.Is(err, store.ErrDuplicate)
}

func validID(id int64, invalid error) error {
	if id <= 0 {
		return invalid
	}
	return nil
}
