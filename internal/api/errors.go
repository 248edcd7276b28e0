package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/taskboard-api/internal/api/middleware"
	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/service"
	"github.com/phrazzld/taskboard-api/internal/service/auth"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// Error codes sent in the error envelope.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeBadRequest         = "BAD_REQUEST"
	CodeUnauthenticated    = middleware.CodeUnauthenticated
	CodeConflict           = "CONFLICT"
	CodeTooManyRequests    = middleware.CodeTooManyRequests
	CodeNotFound           = "NOT_FOUND"
	CodeServerError        = "SERVER_ERROR"

	CodeTaskNotFound         = "TASK_NOT_FOUND"
	CodeUserNotFound         = "USER_NOT_FOUND"
	CodeNotificationNotFound = "NOTIFICATION_NOT_FOUND"
	CodeCommentNotFound      = "COMMENT_NOT_FOUND"
	CodeProjectNotFound      = "PROJECT_NOT_FOUND"

	CodeInvalidTaskID         = "INVALID_TASK_ID"
	CodeInvalidUserID         = "INVALID_USER_ID"
	CodeInvalidNotificationID = "INVALID_NOTIFICATION_ID"
	CodeInvalidCommentID      = "INVALID_COMMENT_ID"
	CodeInvalidProjectID      = "INVALID_PROJECT_ID"
)

const messageServerError = "Something went wrong."

// errorMapping is one row of the error table. Rows are checked in order
// with errors.Is, so entity-specific errors precede their generic parents.
type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

var errorTable = []errorMapping{
	{domain.ErrInvalidCredentials, http.StatusUnprocessableEntity, CodeInvalidCredentials, "Email or password is incorrect."},
	{domain.ErrValidation, http.StatusUnprocessableEntity, CodeValidation, "The given data was invalid."},

	{store.ErrTaskNotFound, http.StatusNotFound, CodeTaskNotFound, "Task not found."},
	{store.ErrUserNotFound, http.StatusNotFound, CodeUserNotFound, "User not found."},
	{store.ErrNotificationNotFound, http.StatusNotFound, CodeNotificationNotFound, "Notification not found."},
	{store.ErrCommentNotFound, http.StatusNotFound, CodeCommentNotFound, "Comment not found."},
	{store.ErrProjectNotFound, http.StatusNotFound, CodeProjectNotFound, "Project not found."},
	{store.ErrNotFound, http.StatusNotFound, CodeNotFound, "Resource not found."},

	{service.ErrInvalidTaskID, http.StatusBadRequest, CodeInvalidTaskID, "Invalid task ID."},
	{service.ErrInvalidUserID, http.StatusBadRequest, CodeInvalidUserID, "Invalid user ID."},
	{service.ErrInvalidNotificationID, http.StatusBadRequest, CodeInvalidNotificationID, "Invalid notification ID."},
	{service.ErrInvalidCommentID, http.StatusBadRequest, CodeInvalidCommentID, "Invalid comment ID."},
	{service.ErrInvalidProjectID, http.StatusBadRequest, CodeInvalidProjectID, "Invalid project ID."},
	{domain.ErrInvalidID, http.StatusBadRequest, CodeBadRequest, "Invalid ID."},
	{shared.ErrBadRequest, http.StatusBadRequest, CodeBadRequest, "The request body is malformed."},

	{auth.ErrInvalidToken, http.StatusUnauthorized, CodeUnauthenticated, "Unauthenticated."},
	{auth.ErrExpiredToken, http.StatusUnauthorized, CodeUnauthenticated, "Unauthenticated."},
	{auth.ErrTokenNotYetValid, http.StatusUnauthorized, CodeUnauthenticated, "Unauthenticated."},
	{auth.ErrMissingToken, http.StatusUnauthorized, CodeUnauthenticated, "Unauthenticated."},
	{auth.ErrInvalidRefreshToken, http.StatusUnauthorized, CodeUnauthenticated, "Invalid refresh token."},
	{auth.ErrExpiredRefreshToken, http.StatusUnauthorized, CodeUnauthenticated, "Invalid refresh token."},
	{auth.ErrWrongTokenType, http.StatusUnauthorized, CodeUnauthenticated, "Invalid refresh token."},

	{store.ErrDuplicate, http.StatusConflict, CodeConflict, "The resource already exists."},
	{store.ErrInvalidEntity, http.StatusConflict, CodeConflict, "The request conflicts with existing data."},
}

func lookup(err error) (errorMapping, bool) {
	if err == nil {
		return errorMapping{}, false
	}
	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			return m, true
		}
	}
	return errorMapping{}, false
}

// MapErrorToStatusCode maps internal errors to HTTP status codes. Unknown
// errors map to 500.
func MapErrorToStatusCode(err error) int {
	if m, ok := lookup(err); ok {
		return m.status
	}
	return http.StatusInternalServerError
}

// ErrorCodeFor returns the envelope code for err.
func ErrorCodeFor(err error) string {
	if m, ok := lookup(err); ok {
		return m.code
	}
	return CodeServerError
}

// GetSafeErrorMessage returns a client-safe message for err. Internal
// details never pass through.
func GetSafeErrorMessage(err error) string {
	if m, ok := lookup(err); ok {
		return m.message
	}
	return messageServerError
}

// errorBody builds the envelope error member for err, including field
// details for validation failures.
func errorBody(err error) shared.ErrorBody {
	body := shared.ErrorBody{
		Code:    ErrorCodeFor(err),
		Message: GetSafeErrorMessage(err),
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) && verr.HasErrors() {
		body.Details = verr.Fields
	}
	return body
}

// HandleAPIError writes the error envelope for err and logs the redacted
// error.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	var opts []shared.ResponseOption
	if status == http.StatusUnauthorized {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, errorBody(err), err, opts...)
}
