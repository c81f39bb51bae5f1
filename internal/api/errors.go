package api

import (
	"errors"
	"net/http"

	"github.com/taskflow/taskflow-api/internal/api/shared"
	"github.com/taskflow/taskflow-api/internal/domain"
	"github.com/taskflow/taskflow-api/internal/service"
	"github.com/taskflow/taskflow-api/internal/service/auth"
	"github.com/taskflow/taskflow-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes based
// on the error type. This prevents leaking internal error types.
func MapErrorToStatusCode(err error) int {
	var validationErr *domain.ValidationError

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInactiveAccount),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	// Lockout is distinct from bad credentials: the account rejects
	// even the correct password until the lock expires.
	case errors.Is(err, service.ErrAccountLocked):
		return http.StatusLocked

	// Not found errors
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, service.ErrSubtaskNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, service.ErrEmailExists),
		errors.Is(err, store.ErrEmailExists):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, service.ErrInvalidResetToken),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, store.ErrInvalidEntity),
		errors.As(err, &validationErr),
		isDomainValidationError(err):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-facing message for the
// error. Internal details never reach the client.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var validationErr *domain.ValidationError

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"
	case errors.Is(err, service.ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.Is(err, service.ErrAccountLocked):
		return "Account temporarily locked due to too many failed login attempts. Please try again later."
	case errors.Is(err, service.ErrInactiveAccount):
		return "Account is deactivated"
	case errors.Is(err, domain.ErrUnauthorized):
		return "Unauthorized"
	case errors.Is(err, service.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, service.ErrTaskNotFound):
		return "Task not found"
	case errors.Is(err, service.ErrSubtaskNotFound):
		return "Subtask not found"
	case errors.Is(err, service.ErrEmailExists),
		errors.Is(err, store.ErrEmailExists):
		return "User already exists with this email address"
	case errors.Is(err, service.ErrInvalidResetToken):
		return "Invalid or expired password reset token"
	case errors.Is(err, service.ErrNotificationDelivery):
		return "Email could not be sent"
	case errors.As(err, &validationErr):
		return "Validation failed: " + validationErr.Field + " " + validationErr.Message
	case isDomainValidationError(err):
		return "Validation failed: " + err.Error()
	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"
	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError maps the error to a status code and safe message, and
// writes the error envelope. fallbackMessage overrides the mapped
// message when non-empty and the error has no specific mapping.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallbackMessage string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if fallbackMessage != "" && message == "An unexpected error occurred" {
		message = fallbackMessage
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}

// isDomainValidationError reports whether the error is one of the
// domain's field-rule sentinels.
func isDomainValidationError(err error) bool {
	for _, sentinel := range []error{
		domain.ErrEmptyName,
		domain.ErrNameTooLong,
		domain.ErrEmptyEmail,
		domain.ErrInvalidEmail,
		domain.ErrEmptyPassword,
		domain.ErrPasswordTooShort,
		domain.ErrPasswordTooLong,
		domain.ErrInvalidTheme,
		domain.ErrInvalidTaskView,
		domain.ErrInvalidStatus,
		domain.ErrInvalidPriority,
		domain.ErrEmptyTitle,
		domain.ErrTitleTooLong,
		domain.ErrDescriptionTooLong,
		domain.ErrCategoryTooLong,
		domain.ErrTagTooLong,
		domain.ErrNegativeTime,
		domain.ErrEmptySubtaskTitle,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
