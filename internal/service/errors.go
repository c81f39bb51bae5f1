// Package service provides application-level services for managing
// users, tasks, and productivity analytics.
package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check for these with errors.Is(); the API layer maps them to
// HTTP status codes.
var (
	// ErrInvalidCredentials indicates the email/password pair did not
	// match. Deliberately indistinguishable between "no such user" and
	// "wrong password". Maps to HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountLocked indicates too many consecutive failed logins.
	// The account rejects all logins, even with the correct password,
	// until the lock expires. Maps to HTTP 423.
	ErrAccountLocked = errors.New("account temporarily locked due to too many failed login attempts")

	// ErrInactiveAccount indicates the user exists but has been
	// deactivated. Maps to HTTP 401.
	ErrInactiveAccount = errors.New("account is deactivated")

	// ErrEmailExists indicates a registration attempt with an email
	// that is already taken. Maps to HTTP 409.
	ErrEmailExists = errors.New("user with this email already exists")

	// ErrUserNotFound indicates no user matched the lookup. Maps to HTTP 404.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidResetToken indicates a password reset token that is
	// unknown, already consumed, or expired. Maps to HTTP 400.
	ErrInvalidResetToken = errors.New("invalid or expired password reset token")

	// ErrTaskNotFound indicates the task does not exist or belongs to
	// another user. The two cases are not distinguished. Maps to HTTP 404.
	ErrTaskNotFound = errors.New("task not found")

	// ErrSubtaskNotFound indicates the parent task exists and is owned
	// by the caller, but no subtask matched the given ID. Maps to HTTP 404.
	ErrSubtaskNotFound = errors.New("subtask not found")

	// ErrNotificationDelivery indicates an outbound mail or notification
	// could not be delivered. Where delivery is load-bearing (password
	// reset), the operation fails with this error after rolling back any
	// partial state. Maps to HTTP 500.
	ErrNotificationDelivery = errors.New("notification could not be delivered")
)

// ServiceError wraps unexpected errors from a service with operation context.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "register", "list_tasks")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError. Known sentinel errors are
// returned directly without wrapping so callers can match them.
func NewServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	for _, sentinel := range []error{
		ErrInvalidCredentials,
		ErrAccountLocked,
		ErrInactiveAccount,
		ErrEmailExists,
		ErrUserNotFound,
		ErrInvalidResetToken,
		ErrTaskNotFound,
		ErrSubtaskNotFound,
		ErrNotificationDelivery,
	} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}

	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
