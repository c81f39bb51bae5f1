package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServiceError(t *testing.T) {
	assert.Nil(t, NewServiceError("op", "message", nil))

	// Sentinels pass through unwrapped so callers can match identity.
	err := NewServiceError("login", "lookup failed", ErrUserNotFound)
	assert.Equal(t, ErrUserNotFound, err)

	wrapped := NewServiceError("login", "lookup failed", fmt.Errorf("db: %w", ErrAccountLocked))
	assert.Equal(t, ErrAccountLocked, wrapped)

	// Unknown errors get operation context and stay unwrappable.
	cause := errors.New("connection reset")
	err = NewServiceError("list_tasks", "failed to list tasks", cause)
	var serviceErr *ServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, "list_tasks", serviceErr.Operation)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "list_tasks")
	assert.Contains(t, err.Error(), "connection reset")
}
