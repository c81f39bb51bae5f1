package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskflow/taskflow-api/internal/domain"
	"github.com/taskflow/taskflow-api/internal/service"
	"github.com/taskflow/taskflow-api/internal/service/auth"
	"github.com/taskflow/taskflow-api/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid credentials", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"inactive account", service.ErrInactiveAccount, http.StatusUnauthorized},
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized},
		{"invalid token", auth.ErrInvalidToken, http.StatusUnauthorized},
		{"account locked", service.ErrAccountLocked, http.StatusLocked},
		{"user not found", service.ErrUserNotFound, http.StatusNotFound},
		{"task not found", service.ErrTaskNotFound, http.StatusNotFound},
		{"subtask not found", service.ErrSubtaskNotFound, http.StatusNotFound},
		{"email exists", service.ErrEmailExists, http.StatusConflict},
		{"store email exists", store.ErrEmailExists, http.StatusConflict},
		{"invalid reset token", service.ErrInvalidResetToken, http.StatusBadRequest},
		{"domain validation sentinel", domain.ErrTitleTooLong, http.StatusBadRequest},
		{"validation error type", domain.NewValidationError("page", "must be positive", domain.ErrValidation), http.StatusBadRequest},
		{"wrapped sentinel", fmt.Errorf("context: %w", service.ErrTaskNotFound), http.StatusNotFound},
		{"notification delivery", service.ErrNotificationDelivery, http.StatusInternalServerError},
		{"unknown error", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "An unexpected error occurred"},
		{"expired token", auth.ErrExpiredToken, "Token expired"},
		{"invalid credentials", service.ErrInvalidCredentials, "Invalid email or password"},
		{"task not found", service.ErrTaskNotFound, "Task not found"},
		{"notification delivery", service.ErrNotificationDelivery, "Email could not be sent"},
		{"unknown error leaks nothing", errors.New("pq: connection to 10.0.0.5 refused"), "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetSafeErrorMessage(tt.err))
		})
	}

	msg := GetSafeErrorMessage(domain.NewValidationError("dueDate", "must be one of: overdue, today, thisWeek", domain.ErrValidation))
	assert.Contains(t, msg, "dueDate")

	msg = GetSafeErrorMessage(domain.ErrEmptySubtaskTitle)
	assert.Contains(t, msg, "Validation failed")
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	req := func(body string) *http.Request {
		r, _ := http.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		return r
	}

	var p payload
	assert.NoError(t, DecodeJSON(req(`{"name":"x"}`), &p))
	assert.Equal(t, "x", p.Name)

	assert.Error(t, DecodeJSON(req(`{"name":"x","extra":1}`), &p), "unknown fields are rejected")
	assert.Error(t, DecodeJSON(req(`{"name":"x"}{"name":"y"}`), &p), "trailing JSON is rejected")
	assert.Error(t, DecodeJSON(req(`not json`), &p))
}
