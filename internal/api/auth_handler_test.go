package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskflow/taskflow-api/internal/platform/mail"
)

func TestRegisterEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Jane Doe",
		"email":    "jane@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, "User registered successfully", env.Message)

	data := dataAsMap(t, env)
	assert.NotEmpty(t, data["token"])
	user, ok := data["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "jane@example.com", user["email"])

	// Credential material must never appear in the response.
	body := rec.Body.String()
	assert.NotContains(t, body, "password")
	assert.NotContains(t, body, "hashed")
}

func TestRegisterEndpointValidation(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Jane",
		"email":    "not-an-email",
		"password": "123",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, "Validation failed", env.Message)
	require.Len(t, env.Errors, 2)
	assert.Contains(t, env.Errors[0], "email")
	assert.Contains(t, env.Errors[1], "password")
}

func TestRegisterEndpointMalformedBody(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/auth/register", "", "not an object")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "Invalid request format", env.Message)
}

func TestRegisterEndpointDuplicate(t *testing.T) {
	f := newAPIFixture(t)
	f.register(t, "jane@example.com")

	rec := f.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Other",
		"email":    "jane@example.com",
		"password": "password456",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "User already exists with this email address", env.Message)
}

func TestLoginEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	f.register(t, "jane@example.com")

	rec := f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "jane@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "Login successful", env.Message)
	assert.NotEmpty(t, dataAsMap(t, env)["token"])
}

func TestLoginEndpointBadCredentials(t *testing.T) {
	f := newAPIFixture(t)
	f.register(t, "jane@example.com")

	rec := f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "jane@example.com",
		"password": "wrong password",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "Invalid email or password", env.Message)

	// Unknown accounts answer identically to wrong passwords.
	rec = f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "nobody@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password", decodeEnvelope(t, rec).Message)
}

func TestLoginEndpointLockout(t *testing.T) {
	f := newAPIFixture(t)
	f.register(t, "jane@example.com")

	for i := 0; i < 3; i++ {
		rec := f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "jane@example.com",
			"password": "wrong password",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	// The lock answers 423, including to the correct password.
	rec := f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "jane@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusLocked, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Contains(t, env.Message, "temporarily locked")
}

func TestForgotPasswordEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	f.register(t, "jane@example.com")

	rec := f.do(t, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{
		"email": "jane@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Password reset link sent to your email address", decodeEnvelope(t, rec).Message)

	rec = f.do(t, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{
		"email": "nobody@example.com",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResetPasswordEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	f.register(t, "jane@example.com")

	rec := f.do(t, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{
		"email": "jane@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	sent := f.mailer.LastSent()
	require.NotNil(t, sent)
	data, ok := sent.Data.(mail.PasswordResetData)
	require.True(t, ok)
	_, token, found := strings.Cut(data.ResetURL, "token=")
	require.True(t, found)

	rec = f.do(t, http.MethodPost, "/api/auth/reset-password", "", map[string]string{
		"token":    token,
		"password": "newpassword456",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "Password reset successful", env.Message)
	assert.NotEmpty(t, dataAsMap(t, env)["token"])

	// The consumed token cannot be replayed.
	rec = f.do(t, http.MethodPost, "/api/auth/reset-password", "", map[string]string{
		"token":    token,
		"password": "anotherpassword",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid or expired password reset token", decodeEnvelope(t, rec).Message)
}

func TestCurrentUserEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	token := f.register(t, "jane@example.com")

	rec := f.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "jane@example.com", dataAsMap(t, env)["email"])
}

func TestAuthMiddlewareRejections(t *testing.T) {
	f := newAPIFixture(t)

	// No Authorization header.
	rec := f.do(t, http.MethodGet, "/api/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authorization header required", decodeEnvelope(t, rec).Message)

	// Wrong scheme.
	recBasic := f.doRaw(t, http.MethodGet, "/api/auth/me", "Basic dXNlcjpwYXNz")
	require.Equal(t, http.StatusUnauthorized, recBasic.Code)
	assert.Equal(t, "Invalid authorization format", decodeEnvelope(t, recBasic).Message)

	// Garbage token.
	rec = f.do(t, http.MethodGet, "/api/auth/me", "garbage", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid token", decodeEnvelope(t, rec).Message)
}

func TestUpdateProfileEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	token := f.register(t, "jane@example.com")

	rec := f.do(t, http.MethodPut, "/api/auth/profile", token, map[string]interface{}{
		"name": "Renamed",
		"preferences": map[string]interface{}{
			"theme":     "dark",
			"task_view": "kanban",
			"notifications": map[string]bool{
				"email": false,
				"push":  true,
			},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "Profile updated successfully", env.Message)
	data := dataAsMap(t, env)
	assert.Equal(t, "Renamed", data["name"])

	// Invalid preference enums map to 400.
	rec = f.do(t, http.MethodPut, "/api/auth/profile", token, map[string]interface{}{
		"preferences": map[string]interface{}{
			"theme":     "neon",
			"task_view": "list",
		},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	token := f.register(t, "jane@example.com")

	rec := f.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logged out successfully", decodeEnvelope(t, rec).Message)
}
