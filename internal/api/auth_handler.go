// Package api implements the HTTP surface: request decoding, input
// validation, service dispatch, and the response envelope.
package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/taskflow/taskflow-api/internal/api/shared"
	"github.com/taskflow/taskflow-api/internal/service"
	"github.com/taskflow/taskflow-api/internal/store"
)

// AuthHandler handles authentication and profile API requests.
type AuthHandler struct {
	userService service.UserService
	validator   *validator.Validate
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(userService service.UserService) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		validator:   validator.New(),
	}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithValidationErrors(w, r, validationMessages(err))
		return
	}

	result, err := h.userService.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "Server error during registration")
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusCreated, "User registered successfully", AuthResponse{
		Token: result.Token,
		User:  newUserResponse(result.User),
	})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithValidationErrors(w, r, validationMessages(err))
		return
	}

	result, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "Server error during login")
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, "Login successful", AuthResponse{
		Token: result.Token,
		User:  newUserResponse(result.User),
	})
}

// ForgotPassword handles POST /api/auth/forgot-password.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithValidationErrors(w, r, validationMessages(err))
		return
	}

	if err := h.userService.ForgotPassword(r.Context(), req.Email); err != nil {
		HandleAPIError(w, r, err, "Failed to send password reset email. Please try again.")
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, "Password reset link sent to your email address", nil)
}

// ResetPassword handles POST /api/auth/reset-password.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithValidationErrors(w, r, validationMessages(err))
		return
	}

	result, err := h.userService.ResetPassword(r.Context(), req.Token, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "Server error during password reset")
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, "Password reset successful", AuthResponse{
		Token: result.Token,
		User:  newUserResponse(result.User),
	})
}

// CurrentUser handles GET /api/auth/me.
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.userService.CurrentUser(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, "", newUserResponse(user))
}

// UpdateProfile handles PUT /api/auth/profile.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req UpdateProfileRequest
	if err := DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithValidationErrors(w, r, validationMessages(err))
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), userID, store.ProfileUpdate{
		Name:        req.Name,
		Preferences: req.Preferences,
		Avatar:      req.Avatar,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Server error during profile update")
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, "Profile updated successfully", newUserResponse(user))
}

// Logout handles POST /api/auth/logout. Tokens are stateless, so logout
// is a client-side discard; the endpoint exists so clients have a
// uniform call to end a session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithSuccess(w, r, http.StatusOK, "Logged out successfully", nil)
}
