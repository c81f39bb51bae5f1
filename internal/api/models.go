package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/taskflow/taskflow-api/internal/domain"
	"github.com/taskflow/taskflow-api/internal/service"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Name     string `json:"name"     validate:"required,max=50"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// ForgotPasswordRequest defines the payload for requesting a reset mail.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest defines the payload for consuming a reset token.
type ResetPasswordRequest struct {
	Token    string `json:"token"    validate:"required"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// UpdateProfileRequest defines the payload for the profile endpoint.
// Absent fields are left unchanged; anything beyond these three fields
// cannot be updated through this endpoint.
type UpdateProfileRequest struct {
	Name        *string             `json:"name"        validate:"omitempty,min=1,max=50"`
	Preferences *domain.Preferences `json:"preferences"`
	Avatar      *string             `json:"avatar"      validate:"omitempty,max=500"`
}

// UserResponse is the public projection of an account. Credential and
// lockout state never appear here.
type UserResponse struct {
	ID              uuid.UUID          `json:"id"`
	Name            string             `json:"name"`
	Email           string             `json:"email"`
	Preferences     domain.Preferences `json:"preferences"`
	Avatar          string             `json:"avatar,omitempty"`
	LastLogin       *time.Time         `json:"lastLogin,omitempty"`
	IsEmailVerified bool               `json:"isEmailVerified"`
}

func newUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:              user.ID,
		Name:            user.Name,
		Email:           user.Email,
		Preferences:     user.Preferences,
		Avatar:          user.Avatar,
		LastLogin:       user.LastLogin,
		IsEmailVerified: user.IsEmailVerified,
	}
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// SubtaskRequest is one checklist item supplied at task creation.
type SubtaskRequest struct {
	Title     string `json:"title" validate:"required,max=100"`
	Completed bool   `json:"completed"`
}

// CreateTaskRequest defines the payload for creating a task.
type CreateTaskRequest struct {
	Title            string           `json:"title"            validate:"required,max=100"`
	Description      string           `json:"description"      validate:"omitempty,max=1000"`
	Status           string           `json:"status"           validate:"omitempty,oneof=pending in-progress completed cancelled"`
	Priority         string           `json:"priority"         validate:"omitempty,oneof=low medium high urgent"`
	Category         string           `json:"category"         validate:"omitempty,max=50"`
	Tags             []string         `json:"tags"             validate:"omitempty,dive,max=30"`
	DueDate          *time.Time       `json:"dueDate"`
	EstimatedMinutes *int             `json:"estimatedMinutes" validate:"omitempty,min=0"`
	Subtasks         []SubtaskRequest `json:"subtasks"         validate:"omitempty,dive"`
}

// UpdateTaskRequest defines the payload for a partial task update.
// Absent fields are left unchanged; an explicit null clears the
// nullable fields (due date, time estimates).
type UpdateTaskRequest struct {
	Title            *string             `json:"title"            validate:"omitempty,min=1,max=100"`
	Description      *string             `json:"description"      validate:"omitempty,max=1000"`
	Status           *string             `json:"status"           validate:"omitempty,oneof=pending in-progress completed cancelled"`
	Priority         *string             `json:"priority"         validate:"omitempty,oneof=low medium high urgent"`
	Category         *string             `json:"category"         validate:"omitempty,max=50"`
	Tags             *[]string           `json:"tags"             validate:"omitempty,dive,max=30"`
	DueDate          Optional[time.Time] `json:"dueDate"`
	EstimatedMinutes Optional[int]       `json:"estimatedMinutes"`
	ActualMinutes    Optional[int]       `json:"actualMinutes"`
	IsArchived       *bool               `json:"isArchived"`
}

// AddSubtaskRequest defines the payload for appending a subtask.
type AddSubtaskRequest struct {
	Title string `json:"title" validate:"required,max=100"`
}

// UpdateSubtaskRequest defines the payload for toggling a subtask.
type UpdateSubtaskRequest struct {
	Completed *bool `json:"completed" validate:"required"`
}

// TaskListResponse is the payload of the task listing endpoint.
type TaskListResponse struct {
	Tasks      []*domain.Task     `json:"tasks"`
	Pagination service.Pagination `json:"pagination"`
}
