package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common validation errors
var (
	ErrEmptyUserID         = errors.New("user ID cannot be empty")
	ErrEmptyEmail          = errors.New("email cannot be empty")
	ErrEmptyName           = errors.New("name cannot be empty")
	ErrNameTooLong         = errors.New("name must be at most 50 characters long")
	ErrPasswordTooShort    = errors.New("password must be at least 6 characters long")
	ErrPasswordTooLong     = errors.New("password must be at most 72 characters long")
	ErrEmptyPassword       = errors.New("password cannot be empty")
	ErrEmptyHashedPassword = errors.New("hashed password cannot be empty")
	ErrInvalidTheme        = errors.New("invalid theme preference")
	ErrInvalidTaskView     = errors.New("invalid task view preference")
)

// Theme is a UI theme preference.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// TaskView is the preferred task list presentation.
type TaskView string

const (
	TaskViewList   TaskView = "list"
	TaskViewGrid   TaskView = "grid"
	TaskViewKanban TaskView = "kanban"
)

// NotificationPreferences holds per-channel notification toggles.
type NotificationPreferences struct {
	Email bool `json:"email"`
	Push  bool `json:"push"`
}

// Preferences holds a user's UI and notification settings.
type Preferences struct {
	Theme         Theme                   `json:"theme"`
	TaskView      TaskView                `json:"task_view"`
	Notifications NotificationPreferences `json:"notifications"`
}

// DefaultPreferences returns the preferences assigned at registration.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:    ThemeSystem,
		TaskView: TaskViewList,
		Notifications: NotificationPreferences{
			Email: true,
			Push:  true,
		},
	}
}

// Validate checks the preference enums.
func (p Preferences) Validate() error {
	switch p.Theme {
	case ThemeLight, ThemeDark, ThemeSystem:
	default:
		return ErrInvalidTheme
	}
	switch p.TaskView {
	case TaskViewList, TaskViewGrid, TaskViewKanban:
	default:
		return ErrInvalidTaskView
	}
	return nil
}

// User represents a registered account.
// It contains essential user information and authentication details.
type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Password       string    `json:"-"` // Plaintext password, used temporarily during registration/updates
	HashedPassword string    `json:"-"` // Never expose password hash in JSON

	// Lockout state. IsLocked is always derived from LockUntil at read
	// time; the value is never cached or stored.
	LoginAttempts int        `json:"-"`
	LockUntil     *time.Time `json:"-"`

	// Password reset state. Both fields are set together and cleared
	// together; only the SHA-256 hex of the token is ever stored.
	PasswordResetToken   *string    `json:"-"`
	PasswordResetExpires *time.Time `json:"-"`

	Preferences     Preferences `json:"preferences"`
	Avatar          string      `json:"avatar,omitempty"`
	IsActive        bool        `json:"is_active"`
	IsEmailVerified bool        `json:"is_email_verified"`
	LastLogin       *time.Time  `json:"last_login,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUser creates a new User with the given name, email and password.
// The email is normalized to lower case so uniqueness checks are
// case-insensitive. Returns an error if validation fails.
//
// NOTE: This function only sets up the user structure with the plaintext
// password. The caller is responsible for hashing the password before
// storing the user.
func NewUser(name, email, password string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:          uuid.New(),
		Email:       strings.ToLower(strings.TrimSpace(email)),
		Name:        strings.TrimSpace(name),
		Password:    password, // Plaintext password - must be hashed before storage
		Preferences: DefaultPreferences(),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
// Returns an error if any field fails validation.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}

	if u.Email == "" {
		return ErrEmptyEmail
	}
	if !validateEmailFormat(u.Email) {
		return ErrInvalidEmail
	}

	if u.Name == "" {
		return ErrEmptyName
	}
	if len(u.Name) > 50 {
		return ErrNameTooLong
	}

	if u.Password != "" {
		if len(u.Password) < 6 {
			return ErrPasswordTooShort
		}
		// bcrypt's practical input limit
		if len(u.Password) > 72 {
			return ErrPasswordTooLong
		}
	} else if u.HashedPassword == "" {
		// Existing users loaded from the store carry only the hash.
		return ErrEmptyPassword
	}

	if err := u.Preferences.Validate(); err != nil {
		return err
	}

	return nil
}

// ValidatePassword checks a candidate plaintext password against the
// length rules without constructing a user.
func ValidatePassword(password string) error {
	if password == "" {
		return ErrEmptyPassword
	}
	if len(password) < 6 {
		return ErrPasswordTooShort
	}
	if len(password) > 72 {
		return ErrPasswordTooLong
	}
	return nil
}

// IsLocked reports whether the account is currently locked out.
// Lock expiry is evaluated lazily here; there is no active sweep.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}

// validateEmailFormat performs basic validation of email format.
// Returns true if the email appears to be in a valid format.
// Request-shape validation at the boundary applies the stricter
// validator rules; this guards direct store writes.
func validateEmailFormat(email string) bool {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	dot := strings.IndexByte(domain, '.')
	return dot > 0 && dot < len(domain)-1
}
