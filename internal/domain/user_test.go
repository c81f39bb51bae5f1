package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewUser(t *testing.T) {
	user, err := NewUser("Jane Doe", "Jane@Example.com", "password123")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if user.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}

	// Email normalization makes uniqueness checks case-insensitive.
	if user.Email != "jane@example.com" {
		t.Errorf("Expected lowercased email, got %s", user.Email)
	}

	if user.Name != "Jane Doe" {
		t.Errorf("Expected name %q, got %q", "Jane Doe", user.Name)
	}

	if !user.IsActive {
		t.Error("Expected new user to be active")
	}

	if user.Preferences != DefaultPreferences() {
		t.Errorf("Expected default preferences, got %+v", user.Preferences)
	}

	if user.CreatedAt.IsZero() || user.UpdatedAt.IsZero() {
		t.Error("Expected non-zero timestamps")
	}

	// Invalid inputs map to the matching sentinel.
	if _, err := NewUser("Jane", "", "password123"); err != ErrEmptyEmail {
		t.Errorf("Expected error %v, got %v", ErrEmptyEmail, err)
	}
	if _, err := NewUser("Jane", "not-an-email", "password123"); err != ErrInvalidEmail {
		t.Errorf("Expected error %v, got %v", ErrInvalidEmail, err)
	}
	if _, err := NewUser("", "jane@example.com", "password123"); err != ErrEmptyName {
		t.Errorf("Expected error %v, got %v", ErrEmptyName, err)
	}
	if _, err := NewUser("Jane", "jane@example.com", "short"); err != ErrPasswordTooShort {
		t.Errorf("Expected error %v, got %v", ErrPasswordTooShort, err)
	}
}

func TestUserValidate(t *testing.T) {
	validUser := User{
		ID:             uuid.New(),
		Email:          "test@example.com",
		Name:           "Test User",
		HashedPassword: "hashedpassword123",
		Preferences:    DefaultPreferences(),
	}

	if err := validUser.Validate(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	invalidUser := validUser
	invalidUser.ID = uuid.Nil
	if err := invalidUser.Validate(); err != ErrEmptyUserID {
		t.Errorf("Expected error %v, got %v", ErrEmptyUserID, err)
	}

	invalidUser = validUser
	invalidUser.Name = strings.Repeat("x", 51)
	if err := invalidUser.Validate(); err != ErrNameTooLong {
		t.Errorf("Expected error %v, got %v", ErrNameTooLong, err)
	}

	// A user loaded from the store has no plaintext password and must
	// still validate on the strength of the hash.
	invalidUser = validUser
	invalidUser.HashedPassword = ""
	if err := invalidUser.Validate(); err != ErrEmptyPassword {
		t.Errorf("Expected error %v, got %v", ErrEmptyPassword, err)
	}

	invalidUser = validUser
	invalidUser.Preferences.Theme = "neon"
	if err := invalidUser.Validate(); err != ErrInvalidTheme {
		t.Errorf("Expected error %v, got %v", ErrInvalidTheme, err)
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("secret1"); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if err := ValidatePassword(""); err != ErrEmptyPassword {
		t.Errorf("Expected error %v, got %v", ErrEmptyPassword, err)
	}
	if err := ValidatePassword("abc"); err != ErrPasswordTooShort {
		t.Errorf("Expected error %v, got %v", ErrPasswordTooShort, err)
	}
	if err := ValidatePassword(strings.Repeat("a", 73)); err != ErrPasswordTooLong {
		t.Errorf("Expected error %v, got %v", ErrPasswordTooLong, err)
	}
}

func TestUserIsLocked(t *testing.T) {
	now := time.Now().UTC()
	user := User{}

	if user.IsLocked(now) {
		t.Error("Expected user without LockUntil to be unlocked")
	}

	future := now.Add(10 * time.Minute)
	user.LockUntil = &future
	if !user.IsLocked(now) {
		t.Error("Expected user with future LockUntil to be locked")
	}

	// Expired locks are evaluated lazily at read time.
	past := now.Add(-time.Minute)
	user.LockUntil = &past
	if user.IsLocked(now) {
		t.Error("Expected user with expired LockUntil to be unlocked")
	}
}

func TestPreferencesValidate(t *testing.T) {
	prefs := DefaultPreferences()
	if err := prefs.Validate(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	prefs.Theme = "sepia"
	if err := prefs.Validate(); err != ErrInvalidTheme {
		t.Errorf("Expected error %v, got %v", ErrInvalidTheme, err)
	}

	prefs = DefaultPreferences()
	prefs.TaskView = "timeline"
	if err := prefs.Validate(); err != ErrInvalidTaskView {
		t.Errorf("Expected error %v, got %v", ErrInvalidTaskView, err)
	}
}
