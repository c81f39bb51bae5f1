package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/taskflow-api/internal/domain"
)

// ProfileUpdate carries the whitelisted mutable profile fields. Nil
// fields are left unchanged; anything outside this struct cannot be
// updated through the profile path.
type ProfileUpdate struct {
	Name        *string
	Preferences *domain.Preferences
	Avatar      *string
}

// LoginAttemptResult reports the persisted lockout state after a failed
// login attempt has been recorded.
type LoginAttemptResult struct {
	Attempts  int
	LockUntil *time.Time
}

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Create saves a new user to the store. The user must already carry
	// its HashedPassword; plaintext passwords never reach the store.
	// Returns ErrEmailExists if the email is already taken
	// (case-insensitive).
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by their email address
	// (case-insensitive). Returns ErrUserNotFound if no match.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByResetToken retrieves the user whose stored reset-token hash
	// matches tokenHash and whose expiry is after now.
	// Returns ErrUserNotFound otherwise.
	GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error)

	// RecordFailedLogin atomically increments the user's login attempt
	// counter and, when the incremented count reaches threshold, sets the
	// lockout deadline to now+lockDuration in the same statement. The
	// increment is a single atomic counter update so concurrent failed
	// logins are never lost.
	RecordFailedLogin(
		ctx context.Context,
		id uuid.UUID,
		threshold int,
		lockDuration time.Duration,
	) (LoginAttemptResult, error)

	// RecordSuccessfulLogin atomically resets the attempt counter, clears
	// the lockout deadline and stamps last_login.
	RecordSuccessfulLogin(ctx context.Context, id uuid.UUID, now time.Time) error

	// SetResetToken stores the one-way hash of a password reset token and
	// its expiry. Returns ErrUserNotFound if the user does not exist.
	SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expires time.Time) error

	// ClearResetToken removes any stored reset-token state. Used both on
	// successful resets and to roll back when the reset mail fails.
	ClearResetToken(ctx context.Context, id uuid.UUID) error

	// UpdatePassword sets a new password hash and, per the reset flow,
	// clears reset-token state and lockout counters in the same statement.
	// Returns ErrUserNotFound if the user does not exist.
	UpdatePassword(ctx context.Context, id uuid.UUID, hashedPassword string) error

	// UpdateProfile applies the whitelisted partial profile fields and
	// returns the updated user. Returns ErrUserNotFound if the user does
	// not exist.
	UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*domain.User, error)

	// WithTx returns a new UserStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) UserStore
}
