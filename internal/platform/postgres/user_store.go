package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/taskflow-api/internal/domain"
	"github.com/taskflow/taskflow-api/internal/platform/logger"
	"github.com/taskflow/taskflow-api/internal/store"
)

// userColumns is the select list shared by all user reads.
const userColumns = `id, email, name, hashed_password, login_attempts, lock_until,
	password_reset_token, password_reset_expires, preferences, avatar,
	is_active, is_email_verified, last_login, created_at, updated_at`

// PostgresUserStore implements the store.UserStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUserStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresUserStore creates a new PostgreSQL implementation of the
// UserStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
func NewPostgresUserStore(db store.DBTX, logger *slog.Logger) *PostgresUserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUserStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_store")),
	}
}

// Ensure PostgresUserStore implements store.UserStore interface
var _ store.UserStore = (*PostgresUserStore)(nil)

// WithTx implements store.UserStore.WithTx
func (s *PostgresUserStore) WithTx(tx *sql.Tx) store.UserStore {
	return &PostgresUserStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.UserStore.Create
// Returns store.ErrEmailExists when the email is already registered;
// the unique index is on lower(email) so the check is case-insensitive.
func (s *PostgresUserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := user.Validate(); err != nil {
		log.Warn("user validation failed during create",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return err
	}
	if user.HashedPassword == "" {
		return domain.ErrEmptyHashedPassword
	}

	prefs, err := json.Marshal(user.Preferences)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	query := `
		INSERT INTO users (id, email, name, hashed_password, login_attempts,
			preferences, avatar, is_active, is_email_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.Email,
		user.Name,
		user.HashedPassword,
		user.LoginAttempts,
		prefs,
		user.Avatar,
		user.IsActive,
		user.IsEmailVerified,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			log.Debug("duplicate email during user creation",
				slog.String("user_id", user.ID.String()))
			return store.ErrEmailExists
		}
		log.Error("failed to create user",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return mapError(err)
	}

	log.Info("user created successfully",
		slog.String("user_id", user.ID.String()))
	return nil
}

// GetByID implements store.UserStore.GetByID
func (s *PostgresUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	return s.getOne(ctx, query, id)
}

// GetByEmail implements store.UserStore.GetByEmail
// The comparison is case-insensitive.
func (s *PostgresUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE lower(email) = lower($1)`, userColumns)
	return s.getOne(ctx, query, email)
}

// GetByResetToken implements store.UserStore.GetByResetToken
// Only an unexpired token hash matches.
func (s *PostgresUserStore) GetByResetToken(
	ctx context.Context,
	tokenHash string,
	now time.Time,
) (*domain.User, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM users WHERE password_reset_token = $1 AND password_reset_expires > $2`,
		userColumns,
	)
	return s.getOne(ctx, query, tokenHash, now)
}

// getOne runs a single-row user query and scans the result.
func (s *PostgresUserStore) getOne(
	ctx context.Context,
	query string,
	args ...any,
) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var (
		user      domain.User
		lockUntil sql.NullTime
		resetTok  sql.NullString
		resetExp  sql.NullTime
		lastLogin sql.NullTime
		prefs     []byte
	)

	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.HashedPassword,
		&user.LoginAttempts,
		&lockUntil,
		&resetTok,
		&resetExp,
		&prefs,
		&user.Avatar,
		&user.IsActive,
		&user.IsEmailVerified,
		&lastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		log.Error("failed to get user", slog.String("error", err.Error()))
		return nil, mapError(err)
	}

	if lockUntil.Valid {
		t := lockUntil.Time
		user.LockUntil = &t
	}
	if resetTok.Valid {
		tok := resetTok.String
		user.PasswordResetToken = &tok
	}
	if resetExp.Valid {
		t := resetExp.Time
		user.PasswordResetExpires = &t
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		user.LastLogin = &t
	}
	if err := json.Unmarshal(prefs, &user.Preferences); err != nil {
		return nil, fmt.Errorf("failed to unmarshal preferences: %w", err)
	}

	return &user, nil
}

// RecordFailedLogin implements store.UserStore.RecordFailedLogin
// The increment and the conditional lock are one statement, so
// concurrent failed logins against the same account never lose an
// attempt and the lock deadline is set exactly at the threshold.
func (s *PostgresUserStore) RecordFailedLogin(
	ctx context.Context,
	id uuid.UUID,
	threshold int,
	lockDuration time.Duration,
) (store.LoginAttemptResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := time.Now().UTC()
	lockUntil := now.Add(lockDuration)

	query := `
		UPDATE users
		SET login_attempts = login_attempts + 1,
			lock_until = CASE WHEN login_attempts + 1 >= $2 THEN $3 ELSE lock_until END,
			updated_at = $4
		WHERE id = $1
		RETURNING login_attempts, lock_until
	`

	var (
		result store.LoginAttemptResult
		locked sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, id, threshold, lockUntil, now).
		Scan(&result.Attempts, &locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.LoginAttemptResult{}, store.ErrUserNotFound
		}
		log.Error("failed to record failed login",
			slog.String("error", err.Error()),
			slog.String("user_id", id.String()))
		return store.LoginAttemptResult{}, mapError(err)
	}
	if locked.Valid {
		t := locked.Time
		result.LockUntil = &t
	}

	log.Debug("failed login recorded",
		slog.String("user_id", id.String()),
		slog.Int("attempts", result.Attempts),
		slog.Bool("locked", result.LockUntil != nil))
	return result, nil
}

// RecordSuccessfulLogin implements store.UserStore.RecordSuccessfulLogin
func (s *PostgresUserStore) RecordSuccessfulLogin(
	ctx context.Context,
	id uuid.UUID,
	now time.Time,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE users
		SET login_attempts = 0, lock_until = NULL, last_login = $2, updated_at = $2
		WHERE id = $1
	`
	return s.execExpectingRow(ctx, log, query, id, now)
}

// SetResetToken implements store.UserStore.SetResetToken
func (s *PostgresUserStore) SetResetToken(
	ctx context.Context,
	id uuid.UUID,
	tokenHash string,
	expires time.Time,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE users
		SET password_reset_token = $2, password_reset_expires = $3, updated_at = $4
		WHERE id = $1
	`
	return s.execExpectingRow(ctx, log, query, id, tokenHash, expires, time.Now().UTC())
}

// ClearResetToken implements store.UserStore.ClearResetToken
// Both reset fields are cleared together to keep the both-or-neither
// invariant.
func (s *PostgresUserStore) ClearResetToken(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE users
		SET password_reset_token = NULL, password_reset_expires = NULL, updated_at = $2
		WHERE id = $1
	`
	return s.execExpectingRow(ctx, log, query, id, time.Now().UTC())
}

// UpdatePassword implements store.UserStore.UpdatePassword
// Clears reset-token state and lockout counters along with setting the
// new hash, as the reset flow requires.
func (s *PostgresUserStore) UpdatePassword(
	ctx context.Context,
	id uuid.UUID,
	hashedPassword string,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if hashedPassword == "" {
		return domain.ErrEmptyHashedPassword
	}

	query := `
		UPDATE users
		SET hashed_password = $2,
			password_reset_token = NULL, password_reset_expires = NULL,
			login_attempts = 0, lock_until = NULL,
			updated_at = $3
		WHERE id = $1
	`
	return s.execExpectingRow(ctx, log, query, id, hashedPassword, time.Now().UTC())
}

// UpdateProfile implements store.UserStore.UpdateProfile
// Only the whitelisted fields carried by the update are touched.
func (s *PostgresUserStore) UpdateProfile(
	ctx context.Context,
	id uuid.UUID,
	update store.ProfileUpdate,
) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	set := []string{"updated_at = $2"}
	args := []any{id, time.Now().UTC()}

	if update.Name != nil {
		args = append(args, *update.Name)
		set = append(set, fmt.Sprintf("name = $%d", len(args)))
	}
	if update.Preferences != nil {
		prefs, err := json.Marshal(*update.Preferences)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal preferences: %w", err)
		}
		args = append(args, prefs)
		set = append(set, fmt.Sprintf("preferences = $%d", len(args)))
	}
	if update.Avatar != nil {
		args = append(args, *update.Avatar)
		set = append(set, fmt.Sprintf("avatar = $%d", len(args)))
	}

	query := fmt.Sprintf(
		`UPDATE users SET %s WHERE id = $1 RETURNING %s`,
		strings.Join(set, ", "),
		userColumns,
	)

	user, err := s.getOne(ctx, query, args...)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			log.Error("failed to update profile",
				slog.String("error", err.Error()),
				slog.String("user_id", id.String()))
		}
		return nil, err
	}

	log.Info("profile updated", slog.String("user_id", id.String()))
	return user, nil
}

// execExpectingRow runs an UPDATE that must affect exactly one user row.
func (s *PostgresUserStore) execExpectingRow(
	ctx context.Context,
	log *slog.Logger,
	query string,
	args ...any,
) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("user update failed", slog.String("error", err.Error()))
		return mapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if rows == 0 {
		return store.ErrUserNotFound
	}
	return nil
}
