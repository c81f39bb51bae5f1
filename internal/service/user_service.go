package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskflow/taskflow-api/internal/config"
	"github.com/taskflow/taskflow-api/internal/domain"
	"github.com/taskflow/taskflow-api/internal/platform/mail"
	"github.com/taskflow/taskflow-api/internal/service/auth"
	"github.com/taskflow/taskflow-api/internal/store"
)

// resetTokenTTL is how long a password reset token stays valid.
const resetTokenTTL = 10 * time.Minute

// AuthResult bundles the authenticated user with a freshly issued token.
type AuthResult struct {
	User  *domain.User
	Token string
}

// UserService provides registration, authentication, and profile operations.
type UserService interface {
	// Register creates a new account, sends a welcome mail, and issues
	// a session token. A welcome mail failure does not fail registration.
	Register(ctx context.Context, name, email, password string) (*AuthResult, error)

	// Login authenticates an email/password pair. Failed attempts are
	// counted; crossing the lockout threshold locks the account for the
	// configured duration.
	Login(ctx context.Context, email, password string) (*AuthResult, error)

	// VerifyToken validates a session token and resolves the live user.
	VerifyToken(ctx context.Context, token string) (*domain.User, error)

	// CurrentUser retrieves the user by ID.
	CurrentUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// UpdateProfile applies a partial profile update. Only name,
	// preferences, and avatar can change through this path.
	UpdateProfile(ctx context.Context, userID uuid.UUID, update store.ProfileUpdate) (*domain.User, error)

	// ForgotPassword generates a reset token and mails it to the user.
	// If the mail cannot be delivered the stored token is rolled back.
	ForgotPassword(ctx context.Context, email string) error

	// ResetPassword consumes a reset token, sets the new password,
	// clears any lockout, and issues a fresh session token.
	ResetPassword(ctx context.Context, token, newPassword string) (*AuthResult, error)
}

// UserServiceImpl implements the UserService interface.
type UserServiceImpl struct {
	users            store.UserStore
	jwtService       auth.JWTService
	passwordHasher   auth.PasswordHasher
	passwordVerifier auth.PasswordVerifier
	mailer           mail.Mailer
	frontendURL      string
	lockoutThreshold int
	lockoutDuration  time.Duration
	timeFunc         func() time.Time
	logger           *slog.Logger
}

var _ UserService = (*UserServiceImpl)(nil)

// NewUserService creates a new UserService.
func NewUserService(
	users store.UserStore,
	jwtService auth.JWTService,
	passwordHasher auth.PasswordHasher,
	passwordVerifier auth.PasswordVerifier,
	mailer mail.Mailer,
	cfg config.AuthConfig,
	frontendURL string,
	logger *slog.Logger,
) *UserServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserServiceImpl{
		users:            users,
		jwtService:       jwtService,
		passwordHasher:   passwordHasher,
		passwordVerifier: passwordVerifier,
		mailer:           mailer,
		frontendURL:      frontendURL,
		lockoutThreshold: cfg.LockoutThreshold,
		lockoutDuration:  time.Duration(cfg.LockoutDurationMinutes) * time.Minute,
		timeFunc:         time.Now,
		logger:           logger.With(slog.String("component", "user_service")),
	}
}

// Register creates the account and issues a token.
func (s *UserServiceImpl) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	user, err := domain.NewUser(name, email, password)
	if err != nil {
		return nil, err
	}

	hashed, err := s.passwordHasher.Hash(password)
	if err != nil {
		s.logger.Error("failed to hash password", "error", err)
		return nil, NewServiceError("register", "failed to hash password", err)
	}
	user.HashedPassword = hashed
	user.Password = ""

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			return nil, ErrEmailExists
		}
		s.logger.Error("failed to create user", "error", err, "email", user.Email)
		return nil, NewServiceError("register", "failed to save user", err)
	}

	// The account exists regardless of whether the greeting lands.
	if err := s.mailer.SendWelcome(ctx, user.Email, mail.WelcomeData{
		Name:         user.Name,
		DashboardURL: s.frontendURL + "/dashboard",
	}); err != nil {
		s.logger.Warn("welcome mail failed",
			"error", err,
			"user_id", user.ID)
	}

	token, err := s.jwtService.GenerateToken(ctx, user.ID)
	if err != nil {
		s.logger.Error("failed to generate token", "error", err, "user_id", user.ID)
		return nil, NewServiceError("register", "failed to generate token", err)
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return &AuthResult{User: user, Token: token}, nil
}

// Login authenticates the credentials and enforces the lockout policy.
func (s *UserServiceImpl) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("failed to look up user for login", "error", err)
		return nil, NewServiceError("login", "failed to look up user", err)
	}

	now := s.timeFunc()
	if user.IsLocked(now) {
		s.logger.Info("login rejected, account locked", "user_id", user.ID)
		return nil, ErrAccountLocked
	}

	if err := s.passwordVerifier.Compare(user.HashedPassword, password); err != nil {
		result, recErr := s.users.RecordFailedLogin(ctx, user.ID, s.lockoutThreshold, s.lockoutDuration)
		if recErr != nil {
			s.logger.Error("failed to record failed login", "error", recErr, "user_id", user.ID)
		} else if result.LockUntil != nil {
			s.logger.Info("account locked after repeated failures",
				"user_id", user.ID,
				"attempts", result.Attempts)
		}
		return nil, ErrInvalidCredentials
	}

	if err := s.users.RecordSuccessfulLogin(ctx, user.ID, now); err != nil {
		s.logger.Error("failed to record successful login", "error", err, "user_id", user.ID)
		return nil, NewServiceError("login", "failed to record login", err)
	}
	user.LoginAttempts = 0
	user.LockUntil = nil
	lastLogin := now
	user.LastLogin = &lastLogin

	token, err := s.jwtService.GenerateToken(ctx, user.ID)
	if err != nil {
		s.logger.Error("failed to generate token", "error", err, "user_id", user.ID)
		return nil, NewServiceError("login", "failed to generate token", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return &AuthResult{User: user, Token: token}, nil
}

// VerifyToken validates the token signature and lifetime, then resolves
// the user so revoked or deactivated accounts are rejected immediately.
func (s *UserServiceImpl) VerifyToken(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.jwtService.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, NewServiceError("verify_token", "failed to resolve user", err)
	}

	if !user.IsActive {
		return nil, ErrInactiveAccount
	}
	return user, nil
}

// CurrentUser retrieves a user by ID.
func (s *UserServiceImpl) CurrentUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, NewServiceError("current_user", "failed to retrieve user", err)
	}
	return user, nil
}

// UpdateProfile applies the whitelisted fields and returns the updated user.
func (s *UserServiceImpl) UpdateProfile(ctx context.Context, userID uuid.UUID, update store.ProfileUpdate) (*domain.User, error) {
	if update.Name != nil {
		trimmed := strings.TrimSpace(*update.Name)
		if trimmed == "" {
			return nil, domain.ErrEmptyName
		}
		if len(trimmed) > 50 {
			return nil, domain.ErrNameTooLong
		}
		update.Name = &trimmed
	}
	if update.Preferences != nil {
		if err := update.Preferences.Validate(); err != nil {
			return nil, err
		}
	}

	user, err := s.users.UpdateProfile(ctx, userID, update)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("failed to update profile", "error", err, "user_id", userID)
		return nil, NewServiceError("update_profile", "failed to update profile", err)
	}

	s.logger.Info("profile updated", "user_id", userID)
	return user, nil
}

// ForgotPassword stores a hashed reset token and mails the plaintext one.
func (s *UserServiceImpl) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("failed to look up user for reset", "error", err)
		return NewServiceError("forgot_password", "failed to look up user", err)
	}

	token, err := auth.GenerateResetToken()
	if err != nil {
		s.logger.Error("failed to generate reset token", "error", err, "user_id", user.ID)
		return NewServiceError("forgot_password", "failed to generate reset token", err)
	}

	expires := s.timeFunc().Add(resetTokenTTL)
	if err := s.users.SetResetToken(ctx, user.ID, auth.HashResetToken(token), expires); err != nil {
		s.logger.Error("failed to store reset token", "error", err, "user_id", user.ID)
		return NewServiceError("forgot_password", "failed to store reset token", err)
	}

	mailErr := s.mailer.SendPasswordReset(ctx, user.Email, mail.PasswordResetData{
		ResetURL: fmt.Sprintf("%s/reset-password?token=%s", s.frontendURL, token),
	})
	if mailErr != nil {
		// A stored token the user never received is a liability; undo it.
		if clearErr := s.users.ClearResetToken(ctx, user.ID); clearErr != nil {
			s.logger.Error("failed to roll back reset token", "error", clearErr, "user_id", user.ID)
		}
		s.logger.Error("password reset mail failed", "error", mailErr, "user_id", user.ID)
		return fmt.Errorf("%w: %v", ErrNotificationDelivery, mailErr)
	}

	s.logger.Info("password reset mail sent", "user_id", user.ID)
	return nil
}

// ResetPassword consumes the token and installs the new password.
func (s *UserServiceImpl) ResetPassword(ctx context.Context, token, newPassword string) (*AuthResult, error) {
	now := s.timeFunc()
	user, err := s.users.GetByResetToken(ctx, auth.HashResetToken(token), now)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidResetToken
		}
		s.logger.Error("failed to look up reset token", "error", err)
		return nil, NewServiceError("reset_password", "failed to look up reset token", err)
	}

	if err := domain.ValidatePassword(newPassword); err != nil {
		return nil, err
	}

	hashed, err := s.passwordHasher.Hash(newPassword)
	if err != nil {
		s.logger.Error("failed to hash new password", "error", err, "user_id", user.ID)
		return nil, NewServiceError("reset_password", "failed to hash password", err)
	}

	// UpdatePassword also clears the reset token and any lockout state.
	if err := s.users.UpdatePassword(ctx, user.ID, hashed); err != nil {
		s.logger.Error("failed to update password", "error", err, "user_id", user.ID)
		return nil, NewServiceError("reset_password", "failed to update password", err)
	}

	sessionToken, err := s.jwtService.GenerateToken(ctx, user.ID)
	if err != nil {
		s.logger.Error("failed to generate token", "error", err, "user_id", user.ID)
		return nil, NewServiceError("reset_password", "failed to generate token", err)
	}

	s.logger.Info("password reset completed", "user_id", user.ID)
	return &AuthResult{User: user, Token: sessionToken}, nil
}
