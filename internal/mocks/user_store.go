package mocks

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskflow/taskflow-api/internal/domain"
	"github.com/taskflow/taskflow-api/internal/store"
)

// MemoryUserStore is an in-memory store.UserStore with the same
// semantics as the Postgres implementation: case-insensitive email
// uniqueness, atomic failed-login counting, and reset-token matching.
type MemoryUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User

	// Optional error overrides, checked before any method's real logic.
	CreateErr             error
	GetByEmailErr         error
	SetResetTokenErr      error
	RecordFailedLoginErr  error
	UpdateProfileErr      error
	ClearResetTokenCalled int
}

var _ store.UserStore = (*MemoryUserStore)(nil)

// NewMemoryUserStore creates an empty in-memory user store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[uuid.UUID]*domain.User)}
}

func (s *MemoryUserStore) Create(_ context.Context, user *domain.User) error {
	if s.CreateErr != nil {
		return s.CreateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return store.ErrEmailExists
		}
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}

func (s *MemoryUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return cloneUser(user), nil
}

func (s *MemoryUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if s.GetByEmailErr != nil {
		return nil, s.GetByEmailErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			return cloneUser(user), nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (s *MemoryUserStore) GetByResetToken(_ context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.PasswordResetToken != nil && *user.PasswordResetToken == tokenHash &&
			user.PasswordResetExpires != nil && user.PasswordResetExpires.After(now) {
			return cloneUser(user), nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (s *MemoryUserStore) RecordFailedLogin(
	_ context.Context,
	id uuid.UUID,
	threshold int,
	lockDuration time.Duration,
) (store.LoginAttemptResult, error) {
	if s.RecordFailedLoginErr != nil {
		return store.LoginAttemptResult{}, s.RecordFailedLoginErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return store.LoginAttemptResult{}, store.ErrUserNotFound
	}

	user.LoginAttempts++
	if user.LoginAttempts >= threshold {
		lockUntil := time.Now().Add(lockDuration)
		user.LockUntil = &lockUntil
	}
	return store.LoginAttemptResult{
		Attempts:  user.LoginAttempts,
		LockUntil: copyTime(user.LockUntil),
	}, nil
}

func (s *MemoryUserStore) RecordSuccessfulLogin(_ context.Context, id uuid.UUID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	user.LoginAttempts = 0
	user.LockUntil = nil
	lastLogin := now
	user.LastLogin = &lastLogin
	return nil
}

func (s *MemoryUserStore) SetResetToken(_ context.Context, id uuid.UUID, tokenHash string, expires time.Time) error {
	if s.SetResetTokenErr != nil {
		return s.SetResetTokenErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	user.PasswordResetToken = &tokenHash
	user.PasswordResetExpires = &expires
	return nil
}

func (s *MemoryUserStore) ClearResetToken(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ClearResetTokenCalled++
	user, ok := s.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	user.PasswordResetToken = nil
	user.PasswordResetExpires = nil
	return nil
}

func (s *MemoryUserStore) UpdatePassword(_ context.Context, id uuid.UUID, hashedPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	user.HashedPassword = hashedPassword
	user.PasswordResetToken = nil
	user.PasswordResetExpires = nil
	user.LoginAttempts = 0
	user.LockUntil = nil
	return nil
}

func (s *MemoryUserStore) UpdateProfile(_ context.Context, id uuid.UUID, update store.ProfileUpdate) (*domain.User, error) {
	if s.UpdateProfileErr != nil {
		return nil, s.UpdateProfileErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.Preferences != nil {
		user.Preferences = *update.Preferences
	}
	if update.Avatar != nil {
		user.Avatar = *update.Avatar
	}
	return cloneUser(user), nil
}

func (s *MemoryUserStore) WithTx(_ *sql.Tx) store.UserStore {
	return s
}

func cloneUser(u *domain.User) *domain.User {
	clone := *u
	clone.LockUntil = copyTime(u.LockUntil)
	clone.PasswordResetExpires = copyTime(u.PasswordResetExpires)
	clone.LastLogin = copyTime(u.LastLogin)
	if u.PasswordResetToken != nil {
		token := *u.PasswordResetToken
		clone.PasswordResetToken = &token
	}
	return &clone
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	copied := *t
	return &copied
}
