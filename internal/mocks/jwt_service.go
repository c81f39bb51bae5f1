package mocks

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskflow/taskflow-api/internal/service/auth"
)

// MockJWTService implements auth.JWTService for testing.
type MockJWTService struct {
	GenerateTokenFn func(ctx context.Context, userID uuid.UUID) (string, error)
	ValidateTokenFn func(ctx context.Context, tokenString string) (*auth.Claims, error)

	Token string
	Err   error
}

var _ auth.JWTService = (*MockJWTService)(nil)

func (m *MockJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	if m.GenerateTokenFn != nil {
		return m.GenerateTokenFn(ctx, userID)
	}
	if m.Err != nil {
		return "", m.Err
	}
	if m.Token != "" {
		return m.Token, nil
	}
	return "token-" + userID.String(), nil
}

func (m *MockJWTService) ValidateToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	if m.ValidateTokenFn != nil {
		return m.ValidateTokenFn(ctx, tokenString)
	}
	if m.Err != nil {
		return nil, m.Err
	}

	// Default: tokens issued by GenerateToken round-trip.
	if !strings.HasPrefix(tokenString, "token-") {
		return nil, auth.ErrInvalidToken
	}
	userID, err := uuid.Parse(strings.TrimPrefix(tokenString, "token-"))
	if err != nil {
		return nil, auth.ErrInvalidToken
	}
	now := time.Now().UTC()
	return &auth.Claims{
		UserID:    userID,
		Subject:   userID.String(),
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
		ID:        uuid.NewString(),
	}, nil
}
