package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskflow/taskflow-api/internal/config"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:              "0123456789abcdef0123456789abcdef",
		TokenLifetimeMinutes:   60,
		LockoutThreshold:       5,
		LockoutDurationMinutes: 120,
	}
}

func TestNewJWTService(t *testing.T) {
	svc, err := NewJWTService(testAuthConfig())
	require.NoError(t, err)
	require.NotNil(t, svc)

	cfg := testAuthConfig()
	cfg.JWTSecret = "too-short"
	_, err = NewJWTService(cfg)
	assert.Error(t, err, "secrets under 32 bytes must be rejected")
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc, err := NewJWTService(testAuthConfig())
	require.NoError(t, err)

	ctx := context.Background()
	userID := uuid.New()

	token, err := svc.GenerateToken(ctx, userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.NotEmpty(t, claims.ID, "each token carries a unique ID")
	assert.True(t, claims.ExpiresAt.After(claims.IssuedAt))
}

func TestValidateTokenExpired(t *testing.T) {
	svc, err := NewJWTService(testAuthConfig())
	require.NoError(t, err)
	impl := svc.(*hmacJWTService)

	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	impl.timeFunc = func() time.Time { return issued }

	token, err := svc.GenerateToken(context.Background(), uuid.New())
	require.NoError(t, err)

	// Within the clock-skew leeway, a just-expired token still passes.
	impl.timeFunc = func() time.Time { return issued.Add(61 * time.Minute) }
	_, err = svc.ValidateToken(context.Background(), token)
	assert.NoError(t, err)

	// Beyond the leeway it does not.
	impl.timeFunc = func() time.Time { return issued.Add(63 * time.Minute) }
	_, err = svc.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateTokenWrongKey(t *testing.T) {
	svc, err := NewJWTService(testAuthConfig())
	require.NoError(t, err)

	otherCfg := testAuthConfig()
	otherCfg.JWTSecret = "ffffffffffffffffffffffffffffffff"
	other, err := NewJWTService(otherCfg)
	require.NoError(t, err)

	token, err := other.GenerateToken(context.Background(), uuid.New())
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenMalformed(t *testing.T) {
	svc, err := NewJWTService(testAuthConfig())
	require.NoError(t, err)

	for _, tokenString := range []string{"", "garbage", "a.b.c"} {
		_, err := svc.ValidateToken(context.Background(), tokenString)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", tokenString)
	}
}

func TestGenerateResetToken(t *testing.T) {
	first, err := GenerateResetToken()
	require.NoError(t, err)
	assert.Len(t, first, ResetTokenBytes*2, "hex encoding doubles the byte count")

	second, err := GenerateResetToken()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestHashResetToken(t *testing.T) {
	token := "deadbeef"
	hash := HashResetToken(token)

	assert.Len(t, hash, 64)
	assert.NotEqual(t, token, hash)
	assert.Equal(t, hash, HashResetToken(token), "hashing is deterministic")
	assert.NotEqual(t, hash, HashResetToken("deadbeee"))
}

func TestBcryptVerifier(t *testing.T) {
	verifier := NewBcryptVerifier()

	hashed, err := verifier.Hash("correct horse battery")
	require.NoError(t, err)
	require.NotEqual(t, "correct horse battery", hashed)

	assert.NoError(t, verifier.Compare(hashed, "correct horse battery"))
	assert.Error(t, verifier.Compare(hashed, "wrong password"))
}
