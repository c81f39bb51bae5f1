package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ResetTokenBytes is the entropy of a password reset token.
const ResetTokenBytes = 32

// GenerateResetToken creates a random password reset token. The
// plaintext goes to the user; only HashResetToken's output is stored.
func GenerateResetToken() (string, error) {
	b := make([]byte, ResetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// HashResetToken returns the SHA-256 hex digest of a reset token.
// Reset tokens are single-use and short-lived, so a fast one-way hash
// is sufficient; the stored hash is useless without the plaintext.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
