// Package mail sends transactional email. The SMTP implementation talks
// to a real relay; LogMailer stands in when delivery is disabled so the
// rest of the application never branches on configuration.
package mail

import "context"

// WelcomeData carries the fields rendered into the welcome message.
type WelcomeData struct {
	Name         string
	DashboardURL string
}

// PasswordResetData carries the fields rendered into the reset message.
// ResetURL embeds the plaintext reset token; it is never logged.
type PasswordResetData struct {
	ResetURL string
}

// Mailer defines an interface for sending transactional email.
type Mailer interface {
	// SendWelcome greets a newly registered user. Callers treat a
	// delivery failure as non-fatal.
	SendWelcome(ctx context.Context, to string, data WelcomeData) error

	// SendPasswordReset delivers a password reset link. A delivery
	// failure here is fatal for the reset flow: the caller must roll
	// the stored token back so the account is not left with a token
	// the user never received.
	SendPasswordReset(ctx context.Context, to string, data PasswordResetData) error
}
