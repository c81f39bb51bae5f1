package mail

import (
	"context"
	"log/slog"
)

// LogMailer records send attempts without delivering anything. It is
// used when mail is disabled in configuration and in tests.
type LogMailer struct {
	logger *slog.Logger
}

var _ Mailer = (*LogMailer)(nil)

// NewLogMailer creates a mailer that only logs.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger.With(slog.String("component", "log_mailer"))}
}

func (m *LogMailer) SendWelcome(_ context.Context, to string, data WelcomeData) error {
	m.logger.Info("mail delivery disabled, skipping welcome mail",
		slog.String("to", to),
		slog.String("name", data.Name))
	return nil
}

func (m *LogMailer) SendPasswordReset(_ context.Context, to string, _ PasswordResetData) error {
	m.logger.Info("mail delivery disabled, skipping password reset mail",
		slog.String("to", to))
	return nil
}
