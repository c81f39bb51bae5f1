package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"

	gomail "github.com/wneessen/go-mail"

	"github.com/taskflow/taskflow-api/internal/config"
)

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	client *gomail.Client
	from   string
	logger *slog.Logger
}

var _ Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer builds a Mailer from the mail configuration.
func NewSMTPMailer(cfg config.MailConfig, logger *slog.Logger) (*SMTPMailer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client, err := gomail.NewClient(cfg.Host,
		gomail.WithPort(cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.Username),
		gomail.WithPassword(cfg.Password),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return &SMTPMailer{
		client: client,
		from:   cfg.From,
		logger: logger.With(slog.String("component", "smtp_mailer")),
	}, nil
}

func (m *SMTPMailer) SendWelcome(ctx context.Context, to string, data WelcomeData) error {
	return m.send(ctx, to, "Welcome to TaskFlow - Let's Get Started!", welcomeTmpl, data)
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to string, data PasswordResetData) error {
	return m.send(ctx, to, "Password Reset Request - TaskFlow", passwordResetTmpl, data)
}

func (m *SMTPMailer) send(ctx context.Context, to, subject string, tmpl *template.Template, data interface{}) error {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render mail body: %w", err)
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat("TaskFlow", m.from); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, body.String())

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		m.logger.Error("mail delivery failed",
			slog.String("subject", subject),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to send mail: %w", err)
	}

	m.logger.Debug("mail sent", slog.String("subject", subject))
	return nil
}
