package mocks

import (
	"context"
	"sync"

	"github.com/taskflow/taskflow-api/internal/platform/mail"
)

// SentMail records one delivery attempt made through MockMailer.
type SentMail struct {
	Kind string // "welcome" or "password_reset"
	To   string
	Data interface{}
}

// MockMailer implements mail.Mailer, recording sends and optionally
// failing them.
type MockMailer struct {
	mu   sync.Mutex
	Sent []SentMail

	WelcomeErr       error
	PasswordResetErr error
}

var _ mail.Mailer = (*MockMailer)(nil)

func (m *MockMailer) SendWelcome(_ context.Context, to string, data mail.WelcomeData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WelcomeErr != nil {
		return m.WelcomeErr
	}
	m.Sent = append(m.Sent, SentMail{Kind: "welcome", To: to, Data: data})
	return nil
}

func (m *MockMailer) SendPasswordReset(_ context.Context, to string, data mail.PasswordResetData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PasswordResetErr != nil {
		return m.PasswordResetErr
	}
	m.Sent = append(m.Sent, SentMail{Kind: "password_reset", To: to, Data: data})
	return nil
}

// LastSent returns the most recent delivery, or nil if none happened.
func (m *MockMailer) LastSent() *SentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return nil
	}
	last := m.Sent[len(m.Sent)-1]
	return &last
}
