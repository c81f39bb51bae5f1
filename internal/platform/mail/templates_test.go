package mail

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWelcomeTemplate(t *testing.T) {
	var body bytes.Buffer
	err := welcomeTmpl.Execute(&body, WelcomeData{
		Name:         "Jane Doe",
		DashboardURL: "https://app.example.com/dashboard",
	})
	require.NoError(t, err)

	html := body.String()
	assert.Contains(t, html, "Hello Jane Doe!")
	assert.Contains(t, html, `href="https://app.example.com/dashboard"`)
}

func TestWelcomeTemplateEscapesName(t *testing.T) {
	var body bytes.Buffer
	err := welcomeTmpl.Execute(&body, WelcomeData{
		Name:         "<script>alert(1)</script>",
		DashboardURL: "https://app.example.com/dashboard",
	})
	require.NoError(t, err)
	assert.NotContains(t, body.String(), "<script>alert(1)</script>")
}

func TestPasswordResetTemplate(t *testing.T) {
	var body bytes.Buffer
	err := passwordResetTmpl.Execute(&body, PasswordResetData{
		ResetURL: "https://app.example.com/reset-password?token=abc123",
	})
	require.NoError(t, err)

	html := body.String()
	assert.Contains(t, html, "https://app.example.com/reset-password?token=abc123")
	assert.Contains(t, html, "expire in 10 minutes")
}

func TestLogMailer(t *testing.T) {
	m := NewLogMailer(nil)
	ctx := context.Background()

	assert.NoError(t, m.SendWelcome(ctx, "jane@example.com", WelcomeData{Name: "Jane"}))
	assert.NoError(t, m.SendPasswordReset(ctx, "jane@example.com", PasswordResetData{ResetURL: "https://x"}))
}
