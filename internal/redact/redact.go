// Package redact strips sensitive material from strings before they
// are logged: connection strings, bearer tokens, password fragments,
// reset tokens, and email addresses.
package redact

import "regexp"

// Redaction placeholders.
const (
	CredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	TokenPlaceholder      = "[REDACTED_TOKEN]"
	EmailPlaceholder      = "[REDACTED_EMAIL]"
)

var (
	// Database connection strings with inline credentials.
	dbConnRegex = regexp.MustCompile(`(?i)(postgres|postgresql|amqp|mysql)://[^@\s]+@`)

	// password=..., password: ... fragments.
	passwordRegex = regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]['"]?)[^'"&\s]{3,}`)

	// Three-part base64url JWT tokens.
	jwtTokenRegex = regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`)

	// 64-hex-character blobs, the shape of stored reset token hashes.
	hexTokenRegex = regexp.MustCompile(`\b[0-9a-fA-F]{64}\b`)

	// Email addresses.
	emailRegex = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	placeholders = []struct {
		pattern     *regexp.Regexp
		placeholder string
	}{
		{dbConnRegex, CredentialPlaceholder},
		{passwordRegex, CredentialPlaceholder},
		{jwtTokenRegex, TokenPlaceholder},
		{hexTokenRegex, TokenPlaceholder},
		{emailRegex, EmailPlaceholder},
	}
)

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}
	result := input
	for _, p := range placeholders {
		result = p.pattern.ReplaceAllString(result, p.placeholder)
	}
	return result
}

// Error redacts sensitive information from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
