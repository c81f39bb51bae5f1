// Package config loads and validates application configuration.
package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Mail     MailConfig     `mapstructure:"mail"`
	Notifier NotifierConfig `mapstructure:"notifier"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains authentication and account-lockout settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`

	// LockoutThreshold is the number of consecutive failed login
	// attempts before the account is temporarily locked.
	LockoutThreshold int `mapstructure:"lockout_threshold" validate:"required,gt=0"`

	// LockoutDurationMinutes is how long a lockout lasts. Expiry is
	// evaluated lazily at the next login attempt.
	LockoutDurationMinutes int `mapstructure:"lockout_duration_minutes" validate:"required,gt=0"`
}

// MailConfig contains SMTP settings for outbound mail. When Enabled is
// false, mail is logged instead of sent.
type MailConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Host        string `mapstructure:"host"         validate:"required_if=Enabled true"`
	Port        int    `mapstructure:"port"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	From        string `mapstructure:"from"         validate:"required_if=Enabled true"`
	FrontendURL string `mapstructure:"frontend_url"`
}

// NotifierConfig contains settings for the task-event notification
// channel. When Enabled is false, events fan out in-process only.
type NotifierConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	AMQPURL string `mapstructure:"amqp_url" validate:"required_if=Enabled true"`
}
