package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from an optional config.yaml and from
// environment variables with the TASKFLOW_ prefix. Environment
// variables take precedence over values from the config file.
// Returns a populated Config struct or an error if loading or
// validation fails.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("auth.token_lifetime_minutes", 60*24*7) // 7 days
	v.SetDefault("auth.lockout_threshold", 5)
	v.SetDefault("auth.lockout_duration_minutes", 120)
	v.SetDefault("mail.enabled", false)
	v.SetDefault("mail.port", 587)
	v.SetDefault("notifier.enabled", false)

	// Keys without defaults must still be registered for AutomaticEnv
	// to bind them during Unmarshal.
	for _, key := range []string{
		"database.url", "auth.jwt_secret",
		"mail.host", "mail.username", "mail.password", "mail.from", "mail.frontend_url",
		"notifier.amqp_url",
	} {
		v.SetDefault(key, "")
	}

	// Optional config file in the working directory.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables: TASKFLOW_SERVER_PORT, TASKFLOW_AUTH_JWT_SECRET, ...
	v.SetEnvPrefix("TASKFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
