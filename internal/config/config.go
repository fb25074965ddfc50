// Package config loads service configuration from the process environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures environment driven configuration values for the scheduler
// service.
type Config struct {
	HTTPPort      int           `env:"SCHEDULER_HTTP_PORT" envDefault:"8080"`
	SQLiteDSN     string        `env:"SCHEDULER_SQLITE_DSN" envDefault:"file:scheduler.db"`
	SessionTTL    time.Duration `env:"SCHEDULER_SESSION_TTL" envDefault:"24h"`
	Timezone      string        `env:"SCHEDULER_TIMEZONE" envDefault:"UTC"`
	PublicBaseURL string        `env:"SCHEDULER_PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`

	SMTPHost     string `env:"SCHEDULER_SMTP_HOST"`
	SMTPPort     int    `env:"SCHEDULER_SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SCHEDULER_SMTP_USERNAME"`
	SMTPPassword string `env:"SCHEDULER_SMTP_PASSWORD"`
	SMTPFrom     string `env:"SCHEDULER_SMTP_FROM"`

	location *time.Location
}

// Load parses configuration values from the current process environment and
// validates them.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("SCHEDULER_HTTP_PORT must be between 1 and 65535, got %d", c.HTTPPort)
	}
	if strings.TrimSpace(c.SQLiteDSN) == "" {
		return fmt.Errorf("SCHEDULER_SQLITE_DSN must not be empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SCHEDULER_SESSION_TTL must be positive, got %s", c.SessionTTL)
	}

	location, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("SCHEDULER_TIMEZONE %q is not a valid IANA zone: %w", c.Timezone, err)
	}
	c.location = location

	if c.MailEnabled() && strings.TrimSpace(c.SMTPFrom) == "" {
		return fmt.Errorf("SCHEDULER_SMTP_FROM is required when SCHEDULER_SMTP_HOST is set")
	}
	return nil
}

// Location returns the deployment timezone used when combining poll dates
// with slot start times.
func (c Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// MailEnabled reports whether an SMTP relay is configured.
func (c Config) MailEnabled() bool {
	return strings.TrimSpace(c.SMTPHost) != ""
}
