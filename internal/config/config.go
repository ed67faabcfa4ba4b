// Package config loads the process configuration from the environment.
// The resulting Config is read-only after Load and is passed to components
// explicitly, never read as ambient global state.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/bmdub/contact-relay/internal/logger"
)

// Backend identifies the mail delivery transport.
type Backend string

const (
	BackendSMTP   Backend = "smtp"
	BackendResend Backend = "resend"
)

// Config is the full service configuration.
type Config struct {
	Port int `env:"PORT" envDefault:"3000"`

	// Mail backend selection: a Resend API key selects the HTTP API,
	// otherwise SMTP is mandatory.
	ResendAPIKey string `env:"RESEND_API_KEY"`
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPass     string `env:"SMTP_PASS"`

	ToEmail   string `env:"TO_EMAIL" envDefault:"hello@bmdub.dev"`
	FromEmail string `env:"FROM_EMAIL" envDefault:"bmDub Contact <noreply@bmdub.dev>"`

	CORSOrigins         []string `env:"CORS_ORIGINS" envSeparator:","`
	CORSCaseInsensitive bool     `env:"CORS_CASE_INSENSITIVE" envDefault:"false"`

	// ExposeDeliveryErrors echoes transport error detail to HTTP callers.
	// Off by default: detail is logged server-side only.
	ExposeDeliveryErrors bool `env:"EXPOSE_DELIVERY_ERRORS" envDefault:"false"`

	SMTPTimeout time.Duration `env:"SMTP_TIMEOUT" envDefault:"10s"`
	MailTimeout time.Duration `env:"MAIL_TIMEOUT" envDefault:"15s"`

	Sentry logger.SentryConfig
}

// ErrNoMailBackend indicates neither Resend nor SMTP is fully configured.
var ErrNoMailBackend = errors.New("no mail backend configured: set RESEND_API_KEY or SMTP_HOST/SMTP_USER/SMTP_PASS")

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	cfg.CORSOrigins = cleanOrigins(cfg.CORSOrigins)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Backend reports which mail transport the configuration selects.
func (c Config) Backend() Backend {
	if c.ResendAPIKey != "" {
		return BackendResend
	}
	return BackendSMTP
}

func (c Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config: PORT must be a valid TCP port (got %d)", c.Port)
	}
	if c.Backend() == BackendSMTP {
		if c.SMTPHost == "" || c.SMTPUser == "" || c.SMTPPass == "" {
			return ErrNoMailBackend
		}
	}
	return nil
}

// cleanOrigins trims entries and drops empties, so trailing commas and
// whitespace in CORS_ORIGINS are harmless.
func cleanOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
