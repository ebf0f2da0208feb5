package config

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/visitgate/visitgate/internal/visitgate/pass"
)

type Config struct {
	HTTPAddr string `env:"VISITGATE_HTTP_ADDR" envDefault:":8080"`

	// Env selects dev/prod behavior (dev seeds starter data).
	Env    string `env:"VISITGATE_ENV" envDefault:"dev"`
	DBPath string `env:"VISITGATE_DB_PATH" envDefault:"./data/visitgate.db"`

	// PassSecretHex keys the pass cipher: 64 hex chars (32 bytes).
	// Rotating it invalidates every outstanding pass.
	PassSecretHex string `env:"VISITGATE_PASS_SECRET,required"`

	// SigningSecretHex keys the payload HMAC.  Must differ from the
	// cipher key.
	SigningSecretHex string `env:"VISITGATE_SIGNING_SECRET,required"`

	// TokenSecret signs staff session tokens.
	TokenSecret string        `env:"VISITGATE_TOKEN_SECRET,required"`
	TokenTTL    time.Duration `env:"VISITGATE_TOKEN_TTL" envDefault:"12h"`

	VisitorPassTTL time.Duration `env:"VISITGATE_VISITOR_PASS_TTL" envDefault:"24h"`

	// Notification retention
	NotificationRetentionDays int `env:"VISITGATE_NOTIFICATION_RETENTION_DAYS" envDefault:"30"`
	PruneIntervalHours        int `env:"VISITGATE_PRUNE_INTERVAL_HOURS" envDefault:"6"`

	// HubSendBuffer is the per-connection outbound event queue depth.
	HubSendBuffer int `env:"VISITGATE_HUB_SEND_BUFFER" envDefault:"64"`

	// SMTP relay; empty SMTPAddr routes mail to the log instead.
	SMTPAddr string `env:"VISITGATE_SMTP_ADDR"`
	SMTPFrom string `env:"VISITGATE_SMTP_FROM" envDefault:"noreply@visitgate.local"`
}

// Load parses and validates configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.Env = strings.ToLower(cfg.Env)
	if cfg.Env != "dev" && cfg.Env != "prod" {
		// fail-soft: treat unknown as dev
		cfg.Env = "dev"
	}

	if _, err := cfg.PassSecret(); err != nil {
		return Config{}, err
	}
	if _, err := cfg.SigningSecret(); err != nil {
		return Config{}, err
	}
	if cfg.PassSecretHex == cfg.SigningSecretHex {
		return Config{}, fmt.Errorf("VISITGATE_SIGNING_SECRET must differ from VISITGATE_PASS_SECRET")
	}
	if strings.TrimSpace(cfg.TokenSecret) == "" {
		return Config{}, fmt.Errorf("VISITGATE_TOKEN_SECRET must not be empty")
	}

	return cfg, nil
}

// PassSecret decodes the cipher key.
func (c Config) PassSecret() ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(c.PassSecretHex))
	if err != nil {
		return nil, fmt.Errorf("VISITGATE_PASS_SECRET is not valid hex: %w", err)
	}
	if len(key) != pass.KeySize {
		return nil, fmt.Errorf("VISITGATE_PASS_SECRET must decode to %d bytes, got %d", pass.KeySize, len(key))
	}
	return key, nil
}

// SigningSecret decodes the HMAC key.
func (c Config) SigningSecret() ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(c.SigningSecretHex))
	if err != nil {
		return nil, fmt.Errorf("VISITGATE_SIGNING_SECRET is not valid hex: %w", err)
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("VISITGATE_SIGNING_SECRET must not be empty")
	}
	return key, nil
}
