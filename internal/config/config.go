// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the site configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Supported database drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// knownWeakSecrets contains example secrets that must be rejected outside development.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	Env        string `env:"BRAINSWARM_ENV" envDefault:"development"`
	ServerHost string `env:"BRAINSWARM_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"BRAINSWARM_SERVER_PORT" envDefault:"8080"`
	LogLevel   string `env:"BRAINSWARM_LOG_LEVEL" envDefault:"info"`

	// Database
	DBDriver  string `env:"BRAINSWARM_DB_DRIVER" envDefault:"sqlite"`
	DBPath    string `env:"BRAINSWARM_DB_PATH" envDefault:"./data/brainswarm.db"`
	DBHost    string `env:"BRAINSWARM_DB_HOST" envDefault:"localhost"`
	DBPort    int    `env:"BRAINSWARM_DB_PORT" envDefault:"3306"`
	DBName    string `env:"BRAINSWARM_DB_NAME" envDefault:"brainswarm"`
	DBUser    string `env:"BRAINSWARM_DB_USER" envDefault:"root"`
	DBPass    string `env:"BRAINSWARM_DB_PASS"`
	DBCharset string `env:"BRAINSWARM_DB_CHARSET" envDefault:"utf8mb4"`

	// Sessions
	RedisURL        string        `env:"BRAINSWARM_REDIS_URL"` // Optional; sessions go to Redis when set
	SessionSecret   string        `env:"BRAINSWARM_SESSION_SECRET,required"`
	SessionLifetime time.Duration `env:"BRAINSWARM_SESSION_LIFETIME" envDefault:"1h"`

	// Site
	SiteURL    string `env:"BRAINSWARM_SITE_URL"`  // Empty means derive from the request
	BasePath   string `env:"BRAINSWARM_BASE_PATH"` // Sub-path when deployed below the host root
	SiteName   string `env:"BRAINSWARM_SITE_NAME" envDefault:"Brain Swarm"`
	SiteEmail  string `env:"BRAINSWARM_SITE_EMAIL" envDefault:"info@brainswarm.org"`
	AdminEmail string `env:"BRAINSWARM_ADMIN_EMAIL" envDefault:"admin@brainswarm.org"`
	StaticDir  string `env:"BRAINSWARM_STATIC_DIR"` // Optional on-disk override of embedded assets

	// Uploads
	UploadDir      string `env:"BRAINSWARM_UPLOAD_DIR" envDefault:"./uploads"`
	BlogImagesDir  string `env:"BRAINSWARM_BLOG_IMAGES_DIR" envDefault:"blog_images"`
	EventImagesDir string `env:"BRAINSWARM_EVENT_IMAGES_DIR" envDefault:"event_images"`
	ProfilePicsDir string `env:"BRAINSWARM_PROFILE_PICS_DIR" envDefault:"profile_pics"`
	SweepSchedule  string `env:"BRAINSWARM_SWEEP_SCHEDULE" envDefault:"@daily"`

	PasswordMinLength int `env:"BRAINSWARM_PASSWORD_MIN_LENGTH" envDefault:"8"`

	// Mail notifications for form submissions; disabled when SMTPHost is empty.
	SMTPHost string `env:"BRAINSWARM_SMTP_HOST"`
	SMTPPort int    `env:"BRAINSWARM_SMTP_PORT" envDefault:"587"`
	SMTPUser string `env:"BRAINSWARM_SMTP_USER"`
	SMTPPass string `env:"BRAINSWARM_SMTP_PASS"`
	SMTPFrom string `env:"BRAINSWARM_SMTP_FROM"`

	// Resend API delivery; takes precedence over SMTP when set.
	ResendAPIKey string `env:"BRAINSWARM_RESEND_API_KEY"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisSessions returns true if sessions should be kept in Redis.
func (c Config) UseRedisSessions() bool {
	return c.RedisURL != ""
}

// SMTPEnabled returns true if submission notifications should be mailed over SMTP.
func (c Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}

// NotifyEnabled returns true if submission notifications are delivered at all.
func (c Config) NotifyEnabled() bool {
	return c.ResendAPIKey != "" || c.SMTPEnabled()
}

// MailFrom returns the sender address for notifications.
func (c Config) MailFrom() string {
	if c.SMTPFrom != "" {
		return c.SMTPFrom
	}
	return c.SiteEmail
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that env tags cannot express.
func (c *Config) Validate() error {
	if len(c.SessionSecret) < MinSessionSecretLength {
		return fmt.Errorf("BRAINSWARM_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(c.SessionSecret))
	}

	if !c.IsDevelopment() {
		for _, weak := range knownWeakSecrets {
			if c.SessionSecret == weak {
				return fmt.Errorf("BRAINSWARM_SESSION_SECRET is a known default value and must not be used")
			}
		}
	}

	if !hasMinimumEntropy(c.SessionSecret) {
		slog.Warn("BRAINSWARM_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	switch c.DBDriver {
	case DriverSQLite, DriverMySQL:
	default:
		return fmt.Errorf("BRAINSWARM_DB_DRIVER must be %q or %q, got %q", DriverSQLite, DriverMySQL, c.DBDriver)
	}

	if c.PasswordMinLength < 1 {
		return fmt.Errorf("BRAINSWARM_PASSWORD_MIN_LENGTH must be positive, got %d", c.PasswordMinLength)
	}

	c.BasePath = strings.TrimRight(c.BasePath, "/")
	c.SiteURL = strings.TrimRight(c.SiteURL, "/")

	return nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes.
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
