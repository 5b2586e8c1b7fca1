// Package config loads the platform configuration from the environment.
// A .env file is honored when present, matching how the hosted deployment
// provisions its secrets.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs from the environment.
type Config struct {
	// Port is the HTTP listen port.
	Port int

	// DBPath is the SQLite database file.
	DBPath string

	// AdminSecret is the shared secret for administrative operations.
	AdminSecret string

	// AdminEmail receives the organizer notice when an event fills.
	AdminEmail string

	// SMTP settings for outgoing mail.
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
}

// Load reads the configuration, sourcing a .env file first when one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using process environment")
	}

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}
	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "465"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	return &Config{
		Port:         port,
		DBPath:       getEnv("DB_PATH", "./data/santa.db"),
		AdminSecret:  os.Getenv("ADMIN_SECRET"),
		AdminEmail:   os.Getenv("ADMIN_EMAIL"),
		SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:     smtpPort,
		SMTPUser:     os.Getenv("GMAIL_USER"),
		SMTPPassword: os.Getenv("GMAIL_APP_PASSWORD"),
	}, nil
}

// Validate reports every missing required variable by name, so a
// misconfigured deployment fails with one complete message instead of one
// variable at a time.
func (c *Config) Validate() error {
	var missing []string
	if c.AdminSecret == "" {
		missing = append(missing, "ADMIN_SECRET")
	}
	if c.SMTPUser == "" {
		missing = append(missing, "GMAIL_USER")
	}
	if c.SMTPPassword == "" {
		missing = append(missing, "GMAIL_APP_PASSWORD")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
