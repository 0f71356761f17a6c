package config

import (
	"log/slog"
	"os"
	"time"
)

type Config struct {
	Port        string
	Env         string
	DatabaseDSN string
	JWTSecret   string
	JWTExpiry   time.Duration

	// TrustProxy enables X-Forwarded-For client identification. Leave
	// it off unless every request arrives through a proxy that
	// overwrites the header.
	TrustProxy bool

	// ResetTokenTTL bounds how long a password reset grant stays redeemable.
	ResetTokenTTL time.Duration
	// AppBaseURL is the public frontend origin embedded in reset links.
	AppBaseURL string

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	EmailFrom    string
}

func Load() Config {
	cfg := Config{
		Port:          getEnv("PORT", "5000"),
		Env:           getEnv("ENV", "development"),
		DatabaseDSN:   getEnv("DATABASE_DSN", "root:password@tcp(127.0.0.1:3306)/recipeplanner?parseTime=true"),
		JWTSecret:     getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		JWTExpiry:     24 * time.Hour,
		TrustProxy:    getEnv("TRUST_PROXY", "false") == "true",
		ResetTokenTTL: time.Hour,
		AppBaseURL:    getEnv("APP_BASE_URL", "http://localhost:3000"),
		SMTPHost:      getEnv("SMTP_HOST", ""),
		SMTPPort:      getEnv("SMTP_PORT", "587"),
		SMTPUser:      getEnv("SMTP_USER", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		EmailFrom:     getEnv("EMAIL_FROM", "Recipe Planner <no-reply@recipeplanner.local>"),
	}

	if cfg.Env == "production" && cfg.JWTSecret == "dev-secret-change-in-production" {
		slog.Error("JWT_SECRET must be set in production environment")
		os.Exit(1)
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
