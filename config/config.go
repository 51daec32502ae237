package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the service configuration, read from environment variables.
type Config struct {
	Port          string
	RedisURL      string
	OTPSalt       string
	IdentityURL   string
	IdentityToken string

	// SigningKeyPEM is the ES256 private key in PEM form. Empty in dev mode,
	// where an ephemeral key is generated at startup.
	SigningKeyPEM string
	SigningKeyID  string

	OTPRequestLimit  int
	OTPRequestWindow time.Duration

	// DevMode swaps the Redis stores, the identity client, and the
	// dispatcher for in-process stand-ins and logs issued codes.
	DevMode bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:             "9000",
		SigningKeyID:     "1",
		OTPRequestLimit:  5,
		OTPRequestWindow: 10 * time.Minute,
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}

	cfg.DevMode = os.Getenv("DEV_MODE") == "true"

	cfg.RedisURL = os.Getenv("REDIS_URL")
	if cfg.RedisURL == "" {
		if !cfg.DevMode {
			return nil, fmt.Errorf("REDIS_URL environment variable is required")
		}
		cfg.RedisURL = "redis://localhost:6379/0"
	}

	cfg.OTPSalt = os.Getenv("OTP_SALT")
	if cfg.OTPSalt == "" && !cfg.DevMode {
		return nil, fmt.Errorf("OTP_SALT environment variable is required")
	}

	cfg.IdentityURL = os.Getenv("IDENTITY_URL")
	if cfg.IdentityURL == "" && !cfg.DevMode {
		return nil, fmt.Errorf("IDENTITY_URL environment variable is required")
	}
	cfg.IdentityToken = os.Getenv("IDENTITY_TOKEN")

	cfg.SigningKeyPEM = os.Getenv("JWT_SIGNING_KEY")
	if cfg.SigningKeyPEM == "" && !cfg.DevMode {
		return nil, fmt.Errorf("JWT_SIGNING_KEY environment variable is required")
	}
	if keyID := os.Getenv("JWT_KEY_ID"); keyID != "" {
		cfg.SigningKeyID = keyID
	}

	if limit := os.Getenv("OTP_REQUEST_LIMIT"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("OTP_REQUEST_LIMIT must be a positive integer")
		}
		cfg.OTPRequestLimit = n
	}
	if window := os.Getenv("OTP_REQUEST_WINDOW"); window != "" {
		d, err := time.ParseDuration(window)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("OTP_REQUEST_WINDOW must be a positive duration")
		}
		cfg.OTPRequestWindow = d
	}

	return cfg, nil
}
