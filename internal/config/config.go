package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	// AuthModeHMAC signs tokens with a shared secret (HS256).
	AuthModeHMAC = "hmac"
	// AuthModeEd25519 signs tokens with an asymmetric Ed25519 keypair (EdDSA).
	AuthModeEd25519 = "ed25519"
)

// Config gathers all environment-driven settings.
type Config struct {
	Port        string
	DatabaseDSN string

	AuthMode        string
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// PEM-encoded Ed25519 keys, required when AuthMode is "ed25519".
	Ed25519PrivateKeyPEM []byte
	Ed25519PublicKeyPEM  []byte
}

// Load reads configuration from environment variables with development
// defaults matching docker-compose.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		AuthMode:        getEnv("AUTH_MODE", AuthModeHMAC),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		AccessTokenTTL:  time.Duration(getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,
		RefreshTokenTTL: time.Duration(getEnvInt("REFRESH_TOKEN_EXPIRE_DAYS", 7)) * 24 * time.Hour,
	}

	cfg.DatabaseDSN = "postgres://" + getEnv("DB_USER", "postgres") +
		":" + getEnv("DB_PASSWORD", "postgres") +
		"@" + getEnv("DB_HOST", "localhost") +
		":" + getEnv("DB_PORT", "5432") +
		"/" + getEnv("DB_NAME", "postgres") +
		"?sslmode=" + getEnv("DB_SSLMODE", "disable")

	switch cfg.AuthMode {
	case AuthModeHMAC:
		if cfg.JWTSecret == "" {
			if os.Getenv("GIN_MODE") == "release" {
				return nil, fmt.Errorf("JWT_SECRET is required in release mode")
			}
			cfg.JWTSecret = "default_super_secret_key" // Development fallback only — DO NOT use in production
		}
	case AuthModeEd25519:
		privPath := getEnv("ED25519_PRIVATE_KEY_FILE", ".secure/private_key.pem")
		pubPath := getEnv("ED25519_PUBLIC_KEY_FILE", ".secure/public_key.pem")
		priv, err := os.ReadFile(privPath)
		if err != nil {
			return nil, fmt.Errorf("reading private key %s: %w", privPath, err)
		}
		pub, err := os.ReadFile(pubPath)
		if err != nil {
			return nil, fmt.Errorf("reading public key %s: %w", pubPath, err)
		}
		cfg.Ed25519PrivateKeyPEM = priv
		cfg.Ed25519PublicKeyPEM = pub
	default:
		return nil, fmt.Errorf("unsupported AUTH_MODE %q (want %q or %q)", cfg.AuthMode, AuthModeHMAC, AuthModeEd25519)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
