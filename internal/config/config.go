// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr       string
	AuthSecret string
	TokenTTL   time.Duration

	RateBurst  int
	RatePerSec int

	MaxBodyBytes int64
}

func Load() *Config {
	_ = godotenv.Load()

	addr := getEnv("LIBRIS_ADDR", ":8080")
	secret := getEnv("LIBRIS_AUTH_SECRET", "")

	ttl := 30 * time.Minute
	if raw := os.Getenv("LIBRIS_TOKEN_TTL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			ttl = d
		}
	}

	return &Config{
		Addr:         addr,
		AuthSecret:   secret,
		TokenTTL:     ttl,
		RateBurst:    getEnvInt("LIBRIS_RATE_BURST", 20),
		RatePerSec:   getEnvInt("LIBRIS_RATE_PER_SEC", 10),
		MaxBodyBytes: int64(getEnvInt("LIBRIS_MAX_BODY_BYTES", 1<<20)),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return fallback
}
