package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// EnvDevelopment marks a local development deployment.
	EnvDevelopment = "development"
	// EnvProduction marks any deployed environment.
	EnvProduction = "production"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort string
	AppEnv     string
	SiteURL    string
	LogLevel   string

	DBDriver    string
	DatabaseDSN string

	RedisAddr string
	RedisDB   int
	RedisPass string

	IDPBaseURL   string
	IDPAnonKey   string
	IDPJWTSecret string
	IDPTimeout   time.Duration

	SessionMaxAge   time.Duration
	LookupRateLimit int
	// TrustedProxies lists the CIDRs whose X-Forwarded-For is believed.
	// Empty means the client IP is the connection peer.
	TrustedProxies []string
}

// Load builds Config from environment with sensible defaults. A .env file in
// the working directory is read first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		AppEnv:          getEnv("APP_ENV", EnvProduction),
		SiteURL:         os.Getenv("SITE_URL"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DBDriver:        getEnv("DB_DRIVER", "postgres"),
		DatabaseDSN:     getEnv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=church port=5432 sslmode=disable"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		RedisPass:       os.Getenv("REDIS_PASSWORD"),
		IDPBaseURL:      getEnv("IDP_BASE_URL", "http://localhost:54321"),
		IDPAnonKey:      os.Getenv("IDP_ANON_KEY"),
		IDPJWTSecret:    os.Getenv("IDP_JWT_SECRET"),
		IDPTimeout:      getEnvDuration("IDP_TIMEOUT", 10*time.Second),
		SessionMaxAge:   getEnvDuration("SESSION_MAX_AGE", 30*24*time.Hour),
		LookupRateLimit: getEnvInt("LOOKUP_RATE_LIMIT", 20),
		TrustedProxies:  getEnvList("TRUSTED_PROXIES"),
	}
}

// Validate reports settings the server cannot run safely without. The JWT
// secret is the only check on provider access tokens, so it is required in
// every environment.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.IDPJWTSecret) == "" {
		return errors.New("IDP_JWT_SECRET is required")
	}
	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			return fmt.Errorf("TRUSTED_PROXIES: %w", err)
		}
	}
	return nil
}

// IsDevelopment reports whether the service runs in local development.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
