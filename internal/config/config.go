// Package config loads process-wide configuration from the environment,
// optionally seeded from a .env file. Missing required keys are a startup
// error, never a runtime one.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBUser string
	DBPass string
	DBHost string
	DBPort int
	DBName string

	// HTTP
	Host   string
	Port   int
	Domain string
	HTTPS  bool

	// Outbound email
	Email Email

	// Sessions
	SecretKey  string
	RedisAddr  string
	SessionTTL time.Duration

	// Ambient
	LogLevel    string
	Environment string
	Debug       bool
}

type Email struct {
	Host   string
	Port   int
	User   string
	Pass   string
	Secure bool
}

var required = []string{
	"DB_USER", "DB_PASS", "DB_HOST", "DB_PORT", "DB_NAME",
	"HOST", "PORT", "DOMAIN", "HTTPS",
	"EMAIL_HOST", "EMAIL_PORT", "EMAIL_USER", "EMAIL_PASS",
	"SECRET_KEY",
}

// Load reads the environment. A .env file is honoured when present but its
// absence is not an error.
func Load() (Config, error) {
	_ = godotenv.Load()

	var missing []string
	for _, key := range required {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return Config{
		DBUser: os.Getenv("DB_USER"),
		DBPass: os.Getenv("DB_PASS"),
		DBHost: os.Getenv("DB_HOST"),
		DBPort: getint("DB_PORT", 5432),
		DBName: os.Getenv("DB_NAME"),

		Host:   os.Getenv("HOST"),
		Port:   getint("PORT", 8080),
		Domain: os.Getenv("DOMAIN"),
		HTTPS:  getbool("HTTPS", false),

		Email: Email{
			Host:   os.Getenv("EMAIL_HOST"),
			Port:   getint("EMAIL_PORT", 465),
			User:   os.Getenv("EMAIL_USER"),
			Pass:   os.Getenv("EMAIL_PASS"),
			Secure: getbool("EMAIL_SECURE", true),
		},

		SecretKey:  os.Getenv("SECRET_KEY"),
		RedisAddr:  getenv("REDIS_ADDR", "localhost:6379"),
		SessionTTL: getdur("SESSION_TTL", 24*time.Hour),

		LogLevel:    os.Getenv("LOG_LEVEL"),
		Environment: getenv("ENVIRONMENT", "dev"),
		Debug:       getbool("DEBUG", false),
	}, nil
}

// DSN renders the Postgres connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s", c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName)
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
