/*
Package config loads server configuration.

PRECEDENCE (lowest to highest):
  1. Built-in defaults
  2. .env file in the working directory (optional)
  3. Process environment
  4. Command-line flags (registered with RegisterFlags)

ENVIRONMENT:
  PORT              HTTP server port (default: 8080)
  DB_PATH           SQLite database path (default: payroll.db)
  SEED_FILE         YAML scenario loaded at startup when the database is empty
  JWT_SECRET        HMAC secret; when empty, /api routes are unauthenticated
  JWT_EXPIRATION    Token lifetime (default: 168h)
  LOG_LEVEL         debug | info | warn | error (default: info)
  ALLOWED_ORIGINS   Comma-separated CORS origins
  APP_ENV           development | production (default: development)
  SHUTDOWN_TIMEOUT  Graceful shutdown window (default: 30s)
*/
package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server ServerConfig
	DB     DBConfig
	JWT    JWTConfig
	App    AppConfig
}

type ServerConfig struct {
	Port            int
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
}

type DBConfig struct {
	Path     string
	SeedFile string
}

// JWTConfig holds token settings. An empty Secret disables authentication.
type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type AppConfig struct {
	Env      string
	LogLevel string
}

var defaultOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// Load reads the given env files (".env" when none are named) and the
// environment into a Config. Missing files are skipped, and variables
// already set in the environment win over file values. The result is not
// validated; call Validate after any flag overrides.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("config: invalid PORT: %w", err)
	}

	expiration, err := time.ParseDuration(getEnv("JWT_EXPIRATION", "168h"))
	if err != nil {
		return nil, fmt.Errorf("config: invalid JWT_EXPIRATION: %w", err)
	}

	shutdown, err := time.ParseDuration(getEnv("SHUTDOWN_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("config: invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	origins := getEnvSlice("ALLOWED_ORIGINS")
	if len(origins) == 0 {
		origins = defaultOrigins
	}

	return &Config{
		Server: ServerConfig{
			Port:            port,
			AllowedOrigins:  origins,
			ShutdownTimeout: shutdown,
		},
		DB: DBConfig{
			Path:     getEnv("DB_PATH", "payroll.db"),
			SeedFile: getEnv("SEED_FILE", ""),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", ""),
			Expiration: expiration,
		},
		App: AppConfig{
			Env:      getEnv("APP_ENV", "development"),
			LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		},
	}, nil
}

// RegisterFlags binds command-line overrides onto c. Call before
// fs.Parse; the current values become the flag defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.Server.Port, "port", c.Server.Port, "HTTP server port")
	fs.StringVar(&c.DB.Path, "db", c.DB.Path, "SQLite database path (\":memory:\" for in-memory)")
	fs.StringVar(&c.DB.SeedFile, "seed", c.DB.SeedFile, "YAML scenario to load when the database is empty")
	fs.StringVar(&c.App.LogLevel, "log-level", c.App.LogLevel, "log level (debug, info, warn, error)")
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Server.Port)
	}
	if c.DB.Path == "" {
		return fmt.Errorf("config: DB_PATH is required")
	}
	if _, err := ParseLevel(c.App.LogLevel); err != nil {
		return err
	}
	if c.JWT.Expiration <= 0 {
		return fmt.Errorf("config: JWT_EXPIRATION must be positive")
	}
	if c.IsProduction() && c.JWT.Secret == "" {
		return fmt.Errorf("config: JWT_SECRET is required in production")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// AuthEnabled reports whether /api routes require a bearer token.
func (c *Config) AuthEnabled() bool {
	return c.JWT.Secret != ""
}

// Addr returns the listen address for http.Server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// ParseLevel maps a LOG_LEVEL string to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("config: unknown log level %q", s)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(key string) []string {
	value := getEnv(key, "")
	if value == "" {
		return nil
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
