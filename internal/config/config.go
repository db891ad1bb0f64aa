// Package config loads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage backends accepted by PLBOT_STORAGE
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

// placeholderTokens are template values that mean "no token configured"
var placeholderTokens = []string{
	"your_bot_token_here",
	"your-discord-bot-token",
	"changeme",
}

// Config is the server process configuration
type Config struct {
	HTTPHost string `env:"PLBOT_HTTP_HOST"`
	HTTPPort int    `env:"PLBOT_HTTP_PORT" envDefault:"8080"`

	Storage     string `env:"PLBOT_STORAGE"     envDefault:"memory"`
	DatabaseURL string `env:"DATABASE_URL"`
	SQLitePath  string `env:"PLBOT_SQLITE_PATH" envDefault:"pointsbot.db"`
	RedisURL    string `env:"REDIS_URL"`
	RedisPrefix string `env:"PLBOT_REDIS_PREFIX" envDefault:"plbot"`

	DiscordToken string `env:"DISCORD_BOT_TOKEN"`

	Prefix          string        `env:"PLBOT_PREFIX"            envDefault:"!"`
	DMRole          string        `env:"PLBOT_DM_ROLE"           envDefault:"Dungeon Master"`
	Locale          string        `env:"PLBOT_LOCALE"            envDefault:"en-US"`
	PendingResetTTL time.Duration `env:"PLBOT_PENDING_RESET_TTL" envDefault:"5m"`
	ResetAllTimeout time.Duration `env:"PLBOT_RESET_ALL_TIMEOUT" envDefault:"30s"`

	SerializeMutations bool   `env:"PLBOT_SERIALIZE_MUTATIONS" envDefault:"false"`
	APITokenHash       string `env:"PLBOT_API_TOKEN_HASH"`

	LogLevel  string `env:"PLBOT_LOG_LEVEL"  envDefault:"info"`
	StaticDir string `env:"PLBOT_STATIC_DIR"`
}

// Load parses the process environment and validates the result
func Load() (Config, error) {
	return load(env.Options{})
}

// LoadFrom parses vars instead of the process environment
func LoadFrom(vars map[string]string) (Config, error) {
	return load(env.Options{Environment: vars})
}

func load(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Storage = strings.ToLower(strings.TrimSpace(cfg.Storage))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports configuration that cannot start a server
func (c Config) Validate() error {
	var errs []error

	switch c.Storage {
	case StorageMemory:
	case StorageSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("PLBOT_SQLITE_PATH is required for sqlite storage"))
		}
	case StoragePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for postgres storage"))
		}
	case StorageRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for redis storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown PLBOT_STORAGE %q", c.Storage))
	}

	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("PLBOT_HTTP_PORT %d out of range", c.HTTPPort))
	}
	if strings.TrimSpace(c.Prefix) == "" {
		errs = append(errs, errors.New("PLBOT_PREFIX must not be empty"))
	}
	if c.PendingResetTTL <= 0 {
		errs = append(errs, errors.New("PLBOT_PENDING_RESET_TTL must be positive"))
	}
	if c.ResetAllTimeout <= 0 {
		errs = append(errs, errors.New("PLBOT_RESET_ALL_TIMEOUT must be positive"))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// ChatEnabled reports whether a real chat token is configured
func (c Config) ChatEnabled() bool {
	token := strings.TrimSpace(c.DiscordToken)
	if token == "" {
		return false
	}
	for _, p := range placeholderTokens {
		if strings.EqualFold(token, p) {
			return false
		}
	}
	return true
}

// SlogLevel returns the configured log level
func (c Config) SlogLevel() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid PLBOT_LOG_LEVEL %q", s)
	}
	return level, nil
}
