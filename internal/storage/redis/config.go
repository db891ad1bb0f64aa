package redis

import (
	"errors"
	"time"
)

// DefaultKeyPrefix namespaces ledger keys when Config.KeyPrefix is empty
const DefaultKeyPrefix = "plbot"

// Config holds Redis connection and key layout settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379/0)
	URL string

	// KeyPrefix namespaces every key, so campaigns can share one server
	KeyPrefix string

	PoolSize     int
	MinIdleConns int

	// DialTimeout bounds the initial connectivity check
	DialTimeout time.Duration
}

// DefaultConfig returns the settings used for a local Redis
func DefaultConfig() Config {
	return ConfigFromURL("redis://localhost:6379")
}

// ConfigFromURL returns the default settings pointed at url
func ConfigFromURL(url string) Config {
	return Config{
		URL:          url,
		KeyPrefix:    DefaultKeyPrefix,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
	}
}

// Validate reports settings New cannot start with
func (c Config) Validate() error {
	var errs []error
	if c.URL == "" {
		errs = append(errs, errors.New("redis url is required"))
	}
	if c.DialTimeout <= 0 {
		errs = append(errs, errors.New("redis dial timeout must be positive"))
	}
	if c.MinIdleConns > c.PoolSize {
		errs = append(errs, errors.New("redis min idle conns exceeds pool size"))
	}
	return errors.Join(errs...)
}
