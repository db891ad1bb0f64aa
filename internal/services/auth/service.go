package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/pointsbot/internal/dependencies/clock"
)

// Errors
var (
	ErrMissingToken = errors.New("missing API token")
	ErrInvalidToken = errors.New("invalid API token")
)

// Config holds configuration for the auth service
type Config struct {
	// TokenHash is the bcrypt hash of the API token. Empty disables auth.
	TokenHash string
	// CacheDuration is how long a successfully verified token skips bcrypt
	CacheDuration time.Duration
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		CacheDuration: 10 * time.Minute,
	}
}

// Service verifies bearer tokens for the mutating API endpoints.
// Verified tokens are remembered by digest until CacheDuration elapses.
type Service struct {
	clock  clock.Clock
	logger *slog.Logger
	hash   []byte

	mu       sync.Mutex
	verified map[[sha256.Size]byte]time.Time

	cacheDuration time.Duration
}

// New creates an auth service. A malformed TokenHash is an error.
func New(clk clock.Clock, cfg Config, logger *slog.Logger) (*Service, error) {
	if cfg.CacheDuration == 0 {
		cfg.CacheDuration = DefaultConfig().CacheDuration
	}
	s := &Service{
		clock:         clk,
		logger:        logger.With(slog.String("component", "auth")),
		verified:      make(map[[sha256.Size]byte]time.Time),
		cacheDuration: cfg.CacheDuration,
	}
	if cfg.TokenHash != "" {
		if _, err := bcrypt.Cost([]byte(cfg.TokenHash)); err != nil {
			return nil, fmt.Errorf("invalid API token hash: %w", err)
		}
		s.hash = []byte(cfg.TokenHash)
	}
	return s, nil
}

// Enabled reports whether a token hash is configured
func (s *Service) Enabled() bool {
	return len(s.hash) > 0
}

// Verify checks a bearer token. It always succeeds when auth is disabled.
func (s *Service) Verify(token string) error {
	if !s.Enabled() {
		return nil
	}
	if token == "" {
		return ErrMissingToken
	}

	digest := sha256.Sum256([]byte(token))
	now := s.clock.Now()

	s.mu.Lock()
	expiresAt, ok := s.verified[digest]
	s.mu.Unlock()
	if ok && now.Before(expiresAt) {
		return nil
	}

	if err := bcrypt.CompareHashAndPassword(s.hash, []byte(token)); err != nil {
		s.logger.Warn("rejected API token")
		return ErrInvalidToken
	}

	s.mu.Lock()
	s.verified[digest] = now.Add(s.cacheDuration)
	s.mu.Unlock()
	return nil
}

// CleanExpired drops cached verifications that have expired
func (s *Service) CleanExpired() {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	for digest, expiresAt := range s.verified {
		if !now.Before(expiresAt) {
			delete(s.verified, digest)
		}
	}
}

func (s *Service) cached() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.verified)
}

// HashToken produces the bcrypt hash to configure for a token
func HashToken(token string, cost int) (string, error) {
	if token == "" {
		return "", ErrMissingToken
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash token: %w", err)
	}
	return string(hash), nil
}
