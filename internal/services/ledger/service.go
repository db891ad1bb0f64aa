package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mcoot/pointsbot/internal/dependencies/clock"
	"github.com/mcoot/pointsbot/internal/model"
	"github.com/mcoot/pointsbot/internal/storage"
)

// Listener receives an event after every successful mutation
type Listener func(model.Event)

// Option configures a Service
type Option func(*Service)

// WithPlayerLocking serializes read-modify-write per player. Without it two
// concurrent mutations of the same player race and the last write wins,
// though both still append their history entry.
func WithPlayerLocking() Option {
	return func(s *Service) {
		s.locks = newPlayerLocks()
	}
}

// Service owns the player collection and its append-only history
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
	locks   *playerLocks

	mu        sync.RWMutex
	listeners []Listener
}

// New creates a new ledger Service
func New(storage storage.Storage, clock clock.Clock, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		storage: storage,
		clock:   clock,
		logger:  logger.With(slog.String("component", "ledger")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers l to receive ledger events
func (s *Service) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *Service) publish(event model.Event) {
	s.mu.RLock()
	listeners := s.listeners
	s.mu.RUnlock()
	for _, l := range listeners {
		l(event)
	}
}

// GetPlayer retrieves a player by internal id
func (s *Service) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	return s.storage.GetPlayer(ctx, id)
}

// GetPlayerByDiscordID retrieves a player by external identity
func (s *Service) GetPlayerByDiscordID(ctx context.Context, discordID string) (*model.Player, error) {
	return s.storage.GetPlayerByDiscordID(ctx, discordID)
}

// ListPlayers returns all players in insertion order
func (s *Service) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	return s.storage.ListPlayers(ctx)
}

// GetHistory returns history entries, optionally for one player only
func (s *Service) GetHistory(ctx context.Context, playerID *model.PlayerID) ([]*model.HistoryEntry, error) {
	return s.storage.ListHistory(ctx, storage.HistoryFilter{PlayerID: playerID})
}

// CreatePlayer registers a new player
func (s *Service) CreatePlayer(ctx context.Context, discordID, username string, initialPoints int) (*model.Player, error) {
	discordID = strings.TrimSpace(discordID)
	username = strings.TrimSpace(username)
	if discordID == "" {
		return nil, fmt.Errorf("%w: discord id is required", model.ErrInvalidArgument)
	}
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", model.ErrInvalidArgument)
	}

	player := &model.Player{
		DiscordID:   discordID,
		Username:    username,
		Points:      initialPoints,
		LastUpdated: s.clock.Now(),
	}
	if err := s.storage.CreatePlayer(ctx, player); err != nil {
		return nil, err
	}

	s.logger.Info("player created",
		slog.Int64("player_id", int64(player.ID)),
		slog.String("discord_id", discordID),
	)
	s.publish(model.Event{
		Type:      model.EventPlayerCreated,
		Timestamp: player.LastUpdated,
		Player:    player.Clone(),
	})
	return player, nil
}

// EnsurePlayer returns the player for discordID, creating it with zero points
// if unseen. A changed non-empty username replaces the stored one.
func (s *Service) EnsurePlayer(ctx context.Context, discordID, username string) (*model.Player, error) {
	player, err := s.storage.GetPlayerByDiscordID(ctx, discordID)
	if errors.Is(err, model.ErrPlayerNotFound) {
		player, err = s.CreatePlayer(ctx, discordID, username, 0)
		if errors.Is(err, model.ErrDuplicatePlayer) {
			// created concurrently by another caller
			player, err = s.storage.GetPlayerByDiscordID(ctx, discordID)
		}
	}
	if err != nil {
		return nil, err
	}

	username = strings.TrimSpace(username)
	if username != "" && username != player.Username {
		player.Username = username
		if err := s.storage.UpdatePlayer(ctx, player); err != nil {
			return nil, err
		}
	}
	return player, nil
}

// AddPoints adds delta to a player's points
func (s *Service) AddPoints(ctx context.Context, id model.PlayerID, delta int, reason, actor string) (*model.Player, error) {
	return s.mutate(ctx, id, actor, model.EventPointsAdded, func(p *model.Player) (int, string) {
		p.Points += delta
		return delta, reason
	})
}

// ResetPoints sets a player's points to zero, recording the cleared amount
func (s *Service) ResetPoints(ctx context.Context, id model.PlayerID, actor string) (*model.Player, error) {
	return s.resetPoints(ctx, id, actor, true)
}

// SetPoints sets a player's points to value, recording the difference
func (s *Service) SetPoints(ctx context.Context, id model.PlayerID, value int, actor string) (*model.Player, error) {
	return s.mutate(ctx, id, actor, model.EventPointsSet, func(p *model.Player) (int, string) {
		previous := p.Points
		p.Points = value
		return value - previous, model.ReasonManualSet
	})
}

// ResetAllPoints resets every player in turn. It is not atomic: on failure the
// players already reset stay reset and the returned count says how many.
func (s *Service) ResetAllPoints(ctx context.Context, actor string) (int, error) {
	players, err := s.storage.ListPlayers(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, p := range players {
		if _, err := s.resetPoints(ctx, p.ID, actor, false); err != nil {
			s.logger.Error("reset all interrupted",
				slog.Int64("player_id", int64(p.ID)),
				slog.Int("reset_count", count),
				slog.String("error", err.Error()),
			)
			return count, fmt.Errorf("reset player %d: %w", p.ID, err)
		}
		count++
	}

	s.logger.Info("all points reset",
		slog.Int("player_count", count),
		slog.String("actor", actor),
	)
	s.publish(model.Event{
		Type:      model.EventAllReset,
		Timestamp: s.clock.Now(),
		Count:     count,
	})
	return count, nil
}

func (s *Service) resetPoints(ctx context.Context, id model.PlayerID, actor string, notify bool) (*model.Player, error) {
	eventType := model.EventPointsReset
	if !notify {
		eventType = ""
	}
	return s.mutate(ctx, id, actor, eventType, func(p *model.Player) (int, string) {
		previous := p.Points
		p.Points = 0
		return -previous, model.ReasonReset
	})
}

// mutate reads the player, applies the change and stores it together with
// its history entry. An empty
// eventType suppresses the per-player event.
func (s *Service) mutate(
	ctx context.Context,
	id model.PlayerID,
	actor string,
	eventType model.EventType,
	apply func(p *model.Player) (amount int, reason string),
) (*model.Player, error) {
	if s.locks != nil {
		defer s.locks.lock(id)()
	}

	player, err := s.storage.GetPlayer(ctx, id)
	if err != nil {
		return nil, err
	}

	amount, reason := apply(player)
	now := s.clock.Now()
	player.LastUpdated = now

	entry := &model.HistoryEntry{
		PlayerID:  id,
		Amount:    amount,
		Reason:    reason,
		Timestamp: now,
		AddedBy:   actor,
	}
	if err := s.storage.ApplyMutation(ctx, player, entry); err != nil {
		s.logger.Error("failed to apply mutation",
			slog.Int64("player_id", int64(id)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.Info("points changed",
		slog.Int64("player_id", int64(id)),
		slog.Int("amount", amount),
		slog.Int("points", player.Points),
		slog.String("actor", actor),
	)
	if eventType != "" {
		s.publish(model.Event{
			Type:      eventType,
			Timestamp: now,
			Player:    player.Clone(),
			Entry:     entry,
		})
	}
	return player, nil
}
