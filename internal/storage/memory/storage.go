package memory

import (
	"context"
	"sync"

	"github.com/mcoot/pointsbot/internal/model"
	"github.com/mcoot/pointsbot/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	players      map[model.PlayerID]*model.Player
	discordIndex map[string]model.PlayerID
	history      []*model.HistoryEntry
	settings     *model.Settings

	nextPlayerID  model.PlayerID
	nextHistoryID model.HistoryEntryID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players:      make(map[model.PlayerID]*model.Player),
		discordIndex: make(map[string]model.PlayerID),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) CreatePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.discordIndex[player.DiscordID]; ok {
		return model.ErrDuplicatePlayer
	}
	s.nextPlayerID++
	player.ID = s.nextPlayerID
	s.players[player.ID] = player.Clone()
	s.discordIndex[player.DiscordID] = player.ID
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return player.Clone(), nil
}

func (s *Storage) GetPlayerByDiscordID(ctx context.Context, discordID string) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.discordIndex[discordID]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return s.players[id].Clone(), nil
}

func (s *Storage) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*model.Player, 0, len(s.players))
	// ids are dense and ascending, so this yields insertion order
	for id := model.PlayerID(1); id <= s.nextPlayerID; id++ {
		if p, ok := s.players[id]; ok {
			result = append(result, p.Clone())
		}
	}
	return result, nil
}

func (s *Storage) UpdatePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.players[player.ID]
	if !ok {
		return model.ErrPlayerNotFound
	}
	updated := player.Clone()
	// discord id is the immutable identity
	updated.DiscordID = existing.DiscordID
	s.players[player.ID] = updated
	return nil
}

// ApplyMutation replaces the player and appends entry under one lock
func (s *Storage) ApplyMutation(ctx context.Context, player *model.Player, entry *model.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.players[player.ID]
	if !ok || entry.PlayerID != player.ID {
		return model.ErrPlayerNotFound
	}
	updated := player.Clone()
	updated.DiscordID = existing.DiscordID
	s.players[player.ID] = updated

	s.nextHistoryID++
	entry.ID = s.nextHistoryID
	stored := *entry
	s.history = append(s.history, &stored)
	return nil
}

// History operations

func (s *Storage) ListHistory(ctx context.Context, filter storage.HistoryFilter) ([]*model.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*model.HistoryEntry, 0)
	for _, e := range s.history {
		if filter.PlayerID != nil && e.PlayerID != *filter.PlayerID {
			continue
		}
		c := *e
		result = append(result, &c)
	}
	return result, nil
}

// Settings operations

func (s *Storage) GetSettings(ctx context.Context) (model.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return model.Settings{}, nil
	}
	return *s.settings, nil
}

func (s *Storage) SaveSettings(ctx context.Context, settings model.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = &settings
	return nil
}

func (s *Storage) Close() error {
	return nil
}
