package storage

import (
	"context"

	"github.com/mcoot/pointsbot/internal/model"
)

// HistoryFilter narrows ListHistory. A nil PlayerID returns every entry.
type HistoryFilter struct {
	PlayerID *model.PlayerID
}

// ForPlayer returns a filter matching one player's entries
func ForPlayer(id model.PlayerID) HistoryFilter {
	return HistoryFilter{PlayerID: &id}
}

// Storage defines the interface for ledger persistence
type Storage interface {
	// Player operations
	CreatePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	GetPlayerByDiscordID(ctx context.Context, discordID string) (*model.Player, error)
	ListPlayers(ctx context.Context) ([]*model.Player, error)
	UpdatePlayer(ctx context.Context, player *model.Player) error

	// ApplyMutation writes player and appends entry (for player.ID) as one
	// unit: either both land or neither does. entry.ID is assigned on success.
	ApplyMutation(ctx context.Context, player *model.Player, entry *model.HistoryEntry) error

	// History operations
	ListHistory(ctx context.Context, filter HistoryFilter) ([]*model.HistoryEntry, error)

	// Settings operations. GetSettings returns zero values for fields never saved.
	GetSettings(ctx context.Context) (model.Settings, error)
	SaveSettings(ctx context.Context, settings model.Settings) error

	Close() error
}
