package response

import (
	"time"

	"github.com/mcoot/pointsbot/internal/model"
	"github.com/mcoot/pointsbot/internal/services/query"
)

// Player represents a player in API responses
type Player struct {
	ID          model.PlayerID `json:"id"`
	DiscordID   string         `json:"discordId"`
	Username    string         `json:"username"`
	Points      int            `json:"points"`
	LastUpdated time.Time      `json:"lastUpdated"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:          p.ID,
		DiscordID:   p.DiscordID,
		Username:    p.Username,
		Points:      p.Points,
		LastUpdated: p.LastUpdated,
	}
}

// PlayersFromModel converts a slice of players
func PlayersFromModel(players []*model.Player) []Player {
	out := make([]Player, len(players))
	for i, p := range players {
		out[i] = PlayerFromModel(p)
	}
	return out
}

// HistoryEntry represents a point history entry in API responses
type HistoryEntry struct {
	ID        model.HistoryEntryID `json:"id"`
	PlayerID  model.PlayerID       `json:"playerId"`
	Amount    int                  `json:"amount"`
	Reason    string               `json:"reason"`
	Timestamp time.Time            `json:"timestamp"`
	AddedBy   string               `json:"addedBy"`
}

// HistoryFromModel converts a slice of history entries
func HistoryFromModel(entries []*model.HistoryEntry) []HistoryEntry {
	out := make([]HistoryEntry, len(entries))
	for i, e := range entries {
		out[i] = HistoryEntry{
			ID:        e.ID,
			PlayerID:  e.PlayerID,
			Amount:    e.Amount,
			Reason:    e.Reason,
			Timestamp: e.Timestamp,
			AddedBy:   e.AddedBy,
		}
	}
	return out
}

// RankedPlayer is one row of a ranking page
type RankedPlayer struct {
	Rank   int    `json:"rank"`
	Marker string `json:"marker"`
	Player Player `json:"player"`
}

// Ranking is a page of the points ranking
type Ranking struct {
	Page         int            `json:"page"`
	TotalPages   int            `json:"totalPages"`
	TotalPlayers int            `json:"totalPlayers"`
	Entries      []RankedPlayer `json:"entries"`
}

// RankingFromQuery converts a query.RankingPage
func RankingFromQuery(p *query.RankingPage) Ranking {
	entries := make([]RankedPlayer, len(p.Entries))
	for i, e := range p.Entries {
		entries[i] = RankedPlayer{
			Rank:   e.Rank,
			Marker: e.Marker,
			Player: PlayerFromModel(e.Player),
		}
	}
	return Ranking{
		Page:         p.Page,
		TotalPages:   p.TotalPages,
		TotalPlayers: p.TotalPlayers,
		Entries:      entries,
	}
}

// Stats is a player's rank and history
type Stats struct {
	Player       Player         `json:"player"`
	Rank         int            `json:"rank"`
	TotalPlayers int            `json:"totalPlayers"`
	History      []HistoryEntry `json:"history"`
}

// StatsFromQuery converts query.Stats
func StatsFromQuery(s *query.Stats) Stats {
	return Stats{
		Player:       PlayerFromModel(s.Player),
		Rank:         s.Rank,
		TotalPlayers: s.TotalPlayers,
		History:      HistoryFromModel(s.History),
	}
}

// Health is the health check response
type Health struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}
