// Package query holds read-only projections over the ledger used by chat
// replies, the HTTP API and the dashboard.
package query

import (
	"cmp"
	"context"
	"slices"
	"strconv"

	"github.com/mcoot/pointsbot/internal/model"
)

// PageSize is the number of players per rankings page
const PageSize = 10

// Ledger is the read side of the ledger service
type Ledger interface {
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	ListPlayers(ctx context.Context) ([]*model.Player, error)
	GetHistory(ctx context.Context, playerID *model.PlayerID) ([]*model.HistoryEntry, error)
}

// RankedPlayer is a player with its 1-based position in the full ranking
type RankedPlayer struct {
	Rank   int           `json:"rank"`
	Marker string        `json:"marker"`
	Player *model.Player `json:"player"`
}

// RankingPage is one page of the ranking
type RankingPage struct {
	Page         int            `json:"page"`
	TotalPages   int            `json:"totalPages"`
	TotalPlayers int            `json:"totalPlayers"`
	Entries      []RankedPlayer `json:"entries"`
}

// Stats is a player's standing and recent history
type Stats struct {
	Player       *model.Player         `json:"player"`
	Rank         int                   `json:"rank"`
	TotalPlayers int                   `json:"totalPlayers"`
	History      []*model.HistoryEntry `json:"history"`
}

// Service computes rankings and stats
type Service struct {
	ledger Ledger
}

// New creates a new query Service
func New(ledger Ledger) *Service {
	return &Service{ledger: ledger}
}

// SortByPoints sorts players by points descending, ties by ascending id
func SortByPoints(players []*model.Player) {
	slices.SortStableFunc(players, func(a, b *model.Player) int {
		if c := cmp.Compare(b.Points, a.Points); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// PositionMarker returns the medal for the top three and "N." otherwise
func PositionMarker(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return strconv.Itoa(rank) + "."
	}
}

// Ranking returns page of the ranking; pages below 1 are treated as 1.
// A page past the end has no entries.
func (s *Service) Ranking(ctx context.Context, page int) (*RankingPage, error) {
	players, err := s.ledger.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}
	SortByPoints(players)

	if page < 1 {
		page = 1
	}
	result := &RankingPage{
		Page:         page,
		TotalPages:   (len(players) + PageSize - 1) / PageSize,
		TotalPlayers: len(players),
		Entries:      []RankedPlayer{},
	}

	start := (page - 1) * PageSize
	if start >= len(players) {
		return result, nil
	}
	end := min(start+PageSize, len(players))
	for i, p := range players[start:end] {
		rank := start + i + 1
		result.Entries = append(result.Entries, RankedPlayer{
			Rank:   rank,
			Marker: PositionMarker(rank),
			Player: p,
		})
	}
	return result, nil
}

// PlayerRank returns the player's 1-based rank and the number of players
func (s *Service) PlayerRank(ctx context.Context, id model.PlayerID) (int, int, error) {
	players, err := s.ledger.ListPlayers(ctx)
	if err != nil {
		return 0, 0, err
	}
	SortByPoints(players)
	for i, p := range players {
		if p.ID == id {
			return i + 1, len(players), nil
		}
	}
	return 0, len(players), model.ErrPlayerNotFound
}

// PlayerStats returns rank and history newest first, truncated to limit
// entries when limit is positive
func (s *Service) PlayerStats(ctx context.Context, id model.PlayerID, limit int) (*Stats, error) {
	player, err := s.ledger.GetPlayer(ctx, id)
	if err != nil {
		return nil, err
	}
	rank, total, err := s.PlayerRank(ctx, id)
	if err != nil {
		return nil, err
	}
	history, err := s.ledger.GetHistory(ctx, &id)
	if err != nil {
		return nil, err
	}
	NewestFirst(history)
	if limit > 0 && len(history) > limit {
		history = history[:limit]
	}
	return &Stats{
		Player:       player,
		Rank:         rank,
		TotalPlayers: total,
		History:      history,
	}, nil
}

// RecentActivity returns the most recent history entries across all players
func (s *Service) RecentActivity(ctx context.Context, limit int) ([]*model.HistoryEntry, error) {
	history, err := s.ledger.GetHistory(ctx, nil)
	if err != nil {
		return nil, err
	}
	NewestFirst(history)
	if limit > 0 && len(history) > limit {
		history = history[:limit]
	}
	return history, nil
}

// NewestFirst sorts entries by timestamp descending, later ids first on ties
func NewestFirst(entries []*model.HistoryEntry) {
	slices.SortStableFunc(entries, func(a, b *model.HistoryEntry) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
}
