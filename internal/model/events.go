package model

import "time"

// EventType identifies the type of ledger event
type EventType string

const (
	EventPlayerCreated EventType = "player_created"
	EventPointsAdded   EventType = "points_added"
	EventPointsReset   EventType = "points_reset"
	EventPointsSet     EventType = "points_set"
	EventAllReset      EventType = "all_reset"
)

// Event describes one completed ledger mutation
type Event struct {
	Type      EventType     `json:"type"`
	Timestamp time.Time     `json:"timestamp"`
	Player    *Player       `json:"player,omitempty"` // state after the mutation; nil for all_reset
	Entry     *HistoryEntry `json:"entry,omitempty"`
	Count     int           `json:"count,omitempty"` // players affected by all_reset
}
