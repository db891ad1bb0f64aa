package model

import "time"

// PlayerID is the store-assigned internal identifier of a player
type PlayerID int64

// Player is a tracked participant and their current points total
type Player struct {
	ID          PlayerID  `json:"id"`
	DiscordID   string    `json:"discordId"` // external platform user id, unique
	Username    string    `json:"username"`  // last known display name
	Points      int       `json:"points"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Mention returns the chat mention markup for the player
func (p *Player) Mention() string {
	return "<@" + p.DiscordID + ">"
}

// Clone returns a copy that shares no state with p
func (p *Player) Clone() *Player {
	c := *p
	return &c
}
