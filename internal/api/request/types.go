package request

import "github.com/mcoot/pointsbot/internal/model"

// Required fields are pointers so that an absent field can be told apart
// from a zero value.

// CreatePlayerRequest is the request body for creating a player
type CreatePlayerRequest struct {
	DiscordID *string `json:"discordId"`
	Username  *string `json:"username"`
	Points    *int    `json:"points,omitempty"`
}

// AddPointsRequest is the request body for adding points
type AddPointsRequest struct {
	PlayerID *model.PlayerID `json:"playerId"`
	Amount   *int            `json:"amount"`
	Reason   *string         `json:"reason,omitempty"`
	AddedBy  *string         `json:"addedBy"`
}

// ResetPointsRequest is the request body for resetting a player's points
type ResetPointsRequest struct {
	PlayerID *model.PlayerID `json:"playerId"`
	AddedBy  *string         `json:"addedBy"`
}

// SetPointsRequest is the request body for setting a player's points
type SetPointsRequest struct {
	PlayerID *model.PlayerID `json:"playerId"`
	Points   *int            `json:"points"`
	AddedBy  *string         `json:"addedBy"`
}
