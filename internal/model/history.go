package model

import "time"

// HistoryEntryID is the store-assigned identifier of a history entry
type HistoryEntryID int64

// Reasons recorded by the ledger for non-additive mutations
const (
	ReasonReset     = "Points reset"
	ReasonManualSet = "Points manually set"
)

// HistoryEntry is one immutable record in a player's points audit trail
type HistoryEntry struct {
	ID        HistoryEntryID `json:"id"`
	PlayerID  PlayerID       `json:"playerId"`
	Amount    int            `json:"amount"` // signed delta caused by the mutation
	Reason    string         `json:"reason"`
	Timestamp time.Time      `json:"timestamp"`
	AddedBy   string         `json:"addedBy"`
}

// SumAmounts totals the deltas of the given entries
func SumAmounts(entries []*HistoryEntry) int {
	total := 0
	for _, e := range entries {
		total += e.Amount
	}
	return total
}
