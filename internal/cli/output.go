package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
)

var (
	positive = color.New(color.FgGreen).SprintFunc()
	negative = color.New(color.FgRed).SprintFunc()
	heading  = color.New(color.Bold).SprintFunc()
	faint    = color.New(color.Faint).SprintFunc()
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		o.printJSON(map[string]string{"message": msg})
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Player:
		o.printPlayer(v)
	case []Player:
		o.printPlayers(v)
	case []HistoryEntry:
		o.printHistory(v)
	case Ranking:
		o.printRanking(v)
	case Stats:
		o.printStats(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Player response type (matches API)
type Player struct {
	ID          int64     `json:"id"`
	DiscordID   string    `json:"discordId"`
	Username    string    `json:"username"`
	Points      int       `json:"points"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// HistoryEntry response type
type HistoryEntry struct {
	ID        int64     `json:"id"`
	PlayerID  int64     `json:"playerId"`
	Amount    int       `json:"amount"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
	AddedBy   string    `json:"addedBy"`
}

// RankedPlayer response type
type RankedPlayer struct {
	Rank   int    `json:"rank"`
	Marker string `json:"marker"`
	Player Player `json:"player"`
}

// Ranking response type
type Ranking struct {
	Page         int            `json:"page"`
	TotalPages   int            `json:"totalPages"`
	TotalPlayers int            `json:"totalPlayers"`
	Entries      []RankedPlayer `json:"entries"`
}

// Stats response type
type Stats struct {
	Player       Player         `json:"player"`
	Rank         int            `json:"rank"`
	TotalPlayers int            `json:"totalPlayers"`
	History      []HistoryEntry `json:"history"`
}

// HealthResult response type
type HealthResult struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
	// LatencyMs is measured by plctl, not reported by the server
	LatencyMs int64 `json:"latencyMs"`
}

func signed(amount int) string {
	switch {
	case amount > 0:
		return positive(fmt.Sprintf("+%d PL", amount))
	case amount < 0:
		return negative(fmt.Sprintf("%d PL", amount))
	default:
		return "0 PL"
	}
}

func (o *Output) printPlayer(p Player) {
	fmt.Fprintf(o.w, "Player: %s (id %d, discord %s)\n", heading(p.Username), p.ID, p.DiscordID)
	fmt.Fprintf(o.w, "Points: %d PL\n", p.Points)
	fmt.Fprintf(o.w, "Last Updated: %s\n", p.LastUpdated.Local().Format(time.DateTime))
}

func (o *Output) printPlayers(players []Player) {
	if len(players) == 0 {
		fmt.Fprintln(o.w, "No players.")
		return
	}
	for _, p := range players {
		fmt.Fprintf(o.w, "%4d  %-20s %6d PL  %s\n", p.ID, p.Username, p.Points, faint(p.DiscordID))
	}
}

func (o *Output) printHistory(entries []HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(o.w, "No history.")
		return
	}
	for _, e := range entries {
		reason := e.Reason
		if reason == "" {
			reason = faint("no reason")
		}
		fmt.Fprintf(o.w, "%s  player %d  %s  %s  by %s\n",
			e.Timestamp.Local().Format(time.DateTime), e.PlayerID, signed(e.Amount), reason, e.AddedBy)
	}
}

func (o *Output) printRanking(r Ranking) {
	fmt.Fprintln(o.w, heading(fmt.Sprintf("D&D Campaign Rankings (Page %d/%d)", r.Page, max(r.TotalPages, 1))))
	if len(r.Entries) == 0 {
		fmt.Fprintln(o.w, "No players have earned PL yet.")
		return
	}
	for _, e := range r.Entries {
		fmt.Fprintf(o.w, "%-4s %-20s %d PL\n", e.Marker, e.Player.Username, e.Player.Points)
	}
}

func (o *Output) printStats(s Stats) {
	fmt.Fprintln(o.w, heading("Stats for "+s.Player.Username))
	fmt.Fprintf(o.w, "Total PL: %d\n", s.Player.Points)
	fmt.Fprintf(o.w, "Current Rank: %d of %d\n", s.Rank, s.TotalPlayers)
	if len(s.History) == 0 {
		fmt.Fprintln(o.w, "PL History: none")
		return
	}
	fmt.Fprintln(o.w, "PL History:")
	for _, e := range s.History {
		line := "  • " + signed(e.Amount)
		if e.Reason != "" {
			line += " - " + e.Reason
		}
		fmt.Fprintln(o.w, strings.TrimRight(line, " ")+faint(" ("+e.Timestamp.Local().Format(time.DateOnly)+")"))
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	if h.Storage != "" {
		fmt.Fprintf(o.w, "Storage: %s\n", h.Storage)
	}
	fmt.Fprintln(o.w, faint(fmt.Sprintf("Round trip: %dms", h.LatencyMs)))
}
