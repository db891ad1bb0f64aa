package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mcoot/pointsbot/internal/model"
	"github.com/mcoot/pointsbot/internal/services/query"
)

// EmbedColor is the accent color of every embed reply
const EmbedColor = 0x5865F2

const botName = "D&D Points Bot"

func helpEmbed(prefix string) *Embed {
	line := func(usage, desc string) string {
		return fmt.Sprintf("`%s%s` - %s", prefix, usage, desc)
	}
	return &Embed{
		Title:       botName + " - Help",
		Description: fmt.Sprintf("Here are the available commands (prefix: `%s`):", prefix),
		Color:       EmbedColor,
		Fields: []EmbedField{
			{
				Name: "General Commands",
				Value: strings.Join([]string{
					line("help", "Show this help message"),
					line("rankings [page]", "Show the current rankings"),
					line("stats [@player]", "Show stats for yourself or another player"),
				}, "\n"),
			},
			{
				Name: "DM/Admin Commands",
				Value: strings.Join([]string{
					line("addpoints @player [amount] [reason]", "Add PL to a player"),
					line("resetpoints @player", "Reset a player's PL"),
					line("setpoints @player [amount]", "Set a player's PL to a specific value"),
				}, "\n"),
			},
			{
				Name: "Admin Commands",
				Value: strings.Join([]string{
					line("resetall", "Reset all players' PL"),
					line("setprefix [prefix]", "Change the command prefix"),
					line("setdmrole [@role]", "Set which role can use DM commands"),
				}, "\n"),
			},
		},
		Footer: botName,
	}
}

func rankingText(page *query.RankingPage, prefix string) string {
	if len(page.Entries) == 0 {
		return "No players have earned PL yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "D&D Campaign Rankings (Page %d/%d)\n\n", page.Page, page.TotalPages)
	for _, e := range page.Entries {
		fmt.Fprintf(&b, "%s %s - %d PL\n", e.Marker, e.Player.Mention(), e.Player.Points)
	}
	if page.TotalPages > 1 {
		fmt.Fprintf(&b, "\nUse `%srankings [page]` to view more pages.", prefix)
	}
	return b.String()
}

func statsEmbed(username string, stats *query.Stats, now time.Time, locale query.Locale) *Embed {
	embed := &Embed{
		Title: "Stats for " + username,
		Color: EmbedColor,
		Fields: []EmbedField{
			{Name: "Total PL", Value: strconv.Itoa(stats.Player.Points), Inline: true},
			{Name: "Current Rank", Value: fmt.Sprintf("%d of %d", stats.Rank, stats.TotalPlayers), Inline: true},
			{Name: "Last Updated", Value: locale.FormatDate(stats.Player.LastUpdated), Inline: true},
		},
	}
	if len(stats.History) > 0 {
		lines := make([]string, 0, len(stats.History))
		for _, e := range stats.History {
			lines = append(lines, historyLine(e, now, locale))
		}
		embed.Fields = append(embed.Fields, EmbedField{
			Name:  "PL History",
			Value: strings.Join(lines, "\n"),
		})
	}
	return embed
}

func historyLine(e *model.HistoryEntry, now time.Time, locale query.Locale) string {
	when := query.FormatRelative(now, e.Timestamp, locale)
	reason := e.Reason
	if reason == "" {
		reason = "No reason"
	}
	switch {
	case e.Amount > 0:
		return fmt.Sprintf("• +%d PL - %s (%s)", e.Amount, reason, when)
	case e.Amount < 0:
		return fmt.Sprintf("• %d PL - %s (%s)", e.Amount, reason, when)
	default:
		return fmt.Sprintf("• Reset to 0 PL (%s)", when)
	}
}
