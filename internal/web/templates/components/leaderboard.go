package components

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/mcoot/pointsbot/internal/model"
	"github.com/mcoot/pointsbot/internal/services/query"
	"github.com/mcoot/pointsbot/internal/web/templates/layout"
)

// Element ids targeted by live updates
const (
	LeaderboardID    = "leaderboard"
	RankingsRegionID = "rankings"
)

// LeaderboardTable renders one ranking page as a table
func LeaderboardTable(page *query.RankingPage, now time.Time, locale query.Locale) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<table id="` + LeaderboardID + `" class="leaderboard">`)
		b.WriteString(`<thead><tr><th>#</th><th>Player</th><th>PL</th><th>Last Update</th></tr></thead><tbody>`)

		if len(page.Entries) == 0 {
			b.WriteString(`<tr class="empty"><td colspan="4">No players found.</td></tr>`)
		}
		for _, e := range page.Entries {
			b.WriteString(layout.StartTag("tr", templ.OrderedAttributes{
				{Key: "class", Value: "rank-" + strconv.Itoa(e.Rank)},
				{Key: "data-player-id", Value: int64(e.Player.ID)},
			}))
			b.WriteString(`<td class="marker">` + templ.EscapeString(e.Marker) + `</td>`)
			b.WriteString(`<td class="player">` + layout.StartTag("a", templ.OrderedAttributes{
				{Key: "href", Value: PlayerURL(e.Player.ID)},
			}) + `@` + templ.EscapeString(e.Player.Username) + `</a></td>`)
			b.WriteString(`<td class="points">` + strconv.Itoa(e.Player.Points) + `</td>`)
			b.WriteString(`<td class="updated">` + templ.EscapeString(query.FormatRelative(now, e.Player.LastUpdated, locale)) + `</td>`)
			b.WriteString(`</tr>`)
		}
		b.WriteString(`</tbody></table>`)

		if page.TotalPages > 1 {
			b.WriteString(`<nav class="pager">`)
			if page.Page > 1 {
				b.WriteString(pageLink("prev", page.Page-1) + `Previous</a>`)
			}
			fmt.Fprintf(&b, `<span class="page">Page %d of %d</span>`, page.Page, page.TotalPages)
			if page.Page < page.TotalPages {
				b.WriteString(pageLink("next", page.Page+1) + `Next</a>`)
			}
			b.WriteString(`</nav>`)
		}

		_, err := io.WriteString(w, b.String())
		return err
	})
}

// PlayerURL is the dashboard page for a player
func PlayerURL(id model.PlayerID) string {
	return layout.URL("/players/" + strconv.FormatInt(int64(id), 10))
}

func pageLink(class string, page int) string {
	return layout.StartTag("a", templ.OrderedAttributes{
		{Key: "class", Value: class},
		{Key: "href", Value: layout.URL("/?page=" + strconv.Itoa(page))},
	})
}

// ActivityItem is a history entry with its player's display name
type ActivityItem struct {
	Username string
	Entry    *model.HistoryEntry
}

// ActivityFeed renders recent ledger activity, newest first
func ActivityFeed(items []ActivityItem, now time.Time, locale query.Locale) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<ul id="activity" class="activity">`)
		if len(items) == 0 {
			b.WriteString(`<li class="empty">No recent activity.</li>`)
		}
		for _, item := range items {
			e := item.Entry
			b.WriteString(`<li class="activity-item">`)
			b.WriteString(`<span class="actor">` + templ.EscapeString(e.AddedBy) + `</span> `)
			b.WriteString(templ.EscapeString(describe(e)))
			b.WriteString(` for <span class="target">@` + templ.EscapeString(item.Username) + `</span>`)
			if e.Reason != "" {
				b.WriteString(`<p class="reason">Reason: ` + templ.EscapeString(e.Reason) + `</p>`)
			}
			b.WriteString(`<p class="when">` + templ.EscapeString(query.FormatRelative(now, e.Timestamp, locale)) + `</p>`)
			b.WriteString(`</li>`)
		}
		b.WriteString(`</ul>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func describe(e *model.HistoryEntry) string {
	switch {
	case e.Amount > 0:
		return "added " + strconv.Itoa(e.Amount) + " PL"
	case e.Amount < 0:
		return "removed " + strconv.Itoa(-e.Amount) + " PL"
	default:
		return "reset PL"
	}
}
