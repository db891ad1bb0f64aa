package pages

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/mcoot/pointsbot/internal/services/query"
	"github.com/mcoot/pointsbot/internal/web/templates/components"
	"github.com/mcoot/pointsbot/internal/web/templates/layout"
)

// LeaderboardData holds data for the leaderboard page
type LeaderboardData struct {
	layout.PageData
	Ranking  *query.RankingPage
	Activity []components.ActivityItem
	Now      time.Time
	Locale   query.Locale
}

// Leaderboard renders the rankings with recent activity
func Leaderboard(data LeaderboardData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		header := fmt.Sprintf(`<h1>D&amp;D Campaign Rankings</h1><p class="summary">%d players</p>`, data.Ranking.TotalPlayers)
		if _, err := io.WriteString(w, header); err != nil {
			return err
		}
		// live region replaced by out-of-band swaps from rankings-update events
		if _, err := io.WriteString(w, `<section sse-swap="rankings-update" hx-swap="none"></section><section class="rankings"><div id="`+components.RankingsRegionID+`">`); err != nil {
			return err
		}
		if err := components.LeaderboardTable(data.Ranking, data.Now, data.Locale).Render(ctx, w); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `</div></section><section class="recent"><h2>Recent Activity</h2>`); err != nil {
			return err
		}
		if err := components.ActivityFeed(data.Activity, data.Now, data.Locale).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</section>`)
		return err
	})
	return layout.Base(data.PageData, body)
}

// PlayerData holds data for a player's stats page
type PlayerData struct {
	layout.PageData
	Stats  *query.Stats
	Now    time.Time
	Locale query.Locale
}

// Player renders a player's standing and full history
func Player(data PlayerData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		s := data.Stats
		header := `<h1 class="player-name">@` + templ.EscapeString(s.Player.Username) + `</h1>` +
			`<dl class="stats">` +
			`<dt>Total PL</dt><dd class="total">` + strconv.Itoa(s.Player.Points) + `</dd>` +
			`<dt>Current Rank</dt><dd class="rank">` + strconv.Itoa(s.Rank) + ` of ` + strconv.Itoa(s.TotalPlayers) + `</dd>` +
			`<dt>Last Updated</dt><dd class="updated">` + templ.EscapeString(data.Locale.FormatDate(s.Player.LastUpdated)) + `</dd>` +
			`</dl><h2>PL History</h2>`
		if _, err := io.WriteString(w, header); err != nil {
			return err
		}
		refresh := layout.StartTag("div", templ.OrderedAttributes{
			{Key: "hx-get", Value: components.PlayerURL(s.Player.ID) + "/history"},
			{Key: "hx-trigger", Value: "sse:player-update"},
			{Key: "hx-target", Value: "#" + components.HistoryID},
			{Key: "hx-swap", Value: "outerHTML"},
		}) + `</div>`
		if _, err := io.WriteString(w, refresh); err != nil {
			return err
		}
		return components.HistoryList(s.History, data.Now, data.Locale).Render(ctx, w)
	})
	return layout.Base(data.PageData, body)
}

// NotFound renders the 404 page
func NotFound(data layout.PageData, message string) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<h1>Not Found</h1><p class="message">`+templ.EscapeString(message)+`</p><p><a href="/">Back to the leaderboard</a></p>`)
		return err
	})
	return layout.Base(data, body)
}

// Error renders a generic error page. reference, when set, is the request id
// to quote when reporting the problem.
func Error(data layout.PageData, reference string) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		html := `<h1>Something went wrong</h1><p class="message">Please try again later.</p>`
		if reference != "" {
			html += `<p class="reference">Reference: <code>` + templ.EscapeString(reference) + `</code></p>`
		}
		_, err := io.WriteString(w, html)
		return err
	})
	return layout.Base(data, body)
}
