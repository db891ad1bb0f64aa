package components

import (
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/mcoot/pointsbot/internal/model"
	"github.com/mcoot/pointsbot/internal/services/query"
)

// HistoryID is the element id of a player's history list
const HistoryID = "history"

// HistoryList renders a player's full history, newest first
func HistoryList(entries []*model.HistoryEntry, now time.Time, locale query.Locale) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<ul id="` + HistoryID + `" class="history">`)
		if len(entries) == 0 {
			b.WriteString(`<li class="empty">No history yet.</li>`)
		}
		for _, e := range entries {
			b.WriteString(`<li class="entry">`)
			b.WriteString(`<span class="amount">` + templ.EscapeString(formatAmount(e.Amount)) + `</span> `)
			reason := e.Reason
			if reason == "" {
				reason = "No reason"
			}
			b.WriteString(`<span class="reason">` + templ.EscapeString(reason) + `</span> `)
			b.WriteString(`<span class="by">by ` + templ.EscapeString(e.AddedBy) + `</span> `)
			b.WriteString(`<span class="when">` + templ.EscapeString(query.FormatRelative(now, e.Timestamp, locale)) + `</span>`)
			b.WriteString(`</li>`)
		}
		b.WriteString(`</ul>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func formatAmount(amount int) string {
	if amount > 0 {
		return "+" + strconv.Itoa(amount) + " PL"
	}
	return strconv.Itoa(amount) + " PL"
}
