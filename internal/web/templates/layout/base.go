package layout

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// PageData holds the fields every page needs
type PageData struct {
	Title string
	// EventsURL is the SSE endpoint the page listens on; empty disables live updates
	EventsURL string
}

// Base wraps body in the common document shell
func Base(data PageData, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		title := "D&D Points"
		if data.Title != "" {
			title = data.Title + " - D&D Points"
		}

		if _, err := io.WriteString(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`+
			`<meta name="viewport" content="width=device-width, initial-scale=1">`+
			`<title>`+templ.EscapeString(title)+`</title>`+
			`<script src="https://unpkg.com/htmx.org@2.0.4"></script>`+
			`<script src="https://unpkg.com/htmx-ext-sse@2.2.2/sse.js"></script>`+
			`</head><body>`+
			`<nav><a href="/">Leaderboard</a></nav>`); err != nil {
			return err
		}

		open := `<main id="content">`
		if data.EventsURL != "" {
			open = StartTag("main", templ.OrderedAttributes{
				{Key: "id", Value: "content"},
				{Key: "hx-ext", Value: "sse"},
				{Key: "sse-connect", Value: URL(data.EventsURL)},
			})
		}
		if _, err := io.WriteString(w, open); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}
