package layout

import (
	"context"
	"strings"

	"github.com/a-h/templ"
)

// StartTag renders <tag ...> with every attribute escaped by templ. Values
// must be plain strings, bools or numbers; templ skips named types such as
// model.PlayerID, so convert them first.
func StartTag(tag string, attrs templ.OrderedAttributes) string {
	var b strings.Builder
	b.WriteString("<" + tag)
	// strings.Builder writes cannot fail
	_ = templ.RenderAttributes(context.Background(), &b, attrs)
	b.WriteString(">")
	return b.String()
}

// URL sanitizes u for use in an href-like attribute. Non-web schemes are
// replaced with templ's failed-sanitization URL.
func URL(u string) string {
	return string(templ.URL(u))
}
