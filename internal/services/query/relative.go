package query

import (
	"fmt"
	"time"
)

const day = 24 * time.Hour

// FormatRelative renders t relative to now in whole days: Today, Yesterday,
// N days ago, N weeks ago, then a calendar date from 30 days on.
func FormatRelative(now, t time.Time, locale Locale) string {
	diff := now.Sub(t)
	if diff < 0 {
		diff = -diff
	}
	days := int(diff / day)

	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	case days < 30:
		weeks := days / 7
		if weeks == 1 {
			return "1 week ago"
		}
		return fmt.Sprintf("%d weeks ago", weeks)
	default:
		return locale.FormatDate(t)
	}
}
