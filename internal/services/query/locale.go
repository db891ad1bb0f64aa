package query

import (
	"time"

	"golang.org/x/text/language"
)

// Locale selects how calendar dates are written
type Locale struct {
	Tag    language.Tag
	layout string
}

var supportedLocales = []Locale{
	{Tag: language.AmericanEnglish, layout: "1/2/2006"},
	{Tag: language.BritishEnglish, layout: "02/01/2006"},
	{Tag: language.German, layout: "2.1.2006"},
	{Tag: language.French, layout: "02/01/2006"},
	{Tag: language.Spanish, layout: "2/1/2006"},
	{Tag: language.Japanese, layout: "2006/1/2"},
	{Tag: language.Swedish, layout: "2006-01-02"},
}

var localeMatcher = func() language.Matcher {
	tags := make([]language.Tag, len(supportedLocales))
	for i, l := range supportedLocales {
		tags[i] = l.Tag
	}
	return language.NewMatcher(tags)
}()

// DefaultLocale is US English
var DefaultLocale = supportedLocales[0]

// ParseLocale returns the supported locale closest to the BCP 47 tag s.
// Unparseable or unmatched input yields DefaultLocale.
func ParseLocale(s string) Locale {
	tag, err := language.Parse(s)
	if err != nil {
		return DefaultLocale
	}
	_, idx, confidence := localeMatcher.Match(tag)
	if confidence == language.No {
		return DefaultLocale
	}
	return supportedLocales[idx]
}

// IsZero reports whether l is the unset Locale
func (l Locale) IsZero() bool {
	return l.layout == ""
}

// FormatDate writes t as a short calendar date
func (l Locale) FormatDate(t time.Time) string {
	layout := l.layout
	if layout == "" {
		layout = DefaultLocale.layout
	}
	return t.Format(layout)
}
