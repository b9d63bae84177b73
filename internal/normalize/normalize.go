package normalize

import (
	"regexp"
	"strings"
	"time"
)

var reTag = regexp.MustCompile(`\[.*?\]`)

// dateLayouts are tried in order; day-first layouts win over ISO.
var dateLayouts = []string{
	"2/1/2006",
	"2-1-2006",
	"2006-1-2",
}

// StripTags removes bracketed annotations such as "[REVISAR]" and trims the rest.
// Returns nil when nothing is left.
func StripTags(value string) *string {
	cleaned := strings.TrimSpace(reTag.ReplaceAllString(value, ""))
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

// StripTagsPtr is StripTags for optional values.
func StripTagsPtr(value *string) *string {
	if value == nil {
		return nil
	}
	return StripTags(*value)
}

// NormalizeDate rewrites a day/month/year or year-month-day date as YYYY-MM-DD.
// Returns nil when the input is empty or matches no supported layout.
func NormalizeDate(value string) *string {
	cleaned := StripTags(value)
	if cleaned == nil {
		return nil
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, *cleaned)
		if err != nil {
			continue
		}
		out := t.Format("2006-01-02")
		return &out
	}
	return nil
}

// NormalizeDatePtr is NormalizeDate for optional values.
func NormalizeDatePtr(value *string) *string {
	if value == nil {
		return nil
	}
	return NormalizeDate(*value)
}
