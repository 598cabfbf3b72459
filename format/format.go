// Package format holds the pure text helpers used by the public views:
// excerpts, read-time estimates and human dates.
package format

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
)

const (
	DefaultExcerptLength  = 150
	DefaultWordsPerMinute = 200
)

// tagPattern also drops an unterminated trailing tag.
var tagPattern = regexp.MustCompile(`<[^>]*>?`)

// StripTags removes anything that looks like an HTML tag.
func StripTags(content string) string {
	return tagPattern.ReplaceAllString(content, "")
}

// Excerpt strips tags, keeps the first maxLen characters and always appends
// "...", even when nothing was cut.
func Excerpt(content string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultExcerptLength
	}
	text := []rune(StripTags(content))
	if len(text) > maxLen {
		text = text[:maxLen]
	}
	return string(text) + "..."
}

// ReadTime estimates reading time as "<N> min read", rounding up and never
// reporting less than one minute.
func ReadTime(content string, wordsPerMinute int) string {
	if wordsPerMinute <= 0 {
		wordsPerMinute = DefaultWordsPerMinute
	}
	words := len(strings.Fields(StripTags(content)))
	minutes := int(math.Ceil(float64(words) / float64(wordsPerMinute)))
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%d min read", minutes)
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// Date renders an ISO timestamp as "January 2, 2006". Input it cannot parse
// is returned unchanged.
func Date(iso string) string {
	s := strings.TrimSpace(iso)
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return LongDate(t)
		}
	}
	return iso
}

// LongDate renders t as "January 2, 2006".
func LongDate(t time.Time) string {
	return t.Format("January 2, 2006")
}

// ShortDate renders t as "Jan 2, 2006" for admin tables.
func ShortDate(t time.Time) string {
	return t.Format("Jan 2, 2006")
}
