// Package dates turns annotation values into concrete times and back.
package dates

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// ErrNoDate is returned when a value contains nothing recognisable as a date.
var ErrNoDate = errors.New("dates: no date found")

// isoLayout mirrors JavaScript's Date.prototype.toISOString output.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// Parser converts a free-form value into a time, relative to base.
type Parser interface {
	Parse(value string, base time.Time) (time.Time, error)
}

// Natural tries fixed layouts first and falls back to English
// natural-language rules ("tomorrow", "next friday", "in 3 days").
type Natural struct {
	layouts []string
	w       *when.Parser
}

// NewNatural returns a Natural parser with the English and common rule sets.
func NewNatural() *Natural {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &Natural{
		layouts: []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02", "2006/01/02"},
		w:       w,
	}
}

// Parse implements Parser. Date-only layouts resolve to midnight in base's
// location.
func (n *Natural) Parse(value string, base time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrNoDate
	}
	for _, layout := range n.layouts {
		if t, err := time.ParseInLocation(layout, value, base.Location()); err == nil {
			return t, nil
		}
	}
	r, err := n.w.Parse(value, base)
	if err != nil {
		return time.Time{}, fmt.Errorf("dates: parse %q: %w", value, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("dates: parse %q: %w", value, ErrNoDate)
	}
	return r.Time, nil
}

// FormatISO renders t in UTC with millisecond precision, the format written
// into %done annotations.
func FormatISO(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

// SameDay reports whether a and b share a calendar day in b's location.
func SameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
