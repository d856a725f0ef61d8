package dates

import (
	"fmt"
	"math"
	"time"
)

type division struct {
	amount float64
	unit   string
}

var divisions = []division{
	{1, "second"},
	{60, "second"},
	{60, "minute"},
	{24, "hour"},
	{7, "day"},
	{4.34524, "week"},
	{12, "month"},
	{math.Inf(1), "year"},
}

// idioms replaces numeric phrasing for -1, 0 and +1 of a unit.
var idioms = map[string][3]string{
	"second": {"1 second ago", "now", "in 1 second"},
	"minute": {"1 minute ago", "this minute", "in 1 minute"},
	"hour":   {"1 hour ago", "this hour", "in 1 hour"},
	"day":    {"yesterday", "today", "tomorrow"},
	"week":   {"last week", "this week", "next week"},
	"month":  {"last month", "this month", "next month"},
	"year":   {"last year", "this year", "next year"},
}

// FormatRelative describes t relative to now in English, e.g. "tomorrow",
// "in 3 days" or "2 weeks ago".
func FormatRelative(t, now time.Time) string {
	duration := t.Sub(now).Seconds()
	i := 0
	for i < len(divisions)-1 && math.Abs(duration) > divisions[i].amount {
		duration /= divisions[i].amount
		i++
	}

	unit := divisions[i].unit
	// Half values round towards +Inf.
	n := int(math.Floor(duration + 0.5))
	if n >= -1 && n <= 1 {
		return idioms[unit][n+1]
	}
	if n > 0 {
		return fmt.Sprintf("in %d %ss", n, unit)
	}
	return fmt.Sprintf("%d %ss ago", -n, unit)
}
