package task

import (
	"strings"
	"time"
)

// DefaultHistoryDays is the look-back of the rolling completion graph.
const DefaultHistoryDays = 7

// DayCount is the number of tasks completed on one calendar day.
type DayCount struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

// History is a rolling per-day completion count, oldest day first and
// today last.
type History struct {
	Days  []DayCount `json:"days"`
	Today int        `json:"today"`
	Max   int        `json:"max"`
}

// CompletionHistory counts completed tasks with a done date on each day from
// now-days through now, in now's location.
func CompletionHistory(tasks []Task, now time.Time, days int) History {
	if days < 0 {
		days = 0
	}
	h := History{Days: make([]DayCount, 0, days+1)}
	for i := days; i >= 0; i-- {
		date := now.AddDate(0, 0, -i)
		n := 0
		for j := range tasks {
			if tasks[j].Completed && tasks[j].DoneOn(date) {
				n++
			}
		}
		day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
		h.Days = append(h.Days, DayCount{Date: day, Count: n})
		h.Max = max(h.Max, n)
	}
	if len(h.Days) > 0 {
		h.Today = h.Days[len(h.Days)-1].Count
	}
	return h
}

// Sparkline renders one block glyph per day, scaled to the busiest day.
func (h History) Sparkline() string {
	var b strings.Builder
	for _, d := range h.Days {
		ratio := 0.0
		if h.Max > 0 {
			ratio = float64(d.Count) / float64(h.Max)
		}
		b.WriteString(BlockCharacter(ratio))
	}
	return b.String()
}

// BlockCharacter maps a 0..1 ratio to a bar glyph.
func BlockCharacter(ratio float64) string {
	switch {
	case ratio > 0.9:
		return "█"
	case ratio > 0.7:
		return "▇"
	case ratio > 0.5:
		return "▆"
	case ratio > 0.4:
		return "▅"
	case ratio > 0.3:
		return "▃"
	case ratio > 0.2:
		return "▂"
	case ratio > 0.1:
		return "▁"
	}
	return " "
}
