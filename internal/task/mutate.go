package task

import (
	"strings"
	"time"

	"github.com/starford/pit/internal/dates"
)

// FormatDone renders the %done token written when a task is completed.
func FormatDone(now time.Time) string {
	return `%` + KeyDone + `="` + dates.FormatISO(now) + `"`
}

// SetCompletion rewrites segment so its first checkbox reads [x] (value) or
// [ ] (!value) and its first %done annotation matches: replaced or appended
// with a timestamp of now when completing, cut out when un-completing.
// Annotation offsets are relative to segment. All other text is kept.
func SetCompletion(segment string, annotations []Annotation, value bool, now time.Time) string {
	glyph := "[ ]"
	if value {
		glyph = "[x]"
	}

	done, hasDone := find(annotations, KeyDone)

	if loc := checkRe.FindStringIndex(segment); loc != nil {
		segment = segment[:loc[0]] + glyph + segment[loc[1]:]
		// A multi-byte glyph shrinks to one byte; shift what follows.
		if delta := len(glyph) - (loc[1] - loc[0]); delta != 0 && hasDone && done.Offset >= loc[1] {
			done.Offset += delta
		}
	}

	if !hasDone {
		if value {
			return segment + " " + FormatDone(now)
		}
		return segment
	}

	before := strings.TrimRight(segment[:done.Offset], " \t")
	after := segment[done.End():]
	if value {
		return before + " " + FormatDone(now) + after
	}
	return strings.TrimSpace(before + after)
}

// Set returns buffer with this task's segment rewritten by SetCompletion and
// records value in Completed. The returned buffer invalidates every task
// extracted from the old one, t included.
func (t *Task) Set(buffer string, value bool, now time.Time) string {
	segment := SetCompletion(t.Segment(buffer), t.Annotations, value, now)
	t.Completed = value
	return buffer[:t.Position.Start.Offset] + segment + buffer[t.Position.End.Offset:]
}

// Toggle flips Completed and applies it through Set.
func (t *Task) Toggle(buffer string, now time.Time) string {
	return t.Set(buffer, !t.Completed, now)
}
