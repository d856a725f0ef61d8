// Package task parses checklist lines carrying %key=value annotations into
// tasks, rewrites their completion state and picks one at random by priority.
//
// A Task is a snapshot of one buffer version. Any edit to the buffer, even
// elsewhere, invalidates every Position taken from it; re-extract instead of
// patching.
package task

import (
	"time"

	"github.com/starford/pit/internal/dates"
)

// Annotation keys with typed meaning.
const (
	KeyPriority = "prio"
	KeyDue      = "due"
	KeyDone     = "done"
)

// Task is one checklist line.
//
// Completed and Done are independent: a task can carry a done date while
// unchecked (and the reverse) until it is toggled through Set.
type Task struct {
	Position    Position     `json:"position"`
	Completed   bool         `json:"completed"`
	Annotations []Annotation `json:"annotations"`
	Priority    *int         `json:"priority"`
	Due         *time.Time   `json:"due"`
	Done        *time.Time   `json:"done"`
}

// Segment returns the raw text the task spans in buffer.
func (t *Task) Segment(buffer string) string {
	return buffer[t.Position.Start.Offset:t.Position.End.Offset]
}

// Line returns the zero-based line the task starts on.
func (t *Task) Line() int {
	return t.Position.Start.Line
}

// DoneOn reports whether the done date falls on the calendar day of date,
// in date's location.
func (t *Task) DoneOn(date time.Time) bool {
	if t.Done == nil {
		return false
	}
	return dates.SameDay(*t.Done, date)
}

// TaskOnLine returns the first task, in document order, whose range covers
// line, or nil.
func TaskOnLine(tasks []Task, line int) *Task {
	for i := range tasks {
		p := tasks[i].Position
		if p.Start.Line <= line && line <= p.End.Line {
			return &tasks[i]
		}
	}
	return nil
}
