package taskservice

import (
	"time"

	"github.com/starford/pit/internal/dates"
	"github.com/starford/pit/internal/index"
	"github.com/starford/pit/internal/task"
)

// TaskView is the client representation of a task. Line and Col locate the
// start of the task for jump-to.
type TaskView struct {
	Path        string            `json:"path"`
	Line        int               `json:"line"`
	Col         int               `json:"col"`
	Text        string            `json:"text"`
	Completed   bool              `json:"completed"`
	Priority    *int              `json:"priority"`
	Due         *time.Time        `json:"due,omitempty"`
	DueRelative string            `json:"due_relative,omitempty"`
	Done        *time.Time        `json:"done,omitempty"`
	Annotations []task.Annotation `json:"annotations,omitempty"`
}

// DocumentTasks is the fresh extraction of one document.
type DocumentTasks struct {
	Path     string     `json:"path"`
	Title    string     `json:"title"`
	Checksum string     `json:"checksum"`
	Tasks    []TaskView `json:"tasks"`
}

// Stats is a completion history with its rendered sparkline.
type Stats struct {
	Path      string       `json:"path,omitempty"`
	History   task.History `json:"history"`
	Sparkline string       `json:"sparkline"`
}

func newTaskView(path, buffer string, t task.Task, now time.Time) TaskView {
	v := TaskView{
		Path:        path,
		Line:        t.Position.Start.Line,
		Col:         t.Position.Start.Col,
		Text:        t.Segment(buffer),
		Completed:   t.Completed,
		Priority:    t.Priority,
		Due:         t.Due,
		Done:        t.Done,
		Annotations: t.Annotations,
	}
	if t.Due != nil {
		v.DueRelative = dates.FormatRelative(*t.Due, now)
	}
	return v
}

// viewFromRow renders an indexed row with the fields of t, its re-extraction.
func viewFromRow(r index.TaskRow, t task.Task, now time.Time) TaskView {
	v := TaskView{
		Path:        r.Path,
		Line:        r.Line,
		Col:         r.Col,
		Text:        r.Text,
		Completed:   t.Completed,
		Priority:    t.Priority,
		Due:         t.Due,
		Done:        t.Done,
		Annotations: t.Annotations,
	}
	if t.Due != nil {
		v.DueRelative = dates.FormatRelative(*t.Due, now)
	}
	return v
}
