// Package taskservice coordinates storage, the task index and the toggle
// latch for every front-end (HTTP, MCP, CLI).
package taskservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/starford/pit/internal/apperr"
	"github.com/starford/pit/internal/checksum"
	"github.com/starford/pit/internal/document"
	"github.com/starford/pit/internal/index"
	"github.com/starford/pit/internal/latch"
	"github.com/starford/pit/internal/storage"
	"github.com/starford/pit/internal/task"
)

// TaskQuery filters a vault-wide task listing. A non-empty Query switches to
// full-text search over task text.
type TaskQuery struct {
	Query     string
	Completed *bool
	Limit     int
	Offset    int
}

// RollOptions tune RollTask.
type RollOptions struct {
	// OpenOnly drops completed tasks before drawing.
	OpenOnly bool
}

// ToggleRequest flips the task on Line of the document at Path. A non-empty
// Checksum must match the document as read when the toggle is applied.
type ToggleRequest struct {
	Path     string `json:"path"`
	Line     int    `json:"line"`
	Checksum string `json:"checksum,omitempty"`
}

// ToggleResult reports an applied or queued toggle. Task and Checksum are
// only set when the toggle was applied.
type ToggleResult struct {
	Queued   bool      `json:"queued"`
	Task     *TaskView `json:"task,omitempty"`
	Checksum string    `json:"checksum,omitempty"`
}

// Service coordinates storage and index operations.
type Service struct {
	store storage.Provider
	db    index.TaskIndex
	ex    *task.Extractor
	latch *latch.Latch

	pub           Publisher
	logger        *slog.Logger
	now           func() time.Time
	rng           *rand.Rand
	settings      Settings
	settleOnWrite bool
}

// NewService creates a new task service.
func NewService(store storage.Provider, db index.TaskIndex, ex *task.Extractor, opts ...Option) *Service {
	s := &Service{
		store:  store,
		db:     db,
		ex:     ex,
		latch:  latch.New(),
		pub:    nopPublisher{},
		logger: slog.Default(),
		now:    time.Now,
		settings: Settings{
			DefaultPriority: ex.DefaultPriority,
			HistoryDays:     task.DefaultHistoryDays,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.settings.HistoryDays <= 0 {
		s.settings.HistoryDays = task.DefaultHistoryDays
	}
	return s
}

// Settings returns the task settings.
func (s *Service) Settings() Settings {
	return s.settings
}

// ListDocuments returns every indexed document.
func (s *Service) ListDocuments(_ context.Context) ([]index.DocumentRow, error) {
	docs, err := s.db.ListDocuments()
	if err != nil {
		return nil, err
	}
	return nonNilSlice(docs), nil
}

// ListTasks extracts the tasks of one document from its current content.
func (s *Service) ListTasks(_ context.Context, path string) (*DocumentTasks, error) {
	data, err := s.read(path)
	if err != nil {
		return nil, err
	}
	buffer := string(data)
	now := s.now()
	tasks := s.ex.Extract(buffer)
	views := make([]TaskView, len(tasks))
	for i, t := range tasks {
		views[i] = newTaskView(path, buffer, t, now)
	}
	return &DocumentTasks{
		Path:     path,
		Title:    document.Title(data),
		Checksum: checksum.Sum(data),
		Tasks:    views,
	}, nil
}

// SearchTasks lists indexed tasks across the vault.
func (s *Service) SearchTasks(_ context.Context, q TaskQuery) ([]TaskView, int, error) {
	if q.Query == "" {
		rows, total, err := s.db.ListTasks(index.TaskFilter{
			Completed:       q.Completed,
			Limit:           q.Limit,
			Offset:          q.Offset,
			DefaultPriority: s.ex.DefaultPriority,
		})
		if err != nil {
			return nil, 0, err
		}
		return s.rowViews(rows), total, nil
	}

	rows, err := s.db.SearchTasks(q.Query, q.Limit)
	if err != nil {
		return nil, 0, err
	}
	if q.Completed != nil {
		kept := rows[:0]
		for _, r := range rows {
			if r.Completed == *q.Completed {
				kept = append(kept, r)
			}
		}
		rows = kept
	}
	return s.rowViews(rows), len(rows), nil
}

// RollTask draws a task by weighted priority from one document, or from the
// whole index when path is empty. It returns apperr.ErrNoTask when nothing
// is eligible.
func (s *Service) RollTask(_ context.Context, path string, opts RollOptions) (*TaskView, error) {
	now := s.now()
	var (
		tasks []task.Task
		views []TaskView
	)

	if path != "" {
		data, err := s.read(path)
		if err != nil {
			return nil, err
		}
		buffer := string(data)
		for _, t := range s.ex.Extract(buffer) {
			tasks = append(tasks, t)
			views = append(views, newTaskView(path, buffer, t, now))
		}
	} else {
		rows, _, err := s.db.ListTasks(index.TaskFilter{})
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			t := s.reextract(r)
			tasks = append(tasks, t)
			views = append(views, viewFromRow(r, t, now))
		}
	}

	if opts.OpenOnly {
		n := 0
		for i := range tasks {
			if !tasks[i].Completed {
				tasks[n], views[n] = tasks[i], views[i]
				n++
			}
		}
		tasks, views = tasks[:n], views[:n]
	}

	picked := task.Roll(tasks, s.rng)
	if picked == nil {
		return nil, apperr.ErrNoTask
	}
	for i := range tasks {
		if &tasks[i] == picked {
			v := views[i]
			return &v, nil
		}
	}
	return nil, apperr.ErrNoTask
}

type toggleOutcome struct {
	res *ToggleResult
	err error
}

// ToggleTask flips the completion of the task on req.Line. While an earlier
// toggle is waiting for its write to settle the request is queued, replacing
// any request queued before it, and replayed once the document settles.
func (s *Service) ToggleTask(_ context.Context, req ToggleRequest) (*ToggleResult, error) {
	if req.Path == "" {
		return nil, fmt.Errorf("%w: path is required", apperr.ErrNotFound)
	}
	if req.Line < 0 {
		return nil, fmt.Errorf("%w: line %d", apperr.ErrOutOfRange, req.Line)
	}

	out := make(chan toggleOutcome, 1)
	ran := s.latch.Run(req.Path, func() {
		res, err := s.applyToggle(req)
		out <- toggleOutcome{res: res, err: err}
	})
	if !ran {
		s.logger.Debug("toggle queued", slog.String("path", req.Path), slog.Int("line", req.Line))
		return &ToggleResult{Queued: true}, nil
	}
	o := <-out
	return o.res, o.err
}

// Settled tells the service that the document at path has settled on disk.
// It releases the toggle latch if path is in flight and replays the queued
// toggle, if any.
func (s *Service) Settled(path string) {
	if s.latch.Settle(path) {
		s.logger.Debug("toggle settled", slog.String("path", path))
	}
}

// ToggleInFlight reports whether a toggle is waiting to settle.
func (s *Service) ToggleInFlight() bool {
	return s.latch.Busy()
}

func (s *Service) applyToggle(req ToggleRequest) (*ToggleResult, error) {
	written := false
	defer func() {
		if !written || s.settleOnWrite {
			s.latch.Settle(req.Path)
		}
	}()

	data, err := s.read(req.Path)
	if err != nil {
		s.logToggleError(req, err)
		return nil, err
	}
	if !checksum.Matches(data, req.Checksum) {
		s.logToggleError(req, apperr.ErrConflict)
		return nil, apperr.ErrConflict
	}

	buffer := string(data)
	t := task.TaskOnLine(s.ex.Extract(buffer), req.Line)
	if t == nil {
		err := fmt.Errorf("%w on %s line %d", apperr.ErrNoTask, req.Path, req.Line)
		s.logToggleError(req, err)
		return nil, err
	}

	now := s.now()
	segment := task.SetCompletion(t.Segment(buffer), t.Annotations, !t.Completed, now)
	updated, err := document.ReplaceRange(buffer, t.Position.Start, t.Position.End, segment)
	if err != nil {
		s.logToggleError(req, err)
		return nil, err
	}
	out := []byte(updated)
	if err := s.store.Write(req.Path, out); err != nil {
		s.logToggleError(req, err)
		return nil, fmt.Errorf("taskservice: write %s: %w", req.Path, err)
	}
	written = true

	if err := s.IndexFile(req.Path, out); err != nil {
		s.logger.Warn("toggle: reindex failed", slog.String("path", req.Path), slog.String("error", err.Error()))
	}

	res := &ToggleResult{Checksum: checksum.Sum(out)}
	if nt := task.TaskOnLine(s.ex.Extract(updated), t.Position.Start.Line); nt != nil {
		v := newTaskView(req.Path, updated, *nt, now)
		res.Task = &v
	}
	completed := !t.Completed
	s.pub.PublishTaskToggled(req.Path, t.Position.Start.Line, completed)
	s.logger.Info("task toggled",
		slog.String("path", req.Path),
		slog.Int("line", t.Position.Start.Line),
		slog.Bool("completed", completed))
	return res, nil
}

func (s *Service) logToggleError(req ToggleRequest, err error) {
	s.logger.Debug("toggle not applied",
		slog.String("path", req.Path),
		slog.Int("line", req.Line),
		slog.String("error", err.Error()))
}

// Stats returns the completion history of one document, or of the whole
// index when path is empty.
func (s *Service) Stats(_ context.Context, path string) (*Stats, error) {
	now := s.now()
	days := s.settings.HistoryDays

	var tasks []task.Task
	if path != "" {
		data, err := s.read(path)
		if err != nil {
			return nil, err
		}
		tasks = s.ex.Extract(string(data))
	} else {
		completed := true
		rows, _, err := s.db.ListTasks(index.TaskFilter{Completed: &completed})
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			tasks = append(tasks, s.reextract(r))
		}
	}

	h := task.CompletionHistory(tasks, now, days)
	return &Stats{Path: path, History: h, Sparkline: h.Sparkline()}, nil
}

// IndexFile extracts data and upserts it into the index.
// Exported so that sync and watcher callers can reuse it.
func (s *Service) IndexFile(path string, data []byte) error {
	return index.IndexFile(s.db, s.ex, path, data)
}

func (s *Service) read(path string) ([]byte, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", apperr.ErrNotFound, path)
		}
		return nil, err
	}
	return data, nil
}

// reextract rebuilds the task of an indexed row from its stored text, so
// relative dates and the default priority follow the current clock and
// settings rather than those in force when the row was indexed.
func (s *Service) reextract(r index.TaskRow) task.Task {
	tasks := s.ex.Extract(r.Text)
	if len(tasks) == 0 {
		return r.Task()
	}
	t := tasks[0]
	t.Position = r.Task().Position
	return t
}

func (s *Service) rowViews(rows []index.TaskRow) []TaskView {
	now := s.now()
	out := make([]TaskView, len(rows))
	for i, r := range rows {
		out[i] = viewFromRow(r, s.reextract(r), now)
	}
	return out
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
