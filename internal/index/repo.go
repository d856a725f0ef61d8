package index

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/starford/pit/internal/task"
)

// DocumentRow represents a row in the documents table.
type DocumentRow struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	TaskCount int       `json:"task_count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaskRow is the indexed snapshot of one task. Priority is nil unless the
// line carries a parseable %prio. Due and Done are resolved against the clock
// at index time; Text is kept so readers can re-extract the line.
type TaskRow struct {
	Path      string     `json:"path"`
	Line      int        `json:"line"`
	Col       int        `json:"col"`
	Start     int        `json:"start_offset"`
	End       int        `json:"end_offset"`
	Text      string     `json:"text"`
	Completed bool       `json:"completed"`
	Priority  *int       `json:"priority"`
	Due       *time.Time `json:"due"`
	Done      *time.Time `json:"done"`
}

// NewTaskRow captures t, extracted from buffer, for the document at path.
func NewTaskRow(path, buffer string, t task.Task) TaskRow {
	return TaskRow{
		Path:      path,
		Line:      t.Position.Start.Line,
		Col:       t.Position.Start.Col,
		Start:     t.Position.Start.Offset,
		End:       t.Position.End.Offset,
		Text:      t.Segment(buffer),
		Completed: t.Completed,
		Priority:  t.Priority,
		Due:       t.Due,
		Done:      t.Done,
	}
}

// Task rebuilds the typed fields of the row. Annotations are not indexed.
func (r TaskRow) Task() task.Task {
	return task.Task{
		Position: task.Position{
			Start: task.Point{Line: r.Line, Col: r.Col, Offset: r.Start},
			End:   task.Point{Line: r.Line, Col: r.Col + r.End - r.Start, Offset: r.End},
		},
		Completed: r.Completed,
		Priority:  r.Priority,
		Due:       r.Due,
		Done:      r.Done,
	}
}

// TaskFilter narrows ListTasks. Zero values mean "any".
type TaskFilter struct {
	Path      string
	Completed *bool
	Limit     int
	Offset    int
	// DefaultPriority ranks unprioritised tasks as if they carried it.
	DefaultPriority *int
}

const taskColumns = `t.path, t.line, t.col, t.start_offset, t.end_offset, t.text, t.completed, t.priority, t.due_unix, t.done_unix`

// UpsertDocument replaces a document row and all of its tasks in one transaction.
func (db *DB) UpsertDocument(d DocumentRow, tasks []TaskRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO documents (path, title, checksum, task_count, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title      = excluded.title,
			checksum   = excluded.checksum,
			task_count = excluded.task_count,
			updated_at = excluded.updated_at
	`, d.Path, d.Title, d.Checksum, len(tasks), d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM tasks WHERE path = ?`, d.Path); err != nil {
		return fmt.Errorf("index: clear tasks: %w", err)
	}
	ftsDelete(tx, d.Path)

	if len(tasks) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO tasks (path, line, col, start_offset, end_offset, text, completed, priority, due_unix, done_unix)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare task insert: %w", err)
		}
		defer stmt.Close()
		for _, t := range tasks {
			if _, err := stmt.Exec(d.Path, t.Line, t.Col, t.Start, t.End, t.Text, t.Completed,
				nullInt(t.Priority), unixOrNull(t.Due), unixOrNull(t.Done)); err != nil {
				return fmt.Errorf("index: insert task: %w", err)
			}
			if err := ftsInsert(tx, d.Path, t.Line, t.Text); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// DeleteDocument removes a document and its tasks.
func (db *DB) DeleteDocument(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM tasks WHERE path = ?`, path)
	_, _ = tx.Exec(`DELETE FROM documents WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a document, or "" if unknown.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM documents WHERE path = ?`, path).Scan(&cs)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns path → checksum for every indexed document.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// ListDocuments returns every indexed document ordered by path.
func (db *DB) ListDocuments() ([]DocumentRow, error) {
	rows, err := db.conn.Query(`SELECT path, title, checksum, task_count, updated_at FROM documents ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("index: list documents: %w", err)
	}
	defer rows.Close()
	var out []DocumentRow
	for rows.Next() {
		var d DocumentRow
		if err := rows.Scan(&d.Path, &d.Title, &d.Checksum, &d.TaskCount, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListTasks returns tasks matching f, most urgent first, plus the total
// number of matches ignoring pagination.
func (db *DB) ListTasks(f TaskFilter) ([]TaskRow, int, error) {
	where := `WHERE 1=1`
	var args []any
	if f.Path != "" {
		where += ` AND t.path = ?`
		args = append(args, f.Path)
	}
	if f.Completed != nil {
		where += ` AND t.completed = ?`
		args = append(args, *f.Completed)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM tasks t `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count tasks: %w", err)
	}

	q := `SELECT ` + taskColumns + ` FROM tasks t ` + where +
		` ORDER BY COALESCE(t.priority, ?) ASC NULLS LAST, t.due_unix ASC NULLS LAST, t.path, t.line`
	args = append(args, nullInt(f.DefaultPriority))
	if f.Limit > 0 {
		q += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, max(f.Offset, 0))
	}
	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list tasks: %w", err)
	}
	defer rows.Close()
	out, err := scanTasks(rows)
	return out, total, err
}

func scanTasks(rows *sql.Rows) ([]TaskRow, error) {
	var out []TaskRow
	for rows.Next() {
		var (
			r             TaskRow
			prio          sql.NullInt64
			due, doneUnix sql.NullInt64
		)
		if err := rows.Scan(&r.Path, &r.Line, &r.Col, &r.Start, &r.End, &r.Text, &r.Completed, &prio, &due, &doneUnix); err != nil {
			return nil, err
		}
		if prio.Valid {
			p := int(prio.Int64)
			r.Priority = &p
		}
		r.Due = timeOrNil(due)
		r.Done = timeOrNil(doneUnix)
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

// Dates are stored as unix seconds so range queries are zone-independent.
func unixOrNull(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func timeOrNil(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0)
	return &t
}
