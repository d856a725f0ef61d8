//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE on tasks.text.
	return nil
}

func ftsInsert(_ *sql.Tx, _ string, _ int, _ string) error {
	return nil
}

func ftsDelete(_ *sql.Tx, _ string) {}

// SearchTasks performs a LIKE-based search (fallback when FTS5 is not compiled in).
func (db *DB) SearchTasks(query string, limit int) ([]TaskRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT `+taskColumns+`
		FROM tasks t
		WHERE t.text LIKE ?
		ORDER BY t.path, t.line
		LIMIT ?
	`, "%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}
