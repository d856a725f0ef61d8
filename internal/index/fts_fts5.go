//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS tasks_fts USING fts5(
			path UNINDEXED,
			line UNINDEXED,
			text,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsInsert(tx *sql.Tx, path string, line int, text string) error {
	_, err := tx.Exec(`INSERT INTO tasks_fts (path, line, text) VALUES (?, ?, ?)`, path, line, text)
	if err != nil {
		return fmt.Errorf("index: insert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, path string) {
	_, _ = tx.Exec(`DELETE FROM tasks_fts WHERE path = ?`, path)
}

// SearchTasks performs an FTS5 match over task text, best match first.
func (db *DB) SearchTasks(query string, limit int) ([]TaskRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT `+taskColumns+`
		FROM (SELECT path, line, rank FROM tasks_fts WHERE tasks_fts MATCH ?) f
		JOIN tasks t ON t.path = f.path AND t.line = CAST(f.line AS INTEGER)
		ORDER BY f.rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}
