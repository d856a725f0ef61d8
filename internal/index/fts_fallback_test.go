//go:build !sqlite_fts5

package index

import (
	"testing"
	"time"
)

func TestLikeSearch(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{Path: "a.md", Checksum: "1", UpdatedAt: time.Now()}, []TaskRow{
		{Path: "a.md", Line: 0, Text: "- [ ] water the plants"},
		{Path: "a.md", Line: 1, Text: "- [ ] call the plumber"},
	})
	_ = db.UpsertDocument(DocumentRow{Path: "b.md", Checksum: "2", UpdatedAt: time.Now()}, []TaskRow{
		{Path: "b.md", Line: 4, Text: "- [x] buy plant food", Completed: true},
	})

	rows, err := db.SearchTasks("plant", 0)
	if err != nil {
		t.Fatalf("SearchTasks: %v", err)
	}
	if len(rows) != 2 || rows[0].Path != "a.md" || rows[1].Line != 4 {
		t.Errorf("rows = %+v", rows)
	}

	rows, _ = db.SearchTasks("plant", 1)
	if len(rows) != 1 {
		t.Errorf("limit not applied: %d rows", len(rows))
	}
}
