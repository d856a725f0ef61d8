package index

import (
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/starford/pit/internal/storage"
	"github.com/starford/pit/internal/task"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "pit-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testExtractor() *task.Extractor {
	ex := task.NewExtractor(nil)
	ex.Now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	ex.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return ex
}

func intPtr(v int) *int { return &v }

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents`).Scan(&count); err != nil {
		t.Fatalf("documents table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM tasks`).Scan(&count); err != nil {
		t.Fatalf("tasks table missing: %v", err)
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	row := DocumentRow{Path: "hello.md", Title: "Hello", Checksum: "abc123", UpdatedAt: time.Now()}
	if err := db.UpsertDocument(row, nil); err != nil {
		t.Fatalf("UpsertDocument: %v", err)
	}
	cs, err := db.GetChecksum("hello.md")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}

	cs, err = db.GetChecksum("missing.md")
	if err != nil || cs != "" {
		t.Errorf("missing checksum = %q, %v; want empty, nil", cs, err)
	}
}

func TestUpsertReplacesTasks(t *testing.T) {
	db := testDB(t)
	doc := DocumentRow{Path: "a.md", Checksum: "1", UpdatedAt: time.Now()}
	first := []TaskRow{
		{Path: "a.md", Line: 0, Text: "- [ ] one"},
		{Path: "a.md", Line: 1, Text: "- [ ] two"},
	}
	if err := db.UpsertDocument(doc, first); err != nil {
		t.Fatal(err)
	}
	doc.Checksum = "2"
	if err := db.UpsertDocument(doc, []TaskRow{{Path: "a.md", Line: 3, Text: "- [x] three", Completed: true}}); err != nil {
		t.Fatal(err)
	}

	rows, total, err := db.ListTasks(TaskFilter{Path: "a.md"})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("got %d rows (total %d), want 1", len(rows), total)
	}
	if rows[0].Line != 3 || !rows[0].Completed {
		t.Errorf("row = %+v", rows[0])
	}

	docs, err := db.ListDocuments()
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0].TaskCount != 1 {
		t.Errorf("documents = %+v, want one with task_count 1", docs)
	}
}

func TestListTasksOrderAndFilter(t *testing.T) {
	db := testDB(t)
	due := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	_ = db.UpsertDocument(DocumentRow{Path: "a.md", Checksum: "1", UpdatedAt: time.Now()}, []TaskRow{
		{Path: "a.md", Line: 0, Text: "- [ ] none"},
		{Path: "a.md", Line: 1, Text: "- [ ] low", Priority: intPtr(5)},
		{Path: "a.md", Line: 2, Text: "- [x] high", Priority: intPtr(1), Completed: true},
		{Path: "a.md", Line: 3, Text: "- [ ] due", Priority: intPtr(5), Due: &due},
	})

	rows, total, err := db.ListTasks(TaskFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if total != 4 {
		t.Fatalf("total = %d, want 4", total)
	}
	want := []int{2, 3, 1, 0}
	for i, r := range rows {
		if r.Line != want[i] {
			t.Errorf("rows[%d].Line = %d, want %d", i, r.Line, want[i])
		}
	}
	if rows[1].Due == nil || !rows[1].Due.Equal(due) {
		t.Errorf("due not round-tripped: %v", rows[1].Due)
	}

	open := false
	rows, total, err = db.ListTasks(TaskFilter{Completed: &open, Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 || len(rows) != 2 {
		t.Errorf("open tasks: got %d rows (total %d), want 2 of 3", len(rows), total)
	}
}

func TestListTasksRanksDefaultPriority(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{Path: "a.md", Checksum: "1", UpdatedAt: time.Now()}, []TaskRow{
		{Path: "a.md", Line: 0, Text: "- [ ] low", Priority: intPtr(5)},
		{Path: "a.md", Line: 1, Text: "- [ ] none"},
		{Path: "a.md", Line: 2, Text: "- [ ] high", Priority: intPtr(1)},
	})

	rows, _, err := db.ListTasks(TaskFilter{DefaultPriority: intPtr(3)})
	if err != nil {
		t.Fatal(err)
	}
	want := []int{2, 1, 0}
	for i, r := range rows {
		if r.Line != want[i] {
			t.Errorf("rows[%d].Line = %d, want %d", i, r.Line, want[i])
		}
	}
	if rows[1].Priority != nil {
		t.Errorf("default leaked into the row: %v", *rows[1].Priority)
	}
}

func TestDeleteDocument(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{Path: "del.md", Checksum: "x", UpdatedAt: time.Now()}, []TaskRow{{Path: "del.md", Text: "- [ ] a"}})

	if err := db.DeleteDocument("del.md"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	cs, _ := db.GetChecksum("del.md")
	if cs != "" {
		t.Error("checksum should be empty after delete")
	}
	_, total, _ := db.ListTasks(TaskFilter{Path: "del.md"})
	if total != 0 {
		t.Errorf("tasks left after delete: %d", total)
	}
}

func TestIndexFile(t *testing.T) {
	db := testDB(t)
	data := []byte("---\ntitle: Chores\n---\n- [ ] dishes %prio=2\n- [x] laundry %done=2024-04-30\n")
	if err := IndexFile(db, testExtractor(), "chores.md", data); err != nil {
		t.Fatalf("IndexFile: %v", err)
	}

	docs, _ := db.ListDocuments()
	if len(docs) != 1 || docs[0].Title != "Chores" || docs[0].TaskCount != 2 {
		t.Fatalf("documents = %+v", docs)
	}

	rows, _, _ := db.ListTasks(TaskFilter{Path: "chores.md"})
	if len(rows) != 2 {
		t.Fatalf("got %d tasks, want 2", len(rows))
	}
	first := rows[0]
	if first.Line != 3 || first.Priority == nil || *first.Priority != 2 {
		t.Errorf("first = %+v", first)
	}
	if first.Text != "- [ ] dishes %prio=2" {
		t.Errorf("text = %q", first.Text)
	}
	if !rows[1].Completed || rows[1].Done == nil {
		t.Errorf("second = %+v", rows[1])
	}
}

func TestIndexFileStoresPriorityAsWritten(t *testing.T) {
	db := testDB(t)
	ex := testExtractor()
	ex.DefaultPriority = intPtr(4)
	data := []byte("- [ ] plain\n- [ ] ranked %prio=2\n")
	if err := IndexFile(db, ex, "a.md", data); err != nil {
		t.Fatalf("IndexFile: %v", err)
	}
	if ex.DefaultPriority == nil || *ex.DefaultPriority != 4 {
		t.Fatal("IndexFile changed the caller's extractor")
	}

	rows, _, _ := db.ListTasks(TaskFilter{Path: "a.md"})
	if len(rows) != 2 {
		t.Fatalf("got %d tasks, want 2", len(rows))
	}
	if rows[0].Line != 1 || *rows[0].Priority != 2 {
		t.Errorf("first = %+v, want the ranked task", rows[0])
	}
	if rows[1].Priority != nil {
		t.Errorf("plain task stored priority %d, want nil", *rows[1].Priority)
	}
}

func TestSync(t *testing.T) {
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	db := testDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_ = os.WriteFile(vaultDir+"/a.md", []byte("- [ ] a\n"), 0o644)
	_ = db.UpsertDocument(DocumentRow{Path: "stale.md", Checksum: "old", UpdatedAt: time.Now()}, nil)

	if err := Sync(db, store, testExtractor(), logger); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	if cs, _ := db.GetChecksum("a.md"); cs == "" {
		t.Error("a.md not indexed")
	}
	if cs, _ := db.GetChecksum("stale.md"); cs != "" {
		t.Error("stale.md not removed")
	}
}
