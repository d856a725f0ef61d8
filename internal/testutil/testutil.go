// Package testutil provides shared test helpers for setting up vaults and databases.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/pit/internal/index"
	"github.com/starford/pit/internal/storage"
	"github.com/starford/pit/internal/task"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "pit-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory holding files (path →
// content, slash-separated) and a storage.Provider over it.
func TestVault(t *testing.T, files map[string]string) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	for name, content := range files {
		abs := filepath.Join(vaultDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// Discard is a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Extractor returns a task extractor pinned to now with a silent logger.
func Extractor(now time.Time) *task.Extractor {
	ex := task.NewExtractor(nil)
	ex.Now = func() time.Time { return now }
	ex.Logger = Discard()
	return ex
}
