package index

import (
	"log/slog"
	"time"

	"github.com/starford/pit/internal/checksum"
	"github.com/starford/pit/internal/document"
	"github.com/starford/pit/internal/storage"
	"github.com/starford/pit/internal/task"
)

// Sync walks the vault and brings the index up to date:
//   - new/changed documents are re-extracted and upserted
//   - documents removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, ex *task.Extractor, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := IndexFile(db, ex, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteDocument(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// IndexFile extracts the tasks of data and upserts them under path.
// Priorities are stored as written; the default priority is applied by
// readers, so changing it needs no reindex.
func IndexFile(db TaskIndex, ex *task.Extractor, path string, data []byte) error {
	text := string(data)
	raw := *ex
	raw.DefaultPriority = nil
	tasks := raw.Extract(text)
	rows := make([]TaskRow, len(tasks))
	for i, t := range tasks {
		rows[i] = NewTaskRow(path, text, t)
	}
	return db.UpsertDocument(DocumentRow{
		Path:      path,
		Title:     document.Title(data),
		Checksum:  checksum.Sum(data),
		UpdatedAt: time.Now(),
	}, rows)
}
