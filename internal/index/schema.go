package index

// TaskIndex is the set of index operations the service layer depends on.
type TaskIndex interface {
	UpsertDocument(d DocumentRow, tasks []TaskRow) error
	DeleteDocument(path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	ListDocuments() ([]DocumentRow, error)
	ListTasks(f TaskFilter) ([]TaskRow, int, error)
	SearchTasks(query string, limit int) ([]TaskRow, error)
	Close() error
}

// Verify *DB satisfies TaskIndex at compile time.
var _ TaskIndex = (*DB)(nil)
