// Package ports defines interfaces for external dependencies.
// Usecases depend on these abstractions; adapters implement them.
package ports

import (
	"context"

	"github.com/0xcro3dile/linesearch-go/internal/domain/entities"
)

// RecordStore is the accumulated set: an append-only, in-memory list of records.
// Ingestion is its only writer; search only reads it.
type RecordStore interface {
	// Append adds records to the end of the set, keeping prior records.
	Append(ctx context.Context, records []entities.Record) error

	// All returns a snapshot of every record in insertion order.
	All(ctx context.Context) ([]entities.Record, error)

	// Len returns the number of records held.
	Len() int

	// Reset discards the whole set.
	Reset(ctx context.Context) error
}

// Fetcher retrieves a text body over HTTP.
type Fetcher interface {
	// Fetch performs a GET and returns the body. Non-2xx statuses are errors.
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// DocumentLoader reads local files into memory.
type DocumentLoader interface {
	// Load reads a document from the given path.
	Load(ctx context.Context, path string) (*entities.Document, error)

	// SupportedExtensions returns file extensions this loader accepts.
	SupportedExtensions() []string
}

// FileWatcher monitors a directory for changes.
type FileWatcher interface {
	// Watch starts monitoring the directory and emits events.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)

func (op FileOperation) String() string {
	switch op {
	case FileCreated:
		return "created"
	case FileModified:
		return "modified"
	case FileDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}
