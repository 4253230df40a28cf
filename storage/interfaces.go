package storage

import (
	"context"

	"github.com/poiesic/vsloader/core"
)

// RunRepository records ingestion runs.
// Implementations must be thread-safe and support concurrent access.
type RunRepository interface {
	// SaveRun creates or replaces a run.
	// Runs with an empty Id get a new one. StartedAt is set if zero.
	SaveRun(ctx context.Context, run *core.Run) error

	// GetRun retrieves a run by ID.
	// Returns ErrNotFound if the run doesn't exist.
	GetRun(ctx context.Context, id string) (*core.Run, error)

	// ListRuns returns up to limit runs, newest first.
	// An empty index lists runs for every index. limit <= 0 means no limit.
	ListRuns(ctx context.Context, index string, limit int) ([]*core.Run, error)

	// LatestRun returns the most recent run for index.
	// Returns ErrNotFound if the index has no runs.
	LatestRun(ctx context.Context, index string) (*core.Run, error)

	// Close releases resources held by the repository.
	Close() error
}

// DocumentRepository stores embedded documents in named indexes.
type DocumentRepository interface {
	// IndexExists reports whether index has been created.
	IndexExists(ctx context.Context, index string) (bool, error)

	// CreateIndex creates index for vectors of the given dimensions.
	// Creating an existing index is a no-op. dimensions <= 0 accepts the
	// length of the first stored vector.
	CreateIndex(ctx context.Context, index string, dimensions int) error

	// GetIndex returns index metadata.
	// Returns ErrIndexNotFound if the index doesn't exist.
	GetIndex(ctx context.Context, index string) (*core.IndexInfo, error)

	// DeleteIndex removes index and all of its documents.
	// Returns false if the index did not exist.
	DeleteIndex(ctx context.Context, index string) (bool, error)

	// AddDocuments stores documents in their Index, creating the index if
	// needed. IDs and InsertedAt are assigned. All documents are written in
	// one transaction.
	AddDocuments(ctx context.Context, docs ...*core.StoredDocument) ([]*core.StoredDocument, error)

	// CountDocuments returns the number of documents in index.
	CountDocuments(ctx context.Context, index string) (int, error)

	// FindSimilar finds documents in index similar to vector.
	// Returns documents with similarity >= minSimilarity, up to limit results,
	// ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, index string, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error)

	// Close releases resources held by the repository.
	Close() error
}
