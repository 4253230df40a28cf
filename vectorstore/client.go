package vectorstore

import (
	"context"

	"github.com/tmc/langchaingo/schema"
)

// Kind selects a Client implementation.
type Kind string

const (
	KindOpenSearch Kind = "opensearch"
	KindChroma     Kind = "chroma"
	KindPgvector   Kind = "pgvector"
	KindLocal      Kind = "local"
)

// Client manages one named vector index.
type Client interface {
	// Name returns the index or collection name.
	Name() string

	// Exists reports whether the index currently exists. No side effects.
	Exists(ctx context.Context) (bool, error)

	// Create provisions the index if it is absent. Backend rejection wraps
	// core.ErrStoreCreation.
	Create(ctx context.Context) error

	// Delete ensures the index is absent. It returns true when the index was
	// deleted or did not exist. Backend errors other than absence are logged
	// and swallowed.
	Delete(ctx context.Context) (bool, error)

	// StoreData embeds and writes docs in batches. The returned result counts
	// what was committed, including on failure. A failed batch wraps
	// core.ErrStoreWrite.
	StoreData(ctx context.Context, docs []schema.Document) (StoreResult, error)

	// Search returns up to k documents most similar to query.
	Search(ctx context.Context, query string, k int) ([]schema.Document, error)

	// Close releases backend connections.
	Close() error
}

// StoreResult counts committed writes.
type StoreResult struct {
	Batches   int
	Documents int
}
