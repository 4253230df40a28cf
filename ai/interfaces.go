package ai

import (
	"context"

	"github.com/tmc/langchaingo/embeddings"
)

// Embedder generates vector embeddings from text.
// Implementations must be thread-safe for concurrent use.
//
// The method set matches langchaingo's embeddings.Embedder so any Embedder can
// be handed directly to a langchaingo vector store.
type Embedder interface {
	// EmbedDocuments generates embeddings for multiple texts, in input order.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single search query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

var _ embeddings.Embedder = (Embedder)(nil)
