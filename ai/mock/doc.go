// Package mock provides a test double for ai.Embedder.
//
// The mock lets tests run without an embedding service and gives
// controlled, deterministic vectors.
//
// # Usage in Tests
//
//	// Default behavior: deterministic unit vectors from a text hash
//	embedder := mock.NewMockEmbedder()
//	vectors, err := embedder.EmbedDocuments(ctx, []string{"a", "b"})
//
//	// Custom behavior injection
//	embedder.EmbedDocumentsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, errors.New("endpoint down")
//	}
//
//	// Check call counts
//	count := embedder.CallCount()
package mock
