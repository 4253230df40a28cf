// Package local stores documents in an embedded BadgerDB database.
// It needs no external services and suits development and tests.
package local

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/vsloader/core"
	"github.com/poiesic/vsloader/storage"
	"github.com/poiesic/vsloader/storage/badger"
	"github.com/poiesic/vsloader/vectorstore"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
)

// Client manages one index in a storage.DocumentRepository.
type Client struct {
	index      string
	dimensions int
	repo       storage.DocumentRepository
	embedder   embeddings.Embedder
	writer     *vectorstore.BatchWriter
	logger     *slog.Logger
	closeFn    func() error
}

var _ vectorstore.Client = (*Client)(nil)

// New creates a client for index on repo. The caller owns repo.
func New(repo storage.DocumentRepository, index string, dimensions int, embedder embeddings.Embedder, opts ...vectorstore.Option) (*Client, error) {
	if index == "" {
		return nil, vectorstore.ErrIndexNameRequired
	}
	if embedder == nil {
		return nil, vectorstore.ErrEmbedderRequired
	}
	settings, err := vectorstore.NewSettings(opts...)
	if err != nil {
		return nil, err
	}
	return &Client{
		index:      index,
		dimensions: dimensions,
		repo:       repo,
		embedder:   embedder,
		writer:     vectorstore.NewBatchWriter(settings),
		logger:     settings.Logger.With("component", "local-store", "index", index),
		closeFn:    func() error { return nil },
	}, nil
}

// Open creates a client backed by a BadgerDB database at path.
// Close releases the database.
func Open(path string, index string, dimensions int, embedder embeddings.Embedder, opts ...vectorstore.Option) (*Client, error) {
	backend, err := badger.OpenBackend(path, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrStorageUnavailable, err)
	}
	repo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("%w: %w", core.ErrStorageUnavailable, err)
	}
	c, err := New(repo, index, dimensions, embedder, opts...)
	if err != nil {
		repo.Close()
		backend.Close()
		return nil, err
	}
	c.closeFn = func() error {
		repo.Close()
		return backend.Close()
	}
	return c, nil
}

// Name returns the index name.
func (c *Client) Name() string {
	return c.index
}

// Exists reports whether the index has been created.
func (c *Client) Exists(ctx context.Context) (bool, error) {
	exists, err := c.repo.IndexExists(ctx, c.index)
	if err != nil {
		return false, fmt.Errorf("%w: %w", core.ErrStorageUnavailable, err)
	}
	return exists, nil
}

// Create creates the index.
func (c *Client) Create(ctx context.Context) error {
	if err := c.repo.CreateIndex(ctx, c.index, c.dimensions); err != nil {
		return fmt.Errorf("%w: %s: %w", core.ErrStoreCreation, c.index, err)
	}
	c.logger.Info("index created", "dimensions", c.dimensions)
	return nil
}

// Delete removes the index and its documents.
func (c *Client) Delete(ctx context.Context) (bool, error) {
	c.logger.Info("deleting index")
	deleted, err := c.repo.DeleteIndex(ctx, c.index)
	if err != nil {
		c.logger.Error("index delete failed", "err", err)
		return true, nil
	}
	if !deleted {
		c.logger.Info("index not found, nothing to delete")
	}
	return true, nil
}

// StoreData embeds each batch and stores it in one transaction.
func (c *Client) StoreData(ctx context.Context, docs []schema.Document) (vectorstore.StoreResult, error) {
	return c.writer.Write(ctx, docs, func(ctx context.Context, batch []schema.Document) error {
		texts := make([]string, len(batch))
		for i, doc := range batch {
			texts[i] = doc.PageContent
		}
		vectors, err := c.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return err
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(batch))
		}

		stored := make([]*core.StoredDocument, len(batch))
		for i, doc := range batch {
			stored[i] = &core.StoredDocument{
				Index:    c.index,
				Content:  doc.PageContent,
				Metadata: doc.Metadata,
				Vector:   vectors[i],
			}
		}
		_, err = c.repo.AddDocuments(ctx, stored...)
		return err
	})
}

// Search embeds query and returns the k most similar documents.
func (c *Client) Search(ctx context.Context, query string, k int) ([]schema.Document, error) {
	vector, err := c.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	results, err := c.repo.FindSimilar(ctx, c.index, vector, -1, k)
	if err != nil {
		return nil, err
	}

	docs := make([]schema.Document, len(results))
	for i, result := range results {
		docs[i] = schema.Document{
			PageContent: result.Document.Content,
			Metadata:    result.Document.Metadata,
			Score:       result.Score,
		}
	}
	return docs, nil
}

// Count returns the number of documents in the index.
func (c *Client) Count(ctx context.Context) (int, error) {
	return c.repo.CountDocuments(ctx, c.index)
}

// Close releases the database when the client opened it.
func (c *Client) Close() error {
	return c.closeFn()
}
