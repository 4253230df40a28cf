// Package chroma stores documents in a Chroma collection.
package chroma

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	chromago "github.com/amikos-tech/chroma-go"
	"github.com/poiesic/vsloader/core"
	"github.com/poiesic/vsloader/vectorstore"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
	lcchroma "github.com/tmc/langchaingo/vectorstores/chroma"
)

// CollectionAdmin is the subset of the Chroma API used for existence
// checks and deletion.
type CollectionAdmin interface {
	ListCollections(ctx context.Context) ([]*chromago.Collection, error)
	DeleteCollection(ctx context.Context, collectionName string) (*chromago.Collection, error)
}

// StoreOpener returns a vector store bound to the named collection,
// creating the collection if it is absent.
type StoreOpener func(ctx context.Context, collection string) (vectorstores.VectorStore, error)

// Client manages one Chroma collection.
type Client struct {
	collection string
	admin      CollectionAdmin
	open       StoreOpener
	writer     *vectorstore.BatchWriter
	logger     *slog.Logger

	mu    sync.Mutex
	store vectorstores.VectorStore
}

var _ vectorstore.Client = (*Client)(nil)

// Dial connects to the Chroma server at url.
func Dial(url string, collection string, embedder embeddings.Embedder, opts ...vectorstore.Option) (*Client, error) {
	if embedder == nil {
		return nil, vectorstore.ErrEmbedderRequired
	}
	admin, err := chromago.NewClient(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrStorageUnavailable, err)
	}
	open := func(_ context.Context, name string) (vectorstores.VectorStore, error) {
		return lcchroma.New(
			lcchroma.WithChromaURL(url),
			lcchroma.WithEmbedder(embedder),
			lcchroma.WithNameSpace(name),
		)
	}
	return New(admin, open, collection, opts...)
}

// New creates a client from an admin API and a store opener.
func New(admin CollectionAdmin, open StoreOpener, collection string, opts ...vectorstore.Option) (*Client, error) {
	if collection == "" {
		return nil, vectorstore.ErrIndexNameRequired
	}
	settings, err := vectorstore.NewSettings(opts...)
	if err != nil {
		return nil, err
	}
	return &Client{
		collection: collection,
		admin:      admin,
		open:       open,
		writer:     vectorstore.NewBatchWriter(settings),
		logger:     settings.Logger.With("component", "chroma", "collection", collection),
	}, nil
}

// Name returns the collection name.
func (c *Client) Name() string {
	return c.collection
}

// Exists lists collections and looks for this one.
func (c *Client) Exists(ctx context.Context) (bool, error) {
	collections, err := c.admin.ListCollections(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: %w", core.ErrStorageUnavailable, err)
	}
	for _, col := range collections {
		if col != nil && col.Name == c.collection {
			return true, nil
		}
	}
	return false, nil
}

// Create opens the store, which creates the collection if needed.
func (c *Client) Create(ctx context.Context) error {
	if _, err := c.vectorStore(ctx); err != nil {
		return fmt.Errorf("%w: %s: %w", core.ErrStoreCreation, c.collection, err)
	}
	c.logger.Info("collection ready")
	return nil
}

// Delete removes the collection. Failures are logged and reported as deleted.
func (c *Client) Delete(ctx context.Context) (bool, error) {
	c.logger.Info("deleting collection")

	c.mu.Lock()
	c.store = nil
	c.mu.Unlock()

	if _, err := c.admin.DeleteCollection(ctx, c.collection); err != nil {
		c.logger.Error("collection not found, nothing to delete", "err", err)
	}
	return true, nil
}

// StoreData embeds and adds docs in batches.
func (c *Client) StoreData(ctx context.Context, docs []schema.Document) (vectorstore.StoreResult, error) {
	store, err := c.vectorStore(ctx)
	if err != nil {
		return vectorstore.StoreResult{}, fmt.Errorf("%w: %w", core.ErrStoreWrite, err)
	}
	return c.writer.Write(ctx, docs, func(ctx context.Context, batch []schema.Document) error {
		_, err := store.AddDocuments(ctx, batch)
		return err
	})
}

// Search queries the collection.
func (c *Client) Search(ctx context.Context, query string, k int) ([]schema.Document, error) {
	store, err := c.vectorStore(ctx)
	if err != nil {
		return nil, err
	}
	return store.SimilaritySearch(ctx, query, k)
}

// Close drops the cached store.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = nil
	return nil
}

func (c *Client) vectorStore(ctx context.Context) (vectorstores.VectorStore, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store != nil {
		return c.store, nil
	}
	store, err := c.open(ctx, c.collection)
	if err != nil {
		return nil, err
	}
	c.store = store
	return store, nil
}
