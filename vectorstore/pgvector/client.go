// Package pgvector stores documents in PostgreSQL with the pgvector extension.
package pgvector

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/poiesic/vsloader/core"
	"github.com/poiesic/vsloader/vectorstore"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
	lcpgvector "github.com/tmc/langchaingo/vectorstores/pgvector"
)

const collectionTable = lcpgvector.DefaultCollectionStoreTableName

// Conn is the connection surface needed by the client.
// Both *pgxpool.Pool and *pgx.Conn satisfy it.
type Conn interface {
	lcpgvector.PGXConn
}

// Client manages one pgvector collection.
type Client struct {
	collection string
	dimensions int
	conn       Conn
	embedder   embeddings.Embedder
	writer     *vectorstore.BatchWriter
	logger     *slog.Logger
	closeFn    func()

	mu    sync.Mutex
	store *lcpgvector.Store
}

var _ vectorstore.Client = (*Client)(nil)

// Dial opens a connection pool to url.
func Dial(ctx context.Context, url string, collection string, dimensions int, embedder embeddings.Embedder, opts ...vectorstore.Option) (*Client, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrStorageUnavailable, err)
	}
	c, err := New(pool, collection, dimensions, embedder, opts...)
	if err != nil {
		pool.Close()
		return nil, err
	}
	c.closeFn = pool.Close
	return c, nil
}

// New creates a client on an existing connection. The caller owns conn.
func New(conn Conn, collection string, dimensions int, embedder embeddings.Embedder, opts ...vectorstore.Option) (*Client, error) {
	if collection == "" {
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
		collection: collection,
		dimensions: dimensions,
		conn:       conn,
		embedder:   embedder,
		writer:     vectorstore.NewBatchWriter(settings),
		logger:     settings.Logger.With("component", "pgvector", "collection", collection),
		closeFn:    func() {},
	}, nil
}

// Name returns the collection name.
func (c *Client) Name() string {
	return c.collection
}

// Exists checks for the collection row. A missing collection table means no
// collection has ever been created.
func (c *Client) Exists(ctx context.Context) (bool, error) {
	var tableExists bool
	err := c.conn.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, collectionTable).Scan(&tableExists)
	if err != nil {
		return false, fmt.Errorf("%w: %w", core.ErrStorageUnavailable, err)
	}
	if !tableExists {
		return false, nil
	}

	var exists bool
	err = c.conn.QueryRow(ctx,
		fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE name = $1)`, collectionTable),
		c.collection).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: %w", core.ErrStorageUnavailable, err)
	}
	return exists, nil
}

// Create creates the extension, tables and collection row as needed.
func (c *Client) Create(ctx context.Context) error {
	if _, err := c.pgStore(ctx); err != nil {
		return fmt.Errorf("%w: %s: %w", core.ErrStoreCreation, c.collection, err)
	}
	c.logger.Info("collection ready", "dimensions", c.dimensions)
	return nil
}

// Delete removes the collection row; embeddings cascade. Failures are logged
// and reported as deleted.
func (c *Client) Delete(ctx context.Context) (bool, error) {
	c.logger.Info("deleting collection")

	c.mu.Lock()
	store := c.store
	c.store = nil
	c.mu.Unlock()

	err := pgx.BeginFunc(ctx, c.conn, func(tx pgx.Tx) error {
		if store != nil {
			return store.RemoveCollection(ctx, tx)
		}
		_, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE name = $1`, collectionTable), c.collection)
		return err
	})
	if err != nil {
		c.logger.Error("collection not found, nothing to delete", "err", err)
	}
	return true, nil
}

// StoreData embeds and inserts docs in batches.
func (c *Client) StoreData(ctx context.Context, docs []schema.Document) (vectorstore.StoreResult, error) {
	store, err := c.pgStore(ctx)
	if err != nil {
		return vectorstore.StoreResult{}, fmt.Errorf("%w: %w", core.ErrStoreWrite, err)
	}
	return c.writer.Write(ctx, docs, func(ctx context.Context, batch []schema.Document) error {
		_, err := store.AddDocuments(ctx, batch)
		return err
	})
}

// Search runs a similarity query in the collection.
func (c *Client) Search(ctx context.Context, query string, k int) ([]schema.Document, error) {
	store, err := c.pgStore(ctx)
	if err != nil {
		return nil, err
	}
	return store.SimilaritySearch(ctx, query, k)
}

// Close releases the pool when the client opened it.
func (c *Client) Close() error {
	c.closeFn()
	return nil
}

func (c *Client) pgStore(ctx context.Context) (*lcpgvector.Store, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store != nil {
		return c.store, nil
	}

	opts := []lcpgvector.Option{
		lcpgvector.WithConn(c.conn),
		lcpgvector.WithCollectionName(c.collection),
		lcpgvector.WithEmbedder(c.embedder),
	}
	if c.dimensions > 0 {
		opts = append(opts, lcpgvector.WithVectorDimensions(c.dimensions))
	}
	store, err := lcpgvector.New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	c.store = &store
	return c.store, nil
}
