// Package opensearch stores documents in an OpenSearch k-NN index.
package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	opensearchgo "github.com/opensearch-project/opensearch-go"
	"github.com/opensearch-project/opensearch-go/opensearchapi"
	"github.com/poiesic/vsloader/core"
	"github.com/poiesic/vsloader/vectorstore"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
	lcopensearch "github.com/tmc/langchaingo/vectorstores/opensearch"
)

const vectorField = "contentVector"

// Client manages a single OpenSearch index.
type Client struct {
	index      string
	dimensions int
	client     *opensearchgo.Client
	store      lcopensearch.Store
	embedder   embeddings.Embedder
	writer     *vectorstore.BatchWriter
	logger     *slog.Logger
}

var _ vectorstore.Client = (*Client)(nil)

// New creates a client for index. dimensions sets the knn_vector size used
// when the index is created.
func New(client *opensearchgo.Client, index string, dimensions int, embedder embeddings.Embedder, opts ...vectorstore.Option) (*Client, error) {
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
	store, err := lcopensearch.New(client, lcopensearch.WithEmbedder(embedder))
	if err != nil {
		return nil, fmt.Errorf("failed to create opensearch store: %w", err)
	}
	return &Client{
		index:      index,
		dimensions: dimensions,
		client:     client,
		store:      store,
		embedder:   embedder,
		writer:     vectorstore.NewBatchWriter(settings),
		logger:     settings.Logger.With("component", "opensearch", "index", index),
	}, nil
}

// Name returns the index name.
func (c *Client) Name() string {
	return c.index
}

// Exists issues a HEAD request for the index.
func (c *Client) Exists(ctx context.Context) (bool, error) {
	res, err := opensearchapi.IndicesExistsRequest{Index: []string{c.index}}.Do(ctx, c.client)
	if err != nil {
		return false, fmt.Errorf("%w: %w", core.ErrStorageUnavailable, err)
	}
	defer closeBody(res)

	switch res.StatusCode {
	case 200:
		return true, nil
	case 404:
		return false, nil
	default:
		return false, fmt.Errorf("%w: unexpected status %d checking index %s",
			core.ErrStorageUnavailable, res.StatusCode, c.index)
	}
}

// Create creates the index with a knn_vector mapping sized to the embedder.
func (c *Client) Create(ctx context.Context) error {
	exists, err := c.Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	var opts []lcopensearch.IndexOption
	if c.dimensions > 0 {
		opts = append(opts, withDimension(c.dimensions))
	}
	res, err := c.store.CreateIndex(ctx, c.index, opts...)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", core.ErrStoreCreation, c.index, err)
	}
	defer closeBody(res)
	if res.IsError() {
		return fmt.Errorf("%w: %s: %s", core.ErrStoreCreation, c.index, res.String())
	}
	c.logger.Info("index created", "dimensions", c.dimensions)
	return nil
}

// Delete removes the index. Missing indexes and backend errors are logged
// and reported as deleted.
func (c *Client) Delete(ctx context.Context) (bool, error) {
	c.logger.Info("deleting index")
	res, err := c.store.DeleteIndex(ctx, c.index)
	if err != nil {
		c.logger.Error("index delete failed, nothing to delete", "err", err)
		return true, nil
	}
	defer closeBody(res)

	if res.IsError() {
		c.logger.Error("index not found, nothing to delete", "status", res.StatusCode)
		return true, nil
	}

	var ack struct {
		Acknowledged bool `json:"acknowledged"`
	}
	if err := json.NewDecoder(res.Body).Decode(&ack); err != nil {
		c.logger.Warn("unreadable delete response", "err", err)
		return true, nil
	}
	c.logger.Info("index deleted", "acknowledged", ack.Acknowledged)
	return ack.Acknowledged, nil
}

// StoreData embeds and indexes docs in batches, one bulk request per batch.
func (c *Client) StoreData(ctx context.Context, docs []schema.Document) (vectorstore.StoreResult, error) {
	return c.writer.Write(ctx, docs, c.bulkIndex)
}

// indexedDocument is the source layout read back by the k-NN search.
type indexedDocument struct {
	Content  string         `json:"content"`
	Vector   []float32      `json:"contentVector"`
	Metadata map[string]any `json:"metadata"`
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		Status int             `json:"status"`
		Error  json.RawMessage `json:"error"`
	} `json:"items"`
}

func (c *Client) bulkIndex(ctx context.Context, batch []schema.Document) error {
	texts := make([]string, len(batch))
	for i, doc := range batch {
		texts[i] = doc.PageContent
	}
	vectors, err := c.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding batch: %w", err)
	}
	if len(vectors) != len(batch) {
		return fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(batch))
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	for i, doc := range batch {
		action := map[string]any{"index": map[string]any{"_index": c.index, "_id": uuid.NewString()}}
		if err := enc.Encode(action); err != nil {
			return err
		}
		if err := enc.Encode(indexedDocument{Content: doc.PageContent, Vector: vectors[i], Metadata: doc.Metadata}); err != nil {
			return err
		}
	}

	res, err := opensearchapi.BulkRequest{Index: c.index, Body: &body}.Do(ctx, c.client)
	if err != nil {
		return err
	}
	defer closeBody(res)
	if res.IsError() {
		return fmt.Errorf("bulk request rejected: %s", res.String())
	}

	var out bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return fmt.Errorf("decoding bulk response: %w", err)
	}
	if !out.Errors {
		return nil
	}
	failed := 0
	var first json.RawMessage
	for _, item := range out.Items {
		for _, r := range item {
			if r.Status >= 300 {
				failed++
				if first == nil {
					first = r.Error
				}
			}
		}
	}
	return fmt.Errorf("bulk request: %d of %d documents rejected: %s", failed, len(batch), first)
}

// Search runs a k-NN query against the index.
func (c *Client) Search(ctx context.Context, query string, k int) ([]schema.Document, error) {
	return c.store.SimilaritySearch(ctx, query, k, vectorstores.WithNameSpace(c.index))
}

// Close is a no-op; the HTTP transport is shared.
func (c *Client) Close() error {
	return nil
}

func withDimension(dimensions int) lcopensearch.IndexOption {
	return func(indexMap *map[string]interface{}) {
		mappings, _ := (*indexMap)["mappings"].(map[string]interface{})
		properties, _ := mappings["properties"].(map[string]interface{})
		field, _ := properties[vectorField].(map[string]interface{})
		if field != nil {
			field["dimension"] = dimensions
		}
	}
}

func closeBody(res *opensearchapi.Response) {
	if res != nil && res.Body != nil {
		_, _ = io.Copy(io.Discard, res.Body)
		_ = res.Body.Close()
	}
}
