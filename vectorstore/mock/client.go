// Package mock provides an in-memory vectorstore.Client for tests.
package mock

import (
	"context"
	"sync"

	"github.com/poiesic/vsloader/vectorstore"
	"github.com/tmc/langchaingo/schema"
)

// MockClient is a test double for vectorstore.Client.
// It keeps stored documents in memory, batches through a real
// vectorstore.BatchWriter, and allows behavior injection via function fields.
type MockClient struct {
	// ExistsFunc overrides Exists if set.
	ExistsFunc func(ctx context.Context) (bool, error)
	// CreateFunc overrides Create if set.
	CreateFunc func(ctx context.Context) error
	// DeleteFunc overrides Delete if set.
	DeleteFunc func(ctx context.Context) (bool, error)
	// UpsertFunc is called for each batch before it is recorded. An error
	// fails the batch.
	UpsertFunc func(ctx context.Context, batch []schema.Document) error

	name   string
	writer *vectorstore.BatchWriter

	mu         sync.Mutex
	exists     bool
	docs       []schema.Document
	calls      map[string]int
	batchSizes []int
	closed     bool
}

var _ vectorstore.Client = (*MockClient)(nil)

// NewMockClient creates an absent index named name.
func NewMockClient(name string, opts ...vectorstore.Option) (*MockClient, error) {
	settings, err := vectorstore.NewSettings(opts...)
	if err != nil {
		return nil, err
	}
	return &MockClient{
		name:   name,
		writer: vectorstore.NewBatchWriter(settings),
		calls:  make(map[string]int),
	}, nil
}

// Name returns the index name.
func (m *MockClient) Name() string {
	return m.name
}

// Exists reports whether Create has run since the last Delete.
func (m *MockClient) Exists(ctx context.Context) (bool, error) {
	m.count("Exists")
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exists, nil
}

// Create marks the index as existing.
func (m *MockClient) Create(ctx context.Context) error {
	m.count("Create")
	if m.CreateFunc != nil {
		if err := m.CreateFunc(ctx); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exists = true
	return nil
}

// Delete drops all documents and marks the index absent.
func (m *MockClient) Delete(ctx context.Context) (bool, error) {
	m.count("Delete")
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exists = false
	m.docs = nil
	return true, nil
}

// StoreData records documents batch by batch.
func (m *MockClient) StoreData(ctx context.Context, docs []schema.Document) (vectorstore.StoreResult, error) {
	m.count("StoreData")
	return m.writer.Write(ctx, docs, func(ctx context.Context, batch []schema.Document) error {
		if m.UpsertFunc != nil {
			if err := m.UpsertFunc(ctx, batch); err != nil {
				return err
			}
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		m.exists = true
		m.docs = append(m.docs, batch...)
		m.batchSizes = append(m.batchSizes, len(batch))
		return nil
	})
}

// Search returns the first k stored documents.
func (m *MockClient) Search(ctx context.Context, query string, k int) ([]schema.Document, error) {
	m.count("Search")
	m.mu.Lock()
	defer m.mu.Unlock()
	if k > len(m.docs) {
		k = len(m.docs)
	}
	return append([]schema.Document(nil), m.docs[:k]...), nil
}

// Close marks the client closed.
func (m *MockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// SetExists forces the existence flag.
func (m *MockClient) SetExists(exists bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exists = exists
}

// Documents returns a copy of everything stored.
func (m *MockClient) Documents() []schema.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]schema.Document(nil), m.docs...)
}

// BatchSizes returns the size of each committed batch, in order.
func (m *MockClient) BatchSizes() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.batchSizes...)
}

// CallCount returns how many times method was called.
func (m *MockClient) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// Closed reports whether Close was called.
func (m *MockClient) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Reset clears counters, stored documents and injected behavior.
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = make(map[string]int)
	m.docs = nil
	m.batchSizes = nil
	m.exists = false
	m.ExistsFunc = nil
	m.CreateFunc = nil
	m.DeleteFunc = nil
	m.UpsertFunc = nil
}

func (m *MockClient) count(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[method]++
}
