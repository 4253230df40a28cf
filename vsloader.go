// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package vsloader loads tabular source files into vector stores.
//
// Service wires the configured loader, embedder, chunker, run ledger and
// vector store backend together and runs load jobs, one per index.
package vsloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	opensearchgo "github.com/opensearch-project/opensearch-go"
	"github.com/poiesic/vsloader/ai"
	"github.com/poiesic/vsloader/chunker"
	"github.com/poiesic/vsloader/config"
	"github.com/poiesic/vsloader/ingestion"
	"github.com/poiesic/vsloader/loader"
	"github.com/poiesic/vsloader/storage"
	"github.com/poiesic/vsloader/storage/badger"
	"github.com/poiesic/vsloader/vectorstore"
	"github.com/poiesic/vsloader/vectorstore/chroma"
	"github.com/poiesic/vsloader/vectorstore/local"
	"github.com/poiesic/vsloader/vectorstore/opensearch"
	"github.com/poiesic/vsloader/vectorstore/pgvector"
)

// ClientFactory creates a vector store client for one index.
type ClientFactory func(ctx context.Context, index string) (vectorstore.Client, error)

// Service holds the components shared by every load job: the loader,
// embedder, optional chunker, run ledger and store connections.
// It is safe for concurrent use by RunJobs.
type Service struct {
	cfg      *config.Config
	loader   loader.Loader
	embedder ai.Embedder
	chunker  chunker.Chunker
	factory  ClientFactory
	progress io.Writer

	ledger   *badger.Backend
	runs     storage.RunRepository
	store    *badger.Backend
	docs     storage.DocumentRepository
	mu       sync.Mutex
	osClient *opensearchgo.Client

	logger *slog.Logger
}

// Option configures a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	loader   loader.Loader
	embedder ai.Embedder
	factory  ClientFactory
	progress io.Writer
	logger   *slog.Logger
}

// WithLoader replaces the loader selected by LOADER_CONFIG.
func WithLoader(l loader.Loader) Option {
	return func(o *serviceOptions) {
		o.loader = l
	}
}

// WithEmbedder replaces the embedder selected by EMBEDDING_PROVIDER.
func WithEmbedder(e ai.Embedder) Option {
	return func(o *serviceOptions) {
		o.embedder = e
	}
}

// WithClientFactory replaces the vector store selected by VECTOR_STORE_CONFIG.
func WithClientFactory(f ClientFactory) Option {
	return func(o *serviceOptions) {
		o.factory = f
	}
}

// WithProgress reports store progress to w.
func WithProgress(w io.Writer) Option {
	return func(o *serviceOptions) {
		o.progress = w
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// NewService validates cfg and builds every shared component.
func NewService(ctx context.Context, cfg *config.Config, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &serviceOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	s := &Service{
		cfg:      cfg,
		loader:   options.loader,
		embedder: options.embedder,
		factory:  options.factory,
		progress: options.progress,
		logger:   options.logger.With("component", "service"),
	}

	var err error
	if s.loader == nil {
		s.loader, err = loader.New(ctx, cfg.LoaderSettings(), options.logger)
		if err != nil {
			return nil, err
		}
	}
	if s.embedder == nil && s.factory == nil {
		s.embedder, err = NewEmbedder(ctx, cfg.AIConfig())
		if err != nil {
			return nil, err
		}
	}
	if cfg.ChunkSize > 0 {
		s.chunker, err = chunker.NewTextChunker(cfg.ChunkParameters(), chunker.WithLogger(options.logger))
		if err != nil {
			return nil, err
		}
	}
	if cfg.LedgerPath != "" {
		if err := s.openLedger(cfg.LedgerPath); err != nil {
			return nil, err
		}
	}
	if s.factory == nil {
		s.factory = s.newClient
	}
	return s, nil
}

func (s *Service) openLedger(path string) error {
	backend, err := badger.OpenBackend(path, false)
	if err != nil {
		return fmt.Errorf("opening run ledger: %w", err)
	}
	runs, err := badger.NewRunRepository(backend)
	if err != nil {
		backend.Close()
		return fmt.Errorf("opening run ledger: %w", err)
	}
	s.ledger = backend
	s.runs = runs
	return nil
}

// Config returns the configuration the service was built from.
func (s *Service) Config() *config.Config {
	return s.cfg
}

// Runs returns the run ledger, or nil when LEDGER_PATH is unset.
func (s *Service) Runs() storage.RunRepository {
	return s.runs
}

// NewClient creates a client for index on the configured backend. The
// caller closes it.
func (s *Service) NewClient(ctx context.Context, index string) (vectorstore.Client, error) {
	return s.factory(ctx, index)
}

func (s *Service) newClient(ctx context.Context, index string) (vectorstore.Client, error) {
	opts := s.cfg.StoreOptions(s.logger)
	dims := s.cfg.Embedding.Dimensions

	switch s.cfg.VectorStore {
	case vectorstore.KindOpenSearch:
		client, err := s.openSearch(ctx)
		if err != nil {
			return nil, err
		}
		return opensearch.New(client, index, dims, s.embedder, opts...)
	case vectorstore.KindChroma:
		return chroma.Dial(s.cfg.ChromaURL, index, s.embedder, opts...)
	case vectorstore.KindPgvector:
		return pgvector.Dial(ctx, s.cfg.PgvectorURL, index, dims, s.embedder, opts...)
	case vectorstore.KindLocal:
		docs, err := s.localDocuments()
		if err != nil {
			return nil, err
		}
		return local.New(docs, index, dims, s.embedder, opts...)
	default:
		return nil, fmt.Errorf("%w: unknown vector store %q", config.ErrInvalidConfig, s.cfg.VectorStore)
	}
}

// openSearch dials the cluster once and shares the client across indexes.
func (s *Service) openSearch(ctx context.Context) (*opensearchgo.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.osClient != nil {
		return s.osClient, nil
	}
	client, err := opensearch.Dial(ctx, opensearch.Connection{
		URL:          s.cfg.OpenSearch.URL,
		Username:     s.cfg.OpenSearch.Username,
		Password:     s.cfg.OpenSearch.Password,
		EndpointName: s.cfg.OpenSearch.EndpointName,
		Region:       s.cfg.Region,
	}, nil)
	if err != nil {
		return nil, err
	}
	s.osClient = client
	return client, nil
}

// localDocuments opens the local store once; badger allows a single
// process per directory.
func (s *Service) localDocuments() (storage.DocumentRepository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.docs != nil {
		return s.docs, nil
	}
	backend, err := badger.OpenBackend(s.cfg.LocalStorePath, false)
	if err != nil {
		return nil, err
	}
	docs, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	s.store = backend
	s.docs = docs
	return docs, nil
}

// NewVectorstoreLoader creates a pipeline for client with the service's
// loader, chunker, ledger and processor configuration.
func (s *Service) NewVectorstoreLoader(client vectorstore.Client) (*ingestion.VectorstoreLoader, error) {
	opts := []ingestion.Option{ingestion.WithLogger(s.logger)}
	if s.chunker != nil {
		opts = append(opts, ingestion.WithChunker(s.chunker))
	}
	if s.runs != nil {
		opts = append(opts, ingestion.WithRunRepository(s.runs))
	}
	if s.progress != nil {
		opts = append(opts, ingestion.WithProgress(s.progress))
	}
	return ingestion.NewVectorstoreLoader(s.loader, client, s.cfg.ProcessorConfig(), opts...)
}

// Close releases the ledger and any shared store connections.
func (s *Service) Close() error {
	var errs []error
	if s.docs != nil {
		if err := s.docs.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error("error closing local store", "err", err)
			errs = append(errs, err)
		}
	}
	if s.runs != nil {
		if err := s.runs.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.ledger != nil {
		if err := s.ledger.Close(); err != nil {
			s.logger.Error("error closing run ledger", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
