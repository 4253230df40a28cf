package ingestion

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/vsloader/chunker"
	"github.com/poiesic/vsloader/core"
	"github.com/poiesic/vsloader/loader"
	"github.com/poiesic/vsloader/processor"
	"github.com/poiesic/vsloader/storage"
	"github.com/poiesic/vsloader/vectorstore"
	"github.com/tmc/langchaingo/schema"
)

// progressInterval is the number of stored documents between progress lines.
const progressInterval = 500

// Result summarizes one load.
type Result struct {
	Skipped   bool // FreshDataLoad found an existing index and did nothing
	State     core.RunState
	Documents int // Produced by the processor
	Chunks    int // Handed to the store; equals Documents without a chunker
	Stored    vectorstore.StoreResult
	RunID     string // Set when a run repository is configured
}

// VectorstoreLoader runs the load pipeline against one index.
type VectorstoreLoader struct {
	loader     loader.Loader
	client     vectorstore.Client
	chunker    chunker.Chunker
	procConfig core.ProcessorConfig
	procOpts   []processor.Option
	runs       storage.RunRepository
	progress   io.Writer
	logger     *slog.Logger
}

// Option configures a VectorstoreLoader.
type Option func(*VectorstoreLoader) error

// WithChunker splits documents before storing them. Without it documents
// are stored whole.
func WithChunker(c chunker.Chunker) Option {
	return func(v *VectorstoreLoader) error {
		v.chunker = c
		return nil
	}
}

// WithRunRepository records every load in a run ledger.
func WithRunRepository(runs storage.RunRepository) Option {
	return func(v *VectorstoreLoader) error {
		v.runs = runs
		return nil
	}
}

// WithProcessorOptions passes options to every processor the loader creates.
func WithProcessorOptions(opts ...processor.Option) Option {
	return func(v *VectorstoreLoader) error {
		v.procOpts = append(v.procOpts, opts...)
		return nil
	}
}

// WithProgress writes store progress to w.
func WithProgress(w io.Writer) Option {
	return func(v *VectorstoreLoader) error {
		v.progress = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(v *VectorstoreLoader) error {
		if logger == nil {
			logger = slog.Default()
		}
		v.logger = logger
		return nil
	}
}

// NewVectorstoreLoader creates a loader for the index behind client.
func NewVectorstoreLoader(l loader.Loader, client vectorstore.Client, cfg core.ProcessorConfig, opts ...Option) (*VectorstoreLoader, error) {
	if l == nil {
		return nil, ErrLoaderRequired
	}
	if client == nil {
		return nil, ErrClientRequired
	}
	if err := core.ValidateProcessorConfig(cfg); err != nil {
		return nil, err
	}

	v := &VectorstoreLoader{
		loader:     l,
		client:     client,
		procConfig: cfg,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}
	v.logger = v.logger.With("component", "vectorstore-loader", "index", client.Name())
	return v, nil
}

// DataStoreExists reports whether the index exists.
func (v *VectorstoreLoader) DataStoreExists(ctx context.Context) (bool, error) {
	return v.client.Exists(ctx)
}

// FreshDataLoad loads sourceFile unless the index already exists, in which
// case it returns a skipped result without writing anything.
func (v *VectorstoreLoader) FreshDataLoad(ctx context.Context, sourceFile string) (Result, error) {
	r := v.startRun(ctx, sourceFile, core.RunModeFresh)

	exists, err := v.client.Exists(ctx)
	if err != nil {
		return r.fail(ctx, err)
	}
	r.advance(core.RunStateChecked)

	if exists {
		v.logger.Info("index exists, skipping fresh load", "source", sourceFile)
		r.run.Skipped = true
		return r.finish(ctx), nil
	}
	return v.loadAndStore(ctx, r)
}

// RecreateDataLoad deletes the index if present and loads sourceFile into
// a new one. Existing data is not backed up.
func (v *VectorstoreLoader) RecreateDataLoad(ctx context.Context, sourceFile string) (Result, error) {
	r := v.startRun(ctx, sourceFile, core.RunModeRecreate)

	exists, err := v.client.Exists(ctx)
	if err != nil {
		return r.fail(ctx, err)
	}
	r.advance(core.RunStateChecked)

	if exists {
		if _, err := v.client.Delete(ctx); err != nil {
			return r.fail(ctx, err)
		}
	}
	return v.loadAndStore(ctx, r)
}

// loadAndStore runs the full pipeline, creating the index if it is absent.
func (v *VectorstoreLoader) loadAndStore(ctx context.Context, r *runRecorder) (Result, error) {
	exists, err := v.client.Exists(ctx)
	if err != nil {
		return r.fail(ctx, err)
	}
	if exists {
		r.advance(core.RunStateSkippedCreate)
	} else {
		if err := v.client.Create(ctx); err != nil {
			return r.fail(ctx, err)
		}
		r.advance(core.RunStateCreated)
	}

	raw, err := v.loader.Load(ctx, r.run.Source)
	if err != nil {
		return r.fail(ctx, err)
	}
	r.advance(core.RunStateLoaded)
	if v.runs != nil {
		r.fingerprint(raw)
	}

	proc, err := processor.New(r.run.Source, v.procConfig, v.procOpts...)
	if err != nil {
		return r.fail(ctx, err)
	}
	docs, err := proc.TransformToDocs(ctx, raw)
	if err != nil {
		return r.fail(ctx, err)
	}
	r.run.Documents = len(docs)
	r.advance(core.RunStateProcessed)

	if v.chunker != nil {
		docs, err = v.chunker.ChunkDocuments(ctx, docs)
		if err != nil {
			return r.fail(ctx, err)
		}
		r.advance(core.RunStateChunked)
	}
	r.run.Chunks = len(docs)

	stored, err := v.store(ctx, docs)
	r.run.BatchesStored = stored.Batches
	r.run.DocsStored = stored.Documents
	if err != nil {
		return r.fail(ctx, err)
	}
	r.advance(core.RunStateStored)

	v.logger.Info("load complete",
		"source", r.run.Source, "documents", r.run.Documents,
		"chunks", r.run.Chunks, "batches", stored.Batches)
	return r.finish(ctx), nil
}

func (v *VectorstoreLoader) store(ctx context.Context, docs []schema.Document) (vectorstore.StoreResult, error) {
	if v.progress == nil {
		return v.client.StoreData(ctx, docs)
	}

	tracker := vectorstore.NewProgressTracker(v.progress, len(docs), progressInterval)
	tracker.Start()
	defer tracker.Finish()
	return v.client.StoreData(vectorstore.ContextWithBatchObserver(ctx, tracker.BatchStored), docs)
}

func (v *VectorstoreLoader) startRun(ctx context.Context, sourceFile string, mode core.RunMode) *runRecorder {
	r := &runRecorder{
		run: &core.Run{
			Index:     v.client.Name(),
			Source:    sourceFile,
			Mode:      mode,
			State:     core.RunStateUninitialized,
			StartedAt: time.Now().UTC(),
		},
		runs:   v.runs,
		logger: v.logger,
	}
	r.save(ctx)
	return r
}
