package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/vsloader/core"
	"github.com/tmc/langchaingo/schema"
)

// DefaultBatchSize bounds the documents sent in one embed-and-upsert call.
const DefaultBatchSize = 500

// BatchProgress describes the state after a committed batch.
type BatchProgress struct {
	Batch  int // 1-based index of the batch just committed
	Total  int // Number of batches in this write
	Size   int // Documents in the batch just committed
	Stored int // Documents committed so far
}

// UpsertFunc embeds and writes one batch.
type UpsertFunc func(ctx context.Context, batch []schema.Document) error

// Settings holds batching behavior shared by all backends.
type Settings struct {
	BatchSize   int
	MaxAttempts int           // Attempts per batch; 1 disables retry
	RetryDelay  time.Duration // Base delay for exponential backoff
	OnBatch     func(BatchProgress)
	Logger      *slog.Logger
}

// Option configures Settings.
type Option func(*Settings) error

// DefaultSettings returns single-attempt batching at DefaultBatchSize.
func DefaultSettings() Settings {
	return Settings{
		BatchSize:   DefaultBatchSize,
		MaxAttempts: 1,
		RetryDelay:  time.Second,
		Logger:      slog.Default(),
	}
}

// NewSettings applies opts to DefaultSettings.
func NewSettings(opts ...Option) (Settings, error) {
	s := DefaultSettings()
	for _, opt := range opts {
		if err := opt(&s); err != nil {
			return Settings{}, err
		}
	}
	return s, nil
}

// WithBatchSize sets the number of documents per batch.
func WithBatchSize(size int) Option {
	return func(s *Settings) error {
		if size < 1 {
			return fmt.Errorf("%w: %d", ErrInvalidBatchSize, size)
		}
		s.BatchSize = size
		return nil
	}
}

// WithRetry enables per-batch retry with exponential backoff.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(s *Settings) error {
		if maxAttempts < 1 {
			return ErrInvalidMaxAttempts
		}
		s.MaxAttempts = maxAttempts
		s.RetryDelay = baseDelay
		return nil
	}
}

// WithOnBatch registers a callback invoked after each committed batch.
func WithOnBatch(fn func(BatchProgress)) Option {
	return func(s *Settings) error {
		s.OnBatch = fn
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Settings) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.Logger = logger
		return nil
	}
}

// BatchWriter splits documents into batches and writes them sequentially.
type BatchWriter struct {
	settings Settings
	logger   *slog.Logger
}

// NewBatchWriter creates a writer for the given settings.
func NewBatchWriter(settings Settings) *BatchWriter {
	if settings.BatchSize < 1 {
		settings.BatchSize = DefaultBatchSize
	}
	if settings.MaxAttempts < 1 {
		settings.MaxAttempts = 1
	}
	logger := settings.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchWriter{
		settings: settings,
		logger:   logger,
	}
}

// BatchSize returns the configured batch size.
func (w *BatchWriter) BatchSize() int {
	return w.settings.BatchSize
}

// Write calls upsert once per batch, in order, stopping at the first failure.
// Cancellation is checked between batches.
func (w *BatchWriter) Write(ctx context.Context, docs []schema.Document, upsert UpsertFunc) (StoreResult, error) {
	var result StoreResult
	size := w.settings.BatchSize
	total := (len(docs) + size - 1) / size

	for start := 0; start < len(docs); start += size {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		end := min(start+size, len(docs))
		batch := docs[start:end]
		batchNum := result.Batches + 1

		err := RetryWithBackoff(ctx, func(ctx context.Context) error {
			return upsert(ctx, batch)
		}, w.settings.MaxAttempts, w.settings.RetryDelay)
		if err != nil {
			w.logger.Error("batch write failed",
				"batch", batchNum, "batches", total, "size", len(batch),
				"committed", result.Documents, "err", err)
			return result, fmt.Errorf("%w: batch %d/%d (documents %d-%d): %w",
				core.ErrStoreWrite, batchNum, total, start, end-1, err)
		}

		result.Batches++
		result.Documents += len(batch)
		w.logger.Debug("batch stored", "batch", batchNum, "batches", total, "size", len(batch))

		progress := BatchProgress{
			Batch:  result.Batches,
			Total:  total,
			Size:   len(batch),
			Stored: result.Documents,
		}
		if w.settings.OnBatch != nil {
			w.settings.OnBatch(progress)
		}
		if observe := batchObserverFrom(ctx); observe != nil {
			observe(progress)
		}
	}

	return result, nil
}

type batchObserverKey struct{}

// ContextWithBatchObserver returns a context that makes any BatchWriter
// report committed batches to fn, in addition to Settings.OnBatch.
func ContextWithBatchObserver(ctx context.Context, fn func(BatchProgress)) context.Context {
	return context.WithValue(ctx, batchObserverKey{}, fn)
}

func batchObserverFrom(ctx context.Context) func(BatchProgress) {
	fn, _ := ctx.Value(batchObserverKey{}).(func(BatchProgress))
	return fn
}
