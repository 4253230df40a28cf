// Package processor converts tabular source files into documents.
//
// Each row becomes one document. Configured content columns are trimmed and
// joined with newlines to form the document text; configured metadata
// columns are copied with their types preserved (integers, floats and string
// lists) and everything else coerced to string.
package processor

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/poiesic/vsloader/core"
	"github.com/poiesic/vsloader/loader"
	"github.com/tmc/langchaingo/schema"
)

// Processor turns raw tabular data into documents.
type Processor interface {
	// TransformToDocs returns one document per source row, in row order.
	TransformToDocs(ctx context.Context, raw loader.RawData) ([]schema.Document, error)
}

// Option configures a processor.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
	}
}

// New selects a processor by the extension of fileName. Extensions other than
// .csv and .parquet return core.ErrUnsupportedFormat.
func New(fileName string, cfg core.ProcessorConfig, opts ...Option) (Processor, error) {
	if err := core.ValidateProcessorConfig(cfg); err != nil {
		return nil, err
	}

	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv":
		return NewCSVProcessor(cfg, o.logger), nil
	case ".parquet":
		return NewParquetProcessor(cfg, o.logger), nil
	default:
		return nil, fmt.Errorf("%w: %q (file %s)", core.ErrUnsupportedFormat, ext, fileName)
	}
}

// checkColumns reports the first configured column missing from available.
func checkColumns(cfg core.ProcessorConfig, available map[string]int) error {
	for _, col := range cfg.ContentColumns {
		if _, ok := available[col]; !ok {
			return fmt.Errorf("%w: content column %q not in table", core.ErrMalformedInput, col)
		}
	}
	for _, col := range cfg.MetadataColumns {
		if _, ok := available[col]; !ok {
			return fmt.Errorf("%w: metadata column %q not in table", core.ErrMalformedInput, col)
		}
	}
	return nil
}

// buildDocument assembles a document from one row of typed cells.
func buildDocument(cfg core.ProcessorConfig, row func(col string) cell) schema.Document {
	parts := make([]string, len(cfg.ContentColumns))
	for i, col := range cfg.ContentColumns {
		parts[i] = strings.TrimSpace(row(col).text())
	}

	var metadata map[string]any
	for _, col := range cfg.MetadataColumns {
		v, ok := row(col).metadata()
		if !ok {
			continue
		}
		if metadata == nil {
			metadata = make(map[string]any, len(cfg.MetadataColumns))
		}
		metadata[col] = v
	}

	return schema.Document{
		PageContent: strings.Join(parts, "\n"),
		Metadata:    metadata,
	}
}
