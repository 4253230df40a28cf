// Package chunker splits documents into overlapping chunks of bounded size.
package chunker

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"unicode/utf8"

	"github.com/poiesic/vsloader/core"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
)

// ChunkIndexKey is the metadata key set by WithChunkIndex.
const ChunkIndexKey = "chunk_index"

// Chunker splits documents into smaller documents.
type Chunker interface {
	// ChunkDocuments returns chunks in input document order, then in order of
	// position within each document's text.
	ChunkDocuments(ctx context.Context, docs []schema.Document) ([]schema.Document, error)
}

// TextChunker splits on paragraph, line, word and finally character
// boundaries, measuring length in characters.
type TextChunker struct {
	params     core.ChunkParameters
	separators []string
	chunkIndex bool
	logger     *slog.Logger
}

var (
	_ Chunker                   = (*TextChunker)(nil)
	_ textsplitter.TextSplitter = (*TextChunker)(nil)
)

// Option configures a TextChunker.
type Option func(*TextChunker) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *TextChunker) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// WithChunkIndex records each chunk's position within its parent document
// under ChunkIndexKey.
func WithChunkIndex() Option {
	return func(c *TextChunker) error {
		c.chunkIndex = true
		return nil
	}
}

// WithSeparators replaces the default separator hierarchy.
// The last separator should be "" so any text can be split.
func WithSeparators(separators ...string) Option {
	return func(c *TextChunker) error {
		if len(separators) == 0 {
			return fmt.Errorf("%w: at least one separator is required", core.ErrInvalidChunkParameters)
		}
		c.separators = separators
		return nil
	}
}

// NewTextChunker creates a chunker. Overlap must be smaller than ChunkSize.
func NewTextChunker(params core.ChunkParameters, opts ...Option) (*TextChunker, error) {
	if err := core.ValidateChunkParameters(params); err != nil {
		return nil, err
	}

	c := &TextChunker{
		params:     params,
		separators: textsplitter.DefaultOptions().Separators,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.logger = c.logger.With("component", "chunker")

	return c, nil
}

// Params returns the chunk bounds in use.
func (c *TextChunker) Params() core.ChunkParameters {
	return c.params
}

// SplitText splits text into chunks of at most ChunkSize runes. Each chunk
// after the first starts later in text than the one before it.
func (c *TextChunker) SplitText(text string) ([]string, error) {
	if utf8.RuneCountInString(text) <= c.params.ChunkSize {
		return []string{text}, nil
	}
	return splitRecursive(text, c.separators, c.params.ChunkSize, c.params.Overlap), nil
}

// ChunkDocuments splits every document. Each chunk receives its own copy of
// the parent's metadata.
func (c *TextChunker) ChunkDocuments(ctx context.Context, docs []schema.Document) ([]schema.Document, error) {
	chunks := make([]schema.Document, 0, len(docs))

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		parts, err := c.SplitText(doc.PageContent)
		if err != nil {
			return nil, fmt.Errorf("splitting document: %w", err)
		}
		for i, part := range parts {
			chunks = append(chunks, c.chunk(doc, part, i))
		}
	}

	c.logger.Debug("chunked documents", "documents", len(docs), "chunks", len(chunks))
	return chunks, nil
}

func (c *TextChunker) chunk(parent schema.Document, text string, index int) schema.Document {
	metadata := copyMetadata(parent.Metadata)
	if c.chunkIndex {
		if metadata == nil {
			metadata = make(map[string]any, 1)
		}
		metadata[ChunkIndexKey] = int64(index)
	}
	return schema.Document{PageContent: text, Metadata: metadata}
}

// copyMetadata clones m, including string list values. Nil stays nil.
func copyMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := maps.Clone(m)
	for k, v := range out {
		if list, ok := v.([]string); ok {
			out[k] = slices.Clone(list)
		}
	}
	return out
}
