package chunker

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/poiesic/vsloader/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"
)

// words builds n distinct space-separated words.
func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("word%03d", i)
	}
	return strings.Join(parts, " ")
}

func TestNewTextChunker_Validation(t *testing.T) {
	tests := []struct {
		name    string
		params  core.ChunkParameters
		wantErr bool
	}{
		{name: "valid", params: core.ChunkParameters{ChunkSize: 100, Overlap: 10}},
		{name: "overlap equals size", params: core.ChunkParameters{ChunkSize: 10, Overlap: 10}, wantErr: true},
		{name: "overlap exceeds size", params: core.ChunkParameters{ChunkSize: 10, Overlap: 20}, wantErr: true},
		{name: "zero size", params: core.ChunkParameters{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewTextChunker(tt.params)
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrInvalidChunkParameters)
				assert.Nil(t, c)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.params, c.Params())
		})
	}

	t.Run("empty separators", func(t *testing.T) {
		_, err := NewTextChunker(core.ChunkParameters{ChunkSize: 10}, WithSeparators())
		assert.ErrorIs(t, err, core.ErrInvalidChunkParameters)
	})
}

func TestTextChunker_ShortDocument(t *testing.T) {
	c, err := NewTextChunker(core.ChunkParameters{ChunkSize: 50, Overlap: 5})
	require.NoError(t, err)

	docs := []schema.Document{
		{PageContent: "A\nHello world", Metadata: map[string]any{"id": int64(1)}},
		{PageContent: strings.Repeat("x", 50)},
		{PageContent: "  padded  "},
	}

	chunks, err := c.ChunkDocuments(context.Background(), docs)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, docs[0], chunks[0])
	assert.Equal(t, docs[1], chunks[1])
	assert.Equal(t, docs[2], chunks[2])
}

func TestTextChunker_SplitsLongDocument(t *testing.T) {
	c, err := NewTextChunker(core.ChunkParameters{ChunkSize: 40, Overlap: 10})
	require.NoError(t, err)

	content := words(30)
	parent := schema.Document{
		PageContent: content,
		Metadata:    map[string]any{"title": "Engineer", "skills": []string{"go"}},
	}

	chunks, err := c.ChunkDocuments(context.Background(), []schema.Document{parent})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	prevStart := -1
	for i, chunk := range chunks {
		assert.NotEmpty(t, chunk.PageContent, "chunk %d", i)
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk.PageContent), 40, "chunk %d", i)
		assert.Equal(t, parent.Metadata, chunk.Metadata)

		start := strings.Index(content[prevStart+1:], chunk.PageContent)
		require.GreaterOrEqual(t, start, 0, "chunk %d not found after previous start", i)
		prevStart = prevStart + 1 + start
	}

	// Words shared between neighbours show the overlap.
	first := strings.Fields(chunks[0].PageContent)
	second := strings.Fields(chunks[1].PageContent)
	assert.Equal(t, first[len(first)-1], second[0])
}

func TestTextChunker_MetadataIsCopied(t *testing.T) {
	c, err := NewTextChunker(core.ChunkParameters{ChunkSize: 20, Overlap: 0})
	require.NoError(t, err)

	parent := schema.Document{PageContent: words(10), Metadata: map[string]any{"skills": []string{"go", "sql"}}}
	chunks, err := c.ChunkDocuments(context.Background(), []schema.Document{parent})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	chunks[0].Metadata["skills"].([]string)[0] = "changed"
	chunks[0].Metadata["extra"] = true

	assert.Equal(t, []string{"go", "sql"}, parent.Metadata["skills"])
	assert.Equal(t, []string{"go", "sql"}, chunks[1].Metadata["skills"])
	assert.NotContains(t, chunks[1].Metadata, "extra")
}

func TestTextChunker_NilMetadataStaysNil(t *testing.T) {
	c, err := NewTextChunker(core.ChunkParameters{ChunkSize: 20, Overlap: 5})
	require.NoError(t, err)

	chunks, err := c.ChunkDocuments(context.Background(), []schema.Document{{PageContent: words(10)}})
	require.NoError(t, err)
	for _, chunk := range chunks {
		assert.Nil(t, chunk.Metadata)
	}
}

func TestTextChunker_PreservesDocumentOrder(t *testing.T) {
	c, err := NewTextChunker(core.ChunkParameters{ChunkSize: 30, Overlap: 0})
	require.NoError(t, err)

	docs := []schema.Document{
		{PageContent: "first " + words(8), Metadata: map[string]any{"doc": int64(0)}},
		{PageContent: "short", Metadata: map[string]any{"doc": int64(1)}},
		{PageContent: "third " + words(8), Metadata: map[string]any{"doc": int64(2)}},
	}

	chunks, err := c.ChunkDocuments(context.Background(), docs)
	require.NoError(t, err)

	last := int64(0)
	for _, chunk := range chunks {
		doc := chunk.Metadata["doc"].(int64)
		assert.GreaterOrEqual(t, doc, last)
		last = doc
	}
	assert.True(t, strings.HasPrefix(chunks[0].PageContent, "first"))
	assert.Equal(t, int64(2), chunks[len(chunks)-1].Metadata["doc"])
}

func TestTextChunker_HardTruncation(t *testing.T) {
	c, err := NewTextChunker(core.ChunkParameters{ChunkSize: 10, Overlap: 2})
	require.NoError(t, err)

	content := "abcdefghijklmnopqrstuvwxyz"
	chunks, err := c.ChunkDocuments(context.Background(), []schema.Document{{PageContent: content}})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 2)

	prevStart := -1
	for _, chunk := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk.PageContent), 10)
		start := strings.Index(content[prevStart+1:], chunk.PageContent)
		require.GreaterOrEqual(t, start, 0)
		prevStart = prevStart + 1 + start
	}
	assert.True(t, strings.HasSuffix(content, chunks[len(chunks)-1].PageContent))
}

func TestTextChunker_ChunkIndex(t *testing.T) {
	c, err := NewTextChunker(core.ChunkParameters{ChunkSize: 20, Overlap: 0}, WithChunkIndex())
	require.NoError(t, err)

	chunks, err := c.ChunkDocuments(context.Background(), []schema.Document{{PageContent: words(10)}})
	require.NoError(t, err)
	for i, chunk := range chunks {
		assert.Equal(t, int64(i), chunk.Metadata[ChunkIndexKey])
	}
}

func TestTextChunker_Cancelled(t *testing.T) {
	c, err := NewTextChunker(core.ChunkParameters{ChunkSize: 20, Overlap: 0})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.ChunkDocuments(ctx, []schema.Document{{PageContent: "x"}})
	assert.ErrorIs(t, err, context.Canceled)
}

// assertChunkBounds checks every chunk is non-empty, within size runes, and
// starts strictly after the previous chunk in text.
func assertChunkBounds(t *testing.T, text string, chunks []string, size int) {
	t.Helper()
	prevStart := -1
	for i, chunk := range chunks {
		require.NotEmpty(t, chunk, "chunk %d", i)
		require.LessOrEqual(t, utf8.RuneCountInString(chunk), size, "chunk %d of %q", i, text)
		start := strings.Index(text[prevStart+1:], chunk)
		require.GreaterOrEqual(t, start, 0, "chunk %d of %q does not start after chunk %d", i, text, i-1)
		prevStart += 1 + start
	}
}

func TestTextChunker_UnevenPieces(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		size    int
		overlap int
		want    []string
	}{
		{name: "overlap cannot fit next word", text: "a bb", size: 3, overlap: 1, want: []string{"a", "bb"}},
		{name: "overlap dropped when next word does not fit", text: "aa b cc", size: 4, overlap: 2, want: []string{"aa b", "cc"}},
		{name: "overlap carried", text: "aa b c dd", size: 6, overlap: 3, want: []string{"aa b c", "c dd"}},
		{name: "repeated spaces", text: "ab   cd   ef", size: 5, overlap: 2, want: []string{"ab", "cd", "ef"}},
		{name: "size one", text: "a b", size: 1, overlap: 0, want: []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewTextChunker(core.ChunkParameters{ChunkSize: tt.size, Overlap: tt.overlap})
			require.NoError(t, err)

			got, err := c.SplitText(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assertChunkBounds(t, tt.text, got, tt.size)
		})
	}
}

func TestTextChunker_RandomTextBounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	separators := []string{" ", "  ", "\n", "\n\n", " \n", "\t"}
	letters := []rune("abcdeé")

	randomText := func() string {
		var b strings.Builder
		for range 1 + rng.IntN(40) {
			for range 1 + rng.IntN(30) {
				b.WriteRune(letters[rng.IntN(len(letters))])
			}
			b.WriteString(separators[rng.IntN(len(separators))])
		}
		return b.String()
	}

	for i := range 2000 {
		size := 1 + rng.IntN(64)
		overlap := rng.IntN(size)
		c, err := NewTextChunker(core.ChunkParameters{ChunkSize: size, Overlap: overlap})
		require.NoError(t, err)

		text := randomText()
		chunks, err := c.SplitText(text)
		require.NoError(t, err, "case %d", i)
		require.NotEmpty(t, chunks, "case %d", i)
		assertChunkBounds(t, text, chunks, size)
	}
}
