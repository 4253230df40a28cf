package mock

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEmbedder_Default(t *testing.T) {
	ctx := context.Background()
	m := NewMockEmbedder()

	vectors, err := m.EmbedDocuments(ctx, []string{"alpha", "beta", "alpha"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Len(t, vectors[0], DefaultDimensions)
	assert.Equal(t, vectors[0], vectors[2])
	assert.NotEqual(t, vectors[0], vectors[1])

	query, err := m.EmbedQuery(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, vectors[0], query)

	assert.Equal(t, 2, m.CallCount())
	assert.Equal(t, 3, m.TextCount())
}

func TestMockEmbedder_UnitLength(t *testing.T) {
	v := DeterministicVector("some text", 16)

	var sum float32
	for _, x := range v {
		sum += x * x
	}
	assert.InDelta(t, 1.0, sum, 1e-4)
}

func TestMockEmbedder_Injected(t *testing.T) {
	m := NewMockEmbedder()
	boom := errors.New("boom")
	m.EmbedDocumentsFunc = func(context.Context, []string) ([][]float32, error) {
		return nil, boom
	}

	_, err := m.EmbedDocuments(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, boom)

	m.Reset()
	assert.Equal(t, 0, m.CallCount())
	_, err = m.EmbedDocuments(context.Background(), []string{"x"})
	assert.NoError(t, err)
}
