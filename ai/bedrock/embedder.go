// Package bedrock provides an ai.Embedder backed by Amazon Bedrock embedding models.
package bedrock

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/poiesic/vsloader/ai"
	lcbedrock "github.com/tmc/langchaingo/embeddings/bedrock"
)

// Embedder implements ai.Embedder on top of langchaingo's Bedrock embeddings.
type Embedder struct {
	embedder *lcbedrock.Bedrock
	logger   *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

// NewEmbedder loads the default AWS credential chain for the configured region
// and creates a Bedrock embedder for the configured model.
func NewEmbedder(ctx context.Context, cfg *ai.Config) (ai.Embedder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, err
	}

	return NewEmbedderWithClient(bedrockruntime.NewFromConfig(awsCfg), cfg)
}

// NewEmbedderWithClient creates an embedder that uses an existing Bedrock runtime client.
func NewEmbedderWithClient(client *bedrockruntime.Client, cfg *ai.Config) (ai.Embedder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	embedder, err := lcbedrock.NewBedrock(
		lcbedrock.WithClient(client),
		lcbedrock.WithModel(cfg.Model),
		lcbedrock.WithBatchSize(cfg.BatchSize),
		lcbedrock.WithStripNewLines(true),
	)
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		logger:   slog.Default().With("component", "bedrock-embedder", "model", cfg.Model),
	}, nil
}

// EmbedQuery generates an embedding for a single query string.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vector, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		e.logger.Error("failed to generate embedding", "err", err)
		return nil, err
	}
	return vector, nil
}

// EmbedDocuments generates embeddings for multiple texts.
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}
	return vectors, nil
}
