package vsloader

import (
	"context"
	"fmt"

	"github.com/poiesic/vsloader/ai"
	"github.com/poiesic/vsloader/ai/bedrock"
	"github.com/poiesic/vsloader/ai/openai"
	"github.com/poiesic/vsloader/ai/sagemaker"
)

// NewEmbedder creates the embedder selected by cfg.Provider.
func NewEmbedder(ctx context.Context, cfg *ai.Config) (ai.Embedder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Provider {
	case ai.ProviderOpenAI:
		return openai.NewEmbedder(cfg)
	case ai.ProviderBedrock:
		return bedrock.NewEmbedder(ctx, cfg)
	case ai.ProviderSageMaker:
		return sagemaker.NewEmbedder(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
