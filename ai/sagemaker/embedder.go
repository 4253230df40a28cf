// Package sagemaker provides an ai.Embedder backed by a SageMaker inference
// endpoint hosting a sentence-similarity model.
//
// Requests carry {"text_inputs": [...], "mode": "embedding"} and responses
// carry {"embedding": [[...], ...]}, one vector per input text.
package sagemaker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sagemakerruntime"
	"github.com/poiesic/vsloader/ai"
	"github.com/tmc/langchaingo/embeddings"
)

const contentType = "application/json"

// ErrVectorCountMismatch is returned when the endpoint returns a different
// number of vectors than texts sent.
var ErrVectorCountMismatch = errors.New("sagemaker: vector count does not match input count")

// EndpointInvoker is the subset of the SageMaker runtime client used here.
type EndpointInvoker interface {
	InvokeEndpoint(ctx context.Context, params *sagemakerruntime.InvokeEndpointInput,
		optFns ...func(*sagemakerruntime.Options)) (*sagemakerruntime.InvokeEndpointOutput, error)
}

var _ EndpointInvoker = (*sagemakerruntime.Client)(nil)

type request struct {
	TextInputs []string `json:"text_inputs"`
	Mode       string   `json:"mode"`
}

type response struct {
	Embedding [][]float32 `json:"embedding"`
}

// Embedder implements ai.Embedder by invoking a SageMaker endpoint.
type Embedder struct {
	client   EndpointInvoker
	endpoint string
	embedder embeddings.Embedder
	logger   *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

// NewEmbedder loads the default AWS credential chain for the configured region
// and creates an embedder for the configured endpoint.
func NewEmbedder(ctx context.Context, cfg *ai.Config) (ai.Embedder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, err
	}

	return NewEmbedderWithClient(sagemakerruntime.NewFromConfig(awsCfg), cfg)
}

// NewEmbedderWithClient creates an embedder that uses the given invoker.
func NewEmbedderWithClient(client EndpointInvoker, cfg *ai.Config) (*Embedder, error) {
	if client == nil {
		return nil, errors.New("sagemaker: client required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Embedder{
		client:   client,
		endpoint: cfg.EndpointName,
		logger:   slog.Default().With("component", "sagemaker-embedder", "endpoint", cfg.EndpointName),
	}

	embedder, err := embeddings.NewEmbedder(embeddings.EmbedderClientFunc(e.invoke),
		embeddings.WithBatchSize(cfg.BatchSize),
		embeddings.WithStripNewLines(true),
	)
	if err != nil {
		return nil, err
	}
	e.embedder = embedder

	return e, nil
}

// EmbedQuery generates an embedding for a single query string.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.embedder.EmbedQuery(ctx, text)
}

// EmbedDocuments generates embeddings for multiple texts, split into
// requests of at most the configured batch size.
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))
	return e.embedder.EmbedDocuments(ctx, texts)
}

// invoke sends one request to the endpoint.
func (e *Embedder) invoke(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(request{TextInputs: texts, Mode: "embedding"})
	if err != nil {
		return nil, err
	}

	out, err := e.client.InvokeEndpoint(ctx, &sagemakerruntime.InvokeEndpointInput{
		EndpointName: aws.String(e.endpoint),
		ContentType:  aws.String(contentType),
		Accept:       aws.String(contentType),
		Body:         body,
	})
	if err != nil {
		e.logger.Error("endpoint invocation failed", "count", len(texts), "err", err)
		return nil, fmt.Errorf("invoking endpoint %s: %w", e.endpoint, err)
	}

	var resp response
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, fmt.Errorf("decoding endpoint response: %w", err)
	}
	if len(resp.Embedding) != len(texts) {
		return nil, fmt.Errorf("%w: sent %d, got %d", ErrVectorCountMismatch, len(texts), len(resp.Embedding))
	}

	return resp.Embedding, nil
}
