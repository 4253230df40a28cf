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


package ai

import (
	"errors"
	"fmt"
	"strings"
)

// Provider names a family of embedding services.
type Provider string

const (
	// ProviderOpenAI is any OpenAI-compatible embeddings API (OpenAI, Ollama, vLLM, LocalAI).
	ProviderOpenAI Provider = "openai"
	// ProviderBedrock is Amazon Bedrock.
	ProviderBedrock Provider = "bedrock"
	// ProviderSageMaker is a SageMaker inference endpoint hosting a sentence-similarity model.
	ProviderSageMaker Provider = "sagemaker"
)

// Config holds configuration for embedding service providers.
type Config struct {
	// Provider selects the embedding service implementation.
	Provider Provider

	// Host is the base URL for OpenAI-compatible APIs.
	// Example: "http://localhost:11434/v1" for a local server
	Host string

	// Model is the model identifier.
	// Example: "embeddinggemma", "amazon.titan-embed-text-v1"
	Model string

	// Region is the AWS region for Bedrock and SageMaker.
	Region string

	// EndpointName is the SageMaker endpoint to invoke.
	EndpointName string

	// BatchSize caps how many texts are sent in a single embedding request.
	// Default: 512
	BatchSize int

	// Dimensions is the length of vectors the model returns. Stores that need
	// a fixed mapping (OpenSearch, pgvector) use it when creating an index.
	// Default: 384
	Dimensions int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithProvider sets the embedding provider.
func WithProvider(provider Provider) ConfigOption {
	return func(c *Config) {
		c.Provider = provider
	}
}

// WithHost sets the OpenAI-compatible host URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithModel sets the embedding model identifier.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

// WithRegion sets the AWS region.
func WithRegion(region string) ConfigOption {
	return func(c *Config) {
		c.Region = region
	}
}

// WithEndpointName sets the SageMaker endpoint name.
func WithEndpointName(name string) ConfigOption {
	return func(c *Config) {
		c.EndpointName = name
	}
}

// WithBatchSize sets the per-request text limit.
func WithBatchSize(size int) ConfigOption {
	return func(c *Config) {
		c.BatchSize = size
	}
}

// WithDimensions sets the embedding vector length.
func WithDimensions(dims int) ConfigOption {
	return func(c *Config) {
		c.Dimensions = dims
	}
}

// DefaultConfig returns a Config targeting the SageMaker sentence-similarity
// endpoint in eu-west-2.
func DefaultConfig() *Config {
	return &Config{
		Provider:     ProviderSageMaker,
		Host:         "http://localhost:11434/v1",
		Model:        "embeddinggemma",
		Region:       "eu-west-2",
		EndpointName: "huggingface-sentencesimilarity",
		BatchSize:    512,
		Dimensions:   384,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithProvider(ProviderOpenAI),
//	    WithHost("http://localhost:11434"),
//	    WithModel("nomic-embed-text"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It lowercases the provider and adds the /v1 suffix to the host if missing,
// which most OpenAI-compatible APIs require.
func (c *Config) Normalize() {
	c.Provider = Provider(strings.ToLower(strings.TrimSpace(string(c.Provider))))
	if c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		// Remove trailing slash if present before adding /v1
		c.Host = strings.TrimSuffix(c.Host, "/")
		c.Host = c.Host + "/v1"
	}
}

// Validate checks that the configuration is valid and complete for its provider.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.BatchSize < 1 {
		return errors.New("ai config: BatchSize must be positive")
	}
	if c.Dimensions < 1 {
		return errors.New("ai config: Dimensions must be positive")
	}

	switch c.Provider {
	case ProviderOpenAI:
		if c.Host == "" {
			return errors.New("ai config: Host is required for openai provider")
		}
		if c.Model == "" {
			return errors.New("ai config: Model is required for openai provider")
		}
	case ProviderBedrock:
		if c.Region == "" {
			return errors.New("ai config: Region is required for bedrock provider")
		}
		if c.Model == "" {
			return errors.New("ai config: Model is required for bedrock provider")
		}
	case ProviderSageMaker:
		if c.Region == "" {
			return errors.New("ai config: Region is required for sagemaker provider")
		}
		if c.EndpointName == "" {
			return errors.New("ai config: EndpointName is required for sagemaker provider")
		}
	default:
		return fmt.Errorf("ai config: unknown provider %q", c.Provider)
	}
	return nil
}
