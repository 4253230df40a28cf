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


// Package config reads vsloader settings from the environment.
//
// An optional .env file is loaded first; variables already present in the
// environment take precedence over it. Every setting has a default so a
// bare environment yields a working local-file, OpenSearch configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/vsloader/ai"
	"github.com/poiesic/vsloader/core"
	"github.com/poiesic/vsloader/loader"
	"github.com/poiesic/vsloader/vectorstore"
)

// Config holds every environment-driven setting.
type Config struct {
	LogLevel    string
	ProjectPath string
	Loader      loader.Kind
	VectorStore vectorstore.Kind
	Region      string

	S3 S3Config

	OpenSearch OpenSearchConfig
	ChromaURL  string
	// PgvectorURL is a PostgreSQL connection string.
	PgvectorURL    string
	LocalStorePath string

	Embedding EmbeddingConfig

	ContentColumns  []string
	MetadataColumns []string
	SourceColumn    string

	ChunkSize    int // 0 disables chunking
	ChunkOverlap int

	BatchSize        int
	StoreMaxAttempts int
	StoreRetryDelay  time.Duration

	// LedgerPath is the BadgerDB directory for the run ledger. Empty disables it.
	LedgerPath string
	JobWorkers int
}

// S3Config locates source files in S3.
type S3Config struct {
	Bucket   string
	FileName string
}

// OpenSearchConfig covers the OpenSearch cluster and the two indexes the
// default job set loads.
type OpenSearchConfig struct {
	URL             string
	Username        string
	Password        string
	EndpointName    string
	IndexName       string
	SkillsIndexName string
	SkillsFileName  string
}

// EmbeddingConfig selects the embedding service.
type EmbeddingConfig struct {
	Provider     ai.Provider
	EndpointName string
	Host         string
	Model        string
	Dimensions   int
}

// Load reads envFile if it exists and builds a Config from the environment.
// A missing envFile is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	aiDefaults := ai.DefaultConfig()
	cfg := &Config{
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		ProjectPath: getEnv("PROJECT_PATH", "."),
		Loader:      loader.Kind(getEnv("LOADER_CONFIG", string(loader.KindFile))),
		VectorStore: vectorstore.Kind(getEnv("VECTOR_STORE_CONFIG", string(vectorstore.KindOpenSearch))),
		Region:      getEnv("AWS_REGION", "eu-west-2"),
		S3: S3Config{
			Bucket:   getEnv("S3_LOADER_BUCKET", "rcp"),
			FileName: getEnv("S3_LOADER_FILE_NAME", ""),
		},
		OpenSearch: OpenSearchConfig{
			URL:             getEnv("OPENSEARCH_URL", ""),
			Username:        getEnv("OPENSEARCH_USERNAME", "admin"),
			Password:        getEnv("OPENSEARCH_PASSWORD", "admin"),
			EndpointName:    getEnv("OPENSEARCH_ENDPOINT_NAME", "vstore"),
			IndexName:       getEnv("OPENSEARCH_INDEX_NAME", "vacancies"),
			SkillsIndexName: getEnv("OPENSEARCH_SKILLS_INDEX_NAME", "skills"),
			SkillsFileName:  getEnv("OPENSEARCH_SKILLS_FILE_NAME", ""),
		},
		ChromaURL:      getEnv("CHROMA_URL", "http://localhost:8000"),
		PgvectorURL:    getEnv("PGVECTOR_URL", ""),
		LocalStorePath: getEnv("LOCAL_STORE_PATH", "./vsloader-data"),
		Embedding: EmbeddingConfig{
			Provider:     ai.Provider(getEnv("EMBEDDING_PROVIDER", string(aiDefaults.Provider))),
			EndpointName: getEnv("EMBEDDING_ENDPOINT_NAME", aiDefaults.EndpointName),
			Host:         getEnv("EMBEDDING_HOST", aiDefaults.Host),
			Model:        getEnv("EMBEDDING_MODEL", aiDefaults.Model),
			Dimensions:   getEnvAsInt("EMBEDDING_DIMENSIONS", aiDefaults.Dimensions),
		},
		ContentColumns:   getEnvAsList("CONTENT_COLUMNS", nil),
		MetadataColumns:  getEnvAsList("METADATA_COLUMNS", nil),
		SourceColumn:     getEnv("SOURCE_COLUMN", ""),
		ChunkSize:        getEnvAsInt("CHUNK_SIZE", 0),
		ChunkOverlap:     getEnvAsInt("CHUNK_OVERLAP", 0),
		BatchSize:        getEnvAsInt("OPENSEARCH_BATCH_SIZE", vectorstore.DefaultBatchSize),
		StoreMaxAttempts: getEnvAsInt("STORE_MAX_ATTEMPTS", 1),
		StoreRetryDelay:  getEnvAsDuration("STORE_RETRY_DELAY", time.Second),
		LedgerPath:       getEnv("LEDGER_PATH", ""),
		JobWorkers:       getEnvAsInt("JOB_WORKERS", 2),
	}
	return cfg, nil
}

// Validate checks selectors and numeric bounds.
func (c *Config) Validate() error {
	switch c.Loader {
	case loader.KindFile, loader.KindS3:
	default:
		return fmt.Errorf("%w: unknown loader %q", ErrInvalidConfig, c.Loader)
	}

	switch c.VectorStore {
	case vectorstore.KindOpenSearch, vectorstore.KindChroma, vectorstore.KindLocal:
	case vectorstore.KindPgvector:
		if c.PgvectorURL == "" {
			return fmt.Errorf("%w: PGVECTOR_URL is required for pgvector", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown vector store %q", ErrInvalidConfig, c.VectorStore)
	}

	if c.BatchSize < 1 {
		return fmt.Errorf("%w: batch size must be positive", ErrInvalidConfig)
	}
	if c.StoreMaxAttempts < 1 {
		return fmt.Errorf("%w: STORE_MAX_ATTEMPTS must be at least 1", ErrInvalidConfig)
	}
	if c.JobWorkers < 1 {
		return fmt.Errorf("%w: JOB_WORKERS must be at least 1", ErrInvalidConfig)
	}
	if c.ChunkSize > 0 {
		if err := core.ValidateChunkParameters(c.ChunkParameters()); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	if err := core.ValidateProcessorConfig(c.ProcessorConfig()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.AIConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Level parses LogLevel, accepting debug, info, warn and error in any case.
func (c *Config) Level() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: invalid log level %q: must be one of debug, info, warn, error",
			ErrInvalidConfig, c.LogLevel)
	}
}

// AIConfig returns the embedder configuration.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithProvider(c.Embedding.Provider),
		ai.WithHost(c.Embedding.Host),
		ai.WithModel(c.Embedding.Model),
		ai.WithRegion(c.Region),
		ai.WithEndpointName(c.Embedding.EndpointName),
		ai.WithDimensions(c.Embedding.Dimensions),
	)
}

func (c *Config) ProcessorConfig() core.ProcessorConfig {
	return core.ProcessorConfig{
		ContentColumns:  c.ContentColumns,
		MetadataColumns: c.MetadataColumns,
		SourceColumn:    c.SourceColumn,
	}
}

func (c *Config) ChunkParameters() core.ChunkParameters {
	return core.ChunkParameters{ChunkSize: c.ChunkSize, Overlap: c.ChunkOverlap}
}

func (c *Config) LoaderSettings() loader.Settings {
	return loader.Settings{
		Kind:        c.Loader,
		ProjectPath: c.ProjectPath,
		Region:      c.Region,
		Bucket:      c.S3.Bucket,
	}
}

// StoreOptions returns the batching and retry options shared by every
// vector store client.
func (c *Config) StoreOptions(logger *slog.Logger) []vectorstore.Option {
	opts := []vectorstore.Option{
		vectorstore.WithBatchSize(c.BatchSize),
		vectorstore.WithLogger(logger),
	}
	if c.StoreMaxAttempts > 1 {
		opts = append(opts, vectorstore.WithRetry(c.StoreMaxAttempts, c.StoreRetryDelay))
	}
	return opts
}

// SourceFile returns the file name loaded into the main index.
func (c *Config) SourceFile() string {
	return c.S3.FileName
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma separated value, trimming blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
