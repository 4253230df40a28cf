package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/vsloader/ai"
	"github.com/poiesic/vsloader/loader"
	"github.com/poiesic/vsloader/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"LOG_LEVEL", "PROJECT_PATH", "LOADER_CONFIG", "VECTOR_STORE_CONFIG", "AWS_REGION",
	"S3_LOADER_BUCKET", "S3_LOADER_FILE_NAME", "OPENSEARCH_URL", "OPENSEARCH_USERNAME",
	"OPENSEARCH_PASSWORD", "OPENSEARCH_ENDPOINT_NAME", "OPENSEARCH_INDEX_NAME",
	"OPENSEARCH_SKILLS_INDEX_NAME", "OPENSEARCH_SKILLS_FILE_NAME", "OPENSEARCH_BATCH_SIZE",
	"CHROMA_URL", "PGVECTOR_URL", "LOCAL_STORE_PATH", "EMBEDDING_PROVIDER",
	"EMBEDDING_ENDPOINT_NAME", "EMBEDDING_HOST", "EMBEDDING_MODEL", "EMBEDDING_DIMENSIONS",
	"CONTENT_COLUMNS", "METADATA_COLUMNS", "SOURCE_COLUMN", "CHUNK_SIZE", "CHUNK_OVERLAP",
	"STORE_MAX_ATTEMPTS", "STORE_RETRY_DELAY", "LEDGER_PATH", "JOB_WORKERS",
}

// clearEnv blanks every variable Load reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, loader.KindFile, cfg.Loader)
	assert.Equal(t, vectorstore.KindOpenSearch, cfg.VectorStore)
	assert.Equal(t, "eu-west-2", cfg.Region)
	assert.Equal(t, "rcp", cfg.S3.Bucket)
	assert.Equal(t, "admin", cfg.OpenSearch.Username)
	assert.Equal(t, "vstore", cfg.OpenSearch.EndpointName)
	assert.Equal(t, "vacancies", cfg.OpenSearch.IndexName)
	assert.Equal(t, "skills", cfg.OpenSearch.SkillsIndexName)
	assert.Equal(t, 500, cfg.BatchSize)
	assert.Equal(t, ai.ProviderSageMaker, cfg.Embedding.Provider)
	assert.Equal(t, "huggingface-sentencesimilarity", cfg.Embedding.EndpointName)
	assert.Equal(t, 1, cfg.StoreMaxAttempts)
	assert.Equal(t, time.Second, cfg.StoreRetryDelay)
	assert.Equal(t, 2, cfg.JobWorkers)
	assert.Zero(t, cfg.ChunkSize)
	assert.Empty(t, cfg.LedgerPath)
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("VECTOR_STORE_CONFIG", "chroma")
	t.Setenv("CONTENT_COLUMNS", "title, description,,")
	t.Setenv("METADATA_COLUMNS", "id")
	t.Setenv("OPENSEARCH_BATCH_SIZE", "250")
	t.Setenv("STORE_RETRY_DELAY", "250ms")
	t.Setenv("CHUNK_SIZE", "not-a-number")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, vectorstore.KindChroma, cfg.VectorStore)
	assert.Equal(t, []string{"title", "description"}, cfg.ContentColumns)
	assert.Equal(t, []string{"id"}, cfg.MetadataColumns)
	assert.Equal(t, 250, cfg.BatchSize)
	assert.Equal(t, 250*time.Millisecond, cfg.StoreRetryDelay)
	assert.Zero(t, cfg.ChunkSize, "unparseable values fall back to the default")
}

func TestLoad_EnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("OPENSEARCH_INDEX_NAME=jobs\nJOB_WORKERS=4\n"), 0644))
	clearEnv(t)
	// godotenv never overrides variables present in the environment.
	os.Unsetenv("OPENSEARCH_INDEX_NAME")
	os.Unsetenv("JOB_WORKERS")

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "jobs", cfg.OpenSearch.IndexName)
	assert.Equal(t, 4, cfg.JobWorkers)
}

func TestLoad_MissingEnvFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	valid := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		cfg.ContentColumns = []string{"description"}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults with content columns", mutate: func(*Config) {}},
		{name: "no content columns", mutate: func(c *Config) { c.ContentColumns = nil }, wantErr: true},
		{name: "unknown loader", mutate: func(c *Config) { c.Loader = "ftp_loader" }, wantErr: true},
		{name: "unknown store", mutate: func(c *Config) { c.VectorStore = "qdrant" }, wantErr: true},
		{name: "pgvector without url", mutate: func(c *Config) { c.VectorStore = vectorstore.KindPgvector }, wantErr: true},
		{name: "pgvector with url", mutate: func(c *Config) {
			c.VectorStore = vectorstore.KindPgvector
			c.PgvectorURL = "postgres://localhost/vectors"
		}},
		{name: "zero batch size", mutate: func(c *Config) { c.BatchSize = 0 }, wantErr: true},
		{name: "zero attempts", mutate: func(c *Config) { c.StoreMaxAttempts = 0 }, wantErr: true},
		{name: "zero workers", mutate: func(c *Config) { c.JobWorkers = 0 }, wantErr: true},
		{name: "overlap too large", mutate: func(c *Config) {
			c.ChunkSize = 100
			c.ChunkOverlap = 100
		}, wantErr: true},
		{name: "overlap ignored without chunking", mutate: func(c *Config) { c.ChunkOverlap = 100 }},
		{name: "unknown embedding provider", mutate: func(c *Config) { c.Embedding.Provider = "cohere" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStoreOptions(t *testing.T) {
	cfg := &Config{BatchSize: 100, StoreMaxAttempts: 3, StoreRetryDelay: time.Millisecond}

	settings, err := vectorstore.NewSettings(cfg.StoreOptions(nil)...)
	require.NoError(t, err)
	assert.Equal(t, 100, settings.BatchSize)
	assert.Equal(t, 3, settings.MaxAttempts)
	assert.Equal(t, time.Millisecond, settings.RetryDelay)
}

func TestLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "info", want: slog.LevelInfo},
		{in: "WARN", want: slog.LevelWarn},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "verbose", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.in}
			level, err := cfg.Level()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, level)
		})
	}
}
