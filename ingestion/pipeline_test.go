package ingestion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/vsloader/chunker"
	"github.com/poiesic/vsloader/core"
	"github.com/poiesic/vsloader/loader"
	"github.com/poiesic/vsloader/storage"
	"github.com/poiesic/vsloader/storage/badger"
	"github.com/poiesic/vsloader/vectorstore"
	"github.com/poiesic/vsloader/vectorstore/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"
)

// fakeLoader serves in-memory files.
type fakeLoader struct {
	files map[string][]byte
	err   error
	calls int
}

func (f *fakeLoader) Load(_ context.Context, fileName string) (loader.RawData, error) {
	f.calls++
	if f.err != nil {
		return loader.RawData{}, f.err
	}
	return loader.RawData{Name: fileName, Bytes: f.files[fileName]}, nil
}

// failingChunker always fails.
type failingChunker struct{ err error }

func (c failingChunker) ChunkDocuments(context.Context, []schema.Document) ([]schema.Document, error) {
	return nil, c.err
}

const transcriptCSV = "Speaker,Text\nA,Hello world\nB,Bye\n"

var transcriptConfig = core.ProcessorConfig{ContentColumns: []string{"Speaker", "Text"}}

func vacanciesCSV(rows int) []byte {
	var b strings.Builder
	b.WriteString("id,title,description\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "%d,Job %d,Description of job %d\n", i, i, i)
	}
	return []byte(b.String())
}

func newTestLoader(t *testing.T, files map[string][]byte, cfg core.ProcessorConfig, opts ...Option) (*VectorstoreLoader, *mock.MockClient, *fakeLoader) {
	t.Helper()
	client, err := mock.NewMockClient("vacancies")
	require.NoError(t, err)
	fl := &fakeLoader{files: files}
	v, err := NewVectorstoreLoader(fl, client, cfg, opts...)
	require.NoError(t, err)
	return v, client, fl
}

func newTestRuns(t *testing.T) storage.RunRepository {
	t.Helper()
	runs, docs, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		docs.Close()
		runs.Close()
		backend.Close()
	})
	return runs
}

func TestNewVectorstoreLoader_Validation(t *testing.T) {
	client, err := mock.NewMockClient("vacancies")
	require.NoError(t, err)

	_, err = NewVectorstoreLoader(nil, client, transcriptConfig)
	assert.ErrorIs(t, err, ErrLoaderRequired)

	_, err = NewVectorstoreLoader(&fakeLoader{}, nil, transcriptConfig)
	assert.ErrorIs(t, err, ErrClientRequired)

	_, err = NewVectorstoreLoader(&fakeLoader{}, client, core.ProcessorConfig{})
	assert.ErrorIs(t, err, core.ErrNoContentColumns)
}

func TestFreshDataLoad_EmptyStore(t *testing.T) {
	v, client, _ := newTestLoader(t, map[string][]byte{"transcript.csv": []byte(transcriptCSV)}, transcriptConfig)
	ctx := context.Background()

	result, err := v.FreshDataLoad(ctx, "transcript.csv")
	require.NoError(t, err)

	assert.False(t, result.Skipped)
	assert.Equal(t, core.RunStateDone, result.State)
	assert.Equal(t, 2, result.Documents)
	assert.Equal(t, 2, result.Chunks)
	assert.Equal(t, vectorstore.StoreResult{Batches: 1, Documents: 2}, result.Stored)
	assert.Equal(t, 1, client.CallCount("Create"))

	docs := client.Documents()
	require.Len(t, docs, 2)
	assert.Equal(t, "A\nHello world", docs[0].PageContent)
	assert.Nil(t, docs[0].Metadata)
	assert.Equal(t, "B\nBye", docs[1].PageContent)
}

func TestFreshDataLoad_ExistingStoreIsNoop(t *testing.T) {
	v, client, fl := newTestLoader(t, map[string][]byte{"transcript.csv": []byte(transcriptCSV)}, transcriptConfig)
	ctx := context.Background()

	_, err := v.FreshDataLoad(ctx, "transcript.csv")
	require.NoError(t, err)
	require.Equal(t, 1, client.CallCount("StoreData"))

	result, err := v.FreshDataLoad(ctx, "transcript.csv")
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Equal(t, core.RunStateDone, result.State)
	assert.Zero(t, result.Stored.Documents)
	assert.Equal(t, 1, client.CallCount("StoreData"), "no writes on the second load")
	assert.Equal(t, 1, fl.calls, "source is not loaded when skipping")
	assert.Len(t, client.Documents(), 2)
}

func TestRecreateDataLoad(t *testing.T) {
	files := map[string][]byte{
		"old.csv": vacanciesCSV(5),
		"new.csv": vacanciesCSV(3),
	}
	cfg := core.ProcessorConfig{ContentColumns: []string{"title", "description"}, MetadataColumns: []string{"id"}}
	v, client, _ := newTestLoader(t, files, cfg)
	ctx := context.Background()

	_, err := v.FreshDataLoad(ctx, "old.csv")
	require.NoError(t, err)
	require.Len(t, client.Documents(), 5)

	result, err := v.RecreateDataLoad(ctx, "new.csv")
	require.NoError(t, err)
	assert.Equal(t, core.RunStateDone, result.State)
	assert.Equal(t, 1, client.CallCount("Delete"))
	assert.Equal(t, 2, client.CallCount("Create"))

	docs := client.Documents()
	require.Len(t, docs, 3, "only the current file remains")
	for i, doc := range docs {
		assert.Equal(t, int64(i), doc.Metadata["id"])
	}
}

func TestRecreateDataLoad_AbsentStoreSkipsDelete(t *testing.T) {
	v, client, _ := newTestLoader(t, map[string][]byte{"transcript.csv": []byte(transcriptCSV)}, transcriptConfig)

	_, err := v.RecreateDataLoad(context.Background(), "transcript.csv")
	require.NoError(t, err)
	assert.Zero(t, client.CallCount("Delete"))
	assert.Len(t, client.Documents(), 2)
}

func TestLoad_WithChunker(t *testing.T) {
	long := strings.Repeat("word ", 60) // 300 characters
	csv := "Text\n" + strings.TrimSpace(long) + "\nshort\n"
	c, err := chunker.NewTextChunker(core.ChunkParameters{ChunkSize: 100, Overlap: 20})
	require.NoError(t, err)

	v, client, _ := newTestLoader(t, map[string][]byte{"rows.csv": []byte(csv)},
		core.ProcessorConfig{ContentColumns: []string{"Text"}}, WithChunker(c))

	result, err := v.FreshDataLoad(context.Background(), "rows.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Documents)
	assert.Greater(t, result.Chunks, 3)
	assert.Equal(t, result.Chunks, result.Stored.Documents)

	docs := client.Documents()
	assert.Equal(t, "short", docs[len(docs)-1].PageContent)
	for _, doc := range docs {
		assert.LessOrEqual(t, len([]rune(doc.PageContent)), 100)
		assert.NotEmpty(t, doc.PageContent)
	}
}

func TestLoad_BatchesLargeSources(t *testing.T) {
	client, err := mock.NewMockClient("vacancies", vectorstore.WithBatchSize(500))
	require.NoError(t, err)
	fl := &fakeLoader{files: map[string][]byte{"vacancies.csv": vacanciesCSV(1200)}}
	v, err := NewVectorstoreLoader(fl, client, core.ProcessorConfig{ContentColumns: []string{"description"}})
	require.NoError(t, err)

	result, err := v.FreshDataLoad(context.Background(), "vacancies.csv")
	require.NoError(t, err)
	assert.Equal(t, []int{500, 500, 200}, client.BatchSizes())
	assert.Equal(t, vectorstore.StoreResult{Batches: 3, Documents: 1200}, result.Stored)
}

func TestLoad_StageErrorsPropagateUnchanged(t *testing.T) {
	loadErr := fmt.Errorf("%w: bucket rcp", core.ErrStorageUnavailable)
	chunkErr := errors.New("chunk failure")
	createErr := fmt.Errorf("%w: mapping rejected", core.ErrStoreCreation)

	tests := []struct {
		name      string
		source    string
		files     map[string][]byte
		setup     func(*mock.MockClient, *fakeLoader)
		opts      []Option
		wantErr   error
		wantState string
	}{
		{
			name:    "loader failure",
			source:  "transcript.csv",
			setup:   func(_ *mock.MockClient, fl *fakeLoader) { fl.err = loadErr },
			wantErr: loadErr,
		},
		{
			name:    "unsupported format",
			source:  "transcript.json",
			files:   map[string][]byte{"transcript.json": []byte("{}")},
			wantErr: core.ErrUnsupportedFormat,
		},
		{
			name:    "missing column",
			source:  "transcript.csv",
			files:   map[string][]byte{"transcript.csv": []byte("Text\nHi\n")},
			wantErr: core.ErrMalformedInput,
		},
		{
			name:    "chunker failure",
			source:  "transcript.csv",
			files:   map[string][]byte{"transcript.csv": []byte(transcriptCSV)},
			opts:    []Option{WithChunker(failingChunker{err: chunkErr})},
			wantErr: chunkErr,
		},
		{
			name:   "create failure",
			source: "transcript.csv",
			files:  map[string][]byte{"transcript.csv": []byte(transcriptCSV)},
			setup: func(c *mock.MockClient, _ *fakeLoader) {
				c.CreateFunc = func(context.Context) error { return createErr }
			},
			wantErr: createErr,
		},
		{
			name:   "store failure",
			source: "transcript.csv",
			files:  map[string][]byte{"transcript.csv": []byte(transcriptCSV)},
			setup: func(c *mock.MockClient, _ *fakeLoader) {
				c.UpsertFunc = func(context.Context, []schema.Document) error { return errors.New("throttled") }
			},
			wantErr: core.ErrStoreWrite,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, client, fl := newTestLoader(t, tt.files, transcriptConfig, tt.opts...)
			if tt.setup != nil {
				tt.setup(client, fl)
			}

			result, err := v.FreshDataLoad(context.Background(), tt.source)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, core.RunStateFailed, result.State)
		})
	}
}

func TestLoad_MissingLocalFile(t *testing.T) {
	client, err := mock.NewMockClient("vacancies")
	require.NoError(t, err)
	v, err := NewVectorstoreLoader(loader.NewFileLoader(t.TempDir(), nil), client, transcriptConfig)
	require.NoError(t, err)

	_, err = v.FreshDataLoad(context.Background(), "absent.csv")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestLoad_FromFileLoader(t *testing.T) {
	project := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(project, "data"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(project, "data", "transcript.csv"), []byte(transcriptCSV), 0644))

	client, err := mock.NewMockClient("transcripts")
	require.NoError(t, err)
	v, err := NewVectorstoreLoader(loader.NewFileLoader(project, nil), client, transcriptConfig)
	require.NoError(t, err)

	result, err := v.FreshDataLoad(context.Background(), "transcript.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Stored.Documents)
}

func TestLoad_RecordsRuns(t *testing.T) {
	runs := newTestRuns(t)
	files := map[string][]byte{"transcript.csv": []byte(transcriptCSV)}
	v, client, _ := newTestLoader(t, files, transcriptConfig, WithRunRepository(runs))
	ctx := context.Background()

	first, err := v.FreshDataLoad(ctx, "transcript.csv")
	require.NoError(t, err)
	require.NotEmpty(t, first.RunID)

	run, err := runs.GetRun(ctx, first.RunID)
	require.NoError(t, err)
	assert.Equal(t, "vacancies", run.Index)
	assert.Equal(t, core.RunModeFresh, run.Mode)
	assert.Equal(t, core.RunStateDone, run.State)
	assert.Equal(t, 2, run.DocsStored)
	assert.Len(t, run.Fingerprint, 16)
	assert.False(t, run.FinishedAt.IsZero())
	firstFingerprint := run.Fingerprint

	second, err := v.FreshDataLoad(ctx, "transcript.csv")
	require.NoError(t, err)
	latest, err := runs.LatestRun(ctx, "vacancies")
	require.NoError(t, err)
	assert.Equal(t, second.RunID, latest.Id)
	assert.True(t, latest.Skipped)
	assert.Empty(t, latest.Fingerprint)

	client.UpsertFunc = func(context.Context, []schema.Document) error { return errors.New("throttled") }
	failed, err := v.RecreateDataLoad(ctx, "transcript.csv")
	require.Error(t, err)
	run, err = runs.GetRun(ctx, failed.RunID)
	require.NoError(t, err)
	assert.Equal(t, core.RunStateFailed, run.State)
	assert.Equal(t, core.RunModeRecreate, run.Mode)
	assert.Contains(t, run.Error, "throttled")
	assert.Equal(t, firstFingerprint, run.Fingerprint)

	all, err := runs.ListRuns(ctx, "vacancies", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestLoad_Progress(t *testing.T) {
	var out bytes.Buffer
	v, _, _ := newTestLoader(t, map[string][]byte{"vacancies.csv": vacanciesCSV(1200)},
		core.ProcessorConfig{ContentColumns: []string{"description"}}, WithProgress(&out))

	_, err := v.FreshDataLoad(context.Background(), "vacancies.csv")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Stored: 1200/1200 (100.0%) in 3 batches")
}
