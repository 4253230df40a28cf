package loader

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/poiesic/vsloader/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockObjectGetter struct {
	objects map[string][]byte
	err     error
	calls   int
}

func (m *mockObjectGetter) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	body, ok := m.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func TestFileLoader(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "data"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "data", "rows.csv"), []byte("a,b\n1,2\n"), 0644))

	l := NewFileLoader(root, nil)

	t.Run("resolves under data dir", func(t *testing.T) {
		raw, err := l.Load(context.Background(), "rows.csv")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "data", "rows.csv"), raw.Path)
		assert.Equal(t, "rows.csv", raw.Name)
		assert.False(t, raw.InMemory())

		content, err := raw.ReadAll()
		require.NoError(t, err)
		assert.Equal(t, "a,b\n1,2\n", string(content))
	})

	t.Run("missing file is deferred to reader", func(t *testing.T) {
		raw, err := l.Load(context.Background(), "missing.csv")
		require.NoError(t, err)

		_, err = raw.Open()
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}

func TestS3Loader(t *testing.T) {
	getter := &mockObjectGetter{objects: map[string][]byte{"rcp/jobs.parquet": []byte("PAR1")}}
	l, err := NewS3Loader(getter, "rcp", nil)
	require.NoError(t, err)

	t.Run("returns body in memory", func(t *testing.T) {
		raw, err := l.Load(context.Background(), "jobs.parquet")
		require.NoError(t, err)
		assert.True(t, raw.InMemory())
		assert.Equal(t, []byte("PAR1"), raw.Bytes)
		assert.Equal(t, "jobs.parquet", raw.Name)
	})

	t.Run("missing key is storage unavailable", func(t *testing.T) {
		_, err := l.Load(context.Background(), "nope.csv")
		assert.ErrorIs(t, err, core.ErrStorageUnavailable)
	})

	t.Run("transport failure is storage unavailable", func(t *testing.T) {
		failing := &mockObjectGetter{err: errors.New("connection refused")}
		fl, err := NewS3Loader(failing, "rcp", nil)
		require.NoError(t, err)

		_, err = fl.Load(context.Background(), "jobs.parquet")
		assert.ErrorIs(t, err, core.ErrStorageUnavailable)
		assert.Contains(t, err.Error(), "connection refused")
		assert.Equal(t, 1, failing.calls)
	})
}

func TestNewS3Loader_Validation(t *testing.T) {
	_, err := NewS3Loader(nil, "rcp", nil)
	assert.Error(t, err)

	_, err = NewS3Loader(&mockObjectGetter{}, "", nil)
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	l, err := New(context.Background(), Settings{Kind: KindFile, ProjectPath: "/srv"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &FileLoader{}, l)

	_, err = New(context.Background(), Settings{Kind: "ftp_loader"}, nil)
	assert.Error(t, err)
}
