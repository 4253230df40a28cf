package loader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/poiesic/vsloader/core"
)

// Kind selects a Loader implementation.
type Kind string

const (
	KindFile Kind = "file_loader"
	KindS3   Kind = "s3_loader"
)

// RawData is the output of a Loader: either a local path to be read by the
// consumer, or bytes already held in memory.
type RawData struct {
	Name  string // Logical file name as requested
	Path  string // Set for local files
	Bytes []byte // Set for in-memory content
}

// InMemory reports whether the content is held in Bytes.
func (r RawData) InMemory() bool {
	return r.Bytes != nil
}

// Open returns a reader over the raw content. A missing local file
// wraps core.ErrNotFound.
func (r RawData) Open() (io.ReadCloser, error) {
	if r.InMemory() {
		return io.NopCloser(bytes.NewReader(r.Bytes)), nil
	}
	f, err := os.Open(r.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", core.ErrNotFound, r.Path)
		}
		return nil, err
	}
	return f, nil
}

// ReadAll returns the full raw content.
func (r RawData) ReadAll() ([]byte, error) {
	if r.InMemory() {
		return r.Bytes, nil
	}
	rc, err := r.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Loader resolves a logical file name to raw data.
type Loader interface {
	// Load returns raw data for fileName. It has no side effects beyond a
	// remote read.
	Load(ctx context.Context, fileName string) (RawData, error)
}
