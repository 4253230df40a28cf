package vectorstore

import "errors"

var (
	// ErrEmbedderRequired is returned when a client is built without an embedder.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrIndexNameRequired is returned when a client is built without an index name.
	ErrIndexNameRequired = errors.New("index name required")

	// ErrInvalidBatchSize is returned for non-positive batch sizes.
	ErrInvalidBatchSize = errors.New("batch size must be positive")

	// ErrInvalidMaxAttempts is returned when max attempts is not positive.
	ErrInvalidMaxAttempts = errors.New("max attempts must be greater than 0")
)
