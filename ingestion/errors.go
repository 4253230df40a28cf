package ingestion

import "errors"

var (
	// ErrLoaderRequired is returned when a loader is not provided.
	ErrLoaderRequired = errors.New("loader required")

	// ErrClientRequired is returned when a vector store client is not provided.
	ErrClientRequired = errors.New("vector store client required")
)
