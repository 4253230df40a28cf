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


package core

import "errors"

// Pipeline stage errors. Stages wrap these with context so callers can
// match them with errors.Is.
var (
	// ErrNotFound indicates a missing source file or object.
	ErrNotFound = errors.New("source not found")

	// ErrUnsupportedFormat indicates a source file extension with no processor.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrMalformedInput indicates a configured column is absent from the source table
	// or the table could not be parsed.
	ErrMalformedInput = errors.New("malformed input")

	// ErrStorageUnavailable indicates a transport or auth failure reaching the loader backend.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrStoreCreation indicates the vector store backend rejected index creation.
	ErrStoreCreation = errors.New("vector store creation failed")

	// ErrStoreWrite indicates a batch upsert into the vector store failed.
	ErrStoreWrite = errors.New("vector store write failed")
)

// Configuration validation errors
var (
	// ErrInvalidChunkParameters indicates chunk size or overlap is out of range.
	ErrInvalidChunkParameters = errors.New("invalid chunk parameters")

	// ErrInvalidProcessorConfig indicates a ProcessorConfig failed validation.
	ErrInvalidProcessorConfig = errors.New("invalid processor config")

	// ErrNoContentColumns indicates no content columns were configured.
	ErrNoContentColumns = errors.New("at least one content column is required")

	// ErrEmptyColumnName indicates a blank column name in a ProcessorConfig.
	ErrEmptyColumnName = errors.New("column name cannot be empty")
)
