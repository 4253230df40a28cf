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

import "fmt"

// ValidateChunkParameters validates chunking bounds.
//
// Validation rules:
//   - ChunkSize must be positive
//   - Overlap must not be negative
//   - Overlap must be smaller than ChunkSize, otherwise windows never advance
func ValidateChunkParameters(params ChunkParameters) error {
	if params.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size %d must be positive", ErrInvalidChunkParameters, params.ChunkSize)
	}
	if params.Overlap < 0 {
		return fmt.Errorf("%w: overlap %d cannot be negative", ErrInvalidChunkParameters, params.Overlap)
	}
	if params.Overlap >= params.ChunkSize {
		return fmt.Errorf("%w: overlap %d must be less than chunk size %d",
			ErrInvalidChunkParameters, params.Overlap, params.ChunkSize)
	}
	return nil
}

// ValidateProcessorConfig validates a ProcessorConfig.
//
// Validation rules:
//   - At least one content column
//   - No blank column names
//
// Column existence is checked against the source table at processing time.
func ValidateProcessorConfig(cfg ProcessorConfig) error {
	if len(cfg.ContentColumns) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidProcessorConfig, ErrNoContentColumns)
	}
	for _, col := range cfg.ContentColumns {
		if col == "" {
			return fmt.Errorf("%w: content: %w", ErrInvalidProcessorConfig, ErrEmptyColumnName)
		}
	}
	for _, col := range cfg.MetadataColumns {
		if col == "" {
			return fmt.Errorf("%w: metadata: %w", ErrInvalidProcessorConfig, ErrEmptyColumnName)
		}
	}
	return nil
}
