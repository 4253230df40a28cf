package ai

import (
	"errors"
	"fmt"
)

// ErrDimensionMismatch is returned when a provider returns vectors whose
// length differs from Config.Dimensions.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// CheckDimensions returns ErrDimensionMismatch if any vector is not dims long.
func CheckDimensions(vectors [][]float32, dims int) error {
	for i, v := range vectors {
		if len(v) != dims {
			return fmt.Errorf("%w: vector %d has %d values, want %d", ErrDimensionMismatch, i, len(v), dims)
		}
	}
	return nil
}
