package facematch

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrDimensionMismatch is returned when a vector length differs from the gallery dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrNonFinite is returned when a vector holds NaN or Inf components.
	ErrNonFinite = errors.New("embedding has non-finite component")
)

// EuclideanDistance computes the L2 distance between two vectors of equal length.
// Callers validate lengths; extra components of the longer vector are ignored.
func EuclideanDistance(a, b []float64) float64 {
	n := min(len(a), len(b))
	var sum float64
	for i := range n {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// ValidateEmbedding checks that v has exactly dim finite components.
func ValidateEmbedding(v []float64, dim int) error {
	if len(v) != dim {
		return fmt.Errorf("%w: got %d components, want %d", ErrDimensionMismatch, len(v), dim)
	}
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: component %d is %v", ErrNonFinite, i, x)
		}
	}
	return nil
}

// toFloat32 converts an embedding for libraries that work in single precision.
func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
