package biometric

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultDimension is the descriptor length produced by the capture page.
const DefaultDimension = 128

var (
	// ErrEmptyVector means the capture produced no descriptor (no face detected).
	ErrEmptyVector = errors.New("no face detected")

	// ErrInvalidVector means the descriptor has the wrong length or non-finite values.
	ErrInvalidVector = errors.New("invalid descriptor")
)

// Vector is a face feature descriptor.
type Vector []float64

// Validate checks the vector against the expected dimension. A dimension <= 0
// disables the length check.
func (v Vector) Validate(dimension int) error {
	if len(v) == 0 {
		return ErrEmptyVector
	}
	if dimension > 0 && len(v) != dimension {
		return fmt.Errorf("%w: got %d values, want %d", ErrInvalidVector, len(v), dimension)
	}
	for i, f := range v {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: value %d is not finite", ErrInvalidVector, i)
		}
	}
	return nil
}

// ParseVector parses a comma separated list of floats, the form-encoded
// representation of a descriptor. An empty string yields an empty vector.
func ParseVector(s string) (Vector, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if strings.TrimSpace(s) == "" {
		return Vector{}, nil
	}
	parts := strings.Split(s, ",")
	out := make(Vector, 0, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: value %d: %v", ErrInvalidVector, i, err)
		}
		out = append(out, f)
	}
	return out, nil
}

// Distance returns the Euclidean distance between a and b.
// The caller guarantees equal lengths.
func Distance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
