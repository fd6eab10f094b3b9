// Package vecmath provides utilities for embedding vectors (cosine similarity,
// L2 normalization).
package vecmath

import (
	"fmt"
	"math"
)

// CosineSimilarity returns the cosine similarity between two vectors, in the
// range [-1, 1]. Vectors of different dimension are not comparable.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, fmt.Errorf("vectors cannot be empty")
	}

	if len(a) != len(b) {
		return 0, fmt.Errorf("vector dimension mismatch: %d vs %d", len(a), len(b))
	}

	var dot, sumA, sumB float64

	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		sumA += float64(a[i]) * float64(a[i])
		sumB += float64(b[i]) * float64(b[i])
	}

	if sumA == 0 || sumB == 0 {
		return 0, nil
	}

	return dot / (math.Sqrt(sumA) * math.Sqrt(sumB)), nil
}

// NormalizeL2 normalizes the vector to unit length in place.
func NormalizeL2(vector []float32) {
	var sumSquares float64

	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}

	if sumSquares == 0 {
		return
	}

	magnitude := math.Sqrt(sumSquares)

	for i := range vector {
		vector[i] = float32(float64(vector[i]) / magnitude)
	}
}
