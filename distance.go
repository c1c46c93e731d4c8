// Package words implements the vector math shared by the semantic index
// strategies. The embedding space is compared with Euclidean (L2) distance
// throughout: the engine's score transform (1 / (1 + d)) is defined over L2
// distances, so there is no per-index metric choice.
package words

import "math"

// squaredEuclidean returns the squared L2 distance between two vectors.
// Index internals compare in squared space (ordering is preserved and the
// sqrt is saved); the square root is taken once at the search boundary.
func squaredEuclidean(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// euclidean returns the L2 distance between two vectors.
func euclidean(a, b []float32) float32 {
	return float32(math.Sqrt(float64(squaredEuclidean(a, b))))
}

// sqrt32 is the float32 square root used when leaving squared space.
func sqrt32(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}

// norm returns the L2 magnitude of a vector.
func norm(v []float32) float32 {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	return float32(math.Sqrt(float64(sum)))
}

// distanceToScore converts a raw L2 distance into a bounded similarity score.
// Monotonically decreasing; keeps scores in (0, 1] with distance 0 mapping
// to exactly 1.
func distanceToScore(d float32) float64 {
	if d < 0 {
		d = 0
	}
	return 1.0 / (1.0 + float64(d))
}
