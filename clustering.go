// Package words implements the k-means clustering used to train the IVF and
// product-quantization index strategies.
//
// K-means partitions vectors into k clusters by alternating two steps until
// assignments stop changing: assign every vector to its nearest centroid,
// then move each centroid to the mean of its assigned vectors. The learned
// centroids define Voronoi partitions of the embedding space (for IVF
// inverted lists) or a per-subspace codebook (for PQ).
package words

import "math"

// defaultKMeansIterations bounds the refinement loop. Most vocabularies
// converge well before this.
const defaultKMeansIterations = 20

// kmeans learns k centroids over the given vectors and returns them together
// with the final cluster assignment for every input vector. Distances are
// squared Euclidean. k is clamped to len(vectors); returns nil for empty
// input or non-positive k.
//
// Initialization picks every (n/k)-th vector, which is deterministic for a
// fixed vocabulary ordering, so rebuilding from an unchanged vocabulary
// reproduces identical centroids.
func kmeans(vectors [][]float32, k, maxIter int) (centroids [][]float32, assignments []int) {
	if len(vectors) == 0 || k <= 0 {
		return nil, nil
	}
	if k > len(vectors) {
		k = len(vectors)
	}
	if maxIter <= 0 {
		maxIter = defaultKMeansIterations
	}
	dim := len(vectors[0])

	// Deterministic uniform-spacing init.
	centroids = make([][]float32, k)
	step := len(vectors) / k
	if step == 0 {
		step = 1
	}
	for c := 0; c < k; c++ {
		src := c * step
		if src >= len(vectors) {
			src = len(vectors) - 1
		}
		centroids[c] = make([]float32, dim)
		copy(centroids[c], vectors[src])
	}

	assignments = make([]int, len(vectors))
	for i := range assignments {
		assignments[i] = -1
	}

	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, v := range vectors {
			best := 0
			bestDist := float32(math.Inf(1))
			for c, centroid := range centroids {
				if d := squaredEuclidean(v, centroid); d < bestDist {
					bestDist = d
					best = c
				}
			}
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}

		// Recompute centroids as cluster means in a single pass.
		sums := make([][]float32, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float32, dim)
		}
		for i, c := range assignments {
			for d := range vectors[i] {
				sums[c][d] += vectors[i][d]
			}
			counts[c]++
		}
		for c := range centroids {
			if counts[c] == 0 {
				// Empty cluster keeps its old position; it may attract
				// vectors on the next iteration.
				continue
			}
			for d := range centroids[c] {
				centroids[c][d] = sums[c][d] / float32(counts[c])
			}
		}
	}

	return centroids, assignments
}

// nearestCentroid returns the index of the centroid closest to v.
func nearestCentroid(v []float32, centroids [][]float32) int {
	best := 0
	bestDist := float32(math.Inf(1))
	for c, centroid := range centroids {
		if d := squaredEuclidean(v, centroid); d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

// nearestCentroids returns the indices of the nprobe closest centroids to v,
// ordered nearest first. Used by IVF search to pick which inverted lists to
// scan.
func nearestCentroids(v []float32, centroids [][]float32, nprobe int) []int {
	if nprobe >= len(centroids) {
		nprobe = len(centroids)
	}
	type cd struct {
		c int
		d float32
	}
	dists := make([]cd, len(centroids))
	for c, centroid := range centroids {
		dists[c] = cd{c: c, d: squaredEuclidean(v, centroid)}
	}
	// Partial selection: nprobe is small relative to nlist.
	for i := 0; i < nprobe; i++ {
		min := i
		for j := i + 1; j < len(dists); j++ {
			if dists[j].d < dists[min].d {
				min = j
			}
		}
		dists[i], dists[min] = dists[min], dists[i]
	}
	out := make([]int, nprobe)
	for i := 0; i < nprobe; i++ {
		out[i] = dists[i].c
	}
	return out
}
