// Package words implements the flat (brute-force) vector index strategies.
//
// WHAT IS A FLAT INDEX?
// Vectors are stored as-is and every query is compared against all of them:
// perfect recall, no training phase, O(n*dim) per query. This is the right
// structure for small vocabularies, where the exhaustive scan is faster than
// any approximate structure's overhead.
//
// The int8 variant stores scalar-quantized vectors instead - one byte per
// component instead of four - and dequantizes per candidate during the scan.
// Recall is effectively unchanged for embedding-scale value ranges; memory
// drops 4x. It covers the mid-size band where brute force is still fast
// enough but float32 storage is not worth it.
package words

import (
	"fmt"
	"sort"
)

// Compile-time checks that both flat variants implement VectorIndex.
var (
	_ VectorIndex = (*flatIndex)(nil)
	_ VectorIndex = (*int8FlatIndex)(nil)
)

// flatIndex is the exhaustive-search strategy over float32 vectors.
//
// Snapshots are immutable once built, so the index carries no locking:
// all Adds happen during the build, all Searches after.
type flatIndex struct {
	dim     int
	ids     []uint32
	vectors [][]float32
}

func newFlatIndex(dim int) *flatIndex {
	return &flatIndex{dim: dim}
}

// Train is a no-op: flat indexes have no learning phase.
func (idx *flatIndex) Train(vectors [][]float32) error {
	return nil
}

// Add appends a vector to the scan set.
func (idx *flatIndex) Add(id uint32, vector []float32) error {
	if len(vector) != idx.dim {
		return fmt.Errorf("vector dimension mismatch: expected %d, got %d", idx.dim, len(vector))
	}
	idx.ids = append(idx.ids, id)
	idx.vectors = append(idx.vectors, vector)
	return nil
}

// Search scans every stored vector and returns the k nearest.
//
// Time Complexity: O(n*dim + n log n).
func (idx *flatIndex) Search(query []float32, k int) ([]Neighbor, error) {
	if len(query) != idx.dim {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", idx.dim, len(query))
	}

	neighbors := make([]Neighbor, len(idx.vectors))
	for i, v := range idx.vectors {
		neighbors[i] = Neighbor{ID: idx.ids[i], Distance: euclidean(query, v)}
	}
	return topNeighbors(neighbors, k), nil
}

func (idx *flatIndex) Strategy() IndexStrategy { return StrategyFlatL2 }
func (idx *flatIndex) Dimensions() int         { return idx.dim }
func (idx *flatIndex) Trained() bool           { return true }

// int8FlatIndex is the exhaustive-search strategy over scalar-quantized
// vectors.
type int8FlatIndex struct {
	dim       int
	quantizer int8Quantizer
	ids       []uint32
	codes     [][]int8
}

func newInt8FlatIndex(dim int) *int8FlatIndex {
	return &int8FlatIndex{dim: dim}
}

// Train learns the quantization range from the full vector set.
func (idx *int8FlatIndex) Train(vectors [][]float32) error {
	if len(vectors) == 0 {
		return fmt.Errorf("int8 index needs at least one training vector")
	}
	idx.quantizer.train(vectors)
	if !idx.quantizer.trained() {
		return fmt.Errorf("int8 quantizer training produced a zero range")
	}
	return nil
}

// Add quantizes and stores a vector. The float32 original is discarded.
func (idx *int8FlatIndex) Add(id uint32, vector []float32) error {
	if len(vector) != idx.dim {
		return fmt.Errorf("vector dimension mismatch: expected %d, got %d", idx.dim, len(vector))
	}
	codes, err := idx.quantizer.quantize(vector)
	if err != nil {
		return err
	}
	idx.ids = append(idx.ids, id)
	idx.codes = append(idx.codes, codes)
	return nil
}

// Search dequantizes each stored vector on the fly and scans exhaustively.
// Distances are computed against the reconstructed vectors, so they carry
// the quantization error but remain true L2 distances in the reconstructed
// space.
func (idx *int8FlatIndex) Search(query []float32, k int) ([]Neighbor, error) {
	if len(query) != idx.dim {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", idx.dim, len(query))
	}
	if !idx.quantizer.trained() {
		return nil, fmt.Errorf("int8 index searched before training")
	}

	neighbors := make([]Neighbor, len(idx.codes))
	for i, codes := range idx.codes {
		v := idx.quantizer.dequantize(codes)
		neighbors[i] = Neighbor{ID: idx.ids[i], Distance: euclidean(query, v)}
	}
	return topNeighbors(neighbors, k), nil
}

func (idx *int8FlatIndex) Strategy() IndexStrategy { return StrategyInt8 }
func (idx *int8FlatIndex) Dimensions() int         { return idx.dim }
func (idx *int8FlatIndex) Trained() bool           { return idx.quantizer.trained() }

// topNeighbors sorts neighbors by distance ascending (ties by ID for
// determinism) and truncates to k. k <= 0 returns everything.
func topNeighbors(neighbors []Neighbor, k int) []Neighbor {
	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].Distance != neighbors[j].Distance {
			return neighbors[i].Distance < neighbors[j].Distance
		}
		return neighbors[i].ID < neighbors[j].ID
	})
	if k > 0 && len(neighbors) > k {
		neighbors = neighbors[:k]
	}
	return neighbors
}
