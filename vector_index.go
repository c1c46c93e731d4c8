// Package words implements the vector index strategy layer of the semantic
// index.
//
// WHY MULTIPLE STRATEGIES?
// No single nearest-neighbor structure is right at every corpus size. A
// brute-force scan is exact and instant to build but O(n) per query; graph
// and quantization methods trade recall and build time for query speed and
// memory. The engine therefore selects a strategy deterministically from the
// vocabulary size at build time - the boundaries are policy, fixed in
// selectIndexDescriptor, never tuned per query.
//
//	< 10,000            flat L2 brute force
//	10,000 - 50,000     inverted-file flat (nlist = round(4*sqrt(n)))
//	50,000 - 100,000    8-bit scalar-quantized flat
//	100,000 - 200,000   HNSW graph (M=16, efSearch=40)
//	200,000 - 500,000   IVF + product quantization (8 subquantizers)
//	500,000 - 1,000,000 OPQ-rotated product quantization (16 subquantizers)
//	> 1,000,000         OPQ rotation + IVF + PQ (hierarchical)
//
// Every strategy answers the same question - the k nearest stored vectors to
// a query, with raw L2 distances - behind the VectorIndex interface.
package words

import (
	"fmt"
	"math"
)

// IndexStrategy enumerates the vector index structures the semantic index
// can be built on.
type IndexStrategy uint8

const (
	// StrategyFlatL2 is exhaustive brute-force search. Perfect recall,
	// O(n) per query.
	StrategyFlatL2 IndexStrategy = iota

	// StrategyIVFFlat partitions the space into nlist Voronoi cells via
	// k-means and scans only the nearest nprobe cells.
	StrategyIVFFlat

	// StrategyInt8 is a flat scan over 8-bit scalar-quantized vectors:
	// a quarter of the memory of float32 with near-identical ranking.
	StrategyInt8

	// StrategyHNSW is a hierarchical navigable small world graph:
	// O(log n) search with high recall.
	StrategyHNSW

	// StrategyIVFPQ combines IVF cells with product-quantized residual
	// codes for large corpora.
	StrategyIVFPQ

	// StrategyOPQPQ learns an orthonormal rotation of the embedding space
	// before product quantization, reducing quantization error.
	StrategyOPQPQ

	// StrategyOPQIVFPQ applies the learned rotation and then IVF + PQ:
	// the hierarchical arrangement for corpora beyond a million words.
	StrategyOPQIVFPQ
)

// String returns the strategy name used in descriptors and artifacts.
func (s IndexStrategy) String() string {
	switch s {
	case StrategyFlatL2:
		return "flat_l2"
	case StrategyIVFFlat:
		return "ivf_flat"
	case StrategyInt8:
		return "int8_flat"
	case StrategyHNSW:
		return "hnsw"
	case StrategyIVFPQ:
		return "ivf_pq"
	case StrategyOPQPQ:
		return "opq_pq"
	case StrategyOPQIVFPQ:
		return "opq_ivf_pq"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// IndexParams carries the per-strategy tuning parameters. Zero values mean
// the parameter is unused by that strategy.
type IndexParams struct {
	// NList is the number of IVF cells.
	NList int

	// NProbe is how many cells IVF search scans. Defaults to sqrt(NList).
	NProbe int

	// M is the HNSW connections-per-layer parameter.
	M int

	// EfConstruction is the HNSW build-time candidate list size.
	EfConstruction int

	// EfSearch is the HNSW query-time candidate list size.
	EfSearch int

	// Subquantizers is the PQ subspace count.
	Subquantizers int
}

// IndexDescriptor pins down everything needed to rebuild or validate a
// semantic index: the strategy, its parameters, and the embedding space it
// was built in. A snapshot is never queried with a mismatched embedding
// space: both ModelID and Dim must match the live embedder.
type IndexDescriptor struct {
	Strategy IndexStrategy
	Params   IndexParams
	Dim      int
	ModelID  string
}

// ivfCells returns the IVF cell count for a corpus of n vectors,
// round(4*sqrt(n)), clamped to at least 1.
func ivfCells(n int) int {
	c := int(math.Round(4 * math.Sqrt(float64(n))))
	if c < 1 {
		c = 1
	}
	return c
}

// selectIndexDescriptor chooses the index strategy for a vocabulary of n
// words embedded at the given dimension. The size boundaries are fixed
// policy; see the package comment for the table.
func selectIndexDescriptor(n, dim int, modelID string) IndexDescriptor {
	desc := IndexDescriptor{Dim: dim, ModelID: modelID}

	switch {
	case n < 10_000:
		desc.Strategy = StrategyFlatL2
	case n < 50_000:
		desc.Strategy = StrategyIVFFlat
		desc.Params.NList = ivfCells(n)
	case n < 100_000:
		desc.Strategy = StrategyInt8
	case n < 200_000:
		desc.Strategy = StrategyHNSW
		desc.Params.M = 16
		desc.Params.EfConstruction = 200
		desc.Params.EfSearch = 40
	case n < 500_000:
		desc.Strategy = StrategyIVFPQ
		desc.Params.NList = ivfCells(n)
		desc.Params.Subquantizers = 8
	case n < 1_000_000:
		desc.Strategy = StrategyOPQPQ
		desc.Params.Subquantizers = 16
	default:
		desc.Strategy = StrategyOPQIVFPQ
		desc.Params.NList = ivfCells(n)
		desc.Params.Subquantizers = 16
	}

	return desc
}

// Neighbor is one k-nearest-neighbor hit: a stored vector's ID (the word's
// vocabulary index) and its raw L2 distance from the query.
type Neighbor struct {
	ID       uint32
	Distance float32
}

// VectorIndex is the contract every strategy implements.
//
// Usage is build-once: Train on the full matrix (a no-op for strategies
// without a learning phase), Add every vector, then Search concurrently.
// Indexes are never mutated after the snapshot holding them is published.
type VectorIndex interface {
	// Train learns any data-dependent structure (centroids, codebooks,
	// rotations) from the full vector set.
	Train(vectors [][]float32) error

	// Add stores one vector under the given ID. Strategies with a
	// training phase reject Add before Train.
	Add(id uint32, vector []float32) error

	// Search returns the k nearest stored vectors to the query, nearest
	// first, with raw L2 distances.
	Search(query []float32, k int) ([]Neighbor, error)

	// Strategy identifies the index structure.
	Strategy() IndexStrategy

	// Dimensions returns the vector dimensionality.
	Dimensions() int

	// Trained reports whether the index is ready to accept vectors.
	Trained() bool
}

// newVectorIndex constructs an empty index for a descriptor.
func newVectorIndex(desc IndexDescriptor) (VectorIndex, error) {
	if desc.Dim <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", desc.Dim)
	}

	switch desc.Strategy {
	case StrategyFlatL2:
		return newFlatIndex(desc.Dim), nil
	case StrategyInt8:
		return newInt8FlatIndex(desc.Dim), nil
	case StrategyIVFFlat:
		return newIVFFlatIndex(desc.Dim, desc.Params.NList, desc.Params.NProbe)
	case StrategyHNSW:
		return newHNSWIndex(desc.Dim, desc.Params.M, desc.Params.EfConstruction, desc.Params.EfSearch)
	case StrategyIVFPQ:
		return newIVFPQIndex(desc.Dim, desc.Params.NList, desc.Params.NProbe, desc.Params.Subquantizers)
	case StrategyOPQPQ:
		return newOPQIndex(desc.Dim, desc.Params.Subquantizers, false, desc.Params.NList, desc.Params.NProbe)
	case StrategyOPQIVFPQ:
		return newOPQIndex(desc.Dim, desc.Params.Subquantizers, true, desc.Params.NList, desc.Params.NProbe)
	default:
		return nil, fmt.Errorf("unknown index strategy %v", desc.Strategy)
	}
}

// buildVectorIndex trains an index on the full matrix and adds every vector,
// using the row position as the vector ID (the word's vocabulary index).
func buildVectorIndex(desc IndexDescriptor, vectors [][]float32) (VectorIndex, error) {
	idx, err := newVectorIndex(desc)
	if err != nil {
		return nil, err
	}
	if err := idx.Train(vectors); err != nil {
		return nil, fmt.Errorf("train %v index: %w", desc.Strategy, err)
	}
	for i, v := range vectors {
		if err := idx.Add(uint32(i), v); err != nil {
			return nil, fmt.Errorf("add vector %d to %v index: %w", i, desc.Strategy, err)
		}
	}
	return idx, nil
}
