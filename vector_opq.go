// OPQ (Optimized Product Quantization) strategies.
//
// HOW OPQ WORKS:
// Plain PQ cuts the vector into subspaces along its raw axes, which is
// wasteful when variance is unevenly spread across dimensions. OPQ first
// applies a learned orthonormal rotation R that redistributes variance so
// the subspace cuts lose less information, then quantizes the rotated
// vectors. R is learned by alternating minimization: train a PQ codebook on
// the rotated data, reconstruct each vector from its code, then solve the
// orthogonal Procrustes problem (via SVD) for the rotation that best maps
// the originals onto the reconstructions. A handful of rounds converges.
//
// The rotation wraps either a flat PQ index (500k-1M words) or an IVFPQ
// index (above 1M): queries and vectors are rotated once at the boundary
// and the inner index never knows.
package words

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var _ VectorIndex = (*opqIndex)(nil)

// opqTrainRounds is the number of alternating PQ-train / Procrustes rounds.
const opqTrainRounds = 5

type opqIndex struct {
	dim      int
	strategy IndexStrategy

	// rotation is a dim x dim orthonormal matrix, row-major.
	rotation []float32
	inner    VectorIndex
}

func newOPQIndex(dim, subquantizers int, useIVF bool, nlist, nprobe int) (*opqIndex, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid dimension %d", dim)
	}
	idx := &opqIndex{dim: dim, strategy: StrategyOPQPQ}
	var err error
	if useIVF {
		idx.strategy = StrategyOPQIVFPQ
		idx.inner, err = newIVFPQIndex(dim, nlist, nprobe, subquantizers)
	} else {
		idx.inner, err = newPQIndex(dim, subquantizers)
	}
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// rotate applies the learned rotation to one vector.
func (idx *opqIndex) rotate(v []float32) []float32 {
	out := make([]float32, idx.dim)
	for i := 0; i < idx.dim; i++ {
		row := idx.rotation[i*idx.dim : (i+1)*idx.dim]
		var sum float32
		for j, x := range v {
			sum += row[j] * x
		}
		out[i] = sum
	}
	return out
}

// identityRotation returns the dim x dim identity, row-major.
func identityRotation(dim int) []float32 {
	r := make([]float32, dim*dim)
	for i := 0; i < dim; i++ {
		r[i*dim+i] = 1
	}
	return r
}

// Train learns the rotation by alternating minimization, then trains the
// inner index on the rotated vectors.
func (idx *opqIndex) Train(vectors [][]float32) error {
	if len(vectors) == 0 {
		return fmt.Errorf("cannot train on empty set")
	}
	idx.rotation = identityRotation(idx.dim)

	rotated := make([][]float32, len(vectors))
	for round := 0; round < opqTrainRounds; round++ {
		for i, v := range vectors {
			rotated[i] = idx.rotate(v)
		}
		pq := newProductQuantizer(idx.dim, idx.innerSubquantizers())
		if err := pq.train(rotated); err != nil {
			return err
		}
		idx.rotation = solveProcrustes(vectors, rotated, pq, idx.dim)
	}

	for i, v := range vectors {
		rotated[i] = idx.rotate(v)
	}
	return idx.inner.Train(rotated)
}

// innerSubquantizers mirrors the subquantizer count the inner index was
// configured with, so the rotation is optimized for the same subspace cuts.
func (idx *opqIndex) innerSubquantizers() int {
	switch inner := idx.inner.(type) {
	case *pqIndex:
		return inner.pq.m
	case *ivfpqIndex:
		return inner.pq.m
	}
	return 0
}

// solveProcrustes returns the orthonormal R minimizing the squared error
// between R-rotated originals and their PQ reconstructions. With C = sum of
// y_i * x_i^T and SVD C = U S V^T, the minimizer is R = U V^T.
func solveProcrustes(originals, rotated [][]float32, pq *productQuantizer, dim int) []float32 {
	c := mat.NewDense(dim, dim, nil)
	for i, x := range originals {
		y := pqReconstruct(pq, rotated[i])
		for r := 0; r < dim; r++ {
			for col := 0; col < dim; col++ {
				c.Set(r, col, c.At(r, col)+float64(y[r])*float64(x[col]))
			}
		}
	}

	var svd mat.SVD
	if !svd.Factorize(c, mat.SVDThin) {
		return identityRotation(dim)
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var r mat.Dense
	r.Mul(&u, v.T())

	out := make([]float32, dim*dim)
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			out[i*dim+j] = float32(r.At(i, j))
		}
	}
	return out
}

// pqReconstruct decodes a vector's code back into the quantized
// approximation the codebooks can express.
func pqReconstruct(pq *productQuantizer, vector []float32) []float32 {
	code := pq.encode(vector)
	out := make([]float32, pq.dim)
	for s, c := range code {
		copy(out[s*pq.dsub:(s+1)*pq.dsub], pq.codebooks[s][c])
	}
	return out
}

func (idx *opqIndex) Add(id uint32, vector []float32) error {
	if idx.rotation == nil {
		return fmt.Errorf("index must be trained before adding vectors")
	}
	if len(vector) != idx.dim {
		return fmt.Errorf("vector dimension mismatch: expected %d, got %d", idx.dim, len(vector))
	}
	return idx.inner.Add(id, idx.rotate(vector))
}

func (idx *opqIndex) Search(query []float32, k int) ([]Neighbor, error) {
	if idx.rotation == nil {
		return nil, fmt.Errorf("index must be trained before searching")
	}
	if len(query) != idx.dim {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", idx.dim, len(query))
	}
	// Rotation is orthonormal: L2 distances in rotated space equal those in
	// the original space, so inner distances pass through unchanged.
	return idx.inner.Search(idx.rotate(query), k)
}

func (idx *opqIndex) Strategy() IndexStrategy { return idx.strategy }
func (idx *opqIndex) Dimensions() int         { return idx.dim }
func (idx *opqIndex) Trained() bool           { return idx.inner.Trained() }
