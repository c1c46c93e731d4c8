// IVFPQ strategy: IVF cell partitioning with PQ-compressed residuals.
//
// HOW IVFPQ WORKS:
// A coarse k-means quantizer splits the space into nlist cells, exactly as
// in IVFFlat. Inside each cell, vectors are stored as PQ codes of their
// RESIDUAL (vector minus cell centroid) rather than the raw vector -
// residuals cluster tightly around zero, so the same codebook budget
// quantizes them far more accurately. Search visits the nprobe nearest
// cells, recomputes a distance table per cell against the query's residual,
// and scores each code with ADC lookups.
package words

import "fmt"

var _ VectorIndex = (*ivfpqIndex)(nil)

type ivfpqIndex struct {
	dim    int
	nlist  int
	nprobe int
	pq     *productQuantizer

	trained   bool
	centroids [][]float32

	// Per-cell inverted lists of IDs and residual PQ codes.
	listIDs   [][]uint32
	listCodes [][][]uint8
}

func newIVFPQIndex(dim, nlist, nprobe, subquantizers int) (*ivfpqIndex, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid dimension %d", dim)
	}
	if nlist <= 0 {
		return nil, fmt.Errorf("invalid cell count %d", nlist)
	}
	if nprobe <= 0 {
		nprobe = defaultNProbe(nlist)
	}
	return &ivfpqIndex{
		dim:    dim,
		nlist:  nlist,
		nprobe: nprobe,
		pq:     newProductQuantizer(dim, subquantizers),
	}, nil
}

// residual returns vector - centroid.
func residual(vector, centroid []float32) []float32 {
	r := make([]float32, len(vector))
	for i := range vector {
		r[i] = vector[i] - centroid[i]
	}
	return r
}

// Train learns the coarse cells, then trains the product quantizer on the
// residuals of the training vectors from their assigned cells.
func (idx *ivfpqIndex) Train(vectors [][]float32) error {
	if len(vectors) == 0 {
		return fmt.Errorf("cannot train on empty set")
	}
	nlist := idx.nlist
	if nlist > len(vectors) {
		nlist = len(vectors)
	}

	centroids, assignments := kmeans(vectors, nlist, defaultKMeansIterations)
	residuals := make([][]float32, len(vectors))
	for i, v := range vectors {
		residuals[i] = residual(v, centroids[assignments[i]])
	}
	if err := idx.pq.train(residuals); err != nil {
		return err
	}

	idx.centroids = centroids
	idx.listIDs = make([][]uint32, len(centroids))
	idx.listCodes = make([][][]uint8, len(centroids))
	idx.trained = true
	return nil
}

func (idx *ivfpqIndex) Add(id uint32, vector []float32) error {
	if !idx.trained {
		return fmt.Errorf("index must be trained before adding vectors")
	}
	if len(vector) != idx.dim {
		return fmt.Errorf("vector dimension mismatch: expected %d, got %d", idx.dim, len(vector))
	}
	cell := nearestCentroid(vector, idx.centroids)
	idx.listIDs[cell] = append(idx.listIDs[cell], id)
	idx.listCodes[cell] = append(idx.listCodes[cell], idx.pq.encode(residual(vector, idx.centroids[cell])))
	return nil
}

func (idx *ivfpqIndex) Search(query []float32, k int) ([]Neighbor, error) {
	if !idx.trained {
		return nil, fmt.Errorf("index must be trained before searching")
	}
	if len(query) != idx.dim {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", idx.dim, len(query))
	}

	var neighbors []Neighbor
	for _, cell := range nearestCentroids(query, idx.centroids, idx.nprobe) {
		if len(idx.listIDs[cell]) == 0 {
			continue
		}
		// Distance tables are per cell: codes encode residuals from this
		// cell's centroid, so the query must be reduced the same way.
		table := idx.pq.distanceTable(residual(query, idx.centroids[cell]))
		for i, code := range idx.listCodes[cell] {
			neighbors = append(neighbors, Neighbor{
				ID:       idx.listIDs[cell][i],
				Distance: sqrt32(idx.pq.adcDistance(table, code)),
			})
		}
	}
	return topNeighbors(neighbors, k), nil
}

func (idx *ivfpqIndex) Strategy() IndexStrategy { return StrategyIVFPQ }
func (idx *ivfpqIndex) Dimensions() int         { return idx.dim }
func (idx *ivfpqIndex) Trained() bool           { return idx.trained }
