// Package words implements the inverted-file (IVF) flat index strategy.
//
// HOW IVF WORKS:
// Training runs k-means over the full vector set to learn nlist centroids,
// which partition the space into Voronoi cells. Each vector is stored in the
// inverted list of its nearest centroid. A query first ranks the centroids,
// then scans only the vectors in the nprobe nearest cells.
//
// nprobe is the recall/speed dial: 1 is fastest with the lowest recall,
// nlist degenerates to a flat scan. The default, sqrt(nlist), is a good
// balance for vocabulary-scale corpora.
package words

import "fmt"

var _ VectorIndex = (*ivfFlatIndex)(nil)

// ivfFlatIndex partitions vectors into nlist cells and scans nprobe of them
// per query.
type ivfFlatIndex struct {
	dim     int
	nlist   int
	nprobe  int
	trained bool

	centroids [][]float32

	// listIDs[c] and listVectors[c] hold the vectors assigned to cell c.
	listIDs     [][]uint32
	listVectors [][][]float32
}

func newIVFFlatIndex(dim, nlist, nprobe int) (*ivfFlatIndex, error) {
	if nlist <= 0 {
		return nil, fmt.Errorf("nlist must be positive, got %d", nlist)
	}
	if nprobe <= 0 {
		nprobe = defaultNProbe(nlist)
	}
	return &ivfFlatIndex{
		dim:         dim,
		nlist:       nlist,
		nprobe:      nprobe,
		listIDs:     make([][]uint32, nlist),
		listVectors: make([][][]float32, nlist),
	}, nil
}

// defaultNProbe is sqrt(nlist), clamped to at least 1.
func defaultNProbe(nlist int) int {
	p := 1
	for p*p < nlist {
		p++
	}
	if p < 1 {
		p = 1
	}
	return p
}

// Train learns the cell centroids with k-means. The training set is the full
// vocabulary matrix, so the cells reflect the real distribution.
func (idx *ivfFlatIndex) Train(vectors [][]float32) error {
	if len(vectors) < idx.nlist {
		// Fewer vectors than requested cells: clamp rather than fail, the
		// selection table can land here for corpora near a boundary.
		idx.nlist = len(vectors)
		idx.listIDs = make([][]uint32, idx.nlist)
		idx.listVectors = make([][][]float32, idx.nlist)
		if idx.nprobe > idx.nlist {
			idx.nprobe = idx.nlist
		}
	}
	if idx.nlist == 0 {
		return fmt.Errorf("cannot train IVF index on empty vector set")
	}

	centroids, _ := kmeans(vectors, idx.nlist, defaultKMeansIterations)
	if centroids == nil {
		return fmt.Errorf("k-means failed for %d cells", idx.nlist)
	}
	idx.centroids = centroids
	idx.nlist = len(centroids)
	idx.trained = true
	return nil
}

// Add assigns the vector to its nearest cell's inverted list.
//
// Time Complexity: O(nlist*dim).
func (idx *ivfFlatIndex) Add(id uint32, vector []float32) error {
	if !idx.trained {
		return fmt.Errorf("IVF index must be trained before adding vectors")
	}
	if len(vector) != idx.dim {
		return fmt.Errorf("vector dimension mismatch: expected %d, got %d", idx.dim, len(vector))
	}

	c := nearestCentroid(vector, idx.centroids)
	idx.listIDs[c] = append(idx.listIDs[c], id)
	idx.listVectors[c] = append(idx.listVectors[c], vector)
	return nil
}

// Search ranks centroids, scans the nprobe nearest cells, and returns the k
// nearest vectors found.
func (idx *ivfFlatIndex) Search(query []float32, k int) ([]Neighbor, error) {
	if !idx.trained {
		return nil, fmt.Errorf("IVF index searched before training")
	}
	if len(query) != idx.dim {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", idx.dim, len(query))
	}

	cells := nearestCentroids(query, idx.centroids, idx.nprobe)

	var neighbors []Neighbor
	for _, c := range cells {
		for i, v := range idx.listVectors[c] {
			neighbors = append(neighbors, Neighbor{
				ID:       idx.listIDs[c][i],
				Distance: euclidean(query, v),
			})
		}
	}
	return topNeighbors(neighbors, k), nil
}

func (idx *ivfFlatIndex) Strategy() IndexStrategy { return StrategyIVFFlat }
func (idx *ivfFlatIndex) Dimensions() int         { return idx.dim }
func (idx *ivfFlatIndex) Trained() bool           { return idx.trained }
