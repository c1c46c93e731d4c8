// Product quantization (PQ) strategy.
//
// HOW PQ WORKS:
// Each vector is split into m subvectors. A separate k-means codebook (256
// centroids) is trained per subspace, and a vector is stored as m one-byte
// centroid IDs instead of dim float32s - a 128-dim vector compresses from
// 512 bytes to 16. Search precomputes a table of query-to-centroid distances
// per subspace, then scores every code with m table lookups (asymmetric
// distance computation), never reconstructing the stored vectors.
package words

import "fmt"

var _ VectorIndex = (*pqIndex)(nil)

// pqCentroidsPerSubspace is ksub, the codebook size per subspace. One byte
// per code constrains it to 256.
const pqCentroidsPerSubspace = 256

// adjustSubquantizers returns the largest m' <= m that divides dim evenly,
// so every subspace gets the same width.
func adjustSubquantizers(dim, m int) int {
	if m <= 0 {
		m = 8
	}
	if m > dim {
		m = dim
	}
	for dim%m != 0 {
		m--
	}
	return m
}

// productQuantizer holds the trained per-subspace codebooks and performs
// encoding and ADC scoring. Shared by the PQ, IVFPQ and OPQ strategies.
type productQuantizer struct {
	dim  int
	m    int // subquantizer count
	dsub int // width of each subspace: dim / m
	ksub int // centroids per subspace

	// codebooks[s][c] is centroid c of subspace s, length dsub.
	codebooks [][][]float32
}

func newProductQuantizer(dim, m int) *productQuantizer {
	m = adjustSubquantizers(dim, m)
	return &productQuantizer{dim: dim, m: m, dsub: dim / m}
}

func (pq *productQuantizer) trained() bool { return pq.codebooks != nil }

// train learns one k-means codebook per subspace from the sample vectors.
func (pq *productQuantizer) train(vectors [][]float32) error {
	if len(vectors) == 0 {
		return fmt.Errorf("cannot train product quantizer on empty set")
	}
	pq.ksub = pqCentroidsPerSubspace
	if len(vectors) < pq.ksub {
		pq.ksub = len(vectors)
	}

	pq.codebooks = make([][][]float32, pq.m)
	sub := make([][]float32, len(vectors))
	for s := 0; s < pq.m; s++ {
		start := s * pq.dsub
		for i, v := range vectors {
			sub[i] = v[start : start+pq.dsub]
		}
		centroids, _ := kmeans(sub, pq.ksub, defaultKMeansIterations)
		pq.codebooks[s] = centroids
	}
	return nil
}

// encode maps a vector to its m-byte code.
func (pq *productQuantizer) encode(vector []float32) []uint8 {
	code := make([]uint8, pq.m)
	for s := 0; s < pq.m; s++ {
		start := s * pq.dsub
		code[s] = uint8(nearestCentroid(vector[start:start+pq.dsub], pq.codebooks[s]))
	}
	return code
}

// distanceTable precomputes squared distances from the query's subvectors to
// every centroid: table[s][c] = ||query_s - codebook[s][c]||^2.
func (pq *productQuantizer) distanceTable(query []float32) [][]float32 {
	table := make([][]float32, pq.m)
	for s := 0; s < pq.m; s++ {
		start := s * pq.dsub
		qs := query[start : start+pq.dsub]
		row := make([]float32, len(pq.codebooks[s]))
		for c, centroid := range pq.codebooks[s] {
			row[c] = squaredEuclidean(qs, centroid)
		}
		table[s] = row
	}
	return table
}

// adcDistance sums the table entries selected by a code: the squared
// distance between the query and the code's reconstruction.
func (pq *productQuantizer) adcDistance(table [][]float32, code []uint8) float32 {
	var sum float32
	for s, c := range code {
		sum += table[s][c]
	}
	return sum
}

// pqIndex is the flat PQ strategy: every code lives in one list and Search
// scans all of them via the distance table.
type pqIndex struct {
	dim   int
	pq    *productQuantizer
	ids   []uint32
	codes [][]uint8
}

func newPQIndex(dim, subquantizers int) (*pqIndex, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid dimension %d", dim)
	}
	return &pqIndex{dim: dim, pq: newProductQuantizer(dim, subquantizers)}, nil
}

func (idx *pqIndex) Train(vectors [][]float32) error {
	return idx.pq.train(vectors)
}

func (idx *pqIndex) Add(id uint32, vector []float32) error {
	if !idx.pq.trained() {
		return fmt.Errorf("index must be trained before adding vectors")
	}
	if len(vector) != idx.dim {
		return fmt.Errorf("vector dimension mismatch: expected %d, got %d", idx.dim, len(vector))
	}
	idx.ids = append(idx.ids, id)
	idx.codes = append(idx.codes, idx.pq.encode(vector))
	return nil
}

func (idx *pqIndex) Search(query []float32, k int) ([]Neighbor, error) {
	if !idx.pq.trained() {
		return nil, fmt.Errorf("index must be trained before searching")
	}
	if len(query) != idx.dim {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", idx.dim, len(query))
	}
	table := idx.pq.distanceTable(query)
	neighbors := make([]Neighbor, len(idx.codes))
	for i, code := range idx.codes {
		neighbors[i] = Neighbor{ID: idx.ids[i], Distance: sqrt32(idx.pq.adcDistance(table, code))}
	}
	return topNeighbors(neighbors, k), nil
}

// Strategy reports the OPQ-flat strategy: a bare pqIndex is only ever built
// as the inner index of an opqIndex, which reports itself.
func (idx *pqIndex) Strategy() IndexStrategy { return StrategyOPQPQ }
func (idx *pqIndex) Dimensions() int         { return idx.dim }
func (idx *pqIndex) Trained() bool           { return idx.pq.trained() }
