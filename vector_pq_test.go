package words

import "testing"

func TestAdjustSubquantizers(t *testing.T) {
	tests := []struct {
		dim, m, want int
	}{
		{128, 8, 8},
		{128, 16, 16},
		{100, 8, 5},  // 8 and 7,6 do not divide 100
		{100, 16, 10},
		{6, 4, 3},
		{4, 0, 4},  // zero falls back to the default, clamped to dim
		{2, 16, 2}, // m above dim clamps to dim
	}
	for _, tt := range tests {
		if got := adjustSubquantizers(tt.dim, tt.m); got != tt.want {
			t.Errorf("adjustSubquantizers(%d, %d) = %d, want %d", tt.dim, tt.m, got, tt.want)
		}
	}
}

func TestProductQuantizerSmallSetIsLossless(t *testing.T) {
	// With fewer vectors than centroids per subspace, every subvector gets
	// its own centroid and reconstruction is exact.
	vectors := [][]float32{
		{1, 2, 3, 4},
		{5, 6, 7, 8},
		{9, 10, 11, 12},
	}

	pq := newProductQuantizer(4, 2)
	if err := pq.train(vectors); err != nil {
		t.Fatalf("train() error = %v", err)
	}
	if pq.ksub != 3 {
		t.Errorf("ksub = %d, want 3", pq.ksub)
	}

	for i, v := range vectors {
		table := pq.distanceTable(v)
		if d := pq.adcDistance(table, pq.encode(v)); d != 0 {
			t.Errorf("vector %d: self ADC distance = %v, want 0", i, d)
		}
	}
}

func TestPQIndexSearch(t *testing.T) {
	idx, err := newPQIndex(4, 2)
	if err != nil {
		t.Fatalf("newPQIndex() error = %v", err)
	}

	vectors := [][]float32{
		{0, 0, 0, 0},
		{1, 1, 1, 1},
		{5, 5, 5, 5},
	}
	if err := idx.Train(vectors); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	for i, v := range vectors {
		if err := idx.Add(uint32(i), v); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	got, err := idx.Search([]float32{4.8, 4.8, 4.8, 4.8}, 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if got[0].ID != 2 {
		t.Errorf("nearest = %d, want 2", got[0].ID)
	}
}

func TestPQIndexRequiresTraining(t *testing.T) {
	idx, err := newPQIndex(4, 2)
	if err != nil {
		t.Fatalf("newPQIndex() error = %v", err)
	}
	if err := idx.Add(0, []float32{1, 2, 3, 4}); err == nil {
		t.Error("expected error adding before training")
	}
	if _, err := idx.Search([]float32{1, 2, 3, 4}, 1); err == nil {
		t.Error("expected error searching before training")
	}
}

func TestIVFPQIndexSearch(t *testing.T) {
	vectors := clusteredVectors()

	idx, err := newIVFPQIndex(2, 2, 2, 2)
	if err != nil {
		t.Fatalf("newIVFPQIndex() error = %v", err)
	}
	if err := idx.Train(vectors); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	for i, v := range vectors {
		if err := idx.Add(uint32(i), v); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	got, err := idx.Search([]float32{10.05, 10.05}, 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d neighbors, want 2", len(got))
	}
	for _, n := range got {
		if n.ID < 4 {
			t.Errorf("neighbor %d from the far cluster", n.ID)
		}
	}
}
