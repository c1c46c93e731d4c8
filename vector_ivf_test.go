package words

import "testing"

// clusteredVectors builds two well-separated groups of points.
func clusteredVectors() [][]float32 {
	return [][]float32{
		{0, 0}, {0.2, 0}, {0, 0.2}, {0.1, 0.1},
		{10, 10}, {10.2, 10}, {10, 10.2}, {10.1, 10.1},
	}
}

func TestIVFFlatIndexSearch(t *testing.T) {
	vectors := clusteredVectors()

	idx, err := newIVFFlatIndex(2, 2, 2)
	if err != nil {
		t.Fatalf("newIVFFlatIndex() error = %v", err)
	}
	if err := idx.Train(vectors); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	for i, v := range vectors {
		if err := idx.Add(uint32(i), v); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	// nprobe covers every cell, so recall is exact.
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

func TestIVFFlatIndexClampsCells(t *testing.T) {
	idx, err := newIVFFlatIndex(2, 100, 0)
	if err != nil {
		t.Fatalf("newIVFFlatIndex() error = %v", err)
	}

	// Only 3 training vectors for 100 requested cells.
	vectors := [][]float32{{0, 0}, {1, 1}, {2, 2}}
	if err := idx.Train(vectors); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if idx.nlist > 3 {
		t.Errorf("nlist = %d after training on 3 vectors", idx.nlist)
	}

	for i, v := range vectors {
		if err := idx.Add(uint32(i), v); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}
	if _, err := idx.Search([]float32{0, 0}, 1); err != nil {
		t.Errorf("Search() error = %v", err)
	}
}

func TestIVFFlatIndexRequiresTraining(t *testing.T) {
	idx, err := newIVFFlatIndex(2, 4, 0)
	if err != nil {
		t.Fatalf("newIVFFlatIndex() error = %v", err)
	}
	if err := idx.Add(0, []float32{1, 2}); err == nil {
		t.Error("expected error adding before training")
	}
	if _, err := idx.Search([]float32{1, 2}, 1); err == nil {
		t.Error("expected error searching before training")
	}
}

func TestDefaultNProbe(t *testing.T) {
	tests := []struct {
		nlist int
		want  int
	}{
		{1, 1},
		{4, 2},
		{16, 4},
		{100, 10},
		{90, 10}, // ceil(sqrt(90))
	}
	for _, tt := range tests {
		if got := defaultNProbe(tt.nlist); got != tt.want {
			t.Errorf("defaultNProbe(%d) = %d, want %d", tt.nlist, got, tt.want)
		}
	}
}
