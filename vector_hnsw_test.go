package words

import (
	"fmt"
	"testing"
)

func TestHNSWIndexFindsNearest(t *testing.T) {
	idx, err := newHNSWIndex(2, 4, 32, 32)
	if err != nil {
		t.Fatalf("newHNSWIndex() error = %v", err)
	}

	// A grid of points; small enough that ef covers the whole set and
	// recall is exact.
	var id uint32
	for x := 0; x < 5; x++ {
		for y := 0; y < 5; y++ {
			if err := idx.Add(id, []float32{float32(x), float32(y)}); err != nil {
				t.Fatalf("Add() error = %v", err)
			}
			id++
		}
	}

	got, err := idx.Search([]float32{2.1, 3.1}, 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d neighbors, want 1", len(got))
	}
	// (2,3) is point 2*5+3 = 13.
	if got[0].ID != 13 {
		t.Errorf("nearest = %d, want 13", got[0].ID)
	}
}

func TestHNSWIndexSelfRetrieval(t *testing.T) {
	idx, err := newHNSWIndex(3, 8, 64, 64)
	if err != nil {
		t.Fatalf("newHNSWIndex() error = %v", err)
	}

	vectors := make([][]float32, 30)
	for i := range vectors {
		vectors[i] = hashVector(fmt.Sprintf("word-%d", i), 3)
		if err := idx.Add(uint32(i), vectors[i]); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	// Querying with a stored vector must return it at distance 0.
	for i, v := range vectors {
		got, err := idx.Search(v, 1)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(got) != 1 || got[0].ID != uint32(i) {
			t.Errorf("self query %d returned %v", i, got)
		}
		if got[0].Distance != 0 {
			t.Errorf("self distance = %v, want 0", got[0].Distance)
		}
	}
}

func TestHNSWIndexEmptyAndDuplicates(t *testing.T) {
	idx, err := newHNSWIndex(2, 4, 16, 16)
	if err != nil {
		t.Fatalf("newHNSWIndex() error = %v", err)
	}

	got, err := idx.Search([]float32{0, 0}, 5)
	if err != nil {
		t.Fatalf("Search() on empty index error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("empty index returned %d neighbors", len(got))
	}

	if err := idx.Add(7, []float32{1, 1}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := idx.Add(7, []float32{2, 2}); err == nil {
		t.Error("expected error on duplicate ID")
	}
}

func TestHNSWRandomLevelBounded(t *testing.T) {
	idx, err := newHNSWIndex(2, 16, 200, 40)
	if err != nil {
		t.Fatalf("newHNSWIndex() error = %v", err)
	}
	for i := 0; i < 10_000; i++ {
		if l := idx.randomLevel(); l < 0 || l > hnswMaxLevel {
			t.Fatalf("randomLevel() = %d out of [0, %d]", l, hnswMaxLevel)
		}
	}
}
