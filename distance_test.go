package words

import (
	"math"
	"testing"
)

func TestEuclidean(t *testing.T) {
	tests := []struct {
		a, b []float32
		want float32
	}{
		{[]float32{0, 0}, []float32{3, 4}, 5},
		{[]float32{1, 1}, []float32{1, 1}, 0},
		{[]float32{-1, 0}, []float32{1, 0}, 2},
	}

	for _, tt := range tests {
		if got := euclidean(tt.a, tt.b); math.Abs(float64(got-tt.want)) > 1e-6 {
			t.Errorf("euclidean(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
		if got := squaredEuclidean(tt.a, tt.b); math.Abs(float64(got-tt.want*tt.want)) > 1e-5 {
			t.Errorf("squaredEuclidean(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want*tt.want)
		}
	}
}

func TestDistanceToScore(t *testing.T) {
	if got := distanceToScore(0); got != 1.0 {
		t.Errorf("distanceToScore(0) = %v, want 1.0", got)
	}
	if got := distanceToScore(1); got != 0.5 {
		t.Errorf("distanceToScore(1) = %v, want 0.5", got)
	}
	if got := distanceToScore(-0.5); got != 1.0 {
		t.Errorf("negative distance clamps to score 1.0, got %v", got)
	}

	// Monotonically decreasing, bounded in (0, 1].
	prev := 2.0
	for _, d := range []float32{0, 0.1, 0.5, 1, 10, 1000} {
		s := distanceToScore(d)
		if s <= 0 || s > 1 {
			t.Errorf("distanceToScore(%v) = %v outside (0, 1]", d, s)
		}
		if s >= prev {
			t.Errorf("distanceToScore not decreasing at %v", d)
		}
		prev = s
	}
}
