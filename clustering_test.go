package words

import "testing"

func TestKMeansSeparatesClusters(t *testing.T) {
	// Two tight clusters far apart.
	vectors := [][]float32{
		{0, 0}, {0.1, 0}, {0, 0.1},
		{10, 10}, {10.1, 10}, {10, 10.1},
	}

	centroids, assignments := kmeans(vectors, 2, defaultKMeansIterations)
	if len(centroids) != 2 {
		t.Fatalf("got %d centroids, want 2", len(centroids))
	}

	// All points in the same cluster must share an assignment, and the two
	// clusters must not share one.
	if assignments[0] != assignments[1] || assignments[1] != assignments[2] {
		t.Errorf("first cluster split: %v", assignments[:3])
	}
	if assignments[3] != assignments[4] || assignments[4] != assignments[5] {
		t.Errorf("second cluster split: %v", assignments[3:])
	}
	if assignments[0] == assignments[3] {
		t.Error("distinct clusters merged")
	}
}

func TestKMeansDeterministic(t *testing.T) {
	vectors := [][]float32{
		{1, 2}, {3, 4}, {5, 6}, {7, 8}, {9, 10}, {11, 12},
	}

	c1, a1 := kmeans(vectors, 3, defaultKMeansIterations)
	c2, a2 := kmeans(vectors, 3, defaultKMeansIterations)

	for i := range a1 {
		if a1[i] != a2[i] {
			t.Fatalf("assignments differ between identical runs at %d", i)
		}
	}
	for i := range c1 {
		for j := range c1[i] {
			if c1[i][j] != c2[i][j] {
				t.Fatalf("centroid %d differs between identical runs", i)
			}
		}
	}
}

func TestNearestCentroids(t *testing.T) {
	centroids := [][]float32{{0, 0}, {5, 0}, {10, 0}}

	got := nearestCentroids([]float32{1, 0}, centroids, 2)
	if len(got) != 2 {
		t.Fatalf("got %d cells, want 2", len(got))
	}
	if got[0] != 0 || got[1] != 1 {
		t.Errorf("nearestCentroids = %v, want [0 1]", got)
	}

	if got := nearestCentroids([]float32{1, 0}, centroids, 10); len(got) != 3 {
		t.Errorf("nprobe above cell count returned %d cells, want 3", len(got))
	}
}
