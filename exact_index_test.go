package words

import "testing"

func TestExactIndexLookup(t *testing.T) {
	vocab := NewVocabulary([]string{"cat", "dog", "bird", "fish"})
	idx := NewExactIndex(vocab)

	// Every vocabulary word must be found at score 1.0.
	for _, w := range vocab.Words() {
		res, ok := idx.Lookup(w)
		if !ok {
			t.Errorf("Lookup(%q) not found", w)
			continue
		}
		if res.Score != 1.0 {
			t.Errorf("Lookup(%q).Score = %v, want 1.0", w, res.Score)
		}
		if res.Method != MethodExact {
			t.Errorf("Lookup(%q).Method = %v, want exact", w, res.Method)
		}
		if res.Word != w {
			t.Errorf("Lookup(%q).Word = %q", w, res.Word)
		}
	}

	for _, q := range []string{"cats", "ca", "wolf", ""} {
		if _, ok := idx.Lookup(q); ok {
			t.Errorf("Lookup(%q) = found, want miss", q)
		}
	}
}

func TestExactFalsePositiveRate(t *testing.T) {
	tests := []struct {
		n    int
		want float64
	}{
		{100, 0.01},
		{9_999, 0.01},
		{10_000, 0.005},
		{99_999, 0.005},
		{100_000, 0.002},
		{999_999, 0.002},
		{1_000_000, 0.001},
		{5_000_000, 0.001},
	}

	for _, tt := range tests {
		if got := exactFalsePositiveRate(tt.n); got != tt.want {
			t.Errorf("exactFalsePositiveRate(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}
