package words

import (
	"context"
	"strings"
	"testing"
)

func TestBuildSemanticIndexSmallCorpus(t *testing.T) {
	embedder := newMockEmbedder(8)
	vocab := NewVocabulary([]string{"apple", "banana", "cherry"})

	idx, err := BuildSemanticIndex(context.Background(), vocab, embedder)
	if err != nil {
		t.Fatalf("BuildSemanticIndex() error = %v", err)
	}

	desc := idx.Descriptor()
	if desc.Strategy != StrategyFlatL2 {
		t.Errorf("small corpus strategy = %v, want flat_l2", desc.Strategy)
	}
	if desc.ModelID != embedder.ModelID() || desc.Dim != 8 {
		t.Errorf("descriptor = %+v, embedding space identity lost", desc)
	}
}

func TestSemanticIndexSearch(t *testing.T) {
	embedder := newMockEmbedder(2)
	embedder.vectors = map[string][]float32{
		"ocean": {1, 0},
		"sea":   {0.95, 0},
		"desk":  {0, 1},
	}
	vocab := NewVocabulary([]string{"sea", "desk"})

	idx, err := BuildSemanticIndex(context.Background(), vocab, embedder)
	if err != nil {
		t.Fatalf("BuildSemanticIndex() error = %v", err)
	}

	results, err := idx.Search(context.Background(), "ocean", 2, 0.0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Word != "sea" {
		t.Errorf("top result = %q, want sea", results[0].Word)
	}
	if results[0].Method != MethodSemantic {
		t.Errorf("Method = %v, want semantic", results[0].Method)
	}
	if results[0].Score <= results[1].Score {
		t.Error("results not ordered by score")
	}
}

func TestSemanticIndexMinScoreFilter(t *testing.T) {
	embedder := newMockEmbedder(2)
	embedder.vectors = map[string][]float32{
		"near": {1, 0},
		"far":  {100, 100},
		"here": {0.9, 0},
	}
	vocab := NewVocabulary([]string{"here", "far"})

	idx, err := BuildSemanticIndex(context.Background(), vocab, embedder)
	if err != nil {
		t.Fatalf("BuildSemanticIndex() error = %v", err)
	}

	results, err := idx.Search(context.Background(), "near", 10, 0.5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	for _, r := range results {
		if r.Word == "far" {
			t.Error("far survived the min-score filter")
		}
		if r.Score < 0.5 {
			t.Errorf("result %q scored %v below the floor", r.Word, r.Score)
		}
	}
}

func TestSemanticIndexRejectsMismatchedEmbedder(t *testing.T) {
	builder := newMockEmbedder(4)
	vocab := NewVocabulary([]string{"one", "two"})

	idx, err := BuildSemanticIndex(context.Background(), vocab, builder)
	if err != nil {
		t.Fatalf("BuildSemanticIndex() error = %v", err)
	}

	tests := []struct {
		name     string
		embedder *mockEmbedder
	}{
		{"different model", &mockEmbedder{dim: 4, model: "other-model"}},
		{"different dimension", &mockEmbedder{dim: 8, model: builder.model}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := newSemanticIndex(vocab, idx.Descriptor(), idx.vectors, tt.embedder); err == nil {
				t.Error("expected mismatch error")
			} else if !strings.Contains(err.Error(), "mismatch") {
				t.Errorf("error %q does not name the mismatch", err)
			}
		})
	}
}

func TestBuildSemanticIndexEmptyVocabulary(t *testing.T) {
	if _, err := BuildSemanticIndex(context.Background(), NewVocabulary(nil), newMockEmbedder(4)); err == nil {
		t.Error("expected error for empty vocabulary")
	}
}
