package words

import "testing"

func TestConsonantSignature(t *testing.T) {
	tests := []struct {
		word string
		want string
	}{
		{"cat", "kt"},
		{"kat", "kt"}, // c folds to k
		{"seat", "st"},
		{"book", "bk"},
		{"aeiou", ""}, // all vowels collapse to the empty bucket
		{"vowel", "fl"}, // v and w both fold to f and collapse
		{"mississippi", "msp"}, // repeats collapse
	}

	for _, tt := range tests {
		if got := consonantSignature(tt.word); got != tt.want {
			t.Errorf("consonantSignature(%q) = %q, want %q", tt.word, got, tt.want)
		}
	}
}

func TestFuzzyIndexFindsMisspellings(t *testing.T) {
	vocab := NewVocabulary([]string{"cat", "dog", "bird", "category", "boat"})
	idx := NewFuzzyIndex(vocab)

	results := idx.Search("kat", 10, 0.5)
	if len(results) == 0 {
		t.Fatal("Search(kat) returned nothing")
	}

	found := false
	for _, r := range results {
		if r.Word == "cat" {
			found = true
			if r.Score <= 0.5 {
				t.Errorf("cat scored %v, want > 0.5", r.Score)
			}
		}
		if r.Word == "dog" {
			t.Error("dog should not match kat")
		}
		if r.Method != MethodFuzzy {
			t.Errorf("result %q Method = %v, want fuzzy", r.Word, r.Method)
		}
	}
	if !found {
		t.Error("cat not found for query kat")
	}
}

func TestFuzzyIndexScoreOrdering(t *testing.T) {
	vocab := NewVocabulary([]string{"running", "runner", "runs", "jumped"})
	idx := NewFuzzyIndex(vocab)

	results := idx.Search("runing", 10, 0.0)
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not sorted: %v before %v", results[i-1], results[i])
		}
	}
}

func TestFuzzyIndexMaxResults(t *testing.T) {
	vocab := NewVocabulary([]string{"cart", "card", "care", "cars", "carp", "carb"})
	idx := NewFuzzyIndex(vocab)

	results := idx.Search("car", 3, 0.0)
	if len(results) > 3 {
		t.Errorf("got %d results, want at most 3", len(results))
	}
}

func TestFuzzyIndexMultiwordBucketing(t *testing.T) {
	vocab := NewVocabulary([]string{"ice cream", "screen door", "dog"})
	idx := NewFuzzyIndex(vocab)

	// A query matching one token of a phrase must surface the phrase as a
	// candidate even when total lengths differ wildly.
	if n := idx.CandidateCount("kream"); n == 0 {
		t.Error("phrase token did not land in any candidate bucket")
	}

	results := idx.Search("ice kream", 10, 0.5)
	found := false
	for _, r := range results {
		if r.Word == "ice cream" {
			found = true
		}
	}
	if !found {
		t.Error("ice cream not found for query 'ice kream'")
	}
}

func TestFuzzyIndexEmptyQuery(t *testing.T) {
	vocab := NewVocabulary([]string{"cat"})
	idx := NewFuzzyIndex(vocab)
	if got := idx.Search("", 10, 0.0); got != nil {
		t.Errorf("Search(\"\") = %v, want nil", got)
	}
}

func TestLengthCorrection(t *testing.T) {
	if got := lengthCorrection(5, 5); got != 1.0 {
		t.Errorf("equal lengths: correction = %v, want 1.0", got)
	}
	if lengthCorrection(3, 10) >= lengthCorrection(3, 5) {
		t.Error("correction must decrease with larger length difference")
	}
}
