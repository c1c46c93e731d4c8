package words

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestNewVocabularyNormalization(t *testing.T) {
	tests := []struct {
		name string
		raw  []string
		want []string
	}{
		{
			name: "lowercase and sorted",
			raw:  []string{"Banana", "apple", "CHERRY"},
			want: []string{"apple", "banana", "cherry"},
		},
		{
			name: "duplicates collapse after normalization",
			raw:  []string{"Cat", "cat", "CAT"},
			want: []string{"cat"},
		},
		{
			name: "whitespace trimmed and empties dropped",
			raw:  []string{"  dog  ", "", "   "},
			want: []string{"dog"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewVocabulary(tt.raw)
			if !reflect.DeepEqual(v.Words(), tt.want) {
				t.Errorf("Words() = %v, want %v", v.Words(), tt.want)
			}
		})
	}
}

func TestVocabularyHashOrderIndependent(t *testing.T) {
	a := NewVocabulary([]string{"alpha", "beta", "gamma"})
	b := NewVocabulary([]string{"gamma", "alpha", "beta"})
	if a.Hash() != b.Hash() {
		t.Errorf("hashes differ for same content: %s vs %s", a.Hash(), b.Hash())
	}

	c := NewVocabulary([]string{"alpha", "beta", "delta"})
	if a.Hash() == c.Hash() {
		t.Error("hashes equal for different content")
	}
}

func TestVocabularyLookups(t *testing.T) {
	v := NewVocabulary([]string{"cat", "dog", "bird"})

	if !v.Contains("cat") {
		t.Error("Contains(cat) = false, want true")
	}
	if v.Contains("fish") {
		t.Error("Contains(fish) = true, want false")
	}

	i, ok := v.Index("dog")
	if !ok {
		t.Fatal("Index(dog) not found")
	}
	if got := v.Word(i); got != "dog" {
		t.Errorf("Word(Index(dog)) = %q, want %q", got, "dog")
	}
}

func TestFileVocabularyProvider(t *testing.T) {
	dir := t.TempDir()
	content := "apple\nBanana\napple\n\ncherry\n"
	if err := os.WriteFile(filepath.Join(dir, "en.txt"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "de.txt"), []byte("apfel\nbirne\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewFileVocabularyProvider(dir)
	ctx := context.Background()

	v, err := p.Vocabulary(ctx, "en")
	if err != nil {
		t.Fatalf("Vocabulary() error = %v", err)
	}
	want := []string{"apple", "banana", "cherry"}
	if !reflect.DeepEqual(v.Words(), want) {
		t.Errorf("Words() = %v, want %v", v.Words(), want)
	}

	hash, err := p.Hash(ctx, "en")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash != v.Hash() {
		t.Error("provider hash does not match vocabulary hash")
	}

	langs, err := p.Languages()
	if err != nil {
		t.Fatalf("Languages() error = %v", err)
	}
	if !reflect.DeepEqual(langs, []string{"de", "en"}) {
		t.Errorf("Languages() = %v, want [de en]", langs)
	}

	if _, err := p.Vocabulary(ctx, "fr"); err == nil {
		t.Error("expected error for missing language")
	}
}
