// Package words implements vocabulary handling for the search engine.
//
// A Vocabulary is an immutable, ordered set of normalized word strings for a
// single language, paired with a content hash computed over its sorted
// contents. The hash is what the registry polls to detect staleness: two
// vocabularies with the same hash are guaranteed to produce snapshots with
// identical search behavior.
package words

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	unorm "golang.org/x/text/unicode/norm"
)

// NormalizeWord applies Unicode normalization (NFKC) and converts to lowercase.
// All vocabulary words and all queries pass through this before any index
// touches them; the indexes themselves only ever see normalized strings.
func NormalizeWord(s string) string {
	return strings.ToLower(unorm.NFKC.String(strings.TrimSpace(s)))
}

// Vocabulary is an immutable ordered set of normalized words for one language.
//
// Construction normalizes, deduplicates, and sorts the input, so word order
// and the content hash are independent of the order words were supplied in.
type Vocabulary struct {
	words []string
	index map[string]uint32
	hash  string
}

// NewVocabulary builds a vocabulary from raw word strings.
// Empty strings (after normalization) are dropped.
func NewVocabulary(raw []string) *Vocabulary {
	seen := make(map[string]struct{}, len(raw))
	words := make([]string, 0, len(raw))
	for _, w := range raw {
		n := NormalizeWord(w)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		words = append(words, n)
	}
	sort.Strings(words)

	index := make(map[string]uint32, len(words))
	h := sha256.New()
	for i, w := range words {
		index[w] = uint32(i)
		h.Write([]byte(w))
		h.Write([]byte{0})
	}

	return &Vocabulary{
		words: words,
		index: index,
		hash:  hex.EncodeToString(h.Sum(nil)),
	}
}

// Len returns the number of words.
func (v *Vocabulary) Len() int {
	return len(v.words)
}

// Hash returns the content hash over the sorted vocabulary.
func (v *Vocabulary) Hash() string {
	return v.hash
}

// Word returns the word at the given index.
// The index must come from a lookup against this same vocabulary.
func (v *Vocabulary) Word(i uint32) string {
	return v.words[i]
}

// Words returns the underlying sorted word slice.
// Callers must not modify the returned slice.
func (v *Vocabulary) Words() []string {
	return v.words
}

// Index returns the position of a normalized word, or false if absent.
func (v *Vocabulary) Index(word string) (uint32, bool) {
	i, ok := v.index[word]
	return i, ok
}

// Contains reports whether the normalized word is in the vocabulary.
func (v *Vocabulary) Contains(word string) bool {
	_, ok := v.index[word]
	return ok
}

// VocabularyProvider supplies vocabularies for languages. It is the external
// collaborator boundary: the registry never loads word lists itself, it asks
// the provider and compares hashes.
//
// Implementations must be safe for concurrent use.
type VocabularyProvider interface {
	// Vocabulary returns the current vocabulary for a language.
	Vocabulary(ctx context.Context, language string) (*Vocabulary, error)

	// Hash returns the current vocabulary hash for a language without
	// materializing the full word list. Used by the reload poller.
	Hash(ctx context.Context, language string) (string, error)
}

// FileVocabularyProvider reads vocabularies from a directory of plain text
// files, one word per line, named <language>.txt. Used by the CLI and in
// tests; production callers typically supply their own provider backed by
// the corpus management service.
type FileVocabularyProvider struct {
	dir string
}

// NewFileVocabularyProvider reads word lists from dir/<language>.txt.
func NewFileVocabularyProvider(dir string) *FileVocabularyProvider {
	return &FileVocabularyProvider{dir: dir}
}

func (p *FileVocabularyProvider) path(language string) string {
	return filepath.Join(p.dir, language+".txt")
}

// Vocabulary loads and normalizes the word list for a language.
func (p *FileVocabularyProvider) Vocabulary(ctx context.Context, language string) (*Vocabulary, error) {
	f, err := os.Open(p.path(language))
	if err != nil {
		return nil, fmt.Errorf("open vocabulary for %q: %w", language, err)
	}
	defer f.Close()

	var raw []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw = append(raw, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read vocabulary for %q: %w", language, err)
	}

	return NewVocabulary(raw), nil
}

// Hash loads the vocabulary and returns its hash. File-backed word lists have
// no cheaper staleness signal than re-reading the file.
func (p *FileVocabularyProvider) Hash(ctx context.Context, language string) (string, error) {
	v, err := p.Vocabulary(ctx, language)
	if err != nil {
		return "", err
	}
	return v.Hash(), nil
}

// Languages lists every language with a word-list file in the directory.
func (p *FileVocabularyProvider) Languages() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(p.dir, "*.txt"))
	if err != nil {
		return nil, err
	}
	langs := make([]string, 0, len(matches))
	for _, m := range matches {
		langs = append(langs, strings.TrimSuffix(filepath.Base(m), ".txt"))
	}
	sort.Strings(langs)
	return langs, nil
}
