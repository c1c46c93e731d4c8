// Package words implements exact membership lookup over a vocabulary.
//
// WHAT IS THE EXACT INDEX?
// The exact index answers one question: is this query, verbatim, a vocabulary
// word? It combines two structures:
//
//  1. A Bloom filter sized from the vocabulary so its false-positive rate
//     stays within a target bound. A negative answer is definitive (Bloom
//     filters have no false negatives) and short-circuits the lookup.
//  2. A compressed prefix trie (patricia trie) holding every word. The trie
//     confirms Bloom-positive queries, absorbing the filter's false positives.
//
// The filter exists purely as a performance optimization: most misses never
// touch the trie. Correctness never depends on it.
//
// COMPLEXITY: O(m) per lookup where m = query length, independent of
// vocabulary size. No partial or prefix matches are returned, only exact
// equality.
package words

import (
	"github.com/bits-and-blooms/bloom/v3"
	"github.com/tchap/go-patricia/v2/patricia"
)

// ExactIndex holds the trie and Bloom filter for one vocabulary version.
//
// The index is immutable once built; concurrent lookups need no locking.
type ExactIndex struct {
	trie   *patricia.Trie
	filter *bloom.BloomFilter
	size   int
}

// exactFalsePositiveRate picks the Bloom filter's target false-positive rate
// for a vocabulary of n words. Small vocabularies tolerate a looser filter
// (the trie behind it is cheap anyway); large ones get a tighter bound so the
// filter keeps earning its memory. The curve is policy, tuned empirically:
// 1% below 10k words, 0.5% below 100k, 0.2% below 1M, 0.1% beyond.
func exactFalsePositiveRate(n int) float64 {
	switch {
	case n < 10_000:
		return 0.01
	case n < 100_000:
		return 0.005
	case n < 1_000_000:
		return 0.002
	default:
		return 0.001
	}
}

// NewExactIndex builds the exact index over a vocabulary.
//
// Time Complexity: O(total word length) for the trie plus O(n) filter inserts.
func NewExactIndex(vocab *Vocabulary) *ExactIndex {
	n := vocab.Len()

	filterSize := uint(n)
	if filterSize == 0 {
		filterSize = 1
	}
	filter := bloom.NewWithEstimates(filterSize, exactFalsePositiveRate(n))

	trie := patricia.NewTrie()
	for i, w := range vocab.Words() {
		trie.Insert(patricia.Prefix(w), uint32(i))
		filter.AddString(w)
	}

	return &ExactIndex{
		trie:   trie,
		filter: filter,
		size:   n,
	}
}

// Lookup returns the exact-match result for a normalized query, or false if
// the query is not a vocabulary word.
//
// The Bloom filter is consulted first; a negative short-circuits without
// touching the trie. A positive (which may be a false positive) is confirmed
// by an exact trie get.
func (idx *ExactIndex) Lookup(query string) (SearchResult, bool) {
	if idx.size == 0 || query == "" {
		return SearchResult{}, false
	}

	if !idx.filter.TestString(query) {
		return SearchResult{}, false
	}

	if idx.trie.Get(patricia.Prefix(query)) == nil {
		// Bloom false positive.
		return SearchResult{}, false
	}

	return SearchResult{
		Word:   query,
		Score:  1.0,
		Method: MethodExact,
	}, true
}

// Len returns the number of indexed words.
func (idx *ExactIndex) Len() int {
	return idx.size
}
