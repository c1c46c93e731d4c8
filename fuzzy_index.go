// Package words implements approximate string matching over a vocabulary.
//
// WHAT IS THE FUZZY INDEX?
// Scoring every vocabulary word against every query would be O(n) string
// comparisons per lookup. The fuzzy index instead prunes the vocabulary to a
// small candidate set before any scoring happens, using two coarse, lossy
// keys computed at build time:
//
//   - SIGNATURE BUCKETS: each word maps to a consonant skeleton (vowels
//     dropped, common phonetic equivalents folded, runs collapsed). Words
//     sharing any of the query's skeletons are candidates; multi-word
//     entries are segmented with UAX#29 and bucketed once per token. The
//     skeleton is used purely for bucketing, never for scoring.
//   - LENGTH BUCKETS: words whose rune length is within ±2 of the query's
//     are candidates.
//
// The candidate set is the union of both, empirically a few percent of the
// vocabulary. Each candidate is then scored with two independent similarity
// measures - a weighted fuzzy ratio that privileges matching substrings and
// order, and a token-set ratio that is order- and duplicate-insensitive for
// multi-word phrases - averaged and corrected for length mismatch.
//
// COMPLEXITY: O(c) per query where c = candidate set size, not vocabulary
// size. Buckets are built once per vocabulary version and are read-only
// during queries.
package words

import (
	"sort"
	"strings"
	"unicode"

	"github.com/RoaringBitmap/roaring"
	uax29 "github.com/clipperhouse/uax29/v2/words"
	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// lengthBucketSpread is how far (in runes) a candidate's length may differ
// from the query's to be picked up by the length buckets.
const lengthBucketSpread = 2

// phoneticFold maps consonants that commonly alias each other in loose
// spellings onto a canonical representative, so "kat" and "cat" land in the
// same signature bucket.
var phoneticFold = map[rune]rune{
	'c': 'k',
	'q': 'k',
	'x': 'k',
	'z': 's',
	'v': 'f',
	'w': 'f',
	'j': 'g',
	'y': 'i',
}

// tokens splits a phrase into UAX#29 word segments, keeping only segments
// that carry a letter or digit. Single words pass through as one token.
func tokens(s string) []string {
	iter := uax29.FromString(s)
	var out []string
	for iter.Next() {
		tok := iter.Value()
		for _, r := range tok {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				out = append(out, tok)
				break
			}
		}
	}
	return out
}

// consonantSignature computes the coarse bucketing key for a word: letters
// only, vowels dropped, phonetic equivalents folded, and adjacent repeats
// collapsed. The empty signature (all-vowel words) is a valid bucket.
func consonantSignature(word string) string {
	var b strings.Builder
	var last rune = -1
	for _, r := range word {
		if !unicode.IsLetter(r) {
			continue
		}
		switch r {
		case 'a', 'e', 'i', 'o', 'u':
			continue
		}
		if folded, ok := phoneticFold[r]; ok {
			r = folded
		}
		if r == last {
			continue
		}
		b.WriteRune(r)
		last = r
	}
	return b.String()
}

// FuzzyIndex buckets a vocabulary by signature and length for candidate
// pruning, then scores candidates with a dual similarity metric.
//
// The index is immutable once built; concurrent searches need no locking.
type FuzzyIndex struct {
	vocab *Vocabulary

	// signatures maps consonant skeleton -> bitmap of word indices.
	signatures map[string]*roaring.Bitmap

	// lengths maps rune length -> bitmap of word indices.
	lengths map[int]*roaring.Bitmap
}

// NewFuzzyIndex builds signature and length buckets over a vocabulary.
func NewFuzzyIndex(vocab *Vocabulary) *FuzzyIndex {
	idx := &FuzzyIndex{
		vocab:      vocab,
		signatures: make(map[string]*roaring.Bitmap),
		lengths:    make(map[int]*roaring.Bitmap),
	}

	for i, w := range vocab.Words() {
		id := uint32(i)

		// Multi-word entries land in one bucket per token, so a query
		// matching any word of a phrase can still surface it.
		for _, tok := range tokens(w) {
			sig := consonantSignature(tok)
			if bm := idx.signatures[sig]; bm != nil {
				bm.Add(id)
			} else {
				idx.signatures[sig] = roaring.BitmapOf(id)
			}
		}

		l := len([]rune(w))
		if bm := idx.lengths[l]; bm != nil {
			bm.Add(id)
		} else {
			idx.lengths[l] = roaring.BitmapOf(id)
		}
	}

	return idx
}

// candidates returns the bitmap of word indices worth scoring for a query:
// the union of the query's signature bucket and every length bucket within
// ±lengthBucketSpread of the query's rune length.
func (idx *FuzzyIndex) candidates(query string) *roaring.Bitmap {
	out := roaring.New()

	for _, tok := range tokens(query) {
		if bm := idx.signatures[consonantSignature(tok)]; bm != nil {
			out.Or(bm)
		}
	}

	qlen := len([]rune(query))
	for l := qlen - lengthBucketSpread; l <= qlen+lengthBucketSpread; l++ {
		if l < 1 {
			continue
		}
		if bm := idx.lengths[l]; bm != nil {
			out.Or(bm)
		}
	}

	return out
}

// lengthCorrection penalizes large length mismatches between query and
// candidate. Monotonically decreasing in the absolute rune-length difference;
// equal lengths pass through unchanged.
func lengthCorrection(queryLen, candidateLen int) float64 {
	diff := queryLen - candidateLen
	if diff < 0 {
		diff = -diff
	}
	return 1.0 / (1.0 + 0.15*float64(diff))
}

// scoreCandidate computes the combined similarity of a candidate word against
// the query: the mean of the weighted ratio and the token-set ratio (both
// native range 0-100), normalized to [0,1], then length-corrected.
func scoreCandidate(query, word string) float64 {
	wr := fuzzy.WRatio(query, word)
	ts := fuzzy.TokenSetRatio(query, word)
	combined := float64(wr+ts) / 200.0
	return combined * lengthCorrection(len([]rune(query)), len([]rune(word)))
}

// Search scores the candidate set for a normalized query and returns up to
// maxResults matches with corrected score >= minScore, sorted descending.
func (idx *FuzzyIndex) Search(query string, maxResults int, minScore float64) []SearchResult {
	if query == "" || idx.vocab.Len() == 0 {
		return nil
	}

	cands := idx.candidates(query)
	results := make([]SearchResult, 0, 16)

	it := cands.Iterator()
	for it.HasNext() {
		id := it.Next()
		word := idx.vocab.Word(id)

		score := scoreCandidate(query, word)
		if score < minScore {
			continue
		}

		results = append(results, SearchResult{
			Word:   word,
			Score:  score,
			Method: MethodFuzzy,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Word < results[j].Word
	})

	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

// CandidateCount returns how many words would be scored for a query.
// Exposed for capacity planning and tests; not used on the query path.
func (idx *FuzzyIndex) CandidateCount(query string) int {
	return int(idx.candidates(query).GetCardinality())
}
