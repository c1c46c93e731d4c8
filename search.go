package words

import (
	"fmt"
	"sort"
)

// SearchMethod identifies which matching strategy produced a result.
type SearchMethod uint8

const (
	// MethodExact means the query matched a vocabulary word verbatim.
	MethodExact SearchMethod = iota

	// MethodFuzzy means the result came from approximate string matching.
	MethodFuzzy

	// MethodSemantic means the result came from vector similarity search.
	MethodSemantic
)

// String returns the method name for logging and serialization.
func (m SearchMethod) String() string {
	switch m {
	case MethodExact:
		return "exact"
	case MethodFuzzy:
		return "fuzzy"
	case MethodSemantic:
		return "semantic"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(m))
	}
}

// MarshalText serializes the method by name, so JSON output reads
// "exact" rather than a bare enum value.
func (m SearchMethod) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Priority returns the tie-break priority used when the same word is returned
// by more than one method. Higher wins: Exact > Semantic > Fuzzy.
func (m SearchMethod) Priority() int {
	switch m {
	case MethodExact:
		return 3
	case MethodSemantic:
		return 2
	case MethodFuzzy:
		return 1
	default:
		return 0
	}
}

// SearchMode selects which strategies the engine runs for a query.
//
// Modes form a closed set so the cascade's state machine is exhaustively
// checkable: each switch over SearchMode covers every variant.
type SearchMode uint8

const (
	// ModeSmart runs the adaptive cascade: exact first, then fuzzy, and
	// semantic only when fuzzy results fail the quality gate. This is the
	// default mode.
	ModeSmart SearchMode = iota

	// ModeExact runs only the exact index.
	ModeExact

	// ModeFuzzy runs only the fuzzy index.
	ModeFuzzy

	// ModeSemantic runs only the semantic index.
	ModeSemantic
)

// String returns the mode name.
func (m SearchMode) String() string {
	switch m {
	case ModeSmart:
		return "smart"
	case ModeExact:
		return "exact"
	case ModeFuzzy:
		return "fuzzy"
	case ModeSemantic:
		return "semantic"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(m))
	}
}

// ParseSearchMode converts a mode name into a SearchMode.
// Accepted values: "smart", "exact", "fuzzy", "semantic".
func ParseSearchMode(s string) (SearchMode, error) {
	switch s {
	case "smart", "":
		return ModeSmart, nil
	case "exact":
		return ModeExact, nil
	case "fuzzy":
		return ModeFuzzy, nil
	case "semantic":
		return ModeSemantic, nil
	default:
		return ModeSmart, fmt.Errorf("unknown search mode %q", s)
	}
}

// SearchResult is a single scored match against one language's vocabulary.
type SearchResult struct {
	// Word is the matched vocabulary word in normalized form.
	Word string `json:"word"`

	// Score is the normalized match quality in [0, 1], regardless of the
	// underlying metric's native range. Exact matches always score 1.0.
	Score float64 `json:"score"`

	// Method is the strategy that produced this result.
	Method SearchMethod `json:"method"`

	// Language is the vocabulary the word belongs to.
	Language string `json:"language"`

	// Metadata carries optional per-result annotations, such as the
	// degraded-result indicator when semantic search timed out.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// mergeResults deduplicates results by word and returns them sorted by score
// descending, truncated to max. When the same word appears under two methods,
// the entry with the higher method priority survives but keeps the best score
// seen for that word.
func mergeResults(results []SearchResult, max int) []SearchResult {
	byWord := make(map[string]SearchResult, len(results))
	for _, r := range results {
		prev, seen := byWord[r.Word]
		if !seen {
			byWord[r.Word] = r
			continue
		}
		keep := prev
		if r.Method.Priority() > prev.Method.Priority() {
			keep = r
		}
		if prev.Score > keep.Score {
			keep.Score = prev.Score
		}
		if r.Score > keep.Score {
			keep.Score = r.Score
		}
		byWord[r.Word] = keep
	}

	merged := make([]SearchResult, 0, len(byWord))
	for _, r := range byWord {
		merged = append(merged, r)
	}
	sortResults(merged)

	if max > 0 && len(merged) > max {
		merged = merged[:max]
	}
	return merged
}

// sortResults orders results by score descending, breaking ties by method
// priority and then alphabetically so output is deterministic.
func sortResults(results []SearchResult) {
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Method.Priority() != b.Method.Priority() {
			return a.Method.Priority() > b.Method.Priority()
		}
		return a.Word < b.Word
	})
}
