// The search engine cascade.
//
// HOW THE CASCADE WORKS:
// The three methods trade accuracy for cost. Exact lookup is near-free and
// authoritative, fuzzy is cheap and catches misspellings, semantic requires
// an embedding call and catches meaning. Smart mode runs them in that order
// and stops as soon as the cheaper tiers have answered well enough: an
// exact hit short-circuits everything, and a quality gate skips the
// embedding call when fuzzy already produced enough strong matches.
//
// Semantic failures never fail a search. If embedding times out or errors,
// the engine returns the fuzzy results it already has, marked degraded.
package words

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// degradedKey marks results served without the semantic tier the request
// would normally have used.
const degradedKey = "degraded"

// SearchRequest is one query against a snapshot.
type SearchRequest struct {
	Query string
	Mode  SearchMode

	// MaxResults caps the result count; 0 uses the engine default.
	MaxResults int

	// MinScore drops results below it; 0 uses the engine default.
	MinScore float64
}

// EngineStats is a point-in-time view of the engine's counters.
type EngineStats struct {
	Searches      uint64
	ExactCalls    uint64
	FuzzyCalls    uint64
	SemanticCalls uint64
	GateSkips     uint64
	Degraded      uint64
}

// Engine runs the cascade over snapshots. Safe for concurrent use; it holds
// no index state of its own, so one engine serves every language.
type Engine struct {
	cfg    EngineConfig
	logger *log.Logger

	searches      atomic.Uint64
	exactCalls    atomic.Uint64
	fuzzyCalls    atomic.Uint64
	semanticCalls atomic.Uint64
	gateSkips     atomic.Uint64
	degraded      atomic.Uint64
}

// NewEngine builds an engine with the given tuning. A nil logger defaults
// to info-level stderr.
func NewEngine(cfg EngineConfig, logger *log.Logger) *Engine {
	if logger == nil {
		logger = NewLogger("info")
	}
	return &Engine{cfg: cfg, logger: logger}
}

// Stats returns the current counter values.
func (e *Engine) Stats() EngineStats {
	return EngineStats{
		Searches:      e.searches.Load(),
		ExactCalls:    e.exactCalls.Load(),
		FuzzyCalls:    e.fuzzyCalls.Load(),
		SemanticCalls: e.semanticCalls.Load(),
		GateSkips:     e.gateSkips.Load(),
		Degraded:      e.degraded.Load(),
	}
}

// Search runs one request against a snapshot. The returned results are
// sorted by score descending, capped at the request's MaxResults, and
// stamped with the snapshot's language.
func (e *Engine) Search(ctx context.Context, snap *Snapshot, req SearchRequest) ([]SearchResult, error) {
	query := NormalizeWord(req.Query)
	if query == "" {
		return nil, nil
	}
	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = e.cfg.MaxResults
	}
	minScore := req.MinScore
	if minScore <= 0 {
		minScore = e.cfg.MinScore
	}
	e.searches.Add(1)

	var (
		results []SearchResult
		err     error
	)
	switch req.Mode {
	case ModeExact:
		results = e.exact(snap, query)
	case ModeFuzzy:
		results = e.fuzzy(snap, query, maxResults, minScore)
	case ModeSemantic:
		results, err = e.semanticOnly(ctx, snap, query, maxResults, minScore)
	case ModeSmart:
		results, err = e.smart(ctx, snap, query, maxResults, minScore)
	default:
		return nil, fmt.Errorf("unknown search mode %d", req.Mode)
	}
	if err != nil {
		return nil, err
	}

	for i := range results {
		results[i].Language = snap.language
	}
	return results, nil
}

func (e *Engine) exact(snap *Snapshot, query string) []SearchResult {
	e.exactCalls.Add(1)
	if res, ok := snap.exact.Lookup(query); ok {
		return []SearchResult{res}
	}
	return nil
}

func (e *Engine) fuzzy(snap *Snapshot, query string, maxResults int, minScore float64) []SearchResult {
	e.fuzzyCalls.Add(1)
	return snap.fuzzy.Search(query, maxResults, minScore)
}

// semanticOnly serves ModeSemantic. When the snapshot has no semantic index
// or embedding fails, it degrades to fuzzy rather than erroring: a search
// endpoint should answer with its best available tier.
func (e *Engine) semanticOnly(ctx context.Context, snap *Snapshot, query string, maxResults int, minScore float64) ([]SearchResult, error) {
	if snap.semantic == nil {
		return e.degrade(snap, query, maxResults, minScore, "semantic_unavailable"), nil
	}
	results, err := e.semantic(ctx, snap, query, maxResults, minScore)
	if err != nil {
		e.logger.Warn("semantic search failed, degrading to fuzzy",
			"language", snap.language, "err", err)
		return e.degrade(snap, query, maxResults, minScore, "semantic_error"), nil
	}
	return results, nil
}

// smart runs the full cascade.
func (e *Engine) smart(ctx context.Context, snap *Snapshot, query string, maxResults int, minScore float64) ([]SearchResult, error) {
	if exact := e.exact(snap, query); len(exact) > 0 {
		return exact, nil
	}

	fuzzyResults := e.fuzzy(snap, query, maxResults, minScore)

	if e.gateSatisfied(fuzzyResults, maxResults) {
		e.gateSkips.Add(1)
		return fuzzyResults, nil
	}
	if snap.semantic == nil {
		return fuzzyResults, nil
	}

	semanticResults, err := e.semantic(ctx, snap, query, maxResults, minScore)
	if err != nil {
		e.logger.Warn("semantic tier failed, serving fuzzy results",
			"language", snap.language, "err", err)
		e.degraded.Add(1)
		markDegraded(fuzzyResults, "semantic_error")
		return fuzzyResults, nil
	}

	merged := mergeResults(append(fuzzyResults, semanticResults...), maxResults)
	return merged, nil
}

// gateSatisfied reports whether fuzzy alone answered well enough to skip
// the embedding call: at least maxResults/GateFraction results at or above
// GateThreshold.
func (e *Engine) gateSatisfied(results []SearchResult, maxResults int) bool {
	need := maxResults / e.cfg.GateFraction
	if need < 1 {
		need = 1
	}
	strong := 0
	for _, r := range results {
		if r.Score >= e.cfg.GateThreshold {
			strong++
		}
	}
	return strong >= need
}

// semantic runs the semantic tier under the embed timeout.
func (e *Engine) semantic(ctx context.Context, snap *Snapshot, query string, maxResults int, minScore float64) ([]SearchResult, error) {
	e.semanticCalls.Add(1)
	if t := e.cfg.EmbedTimeout.Duration; t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}
	return snap.semantic.Search(ctx, query, maxResults, minScore)
}

// degrade serves fuzzy results marked with the reason semantic was skipped.
func (e *Engine) degrade(snap *Snapshot, query string, maxResults int, minScore float64, reason string) []SearchResult {
	e.degraded.Add(1)
	results := e.fuzzy(snap, query, maxResults, minScore)
	markDegraded(results, reason)
	return results
}

func markDegraded(results []SearchResult, reason string) {
	for i := range results {
		if results[i].Metadata == nil {
			results[i].Metadata = map[string]string{}
		}
		results[i].Metadata[degradedKey] = reason
	}
}
