// The corpus registry: per-language snapshots with hot reload.
//
// HOW HOT RELOAD WORKS:
// Each language's live snapshot sits behind an atomic pointer. A rebuild
// constructs the replacement off to the side and swaps the pointer in one
// store, so searches either see the old snapshot or the new one, never a
// mixture. Concurrent rebuild requests for the same language collapse into
// one build through singleflight, and a vocabulary-hash double check inside
// the flight turns redundant rebuilds into no-ops.
//
// A background poller re-hashes every vocabulary on an interval and
// triggers rebuilds for the ones that changed.
package words

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// LanguageHealth describes one language's live snapshot.
type LanguageHealth struct {
	Language       string    `json:"language"`
	VocabularySize int       `json:"vocabulary_size"`
	VocabularyHash string    `json:"vocabulary_hash"`
	HasSemantic    bool      `json:"has_semantic"`
	Strategy       string    `json:"strategy,omitempty"`
	LastRebuiltAt  time.Time `json:"last_rebuilt_at"`
}

// Registry owns the per-language snapshots and their lifecycle. Create with
// NewRegistry, call Start once, Close when done.
type Registry struct {
	cfg      RegistryConfig
	provider VocabularyProvider
	embedder Embedder // nil disables the semantic tier
	engine   *Engine
	logger   *log.Logger

	mu        sync.RWMutex
	snapshots map[string]*atomic.Pointer[Snapshot]

	flights singleflight.Group

	pollCancel context.CancelFunc
	pollDone   chan struct{}
	closeOnce  sync.Once
}

func NewRegistry(cfg RegistryConfig, provider VocabularyProvider, embedder Embedder, engine *Engine, logger *log.Logger) *Registry {
	if logger == nil {
		logger = NewLogger("info")
	}
	return &Registry{
		cfg:       cfg,
		provider:  provider,
		embedder:  embedder,
		engine:    engine,
		logger:    logger,
		snapshots: make(map[string]*atomic.Pointer[Snapshot]),
		pollDone:  make(chan struct{}),
	}
}

// Start loads every configured language concurrently, then begins the
// reload poller. A language that fails to load fails Start: serving with a
// silently missing corpus is worse than not starting.
func (r *Registry) Start(ctx context.Context) error {
	languages, err := r.languages()
	if err != nil {
		return err
	}
	if len(languages) == 0 {
		return fmt.Errorf("no languages to load")
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, lang := range languages {
		lang := lang
		g.Go(func() error {
			if _, err := r.Rebuild(gctx, lang, true); err != nil {
				return fmt.Errorf("loading %s: %w", lang, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if interval := r.cfg.PollInterval.Duration; interval > 0 {
		pollCtx, cancel := context.WithCancel(context.Background())
		r.pollCancel = cancel
		go r.pollLoop(pollCtx, interval)
	} else {
		close(r.pollDone)
	}
	return nil
}

// Close stops the reload poller. Snapshots stay usable; Close only ends
// background activity. Safe to call whether or not Start ran or succeeded.
func (r *Registry) Close() {
	r.closeOnce.Do(func() {
		// pollCancel is only set once the poll loop is running, so there
		// is nothing to wait for without it.
		if r.pollCancel == nil {
			return
		}
		r.pollCancel()
		<-r.pollDone
	})
}

// languages resolves the configured set, falling back to whatever the
// provider can enumerate.
func (r *Registry) languages() ([]string, error) {
	if len(r.cfg.Languages) > 0 {
		return r.cfg.Languages, nil
	}
	lister, ok := r.provider.(interface{ Languages() ([]string, error) })
	if !ok {
		return nil, fmt.Errorf("no languages configured and provider cannot enumerate them")
	}
	return lister.Languages()
}

// Languages returns the currently loaded languages, sorted.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.snapshots))
	for lang := range r.snapshots {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

// Snapshot returns the live snapshot for a language.
func (r *Registry) Snapshot(language string) (*Snapshot, error) {
	r.mu.RLock()
	ptr, ok := r.snapshots[language]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown language %q", language)
	}
	return ptr.Load(), nil
}

// Rebuild builds and installs a fresh snapshot for one language. Without
// force, an unchanged vocabulary hash makes it a no-op returning the live
// snapshot. Concurrent calls for the same language share one build.
func (r *Registry) Rebuild(ctx context.Context, language string, force bool) (*Snapshot, error) {
	v, err, _ := r.flights.Do(language, func() (interface{}, error) {
		current := r.current(language)

		// Double check inside the flight: a racing caller may have
		// rebuilt while this one waited, and polling triggers rebuilds
		// whether or not anything changed.
		if current != nil && !force {
			hash, err := r.provider.Hash(ctx, language)
			if err != nil {
				return nil, fmt.Errorf("hashing vocabulary: %w", err)
			}
			if hash == current.hash {
				return current, nil
			}
		}

		snap, err := r.build(ctx, language)
		if err != nil {
			return nil, err
		}
		r.install(language, snap)
		r.logger.Info("snapshot installed",
			"language", language,
			"words", snap.Size(),
			"semantic", snap.HasSemantic())
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

func (r *Registry) current(language string) *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if ptr, ok := r.snapshots[language]; ok {
		return ptr.Load()
	}
	return nil
}

func (r *Registry) install(language string, snap *Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ptr, ok := r.snapshots[language]
	if !ok {
		ptr = &atomic.Pointer[Snapshot]{}
		r.snapshots[language] = ptr
	}
	ptr.Store(snap)
}

// build constructs a snapshot without touching the live one. The semantic
// tier is best-effort: an embedding failure logs and yields a snapshot that
// serves exact and fuzzy only.
func (r *Registry) build(ctx context.Context, language string) (*Snapshot, error) {
	vocab, err := r.provider.Vocabulary(ctx, language)
	if err != nil {
		return nil, fmt.Errorf("loading vocabulary: %w", err)
	}
	if vocab.Len() == 0 {
		// An empty vocabulary is a servable state: every search over it
		// returns no results. Only a missing or unreadable source fails.
		r.logger.Warn("vocabulary is empty, all searches will return no results",
			"language", language)
	}

	snap := &Snapshot{
		language: language,
		hash:     vocab.Hash(),
		exact:    NewExactIndex(vocab),
		fuzzy:    NewFuzzyIndex(vocab),
		builtAt:  time.Now(),
	}

	if r.embedder != nil && vocab.Len() > 0 {
		semantic, err := r.buildSemantic(ctx, language, vocab)
		if err != nil {
			r.logger.Error("semantic index build failed, serving exact and fuzzy only",
				"language", language, "err", err)
		} else {
			snap.semantic = semantic
		}
	}
	return snap, nil
}

// buildSemantic reuses a cached embedding artifact when it still matches
// the vocabulary and embedder, otherwise embeds from scratch and refreshes
// the cache.
func (r *Registry) buildSemantic(ctx context.Context, language string, vocab *Vocabulary) (*SemanticIndex, error) {
	if r.cfg.ArtifactDir != "" {
		path := r.artifactPath(language)
		artifact, err := LoadEmbeddingArtifact(path, vocab, r.embedder)
		if err == nil {
			desc := selectIndexDescriptor(vocab.Len(), r.embedder.Dimensions(), r.embedder.ModelID())
			idx, err := newSemanticIndex(vocab, desc, artifact.Vectors, r.embedder)
			if err == nil {
				r.logger.Debug("reused embedding artifact", "language", language, "path", path)
				return idx, nil
			}
			r.logger.Warn("cached artifact unusable, re-embedding", "language", language, "err", err)
		} else {
			r.logger.Debug("embedding artifact miss", "language", language, "err", err)
		}
	}

	idx, err := BuildSemanticIndex(ctx, vocab, r.embedder)
	if err != nil {
		return nil, err
	}

	if r.cfg.ArtifactDir != "" {
		path := r.artifactPath(language)
		if err := SaveEmbeddingArtifact(path, idx.Artifact()); err != nil {
			r.logger.Warn("failed to cache embedding artifact", "language", language, "err", err)
		}
	}
	return idx, nil
}

func (r *Registry) artifactPath(language string) string {
	return filepath.Join(r.cfg.ArtifactDir, language+".emb")
}

// pollLoop re-checks every loaded language on the interval. Rebuild's hash
// double check keeps unchanged languages cheap.
func (r *Registry) pollLoop(ctx context.Context, interval time.Duration) {
	defer close(r.pollDone)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, lang := range r.Languages() {
				if _, err := r.Rebuild(ctx, lang, false); err != nil {
					r.logger.Warn("reload failed, keeping previous snapshot",
						"language", lang, "err", err)
				}
			}
		}
	}
}

// Health reports every loaded language's snapshot state, sorted by
// language.
func (r *Registry) Health() []LanguageHealth {
	langs := r.Languages()
	out := make([]LanguageHealth, 0, len(langs))
	for _, lang := range langs {
		snap, err := r.Snapshot(lang)
		if err != nil || snap == nil {
			continue
		}
		h := LanguageHealth{
			Language:       lang,
			VocabularySize: snap.Size(),
			VocabularyHash: snap.hash,
			HasSemantic:    snap.HasSemantic(),
			LastRebuiltAt:  snap.builtAt,
		}
		if snap.semantic != nil {
			h.Strategy = snap.semantic.Descriptor().Strategy.String()
		}
		out = append(out, h)
	}
	return out
}

// Search runs a request against one or more languages. With no languages
// given it fans out across every loaded language and merges globally, so
// the cap and ordering hold over the combined set.
func (r *Registry) Search(ctx context.Context, req SearchRequest, languages ...string) ([]SearchResult, error) {
	if len(languages) == 0 {
		languages = r.Languages()
	}
	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = r.engine.cfg.MaxResults
	}

	if len(languages) == 1 {
		snap, err := r.Snapshot(languages[0])
		if err != nil {
			return nil, err
		}
		return r.engine.Search(ctx, snap, req)
	}

	var mu sync.Mutex
	var combined []SearchResult

	g, gctx := errgroup.WithContext(ctx)
	for _, lang := range languages {
		snap, err := r.Snapshot(lang)
		if err != nil {
			return nil, err
		}
		g.Go(func() error {
			results, err := r.engine.Search(gctx, snap, req)
			if err != nil {
				return fmt.Errorf("searching %s: %w", snap.language, err)
			}
			mu.Lock()
			combined = append(combined, results...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return mergeResults(combined, maxResults), nil
}

// FindBestMatch returns the single strongest result for a query across the
// given languages (all loaded languages when none are named).
func (r *Registry) FindBestMatch(ctx context.Context, query string, languages ...string) (SearchResult, bool, error) {
	results, err := r.Search(ctx, SearchRequest{Query: query, Mode: ModeSmart, MaxResults: 1}, languages...)
	if err != nil {
		return SearchResult{}, false, err
	}
	if len(results) == 0 {
		return SearchResult{}, false, nil
	}
	return results[0], true, nil
}
