// Package words is a multi-method word search engine.
//
// Three complementary search methods run over immutable per-language
// snapshots:
//
//   - EXACT: trie lookup fronted by a bloom filter. Authoritative
//     membership, score always 1.0.
//   - FUZZY: signature- and length-bucketed candidate pruning scored with a
//     dual string-similarity ratio. Catches misspellings and variants.
//   - SEMANTIC: vector kNN over embeddings, with the index structure chosen
//     automatically from corpus size - exhaustive flat scan for small
//     vocabularies up through rotated product quantization over inverted
//     lists for multi-million word corpora.
//
// The Engine cascades the methods cheapest-first with an early-exit quality
// gate; the Registry keeps one hot-reloadable snapshot per language and
// fans multi-language queries out concurrently.
//
// Basic usage:
//
//	provider := words.NewFileVocabularyProvider("data")
//	engine := words.NewEngine(cfg.Engine, logger)
//	registry := words.NewRegistry(cfg.Registry, provider, embedder, engine, logger)
//	if err := registry.Start(ctx); err != nil { ... }
//	defer registry.Close()
//
//	results, err := registry.Search(ctx, words.SearchRequest{
//		Query: "resilient",
//		Mode:  words.ModeSmart,
//	}, "en")
package words
