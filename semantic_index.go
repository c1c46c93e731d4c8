// Semantic search over embedded vocabularies.
//
// A SemanticIndex embeds every vocabulary word once at build time, picks the
// vector index strategy the corpus size calls for, and answers queries by
// embedding the query text and running kNN in the shared embedding space.
// Raw L2 distances become scores through 1 / (1 + d), so an exact vector
// match scores 1.0 and scores decay smoothly toward 0.
package words

import (
	"context"
	"fmt"
)

// SemanticIndex answers meaning-based queries against one vocabulary.
// Immutable after build.
type SemanticIndex struct {
	vocab    *Vocabulary
	desc     IndexDescriptor
	index    VectorIndex
	embedder Embedder

	// vectors is the full embedding matrix, row i belonging to vocabulary
	// word i. Retained for artifact serialization and index rebuilds.
	vectors [][]float32
}

// BuildSemanticIndex embeds the whole vocabulary and constructs the index
// strategy selected for its size.
func BuildSemanticIndex(ctx context.Context, vocab *Vocabulary, embedder Embedder) (*SemanticIndex, error) {
	if vocab.Len() == 0 {
		return nil, fmt.Errorf("cannot build semantic index over empty vocabulary")
	}

	vectors, err := embedder.EmbedBatch(ctx, vocab.Words())
	if err != nil {
		return nil, fmt.Errorf("embedding vocabulary: %w", err)
	}

	desc := selectIndexDescriptor(vocab.Len(), embedder.Dimensions(), embedder.ModelID())
	return newSemanticIndex(vocab, desc, vectors, embedder)
}

// newSemanticIndex builds the vector index from an existing embedding
// matrix. Shared by the build and artifact-load paths.
func newSemanticIndex(vocab *Vocabulary, desc IndexDescriptor, vectors [][]float32, embedder Embedder) (*SemanticIndex, error) {
	if len(vectors) != vocab.Len() {
		return nil, fmt.Errorf("embedding matrix has %d rows for %d words", len(vectors), vocab.Len())
	}
	if desc.ModelID != embedder.ModelID() {
		return nil, fmt.Errorf("embedding model mismatch: index built with %q, embedder is %q", desc.ModelID, embedder.ModelID())
	}
	if desc.Dim != embedder.Dimensions() {
		return nil, fmt.Errorf("embedding dimension mismatch: index built with %d, embedder produces %d", desc.Dim, embedder.Dimensions())
	}

	index, err := buildVectorIndex(desc, vectors)
	if err != nil {
		return nil, fmt.Errorf("building %s index: %w", desc.Strategy, err)
	}
	return &SemanticIndex{
		vocab:    vocab,
		desc:     desc,
		index:    index,
		embedder: embedder,
		vectors:  vectors,
	}, nil
}

// Descriptor reports the strategy and parameters this index was built with.
func (s *SemanticIndex) Descriptor() IndexDescriptor { return s.desc }

// Search embeds the query and returns up to maxResults nearest words with
// score >= minScore. Cancellation and deadlines on ctx bound only the
// embedding call; the kNN scan is local and fast.
func (s *SemanticIndex) Search(ctx context.Context, query string, maxResults int, minScore float64) ([]SearchResult, error) {
	query = NormalizeWord(query)
	if query == "" {
		return nil, nil
	}

	qvec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(qvec) != s.desc.Dim {
		return nil, fmt.Errorf("query embedding has %d dimensions, index expects %d", len(qvec), s.desc.Dim)
	}

	neighbors, err := s.index.Search(qvec, maxResults)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(neighbors))
	for _, n := range neighbors {
		score := distanceToScore(n.Distance)
		if score < minScore {
			continue
		}
		results = append(results, SearchResult{
			Word:   s.vocab.Word(n.ID),
			Score:  score,
			Method: MethodSemantic,
		})
	}
	return results, nil
}
