// Embedding provider abstraction.
//
// The semantic index consumes vectors through the Embedder interface and
// never talks to a model API directly. The production implementation wraps
// an OpenAI-compatible embeddings endpoint; anything that can turn text
// into fixed-width float32 vectors can stand in.
package words

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder turns text into vectors in a fixed embedding space. ModelID and
// Dimensions identify the space: vectors from different model IDs or widths
// are never comparable and the index layer refuses to mix them.
type Embedder interface {
	// EmbedQuery embeds a single query string.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds a slice of texts, preserving order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// ModelID names the embedding model.
	ModelID() string

	// Dimensions is the width of the vectors this embedder produces.
	Dimensions() int
}

// EmbedderConfig configures the OpenAI-compatible embedder.
type EmbedderConfig struct {
	BaseURL    string `toml:"base_url"`
	APIKey     string `toml:"api_key"`
	Model      string `toml:"model"`
	Dimensions int    `toml:"dimensions"`

	// BatchSize caps how many texts go into one API call.
	BatchSize int `toml:"batch_size"`

	// Workers bounds how many batch calls run concurrently during a
	// corpus build.
	Workers int `toml:"workers"`
}

const (
	defaultEmbedBatchSize = 64
	defaultEmbedWorkers   = 4
)

// OpenAIEmbedder embeds text through any OpenAI-compatible embeddings
// endpoint. Large batches are split into BatchSize chunks and fanned out
// across a bounded worker pool.
type OpenAIEmbedder struct {
	impl      *embeddings.EmbedderImpl
	model     string
	dim       int
	batchSize int
	pool      *ants.Pool
}

var _ Embedder = (*OpenAIEmbedder)(nil)

// NewOpenAIEmbedder builds an embedder from config. The returned embedder
// owns a worker pool; call Close when done with it.
func NewOpenAIEmbedder(cfg EmbedderConfig) (*OpenAIEmbedder, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("embedder model is required")
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("embedder dimensions must be positive, got %d", cfg.Dimensions)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultEmbedBatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultEmbedWorkers
	}

	opts := []openai.Option{
		openai.WithEmbeddingModel(cfg.Model),
	}
	if cfg.APIKey != "" {
		opts = append(opts, openai.WithToken(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating embeddings client: %w", err)
	}
	impl, err := embeddings.NewEmbedder(llm, embeddings.WithBatchSize(cfg.BatchSize))
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	pool, err := ants.NewPool(cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("creating embed worker pool: %w", err)
	}

	return &OpenAIEmbedder{
		impl:      impl,
		model:     cfg.Model,
		dim:       cfg.Dimensions,
		batchSize: cfg.BatchSize,
		pool:      pool,
	}, nil
}

func (e *OpenAIEmbedder) ModelID() string { return e.model }
func (e *OpenAIEmbedder) Dimensions() int { return e.dim }

// Close releases the worker pool.
func (e *OpenAIEmbedder) Close() {
	e.pool.Release()
}

func (e *OpenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.impl.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vec) != e.dim {
		return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", e.dim, len(vec))
	}
	return vec, nil
}

// EmbedBatch splits texts into chunks and embeds them concurrently. Results
// land in their original positions; the first error wins and cancels the
// remaining chunks.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := make([][]float32, len(texts))
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		mu.Unlock()
	}

	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		start, end := start, end

		wg.Add(1)
		if err := e.pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			vecs, err := e.impl.EmbedDocuments(ctx, texts[start:end])
			if err != nil {
				fail(fmt.Errorf("embedding batch [%d:%d]: %w", start, end, err))
				return
			}
			for i, vec := range vecs {
				if len(vec) != e.dim {
					fail(fmt.Errorf("embedding dimension mismatch: expected %d, got %d", e.dim, len(vec)))
					return
				}
				out[start+i] = vec
			}
		}); err != nil {
			wg.Done()
			fail(fmt.Errorf("submitting embed batch: %w", err))
			break
		}
	}

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
