package words

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// mockEmbedder produces deterministic vectors without a network. Texts with
// an entry in vectors get that vector; everything else hashes to a stable
// pseudo-random point, so distinct words land at distinct locations and the
// same word always lands at the same one.
type mockEmbedder struct {
	dim     int
	model   string
	vectors map[string][]float32
	fail    bool

	queryCalls int
	batchCalls int
}

func newMockEmbedder(dim int) *mockEmbedder {
	return &mockEmbedder{dim: dim, model: "mock-embed-v1"}
}

func (m *mockEmbedder) ModelID() string { return m.model }
func (m *mockEmbedder) Dimensions() int { return m.dim }

func (m *mockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	m.queryCalls++
	if m.fail {
		return nil, fmt.Errorf("mock embedder failure")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	return hashVector(text, m.dim), nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.batchCalls++
	if m.fail {
		return nil, fmt.Errorf("mock embedder failure")
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if v, ok := m.vectors[t]; ok {
			out[i] = v
			continue
		}
		out[i] = hashVector(t, m.dim)
	}
	return out, nil
}

// hashVector maps text to a stable point with coordinates in [0, 1).
func hashVector(text string, dim int) []float32 {
	out := make([]float32, dim)
	seed := sha256.Sum256([]byte(text))
	for i := 0; i < dim; i++ {
		block := sha256.Sum256(append(seed[:], byte(i)))
		bits := binary.LittleEndian.Uint32(block[:4])
		out[i] = float32(bits) / float32(1<<32)
	}
	return out
}
