// Snapshots and the on-disk embedding artifact.
//
// A Snapshot bundles the three indexes built from one vocabulary state.
// Snapshots are immutable: a rebuild produces a fresh snapshot and the
// registry swaps an atomic pointer, so in-flight searches keep a coherent
// view and never observe a half-built index.
//
// Embeddings are the expensive part of a build, so the matrix can be
// persisted as an artifact and reused when nothing relevant changed. The
// artifact binds itself to a vocabulary hash, model ID and dimension; any
// mismatch on load is a cache miss, never an error surfaced to search.
package words

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Snapshot is one immutable build of a language's indexes. The semantic
// index is nil when no embedder is configured or the embedding build
// failed; exact and fuzzy are always present.
type Snapshot struct {
	language string
	hash     string
	exact    *ExactIndex
	fuzzy    *FuzzyIndex
	semantic *SemanticIndex
	builtAt  time.Time
}

// Language returns the language this snapshot serves.
func (s *Snapshot) Language() string { return s.language }

// Hash returns the vocabulary hash the snapshot was built from.
func (s *Snapshot) Hash() string { return s.hash }

// HasSemantic reports whether semantic search is available.
func (s *Snapshot) HasSemantic() bool { return s.semantic != nil }

// BuiltAt returns when the snapshot finished building.
func (s *Snapshot) BuiltAt() time.Time { return s.builtAt }

// Size returns the vocabulary size.
func (s *Snapshot) Size() int { return s.fuzzy.vocab.Len() }

// ============================================================================
// EMBEDDING ARTIFACT
// ============================================================================

const (
	embeddingArtifactMagic   uint32 = 0x57454D42 // "WEMB"
	embeddingArtifactVersion uint32 = 1
)

// ErrArtifactMismatch reports that a stored artifact does not match the
// current vocabulary or embedding configuration. Callers treat it as a
// cache miss and re-embed.
var ErrArtifactMismatch = errors.New("embedding artifact does not match current state")

// EmbeddingArtifact is the persistable form of a vocabulary's embedding
// matrix. Vectors are stored as float16 to halve the footprint; the
// precision loss is far below embedding-model noise.
type EmbeddingArtifact struct {
	VocabularyHash string
	ModelID        string
	Descriptor     IndexDescriptor
	Vectors        [][]float32
}

// Artifact exports the index's embedding matrix for persistence.
func (s *SemanticIndex) Artifact() *EmbeddingArtifact {
	return &EmbeddingArtifact{
		VocabularyHash: s.vocab.Hash(),
		ModelID:        s.desc.ModelID,
		Descriptor:     s.desc,
		Vectors:        s.vectors,
	}
}

// WriteTo serializes the artifact. Layout: magic, version, vocabulary hash,
// model ID, strategy byte, dimension, parameter block, row count, then the
// float16 matrix row by row.
func (a *EmbeddingArtifact) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}

	for _, v := range []uint32{embeddingArtifactMagic, embeddingArtifactVersion} {
		if err := binary.Write(cw, binary.LittleEndian, v); err != nil {
			return cw.n, err
		}
	}
	if err := writeString(cw, a.VocabularyHash); err != nil {
		return cw.n, err
	}
	if err := writeString(cw, a.ModelID); err != nil {
		return cw.n, err
	}
	if err := binary.Write(cw, binary.LittleEndian, uint8(a.Descriptor.Strategy)); err != nil {
		return cw.n, err
	}
	params := []uint32{
		uint32(a.Descriptor.Dim),
		uint32(a.Descriptor.Params.NList),
		uint32(a.Descriptor.Params.NProbe),
		uint32(a.Descriptor.Params.M),
		uint32(a.Descriptor.Params.EfConstruction),
		uint32(a.Descriptor.Params.EfSearch),
		uint32(a.Descriptor.Params.Subquantizers),
		uint32(len(a.Vectors)),
	}
	if err := binary.Write(cw, binary.LittleEndian, params); err != nil {
		return cw.n, err
	}
	for _, row := range a.Vectors {
		if len(row) != a.Descriptor.Dim {
			return cw.n, fmt.Errorf("row has %d dimensions, expected %d", len(row), a.Descriptor.Dim)
		}
		if err := binary.Write(cw, binary.LittleEndian, halfEncode(row)); err != nil {
			return cw.n, err
		}
	}
	return cw.n, nil
}

// ReadFrom deserializes an artifact written by WriteTo.
func (a *EmbeddingArtifact) ReadFrom(r io.Reader) (int64, error) {
	cr := &countingReader{r: r}

	var magic, version uint32
	if err := binary.Read(cr, binary.LittleEndian, &magic); err != nil {
		return cr.n, err
	}
	if magic != embeddingArtifactMagic {
		return cr.n, fmt.Errorf("bad artifact magic 0x%08X", magic)
	}
	if err := binary.Read(cr, binary.LittleEndian, &version); err != nil {
		return cr.n, err
	}
	if version != embeddingArtifactVersion {
		return cr.n, fmt.Errorf("unsupported artifact version %d", version)
	}

	var err error
	if a.VocabularyHash, err = readString(cr); err != nil {
		return cr.n, err
	}
	if a.ModelID, err = readString(cr); err != nil {
		return cr.n, err
	}

	var strategy uint8
	if err := binary.Read(cr, binary.LittleEndian, &strategy); err != nil {
		return cr.n, err
	}
	var params [8]uint32
	if err := binary.Read(cr, binary.LittleEndian, &params); err != nil {
		return cr.n, err
	}
	a.Descriptor = IndexDescriptor{
		Strategy: IndexStrategy(strategy),
		Dim:      int(params[0]),
		ModelID:  a.ModelID,
		Params: IndexParams{
			NList:          int(params[1]),
			NProbe:         int(params[2]),
			M:              int(params[3]),
			EfConstruction: int(params[4]),
			EfSearch:       int(params[5]),
			Subquantizers:  int(params[6]),
		},
	}

	rows := int(params[7])
	a.Vectors = make([][]float32, rows)
	half := make([]uint16, a.Descriptor.Dim)
	for i := 0; i < rows; i++ {
		if err := binary.Read(cr, binary.LittleEndian, half); err != nil {
			return cr.n, err
		}
		a.Vectors[i] = halfDecode(half)
	}
	return cr.n, nil
}

// validate checks the artifact against the current vocabulary and embedder.
func (a *EmbeddingArtifact) validate(vocab *Vocabulary, embedder Embedder) error {
	switch {
	case a.VocabularyHash != vocab.Hash():
		return fmt.Errorf("%w: vocabulary hash changed", ErrArtifactMismatch)
	case a.ModelID != embedder.ModelID():
		return fmt.Errorf("%w: model %q vs %q", ErrArtifactMismatch, a.ModelID, embedder.ModelID())
	case a.Descriptor.Dim != embedder.Dimensions():
		return fmt.Errorf("%w: dimension %d vs %d", ErrArtifactMismatch, a.Descriptor.Dim, embedder.Dimensions())
	}
	return nil
}

// SaveEmbeddingArtifact writes the artifact to path atomically: write to a
// temp file in the same directory, then rename over the target.
func SaveEmbeddingArtifact(path string, a *EmbeddingArtifact) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".embeddings-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := a.WriteTo(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// LoadEmbeddingArtifact reads an artifact and validates it against the
// current vocabulary and embedder. A missing file or any mismatch returns
// an error wrapping ErrArtifactMismatch so callers can treat it uniformly
// as a cache miss.
func LoadEmbeddingArtifact(path string, vocab *Vocabulary, embedder Embedder) (*EmbeddingArtifact, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: no artifact at %s", ErrArtifactMismatch, path)
		}
		return nil, err
	}
	defer f.Close()

	var a EmbeddingArtifact
	if _, err := a.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("reading artifact %s: %w", path, err)
	}
	if err := a.validate(vocab, embedder); err != nil {
		return nil, err
	}
	return &a, nil
}

// ============================================================================
// WIRE HELPERS
// ============================================================================

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

type countingReader struct {
	r io.Reader
	n int64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.n += int64(n)
	return n, err
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}

// maxWireStringLen bounds string length prefixes on read. The artifact only
// stores a vocabulary hash and a model ID; anything longer is corruption.
const maxWireStringLen = 4096

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	if n > maxWireStringLen {
		return "", fmt.Errorf("%w: string length %d exceeds limit", ErrArtifactMismatch, n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
