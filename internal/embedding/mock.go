package embedding

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/hyperjump/tabemono/pkg/utils"
)

// MockEmbedder is a deterministic embedder for tests. The same text or image
// bytes always produce the same unit vector.
type MockEmbedder struct {
	dimensions int
}

// NewMockEmbedder returns an embedder producing deterministic embeddings of
// the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 512
	}
	return &MockEmbedder{dimensions: dimensions}
}

// EmbedText returns a deterministic embedding derived from the text hash.
func (e *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return e.fromSeed(hashString(text)), nil
}

// EmbedTextBatch calls EmbedText for each text.
func (e *MockEmbedder) EmbedTextBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.EmbedText(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// EmbedImage returns a deterministic embedding derived from the image bytes hash.
func (e *MockEmbedder) EmbedImage(ctx context.Context, image []byte) ([]float32, error) {
	h := fnv.New64a()
	_, _ = h.Write(image)
	return e.fromSeed(h.Sum64()), nil
}

func (e *MockEmbedder) fromSeed(seed uint64) []float32 {
	emb := make([]float32, e.dimensions)
	for i := 0; i < e.dimensions; i++ {
		emb[i] = float32(math.Sin(float64(seed%100000)*float64(i+1))*0.1 + 0.01)
	}
	utils.NormalizeL2(emb)
	return emb
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for MockEmbedder.
func (e *MockEmbedder) Close() error {
	return nil
}

func hashString(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}
