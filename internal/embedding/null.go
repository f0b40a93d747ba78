package embedding

import "context"

// NullEmbedder is the explicit "no backend configured" variant. Every
// operation fails deterministically with ErrBackendUnavailable, so callers
// exercise their degradation paths instead of crashing.
type NullEmbedder struct{}

// NewNullEmbedder returns an embedder that always fails.
func NewNullEmbedder() *NullEmbedder {
	return &NullEmbedder{}
}

// EmbedText always fails with ErrBackendUnavailable.
func (e *NullEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return nil, ErrBackendUnavailable
}

// EmbedTextBatch always fails with ErrBackendUnavailable.
func (e *NullEmbedder) EmbedTextBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, ErrBackendUnavailable
}

// EmbedImage always fails with ErrBackendUnavailable.
func (e *NullEmbedder) EmbedImage(ctx context.Context, image []byte) ([]float32, error) {
	return nil, ErrBackendUnavailable
}

// Dimensions returns 0; the null backend has no vector space.
func (e *NullEmbedder) Dimensions() int {
	return 0
}

// Close is a no-op for NullEmbedder.
func (e *NullEmbedder) Close() error {
	return nil
}
