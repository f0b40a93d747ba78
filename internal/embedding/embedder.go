// Package embedding provides text and image embedding backends and caching.
package embedding

import (
	"context"
	"errors"
)

// ErrBackendUnavailable is returned when the embedding backend is not
// configured or cannot be used. Callers are expected to degrade to lexical
// search or the vision gateway, never to crash.
var ErrBackendUnavailable = errors.New("embedding: backend unavailable")

// ErrInvalidImage is returned when image bytes cannot be decoded. This is a
// caller input error, not a backend failure, and is reported as such.
var ErrInvalidImage = errors.New("embedding: unreadable image data")

// Embedder produces unit-normalized vector embeddings for text and images.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedTextBatch(ctx context.Context, texts []string) ([][]float32, error)
	EmbedImage(ctx context.Context, image []byte) ([]float32, error)
	Dimensions() int
	Close() error
}
