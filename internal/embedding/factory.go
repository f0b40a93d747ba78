package embedding

import (
	"fmt"

	"github.com/hyperjump/tabemono/internal/config"
)

// New creates the embedding backend selected by cfg.Backend.
// Supported backends: "onnx" (local CLIP, requires CGO), "mock"
// (deterministic, for tests and development), "none" (null backend that
// deterministically fails). Selection happens here, at construction time,
// never by import-time probing.
func New(cfg *config.EmbeddingConfig) (Embedder, error) {
	switch cfg.Backend {
	case "onnx":
		return NewCLIPEmbedder(cfg.TextModelPath, cfg.ImageModelPath, cfg.Dimensions, cfg.MaxTokens, cfg.CacheSize)
	case "mock":
		return NewMockEmbedder(cfg.Dimensions), nil
	case "none", "":
		return NewNullEmbedder(), nil
	default:
		return nil, fmt.Errorf("unknown embedding backend: %s (supported: onnx, mock, none)", cfg.Backend)
	}
}

// IsNull reports whether e is the null backend.
func IsNull(e Embedder) bool {
	_, ok := e.(*NullEmbedder)
	return ok
}
