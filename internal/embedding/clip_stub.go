//go:build !cgo
// +build !cgo

package embedding

import "fmt"

// NewCLIPEmbedder is unavailable without CGO and the onnxruntime library.
func NewCLIPEmbedder(textModelPath, imageModelPath string, dimensions, maxTokens, cacheSize int) (Embedder, error) {
	return nil, fmt.Errorf("onnx backend requires CGO and the onnxruntime library: %w", ErrBackendUnavailable)
}
