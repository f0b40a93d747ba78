//go:build cgo
// +build cgo

// CLIP two-tower embedding via ONNX Runtime (requires CGO and the
// onnxruntime shared library). The text and image towers are exported as
// separate ONNX models sharing one output embedding space.
package embedding

import (
	"context"
	"fmt"
	"sync"

	"github.com/hyperjump/tabemono/pkg/utils"
	ort "github.com/yalue/onnxruntime_go"
)

// CLIPEmbedder embeds text and images into the same vector space using two
// ONNX sessions. All returned vectors are unit-normalized.
type CLIPEmbedder struct {
	dimensions int
	maxTokens  int
	cache      *Cache
	tokenizer  Tokenizer

	// Pre-allocated tensors; session runs update input data in place.
	textSession  *ort.AdvancedSession
	inputIDs     *ort.Tensor[int64]
	attention    *ort.Tensor[int64]
	textOutput   *ort.Tensor[float32]
	imageSession *ort.AdvancedSession
	pixelValues  *ort.Tensor[float32]
	imageOutput  *ort.Tensor[float32]

	mu sync.Mutex
}

// NewCLIPEmbedder creates a CLIP embedder from exported text and image tower
// models. InitializeEnvironment is called if not already done.
func NewCLIPEmbedder(textModelPath, imageModelPath string, dimensions, maxTokens, cacheSize int) (*CLIPEmbedder, error) {
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
	}

	e := &CLIPEmbedder{
		dimensions: dimensions,
		maxTokens:  maxTokens,
		cache:      NewCache(cacheSize),
		tokenizer:  &SimpleTokenizer{},
	}
	if err := e.initText(textModelPath); err != nil {
		return nil, err
	}
	if err := e.initImage(imageModelPath); err != nil {
		_ = e.Close()
		return nil, err
	}
	return e, nil
}

func (e *CLIPEmbedder) initText(modelPath string) error {
	inputIDs, attention := e.tokenizer.Tokenize("", e.maxTokens)

	var err error
	e.inputIDs, err = ort.NewTensor(ort.NewShape(1, int64(e.maxTokens)), inputIDs)
	if err != nil {
		return fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	e.attention, err = ort.NewTensor(ort.NewShape(1, int64(e.maxTokens)), attention)
	if err != nil {
		return fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	e.textOutput, err = ort.NewTensor(ort.NewShape(1, int64(e.dimensions)), make([]float32, e.dimensions))
	if err != nil {
		return fmt.Errorf("failed to create text output tensor: %w", err)
	}
	e.textSession, err = ort.NewAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask"},
		[]string{"text_embeds"},
		[]ort.ArbitraryTensor{e.inputIDs, e.attention},
		[]ort.ArbitraryTensor{e.textOutput},
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to create text session: %w", err)
	}
	return nil
}

func (e *CLIPEmbedder) initImage(modelPath string) error {
	var err error
	e.pixelValues, err = ort.NewTensor(
		ort.NewShape(1, 3, imageSize, imageSize),
		make([]float32, 3*imageSize*imageSize),
	)
	if err != nil {
		return fmt.Errorf("failed to create pixel_values tensor: %w", err)
	}
	e.imageOutput, err = ort.NewTensor(ort.NewShape(1, int64(e.dimensions)), make([]float32, e.dimensions))
	if err != nil {
		return fmt.Errorf("failed to create image output tensor: %w", err)
	}
	e.imageSession, err = ort.NewAdvancedSession(
		modelPath,
		[]string{"pixel_values"},
		[]string{"image_embeds"},
		[]ort.ArbitraryTensor{e.pixelValues},
		[]ort.ArbitraryTensor{e.imageOutput},
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to create image session: %w", err)
	}
	return nil
}

// EmbedText returns the unit-normalized text embedding, using cache when available.
func (e *CLIPEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if cached, ok := e.cache.Get(text); ok {
		return cached, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	inputIDs, attention := e.tokenizer.Tokenize(text, e.maxTokens)
	copy(e.inputIDs.GetData(), inputIDs)
	copy(e.attention.GetData(), attention)

	if err := e.textSession.Run(); err != nil {
		return nil, fmt.Errorf("text inference failed: %w", err)
	}

	embedding := make([]float32, e.dimensions)
	copy(embedding, e.textOutput.GetData()[:e.dimensions])
	utils.NormalizeL2(embedding)
	e.cache.Set(text, embedding)
	return embedding, nil
}

// EmbedTextBatch calls EmbedText for each text.
func (e *CLIPEmbedder) EmbedTextBatch(ctx context.Context, texts []string) ([][]float32, error) {
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

// EmbedImage decodes, preprocesses, and embeds the image. The result is
// unit-normalized. Images are never cached; identical bytes re-run inference.
func (e *CLIPEmbedder) EmbedImage(ctx context.Context, image []byte) ([]float32, error) {
	pixels, err := preprocessImage(image)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	copy(e.pixelValues.GetData(), pixels)
	if err := e.imageSession.Run(); err != nil {
		return nil, fmt.Errorf("image inference failed: %w", err)
	}

	embedding := make([]float32, e.dimensions)
	copy(embedding, e.imageOutput.GetData()[:e.dimensions])
	utils.NormalizeL2(embedding)
	return embedding, nil
}

// Dimensions returns the embedding dimension.
func (e *CLIPEmbedder) Dimensions() int {
	return e.dimensions
}

// Close destroys both sessions and all tensors.
func (e *CLIPEmbedder) Close() error {
	var err error
	if e.textSession != nil {
		err = e.textSession.Destroy()
		e.textSession = nil
	}
	if e.imageSession != nil {
		if destroyErr := e.imageSession.Destroy(); err == nil {
			err = destroyErr
		}
		e.imageSession = nil
	}
	if e.inputIDs != nil {
		_ = e.inputIDs.Destroy()
		e.inputIDs = nil
	}
	if e.attention != nil {
		_ = e.attention.Destroy()
		e.attention = nil
	}
	if e.textOutput != nil {
		_ = e.textOutput.Destroy()
		e.textOutput = nil
	}
	if e.pixelValues != nil {
		_ = e.pixelValues.Destroy()
		e.pixelValues = nil
	}
	if e.imageOutput != nil {
		_ = e.imageOutput.Destroy()
		e.imageOutput = nil
	}
	return err
}
