// Package recognize composes the catalog, lexical matcher, embedding index,
// and vision gateway into the food recognition engine.
package recognize

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hyperjump/tabemono/internal/catalog"
	"github.com/hyperjump/tabemono/internal/embedding"
	"github.com/hyperjump/tabemono/internal/models"
	"github.com/hyperjump/tabemono/internal/vector"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// EmbeddingIndex matches image queries against cached text embeddings of the
// catalog. The embedding matrix is built at most once per catalog snapshot,
// even under concurrent first access, and persisted to a cache artifact so
// later processes skip the expensive recompute.
type EmbeddingIndex struct {
	catalog   *catalog.Store
	embedder  embedding.Embedder
	cachePath string
	logger    *zap.Logger

	group singleflight.Group

	mu           sync.RWMutex
	matrix       *vector.Matrix
	builtVersion uint64
}

// NewEmbeddingIndex creates an index over the catalog using the given
// embedding backend. cachePath may be empty to disable persistence.
func NewEmbeddingIndex(cat *catalog.Store, embedder embedding.Embedder, cachePath string, logger *zap.Logger) *EmbeddingIndex {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmbeddingIndex{
		catalog:   cat,
		embedder:  embedder,
		cachePath: cachePath,
		logger:    logger,
	}
}

// EnsureTextEmbeddings makes sure the embedding matrix matches the current
// catalog snapshot, building or loading it if needed. Concurrent callers
// share a single build; the losers wait for the winner's result.
func (ix *EmbeddingIndex) EnsureTextEmbeddings(ctx context.Context) error {
	version := ix.catalog.Version()
	if ix.current(version) {
		return nil
	}

	key := fmt.Sprintf("build-%d", version)
	_, err, _ := ix.group.Do(key, func() (interface{}, error) {
		// Re-check under the flight: another caller may have finished
		// the build while this one queued.
		if ix.current(ix.catalog.Version()) {
			return nil, nil
		}
		return nil, ix.build(ctx)
	})
	return err
}

func (ix *EmbeddingIndex) current(version uint64) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.matrix != nil &&
		ix.builtVersion == version &&
		ix.matrix.Len() == ix.catalog.Len()
}

func (ix *EmbeddingIndex) build(ctx context.Context) error {
	version := ix.catalog.Version()
	items := ix.catalog.Items()

	// A persisted artifact whose row count matches the live catalog is the
	// dominant fast path after first use.
	ix.mu.RLock()
	neverBuilt := ix.matrix == nil
	ix.mu.RUnlock()
	if neverBuilt && ix.cachePath != "" {
		cached, err := vector.Load(ix.cachePath)
		if err != nil {
			ix.logger.Warn("embedding cache unreadable, recomputing",
				zap.String("path", ix.cachePath), zap.Error(err))
		} else if cached != nil && cached.Len() == len(items) {
			ix.mu.Lock()
			ix.matrix = cached
			ix.builtVersion = version
			ix.mu.Unlock()
			ix.logger.Info("embedding cache loaded",
				zap.String("path", ix.cachePath), zap.Int("items", cached.Len()))
			return nil
		}
	}

	texts := make([]string, len(items))
	for i := range items {
		texts[i] = items[i].SearchText()
	}
	vectors, err := ix.embedder.EmbedTextBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed catalog: %w", err)
	}

	dim := ix.embedder.Dimensions()
	if dim <= 0 && len(vectors) > 0 {
		dim = len(vectors[0])
	}
	matrix, err := vector.NewMatrix(dim)
	if err != nil {
		return fmt.Errorf("build matrix: %w", err)
	}
	for i, vec := range vectors {
		if err := matrix.Append(items[i].Name, texts[i], vec); err != nil {
			return fmt.Errorf("build matrix: %w", err)
		}
	}

	ix.mu.Lock()
	ix.matrix = matrix
	ix.builtVersion = version
	ix.mu.Unlock()

	// Persistence is best-effort; the in-memory matrix stays authoritative
	// for the life of the process.
	if ix.cachePath != "" {
		if err := vector.Save(ix.cachePath, matrix); err != nil {
			ix.logger.Warn("embedding cache save failed",
				zap.String("path", ix.cachePath), zap.Error(err))
		}
	}
	ix.logger.Info("embedding matrix built", zap.Int("items", matrix.Len()), zap.Int("dim", dim))
	return nil
}

// MatchImage embeds the image and returns the topK most similar catalog
// items with raw cosine similarity as confidence. An unavailable embedding
// backend yields an empty result, never an error: callers degrade to lexical
// search or the vision gateway.
func (ix *EmbeddingIndex) MatchImage(ctx context.Context, image []byte, topK int) ([]models.Candidate, error) {
	if err := ix.EnsureTextEmbeddings(ctx); err != nil {
		if errors.Is(err, embedding.ErrBackendUnavailable) {
			ix.logger.Warn("embedding backend unavailable, image match degraded")
			return nil, nil
		}
		return nil, err
	}

	queryVec, err := ix.embedder.EmbedImage(ctx, image)
	if err != nil {
		if errors.Is(err, embedding.ErrBackendUnavailable) {
			ix.logger.Warn("embedding backend unavailable, image match degraded")
			return nil, nil
		}
		return nil, fmt.Errorf("embed image: %w", err)
	}

	ix.mu.RLock()
	matrix := ix.matrix
	ix.mu.RUnlock()

	hits, err := matrix.Search(queryVec, topK)
	if err != nil {
		return nil, fmt.Errorf("match image: %w", err)
	}

	items := ix.catalog.Items()
	candidates := make([]models.Candidate, 0, len(hits))
	for _, hit := range hits {
		if hit.Index >= len(items) {
			continue
		}
		item := items[hit.Index]
		candidates = append(candidates, models.Candidate{Item: &item, Confidence: hit.Score})
	}
	return candidates, nil
}

// Invalidate marks the matrix stale so the next image query rebuilds it.
// Called after catalog appends; the catalog version bump does the real work.
func (ix *EmbeddingIndex) Invalidate() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	// Keep the matrix for diagnostics but it no longer matches the catalog
	// version, so current() reports false and the next ensure rebuilds.
	if ix.builtVersion != 0 {
		ix.builtVersion = 0
	}
}

// Size returns the number of rows currently in the matrix.
func (ix *EmbeddingIndex) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.matrix == nil {
		return 0
	}
	return ix.matrix.Len()
}
