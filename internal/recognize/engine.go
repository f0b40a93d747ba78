package recognize

import (
	"context"

	"github.com/hyperjump/tabemono/internal/catalog"
	"github.com/hyperjump/tabemono/internal/lexical"
	"github.com/hyperjump/tabemono/internal/models"
	"github.com/hyperjump/tabemono/internal/vision"
	"go.uber.org/zap"
)

// Engine is the recognition facade: text queries go to the lexical matcher,
// image queries to the embedding index or, when no local embedding backend
// is configured, to the vision gateway. The choice of image path is fixed at
// construction time.
type Engine struct {
	catalog *catalog.Store
	matcher *lexical.Matcher
	index   *EmbeddingIndex
	gateway *vision.Gateway
	logger  *zap.Logger
}

// NewEngine creates the engine. index may be nil when no embedding backend
// is configured; gateway may be nil when no vision endpoint is configured.
// With both nil, image recognition returns empty results.
func NewEngine(cat *catalog.Store, matcher *lexical.Matcher, index *EmbeddingIndex, gateway *vision.Gateway, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		catalog: cat,
		matcher: matcher,
		index:   index,
		gateway: gateway,
		logger:  logger,
	}
}

// Recognize returns up to topK catalog candidates for a free-text
// description, ranked by confidence. A blank query yields an empty result.
func (e *Engine) Recognize(text string, topK int) []models.Candidate {
	return e.matcher.Scan(text, topK)
}

// RecognizeImage returns up to topK candidates for a photo. The embedding
// path degrades to an empty result when its backend is unavailable; the
// vision path returns vision.ErrUnavailable, which callers surface as
// "recognition degraded" rather than a hard failure.
func (e *Engine) RecognizeImage(ctx context.Context, image []byte, topK int) ([]models.Candidate, error) {
	switch {
	case e.index != nil:
		return e.index.MatchImage(ctx, image, topK)
	case e.gateway != nil:
		detections, err := e.gateway.AnalyzeImage(ctx, image, topK)
		if err != nil {
			return nil, err
		}
		candidates := make([]models.Candidate, 0, len(detections))
		for _, d := range detections {
			item := models.FoodItem{
				Name:           d.Name,
				ServingSize:    d.ServingSize,
				Calories:       d.Calories,
				Macronutrients: d.Macronutrients,
			}
			candidates = append(candidates, models.Candidate{Item: &item, Confidence: d.Confidence})
		}
		return candidates, nil
	default:
		e.logger.Debug("no image recognition backend configured")
		return nil, nil
	}
}

// KnownItems returns the ordered catalog snapshot.
func (e *Engine) KnownItems() []models.FoodItem {
	return e.catalog.Items()
}

// RegisterItem appends a custom item to the catalog and marks the embedding
// matrix stale, forcing a rebuild on the next image query. Text search picks
// the item up immediately since it needs no precomputed structure.
func (e *Engine) RegisterItem(item models.FoodItem) (models.FoodItem, error) {
	if err := e.catalog.Add(item); err != nil {
		return models.FoodItem{}, err
	}
	if e.index != nil {
		e.index.Invalidate()
	}
	return item, nil
}

// InvalidateEmbeddings forces an embedding matrix rebuild, e.g. after the
// catalog file was reloaded from disk.
func (e *Engine) InvalidateEmbeddings() {
	if e.index != nil {
		e.index.Invalidate()
	}
}
