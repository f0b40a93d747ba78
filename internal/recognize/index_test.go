package recognize

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/hyperjump/tabemono/internal/catalog"
	"github.com/hyperjump/tabemono/internal/embedding"
	"github.com/hyperjump/tabemono/internal/models"
)

// countingEmbedder wraps an embedder and counts batch embedding calls, so
// tests can assert that the catalog corpus is embedded at most once.
type countingEmbedder struct {
	embedding.Embedder
	batchCalls int64
	imageCalls int64
}

func (c *countingEmbedder) EmbedTextBatch(ctx context.Context, texts []string) ([][]float32, error) {
	atomic.AddInt64(&c.batchCalls, 1)
	return c.Embedder.EmbedTextBatch(ctx, texts)
}

func (c *countingEmbedder) EmbedImage(ctx context.Context, image []byte) ([]float32, error) {
	atomic.AddInt64(&c.imageCalls, 1)
	return c.Embedder.EmbedImage(ctx, image)
}

func indexCatalog(t *testing.T) *catalog.Store {
	t.Helper()
	store := catalog.NewStore(nil)
	for _, item := range []models.FoodItem{
		{Name: "ramen", ServingSize: "1 bowl", Calories: 550},
		{Name: "sushi", ServingSize: "8 pieces", Calories: 350},
		{Name: "onigiri", ServingSize: "1 piece", Calories: 180},
	} {
		if err := store.Add(item); err != nil {
			t.Fatalf("add %s: %v", item.Name, err)
		}
	}
	return store
}

func TestEnsureTextEmbeddingsBuildsOnce(t *testing.T) {
	cat := indexCatalog(t)
	emb := &countingEmbedder{Embedder: embedding.NewMockEmbedder(16)}
	ix := NewEmbeddingIndex(cat, emb, "", nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := ix.EnsureTextEmbeddings(ctx); err != nil {
			t.Fatalf("EnsureTextEmbeddings: %v", err)
		}
	}
	if got := atomic.LoadInt64(&emb.batchCalls); got != 1 {
		t.Errorf("batch calls = %d, want 1 for a stable catalog", got)
	}
	if ix.Size() != cat.Len() {
		t.Errorf("index size = %d, want %d", ix.Size(), cat.Len())
	}
}

func TestEnsureTextEmbeddingsConcurrent(t *testing.T) {
	cat := indexCatalog(t)
	emb := &countingEmbedder{Embedder: embedding.NewMockEmbedder(16)}
	ix := NewEmbeddingIndex(cat, emb, "", nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ix.EnsureTextEmbeddings(context.Background()); err != nil {
				t.Errorf("EnsureTextEmbeddings: %v", err)
			}
		}()
	}
	wg.Wait()
	if got := atomic.LoadInt64(&emb.batchCalls); got != 1 {
		t.Errorf("batch calls = %d, want 1 under concurrent first access", got)
	}
}

func TestEmbeddingArtifactReuse(t *testing.T) {
	cat := indexCatalog(t)
	cachePath := filepath.Join(t.TempDir(), "embeddings.bin.gz")
	ctx := context.Background()

	first := &countingEmbedder{Embedder: embedding.NewMockEmbedder(16)}
	ix := NewEmbeddingIndex(cat, first, cachePath, nil)
	if err := ix.EnsureTextEmbeddings(ctx); err != nil {
		t.Fatalf("EnsureTextEmbeddings: %v", err)
	}
	if first.batchCalls != 1 {
		t.Fatalf("first build batch calls = %d, want 1", first.batchCalls)
	}

	// A fresh index over the same catalog loads the artifact and never
	// re-invokes the text backend.
	second := &countingEmbedder{Embedder: embedding.NewMockEmbedder(16)}
	ix2 := NewEmbeddingIndex(cat, second, cachePath, nil)
	if err := ix2.EnsureTextEmbeddings(ctx); err != nil {
		t.Fatalf("EnsureTextEmbeddings from cache: %v", err)
	}
	if second.batchCalls != 0 {
		t.Errorf("batch calls = %d, want 0 when loading from cache", second.batchCalls)
	}
	if ix2.Size() != cat.Len() {
		t.Errorf("cached index size = %d, want %d", ix2.Size(), cat.Len())
	}
}

func TestEmbeddingArtifactStaleOnCatalogGrowth(t *testing.T) {
	cat := indexCatalog(t)
	cachePath := filepath.Join(t.TempDir(), "embeddings.bin.gz")
	ctx := context.Background()

	first := &countingEmbedder{Embedder: embedding.NewMockEmbedder(16)}
	if err := NewEmbeddingIndex(cat, first, cachePath, nil).EnsureTextEmbeddings(ctx); err != nil {
		t.Fatalf("EnsureTextEmbeddings: %v", err)
	}

	if err := cat.Add(models.FoodItem{Name: "tempura", ServingSize: "5 pieces", Calories: 400}); err != nil {
		t.Fatalf("add: %v", err)
	}
	second := &countingEmbedder{Embedder: embedding.NewMockEmbedder(16)}
	ix := NewEmbeddingIndex(cat, second, cachePath, nil)
	if err := ix.EnsureTextEmbeddings(ctx); err != nil {
		t.Fatalf("EnsureTextEmbeddings: %v", err)
	}
	if second.batchCalls != 1 {
		t.Errorf("batch calls = %d, want 1 when artifact row count is stale", second.batchCalls)
	}
	if ix.Size() != 4 {
		t.Errorf("index size = %d, want 4", ix.Size())
	}
}

func TestMatchImage(t *testing.T) {
	cat := indexCatalog(t)
	ix := NewEmbeddingIndex(cat, embedding.NewMockEmbedder(16), "", nil)

	candidates, err := ix.MatchImage(context.Background(), []byte("photo bytes"), 2)
	if err != nil {
		t.Fatalf("MatchImage: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].Confidence < candidates[1].Confidence {
		t.Errorf("candidates not sorted by confidence: %v, %v",
			candidates[0].Confidence, candidates[1].Confidence)
	}
	for _, c := range candidates {
		if c.Item == nil || c.Item.Name == "" {
			t.Errorf("candidate missing item: %+v", c)
		}
	}
}

func TestMatchImageUnavailableBackend(t *testing.T) {
	cat := indexCatalog(t)
	ix := NewEmbeddingIndex(cat, embedding.NewNullEmbedder(), "", nil)

	candidates, err := ix.MatchImage(context.Background(), []byte("photo"), 3)
	if err != nil {
		t.Fatalf("unavailable backend should not error, got %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("expected empty result, got %v", candidates)
	}
}

func TestInvalidateForcesRebuild(t *testing.T) {
	cat := indexCatalog(t)
	emb := &countingEmbedder{Embedder: embedding.NewMockEmbedder(16)}
	ix := NewEmbeddingIndex(cat, emb, "", nil)
	ctx := context.Background()

	if err := ix.EnsureTextEmbeddings(ctx); err != nil {
		t.Fatalf("EnsureTextEmbeddings: %v", err)
	}
	if err := cat.Add(models.FoodItem{Name: "udon", ServingSize: "1 bowl", Calories: 460}); err != nil {
		t.Fatalf("add: %v", err)
	}
	ix.Invalidate()
	if err := ix.EnsureTextEmbeddings(ctx); err != nil {
		t.Fatalf("EnsureTextEmbeddings after invalidate: %v", err)
	}
	if emb.batchCalls != 2 {
		t.Errorf("batch calls = %d, want 2 after invalidation", emb.batchCalls)
	}
	if ix.Size() != 4 {
		t.Errorf("rebuilt index size = %d, want 4", ix.Size())
	}
}
