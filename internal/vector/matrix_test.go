package vector

import (
	"math"
	"testing"
)

func TestNewMatrixValidation(t *testing.T) {
	if _, err := NewMatrix(0); err == nil {
		t.Error("zero dimension should fail")
	}
	if _, err := NewMatrix(-3); err == nil {
		t.Error("negative dimension should fail")
	}
}

func TestAppendDimensionMismatch(t *testing.T) {
	m, err := NewMatrix(3)
	if err != nil {
		t.Fatalf("NewMatrix: %v", err)
	}
	if err := m.Append("x", "x", []float32{1, 2}); err == nil {
		t.Error("mismatched vector should fail")
	}
}

func TestAppendNormalizesCopy(t *testing.T) {
	m, _ := NewMatrix(2)
	vec := []float32{3, 4}
	if err := m.Append("a", "a", vec); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if vec[0] != 3 || vec[1] != 4 {
		t.Error("Append should not mutate the caller's vector")
	}
	hits, err := m.Search([]float32{0.6, 0.8}, 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if math.Abs(hits[0].Score-1.0) > 1e-6 {
		t.Errorf("self-similarity = %v, want 1.0", hits[0].Score)
	}
}

func TestSearchRanking(t *testing.T) {
	m, _ := NewMatrix(2)
	rows := [][]float32{
		{1, 0},  // row 0: identical to query
		{0, 1},  // row 1: orthogonal
		{1, 1},  // row 2: 45 degrees
		{-1, 0}, // row 3: opposite
	}
	for i, row := range rows {
		if err := m.Append(string(rune('a'+i)), "", row); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	hits, err := m.Search([]float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	wantOrder := []int{0, 2, 1}
	for i, want := range wantOrder {
		if hits[i].Index != want {
			t.Errorf("hit %d: index = %d, want %d", i, hits[i].Index, want)
		}
	}
	if hits[0].Score < hits[1].Score || hits[1].Score < hits[2].Score {
		t.Errorf("scores not descending: %v", hits)
	}
}

func TestSearchNegativeScoresNotClamped(t *testing.T) {
	m, _ := NewMatrix(2)
	_ = m.Append("opposite", "", []float32{-1, 0})
	hits, err := m.Search([]float32{1, 0}, 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if math.Abs(hits[0].Score-(-1.0)) > 1e-6 {
		t.Errorf("score = %v, want -1.0 (unclamped)", hits[0].Score)
	}
}

func TestSearchEdgeCases(t *testing.T) {
	m, _ := NewMatrix(2)
	if hits, err := m.Search([]float32{1, 0}, 5); err != nil || hits != nil {
		t.Errorf("empty matrix: hits=%v err=%v", hits, err)
	}
	_ = m.Append("a", "", []float32{1, 0})
	if hits, err := m.Search([]float32{1, 0}, 0); err != nil || hits != nil {
		t.Errorf("k=0: hits=%v err=%v", hits, err)
	}
	if _, err := m.Search([]float32{1, 0, 0}, 1); err == nil {
		t.Error("query dimension mismatch should fail")
	}
	if hits, _ := m.Search([]float32{1, 0}, 10); len(hits) != 1 {
		t.Errorf("k beyond rows should return all rows, got %d", len(hits))
	}
}

func TestTopKBoundaryTiesKeepEarliestRow(t *testing.T) {
	selector := newTopK(2)
	selector.Offer(Hit{Index: 0, Score: 0.5})
	selector.Offer(Hit{Index: 1, Score: 0.9})
	selector.Offer(Hit{Index: 2, Score: 0.5})
	results := selector.Results()
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Index != 1 {
		t.Errorf("best hit index = %d, want 1", results[0].Index)
	}
	if results[1].Index != 0 {
		t.Errorf("boundary tie should keep earliest row, got index %d", results[1].Index)
	}
}

func TestInnerProductAndNorm(t *testing.T) {
	if got := InnerProduct([]float32{1, 2, 3}, []float32{4, 5, 6}); math.Abs(got-32) > 1e-6 {
		t.Errorf("InnerProduct = %v, want 32", got)
	}
	if got := L2Norm([]float32{3, 4}); math.Abs(got-5) > 1e-6 {
		t.Errorf("L2Norm = %v, want 5", got)
	}
}
