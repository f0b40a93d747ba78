// Package vector provides the catalog embedding matrix and similarity search.
package vector

import (
	"fmt"

	"github.com/hyperjump/tabemono/pkg/utils"
)

// Matrix holds one unit-normalized embedding row per catalog item,
// index-aligned with the catalog's insertion order.
type Matrix struct {
	dim   int
	rows  [][]float32
	names []string
	texts []string
}

// NewMatrix creates an empty matrix for vectors of the given dimension.
func NewMatrix(dim int) (*Matrix, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("dimension must be positive")
	}
	return &Matrix{dim: dim}, nil
}

// Append adds a row for the named item. The vector is copied and
// unit-normalized; its length must match the matrix dimension.
func (m *Matrix) Append(name, text string, vec []float32) error {
	if len(vec) != m.dim {
		return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(vec), m.dim)
	}
	row := make([]float32, m.dim)
	copy(row, vec)
	utils.NormalizeL2(row)
	m.rows = append(m.rows, row)
	m.names = append(m.names, name)
	m.texts = append(m.texts, text)
	return nil
}

// Len returns the number of rows.
func (m *Matrix) Len() int {
	return len(m.rows)
}

// Dim returns the vector dimension.
func (m *Matrix) Dim() int {
	return m.dim
}

// Names returns the item names in row order.
func (m *Matrix) Names() []string {
	return m.names
}

// Search computes cosine similarity (dot product of unit vectors) of query
// against every row and returns the k highest-scoring rows, best first.
// Ties are broken by row order. Uses a partial top-k selection rather than a
// full sort. Scores are raw similarities and deliberately not clamped.
func (m *Matrix) Search(query []float32, k int) ([]Hit, error) {
	if len(query) != m.dim {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), m.dim)
	}
	if k <= 0 || len(m.rows) == 0 {
		return nil, nil
	}

	selector := newTopK(k)
	for i, row := range m.rows {
		var dot float64
		for j := 0; j < m.dim; j++ {
			dot += float64(query[j] * row[j])
		}
		selector.Offer(Hit{Index: i, Score: dot})
	}
	return selector.Results(), nil
}
