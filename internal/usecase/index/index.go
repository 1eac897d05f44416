// Package index builds the per-load vector index over record search texts.
package index

import (
	"fmt"
	"math"
	"sort"

	"github.com/kailas-cloud/tripmate/internal/domain"
)

// Hit is one search result: a record position and its inner-product score.
type Hit struct {
	Position int
	Score    float64
}

// SearchIndex is a flat inner-product index over L2-normalized vectors.
// Positions are the record positions the vectors were built from.
type SearchIndex struct {
	dims    int
	vectors [][]float32
}

// New normalizes a copy of every vector and indexes them by position.
// All vectors must share one dimensionality.
func New(vectors [][]float32) (*SearchIndex, error) {
	idx := &SearchIndex{vectors: make([][]float32, len(vectors))}
	for i, v := range vectors {
		if i == 0 {
			idx.dims = len(v)
		} else if len(v) != idx.dims {
			return nil, fmt.Errorf("vector %d has %d dims, want %d: %w",
				i, len(v), idx.dims, domain.ErrVectorDimMismatch)
		}
		idx.vectors[i] = Normalize(v)
	}
	return idx, nil
}

// Len returns the number of indexed vectors.
func (x *SearchIndex) Len() int { return len(x.vectors) }

// Dims returns the vector dimensionality, 0 for an empty index.
func (x *SearchIndex) Dims() int { return x.dims }

// Vector returns the stored normalized vector at pos.
func (x *SearchIndex) Vector(pos int) ([]float32, bool) {
	if pos < 0 || pos >= len(x.vectors) {
		return nil, false
	}
	return x.vectors[pos], true
}

// Similarity returns the cosine similarity between query and the vector at pos.
func (x *SearchIndex) Similarity(query []float32, pos int) (float64, error) {
	v, ok := x.Vector(pos)
	if !ok {
		return 0, fmt.Errorf("position %d outside index of %d", pos, len(x.vectors))
	}
	if len(query) != len(v) {
		return 0, fmt.Errorf("query has %d dims, index has %d: %w",
			len(query), len(v), domain.ErrVectorDimMismatch)
	}
	return Dot(Normalize(query), v), nil
}

// TopK returns up to k hits ordered by score descending; equal scores keep
// position order. The query is normalized before scoring.
func (x *SearchIndex) TopK(query []float32, k int) ([]Hit, error) {
	if k <= 0 || len(x.vectors) == 0 {
		return nil, nil
	}
	if len(query) != x.dims {
		return nil, fmt.Errorf("query has %d dims, index has %d: %w",
			len(query), x.dims, domain.ErrVectorDimMismatch)
	}
	q := Normalize(query)

	hits := make([]Hit, len(x.vectors))
	for i, v := range x.vectors {
		hits[i] = Hit{Position: i, Score: Dot(q, v)}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Normalize returns an L2-normalized copy of v. A zero vector stays zero.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		return out
	}
	norm := math.Sqrt(sum)
	for i, f := range v {
		out[i] = float32(float64(f) / norm)
	}
	return out
}

// Dot returns the inner product of two equal-length vectors.
func Dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}
