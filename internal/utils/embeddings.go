package utils

import (
	"errors"
	"math"
	"sort"
)

var (
	ErrEmptyVector       = errors.New("vectors cannot be empty")
	ErrDimensionMismatch = errors.New("vectors must have the same dimension")
)

// CosineSimilarity returns the cosine of the angle between a and b.
// A zero vector has similarity 0 with everything.
func CosineSimilarity(a, b []float32) (float32, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, ErrEmptyVector
	}
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB))), nil
}

// Scored pairs a candidate index with its similarity to a query.
type Scored struct {
	Index      int
	Similarity float32
}

// TopK scores every candidate against query and returns at most k of those
// at or above threshold, best first. Candidates that cannot be compared
// (empty or of another dimension) are skipped.
func TopK(query []float32, candidates [][]float32, k int, threshold float32) []Scored {
	if k <= 0 {
		return nil
	}
	var scored []Scored
	for i, c := range candidates {
		sim, err := CosineSimilarity(query, c)
		if err != nil || sim < threshold {
			continue
		}
		scored = append(scored, Scored{Index: i, Similarity: sim})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}
