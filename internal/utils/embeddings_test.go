package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	sim, err := CosineSimilarity([]float32{1, 0}, []float32{1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-6)

	sim, err = CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, sim, 1e-6)

	sim, err = CosineSimilarity([]float32{1, 1}, []float32{-1, -1})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, sim, 1e-6)

	sim, err = CosineSimilarity([]float32{0, 0}, []float32{1, 1})
	require.NoError(t, err)
	assert.Zero(t, sim)

	_, err = CosineSimilarity(nil, []float32{1})
	assert.ErrorIs(t, err, ErrEmptyVector)

	_, err = CosineSimilarity([]float32{1, 2}, []float32{1})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestTopK(t *testing.T) {
	query := []float32{1, 0}
	candidates := [][]float32{
		{0, 1},      // 0.0
		{1, 0.1},    // ~0.995
		nil,         // skipped
		{1, 0.5},    // ~0.894
		{1, 0, 0},   // wrong dimension
		{1, 0.0001}, // ~1.0
	}

	got := TopK(query, candidates, 2, 0.7)
	require.Len(t, got, 2)
	assert.Equal(t, 5, got[0].Index)
	assert.Equal(t, 1, got[1].Index)

	got = TopK(query, candidates, 10, 0.7)
	require.Len(t, got, 3)
	assert.Equal(t, 3, got[2].Index)

	assert.Empty(t, TopK(query, candidates, 0, 0))
	assert.Empty(t, TopK(query, [][]float32{{0, 1}}, 3, 0.7))
}
