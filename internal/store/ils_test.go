package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadILSSeed(t *testing.T) {
	refs, err := LoadILSSeed()
	require.NoError(t, err)
	assert.Len(t, refs, 20)
	for _, r := range refs {
		assert.Equal(t, "APS6", r.APSLevel)
		assert.NotEmpty(t, r.Description)
	}
	assert.Equal(t, "Supports Strategic Direction", refs[0].CapabilityName)
	assert.Contains(t, refs[0].Description, "vision, mission, and business objectives.")
}

func TestSeedILSReferenceOnce(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	calls := 0
	embed := func(ctx context.Context, text string) ([]float32, error) {
		calls++
		if calls == 2 {
			return nil, errors.New("quota exceeded")
		}
		return []float32{1, 0, 0}, nil
	}

	n, err := s.SeedILSReference(ctx, embed)
	require.NoError(t, err)
	assert.Equal(t, 20, n)
	assert.Equal(t, 20, calls)

	refs, err := s.ListILSReferences(ctx, "APS6")
	require.NoError(t, err)
	require.Len(t, refs, 20)
	withEmbedding := 0
	for _, r := range refs {
		if len(r.Embedding) > 0 {
			withEmbedding++
		}
	}
	assert.Equal(t, 19, withEmbedding)

	n, err = s.SeedILSReference(ctx, embed)
	require.NoError(t, err)
	assert.Zero(t, n)

	none, err := s.ListILSReferences(ctx, "EL2")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSeedILSReferenceWithoutEmbedder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	n, err := s.SeedILSReference(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 20, n)

	refs, err := s.ListILSReferences(ctx, "")
	require.NoError(t, err)
	for _, r := range refs {
		assert.Nil(t, r.Embedding)
	}
}
