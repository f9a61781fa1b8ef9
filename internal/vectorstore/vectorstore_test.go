package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemory_SearchOrdersByCosineDescending(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, "p1", "close", []float32{1, 0}))
	require.NoError(t, m.Put(ctx, "p1", "far", []float32{0, 1}))
	require.NoError(t, m.Put(ctx, "p1", "exact", []float32{2, 0}))

	matches, err := m.Search(ctx, "p1", []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	require.Equal(t, "close", matches[0].ID)
	require.Equal(t, "exact", matches[1].ID)
	require.InDelta(t, 0.0, matches[2].Score, 1e-9)
}

func TestCosineSimilarity_MismatchedLengthIsZero(t *testing.T) {
	require.Zero(t, CosineSimilarity([]float32{1, 2}, []float32{1}))
}

func TestCosineSimilarity_Symmetric(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{4, 5, 6}
	require.InDelta(t, CosineSimilarity(a, b), CosineSimilarity(b, a), 1e-9)
}
