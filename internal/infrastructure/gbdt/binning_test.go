package gbdt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeBounds(t *testing.T) {
	t.Run("constant column has a single bucket", func(t *testing.T) {
		assert.Empty(t, computeBounds([]float64{3, 3, 3}, 255))
	})

	t.Run("few distinct values split at midpoints", func(t *testing.T) {
		assert.Equal(t, []float64{0.5, 1.5}, computeBounds([]float64{2, 0, 1, 0, 2}, 255))
	})

	t.Run("many distinct values are capped", func(t *testing.T) {
		values := make([]float64, 1000)
		for i := range values {
			values[i] = float64(i)
		}
		bounds := computeBounds(values, 16)
		assert.LessOrEqual(t, len(bounds), 15)
		for i := 1; i < len(bounds); i++ {
			assert.Greater(t, bounds[i], bounds[i-1])
		}
	})
}

func TestBinOf(t *testing.T) {
	bounds := []float64{0.5, 1.5}

	assert.Equal(t, 0, binOf(bounds, 0))
	assert.Equal(t, 0, binOf(bounds, 0.5))
	assert.Equal(t, 1, binOf(bounds, 1))
	assert.Equal(t, 2, binOf(bounds, 7))
	assert.Equal(t, 0, binOf(nil, 7))
}

func TestBinColumns(t *testing.T) {
	X := [][]float64{{0, 5}, {1, 5}, {2, 5}}

	cols, err := binColumns(context.Background(), X, 2, 255)
	require.NoError(t, err)
	require.Len(t, cols, 2)

	assert.Equal(t, []uint8{0, 1, 2}, cols[0].bins)
	assert.Equal(t, 3, cols[0].numBins())
	assert.Equal(t, []uint8{0, 0, 0}, cols[1].bins)
	assert.Equal(t, 1, cols[1].numBins())
}
