package processor

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity_KnownValues(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"相同向量", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"同向不同长度", []float64{1, 1}, []float64{3, 3}, 1},
		{"反向", []float64{1, 0}, []float64{-1, 0}, -1},
		{"正交", []float64{1, 0}, []float64{0, 1}, 0},
		{"零向量", []float64{0, 0, 0}, []float64{1, 2, 3}, 0},
		{"空向量", []float64{}, []float64{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CosineSimilarity(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestCosineSimilarity_RangeAndSymmetry(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		dim := 1 + rng.Intn(64)
		a := make([]float64, dim)
		b := make([]float64, dim)
		for j := range a {
			a[j] = rng.NormFloat64() * 10
			b[j] = rng.NormFloat64() * 10
		}

		ab, err := CosineSimilarity(a, b)
		require.NoError(t, err)
		ba, err := CosineSimilarity(b, a)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, ab, -1.0)
		assert.LessOrEqual(t, ab, 1.0)
		assert.Equal(t, ab, ba, "相似度应当对称")
	}
}

func TestCosineSimilarity_DimensionMismatch(t *testing.T) {
	_, err := CosineSimilarity([]float64{1, 2}, []float64{1, 2, 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
