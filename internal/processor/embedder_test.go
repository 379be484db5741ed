package processor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestEinoEmbedder_Embed(t *testing.T) {
	textEmbedder := &MockTextEmbedder{}
	textEmbedder.On("EmbedStrings", mock.Anything, []string{"hello"}).Return([][]float64{{0.1, 0.2}}, nil)

	e, err := NewEinoEmbedder(textEmbedder)
	require.NoError(t, err)

	vec, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2}, vec)
	textEmbedder.AssertExpectations(t)
}

func TestEinoEmbedder_Errors(t *testing.T) {
	_, err := NewEinoEmbedder(nil)
	assert.Error(t, err)

	textEmbedder := &MockTextEmbedder{}
	textEmbedder.On("EmbedStrings", mock.Anything, []string{"fail"}).Return(nil, errors.New("503"))
	textEmbedder.On("EmbedStrings", mock.Anything, []string{"none"}).Return([][]float64{}, nil)
	textEmbedder.On("EmbedStrings", mock.Anything, []string{"empty"}).Return([][]float64{{}}, nil)

	e, err := NewEinoEmbedder(textEmbedder)
	require.NoError(t, err)

	for _, text := range []string{"fail", "none", "empty"} {
		_, err := e.Embed(context.Background(), text)
		assert.Error(t, err, text)
	}
}

func TestCachedEmbedder_HitsCacheOnSecondCall(t *testing.T) {
	next := &MockEmbedder{}
	next.On("Embed", mock.Anything, "jd").Return([]float64{1, 2}, nil).Once()
	cache := newMemoryVectorCache()

	e := NewCachedEmbedder(next, cache, "all-MiniLM-L6-v2")
	for i := 0; i < 3; i++ {
		vec, err := e.Embed(context.Background(), "jd")
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2}, vec)
	}

	next.AssertNumberOfCalls(t, "Embed", 1)
	assert.Equal(t, 1, cache.writes)
	assert.Equal(t, 2, cache.hits)
}

func TestCachedEmbedder_CacheErrorsFallThrough(t *testing.T) {
	next := &MockEmbedder{}
	next.On("Embed", mock.Anything, "jd").Return([]float64{1}, nil)
	cache := newMemoryVectorCache()
	cache.getErr = errors.New("redis timeout")
	cache.setErr = errors.New("redis timeout")

	vec, err := NewCachedEmbedder(next, cache, "m").Embed(context.Background(), "jd")
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, vec)
}

func TestCachedEmbedder_NilCache(t *testing.T) {
	next := &MockEmbedder{}
	next.On("Embed", mock.Anything, "jd").Return([]float64{1}, nil)

	vec, err := NewCachedEmbedder(next, nil, "m").Embed(context.Background(), "jd")
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, vec)
}
