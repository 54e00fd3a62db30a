package embed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDimensionRecognizesModels(t *testing.T) {
	dim, ok := Dimension(ModelBgeSmall)
	require.True(t, ok)
	assert.Equal(t, 384, dim)

	dim, ok = Dimension(ModelBgeLarge)
	require.True(t, ok)
	assert.Equal(t, 1024, dim)

	_, ok = Dimension("unknown")
	assert.False(t, ok)
}

func TestEmbedIsDeterministic(t *testing.T) {
	v1, err := Embed(ModelBgeSmall, "fn hello_world() {}")
	require.NoError(t, err)
	v2, err := Embed(ModelBgeSmall, "fn hello_world() {}")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
}

func TestEmbedEmptyTextYieldsZeroVector(t *testing.T) {
	v, err := Embed(ModelBgeSmall, "   ")
	require.NoError(t, err)
	assert.True(t, IsZero(v))
	assert.Len(t, v, DimBgeSmall)
}

func TestEmbedUnrecognizedModelErrors(t *testing.T) {
	_, err := Embed("not-a-model", "text")
	assert.Error(t, err)
}

func TestNormalizeProducesUnitL2Norm(t *testing.T) {
	v, err := Embed(ModelBgeSmall, "search for the query embedding")
	require.NoError(t, err)
	require.False(t, IsZero(v))

	Normalize(v)

	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, sumSq, 1e-4)
}

func TestNormalizeLeavesZeroVectorUnchanged(t *testing.T) {
	v := make([]float32, DimBgeSmall)
	Normalize(v)
	assert.True(t, IsZero(v))
}
