package subgraph

import (
	"testing"

	"github.com/gomlx/encdec/types/shapes"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractParameters(t *testing.T) {
	cache := shapes.MakeDynamic(dtypes.Float32, -1, 8, -1, 64)
	logits := shapes.MakeDynamic(dtypes.Float32, -1, -1, 512)
	numHeads, headSize, hiddenSize, err := extractParameters(cache, logits)
	require.NoError(t, err)
	assert.Equal(t, 8, numHeads)
	assert.Equal(t, 64, headSize)
	assert.Equal(t, 512, hiddenSize)

	// Fully concrete shapes work the same.
	cache = shapes.Make(dtypes.Float32, 4, 12, 128, 32)
	logits = shapes.Make(dtypes.Float32, 4, 1, 384)
	numHeads, headSize, hiddenSize, err = extractParameters(cache, logits)
	require.NoError(t, err)
	assert.Equal(t, 12, numHeads)
	assert.Equal(t, 32, headSize)
	assert.Equal(t, 384, hiddenSize)
}

func TestExtractParametersMismatch(t *testing.T) {
	// 8 heads x 64 head_size = 512, but logits declare 256.
	cache := shapes.MakeDynamic(dtypes.Float32, -1, 8, -1, 64)
	logits := shapes.MakeDynamic(dtypes.Float32, -1, -1, 256)
	_, _, _, err := extractParameters(cache, logits)
	require.ErrorIs(t, err, ErrShapeInference)
	assert.Contains(t, err.Error(), "512")
	assert.Contains(t, err.Error(), "256")
}

func TestExtractParametersSymbolic(t *testing.T) {
	logits := shapes.MakeDynamic(dtypes.Float32, -1, -1, 512)

	// Symbolic heads axis.
	_, _, _, err := extractParameters(shapes.MakeDynamic(dtypes.Float32, -1, -1, -1, 64), logits)
	require.ErrorIs(t, err, ErrShapeInference)

	// Symbolic head_size axis.
	_, _, _, err = extractParameters(shapes.MakeDynamic(dtypes.Float32, -1, 8, -1, -1), logits)
	require.ErrorIs(t, err, ErrShapeInference)

	// Symbolic hidden axis on the logits.
	cache := shapes.MakeDynamic(dtypes.Float32, -1, 8, -1, 64)
	_, _, _, err = extractParameters(cache, shapes.MakeDynamic(dtypes.Float32, -1, -1, -1))
	require.ErrorIs(t, err, ErrShapeInference)
}

func TestExtractParametersRank(t *testing.T) {
	logits := shapes.MakeDynamic(dtypes.Float32, -1, -1, 512)
	_, _, _, err := extractParameters(shapes.MakeDynamic(dtypes.Float32, -1, 8, 64), logits)
	require.ErrorIs(t, err, ErrShapeInference)

	cache := shapes.MakeDynamic(dtypes.Float32, -1, 8, -1, 64)
	_, _, _, err = extractParameters(cache, shapes.MakeDynamic(dtypes.Float32, -1, 512))
	require.ErrorIs(t, err, ErrShapeInference)
}
