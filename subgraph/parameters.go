package subgraph

import (
	"github.com/gomlx/encdec/types/shapes"
	"github.com/pkg/errors"
)

// ModelParameters are the model dimensions derived from a validated subgraph signature.
// They are computed once by Subgraph.Validate and are read-only thereafter.
type ModelParameters struct {
	// NumLayers of the decoder, derived from the output count: each layer contributes
	// 4 present key/value cache outputs.
	NumLayers int

	// NumHeads and HeadSize of the attention, derived from the self-attention cache
	// shape declared for the first layer.
	NumHeads int
	HeadSize int

	// HiddenSize = NumHeads * HeadSize, cross-checked against the trailing logits axis.
	HiddenSize int

	// OutputLowPrecision records whether the logits output is declared in a
	// reduced-precision float type (float16 or bfloat16).
	OutputLowPrecision bool
}

// Self-attention cache layout: [batch*beams, heads, sequence, head_size].
const (
	cacheRank     = 4
	cacheHeadsDim = 1
	cacheSizeDim  = 3
)

// Logits layout: [batch, sequence, hidden].
const logitsRank = 3

// extractParameters derives NumHeads, HeadSize and HiddenSize from the declared shape
// of the first self-attention cache output and the logits output.
//
// The cache shape must have rank 4 with concrete heads (axis 1) and head-size (axis 3)
// dimensions; the batch and sequence axes may be symbolic. The logits shape must have
// rank 3 with a concrete trailing hidden dimension, which must reconcile with
// heads*head_size. It is a pure function of the two shapes; failures are
// ErrShapeInference.
func extractParameters(cacheShape, logitsShape shapes.Shape) (numHeads, headSize, hiddenSize int, err error) {
	if cacheShape.Rank() != cacheRank {
		err = errors.Wrapf(ErrShapeInference, "self-attention cache shape %s must have rank %d ([batch*beams, heads, sequence, head_size])",
			cacheShape, cacheRank)
		return
	}
	if cacheShape.IsDynamicDim(cacheHeadsDim) || cacheShape.IsDynamicDim(cacheSizeDim) {
		err = errors.Wrapf(ErrShapeInference, "self-attention cache shape %s must declare concrete heads (axis %d) and head_size (axis %d) dimensions",
			cacheShape, cacheHeadsDim, cacheSizeDim)
		return
	}
	numHeads = cacheShape.Dim(cacheHeadsDim)
	headSize = cacheShape.Dim(cacheSizeDim)

	if logitsShape.Rank() != logitsRank {
		err = errors.Wrapf(ErrShapeInference, "logits shape %s must have rank %d ([batch, sequence, hidden])",
			logitsShape, logitsRank)
		return
	}
	if logitsShape.IsDynamicDim(-1) {
		err = errors.Wrapf(ErrShapeInference, "logits shape %s must declare a concrete trailing hidden dimension", logitsShape)
		return
	}
	hiddenSize = logitsShape.Dim(-1)
	if numHeads*headSize != hiddenSize {
		err = errors.Wrapf(ErrShapeInference, "cache shape %s implies hidden size %d (%d heads x %d head_size), but logits shape %s implies %d",
			cacheShape, numHeads*headSize, numHeads, headSize, logitsShape, hiddenSize)
		return
	}
	return
}
