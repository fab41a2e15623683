package subgraph

import (
	"github.com/gomlx/encdec/backends"
	"github.com/gomlx/encdec/types/shapes"
	"github.com/gomlx/encdec/types/tensors"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

// HostHooks implements DeviceHooks for host-resident tensors. Expansion is a plain
// row-replicating copy and feeds need no staging, so AddToFeeds returns the tensors
// as-is and never touches the scratch buffer.
type HostHooks struct{}

// Compile-time check.
var _ DeviceHooks = HostHooks{}

// CreateEncoderInputs implements DeviceHooks. Rows are replicated batch-major: the
// expanded row b*numBeams+k holds beam k of batch entry b, so all beams of one entry
// are contiguous and share the same sequence length.
func (HostHooks) CreateEncoderInputs(encoderInputIDs *tensors.Tensor, numBeams int, padTokenID, startTokenID int32,
	sequenceLengths []int32, allocator backends.Allocator) (ids, mask, decoderIDs *tensors.Tensor, err error) {
	if dtype := encoderInputIDs.DType(); dtype != dtypes.Int32 {
		err = errors.Wrapf(ErrUnsupportedDataType, "encoder input ids must be int32, got %s", dtype)
		return
	}
	if dimsErr := encoderInputIDs.Shape().CheckDims(shapes.UncheckedAxis, shapes.UncheckedAxis); dimsErr != nil {
		err = errors.WithMessage(dimsErr, "encoder input ids must be [batch, sequence]")
		return
	}
	batchSize := encoderInputIDs.Shape().Dim(0)
	seqLen := encoderInputIDs.Shape().Dim(1)
	if len(sequenceLengths) != batchSize*numBeams {
		err = errors.Errorf("sequenceLengths must have len batch*beams=%d, got %d", batchSize*numBeams, len(sequenceLengths))
		return
	}

	ids, err = tensors.FromAllocatorAndShape(allocator, shapes.Make(dtypes.Int32, batchSize*numBeams, seqLen))
	if err != nil {
		return
	}
	mask, err = tensors.FromAllocatorAndShape(allocator, shapes.Make(dtypes.Int32, batchSize*numBeams, seqLen))
	if err != nil {
		return
	}
	decoderIDs, err = tensors.FromAllocatorAndShape(allocator, shapes.Make(dtypes.Int32, batchSize*numBeams, 1))
	if err != nil {
		return
	}

	tensors.ConstFlatData(encoderInputIDs, func(src []int32) {
		tensors.MutableFlatData(ids, func(expanded []int32) {
			tensors.MutableFlatData(mask, func(attention []int32) {
				for b := range batchSize {
					row := src[b*seqLen : (b+1)*seqLen]
					var rowLen int32
					for _, token := range row {
						if token != padTokenID {
							rowLen++
						}
					}
					for k := range numBeams {
						offset := (b*numBeams + k) * seqLen
						copy(expanded[offset:offset+seqLen], row)
						for j, token := range row {
							if token != padTokenID {
								attention[offset+j] = 1
							} else {
								attention[offset+j] = 0
							}
						}
						sequenceLengths[b*numBeams+k] = rowLen
					}
				}
			})
		})
	})
	tensors.MutableFlatData(decoderIDs, func(start []int32) {
		for i := range start {
			start[i] = startTokenID
		}
	})
	return
}

// AddToFeeds implements DeviceHooks: host tensors are fed directly, in contract order.
func (HostHooks) AddToFeeds(_ backends.Provider, ids, mask, decoderIDs *tensors.Tensor,
	feeds []*tensors.Tensor, scratch []byte) ([]*tensors.Tensor, []byte, error) {
	return append(feeds, ids, mask, decoderIDs), scratch, nil
}
