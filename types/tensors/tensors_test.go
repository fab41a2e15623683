package tensors

import (
	"testing"

	"github.com/gomlx/encdec/backends"
	"github.com/gomlx/encdec/backends/host"
	"github.com/gomlx/encdec/types/shapes"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/require"
)

func TestFromShape(t *testing.T) {
	tensor := FromShape(shapes.Make(dtypes.Int32, 2, 3))
	require.True(t, tensor.Ok())
	require.Equal(t, 6, tensor.Size())
	require.Equal(t, dtypes.Int32, tensor.DType())
	require.Equal(t, backends.Location{Backend: "host"}, tensor.Location())
	ConstFlatData(tensor, func(flat []int32) {
		require.Equal(t, make([]int32, 6), flat)
	})

	require.Panics(t, func() { FromShape(shapes.Invalid()) })
	require.Panics(t, func() { FromShape(shapes.MakeDynamic(dtypes.Int32, -1, 3)) })
}

func TestFromFlatDataAndDimensions(t *testing.T) {
	tensor := FromFlatDataAndDimensions([]int32{1, 2, 3, 4, 5, 6}, 2, 3)
	require.Equal(t, []int{2, 3}, tensor.Shape().Dimensions)
	require.Equal(t, []int32{1, 2, 3, 4, 5, 6}, CopyFlatData[int32](tensor))
	require.Equal(t, []int{3, 1}, tensor.LayoutStrides())

	// Mismatched sizes panic.
	require.Panics(t, func() { FromFlatDataAndDimensions([]int32{1, 2, 3}, 2, 3) })
	// Mismatched generics access panics.
	require.Panics(t, func() { ConstFlatData(tensor, func(flat []float32) {}) })
}

func TestFromScalarAndDimensions(t *testing.T) {
	tensor := FromScalarAndDimensions(float32(0.5), 2, 2)
	ConstFlatData(tensor, func(flat []float32) {
		require.Equal(t, []float32{0.5, 0.5, 0.5, 0.5}, flat)
	})
}

func TestMutableFlatData(t *testing.T) {
	tensor := FromShape(shapes.Make(dtypes.Int32, 4))
	MutableFlatData(tensor, func(flat []int32) {
		for ii := range flat {
			flat[ii] = int32(ii)
		}
	})
	require.Equal(t, []int32{0, 1, 2, 3}, CopyFlatData[int32](tensor))
}

func TestFromAllocatorAndShape(t *testing.T) {
	provider := host.New("")
	alloc, err := provider.AllocatorForLocation(backends.Location{Backend: host.BackendName})
	require.NoError(t, err)

	tensor, err := FromAllocatorAndShape(alloc, shapes.Make(dtypes.Int32, 2, 2))
	require.NoError(t, err)
	require.Equal(t, alloc.Location(), tensor.Location())
	require.Equal(t, []int32{0, 0, 0, 0}, CopyFlatData[int32](tensor))

	_, err = FromAllocatorAndShape(alloc, shapes.MakeDynamic(dtypes.Int32, -1))
	require.Error(t, err)
}

func TestEqual(t *testing.T) {
	a := FromFlatDataAndDimensions([]int32{1, 2, 3, 4}, 2, 2)
	b := FromFlatDataAndDimensions([]int32{1, 2, 3, 4}, 2, 2)
	c := FromFlatDataAndDimensions([]int32{1, 2, 3, 5}, 2, 2)
	d := FromFlatDataAndDimensions([]int32{1, 2, 3, 4}, 4)
	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
	require.False(t, a.Equal(d))
}
