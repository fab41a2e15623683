package host

import (
	"testing"

	"github.com/gomlx/encdec/backends"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

func TestRegistry(t *testing.T) {
	provider := backends.NewWithConfig("host")
	require.Equal(t, BackendName, provider.Name())
	require.Equal(t, backends.DeviceNum(1), provider.NumDevices())
}

func TestAllocatorForLocation(t *testing.T) {
	provider := New("")
	alloc, err := provider.AllocatorForLocation(backends.Location{Backend: BackendName})
	require.NoError(t, err)
	require.Equal(t, backends.Location{Backend: BackendName, DeviceNum: 0}, alloc.Location())

	_, err = provider.AllocatorForLocation(backends.Location{Backend: "cuda"})
	require.Error(t, err)
	_, err = provider.AllocatorForLocation(backends.Location{Backend: BackendName, DeviceNum: 3})
	require.Error(t, err)
}

func TestAllocateFlat(t *testing.T) {
	alloc := &Allocator{}

	flat, err := alloc.AllocateFlat(dtypes.Int32, 6)
	require.NoError(t, err)
	require.Equal(t, make([]int32, 6), flat)

	flat, err = alloc.AllocateFlat(dtypes.Float32, 2)
	require.NoError(t, err)
	require.Equal(t, make([]float32, 2), flat)

	flat, err = alloc.AllocateFlat(dtypes.Float16, 3)
	require.NoError(t, err)
	require.Equal(t, make([]float16.Float16, 3), flat)

	_, err = alloc.AllocateFlat(dtypes.Int32, 0)
	require.Error(t, err)
}
