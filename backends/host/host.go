// Package host implements the "host" (CPU, pure Go) backend Provider for encdec.
//
// It allocates flat buffers in regular Go slices. Common dtypes have typed fast paths;
// any other supported dtype falls back to reflection.
//
// To use it, import it as:
//
//	import _ "github.com/gomlx/encdec/backends/host"
package host

import (
	"reflect"

	"github.com/gomlx/encdec/backends"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/gopjrt/dtypes/bfloat16"
	"github.com/pkg/errors"
	"github.com/x448/float16"
)

// BackendName of the host provider, used for registration and Location.Backend.
const BackendName = "host"

// New returns the host Provider. The config string is ignored.
func New(_ string) backends.Provider {
	return &Provider{}
}

func init() {
	backends.Register(BackendName, New)
}

// Provider implements backends.Provider for host (CPU) memory.
type Provider struct{}

// Compile-time check:
var (
	_ backends.Provider  = (*Provider)(nil)
	_ backends.Allocator = (*Allocator)(nil)
)

// Name implements backends.Provider.
func (p *Provider) Name() string { return BackendName }

// NumDevices implements backends.Provider: the host is always one device.
func (p *Provider) NumDevices() backends.DeviceNum { return 1 }

// AllocatorForLocation implements backends.Provider.
func (p *Provider) AllocatorForLocation(loc backends.Location) (backends.Allocator, error) {
	if loc.Backend != BackendName {
		return nil, errors.Errorf("host provider cannot allocate in location %q", loc)
	}
	if loc.DeviceNum != 0 {
		return nil, errors.Errorf("host provider only has device 0, requested device %d", loc.DeviceNum)
	}
	return &Allocator{}, nil
}

// Allocator implements backends.Allocator on host memory.
type Allocator struct{}

// Location implements backends.Allocator.
func (a *Allocator) Location() backends.Location {
	return backends.Location{Backend: BackendName, DeviceNum: 0}
}

// AllocateFlat implements backends.Allocator: it returns a zero-initialized Go slice of
// the type corresponding to dtype with size elements.
func (a *Allocator) AllocateFlat(dtype dtypes.DType, size int) (any, error) {
	if size <= 0 {
		return nil, errors.Errorf("AllocateFlat(%s, %d): size must be > 0", dtype, size)
	}
	switch dtype {
	case dtypes.Int32:
		return make([]int32, size), nil
	case dtypes.Int64:
		return make([]int64, size), nil
	case dtypes.Float32:
		return make([]float32, size), nil
	case dtypes.Float64:
		return make([]float64, size), nil
	case dtypes.Float16:
		return make([]float16.Float16, size), nil
	case dtypes.BFloat16:
		return make([]bfloat16.BFloat16, size), nil
	case dtypes.Bool:
		return make([]bool, size), nil
	}
	goType := dtype.GoType()
	if goType == nil {
		return nil, errors.Errorf("AllocateFlat: dtype %s is not supported on the host backend", dtype)
	}
	return reflect.MakeSlice(reflect.SliceOf(goType), size, size).Interface(), nil
}
