// Package backends defines the interface an execution backend needs to implement to be
// used for running encoder-decoder generation subgraphs.
//
// This library never executes the subgraph itself: it only needs to know where tensors
// live (a Location), how to allocate flat buffers on the same device (an Allocator), and
// a handle to the execution provider the feeds are assembled for (a Provider).
//
// Backends are registered by name; see Register and NewWithConfig.
package backends

import (
	"fmt"
	"os"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
)

// DeviceNum represents which device of a backend holds a buffer, or should execute a
// computation. It's up to the backend to interpret it, but it should be between 0 and
// Provider.NumDevices.
type DeviceNum int

// Location identifies the memory area a tensor lives in: a backend name plus a device
// number within that backend. Tensors allocated by the same Allocator share a Location.
type Location struct {
	Backend   string
	DeviceNum DeviceNum
}

// String implements fmt.Stringer.
func (l Location) String() string {
	if l.DeviceNum == 0 {
		return l.Backend
	}
	return fmt.Sprintf("%s:%d", l.Backend, l.DeviceNum)
}

// Allocator allocates flat buffers in a specific memory Location.
type Allocator interface {
	// Location of the buffers returned by AllocateFlat.
	Location() Location

	// AllocateFlat returns a zero-initialized flat slice (`[]T` for the Go type
	// corresponding to dtype) with size elements.
	AllocateFlat(dtype dtypes.DType, size int) (flat any, err error)
}

// Provider is the handle to an execution provider: the entity that will eventually run
// the subgraph the feeds are built for.
type Provider interface {
	// Name returns the short name of the provider. E.g.: "host" for the CPU provider.
	Name() string

	// NumDevices returns the number of devices available for this Provider.
	NumDevices() DeviceNum

	// AllocatorForLocation returns an Allocator that allocates in the given memory
	// location. It returns an error if the location is not managed by this provider.
	AllocatorForLocation(loc Location) (Allocator, error)
}

// Constructor takes a config string (optionally empty) and returns a Provider.
type Constructor func(config string) Provider

var (
	registeredConstructors = make(map[string]Constructor)
	firstRegistered        string
)

// Register a backend Provider with the given name, and a default constructor that takes
// as input a configuration string that is passed along to the backend constructor.
//
// To be safe, call Register during initialization of a package.
func Register(name string, constructor Constructor) {
	if len(registeredConstructors) == 0 {
		firstRegistered = name
	}
	registeredConstructors[name] = constructor
}

// DefaultConfig is the name of the default backend configuration to use if specified.
//
// See NewWithConfig for the format of the configuration string.
var DefaultConfig string

// ENCDEC_BACKEND is the environment variable with the default backend configuration to use.
//
// The format of config is "<backend_name>:<backend_configuration>".
// The "<backend_name>" is the name of a registered backend (e.g.: "host") and
// "<backend_configuration>" is backend specific.
const ENCDEC_BACKEND = "ENCDEC_BACKEND"

// New returns a new default backend Provider.
//
// The default is:
//
// 1. The environment ENCDEC_BACKEND is used as a configuration if defined.
// 2. Next the variable DefaultConfig is used as a configuration if defined.
// 3. The first registered backend is used with an empty configuration.
//
// It panics if no backend was registered.
func New() Provider {
	config, found := os.LookupEnv(ENCDEC_BACKEND)
	if found {
		return NewWithConfig(config)
	}
	if DefaultConfig != "" {
		return NewWithConfig(DefaultConfig)
	}
	return NewWithConfig("")
}

// NewWithConfig takes a configuration string formatted as
// "<backend_name>:<backend_configuration>", where "<backend_name>" is the name of a
// registered backend (e.g.: "host") and "<backend_configuration>" is backend specific.
func NewWithConfig(config string) Provider {
	if len(registeredConstructors) == 0 {
		exceptions.Panicf(`no registered backends for encdec -- maybe import the default host one with import _ "github.com/gomlx/encdec/backends/host"?`)
	}
	backendName := firstRegistered
	backendConfig := config
	if idx := strings.Index(config, ":"); idx != -1 {
		backendName = config[:idx]
		backendConfig = config[idx+1:]
	}
	constructor, found := registeredConstructors[backendName]
	if !found {
		exceptions.Panicf("can't find backend %q for configuration %q given", backendName, config)
	}
	return constructor(backendConfig)
}
