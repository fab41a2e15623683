/*
 *	Copyright 2023 Jan Pfeifer
 *
 *	Licensed under the Apache License, Version 2.0 (the "License");
 *	you may not use this file except in compliance with the License.
 *	You may obtain a copy of the License at
 *
 *	http://www.apache.org/licenses/LICENSE-2.0
 *
 *	Unless required by applicable law or agreed to in writing, software
 *	distributed under the License is distributed on an "AS IS" BASIS,
 *	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *	See the License for the specific language governing permissions and
 *	limitations under the License.
 */

// Package tensors implements a Tensor, a representation of a multi-dimensional array.
//
// Tensors are defined by their shape (a data type and its axes' dimensions) and their
// actual content, stored as a flat (1D) Go slice of the underlying DType. A Tensor also
// carries the memory Location it was allocated in (see the backends package), so the
// feed builder can allocate companion tensors on the same device.
//
// The main use of tensors here is as input feeds of encoder-decoder generation subgraphs.
// Ways to construct a Tensor:
//
//   - FromShape(shape shapes.Shape): a tensor with the given shape and zero values.
//
//   - FromScalarAndDimensions[T](value T, dimensions ...int): a tensor with the given
//     dimensions, filled with the scalar value given. `T` must be one of the supported types.
//
//   - FromFlatDataAndDimensions[T](data []T, dimensions ...int): a tensor with the given
//     dimensions, with the flattened values copied from data. Example:
//
//     t := FromFlatDataAndDimensions([]int32{1, 2, 3, 4}, 2, 2) // Tensor with [[1,2], [3,4]]
//
//   - FromAllocatorAndShape(allocator, shape): a zero tensor whose storage comes from a
//     backends.Allocator, and whose Location is the allocator's.
package tensors

import (
	"fmt"

	"github.com/gomlx/encdec/backends"
	"github.com/gomlx/encdec/types/shapes"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

// Tensor represents a multidimensional array (from a scalar with 0 dimensions, to
// arbitrarily large dimensions), defined by its shape and its flat content.
//
// The shape must be fully defined: symbolic dimensions only exist on declared subgraph
// signatures (see the subgraph package), never on concrete tensors.
//
// The zero Tensor is invalid: use one of the package constructors.
type Tensor struct {
	// shape of the tensor, immutable after construction.
	shape shapes.Shape

	// flat holds the actual data, a slice of the Go type for the shape's dtype.
	flat any

	// location is the memory area the flat data was allocated in.
	location backends.Location
}

// hostLocation is the Location given to tensors created by the plain constructors,
// which allocate in regular Go memory. It matches the backends/host provider.
var hostLocation = backends.Location{Backend: "host", DeviceNum: 0}

// FromShape returns a Tensor with the given shape, with the data initialized with zeros,
// allocated in host memory.
func FromShape(shape shapes.Shape) *Tensor {
	if !shape.Ok() {
		panic(errors.New("invalid shape"))
	}
	if !shape.IsFullyDefined() {
		panic(errors.Errorf("cannot create a tensor with symbolic dimensions (shape=%s)", shape))
	}
	flat, err := allocateFlat(shape.DType, shape.Size())
	if err != nil {
		panic(err)
	}
	return &Tensor{shape: shape, flat: flat, location: hostLocation}
}

// FromAllocatorAndShape returns a zero-initialized Tensor with the given shape, whose
// storage is obtained from the given allocator and whose Location is the allocator's.
func FromAllocatorAndShape(allocator backends.Allocator, shape shapes.Shape) (*Tensor, error) {
	if !shape.Ok() || !shape.IsFullyDefined() {
		return nil, errors.Errorf("cannot allocate a tensor with shape %s", shape)
	}
	flat, err := allocator.AllocateFlat(shape.DType, shape.Size())
	if err != nil {
		return nil, errors.WithMessagef(err, "allocating tensor with shape %s in %s", shape, allocator.Location())
	}
	return &Tensor{shape: shape, flat: flat, location: allocator.Location()}, nil
}

// Shape of the Tensor, includes DType.
func (t *Tensor) Shape() shapes.Shape { return t.shape }

// DType returns the DType of the tensor's shape.
// It is a shortcut to `Tensor.Shape().DType`.
func (t *Tensor) DType() dtypes.DType { return t.shape.DType }

// Rank returns the rank of the tensor's shape.
// It is a shortcut to `Tensor.Shape().Rank()`.
func (t *Tensor) Rank() int { return t.shape.Rank() }

// IsScalar returns whether the tensor represents a scalar value.
// It is a shortcut to `Tensor.Shape().IsScalar()`.
func (t *Tensor) IsScalar() bool { return t.shape.IsScalar() }

// Size returns the number of elements in the tensor.
// It is a shortcut to `Tensor.Shape().Size()`.
func (t *Tensor) Size() int { return t.shape.Size() }

// Location returns the memory area the tensor data lives in.
func (t *Tensor) Location() backends.Location { return t.location }

// Ok returns whether the Tensor is in a valid state.
func (t *Tensor) Ok() bool {
	return t != nil && t.shape.Ok() && t.flat != nil
}

// AssertValid panics if the tensor is nil, or if its shape is invalid.
func (t *Tensor) AssertValid() {
	if t == nil {
		panic(errors.New("Tensor is nil"))
	}
	if !t.shape.Ok() || t.flat == nil {
		panic(errors.New("Tensor is invalid (no shape or no data)"))
	}
}

// LayoutStrides return the strides for each axis. This can be handy when manipulating
// the flat data.
func (t *Tensor) LayoutStrides() (strides []int) {
	rank := t.shape.Rank()
	if rank == 0 {
		return
	}
	strides = make([]int, rank)
	currentStride := 1
	for axis := rank - 1; axis >= 0; axis-- {
		strides[axis] = currentStride
		currentStride *= t.shape.Dimensions[axis]
	}
	return
}

// String prints the shape and the location of the tensor, not its contents.
func (t *Tensor) String() string {
	if !t.Ok() {
		return "Tensor(invalid)"
	}
	return fmt.Sprintf("Tensor(%s @%s)", t.shape, t.location)
}
