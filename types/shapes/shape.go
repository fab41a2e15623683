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

// Package shapes defines Shape and associated tools.
//
// Shape represents the declared shape (rank, dimensions and DType) of a tensor, either a
// concrete tensor value (see the tensors package) or an input/output declared on a subgraph
// signature (see the subgraph package).
//
// Subgraph signatures routinely declare symbolic ("dynamic") dimensions -- a batch or sequence
// axis whose size is only known when the graph is fed. A symbolic dimension is represented
// as DynamicDim (-1). Shapes with symbolic dimensions are created with MakeDynamic; Make
// only accepts concrete (> 0) dimensions.
//
// DType enumerates the type of the unit element of a tensor, and is defined in
// github.com/gomlx/gopjrt/dtypes. Go float16 support uses the github.com/x448/float16
// implementation, and bfloat16 uses github.com/gomlx/gopjrt/dtypes/bfloat16.
//
// ## Glossary
//
//   - Rank: number of axes (dimensions) of a Tensor.
//   - Axis: the index of a dimension on a multidimensional Tensor.
//   - Dimension: the size of a multi-dimensions Tensor in one of its axes.
//   - DType: the data type of the unit element in a tensor.
//   - Scalar: a shape with no axes, only a single value of the associated DType.
package shapes

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gomlx/exceptions"
	. "github.com/gomlx/gopjrt/dtypes"
)

// DynamicDim is the value used for a symbolic (unknown) dimension in a Shape.
// It matches the usual "-1" convention of graph formats for dimensions that are
// only resolved when the graph is fed.
const DynamicDim = -1

// Shape represents the shape of either a concrete tensor or of a declared
// subgraph input/output.
//
// Use Make (concrete dimensions only) or MakeDynamic (symbolic dimensions allowed)
// to create a new shape.
type Shape struct {
	DType      DType
	Dimensions []int
}

// Make returns a Shape with the given dtype and concrete dimensions.
// It panics if any dimension is <= 0 -- use MakeDynamic for shapes with
// symbolic dimensions.
func Make(dtype DType, dimensions ...int) Shape {
	s := Shape{DType: dtype, Dimensions: slices.Clone(dimensions)}
	for _, dim := range dimensions {
		if dim <= 0 {
			exceptions.Panicf("shapes.Make(%s): cannot create a shape with an axis with dimension <= 0, use MakeDynamic for symbolic dimensions", s)
		}
	}
	return s
}

// MakeDynamic returns a Shape that may contain symbolic dimensions: any dimension
// that is not > 0 is normalized to DynamicDim.
func MakeDynamic(dtype DType, dimensions ...int) Shape {
	s := Shape{DType: dtype, Dimensions: slices.Clone(dimensions)}
	for ii, dim := range s.Dimensions {
		if dim <= 0 {
			s.Dimensions[ii] = DynamicDim
		}
	}
	return s
}

// Scalar returns a scalar Shape for the given type.
func Scalar[T Number]() Shape {
	return Shape{DType: FromGenericsType[T]()}
}

// Invalid returns an invalid shape.
//
// Invalid().Ok() == false.
func Invalid() Shape {
	return Shape{DType: InvalidDType}
}

// Ok returns whether this is a valid Shape. A "zero" shape, that is just
// instantiating it with Shape{}, will be invalid.
func (s Shape) Ok() bool { return s.DType != InvalidDType }

// Rank of the shape, that is, the number of dimensions.
func (s Shape) Rank() int { return len(s.Dimensions) }

// IsScalar returns whether the shape represents a scalar, that is there are
// no dimensions (rank==0).
func (s Shape) IsScalar() bool { return s.Ok() && s.Rank() == 0 }

// Dim returns the dimension of the given axis. axis can take negative numbers,
// in which case it counts from the end -- so axis=-1 refers to the last axis.
// Like with slice indexing, it panics for an out-of-bound axis.
//
// The returned dimension is DynamicDim if the axis is symbolic.
func (s Shape) Dim(axis int) int {
	adjustedAxis := axis
	if adjustedAxis < 0 {
		adjustedAxis += s.Rank()
	}
	if adjustedAxis < 0 || adjustedAxis >= s.Rank() {
		exceptions.Panicf("Shape.Dim(%d) out-of-bounds for rank %d (shape=%s)", axis, s.Rank(), s)
	}
	return s.Dimensions[adjustedAxis]
}

// IsDynamicDim returns whether the dimension of the given axis is symbolic.
// axis can take negative numbers, counting from the end.
func (s Shape) IsDynamicDim(axis int) bool {
	return s.Dim(axis) == DynamicDim
}

// IsFullyDefined returns whether all dimensions of the shape are concrete,
// that is, there are no symbolic dimensions.
func (s Shape) IsFullyDefined() bool {
	for _, dim := range s.Dimensions {
		if dim == DynamicDim {
			return false
		}
	}
	return true
}

// Shape returns a shallow copy of itself. It implements the HasShape interface.
func (s Shape) Shape() Shape { return s }

// String implements fmt.Stringer, pretty-prints the shape. Symbolic dimensions
// are printed as "?".
func (s Shape) String() string {
	if s.Rank() == 0 {
		return fmt.Sprintf("(%s)", s.DType)
	}
	parts := make([]string, 0, s.Rank())
	for _, dim := range s.Dimensions {
		if dim == DynamicDim {
			parts = append(parts, "?")
		} else {
			parts = append(parts, fmt.Sprintf("%d", dim))
		}
	}
	return fmt.Sprintf("(%s)[%s]", s.DType, strings.Join(parts, " "))
}

// Size returns the number of elements of DType needed for this shape.
// It's the product of all dimensions.
//
// It panics if the shape is not fully defined -- a symbolic dimension has no size.
func (s Shape) Size() (size int) {
	size = 1
	for _, d := range s.Dimensions {
		if d == DynamicDim {
			exceptions.Panicf("Shape.Size() of shape %s with symbolic dimensions is undefined", s)
		}
		size *= d
	}
	return
}

// Memory returns the memory used to store an array of the given shape, the same
// as the size in bytes.
func (s Shape) Memory() uintptr {
	return s.DType.Memory() * uintptr(s.Size())
}

// Equal compares two shapes for equality: dtype and dimensions are compared.
// Symbolic dimensions only match symbolic dimensions.
func (s Shape) Equal(s2 Shape) bool {
	if s.DType != s2.DType {
		return false
	}
	if s.Rank() != s2.Rank() {
		return false
	}
	if s.IsScalar() {
		return true
	}
	return slices.Equal(s.Dimensions, s2.Dimensions)
}

// Clone returns a new deep copy of the shape.
func (s Shape) Clone() (s2 Shape) {
	s2.DType = s.DType
	s2.Dimensions = slices.Clone(s.Dimensions)
	return
}
