package tensors

import (
	"reflect"

	"github.com/gomlx/encdec/types/shapes"
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/gopjrt/dtypes/bfloat16"
	"github.com/pkg/errors"
	"github.com/x448/float16"
)

// allocateFlat returns a zero-initialized flat slice for the dtype with size elements.
// Common dtypes have typed fast paths; the rest goes through reflection.
func allocateFlat(dtype dtypes.DType, size int) (any, error) {
	if size <= 0 {
		return nil, errors.Errorf("allocateFlat(%s, %d): size must be > 0", dtype, size)
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
		return nil, errors.Errorf("allocateFlat: dtype %s not supported", dtype)
	}
	return reflect.MakeSlice(reflect.SliceOf(goType), size, size).Interface(), nil
}

// ConstFlatData calls accessFn with the flattened data as a slice of the Go type
// corresponding to the DType. Even scalar values have a flattened data representation
// of one element.
//
// This provides accessFn with the actual Tensor data (not a copy). It's owned by the
// Tensor and must not be changed -- see Tensor.MutableFlatData for that.
//
// It panics if the tensor is in an invalid state.
func (t *Tensor) ConstFlatData(accessFn func(flat any)) {
	t.AssertValid()
	accessFn(t.flat)
}

// MutableFlatData calls accessFn with the flattened data as a slice of the Go type
// corresponding to the DType. The contents of the slice can be changed until accessFn
// returns.
//
// It panics if the tensor is in an invalid state.
func (t *Tensor) MutableFlatData(accessFn func(flat any)) {
	t.AssertValid()
	accessFn(t.flat)
}

// ConstFlatData is the "generics" version of Tensor.ConstFlatData. It panics if T does
// not match the tensor's dtype.
func ConstFlatData[T dtypes.Supported](t *Tensor, accessFn func(flat []T)) {
	if t.shape.DType != dtypes.FromGenericsType[T]() {
		var v T
		exceptions.Panicf("ConstFlatData[%T] is incompatible with Tensor's dtype %s -- expected dtype %s",
			v, t.shape.DType, dtypes.FromGenericsType[T]())
	}
	t.ConstFlatData(func(anyFlat any) {
		accessFn(anyFlat.([]T))
	})
}

// MutableFlatData is the "generics" version of Tensor.MutableFlatData. It panics if T
// does not match the tensor's dtype.
func MutableFlatData[T dtypes.Supported](t *Tensor, accessFn func(flat []T)) {
	if t.shape.DType != dtypes.FromGenericsType[T]() {
		var v T
		exceptions.Panicf("MutableFlatData[%T] is incompatible with Tensor's dtype %s",
			v, t.shape.DType)
	}
	t.MutableFlatData(func(anyFlat any) {
		accessFn(anyFlat.([]T))
	})
}

// CopyFlatData returns a copy of the flat data of the Tensor.
//
// It will panic if the given generic type doesn't match the DType of the tensor.
func CopyFlatData[T dtypes.Supported](t *Tensor) []T {
	var flatCopy []T
	ConstFlatData(t, func(flat []T) {
		flatCopy = make([]T, len(flat))
		copy(flatCopy, flat)
	})
	return flatCopy
}

// FromScalarAndDimensions creates a tensor with the given dimensions, filled with the
// given scalar value replicated everywhere. The DType is inferred from the value.
func FromScalarAndDimensions[T dtypes.Supported](value T, dimensions ...int) *Tensor {
	dtype := dtypes.FromGenericsType[T]()
	shape := shapes.Make(dtype, dimensions...)
	t := FromShape(shape)
	MutableFlatData(t, func(flat []T) {
		for ii := range flat {
			flat[ii] = value
		}
	})
	return t
}

// FromFlatDataAndDimensions creates a tensor with the given dimensions, filled with the
// flattened values given in data. The data is copied into the Tensor. The DType is
// inferred from the data type.
func FromFlatDataAndDimensions[T dtypes.Supported](data []T, dimensions ...int) *Tensor {
	dtype := dtypes.FromGenericsType[T]()
	shape := shapes.Make(dtype, dimensions...)
	if len(data) != shape.Size() {
		exceptions.Panicf("FromFlatDataAndDimensions(%s): data size is %d, but dimensions size is %d", shape, len(data), shape.Size())
	}
	t := FromShape(shape)
	MutableFlatData(t, func(flat []T) {
		copy(flat, data)
	})
	return t
}

// Equal checks whether t == otherTensor: shapes, locations and contents must match.
// If they are the same pointer they are considered equal.
// If either is invalid (nil) it panics.
//
// Slow implementation: fine for small tensors, tests and feed plumbing.
func (t *Tensor) Equal(otherTensor *Tensor) bool {
	t.AssertValid()
	otherTensor.AssertValid()

	if t == otherTensor {
		return true
	}
	if !t.shape.Equal(otherTensor.shape) || t.location != otherTensor.location {
		return false
	}
	equal := true
	t.ConstFlatData(func(flat0 any) {
		otherTensor.ConstFlatData(func(flat1 any) {
			t0V := reflect.ValueOf(flat0)
			t1V := reflect.ValueOf(flat1)
			for ii := range t0V.Len() {
				if !t0V.Index(ii).Equal(t1V.Index(ii)) {
					equal = false
					return
				}
			}
		})
	})
	return equal
}
