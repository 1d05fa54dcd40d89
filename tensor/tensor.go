// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public tensor types used by embedbag.
//
// The package defines:
//   - Tensor[T, B]: generic tensor with type safety
//   - RawTensor: low-level row-major storage used by backends
//   - Backend: interface implemented by compute backends (backend/cpu)
//   - Shape, DataType, Device: core type definitions
//   - BagMode, SparseRows, BagResult: embedding kernel types
//
// Example:
//
//	backend := cpu.New()
//	ids, err := tensor.FromSlice([]int32{4, 1, 7}, tensor.Shape{3}, backend)
//	table := tensor.Randn[float32](tensor.Shape{10, 8}, backend)
package tensor

import (
	"github.com/born-ml/embedbag/internal/tensor"
	ggtensor "gorgonia.org/tensor"
)

// DType is a constraint for tensor data types.
// Supported types: float32, float64, int32, int64.
type DType = tensor.DType

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
)

// Device represents the device where tensor data resides.
type Device = tensor.Device

// Device constants.
const (
	CPU    Device = tensor.CPU
	CUDA   Device = tensor.CUDA
	WebGPU Device = tensor.WebGPU
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// Tensor is a generic type-safe tensor.
//
// T is the data type (float32, float64, int32, int64).
// B is the backend implementation.
type Tensor[T DType, B Backend] = tensor.Tensor[T, B]

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Zeros[T, B](shape, b)
}

// Full creates a tensor filled with a specific value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	return tensor.Full[T, B](shape, value, b)
}

// Randn creates a tensor filled with random values from N(0, 1).
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Randn[T, B](shape, b)
}

// FromSlice creates a tensor from a Go slice.
//
// Example:
//
//	backend := cpu.New()
//	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	return tensor.FromSlice[T, B](data, shape, b)
}

// New creates a tensor from a raw tensor.
//
// This is a low-level function. Most users should use Zeros or FromSlice.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return tensor.New[T, B](raw, b)
}

// NewRaw creates a new raw tensor with the given shape, dtype, and device.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// FromDense copies a float32 gorgonia.org/tensor tensor into a Tensor.
func FromDense[B Backend](d ggtensor.Tensor, b B) (*Tensor[float32, B], error) {
	return tensor.FromDense(d, b)
}

// ToDense copies a float32 Tensor into a gorgonia.org/tensor Dense.
func ToDense[B Backend](t *Tensor[float32, B]) *ggtensor.Dense {
	return tensor.ToDense(t)
}
