// Copyright 2026 Strata ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public tensor value layer of Strata: shapes,
// data types, memory formats and raw buffers the convolution dispatch core
// operates on.
//
// Example:
//
//	input, _ := tensor.NewRaw(tensor.Shape{1, 3, 224, 224}, tensor.Float32, tensor.CPU)
//	weight, _ := tensor.NewRawWithFormat(tensor.Shape{64, 3, 7, 7}, tensor.Float32, tensor.CPU, tensor.ChannelsLast)
package tensor

import (
	"github.com/strata-ml/strata/internal/tensor"
)

// Type aliases for the public API.

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float16 DataType = tensor.Float16
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
)

// Device represents the device where tensor data resides.
type Device = tensor.Device

// Device constants.
const (
	CPU    Device = tensor.CPU
	CUDA   Device = tensor.CUDA
	Vulkan Device = tensor.Vulkan
	Metal  Device = tensor.Metal
	WebGPU Device = tensor.WebGPU
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// MemoryFormat describes the physical axis order of a tensor buffer.
type MemoryFormat = tensor.MemoryFormat

// Memory format constants.
const (
	Contiguous     MemoryFormat = tensor.Contiguous
	ChannelsLast   MemoryFormat = tensor.ChannelsLast
	ChannelsLast3D MemoryFormat = tensor.ChannelsLast3D
)

// RawTensor is the low-level tensor representation.
//
// RawTensor provides:
//   - Shape, dtype, device and layout information
//   - Type-safe data access via AsFloat16(), AsFloat32(), AsFloat64()
//   - Layout repacking via Contiguous()
//   - Deep copies via Clone()
type RawTensor = tensor.RawTensor

// NewRaw creates a RawTensor with contiguous layout.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// NewRawWithFormat creates a RawTensor laid out in the given memory format.
func NewRawWithFormat(shape Shape, dtype DataType, device Device, format MemoryFormat) (*RawTensor, error) {
	return tensor.NewRawWithFormat(shape, dtype, device, format)
}

// Allocator produces result tensors for the dispatch layer.
type Allocator = tensor.Allocator

// NewAllocator returns the default host allocator.
func NewAllocator() Allocator {
	return tensor.NewAllocator()
}
