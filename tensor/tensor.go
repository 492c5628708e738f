// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"math/rand"

	"github.com/born-ml/unet/internal/tensor"
)

// DType is a constraint for tensor data types: float32 or float64.
type DType = tensor.DType

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
)

// Device represents the device where tensor data resides.
type Device = tensor.Device

// CPU is the host device.
const CPU Device = tensor.CPU

// Shape represents the dimensions of a tensor.
// Example: Shape{1, 3, 512, 512} is one 3-channel 512x512 image.
type Shape = tensor.Shape

// Tensor is a generic type-safe tensor.
//
// T is the data type (float32, float64).
// B is the backend implementation.
type Tensor[T DType, B Backend] = tensor.Tensor[T, B]

// Layout is the axis convention of 4D image tensors.
type Layout = tensor.Layout

// Supported layouts.
const (
	ChannelsFirst Layout = tensor.ChannelsFirst
	ChannelsLast  Layout = tensor.ChannelsLast
)

// ErrUnsupportedLayout is returned for an unknown dimension ordering.
var ErrUnsupportedLayout = tensor.ErrUnsupportedLayout

// ParseLayout accepts "th"/"channels_first"/"nchw" and
// "tf"/"channels_last"/"nhwc".
func ParseLayout(s string) (Layout, error) {
	return tensor.ParseLayout(s)
}

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Zeros[T](shape, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Ones[T](shape, b)
}

// Full creates a tensor filled with value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	return tensor.Full(shape, value, b)
}

// Randn creates a tensor of standard normal samples drawn from rng.
func Randn[T DType, B Backend](shape Shape, b B, rng *rand.Rand) *Tensor[T, B] {
	return tensor.Randn[T](shape, b, rng)
}

// Rand creates a tensor of uniform samples in [0, 1) drawn from rng.
func Rand[T DType, B Backend](shape Shape, b B, rng *rand.Rand) *Tensor[T, B] {
	return tensor.Rand[T](shape, b, rng)
}

// FromSlice creates a tensor from data, which must hold shape.NumElements()
// values in row-major order.
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	return tensor.FromSlice(data, shape, b)
}

// New wraps a RawTensor.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return tensor.New[T](raw, b)
}

// Cat concatenates tensors along dim.
func Cat[T DType, B Backend](tensors []*Tensor[T, B], dim int) *Tensor[T, B] {
	return tensor.Cat(tensors, dim)
}

// BroadcastShapes computes the broadcast shape of a and b.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}
