// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/unet/internal/tensor"
)

// RawTensor is the low-level tensor representation used by backends.
//
// RawTensor provides:
//   - Shape and type information via Shape(), DType(), Device()
//   - Data access via AsFloat32() and AsFloat64()
//   - Deep copies via Clone()
//
// Most users should use the high-level Tensor[T, B] type instead.
//
// Example:
//
//	raw, _ := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
//	data := raw.AsFloat32()
type RawTensor = tensor.RawTensor

// NewRaw allocates a zeroed RawTensor.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}
