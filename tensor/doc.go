// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides type-safe tensors for the U-Net builder.
//
// # Overview
//
// Tensors are dense, row-major and bound to a compute backend:
//   - Generic type-safe tensors (Tensor[T, B]) over float32 and float64
//   - NumPy-style broadcasting for element-wise ops
//   - Layout, the axis convention of 4D image tensors
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/unet/backend/cpu"
//	    "github.com/born-ml/unet/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	    z := x.Add(y)
//	}
//
// # Layouts
//
// Image tensors are 4D. ChannelsFirst is (batch, channels, height, width);
// ChannelsLast is (batch, height, width, channels). Layers take the layout
// as an argument; backend kernels always work in ChannelsFirst order.
//
//	layout, err := tensor.ParseLayout("tf") // ChannelsLast
//	shape := layout.Shape(1, 3, 512, 512)    // (1, 512, 512, 3)
package tensor
