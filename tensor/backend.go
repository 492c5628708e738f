// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/born-ml/unet/internal/tensor"

// Backend defines the interface that compute backends implement.
// Backends handle the actual computation for tensor operations; 4D
// operations use ChannelsFirst order.
//
// Implementations:
//   - backend/cpu: Pure Go, parallel over goroutines
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
type Backend = tensor.Backend

// Padding is the zero padding added on each side of the spatial axes of a
// convolution input.
type Padding = tensor.Padding
