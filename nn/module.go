// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/unet/internal/nn"
	"github.com/born-ml/unet/tensor"
)

// Module is the interface implemented by every layer: a Forward function
// over float32 tensors and the parameters it owns.
type Module[B tensor.Backend] = nn.Module[B]

// Shaped is implemented by modules that can compute their output shape
// without running Forward.
type Shaped = nn.Shaped

// Trainable is implemented by modules that behave differently in training.
type Trainable = nn.Trainable

// SetTraining switches m between training and evaluation mode.
func SetTraining[B tensor.Backend](m Module[B], training bool) {
	nn.SetTraining(m, training)
}
