// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/unet/internal/nn"
	"github.com/born-ml/unet/tensor"
)

// Parameter is a named tensor owned by a module. Trainable parameters are
// learned; the rest (BatchNorm2D moving statistics) are running state.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a trainable parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}
