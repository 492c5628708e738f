// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand"

	"github.com/born-ml/unet/internal/nn"
	"github.com/born-ml/unet/tensor"
)

// PaddingMode selects how convolutions pad their input.
type PaddingMode = nn.PaddingMode

// Padding modes.
const (
	Valid PaddingMode = nn.Valid
	Same  PaddingMode = nn.Same
)

// Conv2DConfig describes a convolution or transposed convolution.
type Conv2DConfig = nn.Conv2DConfig

// Layers

// Conv2D represents a 2D convolutional layer.
type Conv2D[B tensor.Backend] = nn.Conv2D[B]

// NewConv2D creates a new 2D convolutional layer with Glorot uniform weights.
//
// Example:
//
//	backend := cpu.New()
//	conv := nn.NewConv2D(nn.Conv2DConfig{
//	    InChannels: 1, OutChannels: 32, KernelSize: 3, Stride: 1,
//	    Padding: nn.Same, UseBias: true,
//	}, backend, rng)
func NewConv2D[B tensor.Backend](cfg Conv2DConfig, backend B, rng *rand.Rand) *Conv2D[B] {
	return nn.NewConv2D(cfg, backend, rng)
}

// ConvTranspose2D represents a transposed 2D convolution.
type ConvTranspose2D[B tensor.Backend] = nn.ConvTranspose2D[B]

// NewConvTranspose2D creates a new transposed convolution.
//
// Example:
//
//	up := nn.NewConvTranspose2D(nn.Conv2DConfig{
//	    InChannels: 64, OutChannels: 32, KernelSize: 2, Stride: 2, UseBias: true,
//	}, backend, rng) // doubles height and width
func NewConvTranspose2D[B tensor.Backend](cfg Conv2DConfig, backend B, rng *rand.Rand) *ConvTranspose2D[B] {
	return nn.NewConvTranspose2D(cfg, backend, rng)
}

// BatchNorm2D represents per-channel batch normalization.
type BatchNorm2D[B tensor.Backend] = nn.BatchNorm2D[B]

// NewBatchNorm2D creates a batch normalization layer. A non-positive
// epsilon or momentum selects the defaults (1e-3 and 0.99).
func NewBatchNorm2D[B tensor.Backend](channels int, layout tensor.Layout, epsilon, momentum float32, backend B) *BatchNorm2D[B] {
	return nn.NewBatchNorm2D(channels, layout, epsilon, momentum, backend)
}

// Dropout represents a dropout layer.
type Dropout[B tensor.Backend] = nn.Dropout[B]

// NewDropout creates a dropout layer with drop probability rate.
func NewDropout[B tensor.Backend](rate float32, rng *rand.Rand) *Dropout[B] {
	return nn.NewDropout[B](rate, rng)
}

// Sequential represents a sequential container of modules.
type Sequential[B tensor.Backend] = nn.Sequential[B]

// NewSequential creates a new sequential container.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return nn.NewSequential(modules...)
}

// Activations

// LeakyReLU represents the leaky ReLU activation.
type LeakyReLU[B tensor.Backend] = nn.LeakyReLU[B]

// NewLeakyReLU creates a leaky ReLU with the given negative slope.
func NewLeakyReLU[B tensor.Backend](slope float32) *LeakyReLU[B] {
	return nn.NewLeakyReLU[B](slope)
}

// Sigmoid represents the sigmoid activation.
type Sigmoid[B tensor.Backend] = nn.Sigmoid[B]

// NewSigmoid creates a new sigmoid activation.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return nn.NewSigmoid[B]()
}

// Tanh represents the tanh activation.
type Tanh[B tensor.Backend] = nn.Tanh[B]

// NewTanh creates a new tanh activation.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return nn.NewTanh[B]()
}

// Activation is an activation module that can report its output shape.
type Activation[B tensor.Backend] = nn.Activation[B]

// NewActivation returns an activation by name: "sigmoid", "tanh",
// "leaky_relu" or "linear".
func NewActivation[B tensor.Backend](name string) (Activation[B], error) {
	return nn.NewActivation[B](name)
}

// Initialization

// GlorotUniform samples a weight tensor from the Glorot/Xavier uniform
// distribution.
func GlorotUniform[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B, rng *rand.Rand) *tensor.Tensor[float32, B] {
	return nn.GlorotUniform(fanIn, fanOut, shape, backend, rng)
}
