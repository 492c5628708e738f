// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the neural network layers the U-Net is made of.
//
// # Overview
//
// This package contains:
//   - Layers: Conv2D, ConvTranspose2D, BatchNorm2D, Dropout
//   - Activations: LeakyReLU, Sigmoid, Tanh, Linear
//   - Utilities: Sequential, Module interface, Parameter
//   - Initialization: GlorotUniform, Zeros, Ones
//
// Image layers take a tensor.Layout and accept 4D inputs in that layout.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/unet/backend/cpu"
//	    "github.com/born-ml/unet/nn"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    rng := rand.New(rand.NewSource(1))
//
//	    block := nn.NewSequential[*cpu.Backend](
//	        nn.NewConv2D(nn.Conv2DConfig{
//	            InChannels: 3, OutChannels: 64, KernelSize: 3, Stride: 2,
//	            Padding: nn.Same, UseBias: true,
//	        }, backend, rng),
//	        nn.NewBatchNorm2D(64, tensor.ChannelsFirst, 0, 0, backend),
//	        nn.NewLeakyReLU[*cpu.Backend](0.2),
//	    )
//	    y := block.Forward(x) // (1, 3, 512, 512) -> (1, 64, 256, 256)
//	}
//
// # Training and evaluation
//
// Modules start in evaluation mode: BatchNorm2D uses its moving statistics
// and Dropout is the identity. SetTraining switches a module, and anything
// it contains, to batch statistics and random dropping.
package nn
