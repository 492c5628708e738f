// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package unet builds a U-Net generator for 512x512 image-to-image
// translation.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/unet/backend/cpu"
//	    "github.com/born-ml/unet/unet"
//	)
//
//	func main() {
//	    cfg := unet.DefaultConfig()
//	    cfg.InChannels, cfg.OutChannels = 3, 1
//	    cfg.Binary = true // sigmoid output
//
//	    model, err := unet.Build(cfg, cpu.New())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    y, err := model.Forward(x) // (1, 3, 512, 512) -> (1, 1, 512, 512)
//	}
//
// The built model is reusable: Forward keeps no state between calls and, in
// evaluation mode (the default), returns the same output for the same input.
package unet

import (
	"log/slog"
	"math/rand"

	"github.com/born-ml/unet/internal/graph"
	"github.com/born-ml/unet/internal/unet"
	"github.com/born-ml/unet/tensor"
)

// ImageSize is the fixed input and output resolution.
const ImageSize = unet.ImageSize

// Config holds the builder arguments.
type Config = unet.Config

// Model is a built network.
type Model[B tensor.Backend] = graph.Model[B]

// Node is a layer output inside a Model.
type Node[B tensor.Backend] = graph.Node[B]

// Option configures Build.
type Option = unet.Option

// Errors returned by Build and Model.
var (
	ErrInvalidConfig = unet.ErrInvalidConfig
	ErrShapeMismatch = graph.ErrShapeMismatch
)

// DefaultConfig returns 3 -> 3 channels, 64 base filters, batch 1, tanh
// output and channels-first layout.
func DefaultConfig() Config {
	return unet.DefaultConfig()
}

// Build constructs the network described by cfg on backend.
//
// An unsupported layout fails with tensor.ErrUnsupportedLayout; other bad
// arguments fail with ErrInvalidConfig.
func Build[B tensor.Backend](cfg Config, backend B, opts ...Option) (*Model[B], error) {
	return unet.Build(cfg, backend, opts...)
}

// WithLogger sets the logger for build diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return unet.WithLogger(logger)
}

// WithRand sets the random source for weights and dropout.
func WithRand(rng *rand.Rand) Option {
	return unet.WithRand(rng)
}
