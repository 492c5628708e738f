// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/unet/internal/backend/cpu"
	"github.com/born-ml/unet/internal/parallel"
	"github.com/born-ml/unet/tensor"
)

// Backend represents the CPU backend implementation.
//
// The CPU backend provides pure Go implementations of every tensor
// operation the U-Net needs, split across goroutines.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend using every CPU.
//
// Example:
//
//	import (
//	    "github.com/born-ml/unet/backend/cpu"
//	    "github.com/born-ml/unet/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	}
func New() *Backend {
	return internalcpu.New()
}

// NewWithWorkers creates a CPU backend that runs kernels on at most
// workers goroutines. workers <= 1 runs everything on the calling goroutine.
func NewWithWorkers(workers int) *Backend {
	if workers <= 1 {
		return internalcpu.NewWithConfig(parallel.Sequential())
	}
	cfg := parallel.DefaultConfig()
	cfg.Enabled = true
	cfg.NumWorkers = workers
	return internalcpu.NewWithConfig(cfg)
}
