package cpu

import (
	"math"

	"github.com/born-ml/unet/internal/tensor"
)

// Sigmoid computes 1 / (1 + exp(-x)) element-wise.
func (cpu *CPUBackend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("sigmoid", x,
		func(v float32) float32 { return float32(sigmoid(float64(v))) },
		sigmoid)
}

// sigmoid is split by sign so exp never overflows.
func sigmoid(v float64) float64 {
	if v >= 0 {
		return 1 / (1 + math.Exp(-v))
	}
	e := math.Exp(v)
	return e / (1 + e)
}

// Tanh computes the hyperbolic tangent element-wise.
func (cpu *CPUBackend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("tanh", x,
		func(v float32) float32 { return float32(math.Tanh(float64(v))) },
		math.Tanh)
}

// LeakyReLU computes x for x >= 0 and slope*x otherwise.
func (cpu *CPUBackend) LeakyReLU(x *tensor.RawTensor, slope float64) *tensor.RawTensor {
	s32 := float32(slope)
	return cpu.unary("leaky_relu", x,
		func(v float32) float32 {
			if v < 0 {
				return v * s32
			}
			return v
		},
		func(v float64) float64 {
			if v < 0 {
				return v * slope
			}
			return v
		})
}
