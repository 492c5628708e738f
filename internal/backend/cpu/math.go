package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/unet/internal/tensor"
	"golang.org/x/exp/constraints"
)

// unary applies f element-wise, dispatching on dtype.
func (cpu *CPUBackend) unary(name string, x *tensor.RawTensor,
	f32 func(float32) float32, f64 func(float64) float64,
) *tensor.RawTensor {
	result := tensor.MustNewRaw(x.Shape(), x.DType(), cpu.device)
	switch x.DType() {
	case tensor.Float32:
		mapInto(result, x, f32)
	case tensor.Float64:
		mapInto(result, x, f64)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, x.DType()))
	}
	return result
}

func mapInto[T constraints.Float](result, x *tensor.RawTensor, f func(T) T) {
	dst := tensor.Elems[T](result)
	for i, v := range tensor.Elems[T](x) {
		dst[i] = f(v)
	}
}

// AddScalar adds a scalar to every element.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	s32 := float32(scalar)
	return cpu.unary("add_scalar", x,
		func(v float32) float32 { return v + s32 },
		func(v float64) float64 { return v + scalar })
}

// MulScalar multiplies every element by a scalar.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	s32 := float32(scalar)
	return cpu.unary("mul_scalar", x,
		func(v float32) float32 { return v * s32 },
		func(v float64) float64 { return v * scalar })
}

// Rsqrt computes 1/sqrt(x) element-wise.
func (cpu *CPUBackend) Rsqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("rsqrt", x,
		func(v float32) float32 { return float32(1 / math.Sqrt(float64(v))) },
		func(v float64) float64 { return 1 / math.Sqrt(v) })
}

// MeanDim averages x along dim. With keepDim the reduced axis is kept with size 1.
func (cpu *CPUBackend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := x.Shape()
	dim, err := tensor.NormalizeDim(dim, len(shape))
	if err != nil {
		panic(fmt.Sprintf("mean_dim: %v", err))
	}

	outShape := make(tensor.Shape, 0, len(shape))
	for i, d := range shape {
		switch {
		case i != dim:
			outShape = append(outShape, d)
		case keepDim:
			outShape = append(outShape, 1)
		}
	}

	result := tensor.MustNewRaw(outShape, x.DType(), cpu.device)
	switch x.DType() {
	case tensor.Float32:
		meanDimKernel[float32](result, x, dim)
	case tensor.Float64:
		meanDimKernel[float64](result, x, dim)
	default:
		panic(fmt.Sprintf("mean_dim: unsupported dtype %s", x.DType()))
	}
	return result
}

func meanDimKernel[T constraints.Float](result, x *tensor.RawTensor, dim int) {
	shape := x.Shape()
	outer := shape[:dim].NumElements()
	size := shape[dim]
	inner := shape[dim+1:].NumElements()

	src := tensor.Elems[T](x)
	dst := tensor.Elems[T](result)
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			var sum T
			base := o*size*inner + i
			for k := 0; k < size; k++ {
				sum += src[base+k*inner]
			}
			dst[o*inner+i] = sum / T(size)
		}
	}
}
