// Package cpu implements the pure Go CPU backend.
package cpu

import (
	"fmt"

	"github.com/born-ml/unet/internal/parallel"
	"github.com/born-ml/unet/internal/tensor"
	"golang.org/x/exp/constraints"
)

// CPUBackend implements tensor operations on CPU.
// It holds no mutable state and is safe for concurrent use.
type CPUBackend struct {
	device tensor.Device
	par    parallel.Config
}

// New creates a new CPU backend using all available cores.
func New() *CPUBackend {
	return NewWithConfig(parallel.DefaultConfig())
}

// NewWithConfig creates a CPU backend with explicit parallelism settings.
func NewWithConfig(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		par:    cfg,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// binaryOp enumerates element-wise binary operations.
type binaryOp int

const (
	opAdd binaryOp = iota
	opSub
	opMul
	opDiv
)

func (op binaryOp) String() string {
	return [...]string{"add", "sub", "mul", "div"}[op]
}

func binaryFunc[T constraints.Float](op binaryOp) func(x, y T) T {
	switch op {
	case opAdd:
		return func(x, y T) T { return x + y }
	case opSub:
		return func(x, y T) T { return x - y }
	case opMul:
		return func(x, y T) T { return x * y }
	default:
		return func(x, y T) T { return x / y }
	}
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary(opAdd, a, b)
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary(opSub, a, b)
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary(opMul, a, b)
}

// Div performs element-wise division with broadcasting.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary(opDiv, a, b)
}

func (cpu *CPUBackend) binary(op binaryOp, a, b *tensor.RawTensor) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch %s vs %s", op, a.DType(), b.DType()))
	}
	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}

	result := tensor.MustNewRaw(outShape, a.DType(), cpu.device)
	switch a.DType() {
	case tensor.Float32:
		binaryKernel(binaryFunc[float32](op), result, a, b, needsBroadcast)
	case tensor.Float64:
		binaryKernel(binaryFunc[float64](op), result, a, b, needsBroadcast)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", op, a.DType()))
	}
	return result
}

func binaryKernel[T constraints.Float](f func(x, y T) T, result, a, b *tensor.RawTensor, needsBroadcast bool) {
	dst := tensor.Elems[T](result)
	x := tensor.Elems[T](a)
	y := tensor.Elems[T](b)

	if !needsBroadcast {
		for i := range dst {
			dst[i] = f(x[i], y[i])
		}
		return
	}

	outShape := result.Shape()
	aStrides := broadcastStrides(a.Shape(), outShape)
	bStrides := broadcastStrides(b.Shape(), outShape)

	index := make([]int, len(outShape))
	ai, bi := 0, 0
	for i := range dst {
		dst[i] = f(x[ai], y[bi])

		// Advance the multi-index, odometer style.
		for d := len(outShape) - 1; d >= 0; d-- {
			index[d]++
			ai += aStrides[d]
			bi += bStrides[d]
			if index[d] < outShape[d] {
				break
			}
			ai -= aStrides[d] * outShape[d]
			bi -= bStrides[d] * outShape[d]
			index[d] = 0
		}
	}
}

// broadcastStrides returns strides of src aligned to out, with 0 for
// broadcast dimensions.
func broadcastStrides(src, out tensor.Shape) []int {
	strides := make([]int, len(out))
	srcStrides := src.ComputeStrides()
	offset := len(out) - len(src)
	for i := range src {
		if src[i] != 1 {
			strides[offset+i] = srcStrides[i]
		}
	}
	return strides
}
