package cpu

import (
	"fmt"

	"github.com/born-ml/unet/internal/tensor"
	"golang.org/x/exp/constraints"
)

// Reshape returns a copy of t with a different shape.
// The new shape must have the same number of elements.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	result, err := t.Clone().WithShape(newShape)
	if err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	return result
}

// Transpose permutes the dimensions of t: out.Shape()[i] = t.Shape()[axes[i]].
// With no axes all dimensions are reversed.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: axes length %d != ndim %d", len(axes), ndim))
	}

	seen := make([]bool, ndim)
	for _, ax := range axes {
		if ax < 0 || ax >= ndim {
			panic(fmt.Sprintf("transpose: invalid axis %d for %dD tensor", ax, ndim))
		}
		if seen[ax] {
			panic(fmt.Sprintf("transpose: duplicate axis %d", ax))
		}
		seen[ax] = true
	}

	result := tensor.MustNewRaw(shape.Permute(axes...), t.DType(), cpu.device)
	switch t.DType() {
	case tensor.Float32:
		transposeKernel[float32](result, t, axes)
	case tensor.Float64:
		transposeKernel[float64](result, t, axes)
	default:
		panic(fmt.Sprintf("transpose: unsupported dtype %s", t.DType()))
	}
	return result
}

func transposeKernel[T constraints.Float](result, t *tensor.RawTensor, axes []int) {
	src := tensor.Elems[T](t)
	dst := tensor.Elems[T](result)
	outShape := result.Shape()
	srcStrides := t.Strides()

	// Source stride for each output dimension.
	strides := make([]int, len(axes))
	for i, ax := range axes {
		strides[i] = srcStrides[ax]
	}

	index := make([]int, len(outShape))
	si := 0
	for i := range dst {
		dst[i] = src[si]
		for d := len(outShape) - 1; d >= 0; d-- {
			index[d]++
			si += strides[d]
			if index[d] < outShape[d] {
				break
			}
			si -= strides[d] * outShape[d]
			index[d] = 0
		}
	}
}

// Cat concatenates tensors along dim.
//
// All tensors must have the same shape except along dim.
// Negative dim counts from the end (-1 = last dimension).
//
// Example:
//
//	// [2, 3, 4, 4] ++ [2, 5, 4, 4] along dim 1 -> [2, 8, 4, 4]
//	c := backend.Cat([]*tensor.RawTensor{a, b}, 1)
func (cpu *CPUBackend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("cat: at least one tensor required")
	}

	shape := tensors[0].Shape()
	ndim := len(shape)
	dtype := tensors[0].DType()

	dim, err := tensor.NormalizeDim(dim, ndim)
	if err != nil {
		panic(fmt.Sprintf("cat: %v", err))
	}

	total := 0
	for i, t := range tensors {
		tShape := t.Shape()
		if len(tShape) != ndim {
			panic(fmt.Sprintf("cat: tensor %d has %d dimensions, expected %d", i, len(tShape), ndim))
		}
		if t.DType() != dtype {
			panic(fmt.Sprintf("cat: tensor %d has dtype %s, expected %s", i, t.DType(), dtype))
		}
		for d := 0; d < ndim; d++ {
			if d == dim {
				total += tShape[d]
			} else if tShape[d] != shape[d] {
				panic(fmt.Sprintf("cat: tensor %d dimension %d is %d, expected %d", i, d, tShape[d], shape[d]))
			}
		}
	}

	outShape := shape.Clone()
	outShape[dim] = total
	result := tensor.MustNewRaw(outShape, dtype, cpu.device)

	// Copy as bytes: each tensor contributes a contiguous block per outer index.
	elem := dtype.Size()
	outer := shape[:dim].NumElements()
	inner := shape[dim+1:].NumElements() * elem
	dst := result.Data()
	rowBytes := total * inner

	offset := 0
	for _, t := range tensors {
		block := t.Shape()[dim] * inner
		src := t.Data()
		for o := 0; o < outer; o++ {
			copy(dst[o*rowBytes+offset : o*rowBytes+offset+block], src[o*block : (o+1)*block])
		}
		offset += block
	}
	return result
}
