package cpu

import (
	"fmt"

	"github.com/born-ml/unet/internal/parallel"
	"github.com/born-ml/unet/internal/tensor"
	"golang.org/x/exp/constraints"
)

// Conv2D performs 2D convolution using the im2col algorithm.
//
// Input shape:  [N, C_in, H, W]
// Kernel shape: [C_out, C_in, K_h, K_w]
// Output shape: [N, C_out, H_out, W_out]
//
// Where:
//
//	H_out = (H + pad.Top + pad.Bottom - K_h) / stride + 1
//	W_out = (W + pad.Left + pad.Right - K_w) / stride + 1
//
// Each sample is unrolled into a [H_out*W_out, C_in*K_h*K_w] patch matrix,
// then output channels are computed in parallel as dot products against the
// flattened kernel rows.
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.RawTensor, stride int, pad tensor.Padding) *tensor.RawTensor {
	g := convGeometry(input.Shape(), kernel.Shape(), stride, pad, "conv2d")
	if g.cIn != kernel.Shape()[1] {
		panic(fmt.Sprintf("conv2d: input channels %d != kernel channels %d", g.cIn, kernel.Shape()[1]))
	}
	if input.DType() != kernel.DType() {
		panic(fmt.Sprintf("conv2d: dtype mismatch %s vs %s", input.DType(), kernel.DType()))
	}

	g.cOut = kernel.Shape()[0]
	g.hOut = (g.h+pad.Top+pad.Bottom-g.kh)/stride + 1
	g.wOut = (g.w+pad.Left+pad.Right-g.kw)/stride + 1
	if g.hOut <= 0 || g.wOut <= 0 {
		panic(fmt.Sprintf("conv2d: invalid output dimensions: out_h=%d, out_w=%d (check stride/padding)", g.hOut, g.wOut))
	}

	output := tensor.MustNewRaw(tensor.Shape{g.n, g.cOut, g.hOut, g.wOut}, input.DType(), cpu.device)
	switch input.DType() {
	case tensor.Float32:
		conv2dKernel[float32](output, input, kernel, g, cpu.par)
	case tensor.Float64:
		conv2dKernel[float64](output, input, kernel, g, cpu.par)
	default:
		panic(fmt.Sprintf("conv2d: unsupported dtype %s", input.DType()))
	}
	return output
}

// geometry holds the dimensions shared by the convolution kernels.
type geometry struct {
	n, cIn, h, w int
	cOut, kh, kw int
	hOut, wOut   int
	stride       int
	pad          tensor.Padding
}

func convGeometry(inputShape, kernelShape tensor.Shape, stride int, pad tensor.Padding, op string) geometry {
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("%s: input must be 4D [N,C,H,W], got %dD", op, len(inputShape)))
	}
	if len(kernelShape) != 4 {
		panic(fmt.Sprintf("%s: kernel must be 4D, got %dD", op, len(kernelShape)))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("%s: invalid stride %d", op, stride))
	}
	if pad.Top < 0 || pad.Bottom < 0 || pad.Left < 0 || pad.Right < 0 {
		panic(fmt.Sprintf("%s: negative padding %+v", op, pad))
	}
	return geometry{
		n: inputShape[0], cIn: inputShape[1], h: inputShape[2], w: inputShape[3],
		kh: kernelShape[2], kw: kernelShape[3],
		stride: stride, pad: pad,
	}
}

func conv2dKernel[T constraints.Float](output, input, kernel *tensor.RawTensor, g geometry, par parallel.Config) {
	src := tensor.Elems[T](input)
	weights := tensor.Elems[T](kernel)
	dst := tensor.Elems[T](output)

	colWidth := g.cIn * g.kh * g.kw
	positions := g.hOut * g.wOut
	col := make([]T, positions*colWidth)

	for n := 0; n < g.n; n++ {
		im2col(col, src[n*g.cIn*g.h*g.w : (n+1)*g.cIn*g.h*g.w], g)

		plane := dst[n*g.cOut*positions : (n+1)*g.cOut*positions]
		parallel.For(g.cOut, func(co int) {
			row := weights[co*colWidth : (co+1)*colWidth]
			out := plane[co*positions : (co+1)*positions]
			for j := range out {
				patch := col[j*colWidth : (j+1)*colWidth]
				var sum T
				for k, w := range row {
					sum += w * patch[k]
				}
				out[j] = sum
			}
		}, par)
	}
}

// im2col unrolls one [C, H, W] sample into rows of kernel-sized patches.
// Positions that fall into the padding are zero.
func im2col[T constraints.Float](col, sample []T, g geometry) {
	idx := 0
	for oh := 0; oh < g.hOut; oh++ {
		for ow := 0; ow < g.wOut; ow++ {
			hStart := oh*g.stride - g.pad.Top
			wStart := ow*g.stride - g.pad.Left
			for c := 0; c < g.cIn; c++ {
				for kh := 0; kh < g.kh; kh++ {
					h := hStart + kh
					for kw := 0; kw < g.kw; kw++ {
						w := wStart + kw
						if h >= 0 && h < g.h && w >= 0 && w < g.w {
							col[idx] = sample[c*g.h*g.w+h*g.w+w]
						} else {
							col[idx] = 0
						}
						idx++
					}
				}
			}
		}
	}
}
