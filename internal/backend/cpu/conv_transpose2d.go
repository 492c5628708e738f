package cpu

import (
	"fmt"

	"github.com/born-ml/unet/internal/parallel"
	"github.com/born-ml/unet/internal/tensor"
	"golang.org/x/exp/constraints"
)

// ConvTranspose2D performs a 2D transposed convolution (fractionally strided
// convolution), the gradient of Conv2D with respect to its input.
//
// Input shape:  [N, C_in, H, W]
// Kernel shape: [C_in, C_out, K_h, K_w]
// Output shape: [N, C_out, H_out, W_out]
//
// Where:
//
//	H_out = (H - 1) * stride + K_h - pad.Top - pad.Bottom
//	W_out = (W - 1) * stride + K_w - pad.Left - pad.Right
//
// Every input pixel scatters a stride-spaced copy of the kernel into the
// output; padding crops the full result.
func (cpu *CPUBackend) ConvTranspose2D(input, kernel *tensor.RawTensor, stride int, pad tensor.Padding) *tensor.RawTensor {
	g := convGeometry(input.Shape(), kernel.Shape(), stride, pad, "conv_transpose2d")
	if g.cIn != kernel.Shape()[0] {
		panic(fmt.Sprintf("conv_transpose2d: input channels %d != kernel channels %d", g.cIn, kernel.Shape()[0]))
	}
	if input.DType() != kernel.DType() {
		panic(fmt.Sprintf("conv_transpose2d: dtype mismatch %s vs %s", input.DType(), kernel.DType()))
	}

	g.cOut = kernel.Shape()[1]
	g.hOut = (g.h-1)*stride + g.kh - pad.Top - pad.Bottom
	g.wOut = (g.w-1)*stride + g.kw - pad.Left - pad.Right
	if g.hOut <= 0 || g.wOut <= 0 {
		panic(fmt.Sprintf("conv_transpose2d: invalid output dimensions: out_h=%d, out_w=%d", g.hOut, g.wOut))
	}

	output := tensor.MustNewRaw(tensor.Shape{g.n, g.cOut, g.hOut, g.wOut}, input.DType(), cpu.device)
	switch input.DType() {
	case tensor.Float32:
		convTranspose2dKernel[float32](output, input, kernel, g, cpu.par)
	case tensor.Float64:
		convTranspose2dKernel[float64](output, input, kernel, g, cpu.par)
	default:
		panic(fmt.Sprintf("conv_transpose2d: unsupported dtype %s", input.DType()))
	}
	return output
}

func convTranspose2dKernel[T constraints.Float](output, input, kernel *tensor.RawTensor, g geometry, par parallel.Config) {
	src := tensor.Elems[T](input)
	weights := tensor.Elems[T](kernel)
	dst := tensor.Elems[T](output)

	inPlane := g.h * g.w
	outPlane := g.hOut * g.wOut
	kPlane := g.kh * g.kw

	// Each (n, c_out) pair owns one output plane.
	parallel.ForBatch(g.n, g.cOut, func(n, co int) {
		out := dst[(n*g.cOut+co)*outPlane : (n*g.cOut+co+1)*outPlane]
		for ci := 0; ci < g.cIn; ci++ {
			in := src[(n*g.cIn+ci)*inPlane : (n*g.cIn+ci+1)*inPlane]
			k := weights[(ci*g.cOut+co)*kPlane : (ci*g.cOut+co+1)*kPlane]
			for ih := 0; ih < g.h; ih++ {
				for iw := 0; iw < g.w; iw++ {
					v := in[ih*g.w+iw]
					if v == 0 {
						continue
					}
					for kh := 0; kh < g.kh; kh++ {
						oh := ih*g.stride + kh - g.pad.Top
						if oh < 0 || oh >= g.hOut {
							continue
						}
						for kw := 0; kw < g.kw; kw++ {
							ow := iw*g.stride + kw - g.pad.Left
							if ow < 0 || ow >= g.wOut {
								continue
							}
							out[oh*g.wOut+ow] += v * k[kh*g.kw+kw]
						}
					}
				}
			}
		}
	}, par)
}
