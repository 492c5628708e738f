package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/unet/internal/tensor"
)

// ConvTranspose2D is a transposed 2D convolution (learned upsampling).
//
// Weight shape: [in_channels, out_channels, k, k]
//
// With Valid padding the output spatial size is (in - 1) * stride + k, so a
// 2x2 kernel with stride 2 exactly doubles the resolution and a 2x2 kernel
// with stride 1 turns 1x1 into 2x2. Same padding crops to in * stride.
type ConvTranspose2D[B tensor.Backend] struct {
	cfg Conv2DConfig

	weight *Parameter[B]
	bias   *Parameter[B]

	backend B
}

// NewConvTranspose2D creates a transposed convolution with Glorot uniform
// weights and zero bias. Panics on an invalid configuration.
func NewConvTranspose2D[B tensor.Backend](cfg Conv2DConfig, backend B, rng *rand.Rand) *ConvTranspose2D[B] {
	if cfg.InChannels <= 0 || cfg.OutChannels <= 0 {
		panic(fmt.Sprintf("conv_transpose2d: invalid channels in=%d, out=%d", cfg.InChannels, cfg.OutChannels))
	}
	if cfg.KernelSize <= 0 || cfg.Stride <= 0 {
		panic(fmt.Sprintf("conv_transpose2d: invalid kernel size %d or stride %d", cfg.KernelSize, cfg.Stride))
	}
	if err := cfg.Layout.Validate(); err != nil {
		panic(fmt.Sprintf("conv_transpose2d: %v", err))
	}

	k := cfg.KernelSize
	fanIn := cfg.OutChannels * k * k
	fanOut := cfg.InChannels * k * k
	weight := GlorotUniform(fanIn, fanOut, tensor.Shape{cfg.InChannels, cfg.OutChannels, k, k}, backend, defaultRNG(rng))

	c := &ConvTranspose2D[B]{
		cfg:     cfg,
		weight:  NewParameter("kernel", weight),
		backend: backend,
	}
	if cfg.UseBias {
		c.bias = NewParameter("bias", Zeros(tensor.Shape{cfg.OutChannels}, backend))
	}
	return c
}

// OutputShape computes the output shape for a 4D input in the layer's layout.
func (c *ConvTranspose2D[B]) OutputShape(in tensor.Shape) (tensor.Shape, error) {
	if err := c.cfg.Layout.Check(in); err != nil {
		return nil, fmt.Errorf("conv_transpose2d: %w", err)
	}
	if ch := c.cfg.Layout.Channels(in); ch != c.cfg.InChannels {
		return nil, fmt.Errorf("conv_transpose2d: input channels %d != expected %d", ch, c.cfg.InChannels)
	}
	h, w := c.cfg.Layout.Spatial(in)
	p := c.cfg.Padding.transposePadding(c.cfg.KernelSize, c.cfg.Stride)
	outH := (h-1)*c.cfg.Stride + c.cfg.KernelSize - p.Top - p.Bottom
	outW := (w-1)*c.cfg.Stride + c.cfg.KernelSize - p.Left - p.Right
	if outH <= 0 || outW <= 0 {
		return nil, fmt.Errorf("conv_transpose2d: invalid output size %dx%d", outH, outW)
	}
	return c.cfg.Layout.Shape(in[0], c.cfg.OutChannels, outH, outW), nil
}

// Forward performs the transposed convolution.
func (c *ConvTranspose2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if _, err := c.OutputShape(input.Shape()); err != nil {
		panic(err.Error())
	}

	x := toNCHW(input, c.cfg.Layout)
	pad := c.cfg.Padding.transposePadding(c.cfg.KernelSize, c.cfg.Stride)

	out := tensor.New[float32, B](c.backend.ConvTranspose2D(x.Raw(), c.weight.Tensor().Raw(), c.cfg.Stride, pad), c.backend)
	if c.bias != nil {
		out = out.Add(c.bias.Tensor().Reshape(1, c.cfg.OutChannels, 1, 1))
	}
	return fromNCHW(out, c.cfg.Layout)
}

// Parameters returns the kernel and, if present, the bias.
func (c *ConvTranspose2D[B]) Parameters() []*Parameter[B] {
	if c.bias != nil {
		return []*Parameter[B]{c.weight, c.bias}
	}
	return []*Parameter[B]{c.weight}
}

// Weight returns the kernel parameter.
func (c *ConvTranspose2D[B]) Weight() *Parameter[B] {
	return c.weight
}

// Config returns the layer configuration.
func (c *ConvTranspose2D[B]) Config() Conv2DConfig {
	return c.cfg
}

// String returns a string representation of the layer.
func (c *ConvTranspose2D[B]) String() string {
	return fmt.Sprintf("ConvTranspose2D(in_channels=%d, out_channels=%d, kernel_size=%d, stride=%d, padding=%s, bias=%v)",
		c.cfg.InChannels, c.cfg.OutChannels, c.cfg.KernelSize, c.cfg.Stride, c.cfg.Padding, c.cfg.UseBias)
}
