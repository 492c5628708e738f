package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/unet/internal/tensor"
)

// Conv2DConfig describes a 2D convolution.
type Conv2DConfig struct {
	InChannels  int
	OutChannels int
	KernelSize  int // square kernel
	Stride      int
	Padding     PaddingMode
	UseBias     bool
	Layout      tensor.Layout
}

// Conv2D is a 2D convolutional layer.
//
// Performs: output = Conv2D(input, weight) + bias
//
// Weight shape: [out_channels, in_channels, k, k]
// Bias shape:   [out_channels]
//
// With Valid padding the output spatial size is (in - k) / stride + 1;
// with Same padding it is ceil(in / stride).
//
// Example:
//
//	// 3 -> 64 channels, 3x3 kernel, halving resolution
//	conv := nn.NewConv2D(nn.Conv2DConfig{
//	    InChannels: 3, OutChannels: 64, KernelSize: 3, Stride: 2,
//	    Padding: nn.Same, UseBias: true,
//	}, backend, rng)
//	output := conv.Forward(input) // [N, 3, 512, 512] -> [N, 64, 256, 256]
type Conv2D[B tensor.Backend] struct {
	cfg Conv2DConfig

	weight *Parameter[B] // [out_channels, in_channels, k, k]
	bias   *Parameter[B] // [out_channels] or nil

	backend B
}

// NewConv2D creates a new 2D convolutional layer with Glorot uniform weights
// and zero bias. Panics on an invalid configuration.
func NewConv2D[B tensor.Backend](cfg Conv2DConfig, backend B, rng *rand.Rand) *Conv2D[B] {
	if cfg.InChannels <= 0 || cfg.OutChannels <= 0 {
		panic(fmt.Sprintf("conv2d: invalid channels in=%d, out=%d", cfg.InChannels, cfg.OutChannels))
	}
	if cfg.KernelSize <= 0 {
		panic(fmt.Sprintf("conv2d: invalid kernel size %d", cfg.KernelSize))
	}
	if cfg.Stride <= 0 {
		panic(fmt.Sprintf("conv2d: invalid stride %d", cfg.Stride))
	}
	if err := cfg.Layout.Validate(); err != nil {
		panic(fmt.Sprintf("conv2d: %v", err))
	}

	k := cfg.KernelSize
	fanIn := cfg.InChannels * k * k
	fanOut := cfg.OutChannels * k * k
	weight := GlorotUniform(fanIn, fanOut, tensor.Shape{cfg.OutChannels, cfg.InChannels, k, k}, backend, defaultRNG(rng))

	c := &Conv2D[B]{
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
func (c *Conv2D[B]) OutputShape(in tensor.Shape) (tensor.Shape, error) {
	if err := c.cfg.Layout.Check(in); err != nil {
		return nil, fmt.Errorf("conv2d: %w", err)
	}
	if ch := c.cfg.Layout.Channels(in); ch != c.cfg.InChannels {
		return nil, fmt.Errorf("conv2d: input channels %d != expected %d", ch, c.cfg.InChannels)
	}
	h, w := c.cfg.Layout.Spatial(in)
	outH, outW := c.outputSize(h, w)
	if outH <= 0 || outW <= 0 {
		return nil, fmt.Errorf("conv2d: %dx%d input too small for %dx%d kernel", h, w, c.cfg.KernelSize, c.cfg.KernelSize)
	}
	return c.cfg.Layout.Shape(in[0], c.cfg.OutChannels, outH, outW), nil
}

func (c *Conv2D[B]) outputSize(h, w int) (outH, outW int) {
	p := c.cfg.Padding.convPadding(h, w, c.cfg.KernelSize, c.cfg.Stride)
	outH = (h+p.Top+p.Bottom-c.cfg.KernelSize)/c.cfg.Stride + 1
	outW = (w+p.Left+p.Right-c.cfg.KernelSize)/c.cfg.Stride + 1
	return outH, outW
}

// Forward performs the convolution.
func (c *Conv2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if _, err := c.OutputShape(input.Shape()); err != nil {
		panic(err.Error())
	}

	x := toNCHW(input, c.cfg.Layout)
	h, w := x.Shape()[2], x.Shape()[3]
	pad := c.cfg.Padding.convPadding(h, w, c.cfg.KernelSize, c.cfg.Stride)

	out := tensor.New[float32, B](c.backend.Conv2D(x.Raw(), c.weight.Tensor().Raw(), c.cfg.Stride, pad), c.backend)
	if c.bias != nil {
		out = out.Add(c.bias.Tensor().Reshape(1, c.cfg.OutChannels, 1, 1))
	}
	return fromNCHW(out, c.cfg.Layout)
}

// Parameters returns the kernel and, if present, the bias.
func (c *Conv2D[B]) Parameters() []*Parameter[B] {
	if c.bias != nil {
		return []*Parameter[B]{c.weight, c.bias}
	}
	return []*Parameter[B]{c.weight}
}

// Weight returns the kernel parameter.
func (c *Conv2D[B]) Weight() *Parameter[B] {
	return c.weight
}

// Config returns the layer configuration.
func (c *Conv2D[B]) Config() Conv2DConfig {
	return c.cfg
}

// String returns a string representation of the layer.
func (c *Conv2D[B]) String() string {
	return fmt.Sprintf("Conv2D(in_channels=%d, out_channels=%d, kernel_size=%d, stride=%d, padding=%s, bias=%v)",
		c.cfg.InChannels, c.cfg.OutChannels, c.cfg.KernelSize, c.cfg.Stride, c.cfg.Padding, c.cfg.UseBias)
}
