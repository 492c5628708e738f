// Package unet builds a U-Net style encoder/decoder for 512x512 image-to-image
// translation.
//
// The encoder halves the resolution eight times (512 -> 2) with strided 3x3
// convolutions, then a valid 2x2 convolution reaches a 1x1 bottleneck. The
// decoder mirrors it with transposed convolutions; after each of the first
// eight decoder stages the matching encoder output is concatenated along the
// channel axis. A final transposed convolution maps to the output channels
// at 512x512, followed by a sigmoid (binary output) or tanh.
//
//	cfg := unet.DefaultConfig()
//	cfg.Filters = 32
//	model, err := unet.Build(cfg, cpu.New())
//	out, err := model.Forward(x) // [1, 3, 512, 512] -> [1, 3, 512, 512]
package unet

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/born-ml/unet/internal/graph"
	"github.com/born-ml/unet/internal/nn"
	"github.com/born-ml/unet/internal/tensor"
)

var (
	encoderWidths = [EncoderStages]int{1, 2, 4, 8, 8, 8, 8, 8}
	decoderWidths = [DecoderStages]int{8, 8, 8, 8, 8, 4, 2, 1}
)

type options struct {
	logger *slog.Logger
	rng    *rand.Rand
}

// Option configures Build.
type Option func(*options)

// WithLogger sets the logger used for build diagnostics. A nil logger
// means slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithRand sets the random source for weights and dropout, overriding
// Config.Seed.
func WithRand(rng *rand.Rand) Option {
	return func(o *options) { o.rng = rng }
}

// Build validates cfg and constructs the U-Net graph on backend.
//
// An unsupported layout fails with tensor.ErrUnsupportedLayout before any
// layer is constructed; other bad arguments fail with ErrInvalidConfig.
func Build[B tensor.Backend](cfg Config, backend B, opts ...Option) (*graph.Model[B], error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("unet: %w", err)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(cfg.Seed))
	}

	o.logger.Info("building unet",
		"name", cfg.name(),
		"layout", cfg.Layout.String(),
		"channel_axis", cfg.Layout.ChannelAxis(),
		"input", cfg.InputShape().String(),
	)

	b := &builder[B]{
		cfg:     cfg,
		backend: backend,
		rng:     o.rng,
		log:     o.logger,
		g:       graph.New[B](),
	}
	input, output, err := b.build()
	if err != nil {
		return nil, fmt.Errorf("unet: %w", err)
	}

	model, err := graph.NewModel(cfg.name(), input, output)
	if err != nil {
		return nil, fmt.Errorf("unet: %w", err)
	}

	total, trainable := model.NumParameters()
	o.logger.Info("built unet",
		"name", model.Name(),
		"layers", len(model.Nodes()),
		"params", total,
		"trainable_params", trainable,
		"output", model.OutputShape().String(),
	)
	return model, nil
}

type builder[B tensor.Backend] struct {
	cfg     Config
	backend B
	rng     *rand.Rand
	log     *slog.Logger
	g       *graph.Graph[B]
}

func (b *builder[B]) build() (input, output *graph.Node[B], err error) {
	nf := b.cfg.Filters
	input = b.g.Input("input", b.cfg.InputShape())

	// skips[i] is the output of encoder stage i+1.
	skips := make([]*graph.Node[B], 0, EncoderStages)
	x := input
	for i, width := range encoderWidths {
		stage := fmt.Sprintf("enc%d", i+1)
		x = b.convBlock(stage, x, nf*width, 3, 2, nn.Same)
		x = b.refine(stage, x, nf*width)
		skips = append(skips, x)
		b.trace(stage, x)
	}

	// Bottleneck: 2x2 -> 1x1.
	x = b.convBlock("enc9", x, nf*8, 2, 1, nn.Valid)
	b.trace("enc9", x)

	for i, width := range decoderWidths {
		stage := fmt.Sprintf("dec%d", i+1)
		stride := 2
		if i == 0 {
			stride = 1 // 1x1 -> 2x2
		}
		x = b.deconv(stage+"_deconv", x, nf*width, stride)
		x = b.batchNorm(stage+"_bn", x)
		if i < b.cfg.DropoutStages {
			x = b.g.Apply(stage+"_dropout", nn.NewDropout[B](b.cfg.DropoutRate, b.rng), x)
		}
		x = b.g.Concat(stage+"_concat", b.cfg.Layout.ChannelAxis(), x, skips[EncoderStages-1-i])
		x = b.leaky(stage+"_act", x)
		x = b.refine(stage, x, nf*width)
		b.trace(stage, x)
	}

	x = b.deconv("dec9_deconv", x, b.cfg.OutChannels, 2)
	act, err := nn.NewActivation[B](b.cfg.outputActivation())
	if err != nil {
		return nil, nil, err
	}
	output = b.g.Apply("output", act, x)
	b.trace("output", output)
	return input, output, nil
}

// channels returns the channel count of x, or 0 for a node the graph
// refused to build.
func (b *builder[B]) channels(x *graph.Node[B]) int {
	if x == nil {
		return 0
	}
	return b.cfg.Layout.Channels(x.Shape())
}

func (b *builder[B]) conv(in, filters, kernel, stride int, padding nn.PaddingMode) *nn.Conv2D[B] {
	return nn.NewConv2D(nn.Conv2DConfig{
		InChannels:  in,
		OutChannels: filters,
		KernelSize:  kernel,
		Stride:      stride,
		Padding:     padding,
		UseBias:     true,
		Layout:      b.cfg.Layout,
	}, b.backend, b.rng)
}

// convBlock is conv -> batchnorm -> leaky relu, named <stage>_conv,
// <stage>_bn and <stage>_act.
func (b *builder[B]) convBlock(stage string, x *graph.Node[B], filters, kernel, stride int, padding nn.PaddingMode) *graph.Node[B] {
	in := b.channels(x)
	if in == 0 {
		return nil
	}
	x = b.g.Apply(stage+"_conv", b.conv(in, filters, kernel, stride, padding), x)
	x = b.batchNorm(stage+"_bn", x)
	return b.leaky(stage+"_act", x)
}

// refine appends RefinementBlocks shape-preserving blocks, each a single
// Sequential node named <stage>_refine<k>.
func (b *builder[B]) refine(stage string, x *graph.Node[B], filters int) *graph.Node[B] {
	for k := 1; k <= b.cfg.RefinementBlocks; k++ {
		in := b.channels(x)
		if in == 0 {
			return nil
		}
		block := nn.NewSequential[B](
			b.conv(in, filters, 3, 1, nn.Same),
			nn.NewBatchNorm2D(filters, b.cfg.Layout, nn.DefaultBatchNormEpsilon, nn.DefaultBatchNormMomentum, b.backend),
			nn.NewLeakyReLU[B](b.cfg.LeakySlope),
		)
		x = b.g.Apply(fmt.Sprintf("%s_refine%d", stage, k), block, x)
	}
	return x
}

func (b *builder[B]) deconv(name string, x *graph.Node[B], filters, stride int) *graph.Node[B] {
	in := b.channels(x)
	if in == 0 {
		return nil
	}
	layer := nn.NewConvTranspose2D(nn.Conv2DConfig{
		InChannels:  in,
		OutChannels: filters,
		KernelSize:  2,
		Stride:      stride,
		Padding:     nn.Valid,
		UseBias:     true,
		Layout:      b.cfg.Layout,
	}, b.backend, b.rng)
	return b.g.Apply(name, layer, x)
}

func (b *builder[B]) batchNorm(name string, x *graph.Node[B]) *graph.Node[B] {
	in := b.channels(x)
	if in == 0 {
		return nil
	}
	bn := nn.NewBatchNorm2D(in, b.cfg.Layout, nn.DefaultBatchNormEpsilon, nn.DefaultBatchNormMomentum, b.backend)
	return b.g.Apply(name, bn, x)
}

func (b *builder[B]) leaky(name string, x *graph.Node[B]) *graph.Node[B] {
	return b.g.Apply(name, nn.NewLeakyReLU[B](b.cfg.LeakySlope), x)
}

func (b *builder[B]) trace(stage string, x *graph.Node[B]) {
	if x == nil {
		return
	}
	b.log.Debug("stage", "name", stage, "shape", x.Shape().String())
}
