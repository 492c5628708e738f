package unet

import (
	"errors"
	"fmt"

	"github.com/born-ml/unet/internal/nn"
	"github.com/born-ml/unet/internal/tensor"
)

// ImageSize is the fixed spatial resolution of the network input and output.
const ImageSize = 512

// Number of strided encoder stages between ImageSize and the 2x2 bottleneck
// input, and the number of decoder stages that concatenate a skip tensor.
const (
	EncoderStages = 8
	DecoderStages = 8
)

// ErrInvalidConfig is returned for out-of-range builder arguments.
var ErrInvalidConfig = errors.New("invalid unet config")

// Config holds the builder arguments.
type Config struct {
	// Name of the returned model.
	Name string

	InChannels  int
	OutChannels int
	// Filters is the base width nf; stage widths are multiples of it.
	Filters   int
	BatchSize int
	// Binary selects a sigmoid output in [0, 1]; otherwise tanh in [-1, 1].
	Binary bool
	// RefinementBlocks is the number of shape-preserving
	// conv/batchnorm/leaky-relu blocks after each encoder and decoder stage.
	RefinementBlocks int

	Layout tensor.Layout

	DropoutRate float32
	// DropoutStages is how many decoder stages, counted from the
	// bottleneck, apply dropout. DefaultConfig uses 3 (decoder stages
	// 1..3, as in the pix2pix generator); set 2 to regularize only the
	// first two stages.
	DropoutStages int
	LeakySlope    float32

	// Seed drives weight initialization and dropout masks.
	Seed int64
}

// DefaultConfig returns the pix2pix-style defaults: 3 -> 3 channels,
// nf = 64, batch 1, tanh output, channels-first.
func DefaultConfig() Config {
	return Config{
		Name:          "unet",
		InChannels:    3,
		OutChannels:   3,
		Filters:       64,
		BatchSize:     1,
		Layout:        tensor.ChannelsFirst,
		DropoutRate:   0.5,
		DropoutStages: 3,
		LeakySlope:    nn.DefaultLeakySlope,
	}
}

// outputActivation names the final activation: sigmoid for binary output,
// tanh otherwise.
func (c Config) outputActivation() string {
	if c.Binary {
		return "sigmoid"
	}
	return "tanh"
}

// Validate checks the layout first, then the numeric arguments.
func (c Config) Validate() error {
	if err := c.Layout.Validate(); err != nil {
		return err
	}

	switch {
	case c.InChannels <= 0:
		return fmt.Errorf("%w: in_channels must be positive, got %d", ErrInvalidConfig, c.InChannels)
	case c.OutChannels <= 0:
		return fmt.Errorf("%w: out_channels must be positive, got %d", ErrInvalidConfig, c.OutChannels)
	case c.Filters <= 0:
		return fmt.Errorf("%w: filters must be positive, got %d", ErrInvalidConfig, c.Filters)
	case c.BatchSize <= 0:
		return fmt.Errorf("%w: batch_size must be positive, got %d", ErrInvalidConfig, c.BatchSize)
	case c.RefinementBlocks < 0:
		return fmt.Errorf("%w: refinement_blocks must not be negative, got %d", ErrInvalidConfig, c.RefinementBlocks)
	case c.DropoutRate < 0 || c.DropoutRate >= 1:
		return fmt.Errorf("%w: dropout_rate must be in [0, 1), got %g", ErrInvalidConfig, c.DropoutRate)
	case c.DropoutStages < 0 || c.DropoutStages > DecoderStages:
		return fmt.Errorf("%w: dropout_stages must be in [0, %d], got %d", ErrInvalidConfig, DecoderStages, c.DropoutStages)
	case c.LeakySlope < 0:
		return fmt.Errorf("%w: leaky_slope must not be negative, got %g", ErrInvalidConfig, c.LeakySlope)
	}
	return nil
}

// name returns the model name, defaulting to "unet".
func (c Config) name() string {
	if c.Name == "" {
		return "unet"
	}
	return c.Name
}

// InputShape is the shape the built model accepts.
func (c Config) InputShape() tensor.Shape {
	return c.Layout.Shape(c.BatchSize, c.InChannels, ImageSize, ImageSize)
}

// OutputShape is the shape the built model produces.
func (c Config) OutputShape() tensor.Shape {
	return c.Layout.Shape(c.BatchSize, c.OutChannels, ImageSize, ImageSize)
}
