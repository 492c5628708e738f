// Package nn implements the neural network layers used by the U-Net builder.
//
// Every layer is a Module: a Forward function over float32 tensors plus the
// parameters it owns. Image layers take a tensor.Layout and accept 4D inputs
// in that layout; kernels always run in NCHW.
//
// Layers start in evaluation mode. Layers whose behavior differs during
// training (BatchNorm2D, Dropout) implement Trainable.
package nn

import (
	"github.com/born-ml/unet/internal/tensor"
)

// Module is the base interface for all neural network components.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	// Panics if the input shape does not fit the module.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all parameters of this module, trainable or not.
	// Returns nil for modules without parameters.
	Parameters() []*Parameter[B]
}

// Shaped is implemented by modules that can compute their output shape
// without running Forward.
type Shaped interface {
	OutputShape(input tensor.Shape) (tensor.Shape, error)
}

// Trainable is implemented by modules with distinct training and evaluation
// behavior.
type Trainable interface {
	SetTraining(training bool)
	Training() bool
}

// SetTraining switches m, and anything it contains, between training and
// evaluation mode. Modules that are not Trainable are left alone.
func SetTraining[B tensor.Backend](m Module[B], training bool) {
	if t, ok := m.(Trainable); ok {
		t.SetTraining(training)
	}
}

// toNCHW converts a 4D tensor from layout into NCHW. NCHW inputs are returned as is.
func toNCHW[B tensor.Backend](x *tensor.Tensor[float32, B], layout tensor.Layout) *tensor.Tensor[float32, B] {
	if perm := layout.ToNCHW(); perm != nil {
		return x.Transpose(perm...)
	}
	return x
}

// fromNCHW converts a 4D NCHW tensor into layout.
func fromNCHW[B tensor.Backend](x *tensor.Tensor[float32, B], layout tensor.Layout) *tensor.Tensor[float32, B] {
	if perm := layout.FromNCHW(); perm != nil {
		return x.Transpose(perm...)
	}
	return x
}

// channelShape is the broadcast shape of a per-channel vector in layout.
func channelShape(layout tensor.Layout, channels int) tensor.Shape {
	return layout.Shape(1, channels, 1, 1)
}
