package nn

import (
	"github.com/born-ml/unet/internal/tensor"
)

// Parameter is a named tensor owned by a layer.
//
// Trainable parameters are learned (weights, biases, normalization scale and
// shift). Non-trainable parameters are state updated outside of gradient
// descent, such as BatchNorm moving statistics.
type Parameter[B tensor.Backend] struct {
	name      string
	tensor    *tensor.Tensor[float32, B]
	trainable bool
}

// NewParameter creates a new trainable parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{name: name, tensor: t, trainable: true}
}

// NewState creates a non-trainable parameter.
func NewState[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{name: name, tensor: t}
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}

// Trainable reports whether the parameter is learned.
func (p *Parameter[B]) Trainable() bool {
	return p.trainable
}

// NumElements returns the number of scalars in the parameter.
func (p *Parameter[B]) NumElements() int {
	return p.tensor.NumElements()
}
