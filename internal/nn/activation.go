package nn

import (
	"fmt"
	"strings"

	"github.com/born-ml/unet/internal/tensor"
)

// SigmoidBackend is an interface for backends that support Sigmoid activation.
type SigmoidBackend interface {
	Sigmoid(*tensor.RawTensor) *tensor.RawTensor
}

// TanhBackend is an interface for backends that support Tanh activation.
type TanhBackend interface {
	Tanh(*tensor.RawTensor) *tensor.RawTensor
}

// LeakyReLUBackend is an interface for backends that support LeakyReLU activation.
type LeakyReLUBackend interface {
	LeakyReLU(x *tensor.RawTensor, slope float64) *tensor.RawTensor
}

// DefaultLeakySlope is the negative slope used throughout the U-Net.
const DefaultLeakySlope = 0.2

// elementwise is embedded by activations: they preserve the input shape and
// own no parameters.
type elementwise[B tensor.Backend] struct{}

// OutputShape returns the input shape.
func (elementwise[B]) OutputShape(in tensor.Shape) (tensor.Shape, error) {
	return in.Clone(), nil
}

// Parameters returns nil: activations have no parameters.
func (elementwise[B]) Parameters() []*Parameter[B] {
	return nil
}

// LeakyReLU passes positive values unchanged and scales negative values by a
// fixed slope: f(x) = slope*x for x < 0, x otherwise.
//
// Example:
//
//	act := nn.NewLeakyReLU[B](0.2)
//	output := act.Forward(input) // -1 -> -0.2, 3 -> 3
type LeakyReLU[B tensor.Backend] struct {
	elementwise[B]
	slope float32
}

// NewLeakyReLU creates a LeakyReLU with the given negative slope.
func NewLeakyReLU[B tensor.Backend](slope float32) *LeakyReLU[B] {
	return &LeakyReLU[B]{slope: slope}
}

// Slope returns the negative slope.
func (l *LeakyReLU[B]) Slope() float32 {
	return l.slope
}

// Forward applies the activation.
func (l *LeakyReLU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	if lb, ok := any(backend).(LeakyReLUBackend); ok {
		return tensor.New[float32, B](lb.LeakyReLU(input.Raw(), float64(l.slope)), backend)
	}
	panic("LeakyReLU: backend must implement LeakyReLU operation")
}

// String returns a string representation of the layer.
func (l *LeakyReLU[B]) String() string {
	return fmt.Sprintf("LeakyReLU(slope=%g)", l.slope)
}

// Sigmoid squashes values into (0, 1): σ(x) = 1 / (1 + exp(-x)).
type Sigmoid[B tensor.Backend] struct {
	elementwise[B]
}

// NewSigmoid creates a new Sigmoid activation module.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return &Sigmoid[B]{}
}

// Forward applies the activation.
func (s *Sigmoid[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	if sb, ok := any(backend).(SigmoidBackend); ok {
		return tensor.New[float32, B](sb.Sigmoid(input.Raw()), backend)
	}
	panic("Sigmoid: backend must implement Sigmoid operation")
}

// String returns a string representation of the layer.
func (s *Sigmoid[B]) String() string { return "Sigmoid()" }

// Tanh squashes values into (-1, 1).
type Tanh[B tensor.Backend] struct {
	elementwise[B]
}

// NewTanh creates a new Tanh activation module.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return &Tanh[B]{}
}

// Forward applies the activation.
func (t *Tanh[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	if tb, ok := any(backend).(TanhBackend); ok {
		return tensor.New[float32, B](tb.Tanh(input.Raw()), backend)
	}
	panic("Tanh: backend must implement Tanh operation")
}

// String returns a string representation of the layer.
func (t *Tanh[B]) String() string { return "Tanh()" }

// Linear is the identity activation.
type Linear[B tensor.Backend] struct {
	elementwise[B]
}

// Forward returns the input.
func (Linear[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input
}

// String returns a string representation of the layer.
func (Linear[B]) String() string { return "Linear()" }

// Activation is an activation module that can also report its output shape.
type Activation[B tensor.Backend] interface {
	Module[B]
	Shaped
}

// NewActivation returns an activation by name: "sigmoid", "tanh",
// "leaky_relu" (slope DefaultLeakySlope) or "linear".
func NewActivation[B tensor.Backend](name string) (Activation[B], error) {
	switch strings.ToLower(name) {
	case "sigmoid":
		return NewSigmoid[B](), nil
	case "tanh":
		return NewTanh[B](), nil
	case "leaky_relu", "leakyrelu":
		return NewLeakyReLU[B](DefaultLeakySlope), nil
	case "linear", "":
		return Linear[B]{}, nil
	default:
		return nil, fmt.Errorf("unknown activation %q", name)
	}
}
