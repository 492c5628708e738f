package nn

import (
	"fmt"
	"strings"

	"github.com/born-ml/unet/internal/tensor"
)

// Sequential is a container module that chains modules together.
//
// Each module's output becomes the next module's input:
//
//	block := nn.NewSequential[B](
//	    nn.NewConv2D(cfg, backend, rng),
//	    nn.NewBatchNorm2D[B](cfg.OutChannels, cfg.Layout, 0, 0, backend),
//	    nn.NewLeakyReLU[B](0.2),
//	)
//	output := block.Forward(input)
type Sequential[B tensor.Backend] struct {
	modules []Module[B]
}

// NewSequential creates a new Sequential container.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return &Sequential[B]{modules: modules}
}

// Forward applies all modules in order.
func (s *Sequential[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	output := input
	for _, module := range s.modules {
		output = module.Forward(output)
	}
	return output
}

// OutputShape chains the output shapes of the contained modules.
// Every module must implement Shaped.
func (s *Sequential[B]) OutputShape(in tensor.Shape) (tensor.Shape, error) {
	shape := in
	for i, module := range s.modules {
		shaped, ok := module.(Shaped)
		if !ok {
			return nil, fmt.Errorf("sequential: module %d (%T) cannot report its output shape", i, module)
		}
		var err error
		if shape, err = shaped.OutputShape(shape); err != nil {
			return nil, fmt.Errorf("sequential: module %d: %w", i, err)
		}
	}
	return shape, nil
}

// Parameters returns the parameters of all modules in order.
func (s *Sequential[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, module := range s.modules {
		params = append(params, module.Parameters()...)
	}
	return params
}

// SetTraining propagates the mode to every contained module.
func (s *Sequential[B]) SetTraining(training bool) {
	for _, module := range s.modules {
		SetTraining(module, training)
	}
}

// Training reports whether any contained module is in training mode.
func (s *Sequential[B]) Training() bool {
	for _, module := range s.modules {
		if t, ok := module.(Trainable); ok && t.Training() {
			return true
		}
	}
	return false
}

// Add appends a module to the sequence.
func (s *Sequential[B]) Add(module Module[B]) {
	s.modules = append(s.modules, module)
}

// Len returns the number of modules in the sequence.
func (s *Sequential[B]) Len() int {
	return len(s.modules)
}

// Module returns the module at the given index.
//
// Panics if index is out of bounds.
func (s *Sequential[B]) Module(index int) Module[B] {
	if index < 0 || index >= len(s.modules) {
		panic("Sequential.Module: index out of bounds")
	}
	return s.modules[index]
}

// String lists the contained modules.
func (s *Sequential[B]) String() string {
	parts := make([]string, len(s.modules))
	for i, m := range s.modules {
		parts[i] = fmt.Sprint(m)
	}
	return "Sequential(" + strings.Join(parts, ", ") + ")"
}
