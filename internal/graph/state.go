package graph

import (
	"fmt"
	"strconv"

	"github.com/born-ml/unet/internal/nn"
	"github.com/born-ml/unet/internal/tensor"
)

// namedParameters returns the model parameters keyed "<node>/<parameter>".
// A parameter name repeated within one node gets a "_<n>" suffix.
func (m *Model[B]) namedParameters() ([]string, []*nn.Parameter[B]) {
	var keys []string
	var params []*nn.Parameter[B]
	for _, n := range m.order {
		if n.layer == nil {
			continue
		}
		seen := make(map[string]int)
		for _, p := range n.layer.Parameters() {
			key := n.name + "/" + p.Name()
			if c := seen[p.Name()]; c > 0 {
				key += "_" + strconv.Itoa(c)
			}
			seen[p.Name()]++
			keys = append(keys, key)
			params = append(params, p)
		}
	}
	return keys, params
}

// StateDict returns a copy of every parameter, trainable or not, keyed
// "<node>/<parameter>" (for example "enc1_conv/kernel").
func (m *Model[B]) StateDict() map[string]*tensor.RawTensor {
	keys, params := m.namedParameters()
	state := make(map[string]*tensor.RawTensor, len(keys))
	for i, key := range keys {
		state[key] = params[i].Tensor().Raw().Clone()
	}
	return state
}

// LoadStateDict copies state into the model's parameters. Every parameter
// must be present with a matching shape and dtype; extra keys are an error.
// Nothing is modified when an error is returned.
func (m *Model[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	keys, params := m.namedParameters()
	for i, key := range keys {
		raw, ok := state[key]
		if !ok {
			return fmt.Errorf("model %q: missing parameter %q", m.name, key)
		}
		dst := params[i].Tensor().Raw()
		if !raw.Shape().Equal(dst.Shape()) || raw.DType() != dst.DType() {
			return fmt.Errorf("model %q: %w: parameter %q is %s%v, want %s%v",
				m.name, ErrShapeMismatch, key, raw.DType(), raw.Shape(), dst.DType(), dst.Shape())
		}
	}
	if len(state) != len(keys) {
		return fmt.Errorf("model %q: state has %d entries, model has %d parameters", m.name, len(state), len(keys))
	}

	for i, key := range keys {
		copy(params[i].Tensor().Raw().Data(), state[key].Data())
	}
	return nil
}
