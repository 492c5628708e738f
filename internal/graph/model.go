package graph

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/born-ml/unet/internal/nn"
	"github.com/born-ml/unet/internal/tensor"
)

// Model is an invocable graph from one input node to one output node.
//
// A Model holds no per-call state: Forward keeps intermediate results in a
// map local to the call. In evaluation mode Forward is deterministic and
// may be called concurrently.
type Model[B tensor.Backend] struct {
	name   string
	input  *Node[B]
	output *Node[B]
	order  []*Node[B] // topological, input first, output last
	// release[i] lists the nodes whose values are dead once order[i] has
	// been computed.
	release [][]*Node[B]
}

// NewModel binds input to output. It fails if the graph recorded a build
// error, or if output does not depend on input alone.
func NewModel[B tensor.Backend](name string, input, output *Node[B]) (*Model[B], error) {
	if input == nil || output == nil {
		return nil, fmt.Errorf("model %q: nil input or output node", name)
	}
	if input.graph != output.graph {
		return nil, fmt.Errorf("model %q: input and output belong to different graphs", name)
	}
	if err := input.graph.Err(); err != nil {
		return nil, fmt.Errorf("model %q: %w", name, err)
	}
	if input.kind != KindInput {
		return nil, fmt.Errorf("model %q: %q is not an input node", name, input.name)
	}

	order := topoSort(output)
	reached := false
	for _, n := range order {
		if n.kind != KindInput {
			continue
		}
		if n != input {
			return nil, fmt.Errorf("model %q: %w: %q depends on input %q", name, ErrDisconnected, output.name, n.name)
		}
		reached = true
	}
	if !reached {
		return nil, fmt.Errorf("model %q: %w: %q does not depend on %q", name, ErrDisconnected, output.name, input.name)
	}

	pos := make(map[*Node[B]]int, len(order))
	for i, n := range order {
		pos[n] = i
	}
	lastUse := make([]int, len(order))
	for i, n := range order {
		lastUse[i] = i
		for _, in := range n.inputs {
			lastUse[pos[in]] = i
		}
	}
	release := make([][]*Node[B], len(order))
	for i, n := range order[:len(order)-1] {
		release[lastUse[i]] = append(release[lastUse[i]], n)
	}

	return &Model[B]{name: name, input: input, output: output, order: order, release: release}, nil
}

// topoSort returns the ancestors of out, and out itself, in dependency order.
// Ties follow construction order.
func topoSort[B tensor.Backend](out *Node[B]) []*Node[B] {
	var order []*Node[B]
	visited := make(map[*Node[B]]bool)
	var visit func(n *Node[B])
	visit = func(n *Node[B]) {
		if visited[n] {
			return
		}
		visited[n] = true
		for _, in := range n.inputs {
			visit(in)
		}
		order = append(order, n)
	}
	visit(out)
	return order
}

// Name returns the model name.
func (m *Model[B]) Name() string { return m.name }

// Input returns the input node.
func (m *Model[B]) Input() *Node[B] { return m.input }

// Output returns the output node.
func (m *Model[B]) Output() *Node[B] { return m.output }

// InputShape returns the shape Forward expects.
func (m *Model[B]) InputShape() tensor.Shape { return m.input.Shape() }

// OutputShape returns the shape Forward produces.
func (m *Model[B]) OutputShape() tensor.Shape { return m.output.Shape() }

// Nodes returns the model's nodes in evaluation order.
func (m *Model[B]) Nodes() []*Node[B] {
	return append([]*Node[B](nil), m.order...)
}

// Node looks up a node of the model by name.
func (m *Model[B]) Node(name string) (*Node[B], bool) {
	for _, n := range m.order {
		if n.name == name {
			return n, true
		}
	}
	return nil, false
}

// Parameters returns the parameters of every layer, in evaluation order.
func (m *Model[B]) Parameters() []*nn.Parameter[B] {
	var params []*nn.Parameter[B]
	for _, n := range m.order {
		if n.layer != nil {
			params = append(params, n.layer.Parameters()...)
		}
	}
	return params
}

// NumParameters returns the total and trainable scalar parameter counts.
func (m *Model[B]) NumParameters() (total, trainable int) {
	for _, p := range m.Parameters() {
		total += p.NumElements()
		if p.Trainable() {
			trainable += p.NumElements()
		}
	}
	return total, trainable
}

// SetTraining switches every layer between training and evaluation mode.
func (m *Model[B]) SetTraining(training bool) {
	for _, n := range m.order {
		if n.layer != nil {
			nn.SetTraining[B](n.layer, training)
		}
	}
}

// Forward evaluates the model on x, whose shape must equal InputShape.
// The batch size is fixed when the graph is built; inputs with any other
// batch size fail with ErrShapeMismatch.
func (m *Model[B]) Forward(x *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	if x == nil {
		return nil, fmt.Errorf("model %q: nil input", m.name)
	}
	if !x.Shape().Equal(m.input.shape) {
		return nil, fmt.Errorf("model %q: %w: input %v, want %v", m.name, ErrShapeMismatch, x.Shape(), m.input.shape)
	}

	values := make(map[*Node[B]]*tensor.Tensor[float32, B], len(m.order))
	for i, n := range m.order {
		switch n.kind {
		case KindInput:
			values[n] = x
		case KindLayer:
			values[n] = n.layer.Forward(values[n.inputs[0]])
		case KindConcat:
			parts := make([]*tensor.Tensor[float32, B], len(n.inputs))
			for j, in := range n.inputs {
				parts[j] = values[in]
			}
			values[n] = tensor.Cat(parts, n.axis)
		}
		for _, dead := range m.release[i] {
			delete(values, dead)
		}
	}
	return values[m.output], nil
}

// typeName returns the bare type name of v: "*nn.Conv2D[*cpu.CPUBackend]"
// becomes "Conv2D".
func typeName(v any) string {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := t.Name()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	return name
}
