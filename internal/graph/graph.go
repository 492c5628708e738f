// Package graph composes nn modules into a static, functional layer graph.
//
// A Graph is built symbolically: Input creates a placeholder with a known
// shape, Apply binds a module to a node and computes the result shape
// without running anything, and Concat joins nodes along one axis. NewModel
// then binds an input node to an output node and returns an invocable Model.
//
//	g := graph.New[B]()
//	x := g.Input("input", tensor.Shape{1, 3, 512, 512})
//	h := g.Apply("conv1", nn.NewConv2D(cfg, backend, rng), x)
//	y := g.Concat("skip", 1, h, x)
//	model, err := graph.NewModel("net", x, y)
//
// The first build error is kept by the graph (see Err); once it is set,
// every later Input, Apply or Concat call returns nil.
package graph

import (
	"errors"
	"fmt"

	"github.com/born-ml/unet/internal/nn"
	"github.com/born-ml/unet/internal/tensor"
)

// Errors reported while building or running a graph.
var (
	ErrShapeMismatch = errors.New("shape mismatch")
	ErrDisconnected  = errors.New("output is not connected to input")
	ErrDuplicateName = errors.New("duplicate node name")
)

// Layer is a module that can report its output shape.
type Layer[B tensor.Backend] interface {
	nn.Module[B]
	nn.Shaped
}

// Kind is the operation a node performs.
type Kind int

// Node kinds.
const (
	KindInput Kind = iota
	KindLayer
	KindConcat
)

// String returns the Keras-style type name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInput:
		return "InputLayer"
	case KindConcat:
		return "Concatenate"
	default:
		return "Layer"
	}
}

// Node is a symbolic tensor in a graph: the output of an input placeholder,
// a layer or a concatenation.
type Node[B tensor.Backend] struct {
	graph  *Graph[B]
	name   string
	kind   Kind
	shape  tensor.Shape
	layer  Layer[B]
	axis   int
	inputs []*Node[B]
}

// Name returns the node name, unique within its graph.
func (n *Node[B]) Name() string { return n.name }

// Kind returns what the node computes.
func (n *Node[B]) Kind() Kind { return n.kind }

// Shape returns the static output shape.
func (n *Node[B]) Shape() tensor.Shape { return n.shape.Clone() }

// Layer returns the module applied by a KindLayer node, or nil.
func (n *Node[B]) Layer() Layer[B] { return n.layer }

// Axis returns the concatenation axis of a KindConcat node.
func (n *Node[B]) Axis() int { return n.axis }

// Inputs returns the nodes this node consumes.
func (n *Node[B]) Inputs() []*Node[B] {
	return append([]*Node[B](nil), n.inputs...)
}

// TypeName returns the layer type for summaries, e.g. "Conv2D".
func (n *Node[B]) TypeName() string {
	if n.kind == KindLayer {
		return typeName(n.layer)
	}
	return n.kind.String()
}

// NumParameters returns the number of scalar parameters owned by the node's layer.
func (n *Node[B]) NumParameters() int {
	if n.layer == nil {
		return 0
	}
	total := 0
	for _, p := range n.layer.Parameters() {
		total += p.NumElements()
	}
	return total
}

func (n *Node[B]) String() string {
	return fmt.Sprintf("%s(%s)%v", n.name, n.TypeName(), n.shape)
}

// Graph owns the nodes of a model under construction. It is not safe for
// concurrent use.
type Graph[B tensor.Backend] struct {
	nodes []*Node[B]
	names map[string]*Node[B]
	err   error
}

// New creates an empty graph.
func New[B tensor.Backend]() *Graph[B] {
	return &Graph[B]{names: make(map[string]*Node[B])}
}

// Err returns the first error recorded while building the graph.
func (g *Graph[B]) Err() error {
	return g.err
}

// Len returns the number of nodes in the graph.
func (g *Graph[B]) Len() int {
	return len(g.nodes)
}

// Node looks up a node by name.
func (g *Graph[B]) Node(name string) (*Node[B], bool) {
	n, ok := g.names[name]
	return n, ok
}

// Input creates a placeholder node with a fixed shape.
func (g *Graph[B]) Input(name string, shape tensor.Shape) *Node[B] {
	if g.err != nil {
		return nil
	}
	if err := shape.Validate(); err != nil {
		return g.fail(fmt.Errorf("input %q: %w", name, err))
	}
	return g.add(&Node[B]{name: name, kind: KindInput, shape: shape.Clone()})
}

// Apply binds layer to x and returns the layer's output node.
func (g *Graph[B]) Apply(name string, layer Layer[B], x *Node[B]) *Node[B] {
	if g.err != nil {
		return nil
	}
	if layer == nil {
		return g.fail(fmt.Errorf("layer %q: nil module", name))
	}
	if err := g.owns(name, x); err != nil {
		return g.fail(err)
	}
	shape, err := layer.OutputShape(x.shape)
	if err != nil {
		return g.fail(fmt.Errorf("layer %q: %w: %w", name, ErrShapeMismatch, err))
	}
	return g.add(&Node[B]{name: name, kind: KindLayer, shape: shape, layer: layer, inputs: []*Node[B]{x}})
}

// Concat joins xs along axis. All inputs must agree on every other axis.
func (g *Graph[B]) Concat(name string, axis int, xs ...*Node[B]) *Node[B] {
	if g.err != nil {
		return nil
	}
	if len(xs) == 0 {
		return g.fail(fmt.Errorf("concat %q: no inputs", name))
	}
	for _, x := range xs {
		if err := g.owns(name, x); err != nil {
			return g.fail(err)
		}
	}

	first := xs[0].shape
	dim, err := tensor.NormalizeDim(axis, len(first))
	if err != nil {
		return g.fail(fmt.Errorf("concat %q: %w", name, err))
	}
	shape := first.Clone()
	for _, x := range xs[1:] {
		if len(x.shape) != len(first) {
			return g.fail(fmt.Errorf("concat %q: %w: rank of %q is %d, want %d",
				name, ErrShapeMismatch, x.name, len(x.shape), len(first)))
		}
		for d := range first {
			if d != dim && x.shape[d] != first[d] {
				return g.fail(fmt.Errorf("concat %q: %w: %q%v vs %q%v on axis %d",
					name, ErrShapeMismatch, xs[0].name, first, x.name, x.shape, d))
			}
		}
		shape[dim] += x.shape[dim]
	}

	inputs := append([]*Node[B](nil), xs...)
	return g.add(&Node[B]{name: name, kind: KindConcat, shape: shape, axis: dim, inputs: inputs})
}

func (g *Graph[B]) owns(name string, x *Node[B]) error {
	if x == nil {
		return fmt.Errorf("node %q: nil input", name)
	}
	if x.graph != g {
		return fmt.Errorf("node %q: input %q belongs to another graph", name, x.name)
	}
	return nil
}

func (g *Graph[B]) add(n *Node[B]) *Node[B] {
	if _, ok := g.names[n.name]; ok {
		return g.fail(fmt.Errorf("%w: %q", ErrDuplicateName, n.name))
	}
	n.graph = g
	g.nodes = append(g.nodes, n)
	g.names[n.name] = n
	return n
}

func (g *Graph[B]) fail(err error) *Node[B] {
	if g.err == nil {
		g.err = err
	}
	return nil
}
