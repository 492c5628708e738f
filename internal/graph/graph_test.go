package graph

import (
	"bytes"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/born-ml/unet/internal/backend/cpu"
	"github.com/born-ml/unet/internal/nn"
	"github.com/born-ml/unet/internal/tensor"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Backend = *cpu.CPUBackend

func conv(backend Backend, in, out int) *nn.Conv2D[Backend] {
	return nn.NewConv2D(nn.Conv2DConfig{
		InChannels: in, OutChannels: out, KernelSize: 3, Stride: 1,
		Padding: nn.Same, UseBias: true,
	}, backend, rand.New(rand.NewSource(1)))
}

// skipNet is input -> conv -> concat(conv, input) -> leaky.
func skipNet(t *testing.T) (*Graph[Backend], *Model[Backend]) {
	t.Helper()
	backend := cpu.New()
	g := New[Backend]()
	x := g.Input("input", tensor.Shape{1, 2, 4, 4})
	h := g.Apply("conv", conv(backend, 2, 3), x)
	c := g.Concat("skip", 1, h, x)
	y := g.Apply("act", nn.NewLeakyReLU[Backend](0.2), c)
	require.NoError(t, g.Err())

	m, err := NewModel("skipnet", x, y)
	require.NoError(t, err)
	return g, m
}

func nodeNames(nodes []*Node[Backend]) []string {
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.Name()
	}
	return names
}

func TestGraph_ShapesAndOrder(t *testing.T) {
	g, m := skipNet(t)
	assert.Equal(t, 4, g.Len())

	want := []string{"input", "conv", "skip", "act"}
	if diff := cmp.Diff(want, nodeNames(m.Nodes())); diff != "" {
		t.Errorf("node order mismatch (-want +got):\n%s", diff)
	}

	skip, ok := m.Node("skip")
	require.True(t, ok)
	assert.Equal(t, KindConcat, skip.Kind())
	assert.Equal(t, tensor.Shape{1, 5, 4, 4}, skip.Shape())
	assert.Equal(t, []string{"conv", "input"}, nodeNames(skip.Inputs()))
	assert.Equal(t, tensor.Shape{1, 5, 4, 4}, m.OutputShape())
	assert.Equal(t, "Conv2D", m.order[1].TypeName())
	assert.Equal(t, "LeakyReLU", m.order[3].TypeName())
}

func TestGraph_StickyError(t *testing.T) {
	backend := cpu.New()
	g := New[Backend]()
	x := g.Input("input", tensor.Shape{1, 2, 4, 4})

	bad := g.Apply("conv", conv(backend, 3, 3), x)
	assert.Nil(t, bad)
	require.Error(t, g.Err())
	assert.True(t, errors.Is(g.Err(), ErrShapeMismatch))

	// Later calls are no-ops and keep the first error.
	first := g.Err()
	assert.Nil(t, g.Apply("conv2", conv(backend, 2, 3), x))
	assert.Nil(t, g.Input("other", tensor.Shape{1}))
	assert.Equal(t, first, g.Err())

	_, err := NewModel("broken", x, x)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestGraph_DuplicateName(t *testing.T) {
	g := New[Backend]()
	x := g.Input("x", tensor.Shape{1, 1, 2, 2})
	g.Apply("x", nn.NewTanh[Backend](), x)
	assert.ErrorIs(t, g.Err(), ErrDuplicateName)
}

func TestGraph_ConcatMismatch(t *testing.T) {
	g := New[Backend]()
	a := g.Input("a", tensor.Shape{1, 2, 4, 4})
	b := g.Input("b", tensor.Shape{1, 2, 2, 2})
	assert.Nil(t, g.Concat("ab", 1, a, b))
	assert.ErrorIs(t, g.Err(), ErrShapeMismatch)

	g = New[Backend]()
	a = g.Input("a", tensor.Shape{1, 2, 4, 4})
	c := g.Concat("last", -1, a, a)
	require.NoError(t, g.Err())
	assert.Equal(t, tensor.Shape{1, 2, 4, 8}, c.Shape())
	assert.Equal(t, 3, c.Axis())
}

func TestNewModel_Disconnected(t *testing.T) {
	g := New[Backend]()
	a := g.Input("a", tensor.Shape{1, 1, 2, 2})
	b := g.Input("b", tensor.Shape{1, 1, 2, 2})
	y := g.Apply("tanh", nn.NewTanh[Backend](), b)

	_, err := NewModel("m", a, y)
	assert.ErrorIs(t, err, ErrDisconnected)

	both := g.Concat("both", 1, a, b)
	_, err = NewModel("m", a, both)
	assert.ErrorIs(t, err, ErrDisconnected)

	_, err = NewModel("m", y, y)
	assert.Error(t, err, "output node is not an input")

	other := New[Backend]()
	z := other.Input("z", tensor.Shape{1})
	_, err = NewModel("m", a, z)
	assert.Error(t, err)
}

func TestModel_Forward(t *testing.T) {
	_, m := skipNet(t)
	backend := cpu.New()

	x := tensor.Randn[float32](tensor.Shape{1, 2, 4, 4}, backend, rand.New(rand.NewSource(3)))
	y, err := m.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 5, 4, 4}, y.Shape())

	// The skip channels are the input passed through the LeakyReLU.
	for c := 0; c < 2; c++ {
		for h := 0; h < 4; h++ {
			for w := 0; w < 4; w++ {
				v := x.At(0, c, h, w)
				want := v
				if v < 0 {
					want = 0.2 * v
				}
				assert.InDelta(t, want, y.At(0, 3+c, h, w), 1e-6)
			}
		}
	}

	again, err := m.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, y.Data(), again.Data())

	_, err = m.Forward(tensor.Zeros[float32](tensor.Shape{1, 2, 4, 5}, backend))
	assert.ErrorIs(t, err, ErrShapeMismatch)
	_, err = m.Forward(nil)
	assert.Error(t, err)
}

func TestModel_ConcurrentForward(t *testing.T) {
	_, m := skipNet(t)
	backend := cpu.New()

	inputs := make([]*tensor.Tensor[float32, Backend], 4)
	want := make([][]float32, len(inputs))
	for i := range inputs {
		inputs[i] = tensor.Randn[float32](tensor.Shape{1, 2, 4, 4}, backend, rand.New(rand.NewSource(int64(i))))
		y, err := m.Forward(inputs[i])
		require.NoError(t, err)
		want[i] = y.Data()
	}

	var wg sync.WaitGroup
	got := make([][]float32, len(inputs))
	for i := range inputs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			y, err := m.Forward(inputs[i])
			if err == nil {
				got[i] = y.Data()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, want, got)
}

func TestModel_ParametersAndSummary(t *testing.T) {
	_, m := skipNet(t)

	total, trainable := m.NumParameters()
	assert.Equal(t, 3*2*3*3+3, total)
	assert.Equal(t, total, trainable)
	assert.Len(t, m.Parameters(), 2)

	var buf bytes.Buffer
	require.NoError(t, m.Summary(&buf))
	out := buf.String()
	assert.Contains(t, out, `Model: "skipnet"`)
	assert.Contains(t, out, "conv (Conv2D)")
	assert.Contains(t, out, "skip (Concatenate)")
	assert.Contains(t, out, "input (InputLayer)")
	assert.Contains(t, out, "conv, input")
	assert.Contains(t, out, "Total params: 57")
	assert.Contains(t, out, "Non-trainable params: 0")
}

func TestModel_SetTraining(t *testing.T) {
	backend := cpu.New()
	g := New[Backend]()
	x := g.Input("input", tensor.Shape{2, 1, 2, 2})
	bn := nn.NewBatchNorm2D(1, tensor.ChannelsFirst, 0, 0, backend)
	y := g.Apply("bn", bn, x)
	m, err := NewModel("bn", x, y)
	require.NoError(t, err)

	m.SetTraining(true)
	assert.True(t, bn.Training())
	m.SetTraining(false)
	assert.False(t, bn.Training())

	total, trainable := m.NumParameters()
	assert.Equal(t, 4, total)
	assert.Equal(t, 2, trainable)
}

func TestModel_StateDict(t *testing.T) {
	_, src := skipNet(t)
	state := src.StateDict()

	var keys []string
	for k := range state {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"conv/kernel", "conv/bias"}, keys)

	// A second model with different weights takes over the first one's.
	backend := cpu.New()
	g := New[Backend]()
	x := g.Input("input", tensor.Shape{1, 2, 4, 4})
	h := g.Apply("conv", nn.NewConv2D(nn.Conv2DConfig{
		InChannels: 2, OutChannels: 3, KernelSize: 3, Stride: 1, Padding: nn.Same, UseBias: true,
	}, backend, rand.New(rand.NewSource(99))), x)
	c := g.Concat("skip", 1, h, x)
	y := g.Apply("act", nn.NewLeakyReLU[Backend](0.2), c)
	dst, err := NewModel("copy", x, y)
	require.NoError(t, err)

	in := tensor.Randn[float32](tensor.Shape{1, 2, 4, 4}, backend, rand.New(rand.NewSource(5)))
	want, err := src.Forward(in)
	require.NoError(t, err)
	before, err := dst.Forward(in)
	require.NoError(t, err)
	assert.NotEqual(t, want.Data(), before.Data())

	require.NoError(t, dst.LoadStateDict(state))
	got, err := dst.Forward(in)
	require.NoError(t, err)
	assert.Equal(t, want.Data(), got.Data())

	// The state dict is a copy.
	state["conv/bias"].AsFloat32()[0] = 42
	assert.NotEqual(t, float32(42), src.Parameters()[1].Tensor().Data()[0])
}

func TestModel_LoadStateDictErrors(t *testing.T) {
	_, m := skipNet(t)
	state := m.StateDict()
	kernel := m.Parameters()[0].Tensor().Clone()

	missing := map[string]*tensor.RawTensor{"conv/kernel": state["conv/kernel"]}
	assert.ErrorContains(t, m.LoadStateDict(missing), "missing parameter")

	wrong := map[string]*tensor.RawTensor{
		"conv/kernel": state["conv/bias"],
		"conv/bias":   state["conv/bias"],
	}
	assert.ErrorIs(t, m.LoadStateDict(wrong), ErrShapeMismatch)

	state["extra/bias"] = state["conv/bias"]
	assert.Error(t, m.LoadStateDict(state))

	assert.Equal(t, kernel.Data(), m.Parameters()[0].Tensor().Data(), "failed loads leave the model unchanged")
}
