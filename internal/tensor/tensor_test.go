package tensor

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubBackend satisfies Backend for creation tests that never dispatch ops.
type stubBackend struct{ Backend }

func (stubBackend) Device() Device { return CPU }

func TestShape_NumElements(t *testing.T) {
	assert.Equal(t, 1, Shape{}.NumElements())
	assert.Equal(t, 24, Shape{2, 3, 4}.NumElements())
}

func TestShape_Validate(t *testing.T) {
	require.NoError(t, Shape{1, 2}.Validate())
	assert.Error(t, Shape{1, 0}.Validate())
	assert.Error(t, Shape{-3}.Validate())
}

func TestShape_ComputeStrides(t *testing.T) {
	assert.Equal(t, []int{12, 4, 1}, Shape{2, 3, 4}.ComputeStrides())
	assert.Empty(t, Shape{}.ComputeStrides())
}

func TestShape_Permute(t *testing.T) {
	assert.Equal(t, Shape{2, 5, 7, 3}, Shape{2, 3, 5, 7}.Permute(0, 2, 3, 1))
	assert.Panics(t, func() { Shape{1, 2}.Permute(0) })
}

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		name      string
		a, b      Shape
		want      Shape
		broadcast bool
		wantErr   bool
	}{
		{"equal", Shape{3, 5}, Shape{3, 5}, Shape{3, 5}, false, false},
		{"column", Shape{3, 1}, Shape{3, 5}, Shape{3, 5}, true, false},
		{"bias", Shape{2, 4, 8, 8}, Shape{1, 4, 1, 1}, Shape{2, 4, 8, 8}, true, false},
		{"rank", Shape{5}, Shape{3, 5}, Shape{3, 5}, true, false},
		{"incompatible", Shape{3, 4}, Shape{3, 5}, nil, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, broadcast, err := BroadcastShapes(tt.a, tt.b)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.broadcast, broadcast)
		})
	}
}

func TestNormalizeDim(t *testing.T) {
	d, err := NormalizeDim(-1, 4)
	require.NoError(t, err)
	assert.Equal(t, 3, d)

	_, err = NormalizeDim(4, 4)
	assert.Error(t, err)
}

func TestRawTensor_WithShape(t *testing.T) {
	r, err := NewRaw(Shape{2, 6}, Float32, CPU)
	require.NoError(t, err)
	r.AsFloat32()[5] = 7

	v, err := r.WithShape(Shape{3, 4})
	require.NoError(t, err)
	assert.Equal(t, float32(7), v.AsFloat32()[5])
	assert.Equal(t, []int{4, 1}, v.Strides())

	_, err = r.WithShape(Shape{5})
	assert.Error(t, err)
}

func TestRawTensor_CloneIsDeep(t *testing.T) {
	r := MustNewRaw(Shape{4}, Float64, CPU)
	c := r.Clone()
	c.AsFloat64()[0] = 1
	assert.Equal(t, float64(0), r.AsFloat64()[0])
}

func TestRawTensor_WrongDType(t *testing.T) {
	r := MustNewRaw(Shape{4}, Float32, CPU)
	assert.Panics(t, func() { r.AsFloat64() })
}

func TestFromSlice(t *testing.T) {
	b := stubBackend{}
	x, err := FromSlice[float32](iota32(4), Shape{2, 2}, b)
	require.NoError(t, err)
	assert.Equal(t, float32(3), x.At(1, 1))

	x.Set(9, 0, 1)
	assert.Equal(t, []float32{0, 9, 2, 3}, x.Data())

	_, err = FromSlice[float32]([]float32{1, 2, 3}, Shape{2, 2}, b)
	assert.Error(t, err)
}

// iota32 returns 0..n-1.
func iota32(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(i)
	}
	return out
}

func TestRandn_Deterministic(t *testing.T) {
	b := stubBackend{}
	a := Randn[float32](Shape{3, 5}, b, rand.New(rand.NewSource(7)))
	c := Randn[float32](Shape{3, 5}, b, rand.New(rand.NewSource(7)))
	assert.Equal(t, a.Data(), c.Data())
}

func TestUniform_Range(t *testing.T) {
	x := Uniform[float64](Shape{1000}, -2, 3, stubBackend{}, rand.New(rand.NewSource(1)))
	lo, hi := x.MinMax()
	assert.GreaterOrEqual(t, lo, -2.0)
	assert.Less(t, hi, 3.0)
}

func TestOnesFull(t *testing.T) {
	b := stubBackend{}
	assert.Equal(t, []float64{1, 1, 1}, Ones[float64](Shape{3}, b).Data())
	assert.Equal(t, []float32{2.5, 2.5}, Full[float32](Shape{2}, 2.5, b).Data())
}

func TestParseLayout(t *testing.T) {
	for _, s := range []string{"th", "channels_first", "NCHW"} {
		l, err := ParseLayout(s)
		require.NoError(t, err, s)
		assert.Equal(t, ChannelsFirst, l)
	}
	for _, s := range []string{"tf", "channels_last", " nhwc "} {
		l, err := ParseLayout(s)
		require.NoError(t, err, s)
		assert.Equal(t, ChannelsLast, l)
	}

	_, err := ParseLayout("cf")
	assert.True(t, errors.Is(err, ErrUnsupportedLayout))
	assert.Contains(t, err.Error(), `"cf"`)
}

func TestLayout_Validate(t *testing.T) {
	require.NoError(t, ChannelsFirst.Validate())
	require.NoError(t, ChannelsLast.Validate())
	assert.ErrorIs(t, Layout(5).Validate(), ErrUnsupportedLayout)
}

func TestLayout_ShapeHelpers(t *testing.T) {
	cf := ChannelsFirst.Shape(2, 3, 16, 8)
	cl := ChannelsLast.Shape(2, 3, 16, 8)
	assert.Equal(t, Shape{2, 3, 16, 8}, cf)
	assert.Equal(t, Shape{2, 16, 8, 3}, cl)

	assert.Equal(t, 3, ChannelsFirst.Channels(cf))
	assert.Equal(t, 3, ChannelsLast.Channels(cl))

	h, w := ChannelsLast.Spatial(cl)
	assert.Equal(t, [2]int{16, 8}, [2]int{h, w})

	// Round trip through NCHW.
	assert.Equal(t, cf, cl.Permute(ChannelsLast.ToNCHW()...))
	assert.Equal(t, cl, cf.Permute(ChannelsLast.FromNCHW()...))
	assert.Nil(t, ChannelsFirst.ToNCHW())

	assert.Error(t, ChannelsFirst.Check(Shape{1, 2, 3}))
}

func TestShape_String(t *testing.T) {
	assert.Equal(t, "(1, 3, 512, 512)", Shape{1, 3, 512, 512}.String())
	assert.Equal(t, "()", Shape{}.String())
}
