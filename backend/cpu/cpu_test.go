package cpu_test

import (
	"math/rand"
	"testing"

	"github.com/born-ml/unet/backend/cpu"
	"github.com/born-ml/unet/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWorkers_MatchesDefault(t *testing.T) {
	x := tensor.Randn[float32](tensor.Shape{1, 2, 9, 9}, cpu.New(), rand.New(rand.NewSource(1)))
	k := tensor.Randn[float32](tensor.Shape{4, 2, 3, 3}, cpu.New(), rand.New(rand.NewSource(2)))

	want := cpu.New().Conv2D(x.Raw(), k.Raw(), 2, tensor.Padding{Bottom: 1, Right: 1})
	for _, workers := range []int{0, 1, 3} {
		got := cpu.NewWithWorkers(workers).Conv2D(x.Raw(), k.Raw(), 2, tensor.Padding{Bottom: 1, Right: 1})
		require.Equal(t, want.Shape(), got.Shape())
		assert.Equal(t, want.AsFloat32(), got.AsFloat32(), "workers=%d", workers)
	}
	assert.Equal(t, "CPU", cpu.New().Name())
}
