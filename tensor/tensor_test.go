// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"testing"

	"github.com/born-ml/unet/backend/cpu"
	"github.com/born-ml/unet/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBackendInterface verifies that the CPU backend implements tensor.Backend.
func TestBackendInterface(_ *testing.T) {
	var _ tensor.Backend = (*cpu.Backend)(nil)
}

func TestRawTensorAPI(t *testing.T) {
	raw, err := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3}, raw.Shape())
	assert.Equal(t, tensor.Float32, raw.DType())
	assert.Len(t, raw.AsFloat32(), 6)
}

func TestTensorAPI(t *testing.T) {
	backend := cpu.New()
	x, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)

	y := x.Add(tensor.Ones[float32](tensor.Shape{2, 2}, backend))
	assert.Equal(t, []float32{2, 3, 4, 5}, y.Data())

	cat := tensor.Cat([]*tensor.Tensor[float32, *cpu.Backend]{x, y}, 1)
	assert.Equal(t, tensor.Shape{2, 4}, cat.Shape())
	assert.Equal(t, []float32{1, 2, 2, 3, 3, 4, 4, 5}, cat.Data())
}

func TestLayoutAPI(t *testing.T) {
	layout, err := tensor.ParseLayout("tf")
	require.NoError(t, err)
	assert.Equal(t, tensor.ChannelsLast, layout)
	assert.Equal(t, tensor.Shape{1, 512, 512, 3}, layout.Shape(1, 3, 512, 512))

	_, err = tensor.ParseLayout("xy")
	assert.ErrorIs(t, err, tensor.ErrUnsupportedLayout)
}
