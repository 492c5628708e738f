package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/born-ml/unet/internal/tensor"
	"github.com/born-ml/unet/internal/unet"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func wantGenerator() File {
	want := Default()
	want.Name = "generator"
	want.OutChannels = 1
	want.Filters = 32
	want.Binary = true
	want.Layout = "tf"
	want.RefinementBlocks = 2
	want.DropoutRate = 0.25
	want.Seed = 99
	return want
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "unet.yaml", `
name: generator
out_channels: 1
filters: 32
binary: true
layout: tf
refinement_blocks: 2
dropout_rate: 0.25
seed: 99
`)
	got, err := Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(wantGenerator(), got); diff != "" {
		t.Errorf("YAML config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_HCL(t *testing.T) {
	path := writeFile(t, "unet.hcl", `
name              = "generator"
out_channels      = 1
filters           = 32
binary            = true
layout            = "tf"
refinement_blocks = 2
dropout_rate      = 0.25
seed              = 99
`)
	got, err := Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(wantGenerator(), got); diff != "" {
		t.Errorf("HCL config mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_EmptyKeepsDefaults(t *testing.T) {
	for _, name := range []string{"empty.yml", "empty.hcl"} {
		got, err := Parse(nil, name)
		require.NoError(t, err, name)
		assert.Equal(t, Default(), got, name)
	}
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("filterz: 3\n"), "typo.yaml")
	assert.Error(t, err, "unknown YAML keys are rejected")

	_, err = Parse([]byte("filterz = 3\n"), "typo.hcl")
	assert.Error(t, err, "unknown HCL attributes are rejected")

	_, err = Parse([]byte("filters = \n"), "broken.hcl")
	assert.Error(t, err)

	_, err = Parse([]byte("filters: [1\n"), "broken.yaml")
	assert.Error(t, err)

	_, err = Parse([]byte("{}"), "unet.json")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFile_UNet(t *testing.T) {
	cfg, err := wantGenerator().UNet()
	require.NoError(t, err)

	want := unet.DefaultConfig()
	want.Name = "generator"
	want.OutChannels = 1
	want.Filters = 32
	want.Binary = true
	want.Layout = tensor.ChannelsLast
	want.RefinementBlocks = 2
	want.DropoutRate = 0.25
	want.Seed = 99
	assert.Equal(t, want, cfg)

	roundTrip, err := Default().UNet()
	require.NoError(t, err)
	assert.Equal(t, unet.DefaultConfig(), roundTrip)
}

func TestFile_Validate(t *testing.T) {
	f := Default()
	f.Layout = "nchwd"
	assert.ErrorIs(t, f.Validate(), tensor.ErrUnsupportedLayout)

	f = Default()
	f.Filters = 0
	assert.ErrorIs(t, f.Validate(), unet.ErrInvalidConfig)

	assert.NoError(t, Default().Validate())
}

func TestParse_HCLVariables(t *testing.T) {
	got, err := Parse([]byte("filters = image_size / 16\nlayout = layouts.channels_last\n"), "vars.hcl")
	require.NoError(t, err)
	assert.Equal(t, 32, got.Filters)
	assert.Equal(t, "channels_last", got.Layout)

	_, err = Parse([]byte("filters = undefined_var\n"), "vars.hcl")
	assert.Error(t, err)
}
