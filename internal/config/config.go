// Package config loads U-Net builder settings from YAML or HCL files.
//
// A YAML file:
//
//	name: generator
//	in_channels: 3
//	out_channels: 1
//	filters: 64
//	binary: true
//	layout: tf
//
// The same settings in HCL:
//
//	name         = "generator"
//	in_channels  = 3
//	out_channels = 1
//	filters      = 64
//	binary       = true
//	layout       = "tf"
//
// HCL expressions may use the variables image_size and layouts:
//
//	filters = image_size / 8
//	layout  = layouts.channels_last
//
// Keys missing from a file keep their Default values.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/born-ml/unet/internal/tensor"
	"github.com/born-ml/unet/internal/unet"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned for a file extension other than
// .yaml, .yml or .hcl.
var ErrUnknownFormat = errors.New("unknown config format")

// File is the on-disk form of unet.Config.
type File struct {
	Name             string  `yaml:"name" hcl:"name,optional"`
	InChannels       int     `yaml:"in_channels" hcl:"in_channels,optional"`
	OutChannels      int     `yaml:"out_channels" hcl:"out_channels,optional"`
	Filters          int     `yaml:"filters" hcl:"filters,optional"`
	BatchSize        int     `yaml:"batch_size" hcl:"batch_size,optional"`
	Binary           bool    `yaml:"binary" hcl:"binary,optional"`
	RefinementBlocks int     `yaml:"refinement_blocks" hcl:"refinement_blocks,optional"`
	Layout           string  `yaml:"layout" hcl:"layout,optional"`
	DropoutRate      float32 `yaml:"dropout_rate" hcl:"dropout_rate,optional"`
	DropoutStages    int     `yaml:"dropout_stages" hcl:"dropout_stages,optional"`
	LeakySlope       float32 `yaml:"leaky_slope" hcl:"leaky_slope,optional"`
	Seed             int64   `yaml:"seed" hcl:"seed,optional"`
}

// Default returns the settings of unet.DefaultConfig.
func Default() File {
	d := unet.DefaultConfig()
	return File{
		Name:             d.Name,
		InChannels:       d.InChannels,
		OutChannels:      d.OutChannels,
		Filters:          d.Filters,
		BatchSize:        d.BatchSize,
		Binary:           d.Binary,
		RefinementBlocks: d.RefinementBlocks,
		Layout:           d.Layout.String(),
		DropoutRate:      d.DropoutRate,
		DropoutStages:    d.DropoutStages,
		LeakySlope:       d.LeakySlope,
		Seed:             d.Seed,
	}
}

// Load reads path, choosing the decoder from its extension, on top of Default.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	return Parse(data, path)
}

// Parse decodes data on top of Default. filename selects the format and is
// used in error messages.
func Parse(data []byte, filename string) (File, error) {
	f := Default()
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
			return File{}, fmt.Errorf("failed to decode YAML file %s: %w", filename, err)
		}
	case ".hcl":
		file, diags := hclparse.NewParser().ParseHCL(data, filename)
		if diags.HasErrors() {
			return File{}, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
		}
		if diags := gohcl.DecodeBody(file.Body, evalContext(), &f); diags.HasErrors() {
			return File{}, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
		}
	default:
		return File{}, fmt.Errorf("%w: %q", ErrUnknownFormat, filename)
	}
	return f, nil
}

// evalContext holds the variables HCL expressions may reference:
// image_size, and layouts.channels_first / layouts.channels_last.
func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"image_size": cty.NumberIntVal(unet.ImageSize),
			"layouts": cty.ObjectVal(map[string]cty.Value{
				"channels_first": cty.StringVal(tensor.ChannelsFirst.String()),
				"channels_last":  cty.StringVal(tensor.ChannelsLast.String()),
			}),
		},
	}
}

// UNet converts the file settings into a validated unet.Config.
func (f File) UNet() (unet.Config, error) {
	layout, err := tensor.ParseLayout(f.Layout)
	if err != nil {
		return unet.Config{}, err
	}
	cfg := unet.Config{
		Name:             f.Name,
		InChannels:       f.InChannels,
		OutChannels:      f.OutChannels,
		Filters:          f.Filters,
		BatchSize:        f.BatchSize,
		Binary:           f.Binary,
		RefinementBlocks: f.RefinementBlocks,
		Layout:           layout,
		DropoutRate:      f.DropoutRate,
		DropoutStages:    f.DropoutStages,
		LeakySlope:       f.LeakySlope,
		Seed:             f.Seed,
	}
	if err := cfg.Validate(); err != nil {
		return unet.Config{}, err
	}
	return cfg, nil
}

// Validate reports whether the settings produce a valid unet.Config.
func (f File) Validate() error {
	_, err := f.UNet()
	return err
}
