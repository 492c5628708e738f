package unet_test

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/born-ml/unet/backend/cpu"
	"github.com/born-ml/unet/tensor"
	"github.com/born-ml/unet/unet"
)

func ExampleBuild() {
	cfg := unet.DefaultConfig()
	cfg.InChannels = 1
	cfg.OutChannels = 1
	cfg.Filters = 1
	cfg.Binary = true
	cfg.Layout = tensor.ChannelsLast

	model, err := unet.Build(cfg, cpu.New(), unet.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(model.InputShape(), "->", model.OutputShape())
	fmt.Println(model.Output().TypeName())
	// Output:
	// (1, 512, 512, 1) -> (1, 512, 512, 1)
	// Sigmoid
}

func ExampleBuild_unsupportedLayout() {
	cfg := unet.DefaultConfig()
	cfg.Layout = tensor.Layout(2)

	_, err := unet.Build(cfg, cpu.New())
	fmt.Println(err)
	// Output:
	// unet: unsupported dimension ordering: 2
}
