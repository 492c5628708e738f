package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"github.com/born-ml/unet/internal/backend/cpu"
	"github.com/born-ml/unet/internal/graph"
	"github.com/born-ml/unet/internal/parallel"
	"github.com/born-ml/unet/internal/tensor"
	"github.com/born-ml/unet/internal/unet"
)

// App runs one command. Results go to outW, logs to logW.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	backend *cpu.CPUBackend
}

// New creates an App with its own logger and CPU backend.
func New(outW, logW io.Writer, cfg *Config) *App {
	par := parallel.DefaultConfig()
	if cfg.Workers > 0 {
		par.NumWorkers = cfg.Workers
		par.Enabled = cfg.Workers > 1
	}
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured.", "level", cfg.LogLevel, "format", cfg.LogFormat)

	return &App{
		outW:    outW,
		logger:  logger,
		backend: cpu.NewWithConfig(par),
	}
}

// Run executes cfg.Command.
func (a *App) Run(ctx context.Context, cfg *Config) error {
	switch cfg.Command {
	case CommandVersion:
		_, err := fmt.Fprintf(a.outW, "unet %s\n", Version)
		return err
	case CommandSummary:
		model, err := a.build(ctx, cfg.UNet)
		if err != nil {
			return err
		}
		return model.Summary(a.outW)
	case CommandForward:
		model, err := a.build(ctx, cfg.UNet)
		if err != nil {
			return err
		}
		return a.forward(ctx, model, cfg.UNet.Seed)
	default:
		return fmt.Errorf("unknown command %q", cfg.Command)
	}
}

func (a *App) build(ctx context.Context, cfg unet.Config) (*graph.Model[*cpu.CPUBackend], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	model, err := unet.Build(cfg, a.backend, unet.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}
	a.logger.Debug("Model built.", "elapsed", time.Since(start))
	return model, nil
}

// forward runs one evaluation-mode pass over a standard-normal batch.
func (a *App) forward(ctx context.Context, model *graph.Model[*cpu.CPUBackend], seed int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	x := tensor.Randn[float32](model.InputShape(), a.backend, rand.New(rand.NewSource(seed)))

	start := time.Now()
	y, err := model.Forward(x)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)
	a.logger.Info("Forward pass finished.", "elapsed", elapsed)

	lo, hi := y.MinMax()
	_, err = fmt.Fprintf(a.outW, "input:  %v\noutput: %v\nrange:  [%.6f, %.6f]\n", x.Shape(), y.Shape(), lo, hi)
	return err
}
