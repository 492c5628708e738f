// Package cli turns command-line arguments into an app.Config.
package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/born-ml/unet/internal/app"
	"github.com/born-ml/unet/internal/config"
)

// ExitError is an error that carries the process exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// Parse processes command-line arguments. It returns the app configuration,
// whether the program should exit cleanly without running (help), or an
// *ExitError for usage mistakes.
//
// Settings are layered: defaults, then the -config file, then any flag that
// was set explicitly.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("unet", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, `
unet - build a 512x512 U-Net generator and inspect it.

Usage:
  unet [options] [COMMAND]

Commands:
  summary   Print the layer table and parameter counts (default).
  forward   Run one random batch through the network in evaluation mode.
  version   Print the version.

Options:
`)
		flagSet.PrintDefaults()
	}

	d := config.Default()
	configFlag := flagSet.String("config", "", "Path to a .yaml, .yml or .hcl config file.")
	nameFlag := flagSet.String("name", d.Name, "Model name.")
	layoutFlag := flagSet.String("layout", d.Layout, "Dimension ordering: 'th'/'channels_first' or 'tf'/'channels_last'.")
	inFlag := flagSet.Int("in", d.InChannels, "Number of input channels.")
	outFlag := flagSet.Int("out", d.OutChannels, "Number of output channels.")
	nfFlag := flagSet.Int("nf", d.Filters, "Number of filters of the first encoder stage.")
	batchFlag := flagSet.Int("batch", d.BatchSize, "Batch size.")
	binaryFlag := flagSet.Bool("binary", d.Binary, "Use a sigmoid output instead of tanh.")
	refineFlag := flagSet.Int("refine", d.RefinementBlocks, "Refinement blocks after each encoder and decoder stage.")
	seedFlag := flagSet.Int64("seed", d.Seed, "Seed for weights, dropout and the forward input.")
	workersFlag := flagSet.Int("workers", 0, "Goroutines used by CPU kernels. 0 uses every CPU.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	command := app.CommandSummary
	switch flagSet.NArg() {
	case 0:
	case 1:
		command = flagSet.Arg(0)
	default:
		return nil, false, usageError("expected at most one command, got %q", flagSet.Args())
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, usageError("invalid log-format: must be 'text' or 'json'")
	}
	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, usageError("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}

	file := config.Default()
	if *configFlag != "" {
		var err error
		if file, err = config.Load(*configFlag); err != nil {
			return nil, false, usageError("%v", err)
		}
		slog.Debug("Config file loaded.", "path", *configFlag)
	}

	flagSet.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			file.Name = *nameFlag
		case "layout":
			file.Layout = *layoutFlag
		case "in":
			file.InChannels = *inFlag
		case "out":
			file.OutChannels = *outFlag
		case "nf":
			file.Filters = *nfFlag
		case "batch":
			file.BatchSize = *batchFlag
		case "binary":
			file.Binary = *binaryFlag
		case "refine":
			file.RefinementBlocks = *refineFlag
		case "seed":
			file.Seed = *seedFlag
		}
	})

	var cfg app.Config
	if command != app.CommandVersion {
		unetCfg, err := file.UNet()
		if err != nil {
			return nil, false, usageError("%v", err)
		}
		cfg.UNet = unetCfg
	}
	cfg.Command = command
	cfg.LogFormat = logFormat
	cfg.LogLevel = logLevel
	cfg.Workers = *workersFlag

	appCfg, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, usageError("%v", err)
	}
	return appCfg, false, nil
}
