package app

import (
	"fmt"

	"github.com/born-ml/unet/internal/unet"
)

// Commands understood by Run.
const (
	CommandSummary = "summary"
	CommandForward = "forward"
	CommandVersion = "version"
)

// Version is the release reported by the version command.
var Version = "dev"

// Config holds everything an App needs to run one command.
type Config struct {
	Command   string
	UNet      unet.Config
	LogFormat string
	LogLevel  string
	// Workers bounds the goroutines used by CPU kernels; 0 means one worker per CPU.
	Workers int
}

// NewConfig validates cfg and returns a copy.
func NewConfig(cfg Config) (*Config, error) {
	switch cfg.Command {
	case CommandSummary, CommandForward, CommandVersion:
	default:
		return nil, fmt.Errorf("unknown command %q: must be one of %s, %s, %s",
			cfg.Command, CommandSummary, CommandForward, CommandVersion)
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("workers must not be negative, got %d", cfg.Workers)
	}
	if cfg.Command != CommandVersion {
		if err := cfg.UNet.Validate(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}
