package app

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/born-ml/unet/internal/tensor"
	"github.com/born-ml/unet/internal/unet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tinyConfig(command string) *Config {
	u := unet.DefaultConfig()
	u.InChannels = 1
	u.OutChannels = 1
	u.Filters = 1
	u.Binary = true
	return &Config{Command: command, UNet: u, LogLevel: "info", LogFormat: "text"}
}

func run(t *testing.T, cfg *Config) (string, string, error) {
	t.Helper()
	var out, logs bytes.Buffer
	err := New(&out, &logs, cfg).Run(context.Background(), cfg)
	return out.String(), logs.String(), err
}

func TestRun_Version(t *testing.T) {
	out, _, err := run(t, &Config{Command: CommandVersion})
	require.NoError(t, err)
	assert.Equal(t, "unet "+Version+"\n", out)
}

func TestRun_Summary(t *testing.T) {
	out, logs, err := run(t, tinyConfig(CommandSummary))
	require.NoError(t, err)

	assert.Contains(t, out, `Model: "unet"`)
	assert.Contains(t, out, "input (InputLayer)")
	assert.Contains(t, out, "dec1_concat (Concatenate)")
	assert.Contains(t, out, "output (Sigmoid)")
	assert.Contains(t, out, "(1, 1, 512, 512)")
	assert.Contains(t, out, "Total params:")
	assert.Contains(t, logs, "layout=channels_first")
}

func TestRun_Forward(t *testing.T) {
	cfg := tinyConfig(CommandForward)
	cfg.UNet.Layout = tensor.ChannelsLast
	cfg.Workers = 1
	out, _, err := run(t, cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "input:  (1, 512, 512, 1)")
	assert.Contains(t, out, "output: (1, 512, 512, 1)")
	assert.Contains(t, out, "range:  [")
}

func TestRun_Cancelled(t *testing.T) {
	cfg := tinyConfig(CommandSummary)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out, logs bytes.Buffer
	err := New(&out, &logs, cfg).Run(ctx, cfg)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.String())
}

func TestNewConfig(t *testing.T) {
	_, err := NewConfig(Config{Command: "train"})
	assert.ErrorContains(t, err, "unknown command")

	bad := *tinyConfig(CommandSummary)
	bad.UNet.Filters = 0
	_, err = NewConfig(bad)
	assert.ErrorIs(t, err, unet.ErrInvalidConfig)

	cfg, err := NewConfig(Config{Command: CommandVersion})
	require.NoError(t, err)
	assert.Equal(t, CommandVersion, cfg.Command)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("warn", "json", &buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", 1)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "WARN", rec["level"])

	buf.Reset()
	newLogger("bogus", "text", &buf).Debug("hidden")
	assert.Empty(t, buf.String(), "unknown levels fall back to info")
}
