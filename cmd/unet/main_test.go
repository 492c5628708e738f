package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/born-ml/unet/internal/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Version(t *testing.T) {
	var out, errW bytes.Buffer
	require.NoError(t, run(&out, &errW, []string{"version"}))
	assert.Contains(t, out.String(), "unet ")
}

func TestRun_Summary(t *testing.T) {
	var out, errW bytes.Buffer
	err := run(&out, &errW, []string{"-nf", "1", "-in", "1", "-out", "1", "-log-level", "error", "summary"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Total params:")
	assert.Empty(t, errW.String())
}

func TestRun_UsageError(t *testing.T) {
	var out, errW bytes.Buffer
	err := run(&out, &errW, []string{"-layout", "xyz"})
	var exitErr *cli.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 2, exitErr.Code)
}
