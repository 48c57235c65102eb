package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"schedsim/internal/cli"
)

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	args := []string{"-h"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, &bytes.Buffer{}, args)

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	args := []string{"--this-is-not-a-valid-flag"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, &bytes.Buffer{}, args)

	// --- Assert ---
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, 2, exitErr.Code)
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRun_HCLWorkload(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	path := filepath.Join(t.TempDir(), "loop.hcl")
	hcl := `
variables {
  base = 10
}

config {
  policy = "edf"
}

task "control" {
  period    = var.base
  execution = 3
}

task "sensor" {
  period    = var.base + 5
  execution = 2
}
`
	require.NoError(t, os.WriteFile(path, []byte(hcl), 0o600))
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, &bytes.Buffer{}, []string{path})

	// --- Assert ---
	require.NoError(t, err)
	require.Contains(t, out.String(), "Earliest Deadline First")
	require.Contains(t, out.String(), "Horizon:")
	require.Contains(t, out.String(), "30 ticks")
}

func TestRun_RuntimeError(t *testing.T) {
	t.Parallel()

	err := run(&bytes.Buffer{}, &bytes.Buffer{}, []string{"-preset", "overload", "-policy", "sjf"})
	require.Error(t, err)

	var exitErr *cli.ExitError
	require.False(t, errors.As(err, &exitErr), "runtime failures exit with the generic code")
}
