package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/keywordgo/internal/cli"
)

func TestRunWithoutArgumentsPrintsUsage(t *testing.T) {
	t.Parallel()
	out := &bytes.Buffer{}
	require.NoError(t, run(out, nil))
	assert.Contains(t, out.String(), "Usage:")
}

func TestRunParseErrorComesBackAsExitError(t *testing.T) {
	t.Parallel()
	err := run(&bytes.Buffer{}, []string{"-log-format", "xml", "suite.hcl"})
	require.Error(t, err)
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestRunRecoversStartupPanic(t *testing.T) {
	t.Parallel()
	err := run(&bytes.Buffer{}, []string{filepath.Join(t.TempDir(), "no-such-suite.hcl")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a critical startup error occurred:")
	assert.Contains(t, err.Error(), "failed to load suite")
}

func TestRunExecutesSuiteEndToEnd(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "suite.hcl")
	src := `
test "end to end" {
  call "Log" {
    args = ["ran from main"]
  }
}
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	out := &bytes.Buffer{}
	require.NoError(t, run(out, []string{path}))
	assert.Contains(t, out.String(), "ran from main")
}

func TestRunReportsFailingSuite(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "suite.hcl")
	src := `
test "broken" {
  call "Fail" {
    args = ["this suite fails"]
  }
}
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	err := run(&bytes.Buffer{}, []string{path})
	require.Error(t, err)
	assert.Equal(t, "1 of 1 tests failed", err.Error())
}
