package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

var (
	circuitsDir  = filepath.Join("..", "..", "testdata", "circuits")
	scenariosDir = filepath.Join("..", "..", "testdata", "scenarios")
)

func circuitPath(name string) string {
	return filepath.Join(circuitsDir, name)
}

// execute runs the root command with args and returns stdout, stderr and
// the command error. An explicit empty config keeps tests independent of
// any qdsl.toml above the working directory.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cfg := filepath.Join(t.TempDir(), "qdsl.toml")
	writeFile(t, cfg, "")

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(append([]string{"--config", cfg}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// bareCommand returns a command for calling run functions directly.
func bareCommand() (*cobra.Command, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	return cmd, buf
}
