package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "qdsl", cmd.Use)
	assert.Contains(t, cmd.Long, "statevector simulator")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"compile", "run", "inspect", "test", "history"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err, "command %s should exist", name)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.Equal(t, "false", verbose.DefValue)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	config := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, config)
	assert.Equal(t, "", config.DefValue)
}

func TestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	tests := []struct {
		command, flag, def string
	}{
		{"compile", "output", ""},
		{"run", "db", ""},
		{"inspect", "as", ""},
		{"test", "update", "false"},
		{"test", "filter", ""},
		{"history", "db", ""},
		{"history", "limit", "20"},
		{"history", "program", ""},
	}
	for _, tt := range tests {
		t.Run(tt.command+"/"+tt.flag, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{tt.command})
			require.NoError(t, err)
			f := sub.Flags().Lookup(tt.flag)
			require.NotNil(t, f)
			assert.Equal(t, tt.def, f.DefValue)
		})
	}
}

func TestRoot_InvalidFormat(t *testing.T) {
	_, _, err := execute(t, "--format", "xml", "inspect", circuitPath("bell.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestRoot_ConfigSetsDefaults(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "qdsl.toml")
	writeFile(t, cfg, "[output]\nformat = \"json\"\ninspect = \"text\"\n")

	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", cfg, "inspect", circuitPath("bell.yaml")})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), `"status":"ok"`)
	assert.Contains(t, out.String(), `Qubits: 2`)
}

func TestRoot_FlagOverridesConfig(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "qdsl.toml")
	writeFile(t, cfg, "[output]\nformat = \"json\"\n")

	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", cfg, "--format", "text", "run", circuitPath("bell.yaml")})
	require.NoError(t, cmd.Execute())

	assert.NotContains(t, out.String(), `"status"`)
	assert.Contains(t, out.String(), "state: [")
}

func TestRoot_BadConfig(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "qdsl.toml")
	writeFile(t, cfg, "[output]\nformat = \"yaml\"\n")

	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", cfg, "inspect", circuitPath("bell.yaml")})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestRoot_VerboseLogsToStderr(t *testing.T) {
	stdout, stderr, err := execute(t, "--verbose", "compile", circuitPath("bell.yaml"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ Compiled")
	assert.Contains(t, stderr, "level=DEBUG")
	assert.Contains(t, stderr, "circuit loaded")
	assert.Contains(t, stderr, "program compiled")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLevel("debug").String())
	assert.Equal(t, "INFO", parseLevel("info").String())
	assert.Equal(t, "WARN", parseLevel("warn").String())
	assert.Equal(t, "ERROR", parseLevel("error").String())
	assert.Equal(t, "WARN", parseLevel("").String())
}
