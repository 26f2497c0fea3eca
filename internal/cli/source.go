package cli

import (
	"log/slog"

	"github.com/roach88/qdsl/internal/circuit"
	"github.com/roach88/qdsl/internal/loader"
	"github.com/roach88/qdsl/internal/sim"
)

// Stages passed to OutputFormatter.Fail.
const (
	stageLoad    = "failed to load circuit"
	stageBuild   = "failed to build circuit"
	stageCompile = "failed to compile circuit"
	stageRun     = "failed to run circuit"
)

// buildCircuit builds f in a fresh session on the statevector simulator.
func buildCircuit(f *loader.File, logger *slog.Logger) (*circuit.Program, error) {
	s := circuit.NewSession(
		circuit.WithBackend(sim.New()),
		circuit.WithLogger(logger),
	)
	return f.Build(s)
}

// loadProgram loads and builds path, reporting failures through f.
func loadProgram(f *OutputFormatter, path string, logger *slog.Logger) (*circuit.Program, error) {
	file, err := loader.Load(path)
	if err != nil {
		return nil, f.Fail(stageLoad, err)
	}
	logger.Debug("circuit loaded", "path", path, "width", file.Width, "ops", len(file.Ops), "blocks", len(file.Blocks))

	p, err := buildCircuit(file, logger)
	if err != nil {
		return nil, f.Fail(stageBuild, err)
	}
	return p, nil
}
