package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/qdsl/internal/circuit"
	"github.com/roach88/qdsl/internal/compiler"
	"github.com/roach88/qdsl/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // canonical IR output path
}

// CompilationResult summarizes a lowered program.
type CompilationResult struct {
	Hash       string   `json:"hash"`
	Width      int      `json:"width"`
	Operations int      `json:"operations"`
	Steps      int      `json:"steps"`
	Shape      []string `json:"shape"`
	Backend    string   `json:"backend"`
	Output     string   `json:"output,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <circuit-file>",
		Short: "Canonicalize and lower a circuit",
		Long: `Load a circuit file (.yaml, .yml or .cue), canonicalize it against the
backend gate table and lower it to an executable.

Prints the program hash and the measurement shape. With --output the
canonical IR is written as JSON.

Examples:
  qdsl compile ./circuits/bell.yaml
  qdsl compile ./circuits/xor_oracle.cue -o xor.json --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write canonical IR to this file")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger()

	p, err := loadProgram(formatter, path, logger)
	if err != nil {
		return err
	}
	exe, err := p.Compile()
	if err != nil {
		return formatter.Fail(stageCompile, err)
	}
	formatter.VerboseLog("Lowered %d instruction(s) into %d step(s)", p.Len(), exe.Steps())

	result := summarize(p, exe)
	if opts.Output != "" {
		if err := writeCanonicalIR(p, opts.Output); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
		result.Output = opts.Output
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %s\n\n", path)
	fmt.Fprintf(w, "  hash:       %s\n", result.Hash)
	fmt.Fprintf(w, "  width:      %d\n", result.Width)
	fmt.Fprintf(w, "  operations: %d\n", result.Operations)
	fmt.Fprintf(w, "  steps:      %d\n", result.Steps)
	fmt.Fprintf(w, "  shape:      %s\n", strings.Join(result.Shape, ", "))
	fmt.Fprintf(w, "  backend:    %s\n", result.Backend)
	if result.Output != "" {
		fmt.Fprintf(w, "\nWrote canonical IR to %s\n", result.Output)
	}
	return nil
}

func summarize(p *circuit.Program, exe *compiler.Executable) CompilationResult {
	shape := exe.Shape()
	kinds := make([]string, len(shape))
	for i, k := range shape {
		kinds[i] = string(k)
	}
	return CompilationResult{
		Hash:       exe.Hash(),
		Width:      exe.Width(),
		Operations: p.Len(),
		Steps:      exe.Steps(),
		Shape:      kinds,
		Backend:    exe.Backend().Name(),
	}
}

// writeCanonicalIR writes the program in the same canonical JSON that its
// hash is computed over.
func writeCanonicalIR(p *circuit.Program, path string) error {
	data, err := ir.MarshalCanonical(p.IR().CanonicalMap())
	if err != nil {
		return fmt.Errorf("marshaling IR: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
