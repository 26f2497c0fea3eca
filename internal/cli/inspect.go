package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/qdsl/internal/ir"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	As string // "dict" | "text"
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect <circuit-file>",
		Short: "Show the instructions a circuit builds",
		Long: `Build a circuit file and print its instruction list without compiling.

--as dict prints {qubits, operations} with one row per instruction;
--as text prints a numbered listing. The default comes from
output.inspect in qdsl.toml.

Examples:
  qdsl inspect ./circuits/xor_oracle.yaml
  qdsl inspect ./circuits/bell.yaml --as text`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.As, "as", "", "inspection format (dict|text)")

	return cmd
}

func runInspect(opts *InspectOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	as := opts.As
	if as == "" {
		as = opts.config().Output.Inspect
	}
	if as != ir.InspectDict && as != ir.InspectText {
		msg := fmt.Sprintf("invalid --as %q: must be %s or %s", as, ir.InspectDict, ir.InspectText)
		_ = formatter.Error(ErrCodeGeneric, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	p, err := loadProgram(formatter, path, opts.logger())
	if err != nil {
		return err
	}

	if formatter.Format == "json" && as == ir.InspectDict {
		return formatter.Success(ir.Describe(p.IR()))
	}
	out, err := p.Inspect(as)
	if err != nil {
		return formatter.Fail(stageBuild, err)
	}
	return formatter.Success(out)
}
