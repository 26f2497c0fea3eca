package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/qdsl/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
	Program  string // optional - only runs of this program hash
}

// HistoryResult is the JSON payload of the history command.
type HistoryResult struct {
	Runs  []store.Run `json:"runs"`
	Total int         `json:"total"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Long: `List runs recorded by 'qdsl run --db' in sequence order.

Each row shows the run's sequence number, ID, status, program hash and
either its result or its error code.

Examples:
  qdsl history --db ./runs.db
  qdsl history --db ./runs.db --limit 5
  qdsl history --db ./runs.db --program 3f2a... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default: store.db from qdsl.toml)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "show at most this many recent runs (0 for all)")
	cmd.Flags().StringVar(&opts.Program, "program", "", "only show runs of this program hash")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = opts.config().Store.DB
	}
	if dbPath == "" {
		msg := "no database: pass --db or set store.db in qdsl.toml"
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.Open(dbPath)
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var runs []store.Run
	if opts.Program != "" {
		runs, err = st.RunsForProgram(ctx, opts.Program)
		if err == nil && opts.Limit > 0 && len(runs) > opts.Limit {
			runs = runs[len(runs)-opts.Limit:]
		}
	} else {
		runs, err = st.ListRuns(ctx, opts.Limit)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}
	if runs == nil {
		runs = []store.Run{}
	}

	if formatter.Format == "json" {
		return formatter.Success(HistoryResult{Runs: runs, Total: len(runs)})
	}

	w := formatter.Writer
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, run := range runs {
		fmt.Fprintf(w, "%4d  %s  %-5s  %s  %s\n", run.Seq, run.ID, run.Status, shortHash(run.ProgramHash), run.Source)
		if run.Status == store.StatusError {
			fmt.Fprintf(w, "      %s: %s\n", run.ErrorCode, run.ErrorMessage)
		} else if opts.Verbose {
			fmt.Fprintf(w, "      %s\n", compactJSON(run.Result))
		}
	}
	fmt.Fprintf(w, "\n%d run(s)\n", len(runs))
	return nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

func compactJSON(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "-"
	}
	return string(raw)
}
