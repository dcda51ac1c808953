package main

import (
	"context"
	"log/slog"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/marcogbarcellos/pgstudio/internal/model"
)

// oneShot runs fn against a freshly opened backend with stderr logging.
func oneShot(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, a *app) error) error {
	slog.SetDefault(stderrLogger(parseLevel(opts.cfg.LogLevel, slog.LevelWarn)))
	a, err := openApp(cmd.Context(), opts.cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(cmd.Context(), a)
}

func newToolsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Show which pg_dump, pg_restore and psql binaries were found",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return oneShot(cmd, opts, func(ctx context.Context, a *app) error {
				printTools(a.services.Transfers.DetectTools(ctx))
				return nil
			})
		},
	}
}

func printTools(st model.ToolsStatus) {
	row := func(name string, path *string) []string {
		if path == nil {
			return []string{name, pterm.Red("not found")}
		}
		return []string{name, *path}
	}
	data := pterm.TableData{
		{"Tool", "Path"},
		row("pg_dump", st.DumpPath),
		row("pg_restore", st.RestorePath),
		row("psql", st.PsqlPath),
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	if st.Version != nil {
		pterm.Info.Println(*st.Version)
	}
}

func newDumpCmd(opts *rootOptions) *cobra.Command {
	var req model.DumpRequest
	var format string
	cmd := &cobra.Command{
		Use:   "dump <connection-id> <output-path>",
		Short: "Dump a saved connection's database with pg_dump",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.ConnectionID, req.OutputPath = args[0], args[1]
			req.Format = model.DumpFormat(format)
			return oneShot(cmd, opts, func(ctx context.Context, a *app) error {
				spinner, _ := pterm.DefaultSpinner.Start("Dumping " + req.ConnectionID)
				outcome, err := a.services.Transfers.Dump(ctx, req)
				_ = spinner.Stop()
				return report(outcome, err)
			})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&format, "format", "F", string(model.DumpCustom), "output format: plain|custom|directory")
	f.BoolVar(&req.SchemaOnly, "schema-only", false, "dump only the schema, no data")
	f.StringSliceVarP(&req.Tables, "table", "t", nil, "dump only the named tables (repeatable)")
	return cmd
}

func newRestoreCmd(opts *rootOptions) *cobra.Command {
	var req model.RestoreRequest
	cmd := &cobra.Command{
		Use:   "restore <connection-id> <input-path>",
		Short: "Restore a dump into a saved connection (psql for plain SQL, pg_restore otherwise)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.ConnectionID, req.InputPath = args[0], args[1]
			return oneShot(cmd, opts, func(ctx context.Context, a *app) error {
				spinner, _ := pterm.DefaultSpinner.Start("Restoring into " + req.ConnectionID)
				outcome, err := a.services.Transfers.Restore(ctx, req)
				_ = spinner.Stop()
				return report(outcome, err)
			})
		},
	}
	f := cmd.Flags()
	f.BoolVar(&req.Clean, "clean", false, "drop objects before recreating them")
	f.BoolVar(&req.SchemaOnly, "schema-only", false, "restore only the schema")
	return cmd
}

func newTransferCmd(opts *rootOptions) *cobra.Command {
	var req model.TransferRequest
	cmd := &cobra.Command{
		Use:   "transfer <source-id> <target-id>",
		Short: "Stream pg_dump of one saved connection into pg_restore of another",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.SourceID, req.TargetID = args[0], args[1]
			return oneShot(cmd, opts, func(ctx context.Context, a *app) error {
				spinner, _ := pterm.DefaultSpinner.Start("Transferring " + req.SourceID + " -> " + req.TargetID)
				outcome, err := a.services.Transfers.Transfer(ctx, req)
				_ = spinner.Stop()
				return report(outcome, err)
			})
		},
	}
	f := cmd.Flags()
	f.BoolVar(&req.SchemaOnly, "schema-only", false, "transfer only the schema")
	f.StringSliceVarP(&req.Tables, "table", "t", nil, "transfer only the named tables (repeatable)")
	f.BoolVar(&req.Clean, "clean", false, "drop target objects before recreating them")
	return cmd
}

// report prints an outcome. A failed outcome exits with status 2 so scripts
// can tell it apart from a usage or setup error.
func report(outcome *model.ToolOutcome, err error) error {
	if err != nil {
		return err
	}
	switch outcome.Status {
	case model.OutcomeSuccess:
		pterm.Success.Println("done")
	case model.OutcomeWarning:
		pterm.Warning.Println("finished with warnings")
	default:
		pterm.Error.Println("failed")
	}
	if outcome.FilePath != "" {
		pterm.Info.Printfln("%s (%d bytes)", outcome.FilePath, outcome.SizeBytes)
	}
	if outcome.Stderr != "" {
		pterm.Println(outcome.Stderr)
	}
	if !outcome.Succeeded() {
		return exitError{code: 2}
	}
	return nil
}
