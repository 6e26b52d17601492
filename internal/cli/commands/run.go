package commands

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapalg/internal/cli/output"
	"github.com/leapstack-labs/leapalg/pkg/adapter"
	"github.com/leapstack-labs/leapalg/pkg/frame"
	"github.com/leapstack-labs/leapalg/pkg/ops"
	"github.com/leapstack-labs/leapalg/pkg/sqlgen"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	Load    map[string]string
	Check   bool
	ShowSQL bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run <pipeline>",
		Short: "Run a pipeline against the target database",
		Long: `Compile a pipeline for the target's dialect, run it on the target
database and print the result.

--load fills tables from CSV files first. A name matching a temporary
table in the pipeline creates that temporary table for this session;
any other name replaces a regular table.`,
		Example: `  # Run against the configured target
  leapalg run orders.yaml

  # Load inputs into an in-memory SQLite database and run
  leapalg run orders.yaml --load orders=orders.csv --load customers=customers.csv

  # Check the database columns before running
  leapalg run orders.yaml --check --strict`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringToStringVarP(&opts.Load, "load", "l", nil, "Load a CSV file into a table first (name=path, repeatable)")
	cmd.Flags().BoolVar(&opts.Check, "check", false, "Check table columns against the pipeline before running")
	cmd.Flags().BoolVar(&opts.ShowSQL, "show-sql", false, "Print the compiled SQL before the result")

	return cmd
}

func runRun(cmd *cobra.Command, path string, opts *RunOptions) error {
	cc := NewCommandContext(cmd)
	ctx := commandContext(cmd)

	root, err := cc.readPipeline(path)
	if err != nil {
		return err
	}
	sqlOpts, err := cc.CompileOptions()
	if err != nil {
		return err
	}

	adp, err := cc.OpenAdapter(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = adp.Close() }()

	if err := loadInputs(ctx, adp, root, opts.Load, cc.Logger); err != nil {
		return err
	}
	if opts.Check {
		if err := adapter.CheckPipeline(ctx, adp, root, cc.Cfg.Strict); err != nil {
			return err
		}
	}

	if opts.ShowSQL {
		res, err := sqlgen.Compile(root, adp.Dialect(), sqlOpts)
		if err != nil {
			return err
		}
		showSQL(cc.Renderer, res.SQL)
	}

	result, err := adapter.ReadPipeline(ctx, adp, root, sqlOpts)
	if err != nil {
		return err
	}
	cc.Logger.Debug("pipeline finished", slog.Int("rows", result.NumRows()))
	return cc.Renderer.Table(result)
}

// loadInputs loads each name=path CSV. Names of temporary tables in root
// become temporary tables.
func loadInputs(ctx context.Context, adp adapter.Adapter, root ops.Node, load map[string]string, logger *slog.Logger) error {
	if len(load) == 0 {
		return nil
	}
	tables, err := ops.Tables(root)
	if err != nil {
		return err
	}
	temporary := make(map[string]bool)
	for _, t := range tables {
		if t.Temporary() {
			temporary[t.Name()] = true
		}
	}

	names := make([]string, 0, len(load))
	for name := range load {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		path := load[name]
		if !temporary[name] {
			if err := adp.LoadCSV(ctx, name, path); err != nil {
				return fmt.Errorf("load %s: %w", name, err)
			}
			logger.Debug("loaded table", slog.String("table", name), slog.String("path", path))
			continue
		}
		f, err := frame.ReadCSV(path)
		if err != nil {
			return fmt.Errorf("load %s: %w", name, err)
		}
		if err := adp.InsertTable(ctx, name, f, adapter.InsertOptions{AllowOverwrite: true, Temporary: true}); err != nil {
			return fmt.Errorf("load %s: %w", name, err)
		}
		logger.Debug("loaded temporary table", slog.String("table", name), slog.Int("rows", f.NumRows()))
	}
	return nil
}

func showSQL(r *output.Renderer, sql string) {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		// The result stays the only JSON document on stdout.
	case output.ModeMarkdown:
		r.Println(output.FormatCodeBlock("sql", sql))
		r.Println("")
	default:
		r.Code(sql)
		r.Println("")
	}
}
