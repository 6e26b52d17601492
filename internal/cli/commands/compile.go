package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapalg/internal/cli/output"
	"github.com/leapstack-labs/leapalg/pkg/dialect"
	"github.com/leapstack-labs/leapalg/pkg/ops"
	"github.com/leapstack-labs/leapalg/pkg/sqlgen"
)

// CompileOptions holds options for the compile command.
type CompileOptions struct {
	All   bool
	Watch bool
}

// CompiledQuery is one compilation result in JSON output.
type CompiledQuery struct {
	File       string   `json:"file"`
	Dialect    string   `json:"dialect"`
	Mode       string   `json:"mode"`
	SQL        string   `json:"sql,omitempty"`
	TempTables []string `json:"temp_tables,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// errCompileFailed reports that some results carried errors already shown.
var errCompileFailed = errors.New("compilation failed")

// NewCompileCommand creates the compile command.
func NewCompileCommand() *cobra.Command {
	opts := &CompileOptions{}

	cmd := &cobra.Command{
		Use:   "compile <pipeline>...",
		Short: "Compile pipeline files to SQL",
		Long: `Compile pipeline files (YAML or JSON) into a single SQL query each.

The dialect comes from --dialect, the config file, or the target type.
Use --all to compile for every registered dialect, and --watch to
recompile whenever a pipeline file changes.`,
		Example: `  # Compile for the configured dialect
  leapalg compile orders.yaml

  # WITH-chain output for PostgreSQL, pretty-printed
  leapalg compile orders.yaml -d postgres --mode cte --pretty

  # Compare every dialect
  leapalg compile orders.yaml --all

  # Recompile on save
  leapalg compile orders.yaml --watch`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.All, "all", false, "Compile for every registered dialect")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Recompile when a pipeline file changes")

	return cmd
}

func runCompile(cmd *cobra.Command, args []string, opts *CompileOptions) error {
	cc := NewCommandContext(cmd)
	ctx := commandContext(cmd)

	compileOnce := func(paths []string) error {
		results, err := cc.compileFiles(ctx, paths, opts.All)
		if err != nil {
			return err
		}
		return renderCompiled(cc.Renderer, results, len(paths) > 1 || opts.All)
	}

	err := compileOnce(args)
	if !opts.Watch {
		return err
	}
	if err != nil {
		cc.Renderer.Error(err.Error())
	}
	return watchPipelines(ctx, args, cc.Logger, func(path string) {
		cc.Renderer.Muted(fmt.Sprintf("-- %s changed", path))
		if err := compileOnce([]string{path}); err != nil && !errors.Is(err, errCompileFailed) {
			cc.Renderer.Error(err.Error())
		}
	})
}

// compileFiles compiles every file for the configured dialect, or for all
// dialects when all is set. Failures to compile are kept in the results;
// failures to read a file abort.
func (c *CommandContext) compileFiles(ctx context.Context, paths []string, all bool) ([]CompiledQuery, error) {
	sqlOpts, err := c.CompileOptions()
	if err != nil {
		return nil, err
	}
	dialects := dialect.List()
	if !all {
		if _, err := c.Cfg.SQLDialect(); err != nil {
			return nil, err
		}
		dialects = []string{c.Cfg.DialectName()}
	}

	roots := make([]ops.Node, len(paths))
	for i, p := range paths {
		if roots[i], err = c.readPipeline(p); err != nil {
			return nil, err
		}
	}

	results := make([]CompiledQuery, len(paths)*len(dialects))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, root := range roots {
		for j, name := range dialects {
			slot := &results[i*len(dialects)+j]
			slot.File, slot.Dialect = paths[i], name
			g.Go(func() error {
				d, err := dialect.Lookup(name)
				if err != nil {
					return err
				}
				res, err := sqlgen.Compile(root, d, sqlOpts)
				if err != nil {
					slot.Error = err.Error()
					c.Logger.Debug("compile failed", slog.String("dialect", name), slog.String("error", slot.Error))
					return nil
				}
				slot.SQL, slot.Mode, slot.TempTables = res.SQL, string(res.Mode), res.TempTables
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func renderCompiled(r *output.Renderer, results []CompiledQuery, labeled bool) error {
	failed := false
	for _, q := range results {
		if q.Error != "" {
			failed = true
		}
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		if err := r.JSON(results); err != nil {
			return err
		}
	case output.ModeMarkdown:
		for _, q := range results {
			if labeled {
				r.Println(output.FormatHeader(2, q.File+" ("+q.Dialect+")"))
				r.Println("")
			}
			if q.Error != "" {
				r.Println("Error: " + q.Error)
			} else {
				r.Println(output.FormatCodeBlock("sql", q.SQL))
			}
			if labeled {
				r.Println("")
			}
		}
	default:
		for _, q := range results {
			if labeled {
				r.Header(2, q.File+" ("+q.Dialect+")")
			}
			if q.Error != "" {
				r.Error(q.Dialect + ": " + q.Error)
				continue
			}
			r.Code(strings.TrimRight(q.SQL, "\n"))
			if len(q.TempTables) > 0 {
				r.Muted("-- temporary tables: " + strings.Join(q.TempTables, ", "))
			}
		}
	}

	if failed {
		return errCompileFailed
	}
	return nil
}
