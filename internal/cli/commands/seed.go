package commands

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapalg/internal/cli/output"
)

// SeedInfo reports one loaded CSV file.
type SeedInfo struct {
	Table string `json:"table"`
	File  string `json:"file"`
	Rows  int64  `json:"rows"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand() *cobra.Command {
	var table string

	cmd := &cobra.Command{
		Use:   "seed <csv>...",
		Short: "Load CSV files into the target database",
		Long: `Load CSV files into tables of the target database, replacing any
existing table of the same name. Each table is named after its file
unless --table is given for a single file.

Output adapts to environment:
  - Terminal: Styled, colored output
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json`,
		Example: `  # Load two tables into a DuckDB file
  leapalg seed orders.csv customers.csv --database shop.duckdb

  # Choose the table name
  leapalg seed data/2024-orders.csv --table orders`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if table != "" && len(args) > 1 {
				return fmt.Errorf("--table needs exactly one CSV file, got %d", len(args))
			}
			return runSeed(cmd, args, table)
		},
	}

	cmd.Flags().StringVar(&table, "table", "", "Table name for a single CSV file")

	return cmd
}

func runSeed(cmd *cobra.Command, files []string, table string) error {
	cc := NewCommandContext(cmd)
	ctx := commandContext(cmd)

	adp, err := cc.OpenAdapter(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = adp.Close() }()

	seeds := make([]SeedInfo, 0, len(files))
	for _, file := range files {
		name := table
		if name == "" {
			name = seedTableName(file)
		}
		if err := adp.LoadCSV(ctx, name, file); err != nil {
			return fmt.Errorf("seed %s: %w", file, err)
		}
		info := SeedInfo{Table: name, File: file, Rows: -1}
		if meta, err := adp.GetTableMetadata(ctx, name); err == nil {
			info.Rows = meta.RowCount
		}
		cc.Logger.Debug("seeded table", slog.String("table", name), slog.String("file", file))
		seeds = append(seeds, info)
	}

	r := cc.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(seeds)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Seeds"))
		r.Println("")
		for _, s := range seeds {
			r.Println(output.FormatKeyValue(s.Table, fmt.Sprintf("%s (%s)", s.File, seedRows(s.Rows))))
		}
	default:
		r.Header(1, "Seeds")
		for _, s := range seeds {
			r.Success(fmt.Sprintf("%s ← %s (%s)", s.Table, s.File, seedRows(s.Rows)))
		}
	}
	return nil
}

// seedTableName derives a table name from a CSV path: orders.csv -> orders.
func seedTableName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func seedRows(n int64) string {
	switch {
	case n < 0:
		return "rows unknown"
	case n == 1:
		return "1 row"
	}
	return fmt.Sprintf("%d rows", n)
}
