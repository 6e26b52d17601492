package eval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/leapstack-labs/leapalg/pkg/adapter"
	"github.com/leapstack-labs/leapalg/pkg/adapters/sqlite"
	"github.com/leapstack-labs/leapalg/pkg/frame"
	"github.com/leapstack-labs/leapalg/pkg/ops"
	"github.com/leapstack-labs/leapalg/pkg/sqlgen"
)

// SQLEngine evaluates pipelines in a fresh in-memory SQLite database per
// call. Every leaf is loaded as a temporary table and the pipeline is
// rewritten to read from it.
type SQLEngine struct {
	// Mode selects the SQL shape; the default is nested subqueries.
	Mode   sqlgen.Mode
	Logger *slog.Logger
}

// NewSQLEngine returns a SQLEngine. If logger is nil, a discard logger is used.
func NewSQLEngine(logger *slog.Logger) *SQLEngine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLEngine{Logger: logger}
}

var _ Engine = (*SQLEngine)(nil)

// Evaluate implements Engine.
func (e *SQLEngine) Evaluate(ctx context.Context, root ops.Node, inputs map[string]*frame.Frame) (*frame.Frame, error) {
	logger := e.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	keys := make([]string, 0, len(inputs))
	for k := range inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	names := make(map[string]string, len(keys))
	for i, k := range keys {
		names[k] = fmt.Sprintf("input_%d", i)
	}

	rewritten, err := ops.Rebuild(root, func(leaf ops.Leaf) (ops.Node, error) {
		name, ok := names[leaf.Key()]
		if !ok {
			return nil, fmt.Errorf("no input for leaf %s", leaf.Key())
		}
		t, err := ops.NewTempTable(name, leaf.ColumnNames())
		if err != nil {
			return nil, err
		}
		return t, nil
	})
	if err != nil {
		return nil, err
	}

	db := sqlite.New(logger)
	dsn := "file:leapalg_" + uuid.NewString() + "?mode=memory&cache=shared"
	if err := db.Connect(ctx, adapter.Config{Type: "sqlite", Path: dsn}); err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	for _, k := range keys {
		if err := db.InsertTable(ctx, names[k], inputs[k], adapter.InsertOptions{Temporary: true}); err != nil {
			return nil, fmt.Errorf("load input %s: %w", k, err)
		}
	}

	mode := e.Mode
	if mode == sqlgen.ModeDefault {
		mode = sqlgen.ModeNested
	}
	return adapter.ReadPipeline(ctx, db, rewritten, sqlgen.Options{Mode: mode, Logger: logger})
}
