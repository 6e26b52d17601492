// Package eval runs pipelines over in-memory tables.
//
// Transform validates the supplied tables against the pipeline's leaves and
// hands the narrowed inputs to an Engine. SQLEngine, the reference engine,
// evaluates by compiling the pipeline for SQLite and running it in a private
// in-memory database.
package eval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapalg/pkg/core"
	"github.com/leapstack-labs/leapalg/pkg/frame"
	"github.com/leapstack-labs/leapalg/pkg/ops"
)

// Engine evaluates a validated pipeline. inputs holds one frame per leaf
// key, carrying exactly the leaf's declared columns in declared order.
type Engine interface {
	Evaluate(ctx context.Context, root ops.Node, inputs map[string]*frame.Frame) (*frame.Frame, error)
}

// Options controls Transform.
type Options struct {
	// Engine evaluates the pipeline. Nil means a SQLEngine.
	Engine Engine
	// Strict requires every supplied table to carry exactly the declared
	// columns and none of the names renames introduce.
	Strict bool
	Logger *slog.Logger
}

// Transform evaluates root over data, keyed by leaf key. Tables carrying
// more columns than declared are narrowed unless opts.Strict is set.
func Transform(ctx context.Context, root ops.Node, data map[string]*frame.Frame, opts Options) (*frame.Frame, error) {
	if root == nil {
		return nil, core.NewSchemaError("", "nil pipeline")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	model := make(map[string][]string, len(data))
	for k, f := range data {
		if f == nil {
			return nil, core.NewSchemaError("", "nil frame supplied for", k)
		}
		model[k] = f.Columns
	}
	if err := ops.CheckConstraints(root, model, opts.Strict); err != nil {
		return nil, err
	}

	leaves, err := ops.Leaves(root)
	if err != nil {
		return nil, err
	}
	inputs := make(map[string]*frame.Frame, len(leaves))
	for k, leaf := range leaves {
		f, err := data[k].Select(leaf.ColumnNames()...)
		if err != nil {
			return nil, err
		}
		inputs[k] = f
	}

	engine := opts.Engine
	if engine == nil {
		engine = NewSQLEngine(logger)
	}
	logger.Debug("evaluating pipeline", slog.Int("inputs", len(inputs)), slog.Bool("strict", opts.Strict))
	return engine.Evaluate(ctx, root, inputs)
}

// TransformOne evaluates a pipeline with a single leaf over f.
func TransformOne(ctx context.Context, root ops.Node, f *frame.Frame, opts Options) (*frame.Frame, error) {
	if root == nil {
		return nil, core.NewSchemaError("", "nil pipeline")
	}
	leaves, err := ops.Leaves(root)
	if err != nil {
		return nil, err
	}
	if len(leaves) != 1 {
		return nil, core.NewSchemaError("", fmt.Sprintf("pipeline has %d leaves, want 1", len(leaves)))
	}
	for k := range leaves {
		return Transform(ctx, root, map[string]*frame.Frame{k: f}, opts)
	}
	return nil, nil
}
