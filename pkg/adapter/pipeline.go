package adapter

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/leapalg/pkg/frame"
	"github.com/leapstack-labs/leapalg/pkg/ops"
	"github.com/leapstack-labs/leapalg/pkg/sqlgen"
)

// ReadPipeline compiles root for the adapter's dialect and reads the
// result. Temporary tables the query needs must already be inserted.
func ReadPipeline(ctx context.Context, a Adapter, root ops.Node, opts sqlgen.Options) (*frame.Frame, error) {
	r, err := sqlgen.Compile(root, a.Dialect(), opts)
	if err != nil {
		return nil, err
	}
	for _, t := range r.TempTables {
		ok, err := a.TableExists(ctx, t)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("temporary table %q has not been inserted", t)
		}
	}
	return a.ReadQuery(ctx, r.SQL)
}

// ReadDataModel reads the columns each table leaf of root has in the
// database, keyed by leaf key. Temporary tables and SQL nodes report
// their declared columns.
func ReadDataModel(ctx context.Context, a Adapter, root ops.Node) (map[string][]string, error) {
	leaves, err := ops.Leaves(root)
	if err != nil {
		return nil, err
	}
	model := make(map[string][]string, len(leaves))
	for key, leaf := range leaves {
		t, ok := leaf.(*ops.Table)
		if !ok || t.Temporary() {
			model[key] = leaf.ColumnNames()
			continue
		}
		name := t.Name()
		if schema := t.Qualifiers()["schema"]; schema != "" {
			name = schema + "." + name
		}
		meta, err := a.GetTableMetadata(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("read columns of %s: %w", key, err)
		}
		model[key] = meta.ColumnNames()
	}
	return model, nil
}

// CheckPipeline checks root's declared columns against the database.
func CheckPipeline(ctx context.Context, a Adapter, root ops.Node, strict bool) error {
	model, err := ReadDataModel(ctx, a, root)
	if err != nil {
		return err
	}
	return ops.CheckConstraints(root, model, strict)
}
