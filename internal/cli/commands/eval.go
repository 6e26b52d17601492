package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapalg/pkg/eval"
	"github.com/leapstack-labs/leapalg/pkg/frame"
	"github.com/leapstack-labs/leapalg/pkg/ops"
)

// NewEvalCommand creates the eval command.
func NewEvalCommand() *cobra.Command {
	var inputs map[string]string

	cmd := &cobra.Command{
		Use:   "eval <pipeline>",
		Short: "Evaluate a pipeline over CSV files",
		Long: `Evaluate a pipeline locally over CSV inputs, without a target database.
Every table or SQL node in the pipeline needs one --input, named by its
key or, for tables, by its plain name. Extra CSV columns are dropped
unless --strict is set, in which case they are an error.`,
		Example: `  leapalg eval orders.yaml --input orders=orders.csv
  leapalg eval join.yaml -i a=left.csv -i b=right.csv -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			root, err := cc.readPipeline(args[0])
			if err != nil {
				return err
			}
			data, err := readInputs(root, inputs)
			if err != nil {
				return err
			}
			result, err := eval.Transform(commandContext(cmd), root, data, eval.Options{
				Strict: cc.Cfg.Strict,
				Logger: cc.Logger,
			})
			if err != nil {
				return err
			}
			return cc.Renderer.Table(result)
		},
	}

	cmd.Flags().StringToStringVarP(&inputs, "input", "i", nil, "CSV file for a pipeline input (name=path, repeatable)")

	return cmd
}

// readInputs reads each CSV and keys it by the leaf it names.
func readInputs(root ops.Node, inputs map[string]string) (map[string]*frame.Frame, error) {
	leaves, err := ops.Leaves(root)
	if err != nil {
		return nil, err
	}
	byName := make(map[string][]string)
	for key, leaf := range leaves {
		if t, ok := leaf.(*ops.Table); ok && t.Name() != key {
			byName[t.Name()] = append(byName[t.Name()], key)
		}
	}

	data := make(map[string]*frame.Frame, len(inputs))
	for name, path := range inputs {
		key := name
		if _, ok := leaves[name]; !ok {
			switch keys := byName[name]; len(keys) {
			case 0:
				return nil, fmt.Errorf("input %q matches no table in the pipeline (inputs: %s)", name, strings.Join(leafKeys(leaves), ", "))
			case 1:
				key = keys[0]
			default:
				sort.Strings(keys)
				return nil, fmt.Errorf("input %q is ambiguous: %s", name, strings.Join(keys, ", "))
			}
		}
		if _, dup := data[key]; dup {
			return nil, fmt.Errorf("input %s given twice", key)
		}
		f, err := frame.ReadCSV(path)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", name, err)
		}
		data[key] = f
	}
	return data, nil
}

func leafKeys(leaves map[string]ops.Leaf) []string {
	keys := make([]string, 0, len(leaves))
	for k := range leaves {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
