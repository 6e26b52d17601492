package commands

import (
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapalg/internal/cli/output"
	"github.com/leapstack-labs/leapalg/pkg/ops"
)

// LeafInfo describes one pipeline input.
type LeafInfo struct {
	Key       string   `json:"key"`
	Kind      string   `json:"kind"`
	Columns   []string `json:"columns"`
	Temporary bool     `json:"temporary,omitempty"`
	Forbidden []string `json:"forbidden,omitempty"`
}

// DescribeOutput is the JSON form of the describe command.
type DescribeOutput struct {
	File    string     `json:"file"`
	Steps   int        `json:"steps"`
	Columns []string   `json:"columns"`
	Plan    string     `json:"plan"`
	Inputs  []LeafInfo `json:"inputs"`
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <pipeline>",
		Short: "Show a pipeline's operators and inputs",
		Long: `Print a pipeline file as an operator listing, followed by the
tables and SQL nodes it reads. Forbidden columns are names a downstream
rename introduces; strict evaluation rejects inputs that carry them.`,
		Example: `  leapalg describe orders.yaml
  leapalg describe orders.yaml -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(cmd, args[0])
		},
	}
}

func runDescribe(cmd *cobra.Command, path string) error {
	cc := NewCommandContext(cmd)
	root, err := cc.readPipeline(path)
	if err != nil {
		return err
	}
	out, err := describePipeline(path, root)
	if err != nil {
		return err
	}

	r := cc.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, path))
		r.Println("")
		r.Println(output.FormatKeyValue("Steps", strconv.Itoa(out.Steps)))
		r.Println(output.FormatKeyValue("Columns", strings.Join(out.Columns, ", ")))
		r.Println("")
		r.Println(output.FormatCodeBlock("", out.Plan))
		r.Println("")
		r.Println(output.FormatHeader(2, "Inputs"))
		r.Println("")
	default:
		r.Header(1, path)
		r.KeyValue("Steps", strconv.Itoa(out.Steps))
		r.KeyValue("Columns", strings.Join(out.Columns, ", "))
		r.Println("")
		r.Code(strings.TrimRight(out.Plan, "\n"))
		r.Println("")
		r.Header(2, "Inputs")
	}
	rows := make([][]string, len(out.Inputs))
	for i, in := range out.Inputs {
		kind := in.Kind
		if in.Temporary {
			kind += " (temporary)"
		}
		rows[i] = []string{in.Key, kind, strings.Join(in.Columns, ", "), strings.Join(in.Forbidden, ", ")}
	}
	r.List([]string{"Key", "Kind", "Columns", "Forbidden"}, rows)
	return nil
}

func describePipeline(path string, root ops.Node) (*DescribeOutput, error) {
	leaves, err := ops.Leaves(root)
	if err != nil {
		return nil, err
	}
	forbidden, err := ops.ForbiddenColumns(root)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(leaves))
	for k := range leaves {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	inputs := make([]LeafInfo, 0, len(keys))
	for _, k := range keys {
		info := LeafInfo{Key: k, Kind: leaves[k].Op(), Columns: leaves[k].ColumnNames(), Forbidden: forbidden[k]}
		if t, ok := leaves[k].(*ops.Table); ok {
			info.Temporary = t.Temporary()
		}
		inputs = append(inputs, info)
	}

	return &DescribeOutput{
		File:    path,
		Steps:   len(ops.PostOrder(root)),
		Columns: root.ColumnNames(),
		Plan:    ops.Format(root),
		Inputs:  inputs,
	}, nil
}
