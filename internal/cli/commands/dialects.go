package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapalg/internal/cli/output"
	"github.com/leapstack-labs/leapalg/pkg/dialect"
)

// DialectInfo describes a registered dialect.
type DialectInfo struct {
	Name          string `json:"name"`
	Quote         string `json:"quote"`
	DefaultSchema string `json:"default_schema,omitempty"`
	DefaultMode   string `json:"default_mode"`
	Active        bool   `json:"active"`
}

// NewDialectsCommand creates the dialects command.
func NewDialectsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dialects",
		Short: "List the SQL dialects pipelines compile to",
		Long: `List every registered SQL dialect with its identifier quoting,
default schema and preferred query layout. The active dialect is the one
compile uses with the current configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContext(cmd)
			active := strings.ToLower(cc.Cfg.DialectName())

			var infos []DialectInfo
			for _, name := range dialect.List() {
				d, ok := dialect.Get(name)
				if !ok {
					continue
				}
				mode := "nested"
				if d.PreferCTE {
					mode = "cte"
				}
				infos = append(infos, DialectInfo{
					Name:          name,
					Quote:         d.Identifiers.Quote + d.Identifiers.QuoteEnd,
					DefaultSchema: d.DefaultSchema,
					DefaultMode:   mode,
					Active:        name == active,
				})
			}

			r := cc.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(infos)
			}
			rows := make([][]string, len(infos))
			for i, info := range infos {
				mark := ""
				if info.Active {
					mark = "*"
				}
				rows[i] = []string{mark, info.Name, info.Quote, info.DefaultSchema, info.DefaultMode}
			}
			r.List([]string{"", "Dialect", "Quote", "Schema", "Mode"}, rows)
			return nil
		},
	}
}
