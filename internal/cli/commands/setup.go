package commands

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapalg/internal/cli/config"
	"github.com/leapstack-labs/leapalg/internal/cli/output"
	intconfig "github.com/leapstack-labs/leapalg/internal/config"
	"github.com/leapstack-labs/leapalg/pkg/adapter"
	"github.com/leapstack-labs/leapalg/pkg/ops"
	"github.com/leapstack-labs/leapalg/pkg/repr"
	"github.com/leapstack-labs/leapalg/pkg/sqlgen"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext for cmd.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}
}

// commandContext returns the command's context, or a background context when the
// command runs outside cobra's Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// CompileOptions builds sqlgen options from the configuration.
func (c *CommandContext) CompileOptions() (sqlgen.Options, error) {
	mode, err := c.Cfg.SQLMode()
	if err != nil {
		return sqlgen.Options{}, err
	}
	return sqlgen.Options{Mode: mode, Pretty: c.Cfg.Pretty, Logger: c.Logger}, nil
}

// OpenAdapter connects to the configured target. Callers close it.
func (c *CommandContext) OpenAdapter(ctx context.Context) (adapter.Adapter, error) {
	c.Logger.Debug("connecting to target",
		slog.String("type", c.Cfg.Target.Type),
		slog.String("database", c.Cfg.Target.Database),
	)
	return adapter.Open(ctx, c.Cfg.Target.AdapterConfig(), c.Logger)
}

// readPipeline loads a pipeline file, logging what it holds.
func (c *CommandContext) readPipeline(path string) (ops.Node, error) {
	root, err := repr.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("read pipeline",
		slog.String("path", path),
		slog.Int("steps", len(ops.PostOrder(root))),
	)
	return root, nil
}

// getConfig returns the current configuration, or defaults when no
// configuration has been loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	target := &config.TargetConfig{}
	intconfig.ApplyTargetDefaults(target)
	return &config.Config{
		OutputFormat: config.DefaultOutput,
		Target:       target,
	}
}
