package config

import (
	"fmt"

	sharedcfg "github.com/leapstack-labs/leapalg/internal/config"
	"github.com/leapstack-labs/leapalg/pkg/dialect"
	"github.com/leapstack-labs/leapalg/pkg/sqlgen"
)

// validOutputs lists the accepted values of the output key.
var validOutputs = map[string]bool{"auto": true, "text": true, "markdown": true, "json": true}

// DialectName returns the dialect compiled SQL targets: the dialect key if
// set, else the target type when a dialect of that name exists, else ANSI.
func (c *Config) DialectName() string {
	if c.Dialect != "" {
		return c.Dialect
	}
	if c.Target != nil {
		if _, ok := dialect.Get(c.Target.Type); ok {
			return c.Target.Type
		}
	}
	return FallbackDialect
}

// SQLDialect resolves DialectName in the dialect registry.
func (c *Config) SQLDialect() (*dialect.Dialect, error) {
	return dialect.Lookup(c.DialectName())
}

// SQLMode parses the mode key.
func (c *Config) SQLMode() (sqlgen.Mode, error) {
	return sqlgen.ParseMode(c.Mode)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := c.SQLDialect(); err != nil {
		return fmt.Errorf("invalid dialect: %w", err)
	}
	if _, err := c.SQLMode(); err != nil {
		return err
	}
	if !validOutputs[c.OutputFormat] {
		return fmt.Errorf("unknown output format %q (want auto, text, markdown or json)", c.OutputFormat)
	}
	if c.Environment != "" {
		if _, ok := c.Environments[c.Environment]; !ok {
			return fmt.Errorf("environment %q is not defined in config", c.Environment)
		}
	}
	if err := sharedcfg.ValidateTarget(c.Target); err != nil {
		return fmt.Errorf("invalid target configuration: %w", err)
	}
	return nil
}
