// Package config provides configuration management for the leapalg CLI.
//
// Settings come from defaults, a leapalg.yaml file, LEAPALG_ environment
// variables and command-line flags, in increasing order of precedence.
// The shared target type lives in pkg/core and is re-exported here.
package config

import (
	sharedcfg "github.com/leapstack-labs/leapalg/internal/config"
	"github.com/leapstack-labs/leapalg/pkg/core"
)

// TargetConfig is an alias for the shared target configuration.
// This allows CLI code to use config.TargetConfig without importing pkg/core.
type TargetConfig = core.TargetConfig

// Config holds all CLI configuration options.
type Config struct {
	// Dialect compiled SQL targets. Empty follows the target type.
	Dialect      string               `koanf:"dialect"`
	Mode         string               `koanf:"mode"`
	Pretty       bool                 `koanf:"pretty"`
	Strict       bool                 `koanf:"strict"`
	Environment  string               `koanf:"environment"`
	Verbose      bool                 `koanf:"verbose"`
	OutputFormat string               `koanf:"output"`
	Target       *TargetConfig        `koanf:"target"`
	Environments map[string]EnvConfig `koanf:"environments"`

	// ProjectRoot anchors relative paths. It is not read from the file.
	ProjectRoot string `koanf:"-"`
}

// EnvConfig holds environment-specific configuration overrides.
type EnvConfig struct {
	Dialect string        `koanf:"dialect"`
	Target  *TargetConfig `koanf:"target"`
}

// Default configuration values - uses shared defaults from internal/config
const (
	DefaultEnv    = sharedcfg.DefaultEnv
	DefaultOutput = sharedcfg.DefaultOutput
	// FallbackDialect is used when neither dialect nor target type names one.
	FallbackDialect = "ansi"
)
