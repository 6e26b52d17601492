// Package config provides shared configuration helpers for leapalg: target
// defaults, target validation and config file discovery. The CLI layers
// flags and environment variables on top in internal/cli/config.
package config

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapalg/pkg/adapter"
	"github.com/leapstack-labs/leapalg/pkg/core"
)

// ValidateTarget checks that the target names a registered adapter and
// carries the fields that adapter needs.
func ValidateTarget(t *core.TargetConfig) error {
	if t == nil {
		return fmt.Errorf("target is required")
	}
	if t.Type == "" {
		return fmt.Errorf("target type is required")
	}

	// Use adapter registry as single source of truth
	if !adapter.IsRegistered(strings.ToLower(t.Type)) {
		return &adapter.UnknownAdapterError{
			Type:      t.Type,
			Available: adapter.ListAdapters(),
		}
	}

	switch strings.ToLower(t.Type) {
	case "postgres", "mysql":
		if t.Host == "" {
			return fmt.Errorf("target %s requires host", t.Type)
		}
	}
	if t.Port < 0 || t.Port > 65535 {
		return fmt.Errorf("target port %d out of range", t.Port)
	}
	return nil
}

// MergeTarget merges two target configs, with override taking precedence.
func MergeTarget(base, override *core.TargetConfig) *core.TargetConfig {
	if base == nil {
		return override.Clone()
	}
	if override == nil {
		return base.Clone()
	}

	merged := base.Clone()
	if merged.Options == nil {
		merged.Options = make(map[string]string)
	}
	if merged.Params == nil {
		merged.Params = make(map[string]any)
	}

	if override.Type != "" {
		merged.Type = override.Type
	}
	if override.Database != "" {
		merged.Database = override.Database
	}
	if override.Host != "" {
		merged.Host = override.Host
	}
	if override.Port != 0 {
		merged.Port = override.Port
	}
	if override.User != "" {
		merged.User = override.User
	}
	if override.Password != "" {
		merged.Password = override.Password
	}
	if override.Schema != "" {
		merged.Schema = override.Schema
	}

	for k, v := range override.Options {
		merged.Options[k] = v
	}
	for k, v := range override.Params {
		merged.Params[k] = v
	}
	return merged
}
