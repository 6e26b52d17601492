package config

import (
	"github.com/leapstack-labs/leapalg/pkg/core"
	"github.com/leapstack-labs/leapalg/pkg/dialect"
)

// Default configuration values.
const (
	DefaultTargetType = "sqlite"
	DefaultDatabase   = ":memory:"
	DefaultOutput     = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultEnv        = ""
)

// ApplyTargetDefaults applies default values to a TargetConfig based on the target type.
func ApplyTargetDefaults(t *core.TargetConfig) {
	if t == nil {
		return
	}
	if t.Type == "" {
		t.Type = DefaultTargetType
	}

	switch t.Type {
	case "sqlite", "duckdb":
		if t.Database == "" {
			t.Database = DefaultDatabase
		}
	case "postgres":
		if t.Port == 0 {
			t.Port = 5432
		}
	case "mysql":
		if t.Port == 0 {
			t.Port = 3306
		}
		// MySQL schemas are databases.
		if t.Schema == "" {
			t.Schema = t.Database
		}
	}

	if t.Schema == "" {
		t.Schema = DefaultSchemaForType(t.Type)
	}
}

// DefaultSchemaForType returns the default schema for a database type.
// It looks up the dialect in the registry; if not found, returns "main" as fallback.
func DefaultSchemaForType(dbType string) string {
	if d, ok := dialect.Get(dbType); ok && d.DefaultSchema != "" {
		return d.DefaultSchema
	}
	return "main"
}
