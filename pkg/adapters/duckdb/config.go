package duckdb

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// Params holds DuckDB-specific configuration.
// Parsed from adapter.Config.Params using mapstructure.
type Params struct {
	// Extensions to install and load (e.g., "httpfs", "spatial", "json")
	Extensions []string `mapstructure:"extensions"`

	// Secrets for cloud storage authentication
	Secrets []SecretConfig `mapstructure:"secrets"`

	// Settings to apply at session level (e.g., memory_limit, threads)
	Settings map[string]string `mapstructure:"settings"`
}

// SecretConfig defines a DuckDB secret for cloud storage.
type SecretConfig struct {
	// Type: "s3", "gcs", "azure", "r2", "huggingface"
	Type string `mapstructure:"type"`

	// Provider: "config", "credential_chain", "service_account", etc.
	Provider string `mapstructure:"provider"`

	Region string `mapstructure:"region,omitempty"`

	// Scope limits the secret to specific paths (string or []string)
	Scope any `mapstructure:"scope,omitempty"`

	KeyID    string `mapstructure:"key_id,omitempty"`
	Secret   string `mapstructure:"secret,omitempty"`
	Endpoint string `mapstructure:"endpoint,omitempty"`

	// URLStyle: "vhost" or "path" for S3
	URLStyle string `mapstructure:"url_style,omitempty"`

	UseSSL *bool `mapstructure:"use_ssl,omitempty"`
}

// parseParams decodes the free-form target params. Unknown keys are errors
// so a misspelled option does not pass silently.
func parseParams(raw map[string]any) (*Params, error) {
	p := &Params{}
	if len(raw) == 0 {
		return p, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           p,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid duckdb params: %w", err)
	}
	return p, nil
}

// buildCreateSecretSQL renders a CREATE SECRET statement. TYPE and PROVIDER
// are keywords; every other value is a string literal.
func buildCreateSecretSQL(cfg SecretConfig) string {
	var opts []string
	add := func(key, value string) { opts = append(opts, key+" "+value) }

	add("TYPE", cfg.Type)
	if cfg.Provider != "" {
		add("PROVIDER", cfg.Provider)
	}
	if cfg.Region != "" {
		add("REGION", quote(cfg.Region))
	}
	if scope := formatScope(cfg.Scope); scope != "" {
		add("SCOPE", scope)
	}
	if cfg.KeyID != "" {
		add("KEY_ID", quote(cfg.KeyID))
	}
	if cfg.Secret != "" {
		add("SECRET", quote(cfg.Secret))
	}
	if cfg.Endpoint != "" {
		add("ENDPOINT", quote(cfg.Endpoint))
	}
	if cfg.URLStyle != "" {
		add("URL_STYLE", quote(cfg.URLStyle))
	}
	if cfg.UseSSL != nil {
		add("USE_SSL", fmt.Sprint(*cfg.UseSSL))
	}
	return "CREATE SECRET (\n    " + strings.Join(opts, ",\n    ") + "\n)"
}

func formatScope(scope any) string {
	var paths []string
	switch s := scope.(type) {
	case nil:
		return ""
	case string:
		return quote(s)
	case []string:
		paths = s
	case []any:
		for _, v := range s {
			paths = append(paths, fmt.Sprint(v))
		}
	default:
		return quote(fmt.Sprint(s))
	}
	quoted := make([]string, len(paths))
	for i, p := range paths {
		quoted[i] = quote(p)
	}
	return "(" + strings.Join(quoted, ", ") + ")"
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
