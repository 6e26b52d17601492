package repr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leapalg/pkg/ops"
)

// Format selects an encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFor picks the encoding from a file extension. Anything that isn't
// .json is read as YAML.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Encode renders root in the given format.
func Encode(root ops.Node, f Format) ([]byte, error) {
	p, err := ToRepr(root)
	if err != nil {
		return nil, err
	}
	switch f {
	case FormatJSON:
		b, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil
	case FormatYAML, "":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("repr: unknown format %q", f)
}

// Decode parses a pipeline in the given format.
func Decode(data []byte, f Format) (ops.Node, error) {
	var p Pipeline
	switch f {
	case FormatJSON:
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("repr: decode JSON: %w", err)
		}
	case FormatYAML, "":
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("repr: decode YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("repr: unknown format %q", f)
	}
	return FromRepr(p)
}

// ReadFile decodes the pipeline stored at path.
func ReadFile(path string) (ops.Node, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is supplied by the user
	if err != nil {
		return nil, fmt.Errorf("read pipeline: %w", err)
	}
	n, err := Decode(data, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}
