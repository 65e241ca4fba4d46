package display

import (
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/teranos/qsup/errors"
)

// Output formats for structured documents
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// Marshal encodes v in the named format.
func Marshal(format string, v interface{}) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatJSON:
		data, err := MarshalJSON(v)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal JSON")
		}
		return append(data, '\n'), nil
	case FormatYAML, "yml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal YAML")
		}
		return data, nil
	case FormatTOML:
		data, err := toml.Marshal(v)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal TOML")
		}
		return data, nil
	default:
		return nil, errors.WithHint(
			errors.Newf("unsupported format: %s", format),
			"supported formats: toml, json, yaml",
		)
	}
}

// FormatFromPath picks a format from a file extension.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", errors.WithHint(
			errors.Newf("cannot infer report format from %q", path),
			"use a .json, .yaml, .yml or .toml extension",
		)
	}
}
