package config

import (
	"path/filepath"
	"strings"
)

// Format names a config file syntax.
type Format string

const (
	FormatAuto  Format = ""
	FormatJSONC Format = "jsonc"
	FormatYAML  Format = "yaml"
)

// FormatForPath picks the syntax from the file extension. Unknown extensions
// are sniffed from content.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonc", ".json":
		return FormatJSONC
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatAuto
	}
}

// Parse reads configuration content as JSONC or YAML. With FormatAuto, JSONC
// is selected when the first non-whitespace character is `{`.
func Parse(content string, format Format, base Config) (Config, []Warning, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		warnings, err := Validate(base)
		if err != nil {
			return Config{}, nil, err
		}
		return base, warnings, nil
	}

	if format == FormatAuto {
		format = FormatYAML
		if strings.HasPrefix(trimmed, "{") {
			format = FormatJSONC
		}
	}
	if format == FormatJSONC {
		return parseJSONC(content, base)
	}
	return parseYAML(content, base)
}
