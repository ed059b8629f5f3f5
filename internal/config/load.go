package config

import (
	"errors"
	"fmt"
	"os"
)

// Loaded captures resolved config path, parsed values, and non-fatal warnings.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

// Load resolves, reads, parses, and validates the runtime configuration.
//
// Values from a sibling .env file and the process environment are applied
// after the file, in that order.
func Load(explicitPath string) (Loaded, error) {
	resolvedPath, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	loaded := Loaded{Path: resolvedPath}
	content, err := os.ReadFile(resolvedPath)
	switch {
	case err == nil:
		cfg, warnings, err := Parse(string(content), FormatForPath(resolvedPath), Default())
		if err != nil {
			return Loaded{}, fmt.Errorf("parse config %q: %w", resolvedPath, err)
		}
		loaded.Config = cfg
		loaded.Warnings = warnings
		loaded.Exists = true
	case errors.Is(err, os.ErrNotExist):
		loaded.Config = Default()
		loaded.Warnings = []Warning{{
			Message: fmt.Sprintf("config file %q not found; using defaults", resolvedPath),
		}}
	default:
		return Loaded{}, fmt.Errorf("read config %q: %w", resolvedPath, err)
	}

	changed, envWarnings, err := applyEnvOverrides(&loaded.Config, resolvedPath)
	if err != nil {
		return Loaded{}, err
	}
	if changed {
		if _, err := Validate(loaded.Config); err != nil {
			return Loaded{}, fmt.Errorf("environment override: %w", err)
		}
	}
	if loaded.Config.Endpoint.URL == "" {
		loaded.Warnings = append(loaded.Warnings, Warning{Message: "endpoint.url is not set; serve will refuse to start"})
	}
	loaded.Warnings = append(loaded.Warnings, envWarnings...)
	return loaded, nil
}
