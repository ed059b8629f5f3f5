package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvEndpointURL = "RAGVOICE_ENDPOINT_URL"
	EnvSTTURL      = "RAGVOICE_STT_URL"
)

// dotenvPath returns the .env file that sits next to the config file.
func dotenvPath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), ".env")
}

// applyEnvOverrides layers .env values and then process environment values
// over cfg. It reports whether anything changed.
func applyEnvOverrides(cfg *Config, configPath string) (bool, []Warning, error) {
	values := map[string]string{}
	warnings := make([]Warning, 0)

	path := dotenvPath(configPath)
	fileValues, err := godotenv.Read(path)
	switch {
	case err == nil:
		for key, value := range fileValues {
			values[key] = value
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return false, nil, fmt.Errorf("read env file %q: %w", path, err)
	}

	for _, key := range []string{EnvEndpointURL, EnvSTTURL} {
		if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
			values[key] = value
		}
	}

	changed := false
	if value := strings.TrimSpace(values[EnvEndpointURL]); value != "" {
		cfg.Endpoint.URL = value
		changed = true
	}
	if value := strings.TrimSpace(values[EnvSTTURL]); value != "" {
		cfg.STT.URL = value
		changed = true
	}
	if changed {
		warnings = append(warnings, Warning{Message: "environment overrides applied"})
	}
	return changed, warnings, nil
}
