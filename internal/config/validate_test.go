package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateDefaultsPass(t *testing.T) {
	warnings, err := Validate(Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestValidateRejectsInvalidCoreFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "malformed endpoint", mutate: func(c *Config) { c.Endpoint.URL = "not a url" }, wantErr: "endpoint.url must be a valid URL"},
		{name: "negative endpoint timeout", mutate: func(c *Config) { c.Endpoint.TimeoutMS = -1 }, wantErr: "endpoint.timeout_ms must be >= 0"},
		{name: "empty stt url", mutate: func(c *Config) { c.STT.URL = "" }, wantErr: "stt.url"},
		{name: "bad health path", mutate: func(c *Config) { c.STT.HealthPath = "health" }, wantErr: "must start"},
		{name: "empty language", mutate: func(c *Config) { c.STT.Language = "" }, wantErr: "stt.language"},
		{name: "unknown backend", mutate: func(c *Config) { c.Indicator.Backend = "waybar" }, wantErr: "indicator.backend must be one of: hypr, desktop"},
		{name: "desktop without app name", mutate: func(c *Config) {
			c.Indicator.Backend = "desktop"
			c.Indicator.DesktopAppName = ""
		}, wantErr: "indicator.desktop_app_name"},
		{name: "negative error timeout", mutate: func(c *Config) { c.Indicator.ErrorTimeoutMS = -1 }, wantErr: "error_timeout"},
		{name: "clipboard raw but empty argv", mutate: func(c *Config) {
			c.Output.Clipboard = CommandConfig{Raw: "# disabled"}
		}, wantErr: "clipboard_cmd"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)

			_, err := Validate(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateHyprBackendAllowsEmptyAppName(t *testing.T) {
	cfg := Default()
	cfg.Indicator.Backend = "hypr"
	cfg.Indicator.DesktopAppName = ""
	_, err := Validate(cfg)
	require.NoError(t, err)
}

func TestValidateWarnsWhenCopyUsesSystemClipboard(t *testing.T) {
	cfg := Default()
	cfg.Output.CopyAnswer = true
	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "system clipboard")
}

func TestValidateEndpoint(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantErr      string
		unconfigured bool
	}{
		{name: "valid https", raw: "https://rag.internal/api/query"},
		{name: "valid http with port", raw: "http://10.0.0.4:8080/query"},
		{name: "empty", raw: "  ", wantErr: "not configured", unconfigured: true},
		{name: "cloudflare placeholder", raw: "https://tu-url-de-cloudflare.trycloudflare.com/query", wantErr: "placeholder", unconfigured: true},
		{name: "example.com", raw: "https://example.com/query", wantErr: "placeholder", unconfigured: true},
		{name: "example.invalid", raw: "https://api.example.invalid", wantErr: "placeholder", unconfigured: true},
		{name: "localhost.invalid", raw: "http://localhost.invalid:3000", wantErr: "placeholder", unconfigured: true},
		{name: "example.com subdomain", raw: "https://api.example.com/query", wantErr: "placeholder", unconfigured: true},
		{name: "placeholder host is case-insensitive", raw: "https://Example.COM./query", wantErr: "placeholder", unconfigured: true},
		{name: "host merely containing example", raw: "https://rag.myexample.com/ask"},
		{name: "example label in another domain", raw: "https://api.example.company.io/ask"},
		{name: "example.com as a prefix", raw: "https://example.com.mx/ask"},
		{name: "placeholder text in path only", raw: "https://rag.internal/tu-url-de-cloudflare"},
		{name: "bad scheme", raw: "ftp://rag.internal/query", wantErr: "scheme"},
		{name: "missing host", raw: "https:///query", wantErr: "missing host"},
		{name: "unparseable", raw: "http://[::1", wantErr: "invalid endpoint.url"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateEndpoint(tc.raw)
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
			require.Equal(t, tc.unconfigured, errors.Is(err, ErrEndpointNotConfigured))
		})
	}
}
