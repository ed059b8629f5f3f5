package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDotenvOverridesFile(t *testing.T) {
	t.Setenv(EnvEndpointURL, "")
	t.Setenv(EnvSTTURL, "")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`{"endpoint":{"url":"https://file.internal/q"}}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("RAGVOICE_ENDPOINT_URL=https://dotenv.internal/q\nRAGVOICE_STT_URL=http://127.0.0.1:9100\n"), 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://dotenv.internal/q", loaded.Config.Endpoint.URL)
	require.Equal(t, "http://127.0.0.1:9100", loaded.Config.STT.URL)
	require.Contains(t, loaded.Warnings[len(loaded.Warnings)-1].Message, "environment overrides")
}

func TestLoadProcessEnvOverridesDotenv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("RAGVOICE_ENDPOINT_URL=https://dotenv.internal/q\n"), 0o600))
	t.Setenv(EnvEndpointURL, "https://process.internal/q")
	t.Setenv(EnvSTTURL, "")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.False(t, loaded.Exists)
	require.Equal(t, "https://process.internal/q", loaded.Config.Endpoint.URL)
}

func TestLoadRejectsInvalidOverride(t *testing.T) {
	t.Setenv(EnvEndpointURL, "")
	t.Setenv(EnvSTTURL, "::not a url")
	path := filepath.Join(t.TempDir(), "config.jsonc")

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "environment override")
	require.Contains(t, err.Error(), "stt.url")
}
