package doctor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/Ander2716/rag-voice-client/internal/config"
	"github.com/stretchr/testify/require"
)

func TestReportOKAndString(t *testing.T) {
	report := Report{Checks: []Check{
		{Name: "one", Pass: true, Message: "good"},
		{Name: "two", Pass: false, Message: "bad"},
	}}

	require.False(t, report.OK())
	text := report.String()
	require.Contains(t, text, "[OK] one: good")
	require.Contains(t, text, "[FAIL] two: bad")
}

func TestReportOKAllPassing(t *testing.T) {
	report := Report{Checks: []Check{{Name: "one", Pass: true}, {Name: "two", Pass: true}}}
	require.True(t, report.OK())
}

func TestCheckConfig(t *testing.T) {
	missing := checkConfig(config.Loaded{Path: "/tmp/none.jsonc"})
	require.True(t, missing.Pass)
	require.Contains(t, missing.Message, "not found")

	loaded := checkConfig(config.Loaded{Path: "/tmp/c.jsonc", Exists: true, Warnings: []config.Warning{{Message: "x"}}})
	require.True(t, loaded.Pass)
	require.Contains(t, loaded.Message, "1 warning(s)")
}

func TestCheckEndpointURL(t *testing.T) {
	require.False(t, checkEndpointURL("").Pass)
	require.False(t, checkEndpointURL("https://tu-url-de-cloudflare.trycloudflare.com/query").Pass)
	require.False(t, checkEndpointURL("ftp://answers.internal/query").Pass)

	check := checkEndpointURL(" https://rag.example.org/query ")
	require.True(t, check.Pass)
	require.Equal(t, "https://rag.example.org/query", check.Message)
}

func TestCheckEndpointReachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodHead, r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))
	t.Cleanup(server.Close)

	check := CheckEndpointReachable(context.Background(), server.URL+"/query")
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "HTTP 405")

	server.Close()
	check = CheckEndpointReachable(context.Background(), server.URL+"/query")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "request failed")
}

func TestCheckSTTHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	stt := config.Default().STT
	stt.URL = server.URL

	check := checkSTTHealth(context.Background(), stt)
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "ready at")

	stt.HealthPath = "/v1/ready"
	check = checkSTTHealth(context.Background(), stt)
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "status 404")
}

func TestCheckSTTHealthEmptyURL(t *testing.T) {
	stt := config.Default().STT
	stt.URL = " "

	check := checkSTTHealth(context.Background(), stt)
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "url is empty")
}

func TestCheckAudioSelectionFailureWithInvalidPulseServer(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")

	check := checkAudioSelection(context.Background(), config.Default())
	require.False(t, check.Pass)
	require.Equal(t, "audio.device", check.Name)
}

func TestCheckIndicatorHyprBackend(t *testing.T) {
	installStub(t, "hyprctl", `echo '[{"name":"DP-1","focused":true}]'`)

	cfg := config.Default().Indicator
	cfg.Backend = "hypr"

	checks := checkIndicator(context.Background(), cfg)
	require.Len(t, checks, 2)
	require.True(t, checks[0].Pass)
	require.True(t, checks[1].Pass)
	require.Contains(t, checks[1].Message, `"DP-1"`)
}

func TestCheckIndicatorHyprMissing(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	cfg := config.Default().Indicator
	cfg.Backend = "hypr"

	checks := checkIndicator(context.Background(), cfg)
	require.Len(t, checks, 1)
	require.False(t, checks[0].Pass)
}

func TestCheckIndicatorDesktopAlwaysPasses(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	checks := checkIndicator(context.Background(), config.Default().Indicator)
	require.Len(t, checks, 1)
	require.True(t, checks[0].Pass)
	require.Contains(t, checks[0].Message, "fallback")

	disabled := config.Default().Indicator
	disabled.Enable = false
	require.Empty(t, checkIndicator(context.Background(), disabled))
}

func TestCheckSoundFiles(t *testing.T) {
	existing := filepath.Join(t.TempDir(), "start.wav")
	require.NoError(t, os.WriteFile(existing, []byte("RIFF"), 0o600))

	cfg := config.Default().Indicator
	cfg.SoundStartFile = existing
	cfg.SoundStopFile = filepath.Join(t.TempDir(), "missing.wav")

	checks := checkSoundFiles(cfg)
	require.Len(t, checks, 2)
	require.True(t, checks[0].Pass)
	require.False(t, checks[1].Pass)

	cfg.SoundEnable = false
	require.Empty(t, checkSoundFiles(cfg))
}

func TestCheckCommandEmpty(t *testing.T) {
	check := checkCommand(nil, "clipboard_cmd")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "command is empty")
}

func TestCheckBinaryFound(t *testing.T) {
	check := checkBinary("sh", "shell available")
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "shell available")
}

func TestCheckBinaryMissing(t *testing.T) {
	check := checkBinary("definitely-not-a-real-binary", "unused")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "binary not found")
}

func TestCheckClipboardUsesConfiguredCommand(t *testing.T) {
	installStub(t, "fake-copy", "exit 0")

	check := checkClipboard(config.OutputConfig{
		CopyAnswer: true,
		Clipboard:  config.CommandConfig{Raw: "fake-copy --primary", Argv: []string{"fake-copy", "--primary"}},
	})
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "clipboard_cmd command is available")
}

func TestRunSkipsReachabilityForInvalidEndpoint(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")

	cfg := config.Default()
	cfg.Endpoint.URL = ""
	cfg.STT.URL = "http://127.0.0.1:1"
	cfg.Indicator.Enable = false

	report := Run(context.Background(), config.Loaded{Path: "/tmp/config.jsonc", Config: cfg})
	require.False(t, report.OK())

	names := map[string]bool{}
	for _, check := range report.Checks {
		names[check.Name] = true
	}
	require.True(t, names["config"])
	require.True(t, names["endpoint.url"])
	require.False(t, names["endpoint.reachable"])
	require.True(t, names["stt.health"])
	require.True(t, names["audio.device"])
	require.False(t, names["clipboard"])
}

func installStub(t *testing.T, name string, body string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, name)
	script := "#!/usr/bin/env bash\nset -euo pipefail\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))
}
