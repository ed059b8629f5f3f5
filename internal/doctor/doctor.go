// Package doctor runs readiness diagnostics for config, endpoint, speech service, audio and indicator tools.
package doctor

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/Ander2716/rag-voice-client/internal/audio"
	"github.com/Ander2716/rag-voice-client/internal/config"
	"github.com/Ander2716/rag-voice-client/internal/hypr"
	"github.com/Ander2716/rag-voice-client/internal/recognizer"
	"github.com/atotto/clipboard"
)

const probeTimeout = 3 * time.Second

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(ctx context.Context, loaded config.Loaded) Report {
	cfg := loaded.Config
	checks := []Check{checkConfig(loaded)}

	endpoint := checkEndpointURL(cfg.Endpoint.URL)
	checks = append(checks, endpoint)
	if endpoint.Pass {
		checks = append(checks, CheckEndpointReachable(ctx, cfg.Endpoint.URL))
	}

	checks = append(checks, checkSTTHealth(ctx, cfg.STT))
	checks = append(checks, checkAudioSelection(ctx, cfg))
	checks = append(checks, checkIndicator(ctx, cfg.Indicator)...)
	checks = append(checks, checkSoundFiles(cfg.Indicator)...)

	if cfg.Output.CopyAnswer {
		checks = append(checks, checkClipboard(cfg.Output))
	}

	return Report{Checks: checks}
}

func checkConfig(loaded config.Loaded) Check {
	if !loaded.Exists {
		return Check{Name: "config", Pass: true, Message: fmt.Sprintf("%q not found; using defaults", loaded.Path)}
	}
	message := fmt.Sprintf("loaded %q", loaded.Path)
	if n := len(loaded.Warnings); n > 0 {
		message = fmt.Sprintf("%s with %d warning(s)", message, n)
	}
	return Check{Name: "config", Pass: true, Message: message}
}

func checkEndpointURL(raw string) Check {
	if err := config.ValidateEndpoint(raw); err != nil {
		return Check{Name: "endpoint.url", Pass: false, Message: err.Error()}
	}
	return Check{Name: "endpoint.url", Pass: true, Message: strings.TrimSpace(raw)}
}

// CheckEndpointReachable issues a HEAD request. Any HTTP response counts as
// reachable.
func CheckEndpointReachable(ctx context.Context, raw string) Check {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	url := strings.TrimSpace(raw)
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return Check{Name: "endpoint.reachable", Pass: false, Message: fmt.Sprintf("build request: %v", err)}
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Check{Name: "endpoint.reachable", Pass: false, Message: fmt.Sprintf("request failed: %v", err)}
	}
	_ = resp.Body.Close()
	return Check{Name: "endpoint.reachable", Pass: true, Message: fmt.Sprintf("HTTP %d from %s", resp.StatusCode, url)}
}

// checkSTTHealth probes the speech service health endpoint.
func checkSTTHealth(ctx context.Context, stt config.STTConfig) Check {
	client, err := recognizer.New(recognizer.Config{
		BaseURL:    stt.URL,
		HealthPath: stt.HealthPath,
		Timeout:    probeTimeout,
	}, nil)
	if err != nil {
		return Check{Name: "stt.health", Pass: false, Message: err.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	url := strings.TrimRight(strings.TrimSpace(stt.URL), "/") + stt.HealthPath
	if err := client.Health(ctx); err != nil {
		return Check{Name: "stt.health", Pass: false, Message: fmt.Sprintf("%s: %v", url, err)}
	}
	return Check{Name: "stt.health", Pass: true, Message: fmt.Sprintf("ready at %s", url)}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(ctx context.Context, cfg config.Config) Check {
	selection, err := audio.SelectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

func checkIndicator(ctx context.Context, cfg config.IndicatorConfig) []Check {
	if !cfg.Enable {
		return nil
	}
	if strings.EqualFold(cfg.Backend, "hypr") {
		bin := checkBinary("hyprctl", "hypr indicator backend")
		if !bin.Pass {
			return []Check{bin}
		}
		ctx, cancel := context.WithTimeout(ctx, probeTimeout)
		defer cancel()
		monitor, err := hypr.QueryFocusedMonitor(ctx)
		if err != nil {
			return []Check{bin, {Name: "hypr.monitor", Pass: false, Message: err.Error()}}
		}
		return []Check{bin, {Name: "hypr.monitor", Pass: true, Message: fmt.Sprintf("focused monitor %q", monitor)}}
	}

	if path, err := exec.LookPath("busctl"); err == nil {
		return []Check{{Name: "busctl", Pass: true, Message: fmt.Sprintf("found at %s (desktop indicator backend)", path)}}
	}
	return []Check{{Name: "busctl", Pass: true, Message: "not found; desktop notifications use the fallback notifier"}}
}

func checkSoundFiles(cfg config.IndicatorConfig) []Check {
	if !cfg.SoundEnable {
		return nil
	}
	files := []struct {
		key  string
		path string
	}{
		{"indicator.sound_start_file", cfg.SoundStartFile},
		{"indicator.sound_stop_file", cfg.SoundStopFile},
		{"indicator.sound_complete_file", cfg.SoundCompleteFile},
		{"indicator.sound_cancel_file", cfg.SoundCancelFile},
	}

	var checks []Check
	for _, file := range files {
		path := strings.TrimSpace(file.path)
		if path == "" {
			continue
		}
		if _, err := os.Stat(expandHome(path)); err != nil {
			checks = append(checks, Check{Name: file.key, Pass: false, Message: err.Error()})
			continue
		}
		checks = append(checks, Check{Name: file.key, Pass: true, Message: path})
	}
	return checks
}

func checkClipboard(cfg config.OutputConfig) Check {
	if len(cfg.Clipboard.Argv) > 0 {
		return checkCommand(cfg.Clipboard.Argv, "clipboard_cmd")
	}
	if clipboard.Unsupported {
		return Check{Name: "clipboard", Pass: false, Message: "no system clipboard utility found (install wl-clipboard, xclip or xsel)"}
	}
	return Check{Name: "clipboard", Pass: true, Message: "system clipboard available"}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return home + path[1:]
}
