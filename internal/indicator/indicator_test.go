package indicator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/Ander2716/rag-voice-client/internal/config"
	"github.com/Ander2716/rag-voice-client/internal/locale"
	"github.com/stretchr/testify/require"
)

func hyprConfig() config.IndicatorConfig {
	cfg := config.Default().Indicator
	cfg.Backend = "hypr"
	cfg.Enable = true
	cfg.SoundEnable = false
	return cfg
}

func TestHyprNotifierDispatchSequence(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installHyprctlStub(t, `
printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"
`)

	msg := locale.For(locale.English)
	notify := New(hyprConfig(), msg, nil)
	ctx := context.Background()
	notify.ShowRecording(ctx)
	notify.ShowTranscribing(ctx)
	notify.ShowReady(ctx, "define X")
	notify.ShowLoading(ctx, msg.Sending("define X"))
	notify.ShowAnswer(ctx, "X is a letter")
	notify.ShowError(ctx, "boom")
	notify.Hide(ctx)

	lines := readLines(t, argsFile)
	require.Equal(t, []string{
		"--quiet dispatch notify 1 300000 rgb(89b4fa) " + msg.Recording,
		"--quiet dispatch notify 1 300000 rgb(cba6f7) " + msg.Transcribing,
		"--quiet dispatch notify 2 300000 rgb(f9e2af) " + msg.ReadyToSend,
		"define X",
		"--quiet dispatch notify 1 300000 rgb(fab387) " + msg.Sending("define X"),
		"--quiet dispatch notify 5 8000 rgb(a6e3a1) X is a letter",
		"--quiet dispatch notify 3 1600 rgb(f38ba8) boom",
		"--quiet dispatch dismissnotify",
	}, lines)
}

func TestHyprNotifierShowErrorDefaultTimeoutAndText(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installHyprctlStub(t, `
printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"
`)

	cfg := hyprConfig()
	cfg.ErrorTimeoutMS = 0
	msg := locale.For(locale.Spanish)

	notify := New(cfg, msg, nil)
	notify.ShowError(context.Background(), "")
	notify.ShowAnswer(context.Background(), " ")

	require.Equal(t, []string{
		"--quiet dispatch notify 3 1200 rgb(f38ba8) " + msg.RecognitionError("unknown"),
		"--quiet dispatch notify 5 8000 rgb(a6e3a1) " + msg.Answered,
	}, readLines(t, argsFile))
}

func TestNotifierDisabledSkipsDispatch(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installHyprctlStub(t, `
printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"
`)

	cfg := hyprConfig()
	cfg.Enable = false

	notify := New(cfg, locale.For(locale.English), nil)
	notify.ShowRecording(context.Background())
	notify.ShowTranscribing(context.Background())
	notify.ShowError(context.Background(), "ignored")
	notify.Hide(context.Background())

	_, err := os.Stat(argsFile)
	require.True(t, os.IsNotExist(err))
}

func TestNotifierSurvivesDispatchFailure(t *testing.T) {
	installHyprctlStub(t, `
exit 1
`)

	notify := New(hyprConfig(), locale.For(locale.English), nil)
	require.NotPanics(t, func() {
		notify.ShowRecording(context.Background())
		notify.Hide(context.Background())
	})
}

func TestNotifierCuesFollowSoundSetting(t *testing.T) {
	cfg := hyprConfig()
	cfg.Enable = false
	cfg.SoundEnable = true

	var mu sync.Mutex
	var played []cueKind
	notify := New(cfg, locale.For(locale.English), nil)
	notify.play = func(kind cueKind) error {
		mu.Lock()
		defer mu.Unlock()
		played = append(played, kind)
		return nil
	}

	ctx := context.Background()
	notify.ShowRecording(ctx)
	notify.Wait()
	notify.CueStop(ctx)
	notify.Wait()
	notify.CueComplete(ctx)
	notify.Wait()
	notify.CueCancel(ctx)
	notify.Wait()

	require.Equal(t, []cueKind{cueStart, cueStop, cueComplete, cueCancel}, played)

	cfg.SoundEnable = false
	silent := New(cfg, locale.For(locale.English), nil)
	silent.play = func(cueKind) error {
		t.Fatal("cue played with sound disabled")
		return nil
	}
	silent.CueStop(ctx)
	silent.Wait()
}

func TestDesktopSurfaceReplacesAndDismissesNotification(t *testing.T) {
	var calls [][]string
	surface := &desktopSurface{
		appName: "ragvoice",
		busctl: func(_ context.Context, args ...string) ([]byte, error) {
			calls = append(calls, args)
			if args[5] == "Notify" {
				return []byte("u 42\n"), nil
			}
			return nil, nil
		},
	}

	ctx := context.Background()
	require.NoError(t, surface.notify(ctx, 1, 500, "", "first"))
	require.NoError(t, surface.notify(ctx, 1, 500, "", "second"))
	require.NoError(t, surface.dismiss(ctx))
	require.NoError(t, surface.dismiss(ctx))

	require.Len(t, calls, 3)
	require.Equal(t, "ragvoice", calls[0][7])
	require.Equal(t, "0", calls[0][8])
	require.Equal(t, "first", calls[0][10])
	require.Equal(t, "500", calls[0][14])
	require.Equal(t, "42", calls[1][8])
	require.Equal(t, []string{"CloseNotification", "u", "42"}, calls[2][5:])
}

func TestDesktopSurfaceRejectsInvalidResponse(t *testing.T) {
	surface := &desktopSurface{
		appName: "ragvoice",
		busctl: func(context.Context, ...string) ([]byte, error) {
			return []byte("s nope"), nil
		},
	}

	err := surface.notify(context.Background(), 1, 500, "", "text")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid response")
}

func TestDesktopSurfaceIncludesBusctlOutputOnFailure(t *testing.T) {
	surface := &desktopSurface{
		appName: "ragvoice",
		busctl: func(context.Context, ...string) ([]byte, error) {
			return []byte("no session bus\n"), errors.New("exit status 1")
		},
	}

	err := surface.notify(context.Background(), 1, 500, "", "text")
	require.Error(t, err)
	require.Contains(t, err.Error(), "desktop notify failed")
	require.Contains(t, err.Error(), "no session bus")
}

func TestDesktopSurfaceFallsBackWithoutBusctl(t *testing.T) {
	var got []string
	surface := &desktopSurface{
		appName: "ragvoice",
		busctl: func(context.Context, ...string) ([]byte, error) {
			return nil, &exec.Error{Name: "busctl", Err: exec.ErrNotFound}
		},
		fallback: func(title string, message string) error {
			got = append(got, fmt.Sprintf("%s|%s", title, message))
			return nil
		},
	}

	require.NoError(t, surface.notify(context.Background(), 1, 500, "", "Grabando..."))
	require.Equal(t, []string{"ragvoice|Grabando..."}, got)
	require.NoError(t, surface.dismiss(context.Background()))
}

func TestSurfaceForBackend(t *testing.T) {
	cfg := config.Default().Indicator

	cfg.Backend = "hypr"
	require.IsType(t, hyprSurface{}, surfaceFor(cfg))

	cfg.Backend = "desktop"
	cfg.DesktopAppName = ""
	desktop, ok := surfaceFor(cfg).(*desktopSurface)
	require.True(t, ok)
	require.Equal(t, "ragvoice", desktop.appName)
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func installHyprctlStub(t *testing.T, body string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "hyprctl")
	script := "#!/usr/bin/env bash\nset -euo pipefail\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))
}
