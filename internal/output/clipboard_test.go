package output

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Ander2716/rag-voice-client/internal/config"
	"github.com/stretchr/testify/require"
)

func TestRunCommandWithInputWritesStdin(t *testing.T) {
	scriptPath := writeStdinCaptureScript(t)
	outputPath := filepath.Join(t.TempDir(), "stdin.txt")

	err := runCommandWithInput(context.Background(), []string{scriptPath, outputPath}, "hello from ragvoice")
	require.NoError(t, err)

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	require.Equal(t, "hello from ragvoice", string(data))
}

func TestRunCommandWithInputRejectsEmptyArgv(t *testing.T) {
	err := runCommandWithInput(context.Background(), nil, "payload")
	require.Error(t, err)
	require.Contains(t, err.Error(), "argv cannot be empty")
}

func TestCommitterUsesClipboardCommand(t *testing.T) {
	scriptPath := writeStdinCaptureScript(t)
	clipboardPath := filepath.Join(t.TempDir(), "clipboard.txt")
	stubSystemClipboard(t, func(string) error {
		t.Fatal("system clipboard used while clipboard_cmd is set")
		return nil
	})

	cfg := config.OutputConfig{
		CopyAnswer: true,
		Clipboard:  config.CommandConfig{Argv: []string{scriptPath, clipboardPath}},
	}

	err := NewCommitter(cfg, nil).Commit(context.Background(), "X is a letter")
	require.NoError(t, err)

	data, err := os.ReadFile(clipboardPath)
	require.NoError(t, err)
	require.Equal(t, "X is a letter", string(data))
}

func TestCommitterFallsBackToSystemClipboard(t *testing.T) {
	var got string
	stubSystemClipboard(t, func(text string) error {
		got = text
		return nil
	})

	err := NewCommitter(config.OutputConfig{CopyAnswer: true}, nil).Commit(context.Background(), "answer")
	require.NoError(t, err)
	require.Equal(t, "answer", got)
}

func TestCommitterSystemClipboardError(t *testing.T) {
	stubSystemClipboard(t, func(string) error { return errors.New("no clipboard utility") })

	err := NewCommitter(config.OutputConfig{CopyAnswer: true}, nil).Commit(context.Background(), "answer")
	require.Error(t, err)
	require.Contains(t, err.Error(), "set clipboard")
	require.Contains(t, err.Error(), "no clipboard utility")
}

func TestCommitterSkipsWhenDisabledOrEmpty(t *testing.T) {
	calls := 0
	stubSystemClipboard(t, func(string) error {
		calls++
		return nil
	})

	require.NoError(t, NewCommitter(config.OutputConfig{CopyAnswer: false}, nil).Commit(context.Background(), "answer"))
	require.NoError(t, NewCommitter(config.OutputConfig{CopyAnswer: true}, nil).Commit(context.Background(), "  "))
	require.Zero(t, calls)
}

func TestCommitterReturnsErrorWhenClipboardCommandFails(t *testing.T) {
	failScript := writeFailScript(t, "clipboard failed")

	cfg := config.OutputConfig{
		CopyAnswer: true,
		Clipboard:  config.CommandConfig{Argv: []string{failScript}},
	}

	err := NewCommitter(cfg, nil).Commit(context.Background(), "answer")
	require.Error(t, err)
	require.Contains(t, err.Error(), "set clipboard")
}

func stubSystemClipboard(t *testing.T, fn func(string) error) {
	t.Helper()
	previous := writeSystemClipboard
	writeSystemClipboard = fn
	t.Cleanup(func() { writeSystemClipboard = previous })
}

func writeStdinCaptureScript(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "capture-stdin.sh")
	script := `#!/usr/bin/env bash
set -euo pipefail
cat > "$1"
`
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func writeFailScript(t *testing.T, message string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "fail.sh")
	script := "#!/usr/bin/env bash\nset -euo pipefail\necho " + "\"" + message + "\"" + " >&2\nexit 1\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}
