// Package output applies answer side effects beyond on-screen display.
package output

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/Ander2716/rag-voice-client/internal/config"
	"github.com/atotto/clipboard"
)

const clipboardTimeout = 2 * time.Second

// writeSystemClipboard is swapped in tests.
var writeSystemClipboard = clipboard.WriteAll

// Committer copies received answers to the clipboard when enabled.
type Committer struct {
	config config.OutputConfig
	logger *slog.Logger
}

// NewCommitter constructs an answer committer from runtime config.
func NewCommitter(cfg config.OutputConfig, logger *slog.Logger) *Committer {
	return &Committer{config: cfg, logger: logger}
}

// Commit copies text when output.copy_answer is set. A configured
// clipboard_cmd receives the text on stdin; otherwise the system clipboard is used.
func (c *Committer) Commit(ctx context.Context, text string) error {
	if !c.config.CopyAnswer || strings.TrimSpace(text) == "" {
		return nil
	}

	if len(c.config.Clipboard.Argv) == 0 {
		if err := writeSystemClipboard(text); err != nil {
			return fmt.Errorf("set clipboard: %w", err)
		}
		c.logCopied("system")
		return nil
	}

	clipboardCtx, cancel := context.WithTimeout(ctx, clipboardTimeout)
	defer cancel()
	if err := runCommandWithInput(clipboardCtx, c.config.Clipboard.Argv, text); err != nil {
		return fmt.Errorf("set clipboard: %w", err)
	}
	c.logCopied(c.config.Clipboard.Argv[0])
	return nil
}

// runCommandWithInput executes argv and optionally writes input to stdin.
func runCommandWithInput(ctx context.Context, argv []string, input string) error {
	if len(argv) == 0 {
		return fmt.Errorf("command argv cannot be empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open stdin for %s: %w", argv[0], err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("start command %s: %w", argv[0], err)
	}

	if input != "" {
		if _, err := stdin.Write([]byte(input)); err != nil {
			_ = stdin.Close()
			_ = cmd.Wait()
			return fmt.Errorf("write stdin for %s: %w", argv[0], err)
		}
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait for %s: %w", argv[0], err)
	}
	return nil
}

func (c *Committer) logCopied(via string) {
	if c.logger == nil {
		return
	}
	c.logger.Debug("answer copied to clipboard", "via", via)
}
