package indicator

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/gen2brain/beeep"
)

// desktopSurface keeps one replaceable freedesktop notification per session.
// Without busctl it falls back to fire-and-forget beeep notifications.
type desktopSurface struct {
	appName string

	mu             sync.Mutex
	notificationID uint32

	// overridable in tests
	busctl   func(ctx context.Context, args ...string) ([]byte, error)
	fallback func(title string, message string) error
}

func (d *desktopSurface) notify(ctx context.Context, _ int, timeoutMS int, _ string, text string) error {
	d.mu.Lock()
	replaceID := d.notificationID
	d.mu.Unlock()

	id, err := desktopNotify(ctx, d.runBusctl, d.appName, replaceID, text, timeoutMS)
	if errors.Is(err, exec.ErrNotFound) {
		return d.notifyFallback(text)
	}
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.notificationID = id
	d.mu.Unlock()
	return nil
}

func (d *desktopSurface) dismiss(ctx context.Context) error {
	d.mu.Lock()
	id := d.notificationID
	d.notificationID = 0
	d.mu.Unlock()

	if id == 0 {
		return nil
	}
	return desktopDismiss(ctx, d.runBusctl, id)
}

func (d *desktopSurface) runBusctl(ctx context.Context, args ...string) ([]byte, error) {
	if d.busctl != nil {
		return d.busctl(ctx, args...)
	}
	if _, err := exec.LookPath("busctl"); err != nil {
		return nil, err
	}
	return exec.CommandContext(ctx, "busctl", args...).CombinedOutput()
}

func (d *desktopSurface) notifyFallback(text string) error {
	if d.fallback != nil {
		return d.fallback(d.appName, text)
	}
	return beeep.Notify(d.appName, text, "")
}

type busctlRunner func(ctx context.Context, args ...string) ([]byte, error)

// desktopNotify sends a freedesktop notification over DBus via busctl.
// It returns the notification ID assigned by the server.
func desktopNotify(ctx context.Context, run busctlRunner, appName string, replaceID uint32, summary string, timeoutMS int) (uint32, error) {
	args := []string{
		"--user",
		"call",
		"org.freedesktop.Notifications",
		"/org/freedesktop/Notifications",
		"org.freedesktop.Notifications",
		"Notify",
		"susssasa{sv}i",
		appName,
		strconv.FormatUint(uint64(replaceID), 10),
		"",
		summary,
		"",
		"0", // actions array length
		"0", // hints map length
		strconv.Itoa(timeoutMS),
	}

	out, err := run(ctx, args...)
	if err != nil {
		return 0, busctlError("desktop notify", out, err)
	}

	fields := strings.Fields(strings.TrimSpace(string(out)))
	if len(fields) < 2 || fields[0] != "u" {
		return 0, fmt.Errorf("desktop notify invalid response: %q", strings.TrimSpace(string(out)))
	}

	value, parseErr := strconv.ParseUint(fields[1], 10, 32)
	if parseErr != nil {
		return 0, fmt.Errorf("desktop notify parse id %q: %w", fields[1], parseErr)
	}
	return uint32(value), nil
}

// desktopDismiss requests explicit close by notification ID.
func desktopDismiss(ctx context.Context, run busctlRunner, id uint32) error {
	args := []string{
		"--user",
		"call",
		"org.freedesktop.Notifications",
		"/org/freedesktop/Notifications",
		"org.freedesktop.Notifications",
		"CloseNotification",
		"u",
		strconv.FormatUint(uint64(id), 10),
	}

	out, err := run(ctx, args...)
	if err != nil {
		return busctlError("desktop dismiss", out, err)
	}
	return nil
}

func busctlError(op string, out []byte, err error) error {
	trimmed := strings.TrimSpace(string(out))
	if trimmed == "" {
		return fmt.Errorf("%s failed: %w", op, err)
	}
	return fmt.Errorf("%s failed: %w (%s)", op, err, trimmed)
}
