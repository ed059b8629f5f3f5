package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Ander2716/rag-voice-client/internal/audio"
	"github.com/Ander2716/rag-voice-client/internal/cli"
	"github.com/Ander2716/rag-voice-client/internal/config"
	"github.com/Ander2716/rag-voice-client/internal/doctor"
	"github.com/Ander2716/rag-voice-client/internal/ipc"
	"github.com/Ander2716/rag-voice-client/internal/logging"
	"github.com/Ander2716/rag-voice-client/internal/version"
)

const (
	binaryName     = "ragvoice"
	forwardTimeout = 1500 * time.Millisecond
)

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText(binaryName))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText(binaryName))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	if parsed.Command == cli.CommandServe || parsed.Command == cli.CommandDoctor {
		r.printWarnings(cfgLoaded.Warnings, logger)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandServe:
		return r.commandServe(ctx, cfgLoaded.Config, logger)
	case cli.CommandDoctor:
		report := doctor.Run(ctx, cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandEdit:
		return r.forwardOrFail(ctx, ipc.Request{Command: ipc.CommandEdit, Text: parsed.Text})
	case cli.CommandToggle, cli.CommandRecord, cli.CommandStop, cli.CommandSend, cli.CommandCancel, cli.CommandReset:
		return r.forwardOrFail(ctx, ipc.Request{Command: string(parsed.Command)})
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) printWarnings(warnings []config.Warning, logger *slog.Logger) {
	for _, w := range warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			yesNo(device.Available),
			yesNo(device.Muted),
		)
	}

	return 0
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func (r Runner) commandStatus(ctx context.Context) int {
	idle := ipc.Response{OK: true, State: "idle", Status: "no active " + binaryName + " session"}

	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		renderStatus(r.Stdout, idle, false)
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.Request{Command: ipc.CommandStatus})
	if !handled {
		renderStatus(r.Stdout, idle, false)
		return 0
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.State == "" {
		resp.State = "idle"
	}
	renderStatus(r.Stdout, resp, true)
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, req ipc.Request) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, req)
	if !handled {
		fmt.Fprintf(r.Stderr, "error: no active %s session; start one with %q\n", binaryName, binaryName+" serve")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		if resp.Status != "" {
			fmt.Fprintln(r.Stderr, resp.Status)
		}
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	if resp.Status != "" {
		fmt.Fprintln(r.Stdout, resp.Status)
	}
	return 0
}

// tryForward reports handled=false when no owner is serving, so callers can
// tell "no session" apart from a failed or rejected request.
func tryForward(ctx context.Context, socketPath string, req ipc.Request) (ipc.Response, bool, error) {
	resp, err := ipc.Call(ctx, socketPath, req, forwardTimeout)
	if err == nil {
		return resp, true, nil
	}
	if errors.Is(err, ipc.ErrNoOwner) {
		return ipc.Response{}, false, nil
	}

	var rejected *ipc.RejectedError
	if errors.As(err, &rejected) {
		return rejected.Response, true, err
	}
	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", req.Command, err)
}
