package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/Ander2716/rag-voice-client/internal/answer"
	"github.com/Ander2716/rag-voice-client/internal/audio"
	"github.com/Ander2716/rag-voice-client/internal/capture"
	"github.com/Ander2716/rag-voice-client/internal/config"
	"github.com/Ander2716/rag-voice-client/internal/doctor"
	"github.com/Ander2716/rag-voice-client/internal/indicator"
	"github.com/Ander2716/rag-voice-client/internal/ipc"
	"github.com/Ander2716/rag-voice-client/internal/locale"
	"github.com/Ander2716/rag-voice-client/internal/output"
	"github.com/Ander2716/rag-voice-client/internal/recognizer"
	"github.com/Ander2716/rag-voice-client/internal/session"
	"github.com/Ander2716/rag-voice-client/internal/tracing"
	"github.com/Ander2716/rag-voice-client/internal/version"
)

const (
	acquireProbeTimeout = 180 * time.Millisecond
	acquireRetries      = 8
	flushTimeout        = 2 * time.Second
)

// commandServe owns the session for the lifetime of ctx.
func (r Runner) commandServe(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	if err := config.ValidateEndpoint(cfg.Endpoint.URL); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("serve refused", "error", err.Error())
		return 1
	}

	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	owner, err := ipc.Acquire(ctx, socketPath, ipc.AcquireOptions{
		ProbeTimeout: acquireProbeTimeout,
		Retries:      acquireRetries,
	})
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintf(r.Stderr, "error: %v (socket %s)\n", err, socketPath)
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() { _ = owner.Close() }()

	sinks := openDebugSinks(cfg.Debug, logger)
	defer sinks.Close()

	shutdownTracing, err := tracing.Setup(sinks.trace, version.Version, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("trace flush failed", "error", err.Error())
		}
	}()

	stt, err := recognizer.New(recognizer.Config{
		BaseURL:               cfg.STT.URL,
		Model:                 cfg.STT.Model,
		Language:              cfg.STT.Language,
		HealthPath:            cfg.STT.HealthPath,
		SampleRate:            audio.SampleRate,
		Channels:              audio.Channels,
		Timeout:               millis(cfg.STT.TimeoutMS),
		DebugResponseSinkJSON: sinks.stt,
	}, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	client, err := answer.New(answer.Config{
		URL:     cfg.Endpoint.URL,
		Timeout: millis(cfg.Endpoint.TimeoutMS),
	}, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	messages := locale.For(locale.FromEnv())
	recorder := capture.NewRecorder(cfg, stt, logger)
	notifier := indicator.New(cfg.Indicator, messages, logger)
	controller := session.NewController(session.Options{
		Logger:    logger,
		Capture:   recorder,
		Submitter: client,
		Committer: output.NewCommitter(cfg.Output, logger),
		Indicator: notifier,
		Messages:  messages,
	})

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(serverCtx, owner, controller)
	}()

	var probeWG sync.WaitGroup
	probeWG.Add(1)
	go func() {
		defer probeWG.Done()
		warnIfUnreachable(serverCtx, cfg.Endpoint.URL, logger)
	}()

	logger.Info("session serving", "socket", socketPath, "endpoint", cfg.Endpoint.URL)
	fmt.Fprintf(r.Stdout, "%s serving on %s\n", binaryName, socketPath)

	runErr := controller.Run(ctx)
	serverCancel()
	serverErr := <-serverErrCh
	probeWG.Wait()
	recorder.Wait()
	notifier.Wait()

	if runErr != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", runErr)
		return 1
	}
	if serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		return 1
	}
	logger.Info("session stopped")
	return 0
}

// warnIfUnreachable logs a warning when endpoint does not answer a HEAD
// request. Serving continues either way; submissions still retry.
func warnIfUnreachable(ctx context.Context, endpoint string, logger *slog.Logger) bool {
	check := doctor.CheckEndpointReachable(ctx, endpoint)
	if check.Pass {
		logger.Info("answering endpoint reachable", "detail", check.Message)
		return true
	}
	if ctx.Err() == nil {
		logger.Warn("answering endpoint unreachable at startup", "endpoint", endpoint, "detail", check.Message)
	}
	return false
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// debugSinks holds the optional trace_dump files. Nil writers disable output.
type debugSinks struct {
	trace io.Writer
	stt   io.Writer
	files []*os.File
}

func openDebugSinks(cfg config.DebugConfig, logger *slog.Logger) *debugSinks {
	sinks := &debugSinks{}
	if !cfg.EnableTraceDump {
		return sinks
	}

	if file, err := capture.CreateDebugFile("trace", "jsonl"); err == nil {
		sinks.trace = file
		sinks.files = append(sinks.files, file)
		logger.Info("trace dump enabled", "path", file.Name())
	} else {
		logger.Warn("unable to create trace dump", "error", err.Error())
	}

	if file, err := capture.CreateDebugFile("stt", "jsonl"); err == nil {
		sinks.stt = file
		sinks.files = append(sinks.files, file)
	} else {
		logger.Warn("unable to create stt response dump", "error", err.Error())
	}
	return sinks
}

func (s *debugSinks) Close() {
	for _, file := range s.files {
		_ = file.Close()
	}
}
