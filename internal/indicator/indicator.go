// Package indicator handles visual state notifications and audio cue playback.
package indicator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Ander2716/rag-voice-client/internal/config"
	"github.com/Ander2716/rag-voice-client/internal/hypr"
	"github.com/Ander2716/rag-voice-client/internal/locale"
)

// Controller is the session-facing indicator contract.
type Controller interface {
	ShowRecording(context.Context)
	ShowTranscribing(context.Context)
	ShowReady(context.Context, string)
	ShowLoading(context.Context, string)
	ShowAnswer(context.Context, string)
	ShowError(context.Context, string)
	CueStop(context.Context)
	CueComplete(context.Context)
	CueCancel(context.Context)
	Hide(context.Context)
}

const (
	persistentTimeoutMS = 300000
	answerTimeoutMS     = 8000
	dispatchTimeout     = 400 * time.Millisecond
)

type surface interface {
	notify(ctx context.Context, icon int, timeoutMS int, color string, text string) error
	dismiss(ctx context.Context) error
}

// Notifier routes state notifications to Hyprland or the desktop
// notification server based on the configured backend.
type Notifier struct {
	cfg      config.IndicatorConfig
	logger   *slog.Logger
	messages locale.Messages
	surface  surface
	play     func(cueKind) error

	soundMu sync.Mutex
	cues    sync.WaitGroup
}

// New creates an indicator controller from config.
func New(cfg config.IndicatorConfig, messages locale.Messages, logger *slog.Logger) *Notifier {
	n := &Notifier{
		cfg:      cfg,
		logger:   logger,
		messages: messages,
		surface:  surfaceFor(cfg),
	}
	n.play = func(kind cueKind) error { return emitCue(kind, cfg) }
	return n
}

func surfaceFor(cfg config.IndicatorConfig) surface {
	if strings.EqualFold(strings.TrimSpace(cfg.Backend), "hypr") {
		return hyprSurface{}
	}
	appName := strings.TrimSpace(cfg.DesktopAppName)
	if appName == "" {
		appName = "ragvoice"
	}
	return &desktopSurface{appName: appName}
}

// ShowRecording signals recording start and emits the start cue.
func (n *Notifier) ShowRecording(ctx context.Context) {
	n.playCue(cueStart)
	n.show(ctx, hypr.IconInfo, persistentTimeoutMS, "rgb(89b4fa)", n.messages.Recording)
}

// ShowTranscribing signals the post-capture transcription state.
func (n *Notifier) ShowTranscribing(ctx context.Context) {
	n.show(ctx, hypr.IconInfo, persistentTimeoutMS, "rgb(cba6f7)", n.messages.Transcribing)
}

// ShowReady shows the transcript awaiting review.
func (n *Notifier) ShowReady(ctx context.Context, query string) {
	text := n.messages.ReadyToSend
	if query = strings.TrimSpace(query); query != "" {
		text += "\n" + query
	}
	n.show(ctx, hypr.IconHint, persistentTimeoutMS, "rgb(f9e2af)", text)
}

// ShowLoading shows the in-flight submission status.
func (n *Notifier) ShowLoading(ctx context.Context, status string) {
	n.show(ctx, hypr.IconInfo, persistentTimeoutMS, "rgb(fab387)", status)
}

// ShowAnswer displays the received answer for a bounded time.
func (n *Notifier) ShowAnswer(ctx context.Context, text string) {
	if strings.TrimSpace(text) == "" {
		text = n.messages.Answered
	}
	n.show(ctx, hypr.IconOK, answerTimeoutMS, "rgb(a6e3a1)", text)
}

// ShowError displays an error-state indicator message.
func (n *Notifier) ShowError(ctx context.Context, text string) {
	if text == "" {
		text = n.messages.RecognitionError("unknown")
	}
	timeout := n.cfg.ErrorTimeoutMS
	if timeout <= 0 {
		timeout = 1200
	}
	n.show(ctx, hypr.IconError, timeout, "rgb(f38ba8)", text)
}

// CueStop emits the stop cue.
func (n *Notifier) CueStop(context.Context) {
	n.playCue(cueStop)
}

// CueComplete emits the answer-received cue.
func (n *Notifier) CueComplete(context.Context) {
	n.playCue(cueComplete)
}

// CueCancel emits the cancel cue.
func (n *Notifier) CueCancel(context.Context) {
	n.playCue(cueCancel)
}

// Hide dismisses the active indicator surface.
func (n *Notifier) Hide(ctx context.Context) {
	if !n.cfg.Enable {
		return
	}
	n.run(ctx, n.surface.dismiss)
}

// Wait blocks until queued cues have finished playing.
func (n *Notifier) Wait() {
	n.cues.Wait()
}

func (n *Notifier) show(ctx context.Context, icon int, timeoutMS int, color string, text string) {
	if !n.cfg.Enable {
		return
	}
	n.run(ctx, func(ctx context.Context) error {
		return n.surface.notify(ctx, icon, timeoutMS, color, text)
	})
}

// run executes an indicator operation with a bounded timeout.
func (n *Notifier) run(ctx context.Context, fn func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()
	if err := fn(runCtx); err != nil {
		n.log("indicator dispatch failed", err)
	}
}

// playCue serializes cue playback and emits audio asynchronously.
func (n *Notifier) playCue(kind cueKind) {
	if !n.cfg.SoundEnable {
		return
	}
	n.cues.Add(1)
	go func() {
		defer n.cues.Done()
		n.soundMu.Lock()
		defer n.soundMu.Unlock()
		if err := n.play(kind); err != nil {
			n.log("indicator audio cue failed", err)
		}
	}()
}

func (n *Notifier) log(message string, err error) {
	if n.logger == nil || err == nil {
		return
	}
	n.logger.Debug(message, "error", err.Error())
}

type hyprSurface struct{}

func (hyprSurface) notify(ctx context.Context, icon int, timeoutMS int, color string, text string) error {
	return hypr.Notify(ctx, icon, timeoutMS, color, text)
}

func (hyprSurface) dismiss(ctx context.Context) error {
	return hypr.DismissNotify(ctx)
}
