package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Ander2716/rag-voice-client/internal/audio"
	"github.com/Ander2716/rag-voice-client/internal/config"
	"github.com/Ander2716/rag-voice-client/internal/recognizer"
	"github.com/Ander2716/rag-voice-client/internal/transcript"
)

// MinSpeechDuration is the shortest recording sent for recognition.
const MinSpeechDuration = 250 * time.Millisecond

// Recognizer converts captured PCM into text.
type Recognizer interface {
	Recognize(ctx context.Context, pcm []byte) (string, error)
}

type captureStream interface {
	Stop() error
	PCM() []byte
	Duration() time.Duration
	BytesCaptured() int64
}

// Recorder is the Pulse-backed Adapter: it records until Stop, then sends
// the audio to a Recognizer and reports the outcome through the attempt sink.
type Recorder struct {
	cfg        config.Config
	logger     *slog.Logger
	recognizer Recognizer

	listDevices  func(context.Context) ([]audio.Device, error)
	selectDevice func(context.Context, string, string) (audio.Selection, error)
	startCapture func(context.Context, audio.Device) (captureStream, error)

	mu     sync.Mutex
	active *recording
	wg     sync.WaitGroup
}

type recording struct {
	attempt   uint64
	sink      Sink
	stream    captureStream
	selection audio.Selection

	ctx    context.Context
	cancel context.CancelFunc

	stopped bool
	aborted bool
}

// NewRecorder constructs a Recorder from runtime config.
func NewRecorder(cfg config.Config, rec Recognizer, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Recorder{
		cfg:          cfg,
		logger:       logger,
		recognizer:   rec,
		listDevices:  audio.ListDevices,
		selectDevice: audio.SelectDevice,
		startCapture: func(ctx context.Context, device audio.Device) (captureStream, error) {
			return audio.StartCapture(ctx, device)
		},
	}
}

// Available reports whether an audio server with an input source is reachable.
func (r *Recorder) Available(ctx context.Context) error {
	if r.recognizer == nil {
		return fmt.Errorf("%w: no recognizer configured", ErrCaptureUnavailable)
	}
	devices, err := r.listDevices(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCaptureUnavailable, err)
	}
	if len(devices) == 0 {
		return fmt.Errorf("%w: no audio input devices found", ErrCaptureUnavailable)
	}
	return nil
}

// Start selects an input device and begins recording for attempt.
func (r *Recorder) Start(ctx context.Context, attempt uint64, sink Sink) error {
	if sink == nil {
		return errors.New("capture sink is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil {
		return ErrAlreadyRecording
	}

	selection, err := r.selectDevice(ctx, r.cfg.Audio.Input, r.cfg.Audio.Fallback)
	if err != nil {
		return classifyStartError(err)
	}
	if selection.Warning != "" {
		r.logger.Warn(selection.Warning, "attempt", attempt)
	}

	// Recording outlives the request that started it.
	recCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stream, err := r.startCapture(recCtx, selection.Device)
	if err != nil {
		cancel()
		return classifyStartError(err)
	}

	r.active = &recording{
		attempt:   attempt,
		sink:      sink,
		stream:    stream,
		selection: selection,
		ctx:       recCtx,
		cancel:    cancel,
	}
	r.logger.Info("recording started", "attempt", attempt, "device", describeDevice(selection.Device))
	return nil
}

// Stop releases the microphone and recognizes the captured audio in the
// background. Exactly one terminal event and then Ended are delivered.
func (r *Recorder) Stop(_ context.Context) error {
	r.mu.Lock()
	rec := r.active
	if rec == nil {
		r.mu.Unlock()
		return ErrNotRecording
	}
	if rec.stopped {
		r.mu.Unlock()
		return ErrStopRequested
	}
	rec.stopped = true
	r.mu.Unlock()

	_ = rec.stream.Stop()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.finish(rec)
	}()
	return nil
}

// Abort stops the attempt without delivering any further events.
func (r *Recorder) Abort(_ context.Context) error {
	r.mu.Lock()
	rec := r.active
	if rec == nil {
		r.mu.Unlock()
		return nil
	}
	rec.aborted = true
	r.active = nil
	r.mu.Unlock()

	rec.cancel()
	_ = rec.stream.Stop()
	r.logger.Info("recording aborted", "attempt", rec.attempt)
	return nil
}

// Wait blocks until background recognition goroutines have returned.
func (r *Recorder) Wait() {
	r.wg.Wait()
}

func (r *Recorder) finish(rec *recording) {
	defer rec.cancel()

	pcm := rec.stream.PCM()
	r.writeDebugAudio(pcm)

	result := r.recognize(rec, pcm)
	delivered := r.deliver(rec, result)
	// The device is free again before Ended, so a sink reacting to Ended
	// can start the next attempt.
	r.release(rec)
	if delivered {
		r.deliver(rec, Event{Attempt: rec.attempt, Kind: Ended})
	}
}

func (r *Recorder) release(rec *recording) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == rec {
		r.active = nil
	}
}

func (r *Recorder) recognize(rec *recording, pcm []byte) Event {
	ev := Event{Attempt: rec.attempt}

	switch {
	case rec.stream.BytesCaptured() == 0 || len(pcm) == 0:
		ev.Kind = RecognitionError
		ev.ErrorKind = KindAudioCapture
		ev.Err = errors.New("no audio captured")
		return ev
	case rec.stream.Duration() < MinSpeechDuration:
		ev.Kind = RecognitionError
		ev.ErrorKind = KindNoSpeech
		ev.Err = fmt.Errorf("recording shorter than %s", MinSpeechDuration)
		return ev
	}

	started := time.Now()
	text, err := r.recognizer.Recognize(rec.ctx, pcm)
	if err != nil {
		ev.Kind = RecognitionError
		ev.ErrorKind = classifyRecognitionError(err)
		ev.Err = err
		r.logger.Warn("recognition failed", "attempt", rec.attempt, "kind", ev.ErrorKind, "error", err.Error())
		return ev
	}

	text = transcript.Normalize(text, transcript.Options{Capitalize: r.cfg.Transcript.Capitalize})
	r.logger.Info("recognition completed",
		"attempt", rec.attempt,
		"latency_ms", time.Since(started).Milliseconds(),
		"bytes_captured", rec.stream.BytesCaptured(),
		"transcript_chars", len(text),
	)
	if text == "" {
		ev.Kind = TranscriptEmpty
		return ev
	}
	ev.Kind = TranscriptReady
	ev.Text = text
	return ev
}

// deliver forwards ev unless the attempt was aborted. It reports whether
// the event was handed to the sink.
func (r *Recorder) deliver(rec *recording, ev Event) bool {
	r.mu.Lock()
	aborted := rec.aborted
	r.mu.Unlock()
	if aborted {
		return false
	}
	rec.sink(ev)
	return true
}

func classifyStartError(err error) error {
	if audio.IsAccessDenied(err) {
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	}
	return fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
}

func classifyRecognitionError(err error) string {
	switch {
	case errors.Is(err, recognizer.ErrNetwork),
		errors.Is(err, context.DeadlineExceeded):
		return KindNetwork
	default:
		return KindService
	}
}

// describeDevice formats device metadata for logs.
func describeDevice(device audio.Device) string {
	description := strings.TrimSpace(device.Description)
	id := strings.TrimSpace(device.ID)
	if description == "" {
		return id
	}
	if id == "" {
		return description
	}
	return fmt.Sprintf("%s (%s)", description, id)
}

// writeDebugAudio writes captured PCM to WAV when debug.audio_dump is enabled.
func (r *Recorder) writeDebugAudio(pcm []byte) {
	if !r.cfg.Debug.EnableAudioDump || len(pcm) == 0 {
		return
	}

	file, err := CreateDebugFile("audio", "wav")
	if err != nil {
		r.logger.Warn("unable to create debug audio dump", "error", err.Error())
		return
	}
	defer file.Close()

	if err := recognizer.WriteWAV(file, pcm, audio.SampleRate, audio.Channels); err != nil {
		r.logger.Warn("unable to write debug audio dump", "error", err.Error())
	}
}

// CreateDebugFile creates timestamped debug artifacts under state/ragvoice/debug.
func CreateDebugFile(prefix string, extension string) (*os.File, error) {
	stateDir, err := resolveStateDir()
	if err != nil {
		return nil, err
	}
	debugDir := filepath.Join(stateDir, "ragvoice", "debug")
	if err := os.MkdirAll(debugDir, 0o700); err != nil {
		return nil, fmt.Errorf("create debug dir: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405.000")
	path := filepath.Join(debugDir, fmt.Sprintf("%s-%s.%s", prefix, timestamp, extension))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open debug file %q: %w", path, err)
	}
	return file, nil
}

// resolveStateDir returns XDG_STATE_HOME fallback path for debug artifacts.
func resolveStateDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return xdg, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory for state: %w", err)
	}
	return filepath.Join(home, ".local", "state"), nil
}
