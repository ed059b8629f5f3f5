// Package capture turns microphone recordings into transcript events.
package capture

import (
	"context"
	"errors"
)

var (
	// ErrCaptureUnavailable means speech capture cannot be used in this process.
	ErrCaptureUnavailable = errors.New("speech capture unavailable")
	// ErrPermissionDenied means the audio server refused microphone access.
	ErrPermissionDenied = errors.New("microphone permission denied")
	// ErrDeviceUnavailable means no usable input device could be opened.
	ErrDeviceUnavailable = errors.New("audio input device unavailable")
	// ErrNotRecording is returned by Stop when no attempt is recording.
	ErrNotRecording = errors.New("no recording in progress")
	// ErrAlreadyRecording is returned by Start while an attempt is active.
	ErrAlreadyRecording = errors.New("recording already in progress")
	// ErrStopRequested is returned by a repeated Stop for the same attempt.
	ErrStopRequested = errors.New("stop already requested")
)

// EventKind classifies an adapter notification.
type EventKind string

const (
	TranscriptReady  EventKind = "transcript_ready"
	TranscriptEmpty  EventKind = "transcript_empty"
	RecognitionError EventKind = "recognition_error"
	// Ended always follows the terminal event of an attempt that was not aborted.
	Ended EventKind = "ended"
)

// Recognition error kinds carried in Event.ErrorKind.
const (
	KindNoSpeech     = "no-speech"
	KindAudioCapture = "audio-capture"
	KindNetwork      = "network"
	KindService      = "service"
)

// Event is one notification for a recording attempt.
type Event struct {
	Attempt   uint64
	Kind      EventKind
	Text      string
	ErrorKind string
	Err       error
}

// Terminal reports whether the event carries the attempt's result.
func (e Event) Terminal() bool {
	return e.Kind == TranscriptReady || e.Kind == TranscriptEmpty || e.Kind == RecognitionError
}

// Sink receives adapter events. It may be called from any goroutine.
type Sink func(Event)

// Adapter is the capture boundary the session controller drives.
type Adapter interface {
	Available(ctx context.Context) error
	Start(ctx context.Context, attempt uint64, sink Sink) error
	Stop(ctx context.Context) error
	Abort(ctx context.Context) error
}
