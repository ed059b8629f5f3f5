// Package session owns the voice query lifecycle: recording, transcript
// review, submission, and the answer shown to the user.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Ander2716/rag-voice-client/internal/answer"
	"github.com/Ander2716/rag-voice-client/internal/capture"
	"github.com/Ander2716/rag-voice-client/internal/fsm"
	"github.com/Ander2716/rag-voice-client/internal/locale"
)

var (
	// ErrNotRunning is returned when no owner loop is consuming actions.
	ErrNotRunning = errors.New("session controller is not running")
	// ErrAlreadyRunning is returned by a second Run call.
	ErrAlreadyRunning = errors.New("session controller already running")
	// ErrCannotCancelLoading rejects cancel while a submission is in flight; reset still works.
	ErrCannotCancelLoading = errors.New("cannot cancel while loading")
	// ErrNotEditable rejects edits outside READY_TO_SEND.
	ErrNotEditable = errors.New("query is only editable when ready to send")
	// ErrNothingToToggle is returned by toggle in states with no primary action.
	ErrNothingToToggle = errors.New("nothing to toggle")
)

const cleanupTimeout = 800 * time.Millisecond

// Snapshot is a read-only copy of the session published after each handled event.
type Snapshot struct {
	State           fsm.State
	Status          string
	Query           string
	Answer          *answer.Answer
	SpeechSupported bool
}

// Indicator is the session-facing subset of indicator behavior.
type Indicator interface {
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

// noopIndicator preserves session flow when no indicator is wired.
type noopIndicator struct{}

func (noopIndicator) ShowRecording(context.Context)       {}
func (noopIndicator) ShowTranscribing(context.Context)    {}
func (noopIndicator) ShowReady(context.Context, string)   {}
func (noopIndicator) ShowLoading(context.Context, string) {}
func (noopIndicator) ShowAnswer(context.Context, string)  {}
func (noopIndicator) ShowError(context.Context, string)   {}
func (noopIndicator) CueStop(context.Context)             {}
func (noopIndicator) CueComplete(context.Context)         {}
func (noopIndicator) CueCancel(context.Context)           {}
func (noopIndicator) Hide(context.Context)                {}

// Options wires a Controller. Capture and Submitter are required for the
// corresponding actions; the rest fall back to no-ops.
type Options struct {
	Logger    *slog.Logger
	Capture   capture.Adapter
	Submitter Submitter
	Committer Committer
	Indicator Indicator
	Messages  locale.Messages
}

// Controller is the single owner of the Session. Run consumes user actions,
// capture events, and submission results from one queue; nothing else
// mutates session state.
type Controller struct {
	logger    *slog.Logger
	capture   capture.Adapter
	submitter Submitter
	commit    Committer
	indicator Indicator
	messages  locale.Messages

	events  chan message
	done    chan struct{}
	running atomic.Bool

	mu       sync.RWMutex
	snapshot Snapshot

	// owned by the Run goroutine
	runCtx     context.Context
	session    Snapshot
	attempt    *attempt
	submission *submission
	nextID     uint64
}

type phase int

const (
	phasePending phase = iota
	phaseResultDelivered
)

type attempt struct {
	id    uint64
	phase phase
}

type submission struct {
	epoch  uint64
	cancel context.CancelFunc
}

type action int

const (
	actionRecord action = iota + 1
	actionStop
	actionEdit
	actionSend
	actionCancel
	actionReset
	actionToggle
)

func (a action) String() string {
	switch a {
	case actionRecord:
		return "record"
	case actionStop:
		return "stop"
	case actionEdit:
		return "edit"
	case actionSend:
		return "send"
	case actionCancel:
		return "cancel"
	case actionReset:
		return "reset"
	case actionToggle:
		return "toggle"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

type message interface{ isMessage() }

type actionRequest struct {
	action action
	text   string
	reply  chan actionReply
}

type actionReply struct {
	snapshot Snapshot
	err      error
}

type captureMessage struct {
	event capture.Event
}

type submissionResult struct {
	epoch  uint64
	answer answer.Answer
	err    error
}

func (actionRequest) isMessage()    {}
func (captureMessage) isMessage()   {}
func (submissionResult) isMessage() {}

// NewController constructs a session controller with safe default fallbacks.
func NewController(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	indicator := opts.Indicator
	if indicator == nil {
		indicator = noopIndicator{}
	}
	committer := opts.Committer
	if committer == nil {
		committer = CommitFunc(func(context.Context, string) error { return nil })
	}
	messages := opts.Messages
	if messages.Idle == "" {
		messages = locale.For(locale.English)
	}

	c := &Controller{
		logger:    logger,
		capture:   opts.Capture,
		submitter: opts.Submitter,
		commit:    committer,
		indicator: indicator,
		messages:  messages,
		events:    make(chan message, 16),
		done:      make(chan struct{}),
	}
	c.session = Snapshot{State: fsm.StateIdle, Status: messages.Idle}
	c.snapshot = c.session
	return c
}

// Snapshot returns the last published session copy.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copySnapshot(c.snapshot)
}

// Run probes capture availability and then serves the event queue until
// ctx is cancelled. In-flight capture and submissions are abandoned on exit.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(c.done)

	c.runCtx = ctx
	c.session.SpeechSupported = c.probeCapture(ctx)
	if !c.session.SpeechSupported {
		c.session.Status = c.messages.CaptureUnavailable
	}
	c.publish()

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return nil
		case msg := <-c.events:
			switch m := msg.(type) {
			case actionRequest:
				err := c.handleAction(m.action, m.text)
				c.publish()
				m.reply <- actionReply{snapshot: copySnapshot(c.session), err: err}
			case captureMessage:
				c.handleCapture(m.event)
				c.publish()
			case submissionResult:
				c.handleSubmission(m)
				c.publish()
			}
		}
	}
}

func (c *Controller) Record(ctx context.Context) (Snapshot, error) {
	return c.do(ctx, actionRecord, "")
}

func (c *Controller) Stop(ctx context.Context) (Snapshot, error) {
	return c.do(ctx, actionStop, "")
}

// Edit replaces the query text. It is accepted only in READY_TO_SEND.
func (c *Controller) Edit(ctx context.Context, text string) (Snapshot, error) {
	return c.do(ctx, actionEdit, text)
}

func (c *Controller) Send(ctx context.Context) (Snapshot, error) {
	return c.do(ctx, actionSend, "")
}

func (c *Controller) Cancel(ctx context.Context) (Snapshot, error) {
	return c.do(ctx, actionCancel, "")
}

// Reset returns to the IDLE baseline from any state, abandoning capture
// and any in-flight submission.
func (c *Controller) Reset(ctx context.Context) (Snapshot, error) {
	return c.do(ctx, actionReset, "")
}

// Toggle runs the primary action for the current state: record from IDLE,
// stop while RECORDING, send from READY_TO_SEND.
func (c *Controller) Toggle(ctx context.Context) (Snapshot, error) {
	return c.do(ctx, actionToggle, "")
}

func (c *Controller) do(ctx context.Context, act action, text string) (Snapshot, error) {
	req := actionRequest{action: act, text: text, reply: make(chan actionReply, 1)}
	select {
	case c.events <- req:
	case <-ctx.Done():
		return c.Snapshot(), ctx.Err()
	case <-c.done:
		return c.Snapshot(), ErrNotRunning
	}

	select {
	case reply := <-req.reply:
		return reply.snapshot, reply.err
	case <-ctx.Done():
		return c.Snapshot(), ctx.Err()
	case <-c.done:
		return c.Snapshot(), ErrNotRunning
	}
}

// post enqueues an internal message unless the owner loop has exited.
func (c *Controller) post(msg message) {
	select {
	case c.events <- msg:
	case <-c.done:
	}
}

func (c *Controller) probeCapture(ctx context.Context) bool {
	if c.capture == nil {
		c.logger.Warn("speech capture not configured")
		return false
	}
	if err := c.capture.Available(ctx); err != nil {
		c.logger.Warn("speech capture unavailable", "error", err.Error())
		return false
	}
	return true
}

func (c *Controller) handleAction(act action, text string) error {
	state := c.session.State
	c.logger.Debug("session action", "action", act.String(), "state", string(state))

	switch act {
	case actionRecord:
		return c.record()
	case actionStop:
		return c.stop()
	case actionEdit:
		return c.edit(text)
	case actionSend:
		return c.send()
	case actionCancel:
		return c.cancel()
	case actionReset:
		c.reset()
		return nil
	case actionToggle:
		switch state {
		case fsm.StateIdle:
			return c.record()
		case fsm.StateRecording:
			return c.stop()
		case fsm.StateReadyToSend:
			return c.send()
		default:
			return fmt.Errorf("%w while %s", ErrNothingToToggle, state)
		}
	default:
		return fmt.Errorf("unknown action %s", act)
	}
}

func (c *Controller) record() error {
	if !c.session.SpeechSupported {
		c.session.Status = c.messages.CaptureUnavailable
		return capture.ErrCaptureUnavailable
	}
	if _, err := fsm.Transition(c.session.State, fsm.EventRecord); err != nil {
		return err
	}

	// A previous attempt may still be delivering Ended after its result.
	c.abortAttempt()

	c.nextID++
	id := c.nextID
	if err := c.capture.Start(c.runCtx, id, c.captureSink); err != nil {
		c.logger.Error("recording start failed", "attempt", id, "error", err.Error())
		c.session.Status = c.startFailureStatus(err)
		c.indicator.ShowError(c.runCtx, c.session.Status)
		return err
	}

	c.attempt = &attempt{id: id, phase: phasePending}
	c.session.Query = ""
	c.session.Answer = nil
	c.transition(fsm.EventRecord, "attempt", id)
	c.session.Status = c.messages.Recording
	c.indicator.ShowRecording(c.runCtx)
	return nil
}

func (c *Controller) startFailureStatus(err error) string {
	if errors.Is(err, capture.ErrPermissionDenied) {
		return c.messages.PermissionDenied
	}
	return c.messages.DeviceUnavailable
}

func (c *Controller) stop() error {
	if _, err := fsm.Transition(c.session.State, fsm.EventStop); err != nil {
		return err
	}

	if err := c.capture.Stop(c.runCtx); err != nil {
		c.logger.Error("recording stop failed", "attempt", c.attemptID(), "error", err.Error())
		c.abortAttempt()
		c.transition(fsm.EventRecognitionError)
		c.session.Status = c.messages.RecognitionError(capture.KindAudioCapture)
		c.indicator.ShowError(c.runCtx, c.session.Status)
		return err
	}

	c.transition(fsm.EventStop, "attempt", c.attemptID())
	c.session.Status = c.messages.Transcribing
	c.indicator.CueStop(c.runCtx)
	c.indicator.ShowTranscribing(c.runCtx)
	return nil
}

func (c *Controller) edit(text string) error {
	if !fsm.CanEdit(c.session.State) {
		return fmt.Errorf("%w (state %s)", ErrNotEditable, c.session.State)
	}
	c.transition(fsm.EventEdit)
	c.session.Query = text
	return nil
}

func (c *Controller) send() error {
	if _, err := fsm.Transition(c.session.State, fsm.EventSend); err != nil {
		return err
	}
	query := strings.TrimSpace(c.session.Query)
	if query == "" {
		c.session.Status = c.messages.QueryEmpty
		return answer.ErrEmptyQuery
	}
	if c.submitter == nil {
		return errors.New("answering endpoint not configured")
	}

	c.abortAttempt()

	c.nextID++
	epoch := c.nextID
	ctx, cancel := context.WithCancel(c.runCtx)
	c.submission = &submission{epoch: epoch, cancel: cancel}

	c.session.Answer = nil
	c.transition(fsm.EventSend, "epoch", epoch)
	c.session.Status = c.messages.Sending(query)
	c.indicator.ShowLoading(c.runCtx, c.session.Status)

	go func() {
		result, err := c.submitter.Submit(ctx, query)
		c.post(submissionResult{epoch: epoch, answer: result, err: err})
	}()
	return nil
}

func (c *Controller) cancel() error {
	state := c.session.State
	if state == fsm.StateLoading {
		c.session.Status = c.messages.CannotCancelLoading
		return ErrCannotCancelLoading
	}
	if _, err := fsm.Transition(state, fsm.EventCancel); err != nil {
		return err
	}

	c.abortAttempt()
	c.transition(fsm.EventCancel)
	c.session.Query = ""
	c.session.Answer = nil
	c.session.Status = c.messages.Cancelled
	c.indicator.CueCancel(c.runCtx)
	c.indicator.Hide(c.runCtx)
	return nil
}

func (c *Controller) reset() {
	busy := c.session.State != fsm.StateIdle
	c.abortAttempt()
	c.dropSubmission()
	c.transition(fsm.EventReset)
	c.session.Query = ""
	c.session.Answer = nil
	c.session.Status = c.messages.Idle
	if !c.session.SpeechSupported {
		c.session.Status = c.messages.CaptureUnavailable
	}
	if busy {
		c.indicator.CueCancel(c.runCtx)
	}
	c.indicator.Hide(c.runCtx)
}

func (c *Controller) captureSink(ev capture.Event) {
	c.post(captureMessage{event: ev})
}

func (c *Controller) handleCapture(ev capture.Event) {
	if c.attempt == nil || ev.Attempt != c.attempt.id {
		c.logger.Debug("discarding stale capture event",
			"attempt", ev.Attempt,
			"current", c.attemptID(),
			"kind", string(ev.Kind),
		)
		return
	}

	if ev.Kind == capture.Ended {
		c.handleEnded()
		return
	}
	if c.attempt.phase == phaseResultDelivered {
		c.logger.Warn("discarding duplicate capture result", "attempt", ev.Attempt, "kind", string(ev.Kind))
		return
	}
	c.attempt.phase = phaseResultDelivered

	state := c.session.State
	if state != fsm.StateRecording && state != fsm.StateTranscribing {
		return
	}

	switch ev.Kind {
	case capture.TranscriptReady:
		c.finishRecording()
		c.transition(fsm.EventTranscribed, "attempt", ev.Attempt)
		c.session.Query = ev.Text
		c.session.Status = c.messages.ReadyToSend
		c.indicator.ShowReady(c.runCtx, ev.Text)
	case capture.TranscriptEmpty:
		c.finishRecording()
		c.transition(fsm.EventEmpty, "attempt", ev.Attempt)
		c.session.Status = c.messages.NoSpeech
		c.indicator.ShowError(c.runCtx, c.session.Status)
	case capture.RecognitionError:
		c.handleRecognitionError(state, ev)
	}
}

// finishRecording moves a recognizer that ended on its own out of RECORDING.
func (c *Controller) finishRecording() {
	if c.session.State == fsm.StateRecording {
		c.transition(fsm.EventStop, "attempt", c.attemptID())
	}
}

func (c *Controller) handleRecognitionError(state fsm.State, ev capture.Event) {
	attrs := []any{"attempt", ev.Attempt, "kind", ev.ErrorKind}
	if ev.Err != nil {
		attrs = append(attrs, "error", ev.Err.Error())
	}
	c.logger.Warn("recognition error", attrs...)

	c.transition(fsm.EventRecognitionError, "attempt", ev.Attempt)
	switch {
	case ev.ErrorKind == capture.KindNoSpeech && state == fsm.StateRecording:
		c.session.Status = c.messages.Idle
		c.indicator.Hide(c.runCtx)
	case ev.ErrorKind == capture.KindNoSpeech:
		c.session.Status = c.messages.NoSpeechShort
		c.indicator.ShowError(c.runCtx, c.session.Status)
	default:
		c.session.Status = c.messages.RecognitionError(ev.ErrorKind)
		c.indicator.ShowError(c.runCtx, c.session.Status)
	}
}

func (c *Controller) handleEnded() {
	current := c.attempt
	c.attempt = nil
	if current.phase == phaseResultDelivered {
		return
	}

	switch c.session.State {
	case fsm.StateRecording, fsm.StateTranscribing:
		c.logger.Warn("recognition ended without result", "attempt", current.id)
		c.transition(fsm.EventRecognitionError, "attempt", current.id)
		c.session.Status = c.messages.FinishedWithoutTranscript
		c.indicator.ShowError(c.runCtx, c.session.Status)
	}
}

func (c *Controller) handleSubmission(res submissionResult) {
	if c.submission == nil || res.epoch != c.submission.epoch {
		c.logger.Debug("discarding stale submission result", "epoch", res.epoch)
		return
	}
	c.dropSubmission()

	if res.err != nil {
		attrs := []any{"epoch", res.epoch, "error", res.err.Error()}
		var unreachable *answer.UnreachableError
		if errors.As(res.err, &unreachable) {
			attrs = append(attrs, "attempts", unreachable.Attempts)
		}
		c.logger.Error("submission failed", attrs...)
		c.transition(fsm.EventFailed, "epoch", res.epoch)
		c.session.Answer = nil
		c.session.Status = c.messages.Unreachable
		c.indicator.ShowError(c.runCtx, c.session.Status)
		return
	}

	result := res.answer
	c.transition(fsm.EventAnswered, "epoch", res.epoch, "request_id", result.RequestID)
	c.session.Answer = &result

	switch {
	case result.Malformed:
		c.session.Status = c.messages.MalformedAnswer
		c.indicator.ShowError(c.runCtx, c.session.Status)
		return
	case result.ApplicationError():
		c.session.Status = c.messages.ApplicationError
		c.indicator.ShowError(c.runCtx, c.session.Status)
		return
	}

	c.session.Status = c.messages.Answered
	c.indicator.CueComplete(c.runCtx)
	c.indicator.ShowAnswer(c.runCtx, result.Text)
	if err := c.commit.Commit(c.runCtx, result.Text); err != nil {
		c.logger.Warn("answer output failed", "epoch", res.epoch, "error", err.Error())
	}
}

// transition applies an event that the caller has already validated.
func (c *Controller) transition(event fsm.Event, attrs ...any) {
	from := c.session.State
	next, err := fsm.Transition(from, event)
	if err != nil {
		c.logger.Error("session transition rejected", "state", string(from), "event", string(event), "error", err.Error())
		return
	}
	c.session.State = next
	c.logger.Info("session transition",
		append([]any{"from", string(from), "to", string(next), "event", string(event)}, attrs...)...,
	)
}

func (c *Controller) abortAttempt() {
	if c.attempt == nil {
		return
	}
	if err := c.capture.Abort(c.runCtx); err != nil {
		c.logger.Warn("capture abort failed", "attempt", c.attempt.id, "error", err.Error())
	}
	c.attempt = nil
}

func (c *Controller) dropSubmission() {
	if c.submission == nil {
		return
	}
	c.submission.cancel()
	c.submission = nil
}

func (c *Controller) attemptID() uint64 {
	if c.attempt == nil {
		return 0
	}
	return c.attempt.id
}

func (c *Controller) shutdown() {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(c.runCtx), cleanupTimeout)
	defer cancel()

	if c.attempt != nil {
		_ = c.capture.Abort(cleanupCtx)
		c.attempt = nil
	}
	c.dropSubmission()
	c.indicator.Hide(cleanupCtx)
}

func (c *Controller) publish() {
	snap := copySnapshot(c.session)
	c.mu.Lock()
	c.snapshot = snap
	c.mu.Unlock()
}

func copySnapshot(s Snapshot) Snapshot {
	if s.Answer != nil {
		a := *s.Answer
		s.Answer = &a
	}
	return s
}
