// Package fsm defines the voice query lifecycle states and their legal transitions.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle         State = "idle"
	StateRecording    State = "recording"
	StateTranscribing State = "transcribing"
	StateReadyToSend  State = "ready_to_send"
	StateLoading      State = "loading"
)

const (
	EventRecord           Event = "record"
	EventStop             Event = "stop"
	EventTranscribed      Event = "transcribed"
	EventEmpty            Event = "empty"
	EventRecognitionError Event = "recognition_error"
	EventEdit             Event = "edit"
	EventSend             Event = "send"
	EventAnswered         Event = "answered"
	EventFailed           Event = "failed"
	EventCancel           Event = "cancel"
	EventReset            Event = "reset"
)

// Transition returns the state reached by applying event to current.
func Transition(current State, event Event) (State, error) {
	if !known(current) {
		return current, fmt.Errorf("unknown state %q", current)
	}
	if event == EventReset {
		return StateIdle, nil
	}

	switch current {
	case StateIdle:
		switch event {
		case EventRecord:
			return StateRecording, nil
		}
	case StateRecording:
		switch event {
		case EventStop:
			return StateTranscribing, nil
		case EventRecognitionError, EventCancel:
			return StateIdle, nil
		}
	case StateTranscribing:
		switch event {
		case EventTranscribed:
			return StateReadyToSend, nil
		case EventEmpty, EventRecognitionError, EventCancel:
			return StateIdle, nil
		}
	case StateReadyToSend:
		switch event {
		case EventEdit:
			return StateReadyToSend, nil
		case EventSend:
			return StateLoading, nil
		case EventRecord:
			return StateRecording, nil
		case EventCancel:
			return StateIdle, nil
		}
	case StateLoading:
		switch event {
		case EventAnswered, EventFailed:
			return StateIdle, nil
		}
	}

	return current, invalidTransition(current, event)
}

// CanEdit reports whether the query text is user-editable in state.
func CanEdit(state State) bool {
	return state == StateReadyToSend
}

// CanSend reports whether a submission may start from state.
func CanSend(state State) bool {
	return state == StateReadyToSend
}

// CanRecord reports whether a new recording may start from state.
func CanRecord(state State) bool {
	return state == StateIdle || state == StateReadyToSend
}

// CanCancel reports whether the cancel action is offered in state.
func CanCancel(state State) bool {
	switch state {
	case StateRecording, StateTranscribing, StateReadyToSend:
		return true
	default:
		return false
	}
}

func known(state State) bool {
	switch state {
	case StateIdle, StateRecording, StateTranscribing, StateReadyToSend, StateLoading:
		return true
	default:
		return false
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
