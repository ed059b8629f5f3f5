package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var allStates = []State{StateIdle, StateRecording, StateTranscribing, StateReadyToSend, StateLoading}

func TestTransitionHappyPath(t *testing.T) {
	s := StateIdle

	steps := []struct {
		event Event
		want  State
	}{
		{EventRecord, StateRecording},
		{EventStop, StateTranscribing},
		{EventTranscribed, StateReadyToSend},
		{EventEdit, StateReadyToSend},
		{EventSend, StateLoading},
		{EventAnswered, StateIdle},
	}

	for _, step := range steps {
		next, err := Transition(s, step.event)
		require.NoError(t, err, step.event)
		require.Equal(t, step.want, next, step.event)
		s = next
	}
}

func TestTransitionResetFromAnyStateGoesIdle(t *testing.T) {
	for _, state := range allStates {
		next, err := Transition(state, EventReset)
		require.NoError(t, err)
		require.Equal(t, StateIdle, next)
	}
}

func TestTransitionCancelMatrix(t *testing.T) {
	for _, state := range allStates {
		next, err := Transition(state, EventCancel)
		if CanCancel(state) {
			require.NoError(t, err, state)
			require.Equal(t, StateIdle, next, state)
			continue
		}
		require.Error(t, err, state)
		require.Equal(t, state, next, state)
	}
}

func TestTransitionMatrixInvalidTransitions(t *testing.T) {
	tests := []struct {
		name  string
		state State
		event Event
	}{
		{name: "idle stop", state: StateIdle, event: EventStop},
		{name: "idle send", state: StateIdle, event: EventSend},
		{name: "idle edit", state: StateIdle, event: EventEdit},
		{name: "idle transcribed", state: StateIdle, event: EventTranscribed},
		{name: "recording record", state: StateRecording, event: EventRecord},
		{name: "recording transcribed", state: StateRecording, event: EventTranscribed},
		{name: "recording edit", state: StateRecording, event: EventEdit},
		{name: "transcribing stop", state: StateTranscribing, event: EventStop},
		{name: "transcribing record", state: StateTranscribing, event: EventRecord},
		{name: "transcribing edit", state: StateTranscribing, event: EventEdit},
		{name: "ready recognition error", state: StateReadyToSend, event: EventRecognitionError},
		{name: "loading send", state: StateLoading, event: EventSend},
		{name: "loading record", state: StateLoading, event: EventRecord},
		{name: "loading edit", state: StateLoading, event: EventEdit},
		{name: "loading cancel", state: StateLoading, event: EventCancel},
		{name: "idle answered", state: StateIdle, event: EventAnswered},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, err := Transition(tc.state, tc.event)
			require.Error(t, err)
			require.Contains(t, err.Error(), "invalid transition")
			require.Equal(t, tc.state, next)
		})
	}
}

func TestTransitionUnknownState(t *testing.T) {
	next, err := Transition(State("mystery"), EventRecord)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown state")
	require.Equal(t, State("mystery"), next)
}

func TestEditableOnlyWhenReadyToSend(t *testing.T) {
	for _, state := range allStates {
		require.Equal(t, state == StateReadyToSend, CanEdit(state), state)
		require.Equal(t, state == StateReadyToSend, CanSend(state), state)
	}
}

func TestCanRecord(t *testing.T) {
	require.True(t, CanRecord(StateIdle))
	require.True(t, CanRecord(StateReadyToSend))
	require.False(t, CanRecord(StateRecording))
	require.False(t, CanRecord(StateTranscribing))
	require.False(t, CanRecord(StateLoading))
}
