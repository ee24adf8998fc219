// Package pipeline drives lectures from audio to confirmed, note-bearing records
package pipeline

import (
	"sync"

	apperrors "github.com/jdcastano06/FlowNote/internal/errors"
)

// State is a stage in a lecture's processing lifecycle.
type State string

const (
	StateIdle                 State = "idle"
	StateTranscribing         State = "transcribing"
	StateAwaitingConfirmation State = "awaiting_confirmation"
	StateGeneratingNotes      State = "generating_notes"
	StateDone                 State = "done"
	StateError                State = "error"

	// Live recording states.
	StateConnecting State = "connecting"
	StateRecording  State = "recording"
	StateStopped    State = "stopped"
	StateConfirming State = "confirming"
)

// Event triggers a state transition.
type Event string

const (
	EventStart       Event = "start"
	EventTranscribed Event = "transcribed"
	EventConfirm     Event = "confirm"
	EventNotesReady  Event = "notes_ready"
	EventFail        Event = "fail"

	// Live recording events.
	EventConnected Event = "connected"
	EventStop      Event = "stop"
	EventClassify  Event = "classify"
)

// FSM is an explicit state machine over the lecture lifecycle. Every
// transition is table-driven; an event not valid for the current state is
// an error, except failure, which is reachable from anywhere.
type FSM struct {
	mu          sync.Mutex
	state       State
	transitions map[State]map[Event]State
}

// NewUploadFSM builds the lifecycle for uploaded audio:
// idle -> transcribing -> awaiting_confirmation -> generating_notes -> done.
func NewUploadFSM() *FSM {
	return &FSM{
		state: StateIdle,
		transitions: map[State]map[Event]State{
			StateIdle:                 {EventStart: StateTranscribing},
			StateTranscribing:         {EventTranscribed: StateAwaitingConfirmation},
			StateAwaitingConfirmation: {EventConfirm: StateGeneratingNotes},
			StateGeneratingNotes:      {EventNotesReady: StateDone},
		},
	}
}

// NewLiveFSM builds the lifecycle for live recording:
// idle -> connecting -> recording -> stopped -> confirming ->
// generating_notes -> done.
func NewLiveFSM() *FSM {
	return &FSM{
		state: StateIdle,
		transitions: map[State]map[Event]State{
			StateIdle:            {EventStart: StateConnecting},
			StateConnecting:      {EventConnected: StateRecording},
			StateRecording:       {EventStop: StateStopped},
			StateStopped:         {EventClassify: StateConfirming},
			StateConfirming:      {EventConfirm: StateGeneratingNotes},
			StateGeneratingNotes: {EventNotesReady: StateDone},
		},
	}
}

// State returns the current state.
func (f *FSM) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Transition applies an event and returns the new state. EventFail is
// accepted from every state except done.
func (f *FSM) Transition(e Event) (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if e == EventFail {
		if f.state == StateDone {
			return f.state, apperrors.Newf(apperrors.CodeInvalidArgument,
				"cannot fail a completed pipeline")
		}
		f.state = StateError
		return f.state, nil
	}

	next, ok := f.transitions[f.state][e]
	if !ok {
		return f.state, apperrors.Newf(apperrors.CodeInvalidArgument,
			"event %q not valid in state %q", e, f.state)
	}
	f.state = next
	return f.state, nil
}
