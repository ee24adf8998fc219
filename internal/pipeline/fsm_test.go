package pipeline

import (
	"testing"

	apperrors "github.com/jdcastano06/FlowNote/internal/errors"
)

func TestUploadFSMHappyPath(t *testing.T) {
	f := NewUploadFSM()

	steps := []struct {
		event Event
		want  State
	}{
		{EventStart, StateTranscribing},
		{EventTranscribed, StateAwaitingConfirmation},
		{EventConfirm, StateGeneratingNotes},
		{EventNotesReady, StateDone},
	}

	for _, s := range steps {
		got, err := f.Transition(s.event)
		if err != nil {
			t.Fatalf("Transition(%q) error = %v", s.event, err)
		}
		if got != s.want {
			t.Fatalf("Transition(%q) = %q, want %q", s.event, got, s.want)
		}
	}
}

func TestLiveFSMHappyPath(t *testing.T) {
	f := NewLiveFSM()

	for _, e := range []Event{EventStart, EventConnected, EventStop, EventClassify, EventConfirm, EventNotesReady} {
		if _, err := f.Transition(e); err != nil {
			t.Fatalf("Transition(%q) error = %v", e, err)
		}
	}
	if f.State() != StateDone {
		t.Errorf("final state = %q, want done", f.State())
	}
}

func TestFSMRejectsInvalidEvent(t *testing.T) {
	f := NewUploadFSM()

	_, err := f.Transition(EventConfirm)
	if !apperrors.IsCode(err, apperrors.CodeInvalidArgument) {
		t.Errorf("error = %v, want CodeInvalidArgument", err)
	}
	if f.State() != StateIdle {
		t.Errorf("state changed on invalid event: %q", f.State())
	}
}

func TestFSMFailFromAnyState(t *testing.T) {
	f := NewUploadFSM()
	f.Transition(EventStart)

	got, err := f.Transition(EventFail)
	if err != nil {
		t.Fatalf("Transition(fail) error = %v", err)
	}
	if got != StateError {
		t.Errorf("state = %q, want error", got)
	}
}

func TestFSMCannotFailWhenDone(t *testing.T) {
	f := NewUploadFSM()
	for _, e := range []Event{EventStart, EventTranscribed, EventConfirm, EventNotesReady} {
		f.Transition(e)
	}

	if _, err := f.Transition(EventFail); err == nil {
		t.Error("Transition(fail) from done succeeded, want error")
	}
	if f.State() != StateDone {
		t.Errorf("state = %q, want done preserved", f.State())
	}
}
