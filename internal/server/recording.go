package server

import (
	"net/http"

	apperrors "github.com/jdcastano06/FlowNote/internal/errors"
	"github.com/jdcastano06/FlowNote/internal/pipeline"
)

type recordingStatus struct {
	SessionID string         `json:"sessionId"`
	State     pipeline.State `json:"state"`
	Seconds   int            `json:"seconds"`
}

func (s *Server) handleRecordingStart(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	entry := s.sessions.entryFor(user.ID)
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.session != nil {
		switch entry.session.State() {
		case pipeline.StateDone, pipeline.StateError:
			// finished; replaceable
		default:
			writeError(w, r, apperrors.New(apperrors.CodeInvalidArgument, "a recording session is already active"))
			return
		}
	}

	session := pipeline.NewSession(
		s.cfg,
		s.newRecorder(),
		s.transcribe,
		s.newInsights(),
		s.pipeline,
		user.ID,
		entry.hub.broadcast,
	)
	if err := session.Start(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	entry.session = session
	entry.run = nil

	writeJSON(w, http.StatusOK, recordingStatus{
		SessionID: session.ID,
		State:     session.State(),
		Seconds:   session.Elapsed(),
	})
}

// handleRecordingStop halts capture, flushes the tail audio, and parks the
// transcript for confirmation.
func (s *Server) handleRecordingStop(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	entry := s.sessions.entryFor(user.ID)
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.session == nil {
		writeError(w, r, apperrors.New(apperrors.CodeNotFound, "no active recording session"))
		return
	}

	if err := entry.session.Stop(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}

	run, err := entry.session.Finish(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	entry.run = run

	writeJSON(w, http.StatusOK, runResponse(run))
}

func (s *Server) handleRecordingConfirm(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	entry := s.sessions.entryFor(user.ID)
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.session == nil || entry.run == nil {
		writeError(w, r, apperrors.New(apperrors.CodeNotFound, "no recording awaiting confirmation"))
		return
	}

	var body struct {
		RunID string `json:"runId"`
		pipeline.Confirmation
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	runID := body.RunID
	if runID == "" {
		runID = entry.run.ID
	}

	lecture, err := entry.session.Confirm(r.Context(), runID, body.Confirmation)
	if err != nil {
		writeError(w, r, err)
		return
	}

	entry.session = nil
	entry.run = nil

	writeJSON(w, http.StatusOK, lecture)
}
