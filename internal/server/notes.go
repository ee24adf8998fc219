package server

import (
	"net/http"
	"strings"

	apperrors "github.com/jdcastano06/FlowNote/internal/errors"
	"github.com/jdcastano06/FlowNote/internal/store"
)

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	notes, err := s.store.ListNotes(r.Context(), user.ID, limitParam(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var body struct {
		Title   string   `json:"title"`
		Content string   `json:"content"`
		Tags    []string `json:"tags"`
		Type    string   `json:"type"`
		Status  string   `json:"status"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(body.Title) == "" {
		writeError(w, r, apperrors.New(apperrors.CodeInvalidArgument, "note title is required"))
		return
	}

	note, err := s.store.CreateNote(r.Context(), store.Note{
		UserID:  user.ID,
		Title:   strings.TrimSpace(body.Title),
		Content: body.Content,
		Tags:    body.Tags,
		Type:    body.Type,
		Status:  body.Status,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	note, err := s.store.GetNote(r.Context(), user.ID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var body struct {
		Title   *string  `json:"title"`
		Content *string  `json:"content"`
		Status  *string  `json:"status"`
		Type    *string  `json:"type"`
		Tags    []string `json:"tags"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	note, err := s.store.UpdateNote(r.Context(), user.ID, id, store.NoteUpdate{
		Title:   body.Title,
		Content: body.Content,
		Status:  body.Status,
		Type:    body.Type,
		Tags:    body.Tags,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.store.DeleteNote(r.Context(), user.ID, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
