package server

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	apperrors "github.com/jdcastano06/FlowNote/internal/errors"
	"github.com/jdcastano06/FlowNote/internal/store"
)

func (s *Server) handleListLectures(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var courseID *primitive.ObjectID
	if raw := r.URL.Query().Get("courseId"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			writeError(w, r, apperrors.New(apperrors.CodeInvalidArgument, "invalid courseId"))
			return
		}
		courseID = &id
	}

	lectures, err := s.store.ListLectures(r.Context(), user.ID, courseID, limitParam(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lectures)
}

func (s *Server) handleGetLecture(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	lecture, err := s.store.GetLecture(r.Context(), user.ID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lecture)
}

func (s *Server) handleUpdateLecture(w http.ResponseWriter, r *http.Request) {
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
		Title   *string `json:"title"`
		Content *string `json:"content"`
		Status  *string `json:"status"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if body.Status != nil && *body.Status != store.StatusTranscribed && *body.Status != store.StatusProcessed {
		writeError(w, r, apperrors.Newf(apperrors.CodeInvalidArgument, "unknown status %q", *body.Status))
		return
	}

	lecture, err := s.store.UpdateLecture(r.Context(), user.ID, id, store.LectureUpdate{
		Title:   body.Title,
		Content: body.Content,
		Status:  body.Status,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lecture)
}

func (s *Server) handleDeleteLecture(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.store.DeleteLecture(r.Context(), user.ID, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
