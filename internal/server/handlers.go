package server

import (
	"mime/multipart"
	"net/http"

	"github.com/jdcastano06/FlowNote/internal/classify"
	apperrors "github.com/jdcastano06/FlowNote/internal/errors"
	"github.com/jdcastano06/FlowNote/internal/pipeline"
	"github.com/jdcastano06/FlowNote/internal/transcript"
)

const maxUploadBytes = 200 << 20

// transcribeResponse is the bare transcription result, no pipeline attached.
type transcribeResponse struct {
	Text            string  `json:"text"`
	DurationSeconds float64 `json:"durationSeconds"`
	WordCount       int     `json:"wordCount"`
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	file, header, err := audioFormFile(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer file.Close()

	result, err := s.transcribe.Transcribe(r.Context(), file, header.Filename)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, transcribeResponse{
		Text:            result.Text,
		DurationSeconds: result.DurationSeconds,
		WordCount:       transcript.WordCount(result.Text),
	})
}

// uploadResponse parks the run id with the classifier's suggestion so the
// client can show a confirmation dialog.
type uploadResponse struct {
	RunID           string              `json:"runId"`
	State           pipeline.State      `json:"state"`
	Transcript      string              `json:"transcript"`
	DurationSeconds float64             `json:"durationSeconds"`
	AudioURL        string              `json:"audioUrl,omitempty"`
	Suggestion      classify.Suggestion `json:"suggestion"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	file, header, err := audioFormFile(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	run, err := s.pipeline.StartUpload(r.Context(), user.ID, header.Filename, contentType, file)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, runResponse(run))
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var c pipeline.Confirmation
	if err := decodeBody(r, &c); err != nil {
		writeError(w, r, err)
		return
	}

	lecture, err := s.pipeline.Confirm(r.Context(), user.ID, r.PathValue("id"), c)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, lecture)
}

func runResponse(run *pipeline.Run) uploadResponse {
	return uploadResponse{
		RunID:           run.ID,
		State:           run.State(),
		Transcript:      run.Transcript,
		DurationSeconds: run.Duration,
		AudioURL:        run.AudioURL,
		Suggestion:      run.Suggestion,
	}
}

func audioFormFile(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.CodeInvalidArgument, "expected multipart form upload")
	}
	f, h, err := r.FormFile("audio")
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.CodeInvalidArgument, "missing audio file field")
	}
	return f, h, nil
}
