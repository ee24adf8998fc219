// Package server exposes the HTTP and websocket API
package server

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jdcastano06/FlowNote/internal/auth"
	"github.com/jdcastano06/FlowNote/internal/config"
	"github.com/jdcastano06/FlowNote/internal/pipeline"
	"github.com/jdcastano06/FlowNote/internal/store"
	"github.com/jdcastano06/FlowNote/internal/trace"
)

// Store is the persistence surface the handlers use.
type Store interface {
	ListCourses(ctx context.Context, userID string, limit int64) ([]store.Course, error)
	GetCourse(ctx context.Context, userID string, id primitive.ObjectID) (store.Course, error)
	CreateCourse(ctx context.Context, c store.Course) (store.Course, error)
	UpdateCourse(ctx context.Context, userID string, id primitive.ObjectID, name, description, icon string) (store.Course, error)
	DeleteCourse(ctx context.Context, userID string, id primitive.ObjectID) error

	ListLectures(ctx context.Context, userID string, courseID *primitive.ObjectID, limit int64) ([]store.Lecture, error)
	GetLecture(ctx context.Context, userID string, id primitive.ObjectID) (store.Lecture, error)
	UpdateLecture(ctx context.Context, userID string, id primitive.ObjectID, upd store.LectureUpdate) (store.Lecture, error)
	DeleteLecture(ctx context.Context, userID string, id primitive.ObjectID) error

	ListNotes(ctx context.Context, userID string, limit int64) ([]store.Note, error)
	GetNote(ctx context.Context, userID string, id primitive.ObjectID) (store.Note, error)
	CreateNote(ctx context.Context, n store.Note) (store.Note, error)
	UpdateNote(ctx context.Context, userID string, id primitive.ObjectID, upd store.NoteUpdate) (store.Note, error)
	DeleteNote(ctx context.Context, userID string, id primitive.ObjectID) error
}

// Server wires the API handlers to the pipeline and store.
type Server struct {
	cfg        *config.Config
	store      Store
	pipeline   *pipeline.Manager
	transcribe pipeline.Transcriber
	verifier   *auth.Verifier
	sessions   *sessionRegistry

	// newRecorder builds the microphone capture for live sessions.
	newRecorder func() pipeline.Recorder
	newInsights func() pipeline.InsightSource
}

// New creates the server.
func New(cfg *config.Config, st Store, pm *pipeline.Manager, t pipeline.Transcriber, v *auth.Verifier,
	newRecorder func() pipeline.Recorder, newInsights func() pipeline.InsightSource) *Server {
	return &Server{
		cfg:         cfg,
		store:       st,
		pipeline:    pm,
		transcribe:  t,
		verifier:    v,
		sessions:    newSessionRegistry(),
		newRecorder: newRecorder,
		newInsights: newInsights,
	}
}

// Handler builds the routed, middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /api/transcribe", s.handleTranscribe)
	mux.HandleFunc("POST /api/upload", s.handleUpload)
	mux.HandleFunc("POST /api/pipeline/{id}/confirm", s.handleConfirm)

	mux.HandleFunc("GET /api/courses", s.handleListCourses)
	mux.HandleFunc("POST /api/courses", s.handleCreateCourse)
	mux.HandleFunc("GET /api/courses/{id}", s.handleGetCourse)
	mux.HandleFunc("PUT /api/courses/{id}", s.handleUpdateCourse)
	mux.HandleFunc("DELETE /api/courses/{id}", s.handleDeleteCourse)

	mux.HandleFunc("GET /api/lectures", s.handleListLectures)
	mux.HandleFunc("GET /api/lectures/{id}", s.handleGetLecture)
	mux.HandleFunc("PUT /api/lectures/{id}", s.handleUpdateLecture)
	mux.HandleFunc("DELETE /api/lectures/{id}", s.handleDeleteLecture)

	mux.HandleFunc("GET /api/notes", s.handleListNotes)
	mux.HandleFunc("POST /api/notes", s.handleCreateNote)
	mux.HandleFunc("GET /api/notes/{id}", s.handleGetNote)
	mux.HandleFunc("PUT /api/notes/{id}", s.handleUpdateNote)
	mux.HandleFunc("DELETE /api/notes/{id}", s.handleDeleteNote)

	mux.HandleFunc("POST /api/recording/start", s.handleRecordingStart)
	mux.HandleFunc("POST /api/recording/stop", s.handleRecordingStop)
	mux.HandleFunc("POST /api/recording/confirm", s.handleRecordingConfirm)

	mux.HandleFunc("GET /ws", s.handleWebsocket)

	var h http.Handler = mux
	h = s.authExcept(h, "GET /health")
	h = trace.Middleware(h)
	h = corsMiddleware(h)
	return h
}

// authExcept wraps everything but the named method+path patterns in the
// bearer-token middleware.
func (s *Server) authExcept(next http.Handler, open ...string) http.Handler {
	skip := make(map[string]struct{}, len(open))
	for _, p := range open {
		skip[p] = struct{}{}
	}
	authed := s.verifier.Middleware(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := skip[r.Method+" "+r.URL.Path]; ok {
			next.ServeHTTP(w, r)
			return
		}
		authed.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+trace.TraceIDKey)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
