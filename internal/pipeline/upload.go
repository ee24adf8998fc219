package pipeline

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jdcastano06/FlowNote/internal/blob"
	"github.com/jdcastano06/FlowNote/internal/classify"
	"github.com/jdcastano06/FlowNote/internal/config"
	apperrors "github.com/jdcastano06/FlowNote/internal/errors"
	"github.com/jdcastano06/FlowNote/internal/store"
	"github.com/jdcastano06/FlowNote/internal/trace"
	"github.com/jdcastano06/FlowNote/internal/transcript"
)

const runTTL = time.Hour

// Run is one upload waiting for the user to confirm where it belongs.
type Run struct {
	ID         string
	UserID     string
	Transcript string
	Duration   float64
	AudioURL   string
	Suggestion classify.Suggestion
	CreatedAt  time.Time

	fsm *FSM
}

// State returns the run's current lifecycle state.
func (r *Run) State() State {
	return r.fsm.State()
}

// Confirmation carries the user's (possibly edited) course and lesson
// choices back into the pipeline.
type Confirmation struct {
	CourseName  string `json:"courseName"`
	LessonTitle string `json:"lessonTitle"`
}

// Manager owns upload runs from transcription through confirmed lecture.
type Manager struct {
	cfg        *config.Config
	transcribe Transcriber
	classifier Classifier
	notes      NotesGenerator
	repo       Repository
	uploader   Uploader

	mu   sync.Mutex
	runs map[string]*Run

	now func() time.Time
}

// NewManager wires the upload pipeline.
func NewManager(cfg *config.Config, t Transcriber, c Classifier, n NotesGenerator, repo Repository, up Uploader) *Manager {
	return &Manager{
		cfg:        cfg,
		transcribe: t,
		classifier: c,
		notes:      n,
		repo:       repo,
		uploader:   up,
		runs:       make(map[string]*Run),
		now:        time.Now,
	}
}

// StartUpload transcribes the audio, stores it, classifies the transcript,
// and parks the run awaiting confirmation.
func (m *Manager) StartUpload(ctx context.Context, userID, filename, contentType string, audio io.Reader) (*Run, error) {
	ctx, span := trace.StartSpan(ctx, "pipeline.upload")
	defer span.End()
	log := trace.Logger(ctx)

	if err := blob.ValidateContentType(contentType, m.cfg.AllowedAudioTypes); err != nil {
		return nil, err
	}

	run := &Run{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: m.now(),
		fsm:       NewUploadFSM(),
	}
	if _, err := run.fsm.Transition(EventStart); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(audio)
	if err != nil {
		run.fsm.Transition(EventFail)
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidArgument, "read uploaded audio")
	}

	result, err := m.transcribe.Transcribe(ctx, bytes.NewReader(data), filename)
	if err != nil {
		run.fsm.Transition(EventFail)
		return nil, err
	}
	run.Transcript = transcript.Clean(result.Text)
	run.Duration = result.DurationSeconds

	// Raw audio storage is best-effort; losing the blob never fails the run.
	if m.uploader != nil && m.uploader.Enabled() {
		url, err := m.uploader.Upload(ctx, userID, filename, contentType, bytes.NewReader(data))
		if err != nil {
			log.Warn("audio upload failed, continuing without blob", "error", err)
		} else {
			run.AudioURL = url
		}
	}

	if err := m.classifyAndPark(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// RegisterTranscript parks an already-transcribed text (from a live
// recording session) as a run awaiting confirmation.
func (m *Manager) RegisterTranscript(ctx context.Context, userID, text string, duration float64) (*Run, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "empty transcript")
	}

	run := &Run{
		ID:         uuid.NewString(),
		UserID:     userID,
		Transcript: text,
		Duration:   duration,
		CreatedAt:  m.now(),
		fsm:        NewUploadFSM(),
	}
	if _, err := run.fsm.Transition(EventStart); err != nil {
		return nil, err
	}
	if err := m.classifyAndPark(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// classifyAndPark suggests a destination for the run's transcript and holds
// the run until the user confirms.
func (m *Manager) classifyAndPark(ctx context.Context, run *Run) error {
	log := trace.Logger(ctx)

	courses, err := m.repo.ListCourses(ctx, run.UserID, 0)
	if err != nil {
		log.Warn("course listing failed, classifying without candidates", "error", err)
	}
	run.Suggestion = m.classifier.Classify(ctx, run.Transcript, toClassifyCourses(courses))

	if _, err := run.fsm.Transition(EventTranscribed); err != nil {
		return err
	}

	m.mu.Lock()
	m.runs[run.ID] = run
	m.mu.Unlock()

	log.Info("run awaiting confirmation",
		"run_id", run.ID,
		"transcript_chars", len(run.Transcript),
		"suggested_course", run.Suggestion.CourseName)

	return nil
}

// Confirm resolves the course, persists the lecture, and generates notes.
// The lecture is saved before note generation, so a notes failure leaves a
// retrievable transcribed lecture behind.
func (m *Manager) Confirm(ctx context.Context, userID, runID string, c Confirmation) (store.Lecture, error) {
	ctx, span := trace.StartSpan(ctx, "pipeline.confirm")
	defer span.End()
	log := trace.Logger(ctx)

	run, err := m.takeRun(userID, runID)
	if err != nil {
		return store.Lecture{}, err
	}
	if _, err := run.fsm.Transition(EventConfirm); err != nil {
		return store.Lecture{}, err
	}

	courseName := strings.TrimSpace(c.CourseName)
	if courseName == "" {
		courseName = run.Suggestion.CourseName
	}
	lessonTitle := strings.TrimSpace(c.LessonTitle)
	if lessonTitle == "" {
		lessonTitle = run.Suggestion.LessonTitle
	}

	course, err := m.resolveCourse(ctx, userID, courseName, run.Suggestion)
	if err != nil {
		run.fsm.Transition(EventFail)
		return store.Lecture{}, err
	}

	lecture, err := m.repo.CreateLecture(ctx, store.Lecture{
		UserID:          userID,
		CourseID:        course.ID,
		Title:           lessonTitle,
		Transcription:   run.Transcript,
		Status:          store.StatusTranscribed,
		DurationSeconds: run.Duration,
		AudioURL:        run.AudioURL,
	})
	if err != nil {
		run.fsm.Transition(EventFail)
		return store.Lecture{}, err
	}

	generated, err := m.notes.Generate(ctx, run.Transcript, lessonTitle)
	if err != nil {
		run.fsm.Transition(EventFail)
		log.Error("notes generation failed, lecture kept as transcribed",
			"lecture_id", lecture.ID.Hex(), "error", err)
		return lecture, err
	}

	status := store.StatusProcessed
	lecture, err = m.repo.UpdateLecture(ctx, userID, lecture.ID, store.LectureUpdate{
		Content:   &generated.HTML,
		Status:    &status,
		KeyPoints: generated.KeyPoints,
	})
	if err != nil {
		run.fsm.Transition(EventFail)
		return lecture, err
	}

	if _, err := run.fsm.Transition(EventNotesReady); err != nil {
		return lecture, err
	}
	m.dropRun(runID)

	log.Info("lecture processed",
		"lecture_id", lecture.ID.Hex(),
		"course", course.Name,
		"title", lessonTitle)

	return lecture, nil
}

// GetRun returns a pending run owned by the user.
func (m *Manager) GetRun(userID, runID string) (*Run, error) {
	return m.takeRun(userID, runID)
}

// resolveCourse reuses the classifier's match when the user kept its
// suggestion, re-queries on an edited name, and creates the course when
// nothing matches.
func (m *Manager) resolveCourse(ctx context.Context, userID, courseName string, s classify.Suggestion) (store.Course, error) {
	if s.CourseID != "" && strings.EqualFold(courseName, s.CourseName) {
		if found, err := m.repo.FindCourseByName(ctx, userID, s.CourseName); err == nil {
			return found, nil
		}
	}

	found, err := m.repo.FindCourseByName(ctx, userID, courseName)
	if err == nil {
		return found, nil
	}
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		return store.Course{}, err
	}

	return m.repo.CreateCourse(ctx, store.Course{UserID: userID, Name: courseName})
}

func (m *Manager) takeRun(userID, runID string) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, ok := m.runs[runID]
	if !ok || run.UserID != userID {
		return nil, apperrors.New(apperrors.CodeNotFound, "pending upload not found")
	}
	return run, nil
}

func (m *Manager) dropRun(runID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.runs, runID)
}

// Sweep drops abandoned runs. Call it periodically.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-runTTL)
	dropped := 0
	for id, run := range m.runs {
		if run.CreatedAt.Before(cutoff) {
			delete(m.runs, id)
			dropped++
		}
	}
	return dropped
}

// StartJanitor sweeps abandoned runs until the context is canceled.
func (m *Manager) StartJanitor(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := m.Sweep(); n > 0 {
					trace.Logger(ctx).Info("swept abandoned uploads", "count", n)
				}
			}
		}
	}()
}

func toClassifyCourses(courses []store.Course) []classify.Course {
	out := make([]classify.Course, len(courses))
	for i, c := range courses {
		out[i] = classify.Course{ID: c.ID.Hex(), Name: c.Name}
	}
	return out
}
