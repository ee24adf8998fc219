package pipeline

import (
	"context"
	"io"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jdcastano06/FlowNote/internal/classify"
	"github.com/jdcastano06/FlowNote/internal/insight"
	"github.com/jdcastano06/FlowNote/internal/speech"
	"github.com/jdcastano06/FlowNote/internal/store"
	"github.com/jdcastano06/FlowNote/internal/summarize"
)

// Transcriber converts audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (speech.Result, error)
}

// Classifier proposes a course and lesson title for a transcript.
type Classifier interface {
	Classify(ctx context.Context, transcript string, courses []classify.Course) classify.Suggestion
}

// NotesGenerator produces structured notes from a transcript.
type NotesGenerator interface {
	Generate(ctx context.Context, text, lessonTitle string) (summarize.Notes, error)
}

// Repository is the slice of the store the pipeline needs.
type Repository interface {
	ListCourses(ctx context.Context, userID string, limit int64) ([]store.Course, error)
	FindCourseByName(ctx context.Context, userID, name string) (store.Course, error)
	CreateCourse(ctx context.Context, c store.Course) (store.Course, error)
	CreateLecture(ctx context.Context, l store.Lecture) (store.Lecture, error)
	UpdateLecture(ctx context.Context, userID string, id primitive.ObjectID, upd store.LectureUpdate) (store.Lecture, error)
}

// Uploader persists raw audio and returns its URL. Implementations may be
// disabled, in which case Upload returns an empty URL.
type Uploader interface {
	Upload(ctx context.Context, userID, filename, contentType string, data io.Reader) (string, error)
	Enabled() bool
}

// Recorder captures PCM from a microphone.
type Recorder interface {
	Start(ctx context.Context) error
	Flush() []int16
	Stop() error
	SampleRate() int
}

// InsightSource turns transcript chunks into live insights.
type InsightSource interface {
	Next(ctx context.Context, chunk, rolling string) (insight.Insight, bool)
	Reset()
}
