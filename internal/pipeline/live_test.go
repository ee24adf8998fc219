package pipeline

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jdcastano06/FlowNote/internal/classify"
	"github.com/jdcastano06/FlowNote/internal/config"
	"github.com/jdcastano06/FlowNote/internal/insight"
	"github.com/jdcastano06/FlowNote/internal/speech"
	"github.com/jdcastano06/FlowNote/internal/store"
	"github.com/jdcastano06/FlowNote/internal/summarize"
)

type fakeRecorder struct {
	mu      sync.Mutex
	pending []int16
	started bool
	stopped bool
}

func (r *fakeRecorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = true
	return nil
}

func (r *fakeRecorder) feed(samples []int16) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, samples...)
}

func (r *fakeRecorder) Flush() []int16 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.pending
	r.pending = nil
	return out
}

func (r *fakeRecorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	return nil
}

func (r *fakeRecorder) SampleRate() int { return 16000 }

type seqTranscriber struct {
	mu    sync.Mutex
	texts []string
	calls int
}

func (t *seqTranscriber) Transcribe(ctx context.Context, audio io.Reader, filename string) (speech.Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	text := "more speech"
	if t.calls < len(t.texts) {
		text = t.texts[t.calls]
	}
	t.calls++
	return speech.Result{Text: text}, nil
}

type fakeInsights struct {
	mu     sync.Mutex
	chunks []string
	resets int
}

func (f *fakeInsights) Next(ctx context.Context, chunk, rolling string) (insight.Insight, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chunks = append(f.chunks, chunk)
	return insight.Insight{KeyPoints: []string{"point for " + chunk}}, true
}

func (f *fakeInsights) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
}

// blockingInsights holds every Next call until release is closed, then
// reports whether the context it was given had been cancelled.
type blockingInsights struct {
	release chan struct{}
}

func (b *blockingInsights) Next(ctx context.Context, chunk, rolling string) (insight.Insight, bool) {
	<-b.release
	if ctx.Err() != nil {
		return insight.Insight{}, false
	}
	return insight.Insight{KeyPoints: []string{"late point for " + chunk}}, true
}

func (b *blockingInsights) Reset() {}

type eventSink struct {
	mu     sync.Mutex
	events []SessionEvent
}

func (e *eventSink) emit(ev SessionEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
}

func (e *eventSink) ofType(t string) []SessionEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []SessionEvent
	for _, ev := range e.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func (e *eventSink) waitFor(t *testing.T, typ string, count int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(e.ofType(typ)) >= count {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d %q events, have %d", count, typ, len(e.ofType(typ)))
}

func liveCfg() *config.Config {
	return &config.Config{
		ChunkInterval:     20 * time.Millisecond,
		MaxContextChars:   1000,
		MaxPreviousPoints: 20,
		AllowedAudioTypes: []string{"audio/wav"},
	}
}

func liveManager(cfg *config.Config, repo Repository) *Manager {
	cl := &fakeClassifier{suggestion: classify.Suggestion{CourseName: "Biology", LessonTitle: "Live Lecture"}}
	notes := &fakeNotes{notes: summarize.Notes{Summary: "s", HTML: "<h2>Summary</h2>"}}
	return NewManager(cfg, &fakeTranscriber{}, cl, notes, repo, nil)
}

func TestLiveSessionRecordsAndEmitsInsights(t *testing.T) {
	cfg := liveCfg()
	rec := &fakeRecorder{}
	tr := &seqTranscriber{texts: []string{"first chunk of the lecture audio"}}
	ins := &fakeInsights{}
	sink := &eventSink{}

	s := NewSession(cfg, rec, tr, ins, liveManager(cfg, newFakeRepo()), "u1", sink.emit)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if s.State() != StateRecording {
		t.Fatalf("state = %q, want recording", s.State())
	}
	if ins.resets != 1 {
		t.Errorf("insight history resets = %d, want 1", ins.resets)
	}

	rec.feed([]int16{1, 2, 3, 4})
	sink.waitFor(t, "chunk", 1)
	sink.waitFor(t, "insight", 1)

	if got := sink.ofType("chunk")[0].Chunk; got != "first chunk of the lecture audio" {
		t.Errorf("chunk event = %q", got)
	}
	if got := sink.ofType("insight")[0].Insight; got == nil || len(got.KeyPoints) != 1 {
		t.Errorf("insight event = %+v", got)
	}

	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if !rec.stopped {
		t.Error("recorder not released on Stop")
	}
}

func TestLiveSessionElapsedEvents(t *testing.T) {
	cfg := liveCfg()
	sink := &eventSink{}
	s := NewSession(cfg, &fakeRecorder{}, &seqTranscriber{}, &fakeInsights{}, liveManager(cfg, newFakeRepo()), "u1", sink.emit)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop(context.Background())

	sink.waitFor(t, "elapsed", 1)
}

func TestLiveSessionStopFlushesRemainder(t *testing.T) {
	cfg := liveCfg()
	cfg.ChunkInterval = time.Hour // only the final flush can pick the audio up
	rec := &fakeRecorder{}
	tr := &seqTranscriber{texts: []string{"tail audio captured at stop"}}
	sink := &eventSink{}

	s := NewSession(cfg, rec, tr, &fakeInsights{}, liveManager(cfg, newFakeRepo()), "u1", sink.emit)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	rec.feed([]int16{9, 9})
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	if got := s.Transcript(); got != "tail audio captured at stop" {
		t.Errorf("Transcript() = %q", got)
	}
	if s.State() != StateStopped {
		t.Errorf("state = %q, want stopped", s.State())
	}
}

func TestLiveSessionStopKeepsInFlightInsight(t *testing.T) {
	cfg := liveCfg()
	rec := &fakeRecorder{}
	tr := &seqTranscriber{texts: []string{"a chunk whose insight outlives the session"}}
	ins := &blockingInsights{release: make(chan struct{})}
	sink := &eventSink{}

	s := NewSession(cfg, rec, tr, ins, liveManager(cfg, newFakeRepo()), "u1", sink.emit)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	rec.feed([]int16{1, 2})
	sink.waitFor(t, "chunk", 1)

	// Stop while the insight request is still in flight.
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	close(ins.release)

	sink.waitFor(t, "insight", 1)
	got := sink.ofType("insight")[0].Insight
	if got == nil || len(got.KeyPoints) != 1 || !strings.Contains(got.KeyPoints[0], "late point") {
		t.Errorf("insight after stop = %+v, want the late result appended", got)
	}
}

func TestLiveSessionSlowInsightDoesNotBlockFlushes(t *testing.T) {
	cfg := liveCfg()
	rec := &fakeRecorder{}
	tr := &seqTranscriber{texts: []string{"first spoken chunk", "second spoken chunk"}}
	ins := &blockingInsights{release: make(chan struct{})}
	sink := &eventSink{}

	s := NewSession(cfg, rec, tr, ins, liveManager(cfg, newFakeRepo()), "u1", sink.emit)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop(context.Background())

	rec.feed([]int16{1})
	sink.waitFor(t, "chunk", 1)
	rec.feed([]int16{2})
	sink.waitFor(t, "chunk", 2) // second flush lands while the first insight hangs

	close(ins.release)
	sink.waitFor(t, "insight", 2)
}

func TestLiveSessionStopIdempotent(t *testing.T) {
	cfg := liveCfg()
	s := NewSession(cfg, &fakeRecorder{}, &seqTranscriber{}, &fakeInsights{}, liveManager(cfg, newFakeRepo()), "u1", nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("first Stop() error = %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("second Stop() error = %v, want nil", err)
	}
}

func TestLiveSessionFullFlow(t *testing.T) {
	cfg := liveCfg()
	cfg.ChunkInterval = time.Hour
	rec := &fakeRecorder{}
	tr := &seqTranscriber{texts: []string{"the whole lecture in one take"}}
	repo := newFakeRepo()
	sink := &eventSink{}

	s := NewSession(cfg, rec, tr, &fakeInsights{}, liveManager(cfg, repo), "u1", sink.emit)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	rec.feed([]int16{1})
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	run, err := s.Finish(context.Background())
	if err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	if s.State() != StateConfirming {
		t.Errorf("state = %q, want confirming", s.State())
	}
	if run.Suggestion.CourseName != "Biology" {
		t.Errorf("suggestion = %+v", run.Suggestion)
	}

	lecture, err := s.Confirm(context.Background(), run.ID, Confirmation{LessonTitle: "Edited Title"})
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if s.State() != StateDone {
		t.Errorf("state = %q, want done", s.State())
	}
	if lecture.Title != "Edited Title" {
		t.Errorf("Title = %q", lecture.Title)
	}
	if lecture.Status != store.StatusProcessed {
		t.Errorf("Status = %q, want processed", lecture.Status)
	}
	if lecture.Transcription != "the whole lecture in one take" {
		t.Errorf("Transcription = %q", lecture.Transcription)
	}

	states := sink.ofType("state")
	if len(states) == 0 || states[len(states)-1].State != StateDone {
		t.Errorf("last state event = %v, want done", states)
	}
}

func TestLiveSessionFinishBeforeStop(t *testing.T) {
	cfg := liveCfg()
	s := NewSession(cfg, &fakeRecorder{}, &seqTranscriber{}, &fakeInsights{}, liveManager(cfg, newFakeRepo()), "u1", nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop(context.Background())

	if _, err := s.Finish(context.Background()); err == nil {
		t.Error("Finish() before Stop succeeded, want error")
	}
}

func TestLiveSessionShortTranscriberOutputIgnored(t *testing.T) {
	cfg := liveCfg()
	cfg.ChunkInterval = time.Hour
	rec := &fakeRecorder{}
	tr := &seqTranscriber{texts: []string{""}}
	sink := &eventSink{}

	s := NewSession(cfg, rec, tr, &fakeInsights{}, liveManager(cfg, newFakeRepo()), "u1", sink.emit)
	s.Start(context.Background())
	rec.feed([]int16{1})
	s.Stop(context.Background())

	if got := len(sink.ofType("chunk")); got != 0 {
		t.Errorf("chunk events = %d, want 0 for empty transcription", got)
	}
	if strings.TrimSpace(s.Transcript()) != "" {
		t.Errorf("Transcript() = %q, want empty", s.Transcript())
	}
}
