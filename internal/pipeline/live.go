package pipeline

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jdcastano06/FlowNote/internal/audio"
	"github.com/jdcastano06/FlowNote/internal/config"
	apperrors "github.com/jdcastano06/FlowNote/internal/errors"
	"github.com/jdcastano06/FlowNote/internal/insight"
	"github.com/jdcastano06/FlowNote/internal/store"
	"github.com/jdcastano06/FlowNote/internal/trace"
	"github.com/jdcastano06/FlowNote/internal/transcript"
)

const displayInterval = time.Second

// SessionEvent is pushed to the client over the websocket while recording.
type SessionEvent struct {
	Type    string           `json:"type"`
	State   State            `json:"state,omitempty"`
	Seconds int              `json:"seconds,omitempty"`
	Chunk   string           `json:"chunk,omitempty"`
	Insight *insight.Insight `json:"insight,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// Session is one live recording: microphone capture, periodic chunk
// transcription, and incremental insights, ending in the same confirmation
// flow as an upload.
type Session struct {
	ID     string
	UserID string

	cfg         *config.Config
	recorder    Recorder
	transcriber Transcriber
	insights    InsightSource
	manager     *Manager
	transcripts *transcript.Store
	fsm         *FSM
	emit        func(SessionEvent)

	started  time.Time
	duration time.Duration
	cancel   context.CancelFunc
	loopDone chan struct{}
	stopOnce sync.Once
	stopErr  error

	mu sync.Mutex
}

// NewSession builds a live session. emit receives every client-visible
// event; it must be safe to call from the session's goroutine.
func NewSession(cfg *config.Config, rec Recorder, t Transcriber, ins InsightSource, m *Manager, userID string, emit func(SessionEvent)) *Session {
	if emit == nil {
		emit = func(SessionEvent) {}
	}
	return &Session{
		ID:          uuid.NewString(),
		UserID:      userID,
		cfg:         cfg,
		recorder:    rec,
		transcriber: t,
		insights:    ins,
		manager:     m,
		transcripts: transcript.NewStore(),
		fsm:         NewLiveFSM(),
		emit:        emit,
		loopDone:    make(chan struct{}),
	}
}

// State returns the session's lifecycle state.
func (s *Session) State() State {
	return s.fsm.State()
}

// Elapsed returns whole seconds since recording began.
func (s *Session) Elapsed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started.IsZero() {
		return 0
	}
	if s.duration > 0 {
		return int(s.duration.Seconds())
	}
	return int(time.Since(s.started).Seconds())
}

// Transcript returns everything transcribed so far.
func (s *Session) Transcript() string {
	return s.transcripts.Text()
}

// Start opens the microphone and begins the chunk and display timers.
func (s *Session) Start(ctx context.Context) error {
	if _, err := s.fsm.Transition(EventStart); err != nil {
		return err
	}
	s.emitState()

	if err := s.recorder.Start(ctx); err != nil {
		s.fsm.Transition(EventFail)
		s.emit(SessionEvent{Type: "error", Error: err.Error()})
		return err
	}

	if _, err := s.fsm.Transition(EventConnected); err != nil {
		return err
	}
	s.insights.Reset()

	s.mu.Lock()
	s.started = time.Now()
	s.mu.Unlock()

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	go s.loop(loopCtx)

	s.emitState()
	trace.Logger(ctx).Info("live session started", "session_id", s.ID)
	return nil
}

func (s *Session) loop(ctx context.Context) {
	defer close(s.loopDone)

	chunkTicker := time.NewTicker(s.cfg.ChunkInterval)
	displayTicker := time.NewTicker(displayInterval)
	defer chunkTicker.Stop()
	defer displayTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-displayTicker.C:
			s.emit(SessionEvent{Type: "elapsed", Seconds: s.Elapsed()})
		case <-chunkTicker.C:
			s.flush(ctx)
		}
	}
}

// flush transcribes whatever audio accumulated since the last flush and
// feeds the new text through the insight generator.
func (s *Session) flush(ctx context.Context) {
	log := trace.Logger(ctx)

	samples := s.recorder.Flush()
	if len(samples) == 0 {
		return
	}

	wav := audio.EncodeWAV(samples, s.recorder.SampleRate())
	result, err := s.transcriber.Transcribe(ctx, bytes.NewReader(wav), "chunk.wav")
	if err != nil {
		log.Warn("chunk transcription failed, audio dropped", "error", err)
		return
	}
	if result.Text == "" {
		return
	}

	// Rolling context is what came before this chunk.
	rolling := s.transcripts.RecentContext(2, s.cfg.MaxContextChars)

	s.transcripts.Append(result.Text)
	chunk := s.transcripts.ConsumeChunk()
	if chunk == "" {
		return
	}
	s.emit(SessionEvent{Type: "chunk", Chunk: chunk})

	// The insight request runs on its own, detached from the loop context:
	// stopping the session must not abort it, and a slow model must not
	// delay the next chunk flush. A late result is still shown.
	insightCtx := context.WithoutCancel(ctx)
	go func() {
		if ins, ok := s.insights.Next(insightCtx, chunk, rolling); ok {
			s.emit(SessionEvent{Type: "insight", Insight: &ins})
		}
	}()
}

// Stop performs a final flush, halts the timers, and releases the
// microphone. Safe to call more than once.
func (s *Session) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		if _, err := s.fsm.Transition(EventStop); err != nil {
			s.stopErr = err
			return
		}

		s.mu.Lock()
		s.duration = time.Since(s.started)
		s.mu.Unlock()

		if s.cancel != nil {
			s.cancel()
			<-s.loopDone
		}
		s.flush(ctx)

		if err := s.recorder.Stop(); err != nil {
			trace.Logger(ctx).Warn("recorder stop failed", "error", err)
		}

		s.emitState()
		trace.Logger(ctx).Info("live session stopped",
			"session_id", s.ID,
			"elapsed_seconds", s.Elapsed(),
			"transcript_chars", len(s.Transcript()))
	})
	return s.stopErr
}

// Finish classifies the accumulated transcript and parks it for
// confirmation, returning the pending run.
func (s *Session) Finish(ctx context.Context) (*Run, error) {
	if s.fsm.State() != StateStopped {
		return nil, apperrors.Newf(apperrors.CodeInvalidArgument,
			"cannot finish session in state %q", s.fsm.State())
	}

	run, err := s.manager.RegisterTranscript(ctx, s.UserID, s.Transcript(), float64(s.Elapsed()))
	if err != nil {
		s.fsm.Transition(EventFail)
		return nil, err
	}

	if _, err := s.fsm.Transition(EventClassify); err != nil {
		return nil, err
	}
	s.emitState()
	return run, nil
}

// Confirm persists the lecture with notes, completing the session.
func (s *Session) Confirm(ctx context.Context, runID string, c Confirmation) (store.Lecture, error) {
	if _, err := s.fsm.Transition(EventConfirm); err != nil {
		return store.Lecture{}, err
	}
	s.emitState()

	lecture, err := s.manager.Confirm(ctx, s.UserID, runID, c)
	if err != nil {
		s.fsm.Transition(EventFail)
		s.emit(SessionEvent{Type: "error", Error: err.Error()})
		return lecture, err
	}

	if _, err := s.fsm.Transition(EventNotesReady); err != nil {
		return lecture, err
	}
	s.emitState()
	return lecture, nil
}

func (s *Session) emitState() {
	s.emit(SessionEvent{Type: "state", State: s.fsm.State()})
}
