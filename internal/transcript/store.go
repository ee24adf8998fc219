package transcript

import (
	"strings"
	"sync"
)

// Store accumulates live transcription text and hands out non-overlapping
// chunks for downstream processing. The cursor only ever advances, so each
// appended span is consumed exactly once.
type Store struct {
	mu     sync.RWMutex
	text   strings.Builder
	cursor int
	chunks []string
}

// NewStore creates an empty live transcript store.
func NewStore() *Store {
	return &Store{}
}

// Append adds finalized recognition text, separated by a single space.
func (s *Store) Append(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.text.Len() > 0 {
		s.text.WriteByte(' ')
	}
	s.text.WriteString(text)
}

// Text returns the full accumulated transcript.
func (s *Store) Text() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.text.String()
}

// ConsumeChunk returns the text appended since the previous flush and
// advances the cursor past it. Returns "" when nothing new arrived.
func (s *Store) ConsumeChunk() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	full := s.text.String()
	if len(full) <= s.cursor {
		return ""
	}
	chunk := full[s.cursor:]
	s.cursor = len(full)
	s.chunks = append(s.chunks, chunk)
	return chunk
}

// Chunks returns a copy of every chunk consumed so far, in flush order.
func (s *Store) Chunks() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.chunks))
	copy(out, s.chunks)
	return out
}

// RecentContext returns the last n chunks joined by a space, truncated to
// the final maxChars characters. Used as rolling context for insights.
func (s *Store) RecentContext(n, maxChars int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := len(s.chunks) - n
	if start < 0 {
		start = 0
	}
	joined := strings.Join(s.chunks[start:], " ")
	if len(joined) > maxChars {
		joined = joined[len(joined)-maxChars:]
	}
	return joined
}

// Reset clears all accumulated state for a fresh recording session.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text.Reset()
	s.cursor = 0
	s.chunks = nil
}
