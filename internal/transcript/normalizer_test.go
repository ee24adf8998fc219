package transcript

import (
	"strings"
	"testing"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"collapses spaces", "hello    world", "hello world"},
		{"collapses tabs", "hello\t\tworld", "hello world"},
		{"trims edges", "  hello world  ", "hello world"},
		{"keeps double newline", "para one\n\npara two", "para one\npara two"},
		{"collapses triple newline", "para one\n\n\n\npara two", "para one\n\npara two"},
		{"empty", "", ""},
		{"whitespace only", "  \n\t  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.input); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestChunkRespectsSentenceBoundaries(t *testing.T) {
	text := "First sentence here. Second sentence here. Third sentence here."
	chunks := Chunk(text, 45)

	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2: %q", len(chunks), chunks)
	}
	for _, c := range chunks {
		if !strings.HasSuffix(c, ".") {
			t.Errorf("chunk %q does not end on a sentence boundary", c)
		}
	}
	if joined := strings.Join(chunks, " "); joined != text {
		t.Errorf("rejoined = %q, want %q", joined, text)
	}
}

func TestChunkOversizedSentence(t *testing.T) {
	long := "This single sentence is far longer than the chunk limit allows."
	chunks := Chunk(long, 10)

	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0] != long {
		t.Errorf("oversized sentence was split: %q", chunks[0])
	}
}

func TestChunkEmpty(t *testing.T) {
	if got := Chunk("   ", 100); got != nil {
		t.Errorf("Chunk on whitespace = %v, want nil", got)
	}
}

func TestChunkSingleFits(t *testing.T) {
	chunks := Chunk("Short one. And two.", 100)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0] != "Short one. And two." {
		t.Errorf("chunk = %q", chunks[0])
	}
}

func TestWordCount(t *testing.T) {
	if got := WordCount("  one   two\nthree "); got != 3 {
		t.Errorf("WordCount = %d, want 3", got)
	}
	if got := WordCount(""); got != 0 {
		t.Errorf("WordCount empty = %d, want 0", got)
	}
}

func TestCharCount(t *testing.T) {
	if got := CharCount("  abc  def  "); got != 7 {
		t.Errorf("CharCount = %d, want 7", got)
	}
}

func TestKeyTerms(t *testing.T) {
	text := "Photosynthesis converts light energy. Photosynthesis uses chlorophyll. " +
		"The light reactions split water, and energy is stored."

	terms := KeyTerms(text, 4)
	if len(terms) == 0 {
		t.Fatal("KeyTerms returned nothing")
	}
	if terms[0] != "photosynthesis" {
		t.Errorf("top term = %q, want photosynthesis", terms[0])
	}
	for _, term := range terms {
		if _, common := stopwords[term]; common {
			t.Errorf("stopword %q leaked into key terms", term)
		}
		if len(term) < 4 {
			t.Errorf("term %q shorter than min length", term)
		}
	}
}

func TestKeyTermsCap(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 15; i++ {
		b.WriteString(strings.Repeat(string(rune('a'+i)), 5))
		b.WriteByte(' ')
	}
	if got := KeyTerms(b.String(), 3); len(got) > 10 {
		t.Errorf("got %d terms, want at most 10", len(got))
	}
}
