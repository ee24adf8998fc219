// Package summarize turns a full lecture transcript into structured notes
package summarize

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	apperrors "github.com/jdcastano06/FlowNote/internal/errors"
	"github.com/jdcastano06/FlowNote/internal/llm"
	"github.com/jdcastano06/FlowNote/internal/notes"
	"github.com/jdcastano06/FlowNote/internal/trace"
	"github.com/jdcastano06/FlowNote/internal/transcript"
)

// Notes is the generated study material for one lecture.
type Notes struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"keyPoints"`
	KeyTerms  []string `json:"keyTerms"`
	HTML      string   `json:"html"`
}

type modelNotes struct {
	Summary   string          `json:"summary"`
	KeyPoints json.RawMessage `json:"keyPoints"`
}

// maxTranscriptChars bounds what is sent to the model in one request. Cuts
// happen on sentence boundaries.
const maxTranscriptChars = 48000

// Generator produces notes from transcripts. Unlike classification, a
// failure here is surfaced: there is no useful degraded output.
type Generator struct {
	llm *llm.Client
}

// New creates a notes generator backed by the given chat client.
func New(client *llm.Client) *Generator {
	return &Generator{llm: client}
}

// Generate summarizes the transcript into notes with rendered HTML.
func (g *Generator) Generate(ctx context.Context, text, lessonTitle string) (Notes, error) {
	log := trace.Logger(ctx)
	start := time.Now()

	text = transcript.Clean(text)
	prompt := text
	if len(prompt) > maxTranscriptChars {
		chunks := transcript.Chunk(prompt, maxTranscriptChars)
		prompt = chunks[0]
		log.Warn("transcript truncated for summarization",
			"chars", len(text), "kept", len(prompt))
	}

	resp, err := g.llm.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: summarySystemPrompt},
			{Role: "user", Content: "Lesson: " + lessonTitle + "\n\nTranscript:\n" + prompt},
		},
		MaxTokens:   2000,
		Temperature: 0.4,
	})
	if err != nil {
		return Notes{}, apperrors.Wrap(err, apperrors.CodeProviderError, "notes generation failed")
	}

	parsed, err := parseModelNotes(resp)
	if err != nil {
		return Notes{}, err
	}

	n := Notes{
		Summary:   parsed.Summary,
		KeyPoints: coerceKeyPoints(parsed.KeyPoints),
		KeyTerms:  transcript.KeyTerms(text, 4),
	}
	n.HTML = render(n)

	log.Info("notes generated",
		"key_points", len(n.KeyPoints),
		"duration_ms", time.Since(start).Milliseconds())

	return n, nil
}

// parseModelNotes tries the content channel first, then the reasoning
// channel anchored on the summary key, then treats bare text as the summary
// itself.
func parseModelNotes(resp llm.Response) (modelNotes, error) {
	var parsed modelNotes

	if content := strings.TrimSpace(resp.Content); content != "" {
		if err := llm.ExtractObject(content, &parsed); err == nil && parsed.Summary != "" {
			return parsed, nil
		}
		// The model answered in prose instead of JSON; keep the text.
		return modelNotes{Summary: content}, nil
	}

	reasoning := strings.TrimSpace(resp.ReasoningContent)
	if reasoning == "" {
		return modelNotes{}, apperrors.New(apperrors.CodeParseFailed, "model returned no usable output")
	}
	if err := llm.ExtractObjectAnchored(reasoning, "summary", &parsed); err == nil && parsed.Summary != "" {
		return parsed, nil
	}
	return modelNotes{Summary: reasoning}, nil
}

// coerceKeyPoints accepts the shapes models actually emit: a string array,
// a single string, or garbage (which becomes no key points).
func coerceKeyPoints(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return compact(list)
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return compact([]string{single})
	}

	return nil
}

func compact(list []string) []string {
	out := list[:0]
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func render(n Notes) string {
	f := notes.NewFormatter()
	f.AddSection("Summary", n.Summary)
	if len(n.KeyPoints) > 0 {
		f.AddListSection("Key Points", n.KeyPoints)
	}
	if len(n.KeyTerms) > 0 {
		f.AddListSection("Key Terms", n.KeyTerms)
	}
	return f.HTML()
}

const summarySystemPrompt = `You are a study assistant. Summarize the lecture transcript into clear notes. Respond with JSON only: {"summary": string, "keyPoints": [string]}. The summary may contain simple HTML markup.`
