// Package classify suggests a course and lesson title for a new transcript
package classify

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jdcastano06/FlowNote/internal/llm"
	"github.com/jdcastano06/FlowNote/internal/trace"
)

const transcriptPrefixLen = 500

// Course is an existing course the transcript may belong to.
type Course struct {
	ID   string
	Name string
}

// Suggestion is the classifier's proposal. It is always populated; callers
// can hand it straight to the confirmation step.
type Suggestion struct {
	CourseID    string `json:"courseId,omitempty"`
	CourseName  string `json:"suggestedCourse"`
	LessonTitle string `json:"suggestedLessonTitle"`
	IsNewCourse bool   `json:"isNewCourse"`
}

type modelSuggestion struct {
	SuggestedCourse      string `json:"suggestedCourse"`
	SuggestedLessonTitle string `json:"suggestedLessonTitle"`
	IsNewCourse          bool   `json:"isNewCourse"`
}

// Classifier asks the model where a transcript belongs. It never returns an
// error: any model or parse failure degrades to a generic suggestion so the
// upload flow always reaches confirmation.
type Classifier struct {
	llm *llm.Client
	now func() time.Time
}

// New creates a classifier backed by the given chat client.
func New(client *llm.Client) *Classifier {
	return &Classifier{llm: client, now: time.Now}
}

// Classify proposes a course and lesson title from the opening of the
// transcript and the user's existing courses.
func (c *Classifier) Classify(ctx context.Context, transcript string, courses []Course) Suggestion {
	log := trace.Logger(ctx)

	prefix := transcriptPrefix(transcript)

	resp, err := c.llm.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: classifySystemPrompt},
			{Role: "user", Content: buildClassifyPrompt(prefix, courses)},
		},
		MaxTokens:   300,
		Temperature: 0.2,
	})
	if err != nil {
		log.Warn("classification failed, using fallback", "error", err)
		return c.fallback(courses)
	}

	var parsed modelSuggestion
	if err := llm.ExtractObject(resp.Text(), &parsed); err != nil {
		log.Warn("classification response unparseable, using fallback", "error", err)
		return c.fallback(courses)
	}
	if strings.TrimSpace(parsed.SuggestedCourse) == "" {
		return c.fallback(courses)
	}

	s := Suggestion{
		CourseName:  strings.TrimSpace(parsed.SuggestedCourse),
		LessonTitle: strings.TrimSpace(parsed.SuggestedLessonTitle),
		IsNewCourse: parsed.IsNewCourse,
	}
	if s.LessonTitle == "" {
		s.LessonTitle = c.defaultLessonTitle()
	}

	// A suggested name that overlaps an existing course resolves to that
	// course regardless of what the model claimed.
	if match := MatchCourse(s.CourseName, courses); match != nil {
		s.CourseID = match.ID
		s.CourseName = match.Name
		s.IsNewCourse = false
	} else {
		s.IsNewCourse = true
	}

	return s
}

// transcriptPrefix truncates on a rune boundary so a multi-byte character
// straddling the limit is dropped whole rather than split.
func transcriptPrefix(s string) string {
	if len(s) <= transcriptPrefixLen {
		return s
	}
	cut := transcriptPrefixLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// MatchCourse finds an existing course whose name contains, or is contained
// by, the candidate name, ignoring case.
func MatchCourse(name string, courses []Course) *Course {
	candidate := strings.ToLower(strings.TrimSpace(name))
	if candidate == "" {
		return nil
	}
	for i := range courses {
		existing := strings.ToLower(courses[i].Name)
		if strings.Contains(existing, candidate) || strings.Contains(candidate, existing) {
			return &courses[i]
		}
	}
	return nil
}

func (c *Classifier) fallback(courses []Course) Suggestion {
	s := Suggestion{
		CourseName:  "General Course",
		LessonTitle: c.defaultLessonTitle(),
		IsNewCourse: len(courses) == 0,
	}
	if len(courses) > 0 {
		s.CourseID = courses[0].ID
		s.CourseName = courses[0].Name
	}
	return s
}

func (c *Classifier) defaultLessonTitle() string {
	return "Lecture " + c.now().Format("2006-01-02")
}

const classifySystemPrompt = `You are an academic assistant that files lecture transcripts into courses. Respond with JSON only: {"suggestedCourse": string, "suggestedLessonTitle": string, "isNewCourse": boolean}.`

func buildClassifyPrompt(prefix string, courses []Course) string {
	var b strings.Builder
	b.WriteString("Transcript opening:\n")
	b.WriteString(prefix)
	b.WriteString("\n\nExisting courses:\n")
	if len(courses) == 0 {
		b.WriteString("(none)\n")
	}
	for _, course := range courses {
		fmt.Fprintf(&b, "- %s\n", course.Name)
	}
	b.WriteString("\nPick the best matching existing course, or propose a new one, and suggest a concise lesson title.")
	return b.String()
}
