// Package insight produces incremental study hints during live recording
package insight

import (
	"context"
	"fmt"
	"strings"

	"github.com/jdcastano06/FlowNote/internal/config"
	"github.com/jdcastano06/FlowNote/internal/llm"
	"github.com/jdcastano06/FlowNote/internal/resilience"
	"github.com/jdcastano06/FlowNote/internal/syncx"
	"github.com/jdcastano06/FlowNote/internal/trace"
)

const minChunkChars = 20

// Insight is what the student sees for one transcript chunk.
type Insight struct {
	KeyPoints   []string `json:"keyPoints"`
	Definitions []string `json:"definitions"`
	Recap       string   `json:"recap,omitempty"`
}

// Empty reports whether the insight carries nothing worth showing.
func (i Insight) Empty() bool {
	return len(i.KeyPoints) == 0 && len(i.Definitions) == 0 && i.Recap == ""
}

// Generator turns transcript chunks into insights, deduplicating against
// points already shown this session. Failures are swallowed after retries:
// a missing insight is better than interrupting a recording.
type Generator struct {
	llm   *llm.Client
	cfg   *config.Config
	shown *syncx.RWGuard[[]string]
}

// New creates an insight generator for one recording session.
func New(client *llm.Client, cfg *config.Config) *Generator {
	return &Generator{llm: client, cfg: cfg, shown: syncx.NewGuard([]string(nil))}
}

// Next generates an insight for the chunk, given rolling context from
// earlier chunks. The second return is false when the chunk was skipped or
// every attempt failed.
func (g *Generator) Next(ctx context.Context, chunk, rolling string) (Insight, bool) {
	log := trace.Logger(ctx)

	chunk = strings.TrimSpace(chunk)
	if len(chunk) < minChunkChars {
		return Insight{}, false
	}

	prompt := g.buildPrompt(chunk, rolling)

	var resp llm.Response
	err := resilience.Retry(ctx, resilience.InsightRetryConfig(), func() error {
		var callErr error
		resp, callErr = g.llm.Complete(ctx, llm.Request{
			Messages: []llm.Message{
				{Role: "system", Content: insightSystemPrompt},
				{Role: "user", Content: prompt},
			},
			MaxTokens:   400,
			Temperature: 0.5,
		})
		return callErr
	})
	if err != nil {
		log.Warn("insight generation dropped after retries", "error", err)
		return Insight{}, false
	}

	parsed := Parse(resp.Text())
	parsed.KeyPoints = g.dedupe(parsed.KeyPoints)

	if parsed.Empty() {
		return Insight{}, false
	}
	return parsed, true
}

// Reset clears the shown-point history for a new session.
func (g *Generator) Reset() {
	g.shown.Set(nil)
}

// dedupe drops points already shown and records the survivors, keeping only
// the most recent window for comparison.
func (g *Generator) dedupe(points []string) []string {
	fresh := g.shown.Update(func(shown *[]string) any {
		var out []string
		for _, p := range points {
			if containsFold(*shown, p) {
				continue
			}
			out = append(out, p)
			*shown = append(*shown, p)
		}
		if max := g.cfg.MaxPreviousPoints; max > 0 && len(*shown) > max {
			*shown = (*shown)[len(*shown)-max:]
		}
		return out
	})
	return fresh.([]string)
}

func containsFold(list []string, point string) bool {
	candidate := strings.ToLower(strings.TrimSpace(point))
	for _, s := range list {
		if strings.ToLower(strings.TrimSpace(s)) == candidate {
			return true
		}
	}
	return false
}

func (g *Generator) buildPrompt(chunk, rolling string) string {
	shown := strings.Join(g.shown.Get(), "\n")

	var b strings.Builder
	if rolling != "" {
		fmt.Fprintf(&b, "[CONTEXT]\n%s\n\n", rolling)
	}
	fmt.Fprintf(&b, "[CURRENT CHUNK]\n%s\n", chunk)
	if shown != "" {
		fmt.Fprintf(&b, "\n[ALREADY SHOWN]\n%s\n", shown)
	}
	return b.String()
}

const insightSystemPrompt = `You are a real-time study assistant listening to a lecture. For the current chunk, respond using these labeled sections, each with dash bullets:
KEY POINTS:
DEFINITIONS / FORMULAS:
RECAP:
Only include sections that have new material. Never repeat anything listed under [ALREADY SHOWN].`
