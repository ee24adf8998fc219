// Package llm provides a chat-completions client for OpenAI-compatible endpoints
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jdcastano06/FlowNote/internal/config"
	apperrors "github.com/jdcastano06/FlowNote/internal/errors"
	"github.com/jdcastano06/FlowNote/internal/resilience"
	"github.com/jdcastano06/FlowNote/internal/trace"
)

// Message is a single chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request configures one chat completion call.
type Request struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content          string `json:"content"`
			ReasoningContent string `json:"reasoning_content"`
		} `json:"message"`
	} `json:"choices"`
}

// Response holds the assistant's reply. Some models return their answer in
// a reasoning channel and leave content empty.
type Response struct {
	Content          string
	ReasoningContent string
}

// Text returns the content, falling back to the reasoning channel when the
// content field came back empty.
func (r Response) Text() string {
	if strings.TrimSpace(r.Content) != "" {
		return r.Content
	}
	return r.ReasoningContent
}

// Client calls an OpenAI-compatible chat completions API behind a circuit
// breaker.
type Client struct {
	cfg     *config.Config
	http    *http.Client
	breaker *resilience.Breaker
}

// NewClient builds a chat client from the shared configuration.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: 120 * time.Second},
		breaker: resilience.NewBreaker(resilience.BreakerConfig{}),
	}
}

// Complete sends one chat completion request and returns the first choice.
func (c *Client) Complete(ctx context.Context, req Request) (Response, error) {
	if c.cfg.LLMKey == "" || c.cfg.LLMEndpoint == "" {
		return Response{}, apperrors.New(apperrors.CodeConfigMissing, "llm endpoint or key not configured")
	}

	return resilience.ExecuteWithResult(c.breaker, func() (Response, error) {
		return c.complete(ctx, req)
	})
}

func (c *Client) complete(ctx context.Context, req Request) (Response, error) {
	log := trace.Logger(ctx)

	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.LLMModel,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return Response{}, apperrors.Wrap(err, apperrors.CodeInternal, "marshal chat request")
	}

	url := strings.TrimRight(c.cfg.LLMEndpoint, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Response{}, apperrors.Wrap(err, apperrors.CodeInternal, "build chat request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.LLMKey)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Response{}, apperrors.Wrap(err, apperrors.CodeUnavailable, "chat completion request failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return Response{}, apperrors.Wrap(err, apperrors.CodeProviderError, "read chat response")
	}

	if resp.StatusCode != http.StatusOK {
		return Response{}, apperrors.FromStatus(resp.StatusCode, string(respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return Response{}, apperrors.Wrap(err, apperrors.CodeParseFailed, "decode chat response")
	}
	if len(parsed.Choices) == 0 {
		return Response{}, apperrors.New(apperrors.CodeProviderError, "chat response contained no choices")
	}

	log.Debug("chat completion",
		"model", c.cfg.LLMModel,
		"duration_ms", time.Since(start).Milliseconds())

	return Response{
		Content:          parsed.Choices[0].Message.Content,
		ReasoningContent: parsed.Choices[0].Message.ReasoningContent,
	}, nil
}
