// Package speech transcribes audio through the Azure fast transcription API
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/jdcastano06/FlowNote/internal/config"
	apperrors "github.com/jdcastano06/FlowNote/internal/errors"
	"github.com/jdcastano06/FlowNote/internal/trace"
)

const apiVersion = "2024-11-15"

// Result is a completed transcription.
type Result struct {
	Text            string
	DurationSeconds float64
}

type definition struct {
	Locales             []string `json:"locales"`
	ProfanityFilterMode string   `json:"profanityFilterMode"`
	Channels            []int    `json:"channels"`
}

type transcribeResponse struct {
	CombinedPhrases []struct {
		Text string `json:"text"`
	} `json:"combinedPhrases"`
	Phrases []struct {
		OffsetMilliseconds   int64  `json:"offsetMilliseconds"`
		DurationMilliseconds int64  `json:"durationMilliseconds"`
		Text                 string `json:"text"`
	} `json:"phrases"`
}

// Client calls the synchronous transcription endpoint. Each call is a single
// attempt; retry policy belongs to the caller.
type Client struct {
	cfg  *config.Config
	http *http.Client
}

// NewClient builds a transcription client from the shared configuration.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 5 * time.Minute},
	}
}

// Transcribe uploads the audio and returns the combined transcript text with
// the spoken duration derived from phrase timings.
func (c *Client) Transcribe(ctx context.Context, audio io.Reader, filename string) (Result, error) {
	if c.cfg.SpeechKey == "" || c.cfg.SpeechEndpoint == "" {
		return Result{}, apperrors.New(apperrors.CodeConfigMissing, "speech endpoint or key not configured")
	}

	log := trace.Logger(ctx)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("audio", filename)
	if err != nil {
		return Result{}, apperrors.Wrap(err, apperrors.CodeInternal, "create audio part")
	}
	if _, err := io.Copy(part, audio); err != nil {
		return Result{}, apperrors.Wrap(err, apperrors.CodeInternal, "copy audio data")
	}

	def, err := json.Marshal(definition{
		Locales:             []string{c.cfg.SpeechLocale},
		ProfanityFilterMode: "Masked",
		Channels:            []int{0, 1},
	})
	if err != nil {
		return Result{}, apperrors.Wrap(err, apperrors.CodeInternal, "marshal definition")
	}
	if err := mw.WriteField("definition", string(def)); err != nil {
		return Result{}, apperrors.Wrap(err, apperrors.CodeInternal, "write definition part")
	}
	if err := mw.Close(); err != nil {
		return Result{}, apperrors.Wrap(err, apperrors.CodeInternal, "finalize multipart body")
	}

	url := fmt.Sprintf("%s/speechtotext/transcriptions:transcribe?api-version=%s",
		strings.TrimRight(c.cfg.SpeechEndpoint, "/"), apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return Result{}, apperrors.Wrap(err, apperrors.CodeInternal, "build transcribe request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.SpeechKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, apperrors.Wrap(err, apperrors.CodeTranscriptionFailed, "transcription request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return Result{}, apperrors.Wrap(err, apperrors.CodeProviderError, "read transcription response")
	}

	if resp.StatusCode != http.StatusOK {
		return Result{}, apperrors.FromStatus(resp.StatusCode, string(body))
	}

	var parsed transcribeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Result{}, apperrors.Wrap(err, apperrors.CodeParseFailed, "decode transcription response")
	}

	// Silence is a valid result: no phrases means an empty transcript.
	var result Result
	if len(parsed.CombinedPhrases) > 0 {
		result.Text = parsed.CombinedPhrases[0].Text
	}
	if n := len(parsed.Phrases); n > 0 {
		last := parsed.Phrases[n-1]
		result.DurationSeconds = float64(last.OffsetMilliseconds+last.DurationMilliseconds) / 1000
	}

	log.Info("transcription complete",
		"chars", len(result.Text),
		"audio_seconds", result.DurationSeconds,
		"duration_ms", time.Since(start).Milliseconds())

	return result, nil
}
