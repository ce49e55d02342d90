package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrElevenLabsAPIKeyRequired is returned when no API key is provided.
var ErrElevenLabsAPIKeyRequired = errors.New("elevenlabs: API key is required")

const elevenLabsModelID = "eleven_multilingual_v2"

// ElevenLabs synthesizes narration through the ElevenLabs text-to-speech
// endpoint. Authentication is an API-key header; the response body is the
// mp3 stream itself.
type ElevenLabs struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// ElevenLabsOption configures an ElevenLabs adapter.
type ElevenLabsOption func(*ElevenLabs)

// WithElevenLabsBaseURL sets a custom endpoint. Used in tests.
func WithElevenLabsBaseURL(url string) ElevenLabsOption {
	return func(e *ElevenLabs) {
		e.baseURL = url
	}
}

// WithElevenLabsHTTPClient sets a custom HTTP client.
func WithElevenLabsHTTPClient(c *http.Client) ElevenLabsOption {
	return func(e *ElevenLabs) {
		e.httpClient = c
	}
}

// NewElevenLabs creates an ElevenLabs audio adapter.
func NewElevenLabs(apiKey string, opts ...ElevenLabsOption) (*ElevenLabs, error) {
	if apiKey == "" {
		return nil, ErrElevenLabsAPIKeyRequired
	}
	e := &ElevenLabs{
		apiKey:     apiKey,
		baseURL:    "https://api.elevenlabs.io",
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

type elevenLabsRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// Generate synthesizes the narration text as mp3. ElevenLabs does not
// accept SSML on this endpoint, so hints and speed are not applied here;
// the speed multiplier is still clamped upstream for consistency.
func (e *ElevenLabs) Generate(ctx context.Context, req Request) (Result, error) {
	payload := elevenLabsRequest{
		Text:    req.Text,
		ModelID: elevenLabsModelID,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("elevenlabs: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", e.baseURL, req.Voice)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("elevenlabs: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("xi-api-key", e.apiKey)

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("elevenlabs: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("elevenlabs: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, &ProviderError{Provider: "elevenlabs", StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	return Result{Bytes: respBody, ContentType: "audio/mpeg"}, nil
}

// Compile-time check that ElevenLabs implements Generator.
var _ Generator = (*ElevenLabs)(nil)
