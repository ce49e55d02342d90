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

	"github.com/fuzzyvid/storyreel-api/internal/sigv4"
)

// ErrPollySignerRequired is returned when no signer is provided.
var ErrPollySignerRequired = errors.New("polly: signer is required")

// Polly synthesizes narration through the Amazon Polly speech endpoint.
// Calls are signed; the response body is the mp3 stream itself, passed
// through without decoding. Narration hints are encoded as SSML.
type Polly struct {
	signer     *sigv4.Signer
	baseURL    string
	httpClient *http.Client
}

// PollyOption configures a Polly adapter.
type PollyOption func(*Polly)

// WithPollyBaseURL sets a custom endpoint. Used in tests.
func WithPollyBaseURL(url string) PollyOption {
	return func(p *Polly) {
		p.baseURL = url
	}
}

// WithPollyHTTPClient sets a custom HTTP client.
func WithPollyHTTPClient(c *http.Client) PollyOption {
	return func(p *Polly) {
		p.httpClient = c
	}
}

// NewPolly creates a Polly audio adapter for the signer's region.
func NewPolly(signer *sigv4.Signer, region string, opts ...PollyOption) (*Polly, error) {
	if signer == nil {
		return nil, ErrPollySignerRequired
	}
	p := &Polly{
		signer:     signer,
		baseURL:    fmt.Sprintf("https://polly.%s.amazonaws.com", region),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

type pollyRequest struct {
	Engine       string `json:"Engine"`
	LanguageCode string `json:"LanguageCode"`
	OutputFormat string `json:"OutputFormat"`
	Text         string `json:"Text"`
	TextType     string `json:"TextType,omitempty"`
	VoiceID      string `json:"VoiceId"`
}

// Generate synthesizes the narration text as mp3.
func (p *Polly) Generate(ctx context.Context, req Request) (Result, error) {
	payload := pollyRequest{
		Engine:       "neural",
		LanguageCode: languageCode(req.Language),
		OutputFormat: "mp3",
		Text:         req.Text,
		VoiceID:      req.Voice,
	}
	if needsSSML(req) {
		payload.Text = BuildSSML(req.Text, req.Stress, req.PauseAfter, req.Speed)
		payload.TextType = "ssml"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("polly: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/speech", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("polly: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	if err := p.signer.Sign(httpReq, body); err != nil {
		return Result{}, fmt.Errorf("polly: sign request: %w", err)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("polly: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("polly: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, &ProviderError{Provider: "polly", StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	return Result{Bytes: respBody, ContentType: "audio/mpeg"}, nil
}

// languageCode maps the project's language selector to a speech locale.
func languageCode(language string) string {
	if language == "id" {
		return "id-ID"
	}
	return "en-US"
}

// Compile-time check that Polly implements Generator.
var _ Generator = (*Polly)(nil)
