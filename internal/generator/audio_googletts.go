package generator

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrGoogleTTSAPIKeyRequired is returned when no API key is provided.
var ErrGoogleTTSAPIKeyRequired = errors.New("google_tts: API key is required")

// GoogleTTS synthesizes narration through the Google Cloud text-to-speech
// endpoint. Authentication is an API-key query parameter; the audio comes
// back base64-wrapped in a JSON body.
type GoogleTTS struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// GoogleTTSOption configures a GoogleTTS adapter.
type GoogleTTSOption func(*GoogleTTS)

// WithGoogleTTSBaseURL sets a custom endpoint. Used in tests.
func WithGoogleTTSBaseURL(url string) GoogleTTSOption {
	return func(g *GoogleTTS) {
		g.baseURL = url
	}
}

// WithGoogleTTSHTTPClient sets a custom HTTP client.
func WithGoogleTTSHTTPClient(c *http.Client) GoogleTTSOption {
	return func(g *GoogleTTS) {
		g.httpClient = c
	}
}

// NewGoogleTTS creates a Google text-to-speech adapter.
func NewGoogleTTS(apiKey string, opts ...GoogleTTSOption) (*GoogleTTS, error) {
	if apiKey == "" {
		return nil, ErrGoogleTTSAPIKeyRequired
	}
	g := &GoogleTTS{
		apiKey:     apiKey,
		baseURL:    "https://texttospeech.googleapis.com",
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

type googleTTSRequest struct {
	Input struct {
		Text string `json:"text,omitempty"`
		SSML string `json:"ssml,omitempty"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
		Name         string `json:"name,omitempty"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding string  `json:"audioEncoding"`
		SpeakingRate  float64 `json:"speakingRate,omitempty"`
	} `json:"audioConfig"`
}

type googleTTSResponse struct {
	AudioContent string `json:"audioContent"`
}

// Generate synthesizes the narration text as mp3.
func (g *GoogleTTS) Generate(ctx context.Context, req Request) (Result, error) {
	var payload googleTTSRequest
	if len(req.Stress) > 0 || len(req.PauseAfter) > 0 {
		payload.Input.SSML = BuildSSML(req.Text, req.Stress, req.PauseAfter, 1.0)
	} else {
		payload.Input.Text = req.Text
	}
	payload.Voice.LanguageCode = languageCode(req.Language)
	payload.Voice.Name = req.Voice
	payload.AudioConfig.AudioEncoding = "MP3"
	payload.AudioConfig.SpeakingRate = ClampSpeed(req.Speed)

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("google_tts: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text:synthesize?key=%s", g.baseURL, g.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("google_tts: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("google_tts: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("google_tts: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, &ProviderError{Provider: "google_tts", StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	var decoded googleTTSResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return Result{}, &ProviderError{Provider: "google_tts", StatusCode: resp.StatusCode, Message: "malformed response: " + err.Error()}
	}
	raw, err := base64.StdEncoding.DecodeString(decoded.AudioContent)
	if err != nil {
		return Result{}, &ProviderError{Provider: "google_tts", StatusCode: resp.StatusCode, Message: "invalid base64 audio payload: " + err.Error()}
	}

	return Result{Bytes: raw, ContentType: "audio/mpeg"}, nil
}

// Compile-time check that GoogleTTS implements Generator.
var _ Generator = (*GoogleTTS)(nil)
