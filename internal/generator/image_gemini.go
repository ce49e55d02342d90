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

// Static errors for the Gemini image adapter.
var (
	// ErrGeminiAPIKeyRequired is returned when no API key is provided.
	ErrGeminiAPIKeyRequired = errors.New("gemini: API key is required")
)

const geminiImageModel = "imagen-3.0-generate-005"

// GeminiImage generates still images through the Gemini Imagen endpoint.
// The call is synchronous: the response carries the image as a base64
// payload which the adapter decodes into raw bytes.
type GeminiImage struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// GeminiImageOption configures a GeminiImage adapter.
type GeminiImageOption func(*GeminiImage)

// WithGeminiBaseURL sets a custom base URL. Used in tests.
func WithGeminiBaseURL(url string) GeminiImageOption {
	return func(g *GeminiImage) {
		g.baseURL = url
	}
}

// WithGeminiHTTPClient sets a custom HTTP client.
func WithGeminiHTTPClient(c *http.Client) GeminiImageOption {
	return func(g *GeminiImage) {
		g.httpClient = c
	}
}

// NewGeminiImage creates a Gemini image adapter.
func NewGeminiImage(apiKey string, opts ...GeminiImageOption) (*GeminiImage, error) {
	if apiKey == "" {
		return nil, ErrGeminiAPIKeyRequired
	}
	g := &GeminiImage{
		apiKey:     apiKey,
		baseURL:    "https://generativelanguage.googleapis.com/v1beta",
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

type geminiImageRequest struct {
	Prompt         string `json:"prompt"`
	AspectRatio    string `json:"aspect_ratio"`
	NegativePrompt string `json:"negative_prompt"`
	ReturnBytes    bool   `json:"return_bytes"`
}

type geminiImageResponse struct {
	Images []struct {
		Image struct {
			B64Encoded string `json:"b64_encoded"`
		} `json:"image"`
	} `json:"images"`
}

// Generate produces a vertical still image for the prompt.
func (g *GeminiImage) Generate(ctx context.Context, req Request) (Result, error) {
	payload := geminiImageRequest{
		Prompt:         req.Prompt,
		AspectRatio:    "9:16",
		NegativePrompt: "text, watermark, blur, distortion, lowres",
		ReturnBytes:    true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("gemini: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateImage?key=%s", g.baseURL, geminiImageModel, g.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("gemini: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("gemini: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("gemini: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, &ProviderError{Provider: "gemini", StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	var decoded geminiImageResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return Result{}, &ProviderError{Provider: "gemini", StatusCode: resp.StatusCode, Message: "malformed response: " + err.Error()}
	}
	if len(decoded.Images) == 0 || decoded.Images[0].Image.B64Encoded == "" {
		return Result{}, &ProviderError{Provider: "gemini", StatusCode: resp.StatusCode, Message: "response contained no image payload"}
	}

	raw, err := base64.StdEncoding.DecodeString(decoded.Images[0].Image.B64Encoded)
	if err != nil {
		return Result{}, &ProviderError{Provider: "gemini", StatusCode: resp.StatusCode, Message: "invalid base64 image payload: " + err.Error()}
	}

	return Result{Bytes: raw, ContentType: "image/png"}, nil
}

// Compile-time check that GeminiImage implements Generator.
var _ Generator = (*GeminiImage)(nil)
