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
	"github.com/fuzzyvid/storyreel-api/internal/storage"
)

// Static errors for the Nova Reel adapter.
var (
	// ErrNovaReelSignerRequired is returned when no signer is provided.
	ErrNovaReelSignerRequired = errors.New("nova_reel: signer is required")
	// ErrNovaReelBucketRequired is returned when no output bucket is set.
	ErrNovaReelBucketRequired = errors.New("nova_reel: output bucket is required")
)

const novaReelModelID = "amazon.nova-reel-v1:0"

// NovaReel animates a previously stored image through the Bedrock Nova Reel
// endpoint. The provider writes the rendered video to object storage
// directly, so a successful call returns the destination key instead of
// bytes. The invoke acknowledgement does not confirm that the render
// finished; see Generate.
type NovaReel struct {
	signer       *sigv4.Signer
	outputBucket string
	baseURL      string
	httpClient   *http.Client
	now          func() time.Time
}

// NovaReelOption configures a NovaReel adapter.
type NovaReelOption func(*NovaReel)

// WithNovaReelBaseURL sets a custom invoke endpoint. Used in tests.
func WithNovaReelBaseURL(url string) NovaReelOption {
	return func(n *NovaReel) {
		n.baseURL = url
	}
}

// WithNovaReelHTTPClient sets a custom HTTP client.
func WithNovaReelHTTPClient(c *http.Client) NovaReelOption {
	return func(n *NovaReel) {
		n.httpClient = c
	}
}

// WithNovaReelClock overrides the clock used for output key timestamps.
func WithNovaReelClock(now func() time.Time) NovaReelOption {
	return func(n *NovaReel) {
		n.now = now
	}
}

// NewNovaReel creates a Nova Reel video adapter. The signer must be
// configured for the Bedrock region and service.
func NewNovaReel(signer *sigv4.Signer, outputBucket string, opts ...NovaReelOption) (*NovaReel, error) {
	if signer == nil {
		return nil, ErrNovaReelSignerRequired
	}
	if outputBucket == "" {
		return nil, ErrNovaReelBucketRequired
	}
	n := &NovaReel{
		signer:       signer,
		outputBucket: outputBucket,
		baseURL:      "https://bedrock-runtime.us-east-1.amazonaws.com",
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

type novaReelRequest struct {
	InputImageKey string `json:"input_image_key"`
	OutputBucket  string `json:"output_bucket"`
	OutputKey     string `json:"output_key"`
}

// Generate submits the image-to-video render and returns the storage key
// the provider will write to. The render itself completes out of band:
// a 2xx here only means the invoke was accepted, and the adapter cannot
// observe an eventual provider-side failure after that point.
// TODO: verify the output key exists before reporting the job done.
func (n *NovaReel) Generate(ctx context.Context, req Request) (Result, error) {
	outputKey := storage.AssetKey(req.ProjectID, req.SceneID, KindVideo, "mp4", n.now())

	payload := novaReelRequest{
		InputImageKey: req.ImageKey,
		OutputBucket:  n.outputBucket,
		OutputKey:     outputKey,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("nova_reel: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/model/%s/invoke", n.baseURL, novaReelModelID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("nova_reel: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	if err := n.signer.Sign(httpReq, body); err != nil {
		return Result{}, fmt.Errorf("nova_reel: sign request: %w", err)
	}

	resp, err := n.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("nova_reel: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("nova_reel: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, &ProviderError{Provider: "nova_reel", StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	return Result{StoredKey: outputKey}, nil
}

// Compile-time check that NovaReel implements Generator.
var _ Generator = (*NovaReel)(nil)
