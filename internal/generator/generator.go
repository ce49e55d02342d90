// Package generator provides the provider adapters that turn a generation
// request into an external API call. One adapter exists per provider model;
// dispatch is a capability lookup through the Registry, never inheritance.
// Adapters do not retry: a failed call surfaces once and retry is a
// user-initiated action, so provider costs are never multiplied silently.
package generator

import (
	"context"
	"errors"
	"fmt"
)

// Asset kinds used as registry keys. Kept as plain strings so the package
// has no dependency on the job model.
const (
	KindImage = "image"
	KindVideo = "video"
	KindAudio = "audio"
)

// Request is the validated payload for one generation call. Only the fields
// relevant to the requested kind are consumed by an adapter.
type Request struct {
	ProjectID string
	SceneID   int
	Model     string

	// Image fields
	Prompt string

	// Video fields
	ImageKey string

	// Audio fields
	Text     string
	Language string
	Voice    string
	// Speed is a playback-rate multiplier. Clamped into [0.5, 2.0] before
	// it reaches any provider.
	Speed float64
	// PauseAfter lists phrases that get a pause inserted after them.
	PauseAfter []string
	// Stress lists words that get spoken emphasis.
	Stress []string
}

// Result is the outcome of a successful generation call. Either Bytes holds
// the raw artifact, or StoredKey names the storage key the provider wrote
// to directly (and Bytes is empty).
type Result struct {
	Bytes       []byte
	ContentType string
	StoredKey   string
}

// Generator is the capability interface implemented by every provider
// adapter.
type Generator interface {
	Generate(ctx context.Context, req Request) (Result, error)
}

// ErrMissingField is the base error for request validation failures. These
// surface synchronously, before any job is created.
var ErrMissingField = errors.New("generator: missing required field")

// ValidateRequest checks the fields the given kind requires. Cheap
// validation fails fast; provider-side failures are inherently asynchronous
// and surface through the job store instead.
func ValidateRequest(kind string, req Request) error {
	if req.Model == "" {
		return fmt.Errorf("%w: model", ErrMissingField)
	}
	switch kind {
	case KindImage:
		if req.Prompt == "" {
			return fmt.Errorf("%w: prompt", ErrMissingField)
		}
	case KindVideo:
		if req.ImageKey == "" {
			return fmt.Errorf("%w: image_key", ErrMissingField)
		}
		if req.ProjectID == "" || req.SceneID == 0 {
			return fmt.Errorf("%w: project_id, scene_id", ErrMissingField)
		}
	case KindAudio:
		if req.Text == "" {
			return fmt.Errorf("%w: text", ErrMissingField)
		}
		if req.ProjectID == "" || req.SceneID == 0 {
			return fmt.Errorf("%w: project_id, scene_id", ErrMissingField)
		}
	}
	return nil
}

// ProviderError is raised for any non-success HTTP status or malformed
// response body from a provider. It carries the provider's raw error text
// so the user sees exactly what the provider said.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}
