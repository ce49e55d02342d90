// Package server provides the HTTP server for the StoryReel API.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

// GenerateImageRequest is the HTTP request body for starting an image job.
// project_id and scene_id are optional: an image may be generated before the
// project document is saved.
type GenerateImageRequest struct {
	// Model is the image model identifier.
	Model string `json:"model" validate:"required"`
	// Prompt is the scene description to render.
	Prompt string `json:"image_prompt" validate:"required"`
	// ProjectID ties the asset to a saved project, when present.
	ProjectID string `json:"project_id"`
	// SceneID is the scene index within the project.
	SceneID int `json:"scene_id" validate:"min=0"`
}

// GenerateVideoRequest is the HTTP request body for starting a video job.
type GenerateVideoRequest struct {
	// Model is the video model identifier.
	Model string `json:"model" validate:"required"`
	// ImageKey is the storage key of the approved source image.
	ImageKey string `json:"image_key" validate:"required"`
	// ProjectID identifies the saved project document.
	ProjectID string `json:"project_id" validate:"required"`
	// SceneID is the scene index within the project.
	SceneID int `json:"scene_id" validate:"min=0"`
}

// GenerateAudioRequest is the HTTP request body for starting an audio job.
type GenerateAudioRequest struct {
	// Model is the TTS backend identifier.
	Model string `json:"model" validate:"required"`
	// Text is the narration text to synthesize.
	Text string `json:"text" validate:"required"`
	// Language is the narration language code (e.g. "id", "en").
	Language string `json:"language"`
	// Voice is the provider voice identifier.
	Voice string `json:"voice_character"`
	// Speed is the playback rate multiplier, clamped to [0.5, 2.0].
	Speed float64 `json:"speed"`
	// PauseAfter lists phrases to follow with a pause.
	PauseAfter []string `json:"pause_after"`
	// Stress lists words to emphasize.
	Stress []string `json:"stress"`
	// ProjectID identifies the saved project document.
	ProjectID string `json:"project_id" validate:"required"`
	// SceneID is the scene index within the project.
	SceneID int `json:"scene_id" validate:"min=0"`
}

// GenerateResponse is the HTTP response after a job is accepted.
type GenerateResponse struct {
	// JobID is the identifier the caller polls for status.
	JobID string `json:"jobId"`
}

// PendingStatusResponse is returned for job IDs with no stored record.
// An absent record means pending, never not-found.
type PendingStatusResponse struct {
	Status string `json:"status"`
}

// PresignResponse carries a time-limited download URL for a stored object.
type PresignResponse struct {
	SignedURL string `json:"signedUrl"`
}

// SaveProjectResponse is the HTTP response after saving a project document.
type SaveProjectResponse struct {
	ProjectID  string `json:"project_id"`
	StorageKey string `json:"storage_key"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
