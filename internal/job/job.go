// Package job provides the ephemeral generation-job model, the TTL-bounded
// status store, and the orchestrator that dispatches provider calls in the
// background. A job is written exactly twice: once when seeded as generating
// and once more with its terminal state.
package job

import (
	"time"
)

// Kind identifies which asset a job produces.
type Kind string

const (
	// KindImage is a still-image generation job.
	KindImage Kind = "image"
	// KindVideo is an image-to-video generation job.
	KindVideo Kind = "video"
	// KindAudio is a narration text-to-speech job.
	KindAudio Kind = "audio"
)

// IsValid returns true if the kind is one of image, video, or audio.
func (k Kind) IsValid() bool {
	return k == KindImage || k == KindVideo || k == KindAudio
}

// IDPrefix returns the job-identifier prefix for the kind.
func (k Kind) IDPrefix() string {
	switch k {
	case KindImage:
		return "img"
	case KindVideo:
		return "vid"
	case KindAudio:
		return "aud"
	default:
		return "job"
	}
}

// Status represents the state of a job record.
type Status string

const (
	// StatusPending is reported for jobs the store does not know about,
	// either not yet created or already expired. It is never written.
	StatusPending Status = "pending"
	// StatusGenerating indicates the provider call is in flight.
	StatusGenerating Status = "generating"
	// StatusDone indicates the asset was produced and stored.
	StatusDone Status = "done"
	// StatusFailed indicates the provider or storage call failed.
	StatusFailed Status = "failed"
)

// IsTerminal returns true if the status is done or failed.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusFailed
}

// Record is the unit of work tracked by the Store. It is copied by value
// in and out of the store; the orchestrator's background task is the only
// writer for a given ID.
type Record struct {
	ID         string `json:"jobId"`
	Kind       Kind   `json:"kind,omitempty"`
	Status     Status `json:"status"`
	StorageKey string `json:"storageKey,omitempty"`
	// Progress is a 0-100 completion estimate. Only video jobs report it.
	Progress int    `json:"progress,omitempty"`
	Error    string `json:"error,omitempty"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
