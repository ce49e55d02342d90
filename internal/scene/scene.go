// Package scene tracks the approval-gated lifecycle of a storyboard scene's
// image, video, and audio assets. A later stage cannot start until the prior
// stage's asset is explicitly approved: image unlocks video, video unlocks
// audio. The gate is enforced here, at the point where a job is started, so
// correctness does not depend on a well-behaved caller.
package scene

import (
	"errors"
	"fmt"

	"github.com/fuzzyvid/storyreel-api/internal/job"
)

// Status represents the state of one asset kind within a scene.
type Status string

const (
	// StatusPending means the asset has not been generated yet.
	StatusPending Status = "pending"
	// StatusGenerating means a generation job is in flight.
	StatusGenerating Status = "generating"
	// StatusDone means the asset exists and awaits user approval.
	StatusDone Status = "done"
	// StatusApproved means the user accepted the asset. Terminal for the
	// kind unless explicitly regenerated.
	StatusApproved Status = "approved"
	// StatusFailed means generation failed; a retry resets to pending.
	StatusFailed Status = "failed"
)

// Static errors for scene transitions.
var (
	// ErrInvalidTransition is returned when a transition is not allowed
	// from the current status.
	ErrInvalidTransition = errors.New("scene: invalid status transition")
	// ErrStageLocked is returned when a stage's upstream asset is not yet
	// approved.
	ErrStageLocked = errors.New("scene: upstream asset not approved")
	// ErrUnknownKind is returned for asset kinds the scene does not track.
	ErrUnknownKind = errors.New("scene: unknown asset kind")
	// ErrSceneNotFound is returned when a scene ID is not in the project.
	ErrSceneNotFound = errors.New("scene: not found in project")
)

// validTransitions defines which status transitions are allowed.
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusGenerating},
	StatusGenerating: {StatusDone, StatusFailed},
	StatusDone:       {StatusApproved, StatusPending},
	StatusApproved:   {StatusPending},
	StatusFailed:     {StatusPending},
}

func canTransition(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// upstream maps each asset kind to the kind whose approval unlocks it.
// Image has no upstream.
var upstream = map[job.Kind]job.Kind{
	job.KindVideo: job.KindImage,
	job.KindAudio: job.KindVideo,
}

// downstream is the reverse chain, used for cascading resets.
var downstream = map[job.Kind]job.Kind{
	job.KindImage: job.KindVideo,
	job.KindVideo: job.KindAudio,
}

// AssetStatus holds the per-kind statuses of a scene.
type AssetStatus struct {
	Image Status `json:"image"`
	Video Status `json:"video"`
	Audio Status `json:"audio"`
}

// Assets holds the produced asset references per kind. URL is a time-limited
// retrieval URL, Key the durable storage key it was minted from.
type Assets struct {
	ImageURL string `json:"image_url,omitempty"`
	ImageKey string `json:"image_key,omitempty"`
	VideoURL string `json:"video_url,omitempty"`
	VideoKey string `json:"video_key,omitempty"`
	AudioURL string `json:"audio_url,omitempty"`
	AudioKey string `json:"audio_key,omitempty"`
}

// Scene is one storyboard unit with independent image/video/audio lifecycles.
type Scene struct {
	ID     int         `json:"scene_id"`
	Title  string      `json:"title,omitempty"`
	Status AssetStatus `json:"status"`
	Assets Assets      `json:"assets"`
}

// NewScene returns a scene with all asset kinds pending.
func NewScene(id int) *Scene {
	return &Scene{
		ID: id,
		Status: AssetStatus{
			Image: StatusPending,
			Video: StatusPending,
			Audio: StatusPending,
		},
	}
}

// StatusOf returns the status for the given asset kind.
func (s *Scene) StatusOf(kind job.Kind) (Status, error) {
	switch kind {
	case job.KindImage:
		return s.Status.Image, nil
	case job.KindVideo:
		return s.Status.Video, nil
	case job.KindAudio:
		return s.Status.Audio, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func (s *Scene) setStatus(kind job.Kind, status Status) {
	switch kind {
	case job.KindImage:
		s.Status.Image = status
	case job.KindVideo:
		s.Status.Video = status
	case job.KindAudio:
		s.Status.Audio = status
	}
}

// CanStart reports whether a generation job for the kind may begin. The
// upstream kind must be approved and the kind itself must currently allow
// a transition to generating.
func (s *Scene) CanStart(kind job.Kind) error {
	cur, err := s.StatusOf(kind)
	if err != nil {
		return err
	}
	if up, ok := upstream[kind]; ok {
		upStatus, err := s.StatusOf(up)
		if err != nil {
			return err
		}
		if upStatus != StatusApproved {
			return fmt.Errorf("%w: %s requires approved %s, have %s", ErrStageLocked, kind, up, upStatus)
		}
	}
	if !canTransition(cur, StatusGenerating) {
		return fmt.Errorf("%w: %s -> %s for %s", ErrInvalidTransition, cur, StatusGenerating, kind)
	}
	return nil
}

// StartGeneration transitions the kind to generating after checking the
// approval gate.
func (s *Scene) StartGeneration(kind job.Kind) error {
	if err := s.CanStart(kind); err != nil {
		return err
	}
	s.setStatus(kind, StatusGenerating)
	return nil
}

// MarkDone records the produced asset and transitions the kind to done.
func (s *Scene) MarkDone(kind job.Kind, storageKey, url string) error {
	if err := s.transition(kind, StatusDone); err != nil {
		return err
	}
	switch kind {
	case job.KindImage:
		s.Assets.ImageKey, s.Assets.ImageURL = storageKey, url
	case job.KindVideo:
		s.Assets.VideoKey, s.Assets.VideoURL = storageKey, url
	case job.KindAudio:
		s.Assets.AudioKey, s.Assets.AudioURL = storageKey, url
	}
	return nil
}

// MarkFailed transitions the kind to failed.
func (s *Scene) MarkFailed(kind job.Kind) error {
	return s.transition(kind, StatusFailed)
}

// Approve records the user's acceptance of a done asset. Approval of one
// kind is the sole unlock condition for the next kind.
func (s *Scene) Approve(kind job.Kind) error {
	cur, err := s.StatusOf(kind)
	if err != nil {
		return err
	}
	if cur != StatusDone {
		return fmt.Errorf("%w: approve from %s for %s", ErrInvalidTransition, cur, kind)
	}
	s.setStatus(kind, StatusApproved)
	return nil
}

// Retry resets a failed kind back to pending.
func (s *Scene) Retry(kind job.Kind) error {
	cur, err := s.StatusOf(kind)
	if err != nil {
		return err
	}
	if cur != StatusFailed {
		return fmt.Errorf("%w: retry from %s for %s", ErrInvalidTransition, cur, kind)
	}
	s.setStatus(kind, StatusPending)
	return nil
}

// Regenerate resets the kind to pending, clears its asset references, and
// cascades the reset to all downstream kinds, since they were derived from
// the asset being replaced.
func (s *Scene) Regenerate(kind job.Kind) error {
	if _, err := s.StatusOf(kind); err != nil {
		return err
	}
	for k, ok := kind, true; ok; k, ok = downstream[k], downstream[k] != "" {
		s.setStatus(k, StatusPending)
		s.clearAssets(k)
	}
	return nil
}

func (s *Scene) clearAssets(kind job.Kind) {
	switch kind {
	case job.KindImage:
		s.Assets.ImageKey, s.Assets.ImageURL = "", ""
	case job.KindVideo:
		s.Assets.VideoKey, s.Assets.VideoURL = "", ""
	case job.KindAudio:
		s.Assets.AudioKey, s.Assets.AudioURL = "", ""
	}
}

func (s *Scene) transition(kind job.Kind, to Status) error {
	cur, err := s.StatusOf(kind)
	if err != nil {
		return err
	}
	if !canTransition(cur, to) {
		return fmt.Errorf("%w: %s -> %s for %s", ErrInvalidTransition, cur, to, kind)
	}
	s.setStatus(kind, to)
	return nil
}
