package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fuzzyvid/storyreel-api/internal/generator"
	"github.com/fuzzyvid/storyreel-api/internal/job/id"
	"github.com/fuzzyvid/storyreel-api/internal/storage"
)

// ErrKindNotSupported is returned when a generation request names a kind
// the orchestrator does not implement. The HTTP layer reports it as 501.
var ErrKindNotSupported = errors.New("job: kind not supported")

// Gatekeeper answers whether the approval gate allows a generation job to
// start for a scene's asset kind. Implemented by scene.ProjectGate.
type Gatekeeper interface {
	CanStart(ctx context.Context, projectID string, sceneID int, kind Kind) error
}

// Service orchestrates generation jobs: it validates the request, seeds the
// store, returns the job ID immediately, and runs the provider call on its
// own goroutine. The background task is the only writer for its job ID and
// writes exactly one terminal record.
type Service struct {
	store     Store
	registry  *generator.Registry
	artifacts storage.Gateway
	gate      Gatekeeper
	logger    *slog.Logger
}

// NewService creates an orchestrator. The gate may be nil, in which case
// stage locking is not enforced (tests only; production wiring always
// passes the project gate).
func NewService(store Store, registry *generator.Registry, artifacts storage.Gateway, gate Gatekeeper, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		registry:  registry,
		artifacts: artifacts,
		gate:      gate,
		logger:    logger,
	}
}

// Start accepts a generation request and returns a job ID the caller can
// poll immediately. Validation, capability lookup, and the approval gate
// fail synchronously before any job exists; everything after the returned
// ID surfaces only through the store, never through this error channel.
func (s *Service) Start(ctx context.Context, kind Kind, req generator.Request) (string, error) {
	if !kind.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrKindNotSupported, kind)
	}
	if err := generator.ValidateRequest(string(kind), req); err != nil {
		return "", err
	}

	gen, err := s.registry.Lookup(string(kind), req.Model)
	if err != nil {
		return "", err
	}

	if s.gate != nil {
		if err := s.gate.CanStart(ctx, req.ProjectID, req.SceneID, kind); err != nil {
			return "", err
		}
	}

	now := time.Now()
	rec := Record{
		ID:        id.Generate(kind.IDPrefix()),
		Kind:      kind,
		Status:    StatusGenerating,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Put(ctx, rec); err != nil {
		return "", fmt.Errorf("job: seed record: %w", err)
	}

	s.logger.Info("job started",
		slog.String("job_id", rec.ID),
		slog.String("kind", string(kind)),
		slog.String("model", req.Model),
	)

	// The request context dies with the HTTP response; the provider call
	// must not.
	go s.run(context.WithoutCancel(ctx), gen, rec, req)

	return rec.ID, nil
}

// Status returns the record for a job ID. Absent records come back as
// ErrNotFound; the caller reports those as pending.
func (s *Service) Status(ctx context.Context, jobID string) (Record, error) {
	return s.store.Get(ctx, jobID)
}

// run executes the provider call and writes the single terminal record.
func (s *Service) run(ctx context.Context, gen generator.Generator, rec Record, req generator.Request) {
	result, err := gen.Generate(ctx, req)
	if err != nil {
		s.fail(ctx, rec, err)
		return
	}

	key := result.StoredKey
	if key == "" {
		key = s.keyFor(rec.Kind, req)
		if err := s.artifacts.Put(ctx, key, result.Bytes, result.ContentType); err != nil {
			s.fail(ctx, rec, err)
			return
		}
	}

	rec.Status = StatusDone
	rec.StorageKey = key
	rec.UpdatedAt = time.Now()
	if err := s.store.Put(ctx, rec); err != nil {
		s.logger.Error("failed to write terminal job record",
			slog.String("job_id", rec.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	s.logger.Info("job done",
		slog.String("job_id", rec.ID),
		slog.String("storage_key", key),
	)
}

func (s *Service) fail(ctx context.Context, rec Record, cause error) {
	rec.Status = StatusFailed
	rec.Error = cause.Error()
	rec.UpdatedAt = time.Now()
	if err := s.store.Put(ctx, rec); err != nil {
		s.logger.Error("failed to write failed job record",
			slog.String("job_id", rec.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	s.logger.Warn("job failed",
		slog.String("job_id", rec.ID),
		slog.String("error", cause.Error()),
	)
}

// keyFor builds the destination key for adapter-returned bytes. Assets tied
// to a scene land under the project hierarchy; ad-hoc assets (an image
// generated before a project is saved) land at the bucket root.
func (s *Service) keyFor(kind Kind, req generator.Request) string {
	now := time.Now()
	ext := extFor(kind)
	if req.ProjectID != "" {
		return storage.AssetKey(req.ProjectID, req.SceneID, string(kind), ext, now)
	}
	return fmt.Sprintf("%s_%d.%s", kind.IDPrefix(), now.Unix(), ext)
}

func extFor(kind Kind) string {
	switch kind {
	case KindImage:
		return "png"
	case KindVideo:
		return "mp4"
	case KindAudio:
		return "mp3"
	default:
		return "bin"
	}
}
