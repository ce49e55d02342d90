package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/fuzzyvid/storyreel-api/internal/generator"
	"github.com/fuzzyvid/storyreel-api/internal/job"
	"github.com/fuzzyvid/storyreel-api/internal/scene"
	"github.com/fuzzyvid/storyreel-api/internal/storage"
)

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service   *job.Service
	artifacts storage.Gateway
	validator *validator.Validate
	logger    *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *job.Service, artifacts storage.Gateway, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		service:   service,
		artifacts: artifacts,
		validator: validator.New(),
		logger:    logger,
	}
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// GenerateImage handles POST /api/image/generate requests.
func (h *Handlers) GenerateImage(w http.ResponseWriter, r *http.Request) {
	var req GenerateImageRequest
	if !h.decode(w, r, &req) {
		return
	}

	jobID, err := h.service.Start(r.Context(), job.KindImage, generator.Request{
		ProjectID: req.ProjectID,
		SceneID:   req.SceneID,
		Model:     req.Model,
		Prompt:    req.Prompt,
	})
	if err != nil {
		h.writeStartError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, GenerateResponse{JobID: jobID})
}

// GenerateVideo handles POST /api/video/generate requests.
func (h *Handlers) GenerateVideo(w http.ResponseWriter, r *http.Request) {
	var req GenerateVideoRequest
	if !h.decode(w, r, &req) {
		return
	}

	jobID, err := h.service.Start(r.Context(), job.KindVideo, generator.Request{
		ProjectID: req.ProjectID,
		SceneID:   req.SceneID,
		Model:     req.Model,
		ImageKey:  req.ImageKey,
	})
	if err != nil {
		h.writeStartError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, GenerateResponse{JobID: jobID})
}

// GenerateAudio handles POST /api/audio/generate requests.
func (h *Handlers) GenerateAudio(w http.ResponseWriter, r *http.Request) {
	var req GenerateAudioRequest
	if !h.decode(w, r, &req) {
		return
	}

	jobID, err := h.service.Start(r.Context(), job.KindAudio, generator.Request{
		ProjectID:  req.ProjectID,
		SceneID:    req.SceneID,
		Model:      req.Model,
		Text:       req.Text,
		Language:   req.Language,
		Voice:      req.Voice,
		Speed:      req.Speed,
		PauseAfter: req.PauseAfter,
		Stress:     req.Stress,
	})
	if err != nil {
		h.writeStartError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, GenerateResponse{JobID: jobID})
}

// JobStatus handles GET /api/{kind}/status/{id} requests. A job ID with no
// stored record reports pending with 200, never 404: records expire after
// the store TTL, and a fresh job may not be visible yet.
func (h *Handlers) JobStatus(w http.ResponseWriter, r *http.Request) {
	kind := job.Kind(r.PathValue("kind"))
	if !kind.IsValid() {
		writeError(w, http.StatusBadRequest, "unknown asset kind", "INVALID_KIND")
		return
	}
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job ID is required", "MISSING_JOB_ID")
		return
	}

	rec, err := h.service.Status(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			writeJSON(w, http.StatusOK, PendingStatusResponse{Status: string(job.StatusPending)})
			return
		}
		h.logger.Error("failed to get job status",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get job status", "JOB_FETCH_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// Presign handles GET /api/storage/presign requests.
func (h *Handlers) Presign(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "key query parameter is required", "MISSING_KEY")
		return
	}

	url, err := h.artifacts.Presign(r.Context(), key)
	if err != nil {
		h.logger.Error("failed to presign object",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to presign object", "PRESIGN_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, PresignResponse{SignedURL: url})
}

// SaveProject handles POST /api/project/save requests. The body is the whole
// project document; it is stored verbatim so fields this service does not
// model survive a save/load round trip.
func (h *Handlers) SaveProject(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body", "INVALID_BODY")
		return
	}

	project, err := scene.ParseProject(raw)
	if err != nil {
		h.logger.Warn("failed to parse project document",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid project document", "INVALID_PROJECT")
		return
	}
	if project.ProjectID == "" {
		writeError(w, http.StatusBadRequest, "project_id is required", "MISSING_PROJECT_ID")
		return
	}

	key := storage.ProjectKey(project.ProjectID)
	if err := h.artifacts.Put(r.Context(), key, raw, "application/json"); err != nil {
		h.logger.Error("failed to save project",
			slog.String("project_id", project.ProjectID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to save project", "PROJECT_SAVE_FAILED")
		return
	}

	h.logger.Info("project saved",
		slog.String("project_id", project.ProjectID),
		slog.Int("scenes", len(project.Scenes)),
	)

	writeJSON(w, http.StatusOK, SaveProjectResponse{
		ProjectID:  project.ProjectID,
		StorageKey: key,
	})
}

// LoadProject handles GET /api/project/{id} requests.
func (h *Handlers) LoadProject(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if projectID == "" {
		writeError(w, http.StatusBadRequest, "project ID is required", "MISSING_PROJECT_ID")
		return
	}

	raw, contentType, err := h.artifacts.Get(r.Context(), storage.ProjectKey(projectID))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			writeError(w, http.StatusNotFound, "project not found", "PROJECT_NOT_FOUND")
			return
		}
		h.logger.Error("failed to load project",
			slog.String("project_id", projectID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to load project", "PROJECT_LOAD_FAILED")
		return
	}

	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(raw); err != nil {
		h.logger.Error("failed to write project response", slog.String("error", err.Error()))
	}
}

// ServeObject handles GET /local/{key...} requests in local storage mode,
// making presigned local URLs resolvable.
func (h *Handlers) ServeObject(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "object key is required", "MISSING_KEY")
		return
	}

	data, contentType, err := h.artifacts.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			writeError(w, http.StatusNotFound, "object not found", "OBJECT_NOT_FOUND")
			return
		}
		h.logger.Error("failed to read object",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to read object", "OBJECT_READ_FAILED")
		return
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("failed to write object response", slog.String("error", err.Error()))
	}
}

// decode reads and validates a JSON request body, writing the error response
// itself. It returns false when the request was rejected.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return false
	}
	return true
}

// writeStartError maps orchestrator start failures to HTTP status codes:
// missing fields are the caller's fault (400), unknown kinds and models are
// unimplemented capabilities (501), and a locked approval gate is a conflict
// with the project's current state (409).
func (h *Handlers) writeStartError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, generator.ErrMissingField):
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
	case errors.Is(err, generator.ErrModelNotSupported), errors.Is(err, job.ErrKindNotSupported):
		writeError(w, http.StatusNotImplemented, err.Error(), "MODEL_NOT_SUPPORTED")
	case errors.Is(err, scene.ErrStageLocked):
		writeError(w, http.StatusConflict, err.Error(), "STAGE_LOCKED")
	case errors.Is(err, scene.ErrSceneNotFound):
		writeError(w, http.StatusNotFound, err.Error(), "SCENE_NOT_FOUND")
	default:
		h.logger.Error("failed to start job",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to start job", "JOB_START_FAILED")
	}
}

// maxProjectBytes caps the accepted project document size.
const maxProjectBytes = 4 << 20

func readBody(r *http.Request) ([]byte, error) {
	defer func() { _ = r.Body.Close() }()
	return io.ReadAll(io.LimitReader(r.Body, maxProjectBytes))
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
