package server

import (
	"log/slog"
	"net/http"
)

// Config contains server configuration options.
type Config struct {
	// AllowedOrigins is the list of allowed CORS origins.
	AllowedOrigins []string
	// ServeLocalObjects mounts GET /local/{key...} so presigned URLs from
	// the disk-backed gateway resolve. Only set in local storage mode.
	ServeLocalObjects bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins: []string{"*"},
	}
}

// NewRouter creates a new HTTP router with all routes configured.
// It uses Go 1.22+ ServeMux with method-based routing.
func NewRouter(h *Handlers, logger *slog.Logger, cfg Config) http.Handler {
	mux := http.NewServeMux()

	// Register routes with method-based patterns (Go 1.22+)
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("POST /api/image/generate", h.GenerateImage)
	mux.HandleFunc("POST /api/video/generate", h.GenerateVideo)
	mux.HandleFunc("POST /api/audio/generate", h.GenerateAudio)
	mux.HandleFunc("GET /api/{kind}/status/{id}", h.JobStatus)
	mux.HandleFunc("GET /api/storage/presign", h.Presign)
	mux.HandleFunc("POST /api/project/save", h.SaveProject)
	mux.HandleFunc("GET /api/project/{id}", h.LoadProject)

	if cfg.ServeLocalObjects {
		mux.HandleFunc("GET /local/{key...}", h.ServeObject)
	}

	// Apply middleware chain
	chain := ChainMiddleware(
		RecoveryMiddleware(logger),
		RequestIDMiddleware(),
		LoggingMiddleware(logger),
		CORSMiddleware(cfg.AllowedOrigins),
	)

	return chain(mux)
}
