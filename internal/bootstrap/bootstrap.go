// Package bootstrap provides dependency initialization for the StoryReel API.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/fuzzyvid/storyreel-api/internal/config"
	"github.com/fuzzyvid/storyreel-api/internal/generator"
	"github.com/fuzzyvid/storyreel-api/internal/job"
	"github.com/fuzzyvid/storyreel-api/internal/scene"
	"github.com/fuzzyvid/storyreel-api/internal/sigv4"
	"github.com/fuzzyvid/storyreel-api/internal/storage"
)

// Bedrock's Nova Reel endpoint lives in a fixed region independent of the
// artifact bucket's region.
const bedrockRegion = "us-east-1"

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	JobService *job.Service
	Artifacts  storage.Gateway
	JobStore   *job.MemoryStore
	LocalMode  bool
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	artifacts, localMode, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	registry, err := initRegistry(cfg)
	if err != nil {
		return nil, err
	}

	store := job.NewMemoryStore(cfg.JobTTL)
	gate := scene.NewProjectGate(artifacts)
	svc := job.NewService(store, registry, artifacts, gate, logger)

	return &Dependencies{
		JobService: svc,
		Artifacts:  artifacts,
		JobStore:   store,
		LocalMode:  localMode,
	}, nil
}

// initRegistry builds the adapter registry from configured credentials.
// AWS-backed adapters share the credential pair but sign for their own
// region and service.
func initRegistry(cfg *config.Config) (*generator.Registry, error) {
	creds := sigv4.Credentials{
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	}

	bedrockSigner, err := sigv4.NewSigner(creds, bedrockRegion, "bedrock")
	if err != nil {
		return nil, fmt.Errorf("create bedrock signer: %w", err)
	}
	pollySigner, err := sigv4.NewSigner(creds, cfg.AWSRegion, "polly")
	if err != nil {
		return nil, fmt.Errorf("create polly signer: %w", err)
	}

	imageGen, err := generator.NewGeminiImage(cfg.GeminiAPIKey)
	if err != nil {
		return nil, fmt.Errorf("create image adapter: %w", err)
	}
	pollyGen, err := generator.NewPolly(pollySigner, cfg.AWSRegion)
	if err != nil {
		return nil, fmt.Errorf("create polly adapter: %w", err)
	}
	googleTTSGen, err := generator.NewGoogleTTS(cfg.GeminiAPIKey)
	if err != nil {
		return nil, fmt.Errorf("create google tts adapter: %w", err)
	}

	registry := generator.NewRegistry()
	registry.Register(generator.KindImage, "gemini", imageGen)
	registry.Register(generator.KindAudio, "polly", pollyGen)
	registry.Register(generator.KindAudio, "gemini_tts", googleTTSGen)

	// Nova Reel writes its render straight to object storage, so the video
	// model only exists when a bucket is configured. Without one, video
	// requests report 501 like any other unregistered model.
	if cfg.S3Enabled() {
		videoGen, err := generator.NewNovaReel(bedrockSigner, cfg.S3Bucket)
		if err != nil {
			return nil, fmt.Errorf("create video adapter: %w", err)
		}
		registry.Register(generator.KindVideo, "nova_reel", videoGen)
	}

	// ElevenLabs is optional: without a key the model is simply absent from
	// the registry and requests for it report 501.
	if cfg.ElevenLabsAPIKey != "" {
		elevenGen, err := generator.NewElevenLabs(cfg.ElevenLabsAPIKey)
		if err != nil {
			return nil, fmt.Errorf("create elevenlabs adapter: %w", err)
		}
		registry.Register(generator.KindAudio, "elevenlabs", elevenGen)
	}

	return registry, nil
}

// initStorage creates the appropriate artifact gateway based on configuration.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Gateway, bool, error) {
	if cfg.S3Enabled() {
		gateway, err := storage.NewS3Gateway(storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			PresignTTL:      cfg.PresignTTL,
		})
		if err != nil {
			return nil, false, fmt.Errorf("create S3 gateway: %w", err)
		}
		logger.Info("S3 storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return gateway, false, nil
	}

	gateway, err := storage.NewLocalGateway(cfg.StorageDir, cfg.PublicBaseURL)
	if err != nil {
		return nil, false, fmt.Errorf("create local gateway: %w", err)
	}
	logger.Info("local storage configured",
		slog.String("dir", gateway.Dir()),
	)
	return gateway, true, nil
}
