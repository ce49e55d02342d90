package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuzzyvid/storyreel-api/internal/generator"
	"github.com/fuzzyvid/storyreel-api/internal/job"
	"github.com/fuzzyvid/storyreel-api/internal/scene"
	"github.com/fuzzyvid/storyreel-api/internal/storage"
)

// stubGenerator returns canned bytes or an error.
type stubGenerator struct {
	result generator.Result
	err    error
}

func (s *stubGenerator) Generate(context.Context, generator.Request) (generator.Result, error) {
	return s.result, s.err
}

type testAPI struct {
	srv      *httptest.Server
	gateway  *storage.LocalGateway
	store    *job.MemoryStore
	imageGen *stubGenerator
	videoGen *stubGenerator
	audioGen *stubGenerator
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	gateway, err := storage.NewLocalGateway(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)

	api := &testAPI{
		gateway:  gateway,
		imageGen: &stubGenerator{result: generator.Result{Bytes: []byte("png-bytes"), ContentType: "image/png"}},
		videoGen: &stubGenerator{result: generator.Result{StoredKey: "projects/p1/scene_1/video_1.mp4"}},
		audioGen: &stubGenerator{result: generator.Result{Bytes: []byte("mp3-bytes"), ContentType: "audio/mpeg"}},
	}

	registry := generator.NewRegistry()
	registry.Register(generator.KindImage, "gemini", api.imageGen)
	registry.Register(generator.KindVideo, "nova_reel", api.videoGen)
	registry.Register(generator.KindAudio, "polly", api.audioGen)

	api.store = job.NewMemoryStore(time.Hour)
	t.Cleanup(api.store.Stop)

	logger := slog.New(slog.DiscardHandler)
	gate := scene.NewProjectGate(gateway)
	svc := job.NewService(api.store, registry, gateway, gate, logger)

	handlers := NewHandlers(svc, gateway, logger)
	cfg := DefaultConfig()
	cfg.ServeLocalObjects = true
	api.srv = httptest.NewServer(NewRouter(handlers, logger, cfg))
	t.Cleanup(api.srv.Close)

	return api
}

func (api *testAPI) postJSON(t *testing.T, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(api.srv.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp, decodeJSON(t, resp)
}

func (api *testAPI) get(t *testing.T, path string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(api.srv.URL + path)
	require.NoError(t, err)
	return resp, decodeJSON(t, resp)
}

func decodeJSON(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]any
	if json.Unmarshal(data, &decoded) != nil {
		return nil
	}
	return decoded
}

// waitDone polls the status endpoint the way a real caller would until the
// job leaves generating.
func (api *testAPI) waitDone(t *testing.T, kind, jobID string) map[string]any {
	t.Helper()
	var last map[string]any
	require.Eventually(t, func() bool {
		_, body := api.get(t, fmt.Sprintf("/api/%s/status/%s", kind, jobID))
		last = body
		status, _ := body["status"].(string)
		return status == "done" || status == "failed"
	}, 2*time.Second, 5*time.Millisecond)
	return last
}

// saveProject stores a project document with the given per-scene statuses.
func (api *testAPI) saveProject(t *testing.T, projectID string, scenes ...scene.Scene) {
	t.Helper()
	resp, body := api.postJSON(t, "/api/project/save", scene.Project{ProjectID: projectID, Scenes: scenes})
	require.Equal(t, http.StatusOK, resp.StatusCode, "save project: %v", body)
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	resp, body := api.get(t, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestImageGenerateLifecycle(t *testing.T) {
	api := newTestAPI(t)

	resp, body := api.postJSON(t, "/api/image/generate", map[string]any{
		"model":        "gemini",
		"image_prompt": "a busy night market, vertical framing",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	jobID, _ := body["jobId"].(string)
	require.True(t, strings.HasPrefix(jobID, "img_"), "got %v", body)

	final := api.waitDone(t, "image", jobID)
	assert.Equal(t, "done", final["status"])
	storageKey, _ := final["storageKey"].(string)
	require.NotEmpty(t, storageKey)

	// The produced bytes are retrievable through a presigned URL against the
	// local objects route.
	resp, body = api.get(t, "/api/storage/presign?key="+url.QueryEscape(storageKey))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	signedURL, _ := body["signedUrl"].(string)
	require.NotEmpty(t, signedURL)

	u, err := url.Parse(signedURL)
	require.NoError(t, err)
	objResp, err := http.Get(api.srv.URL + u.Path)
	require.NoError(t, err)
	defer func() { _ = objResp.Body.Close() }()
	require.Equal(t, http.StatusOK, objResp.StatusCode)
	assert.Equal(t, "image/png", objResp.Header.Get("Content-Type"))
	objBytes, err := io.ReadAll(objResp.Body)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), objBytes)
}

func TestImageGenerateValidation(t *testing.T) {
	api := newTestAPI(t)

	resp, body := api.postJSON(t, "/api/image/generate", map[string]any{"model": "gemini"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
}

func TestImageGenerateInvalidJSON(t *testing.T) {
	api := newTestAPI(t)

	resp, err := http.Post(api.srv.URL+"/api/image/generate", "application/json", strings.NewReader("{broken"))
	require.NoError(t, err)
	body := decodeJSON(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_JSON", body["code"])
}

func TestGenerateUnknownModel(t *testing.T) {
	api := newTestAPI(t)

	resp, body := api.postJSON(t, "/api/image/generate", map[string]any{
		"model":        "dall-e",
		"image_prompt": "x",
	})
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
	assert.Equal(t, "MODEL_NOT_SUPPORTED", body["code"])
}

func TestStatusUnknownJobReportsPending(t *testing.T) {
	api := newTestAPI(t)

	resp, body := api.get(t, "/api/image/status/img_1700000000000_deadbeef")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pending", body["status"])
}

func TestStatusRejectsUnknownKind(t *testing.T) {
	api := newTestAPI(t)

	resp, body := api.get(t, "/api/subtitles/status/img_1")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_KIND", body["code"])
}

func TestVideoGenerateGatedOnImageApproval(t *testing.T) {
	api := newTestAPI(t)

	sc := scene.NewScene(1)
	sc.Status.Image = scene.StatusDone // produced but not approved
	api.saveProject(t, "p1", *sc)

	videoReq := map[string]any{
		"model":      "nova_reel",
		"image_key":  "projects/p1/scene_1/image_1.png",
		"project_id": "p1",
		"scene_id":   1,
	}

	resp, body := api.postJSON(t, "/api/video/generate", videoReq)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "STAGE_LOCKED", body["code"])

	// Approving the image in the saved document opens the gate.
	sc.Status.Image = scene.StatusApproved
	api.saveProject(t, "p1", *sc)

	resp, body = api.postJSON(t, "/api/video/generate", videoReq)
	require.Equal(t, http.StatusOK, resp.StatusCode, "%v", body)
	jobID, _ := body["jobId"].(string)
	assert.True(t, strings.HasPrefix(jobID, "vid_"))

	final := api.waitDone(t, "video", jobID)
	assert.Equal(t, "done", final["status"])
	assert.Equal(t, "projects/p1/scene_1/video_1.mp4", final["storageKey"])
}

func TestVideoGenerateWithoutSavedProject(t *testing.T) {
	api := newTestAPI(t)

	resp, body := api.postJSON(t, "/api/video/generate", map[string]any{
		"model":      "nova_reel",
		"image_key":  "projects/ghost/scene_1/image_1.png",
		"project_id": "ghost",
		"scene_id":   1,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "STAGE_LOCKED", body["code"])
}

func TestAudioGenerateProviderFailureSurfacesInRecord(t *testing.T) {
	api := newTestAPI(t)
	api.audioGen.err = &generator.ProviderError{Provider: "polly", StatusCode: 403, Message: "token expired"}

	sc := scene.NewScene(1)
	sc.Status.Image = scene.StatusApproved
	sc.Status.Video = scene.StatusApproved
	api.saveProject(t, "p1", *sc)

	resp, body := api.postJSON(t, "/api/audio/generate", map[string]any{
		"model":           "polly",
		"text":            "closing narration",
		"language":        "en",
		"voice_character": "Joanna",
		"project_id":      "p1",
		"scene_id":        1,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, "provider failures are asynchronous: %v", body)
	jobID, _ := body["jobId"].(string)
	require.True(t, strings.HasPrefix(jobID, "aud_"))

	final := api.waitDone(t, "audio", jobID)
	assert.Equal(t, "failed", final["status"])
	errMsg, _ := final["error"].(string)
	assert.Contains(t, errMsg, "403")
	assert.Contains(t, errMsg, "token expired")
}

func TestProjectSaveValidation(t *testing.T) {
	api := newTestAPI(t)

	resp, body := api.postJSON(t, "/api/project/save", map[string]any{"scenes": []any{}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "MISSING_PROJECT_ID", body["code"])
}

func TestProjectSaveLoadRoundTripPreservesUnknownFields(t *testing.T) {
	api := newTestAPI(t)

	doc := `{"project_id":"p9","title":"Launch teaser","scenes":[{"scene_id":1,"status":{"image":"pending","video":"pending","audio":"pending"},"assets":{}}]}`
	resp, err := http.Post(api.srv.URL+"/api/project/save", "application/json", strings.NewReader(doc))
	require.NoError(t, err)
	body := decodeJSON(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "projects/p9/project.json", body["storage_key"])

	loadResp, err := http.Get(api.srv.URL + "/api/project/p9")
	require.NoError(t, err)
	defer func() { _ = loadResp.Body.Close() }()
	require.Equal(t, http.StatusOK, loadResp.StatusCode)
	assert.Equal(t, "application/json", loadResp.Header.Get("Content-Type"))

	loaded, err := io.ReadAll(loadResp.Body)
	require.NoError(t, err)
	// The document is stored verbatim: fields the service does not model
	// (title) survive the round trip.
	assert.JSONEq(t, doc, string(loaded))
}

func TestProjectLoadMissing(t *testing.T) {
	api := newTestAPI(t)

	resp, body := api.get(t, "/api/project/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "PROJECT_NOT_FOUND", body["code"])
}

func TestRequestIDHeader(t *testing.T) {
	api := newTestAPI(t)

	resp, err := http.Get(api.srv.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	req, err := http.NewRequest(http.MethodGet, api.srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "caller-supplied")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp2.Body.Close() }()
	assert.Equal(t, "caller-supplied", resp2.Header.Get("X-Request-ID"))
}
