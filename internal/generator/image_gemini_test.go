package generator

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeminiImageRequiresAPIKey(t *testing.T) {
	_, err := NewGeminiImage("")
	assert.ErrorIs(t, err, ErrGeminiAPIKeyRequired)
}

func TestGeminiImageGenerate(t *testing.T) {
	imageBytes := []byte("fake-png-bytes")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "imagen-3.0-generate-005:generateImage")
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "a lighthouse in a storm", payload["prompt"])
		assert.Equal(t, "9:16", payload["aspect_ratio"])
		assert.Equal(t, true, payload["return_bytes"])
		assert.NotEmpty(t, payload["negative_prompt"])

		resp := map[string]any{
			"images": []map[string]any{
				{"image": map[string]any{"b64_encoded": base64.StdEncoding.EncodeToString(imageBytes)}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	gen, err := NewGeminiImage("test-key", WithGeminiBaseURL(srv.URL))
	require.NoError(t, err)

	result, err := gen.Generate(context.Background(), Request{Prompt: "a lighthouse in a storm"})
	require.NoError(t, err)
	assert.Equal(t, imageBytes, result.Bytes)
	assert.Equal(t, "image/png", result.ContentType)
	assert.Empty(t, result.StoredKey)
}

func TestGeminiImageGenerateProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"API key invalid"}`))
	}))
	defer srv.Close()

	gen, err := NewGeminiImage("bad-key", WithGeminiBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), Request{Prompt: "x"})
	var pErr *ProviderError
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, "gemini", pErr.Provider)
	assert.Equal(t, http.StatusForbidden, pErr.StatusCode)
	assert.Contains(t, pErr.Message, "API key invalid")
}

func TestGeminiImageGenerateMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json at all"))
	}))
	defer srv.Close()

	gen, err := NewGeminiImage("test-key", WithGeminiBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), Request{Prompt: "x"})
	var pErr *ProviderError
	require.True(t, errors.As(err, &pErr))
	assert.Contains(t, pErr.Message, "malformed response")
}

func TestGeminiImageGenerateEmptyImages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"images":[]}`))
	}))
	defer srv.Close()

	gen, err := NewGeminiImage("test-key", WithGeminiBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), Request{Prompt: "x"})
	var pErr *ProviderError
	require.True(t, errors.As(err, &pErr))
	assert.Contains(t, pErr.Message, "no image payload")
}
