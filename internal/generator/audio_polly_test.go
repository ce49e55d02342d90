package generator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPollyRequiresSigner(t *testing.T) {
	_, err := NewPolly(nil, "us-east-1")
	assert.ErrorIs(t, err, ErrPollySignerRequired)
}

func TestPollyGeneratePlainText(t *testing.T) {
	mp3 := []byte("fake-mp3-stream")

	var received pollyRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/speech", r.URL.Path)
		assert.True(t, strings.HasPrefix(r.Header.Get("Authorization"), "AWS4-HMAC-SHA256"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write(mp3)
	}))
	defer srv.Close()

	gen, err := NewPolly(testSigner(t, "polly"), "us-east-1", WithPollyBaseURL(srv.URL))
	require.NoError(t, err)

	result, err := gen.Generate(context.Background(), Request{
		Text:     "selamat pagi",
		Language: "id",
		Voice:    "Kajal",
	})
	require.NoError(t, err)
	assert.Equal(t, mp3, result.Bytes)
	assert.Equal(t, "audio/mpeg", result.ContentType)

	assert.Equal(t, "neural", received.Engine)
	assert.Equal(t, "id-ID", received.LanguageCode)
	assert.Equal(t, "mp3", received.OutputFormat)
	assert.Equal(t, "selamat pagi", received.Text)
	assert.Empty(t, received.TextType, "plain narration stays plain text")
	assert.Equal(t, "Kajal", received.VoiceID)
}

func TestPollyGenerateNarrationHintsUseSSML(t *testing.T) {
	var received pollyRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_, _ = w.Write([]byte("mp3"))
	}))
	defer srv.Close()

	gen, err := NewPolly(testSigner(t, "polly"), "us-east-1", WithPollyBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), Request{
		Text:       "hold the line tonight",
		Stress:     []string{"line"},
		PauseAfter: []string{"tonight"},
		Speed:      1.5,
	})
	require.NoError(t, err)

	assert.Equal(t, "ssml", received.TextType)
	assert.Contains(t, received.Text, `<emphasis level="strong">line</emphasis>`)
	assert.Contains(t, received.Text, `tonight<break time="500ms"/>`)
	assert.Contains(t, received.Text, `<prosody rate="150%">`)
	assert.Equal(t, "en-US", received.LanguageCode, "unknown language falls back to en-US")
}

func TestPollyGenerateProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"The security token is invalid"}`))
	}))
	defer srv.Close()

	gen, err := NewPolly(testSigner(t, "polly"), "us-east-1", WithPollyBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), Request{Text: "x"})
	var pErr *ProviderError
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, "polly", pErr.Provider)
	assert.Equal(t, http.StatusForbidden, pErr.StatusCode)
	assert.Contains(t, pErr.Message, "security token")
}

func TestLanguageCode(t *testing.T) {
	assert.Equal(t, "id-ID", languageCode("id"))
	assert.Equal(t, "en-US", languageCode("en"))
	assert.Equal(t, "en-US", languageCode(""))
}
