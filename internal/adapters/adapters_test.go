package adapters

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mmsearch-dev/mmsearch/internal/apierr"
	"github.com/mmsearch-dev/mmsearch/internal/config"
)

func TestHTTPTextEmbedderSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedTextRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "hello", req.Text)
		json.NewEncoder(w).Encode(embedResponse{Vector: []float32{0.1, 0.2, 0.3}})
	}))
	defer srv.Close()

	e, err := NewHTTPTextEmbedder(config.AdapterConfig{Endpoint: srv.URL, Timeout: 2 * time.Second})
	require.NoError(t, err)

	emb, err := e.EmbedText(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, "text_embedding", emb.Label)
	require.Len(t, emb.Vector, 3)
}

func TestHTTPTextEmbedderMissingEndpoint(t *testing.T) {
	_, err := NewHTTPTextEmbedder(config.AdapterConfig{})
	require.Error(t, err)
}

func TestHTTPImageEmbedderReclassifiesVendorRejectionAsInvalidMedia(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error": "cannot decode image"}`))
	}))
	defer srv.Close()

	e, err := NewHTTPImageEmbedder(config.AdapterConfig{Endpoint: srv.URL, Timeout: 2 * time.Second})
	require.NoError(t, err)

	_, err = e.EmbedImage(context.Background(), "http://example.com/bad.jpg")
	require.Error(t, err)
	apiErr, ok := apierr.As(err)
	require.True(t, ok)
	require.Equal(t, apierr.InvalidMedia, apiErr.Kind)
}

func TestHTTPCaptionerLoadsPromptFileOnce(t *testing.T) {
	promptPath := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(promptPath, []byte("Describe this image."), 0o644))

	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req captionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotPrompt = req.Prompt
		json.NewEncoder(w).Encode(captionResponse{Caption: "a cat"})
	}))
	defer srv.Close()

	c, err := NewHTTPCaptioner(config.AdapterConfig{Endpoint: srv.URL, PromptFile: promptPath, Timeout: 2 * time.Second})
	require.NoError(t, err)

	caption, err := c.Caption(context.Background(), "http://example.com/cat.jpg")
	require.NoError(t, err)
	require.Equal(t, "a cat", caption)
	require.Equal(t, "Describe this image.", gotPrompt)
}

func TestHTTPCaptionerRequiresPromptFile(t *testing.T) {
	_, err := NewHTTPCaptioner(config.AdapterConfig{Endpoint: "http://example.com"})
	require.Error(t, err)
}

func TestHTTPTranscriberAllowsEmptyTranscript(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(transcribeResponse{Transcript: ""})
	}))
	defer srv.Close()

	tr, err := NewHTTPTranscriber(config.AdapterConfig{Endpoint: srv.URL, Timeout: 2 * time.Second})
	require.NoError(t, err)

	transcript, err := tr.Transcribe(context.Background(), "http://example.com/a.wav")
	require.NoError(t, err)
	require.Empty(t, transcript)
}

func TestHTTPClientRetriesOnServerError(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(embedResponse{Vector: []float32{1}})
	}))
	defer srv.Close()

	e, err := NewHTTPTextEmbedder(config.AdapterConfig{Endpoint: srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)

	emb, err := e.EmbedText(context.Background(), "retry me")
	require.NoError(t, err)
	require.Equal(t, []float32{1}, emb.Vector)
	require.GreaterOrEqual(t, attempts, 2)
}

func TestHTTPClientDoesNotRetryOnClientError(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	e, err := NewHTTPTextEmbedder(config.AdapterConfig{Endpoint: srv.URL, Timeout: 2 * time.Second})
	require.NoError(t, err)

	_, err = e.EmbedText(context.Background(), "x")
	require.Error(t, err)
	require.Equal(t, 1, attempts)
}

func TestHTTPVideoEmbedderClassifiesUnreachableURLAsMediaDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	e, err := NewHTTPVideoEmbedder(config.AdapterConfig{Endpoint: addr, Timeout: 500 * time.Millisecond})
	require.NoError(t, err)

	_, err = e.EmbedVideo(context.Background(), "http://example.com/unreachable.mp4")
	require.Error(t, err)
	apiErr, ok := apierr.As(err)
	require.True(t, ok)
	require.Equal(t, apierr.MediaDownload, apiErr.Kind)
}

func TestHTTPVideoEmbedderClassifiesServerErrorAsMediaProcessing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	e, err := NewHTTPVideoEmbedder(config.AdapterConfig{Endpoint: srv.URL, Timeout: 2 * time.Second})
	require.NoError(t, err)

	_, err = e.EmbedVideo(context.Background(), "http://example.com/bad-vendor-response.mp4")
	require.Error(t, err)
	apiErr, ok := apierr.As(err)
	require.True(t, ok)
	require.Equal(t, apierr.MediaProcessing, apiErr.Kind)
}

func TestFactoryRejectsUnknownImpl(t *testing.T) {
	_, err := newTextEmbedder(config.AdapterConfig{Impl: "mystery-vendor", Endpoint: "http://x"})
	require.Error(t, err)
}
