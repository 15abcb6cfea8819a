package adapters

import (
	"context"
	"time"

	"github.com/mmsearch-dev/mmsearch/internal/apierr"
	"github.com/mmsearch-dev/mmsearch/internal/config"
	"github.com/mmsearch-dev/mmsearch/internal/metrics"
	"github.com/mmsearch-dev/mmsearch/internal/telemetry"
)

const adapterTranscribe = "transcribe"

// HTTPTranscriber transcribes speech from an audio URL via a configured ASR
// endpoint. Per spec.md §4.1, ASR failure is non-fatal to the pipeline —
// callers are expected to substitute an empty transcript on error rather
// than fail the enrichment run.
type HTTPTranscriber struct {
	http    *httpClient
	url     string
	model   string
	headers map[string]string
}

// NewHTTPTranscriber builds a transcriber from adapter config.
func NewHTTPTranscriber(cfg config.AdapterConfig) (*HTTPTranscriber, error) {
	if cfg.Endpoint == "" {
		return nil, apierr.New(apierr.Service, "transcribe adapter requires an endpoint")
	}
	return &HTTPTranscriber{
		http:    newHTTPClient(adapterTranscribe, cfg.Timeout, cfg.RateLimit),
		url:     cfg.Endpoint,
		model:   cfg.ModelID,
		headers: authHeaders(cfg.APIKey),
	}, nil
}

type transcribeRequest struct {
	AudioURL string `json:"audio_url"`
	Model    string `json:"model,omitempty"`
}

type transcribeResponse struct {
	Transcript string `json:"transcript"`
}

// Transcribe implements AudioTranscriber.
func (a *HTTPTranscriber) Transcribe(ctx context.Context, audioURL string) (string, error) {
	start := time.Now()
	tracer := telemetry.Tracer("mmsearch.adapters")
	ctx, span := tracer.Start(ctx, "adapter.transcribe")
	defer span.End()

	var resp transcribeResponse
	err := a.http.postJSON(ctx, a.url, a.headers, transcribeRequest{AudioURL: audioURL, Model: a.model}, &resp, apierr.MediaProcessing)
	metrics.ObserveAdapterCall(adapterTranscribe, err, string(apierr.KindOf(err)), time.Since(start))
	if err != nil {
		return "", err
	}
	return resp.Transcript, nil
}
