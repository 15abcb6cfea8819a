package adapters

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mmsearch-dev/mmsearch/internal/apierr"
	"github.com/mmsearch-dev/mmsearch/internal/config"
	"github.com/mmsearch-dev/mmsearch/internal/metrics"
	"github.com/mmsearch-dev/mmsearch/internal/telemetry"
)

const adapterCaption = "caption"

// HTTPCaptioner captions an image via a vision-language-model endpoint,
// using a prompt loaded once from a configured file.
type HTTPCaptioner struct {
	http    *httpClient
	url     string
	model   string
	prompt  string
	headers map[string]string
}

// NewHTTPCaptioner builds a captioner from adapter config, reading the
// prompt file once at construction time per spec.md §4.1.
func NewHTTPCaptioner(cfg config.AdapterConfig) (*HTTPCaptioner, error) {
	if cfg.Endpoint == "" {
		return nil, apierr.New(apierr.Service, "caption adapter requires an endpoint")
	}
	if cfg.PromptFile == "" {
		return nil, apierr.New(apierr.Service, "caption adapter requires a prompt file")
	}
	raw, err := os.ReadFile(cfg.PromptFile)
	if err != nil {
		return nil, apierr.Wrap(apierr.Service, fmt.Sprintf("failed to read caption prompt file %q", cfg.PromptFile), err)
	}

	return &HTTPCaptioner{
		http:    newHTTPClient(adapterCaption, cfg.Timeout, cfg.RateLimit),
		url:     cfg.Endpoint,
		model:   cfg.ModelID,
		prompt:  strings.TrimSpace(string(raw)),
		headers: authHeaders(cfg.APIKey),
	}, nil
}

type captionRequest struct {
	ImageURL string `json:"image_url"`
	Prompt   string `json:"prompt"`
	Model    string `json:"model,omitempty"`
}

type captionResponse struct {
	Caption string `json:"caption"`
}

// Caption implements Captioner.
func (a *HTTPCaptioner) Caption(ctx context.Context, imageURL string) (string, error) {
	start := time.Now()
	tracer := telemetry.Tracer("mmsearch.adapters")
	ctx, span := tracer.Start(ctx, "adapter.caption")
	defer span.End()

	var resp captionResponse
	err := a.http.postJSON(ctx, a.url, a.headers, captionRequest{ImageURL: imageURL, Prompt: a.prompt, Model: a.model}, &resp, apierr.MediaProcessing)
	metrics.ObserveAdapterCall(adapterCaption, err, string(apierr.KindOf(err)), time.Since(start))
	if err != nil {
		return "", err
	}
	return resp.Caption, nil
}
