package adapters

import (
	"context"
	"time"

	"github.com/mmsearch-dev/mmsearch/internal/apierr"
	"github.com/mmsearch-dev/mmsearch/internal/config"
	"github.com/mmsearch-dev/mmsearch/internal/metrics"
	"github.com/mmsearch-dev/mmsearch/internal/model"
	"github.com/mmsearch-dev/mmsearch/internal/telemetry"
)

const adapterVideoEmbed = "video_embed"

// HTTPVideoEmbedder embeds a video, addressed by URL, via a configured
// HTTP endpoint.
type HTTPVideoEmbedder struct {
	http    *httpClient
	url     string
	model   string
	label   string
	headers map[string]string
}

// NewHTTPVideoEmbedder builds a video embedder from adapter config.
func NewHTTPVideoEmbedder(cfg config.AdapterConfig) (*HTTPVideoEmbedder, error) {
	if cfg.Endpoint == "" {
		return nil, apierr.New(apierr.Service, "video embed adapter requires an endpoint")
	}
	return &HTTPVideoEmbedder{
		http:    newHTTPClient(adapterVideoEmbed, cfg.Timeout, cfg.RateLimit),
		url:     cfg.Endpoint,
		model:   cfg.ModelID,
		label:   "video_embedding",
		headers: authHeaders(cfg.APIKey),
	}, nil
}

type embedVideoRequest struct {
	VideoURL string `json:"video_url"`
	Model    string `json:"model,omitempty"`
}

// EmbedVideo implements VideoEmbedder. A connection failure (URL
// unreachable) is reported as MediaDownload; a vendor-side rejection or any
// other failure is MediaProcessing, per spec.md §4.1.
func (a *HTTPVideoEmbedder) EmbedVideo(ctx context.Context, videoURL string) (model.Embedding, error) {
	start := time.Now()
	tracer := telemetry.Tracer("mmsearch.adapters")
	ctx, span := tracer.Start(ctx, "adapter.embed_video")
	defer span.End()

	var resp embedResponse
	err := a.http.postJSON(ctx, a.url, a.headers, embedVideoRequest{VideoURL: videoURL, Model: a.model}, &resp, apierr.MediaDownload)
	if err != nil {
		if apiErr, ok := apierr.As(err); ok && apiErr.Kind == apierr.Validation {
			err = apierr.Wrap(apierr.MediaProcessing, apiErr.Message, apiErr.Err)
		}
	}
	metrics.ObserveAdapterCall(adapterVideoEmbed, err, string(apierr.KindOf(err)), time.Since(start))
	if err != nil {
		return model.Embedding{}, err
	}
	return model.Embedding{Label: a.label, Vector: resp.Vector}, nil
}
