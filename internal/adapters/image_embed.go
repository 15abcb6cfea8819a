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

const adapterImageEmbed = "image_embed"

// HTTPImageEmbedder embeds an image, addressed by URL, via a configured
// HTTP endpoint.
type HTTPImageEmbedder struct {
	http    *httpClient
	url     string
	model   string
	label   string
	headers map[string]string
}

// NewHTTPImageEmbedder builds an image embedder from adapter config.
func NewHTTPImageEmbedder(cfg config.AdapterConfig) (*HTTPImageEmbedder, error) {
	if cfg.Endpoint == "" {
		return nil, apierr.New(apierr.Service, "image embed adapter requires an endpoint")
	}
	return &HTTPImageEmbedder{
		http:    newHTTPClient(adapterImageEmbed, cfg.Timeout, cfg.RateLimit),
		url:     cfg.Endpoint,
		model:   cfg.ModelID,
		label:   "image_embedding",
		headers: authHeaders(cfg.APIKey),
	}, nil
}

type embedImageRequest struct {
	ImageURL string `json:"image_url"`
	Model    string `json:"model,omitempty"`
}

// EmbedImage implements ImageEmbedder. A 422-class response from the
// vendor (malformed/undecodable image) surfaces as InvalidMedia rather than
// the adapter's default MediaProcessing, since postJSON already classifies
// 4xx as Validation — the vendor contract for this op maps that case to
// InvalidMedia instead.
func (a *HTTPImageEmbedder) EmbedImage(ctx context.Context, imageURL string) (model.Embedding, error) {
	start := time.Now()
	tracer := telemetry.Tracer("mmsearch.adapters")
	ctx, span := tracer.Start(ctx, "adapter.embed_image")
	defer span.End()

	var resp embedResponse
	err := a.http.postJSON(ctx, a.url, a.headers, embedImageRequest{ImageURL: imageURL, Model: a.model}, &resp, apierr.MediaProcessing)
	if err != nil {
		if apiErr, ok := apierr.As(err); ok && apiErr.Kind == apierr.Validation {
			err = apierr.Wrap(apierr.InvalidMedia, apiErr.Message, apiErr.Err)
		}
	}
	metrics.ObserveAdapterCall(adapterImageEmbed, err, string(apierr.KindOf(err)), time.Since(start))
	if err != nil {
		return model.Embedding{}, err
	}
	return model.Embedding{Label: a.label, Vector: resp.Vector}, nil
}
