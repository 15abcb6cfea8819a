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

const adapterTextEmbed = "text_embed"

// HTTPTextEmbedder embeds text via a configured HTTP endpoint returning a
// flat float32 vector.
type HTTPTextEmbedder struct {
	http    *httpClient
	url     string
	model   string
	label   string
	headers map[string]string
}

// NewHTTPTextEmbedder builds a text embedder from adapter config.
func NewHTTPTextEmbedder(cfg config.AdapterConfig) (*HTTPTextEmbedder, error) {
	if cfg.Endpoint == "" {
		return nil, apierr.New(apierr.Service, "text embed adapter requires an endpoint")
	}
	return &HTTPTextEmbedder{
		http:    newHTTPClient(adapterTextEmbed, cfg.Timeout, cfg.RateLimit),
		url:     cfg.Endpoint,
		model:   cfg.ModelID,
		label:   "text_embedding",
		headers: authHeaders(cfg.APIKey),
	}, nil
}

type embedTextRequest struct {
	Text  string `json:"text"`
	Model string `json:"model,omitempty"`
}

type embedResponse struct {
	Vector []float32 `json:"vector"`
}

// EmbedText implements TextEmbedder.
func (a *HTTPTextEmbedder) EmbedText(ctx context.Context, text string) (model.Embedding, error) {
	start := time.Now()
	tracer := telemetry.Tracer("mmsearch.adapters")
	ctx, span := tracer.Start(ctx, "adapter.embed_text")
	defer span.End()

	var resp embedResponse
	err := a.http.postJSON(ctx, a.url, a.headers, embedTextRequest{Text: text, Model: a.model}, &resp, apierr.MediaProcessing)
	metrics.ObserveAdapterCall(adapterTextEmbed, err, string(apierr.KindOf(err)), time.Since(start))
	if err != nil {
		return model.Embedding{}, err
	}
	return model.Embedding{Label: a.label, Vector: resp.Vector}, nil
}
