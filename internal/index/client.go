// Package index implements the hybrid lexical/dense-vector index engine
// (C3): schema management, hybrid search, single/bulk insert, and paged
// listing over an Elasticsearch-compatible backing store.
package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/rs/zerolog"

	"github.com/mmsearch-dev/mmsearch/internal/apierr"
	"github.com/mmsearch-dev/mmsearch/internal/config"
)

// Engine wraps an Elasticsearch client bound to one index, implementing
// the operations of spec.md §4.3.
type Engine struct {
	client *elasticsearch.Client
	index  string
	cfg    config.IndexConfig
	logger zerolog.Logger

	ensureOnce sync.Once
	ensureErr  error
}

// New constructs an Engine. Schema creation is lazy (see EnsureIndex) and
// is not performed here, mirroring the teacher's lazy-init idiom.
func New(cfg config.IndexConfig, logger zerolog.Logger) (*Engine, error) {
	esCfg := elasticsearch.Config{
		Addresses: []string{fmt.Sprintf("%s://%s:%d", cfg.Scheme, cfg.Host, cfg.Port)},
	}
	if cfg.User != "" {
		esCfg.Username = cfg.User
		esCfg.Password = cfg.Password
	}

	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("index: create client: %w", err)
	}

	return &Engine{client: client, index: cfg.IndexName, cfg: cfg, logger: logger}, nil
}

// EnsureIndex creates the index schema on first call if it does not
// already exist; subsequent calls are no-ops. Safe for concurrent use.
func (e *Engine) EnsureIndex(ctx context.Context) error {
	e.ensureOnce.Do(func() {
		e.ensureErr = e.ensureIndexOnce(ctx)
	})
	return e.ensureErr
}

func (e *Engine) ensureIndexOnce(ctx context.Context) error {
	existsReq := esapi.IndicesExistsRequest{Index: []string{e.index}}
	res, err := existsReq.Do(ctx, e.client)
	if err != nil {
		return apierr.Wrap(apierr.Service, "failed to check index existence", err)
	}
	defer res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	mapping := buildMapping(e.cfg.VectorDims)
	body, err := json.Marshal(mapping)
	if err != nil {
		return apierr.Wrap(apierr.Service, "failed to encode index mapping", err)
	}

	createReq := esapi.IndicesCreateRequest{Index: e.index, Body: bytes.NewReader(body)}
	res, err = createReq.Do(ctx, e.client)
	if err != nil {
		return apierr.Wrap(apierr.Service, "failed to create index", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return apierr.New(apierr.Service, fmt.Sprintf("index creation failed: %s", res.Status()))
	}

	e.logger.Info().Str("index", e.index).Msg("index schema created")
	return nil
}

func buildMapping(dims config.VectorDims) map[string]any {
	denseVector := func(d int) map[string]any {
		return map[string]any{
			"type":       "dense_vector",
			"dims":       d,
			"index":      true,
			"similarity": "cosine",
		}
	}
	textField := map[string]any{"type": "text", "analyzer": "standard"}
	keywordField := map[string]any{"type": "keyword"}

	return map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				"text":                     textField,
				"image_url":                keywordField,
				"video_url":                keywordField,
				"image_caption":            textField,
				"video_transcript":         textField,
				FieldText:                  denseVector(dims.Text),
				FieldImage:                 denseVector(dims.Image),
				FieldVideo:                 denseVector(dims.Video),
				FieldImageCaptionEmbedding: denseVector(dims.ImageCaption),
				FieldVideoTranscriptEmbed:  denseVector(dims.VideoTranscript),
			},
		},
	}
}

// Ping checks connectivity to the backing store, used by the health
// checker.
func (e *Engine) Ping(ctx context.Context) error {
	req := esapi.PingRequest{}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index: ping failed: %s", res.Status())
	}
	return nil
}
