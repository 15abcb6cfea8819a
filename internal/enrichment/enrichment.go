// Package enrichment implements the enrichment pipeline (C2): given a raw
// item, runs the text/image/video subgraphs — concurrently across
// modalities, strictly ordered within each — and assembles an enrichment
// record.
package enrichment

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mmsearch-dev/mmsearch/internal/adapters"
	"github.com/mmsearch-dev/mmsearch/internal/metrics"
	"github.com/mmsearch-dev/mmsearch/internal/model"
	"github.com/mmsearch-dev/mmsearch/internal/telemetry"
)

// Pipeline runs the three per-modality subgraphs over a raw item.
type Pipeline struct {
	textEmbedder  adapters.TextEmbedder
	imageEmbedder adapters.ImageEmbedder
	videoEmbedder adapters.VideoEmbedder
	captioner     adapters.Captioner
	transcriber   adapters.AudioTranscriber
	extractor     adapters.AudioExtractUploader
	logger        zerolog.Logger
}

// New builds a Pipeline from an adapter bundle.
func New(bundle *adapters.Bundle, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		textEmbedder:  bundle.TextEmbedder,
		imageEmbedder: bundle.ImageEmbedder,
		videoEmbedder: bundle.VideoEmbedder,
		captioner:     bundle.Captioner,
		transcriber:   bundle.Transcriber,
		extractor:     bundle.AudioExtractUploader,
		logger:        logger,
	}
}

// Enrich runs every active subgraph (one per modality present on item) and
// merges their output into a single record. A failure in the image or
// video subgraph is fatal for the whole run; a failure in the text
// subgraph is fatal. ASR failure inside the video subgraph is not fatal —
// it is logged and substituted with an empty transcript.
func (p *Pipeline) Enrich(ctx context.Context, item model.RawItem) (model.EnrichmentRecord, error) {
	start := time.Now()
	tracer := telemetry.Tracer("mmsearch.enrichment")
	ctx, span := tracer.Start(ctx, "enrichment.run")
	defer span.End()

	var rec model.EnrichmentRecord
	g, gctx := errgroup.WithContext(ctx)

	if item.Text != "" {
		g.Go(func() error {
			sub, err := p.runTextSubgraph(gctx, item.Text)
			metrics.ObserveSubgraph("text", err, time.Since(start))
			if err != nil {
				return err
			}
			rec.Text = sub
			return nil
		})
	}

	if item.ImageURL != "" {
		g.Go(func() error {
			sub, err := p.runImageSubgraph(gctx, item.ImageURL)
			metrics.ObserveSubgraph("image", err, time.Since(start))
			if err != nil {
				return err
			}
			rec.Image = sub
			return nil
		})
	}

	if item.VideoURL != "" {
		g.Go(func() error {
			sub, err := p.runVideoSubgraph(gctx, item.VideoURL)
			metrics.ObserveSubgraph("video", err, time.Since(start))
			if err != nil {
				return err
			}
			rec.Video = sub
			return nil
		})
	}

	err := g.Wait()
	metrics.ObserveEnrichmentRun(err)
	if err != nil {
		return model.EnrichmentRecord{}, err
	}
	return rec, nil
}

func (p *Pipeline) runTextSubgraph(ctx context.Context, text string) (*model.TextRecord, error) {
	emb, err := p.textEmbedder.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	return &model.TextRecord{Embeddings: []model.Embedding{emb}}, nil
}

// runImageSubgraph runs embed-image and caption-image in parallel, then
// embeds the caption once it is available.
func (p *Pipeline) runImageSubgraph(ctx context.Context, imageURL string) (*model.ImageRecord, error) {
	var embedding model.Embedding
	var caption string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		emb, err := p.imageEmbedder.EmbedImage(gctx, imageURL)
		if err != nil {
			return err
		}
		embedding = emb
		return nil
	})
	g.Go(func() error {
		c, err := p.captioner.Caption(gctx, imageURL)
		if err != nil {
			return err
		}
		caption = c
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rec := &model.ImageRecord{Embedding: &embedding, Caption: caption}
	if caption == "" {
		return rec, nil
	}

	captionEmbedding, err := p.textEmbedder.EmbedText(ctx, caption)
	if err != nil {
		return nil, err
	}
	rec.CaptionEmbedding = &captionEmbedding
	return rec, nil
}

// runVideoSubgraph runs embed-video and extract-and-upload-audio in
// parallel, transcribes the extracted audio (non-fatal on ASR failure),
// then embeds the transcript unless it is empty.
func (p *Pipeline) runVideoSubgraph(ctx context.Context, videoURL string) (*model.VideoRecord, error) {
	var embedding model.Embedding
	var audioURL string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		emb, err := p.videoEmbedder.EmbedVideo(gctx, videoURL)
		if err != nil {
			return err
		}
		embedding = emb
		return nil
	})
	g.Go(func() error {
		url, err := p.extractor.ExtractAndUpload(gctx, videoURL)
		if err != nil {
			return err
		}
		audioURL = url
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rec := &model.VideoRecord{Embedding: &embedding}

	transcript, err := p.transcriber.Transcribe(ctx, audioURL)
	if err != nil {
		p.logger.Warn().Err(err).Str("video_url", videoURL).Msg("transcription failed, substituting empty transcript")
		transcript = ""
	}
	rec.Transcript = transcript
	if transcript == "" {
		return rec, nil
	}

	transcriptEmbedding, err := p.textEmbedder.EmbedText(ctx, transcript)
	if err != nil {
		return nil, err
	}
	rec.TranscriptEmbedding = &transcriptEmbedding
	return rec, nil
}
