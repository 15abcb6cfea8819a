package search

import (
	"context"

	"github.com/mmsearch-dev/mmsearch/internal/index"
	"github.com/mmsearch-dev/mmsearch/internal/model"
)

// Search validates the query item, runs it through the enrichment pipeline
// to obtain query embeddings, and executes a hybrid search over the index.
func (f *Facade) Search(ctx context.Context, item model.RawItem, topK int) ([]model.SearchHit, error) {
	if !item.HasModality() {
		return nil, validationErr("query must contain at least one of text, image_url, video_url")
	}
	topK, err := clampTopK(topK)
	if err != nil {
		return nil, err
	}

	if err := f.ensureInit(); err != nil {
		return nil, normalize(err)
	}

	rec, err := f.enricher.Enrich(ctx, item)
	if err != nil {
		return nil, normalize(err)
	}

	query := model.Query{
		Text:       item.Text,
		Embeddings: collectEmbeddings(rec),
		TopK:       topK,
	}

	hits, err := f.engine.Search(ctx, query)
	if err != nil {
		return nil, normalize(err)
	}
	return hits, nil
}

// List returns a page of indexed documents.
func (f *Facade) List(ctx context.Context, page, pageSize int) (index.Page, error) {
	if err := f.ensureInit(); err != nil {
		return index.Page{}, normalize(err)
	}
	result, err := f.engine.List(ctx, page, pageSize)
	if err != nil {
		return index.Page{}, normalize(err)
	}
	return result, nil
}

// DeleteAll removes every document from the index.
func (f *Facade) DeleteAll(ctx context.Context) error {
	if err := f.ensureInit(); err != nil {
		return normalize(err)
	}
	return normalize(f.engine.DeleteAll(ctx))
}

func collectEmbeddings(rec model.EnrichmentRecord) []model.Embedding {
	var embeddings []model.Embedding
	if rec.Text != nil {
		embeddings = append(embeddings, rec.Text.Embeddings...)
	}
	if rec.Image != nil {
		if rec.Image.Embedding != nil {
			embeddings = append(embeddings, *rec.Image.Embedding)
		}
		if rec.Image.CaptionEmbedding != nil {
			embeddings = append(embeddings, *rec.Image.CaptionEmbedding)
		}
	}
	if rec.Video != nil {
		if rec.Video.Embedding != nil {
			embeddings = append(embeddings, *rec.Video.Embedding)
		}
		if rec.Video.TranscriptEmbedding != nil {
			embeddings = append(embeddings, *rec.Video.TranscriptEmbedding)
		}
	}
	return embeddings
}
