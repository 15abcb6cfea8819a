package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"

	"github.com/mmsearch-dev/mmsearch/internal/apierr"
	"github.com/mmsearch-dev/mmsearch/internal/metrics"
	"github.com/mmsearch-dev/mmsearch/internal/model"
)

// Insert writes one document with a fresh identifier, mapping every
// provided embedding into its index field per §4.3, then requests a
// refresh so the document is immediately searchable.
func (e *Engine) Insert(ctx context.Context, text, imageURL, videoURL string, rec model.EnrichmentRecord) (string, error) {
	start := time.Now()
	if err := e.EnsureIndex(ctx); err != nil {
		return "", err
	}

	doc := docFromRecord(text, imageURL, videoURL, rec)
	id := uuid.New().String()

	body, err := json.Marshal(doc)
	if err != nil {
		return "", apierr.Wrap(apierr.Service, "failed to encode document", err)
	}

	req := esapi.IndexRequest{
		Index:      e.index,
		DocumentID: id,
		Body:       bytes.NewReader(body),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, e.client)
	if err != nil {
		metrics.ObserveIndexOp("insert", err, time.Since(start))
		return "", apierr.Wrap(apierr.Service, "index request failed", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		err := apierr.New(apierr.Service, fmt.Sprintf("insert failed: %s", res.Status()))
		metrics.ObserveIndexOp("insert", err, time.Since(start))
		return "", err
	}

	metrics.ObserveIndexOp("insert", nil, time.Since(start))
	return id, nil
}

// BulkItem is one document submitted to BulkInsert.
type BulkItem struct {
	Text     string
	ImageURL string
	VideoURL string
	Record   model.EnrichmentRecord
}

// BulkInsert partitions items into chunks of batchSize and issues one bulk
// write per chunk, honoring refreshPolicy on each chunk. Returns the
// identifiers of the documents that indexed, in input order, and the count that failed to
// index (partial-failure semantics, per spec.md §4.6 batch-insert).
func (e *Engine) BulkInsert(ctx context.Context, items []BulkItem, batchSize int, refreshPolicy string) (ids []string, failed int, err error) {
	start := time.Now()
	if err := e.EnsureIndex(ctx); err != nil {
		return nil, 0, err
	}
	if batchSize <= 0 {
		batchSize = 100
	}

	ids = make([]string, 0, len(items))

	for i := 0; i < len(items); i += batchSize {
		end := i + batchSize
		if end > len(items) {
			end = len(items)
		}
		chunk := items[i:end]
		metrics.ObserveBulkChunkSize(len(chunk))

		var buf bytes.Buffer
		chunkIDs := make([]string, len(chunk))
		for j, item := range chunk {
			id := uuid.New().String()
			chunkIDs[j] = id

			meta := map[string]any{"index": map[string]any{"_index": e.index, "_id": id}}
			metaLine, mErr := json.Marshal(meta)
			if mErr != nil {
				return ids, failed, apierr.Wrap(apierr.Service, "failed to encode bulk action", mErr)
			}
			buf.Write(metaLine)
			buf.WriteByte('\n')

			doc := docFromRecord(item.Text, item.ImageURL, item.VideoURL, item.Record)
			docLine, dErr := json.Marshal(doc)
			if dErr != nil {
				return ids, failed, apierr.Wrap(apierr.Service, "failed to encode bulk document", dErr)
			}
			buf.Write(docLine)
			buf.WriteByte('\n')
		}

		req := esapi.BulkRequest{
			Body:    bytes.NewReader(buf.Bytes()),
			Refresh: normalizeRefreshPolicy(refreshPolicy),
		}

		res, reqErr := req.Do(ctx, e.client)
		if reqErr != nil {
			metrics.ObserveIndexOp("bulk_insert", reqErr, time.Since(start))
			return ids, failed + len(chunk), apierr.Wrap(apierr.Service, "bulk request failed", reqErr)
		}

		itemFailed, chunkFailed, parseErr := countBulkFailures(res.Body, len(chunk))
		res.Body.Close()
		if parseErr != nil {
			metrics.ObserveIndexOp("bulk_insert", parseErr, time.Since(start))
			return ids, failed + len(chunk), apierr.Wrap(apierr.Service, "failed to decode bulk response", parseErr)
		}

		failed += chunkFailed
		for j, id := range chunkIDs {
			if !itemFailed[j] {
				ids = append(ids, id)
			}
		}
	}

	metrics.ObserveIndexOp("bulk_insert", nil, time.Since(start))
	return ids, failed, nil
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []struct {
		Index struct {
			Status int `json:"status"`
		} `json:"index"`
	} `json:"items"`
}

func countBulkFailures(body io.Reader, expected int) ([]bool, int, error) {
	var parsed bulkResponse
	if err := json.NewDecoder(body).Decode(&parsed); err != nil {
		return nil, 0, err
	}
	itemFailed := make([]bool, expected)
	if !parsed.Errors {
		return itemFailed, 0, nil
	}
	failed := 0
	for j, item := range parsed.Items {
		if item.Index.Status >= 300 {
			failed++
			if j < expected {
				itemFailed[j] = true
			}
		}
	}
	return itemFailed, failed, nil
}

func docFromRecord(text, imageURL, videoURL string, rec model.EnrichmentRecord) map[string]any {
	doc := map[string]any{}
	if text != "" {
		doc["text"] = text
	}
	if imageURL != "" {
		doc["image_url"] = imageURL
	}
	if videoURL != "" {
		doc["video_url"] = videoURL
	}

	if rec.Text != nil {
		for _, emb := range rec.Text.Embeddings {
			doc[MapLabel(emb.Label)] = emb.Vector
		}
	}
	if rec.Image != nil {
		if rec.Image.Caption != "" {
			doc["image_caption"] = rec.Image.Caption
		}
		if rec.Image.Embedding != nil {
			doc[MapLabel(rec.Image.Embedding.Label)] = rec.Image.Embedding.Vector
		}
		if rec.Image.CaptionEmbedding != nil {
			doc[MapLabel(rec.Image.CaptionEmbedding.Label)] = rec.Image.CaptionEmbedding.Vector
		}
	}
	if rec.Video != nil {
		if rec.Video.Transcript != "" {
			doc["video_transcript"] = rec.Video.Transcript
		}
		if rec.Video.Embedding != nil {
			doc[MapLabel(rec.Video.Embedding.Label)] = rec.Video.Embedding.Vector
		}
		if rec.Video.TranscriptEmbedding != nil {
			doc[MapLabel(rec.Video.TranscriptEmbedding.Label)] = rec.Video.TranscriptEmbedding.Vector
		}
	}

	return doc
}

func normalizeRefreshPolicy(policy string) string {
	switch strings.ToLower(policy) {
	case "true", "false", "wait_for":
		return strings.ToLower(policy)
	default:
		return "wait_for"
	}
}
