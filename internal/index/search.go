package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/mmsearch-dev/mmsearch/internal/apierr"
	"github.com/mmsearch-dev/mmsearch/internal/metrics"
	"github.com/mmsearch-dev/mmsearch/internal/model"
)

// Search executes a hybrid lexical/vector query: a disjunction of an
// optional multi_match text clause and one cosine-similarity clause per
// labeled embedding, per spec.md §4.3. Results are truncated to q.TopK.
func (e *Engine) Search(ctx context.Context, q model.Query) ([]model.SearchHit, error) {
	start := time.Now()
	if err := e.EnsureIndex(ctx); err != nil {
		return nil, err
	}

	var should []map[string]any

	if q.Text != "" {
		should = append(should, map[string]any{
			"multi_match": map[string]any{
				"query":  q.Text,
				"fields": []string{"text^2", "image_caption", "video_transcript"},
				"type":   "best_fields",
			},
		})
	}

	for _, emb := range q.Embeddings {
		field := MapLabel(emb.Label)
		should = append(should, map[string]any{
			"script_score": map[string]any{
				"query": map[string]any{"match_all": map[string]any{}},
				"script": map[string]any{
					"source": fmt.Sprintf("cosineSimilarity(params.query_vector, '%s') + 1.0", field),
					"params": map[string]any{"query_vector": emb.Vector},
				},
			},
		})
	}

	var query map[string]any
	switch len(should) {
	case 0:
		query = map[string]any{"match_all": map[string]any{}}
	case 1:
		query = should[0]
	default:
		query = map[string]any{
			"bool": map[string]any{
				"should":               should,
				"minimum_should_match": 1,
			},
		}
	}

	topK := q.TopK
	if topK <= 0 {
		topK = 10
	}

	body, err := json.Marshal(map[string]any{
		"query": query,
		"size":  topK,
	})
	if err != nil {
		return nil, apierr.Wrap(apierr.Service, "failed to encode search request", err)
	}

	req := esapi.SearchRequest{
		Index: []string{e.index},
		Body:  bytes.NewReader(body),
	}

	res, err := req.Do(ctx, e.client)
	if err != nil {
		metrics.ObserveIndexOp("search", err, time.Since(start))
		return nil, apierr.Wrap(apierr.Service, "search request failed", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		err := apierr.New(apierr.Service, fmt.Sprintf("search failed: %s", res.Status()))
		metrics.ObserveIndexOp("search", err, time.Since(start))
		return nil, err
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		metrics.ObserveIndexOp("search", err, time.Since(start))
		return nil, apierr.Wrap(apierr.Service, "failed to decode search response", err)
	}

	hits := make([]model.SearchHit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		hits = append(hits, model.SearchHit{
			DocumentID:      h.ID,
			Text:            h.Source.Text,
			ImageURL:        h.Source.ImageURL,
			VideoURL:        h.Source.VideoURL,
			ImageCaption:    h.Source.ImageCaption,
			VideoTranscript: h.Source.VideoTranscript,
			Score:           h.Score,
		})
	}
	if len(hits) > topK {
		hits = hits[:topK]
	}

	metrics.ObserveIndexOp("search", nil, time.Since(start))
	return hits, nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string  `json:"_id"`
			Score  float64 `json:"_score"`
			Source struct {
				Text            string `json:"text"`
				ImageURL        string `json:"image_url"`
				VideoURL        string `json:"video_url"`
				ImageCaption    string `json:"image_caption"`
				VideoTranscript string `json:"video_transcript"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}
