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

// Page is one page of a paged listing, carrying the total document count
// across the whole index.
type Page struct {
	Total int
	Items []model.SearchHit
}

// List returns a match-all listing sorted by document id descending
// (newest-first intent), per spec.md §4.3.
func (e *Engine) List(ctx context.Context, page, pageSize int) (Page, error) {
	start := time.Now()
	if err := e.EnsureIndex(ctx); err != nil {
		return Page{}, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	body, err := json.Marshal(map[string]any{
		"query": map[string]any{"match_all": map[string]any{}},
		"from":  (page - 1) * pageSize,
		"size":  pageSize,
		"sort":  []map[string]any{{"_id": map[string]any{"order": "desc"}}},
	})
	if err != nil {
		return Page{}, apierr.Wrap(apierr.Service, "failed to encode list request", err)
	}

	req := esapi.SearchRequest{
		Index: []string{e.index},
		Body:  bytes.NewReader(body),
	}

	res, err := req.Do(ctx, e.client)
	if err != nil {
		metrics.ObserveIndexOp("list", err, time.Since(start))
		return Page{}, apierr.Wrap(apierr.Service, "list request failed", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		err := apierr.New(apierr.Service, fmt.Sprintf("list failed: %s", res.Status()))
		metrics.ObserveIndexOp("list", err, time.Since(start))
		return Page{}, err
	}

	var parsed listResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		metrics.ObserveIndexOp("list", err, time.Since(start))
		return Page{}, apierr.Wrap(apierr.Service, "failed to decode list response", err)
	}

	items := make([]model.SearchHit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		items = append(items, model.SearchHit{
			DocumentID:      h.ID,
			Text:            h.Source.Text,
			ImageURL:        h.Source.ImageURL,
			VideoURL:        h.Source.VideoURL,
			ImageCaption:    h.Source.ImageCaption,
			VideoTranscript: h.Source.VideoTranscript,
			Score:           h.Score,
		})
	}

	metrics.ObserveIndexOp("list", nil, time.Since(start))
	return Page{Total: parsed.Hits.Total.Value, Items: items}, nil
}

type listResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
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
