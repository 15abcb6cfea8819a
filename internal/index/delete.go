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
)

// DeleteAll removes every document in the index via match-all
// delete-by-query and waits for the result to become visible. Used by test
// setup only, per spec.md §4.3.
func (e *Engine) DeleteAll(ctx context.Context) error {
	start := time.Now()
	if err := e.EnsureIndex(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(map[string]any{
		"query": map[string]any{"match_all": map[string]any{}},
	})
	if err != nil {
		return apierr.Wrap(apierr.Service, "failed to encode delete-all request", err)
	}

	req := esapi.DeleteByQueryRequest{
		Index:   []string{e.index},
		Body:    bytes.NewReader(body),
		Refresh: esapi.BoolPtr(true),
	}

	res, err := req.Do(ctx, e.client)
	if err != nil {
		metrics.ObserveIndexOp("delete_all", err, time.Since(start))
		return apierr.Wrap(apierr.Service, "delete-by-query request failed", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		err := apierr.New(apierr.Service, fmt.Sprintf("delete-all failed: %s", res.Status()))
		metrics.ObserveIndexOp("delete_all", err, time.Since(start))
		return err
	}

	metrics.ObserveIndexOp("delete_all", nil, time.Since(start))
	return nil
}
