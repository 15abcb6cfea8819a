package index

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mmsearch-dev/mmsearch/internal/config"
	"github.com/mmsearch-dev/mmsearch/internal/model"
)

// fakeTransport answers Elasticsearch requests with canned responses keyed
// by a simple method+path match, so the Engine can be tested without a live
// cluster.
type fakeTransport struct {
	t *testing.T

	indexExists bool
	responses   map[string]fakeResponse
	requests    []*http.Request
}

type fakeResponse struct {
	status int
	body   string
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.requests = append(f.requests, req)

	key := req.Method + " " + req.URL.Path
	if req.Method == http.MethodHead {
		status := http.StatusNotFound
		if f.indexExists {
			status = http.StatusOK
		}
		return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader("")), Header: http.Header{}}, nil
	}

	if resp, ok := f.responses[key]; ok {
		return &http.Response{
			StatusCode: resp.status,
			Body:       io.NopCloser(strings.NewReader(resp.body)),
			Header:     http.Header{"Content-Type": []string{"application/json"}},
		}, nil
	}

	for pattern, resp := range f.responses {
		if strings.HasPrefix(key, pattern) {
			return &http.Response{
				StatusCode: resp.status,
				Body:       io.NopCloser(strings.NewReader(resp.body)),
				Header:     http.Header{"Content-Type": []string{"application/json"}},
			}, nil
		}
	}

	f.t.Fatalf("fakeTransport: no canned response for %s", key)
	return nil, nil
}

func newTestEngine(t *testing.T, ft *fakeTransport) *Engine {
	t.Helper()
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{"http://localhost:9200"},
		Transport: ft,
	})
	require.NoError(t, err)

	cfg := config.IndexConfig{
		IndexName: "mmsearch-documents",
		VectorDims: config.VectorDims{
			Text: 1024, Image: 1024, Video: 1024, ImageCaption: 1024, VideoTranscript: 1024,
		},
	}
	return &Engine{client: client, index: cfg.IndexName, cfg: cfg, logger: zerolog.Nop()}
}

func TestSearchBuildsHybridQuery(t *testing.T) {
	ft := &fakeTransport{t: t, indexExists: true, responses: map[string]fakeResponse{
		"POST /mmsearch-documents/_search": {status: 200, body: `{
			"hits": {"hits": [
				{"_id": "doc-1", "_score": 1.5, "_source": {"text": "a cat", "image_url": "http://img"}}
			]}
		}`},
	}}
	e := newTestEngine(t, ft)

	hits, err := e.Search(context.Background(), model.Query{
		Text:       "cat",
		Embeddings: []model.Embedding{{Label: "text_embedding", Vector: []float32{0.1, 0.2}}},
		TopK:       5,
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "doc-1", hits[0].DocumentID)

	require.NotEmpty(t, ft.requests)
	last := ft.requests[len(ft.requests)-1]
	var body map[string]any
	require.NoError(t, json.NewDecoder(last.Body).Decode(&body))
	boolClause, ok := body["query"].(map[string]any)["bool"].(map[string]any)
	require.True(t, ok, "expected a bool/should query for mixed text+embedding search")
	require.Equal(t, float64(1), boolClause["minimum_should_match"])
}

func TestInsertAssignsID(t *testing.T) {
	ft := &fakeTransport{t: t, indexExists: true, responses: map[string]fakeResponse{
		"PUT /mmsearch-documents/_doc/": {status: 201, body: `{"result": "created"}`},
	}}
	e := newTestEngine(t, ft)

	id, err := e.Insert(context.Background(), "a dog", "", "", model.EnrichmentRecord{})
	require.NoError(t, err)
	require.NotEmpty(t, id)
}

func TestBulkInsertCountsPartialFailures(t *testing.T) {
	ft := &fakeTransport{t: t, indexExists: true, responses: map[string]fakeResponse{
		"POST /_bulk": {status: 200, body: `{
			"errors": true,
			"items": [
				{"index": {"status": 201}},
				{"index": {"status": 409}}
			]
		}`},
	}}
	e := newTestEngine(t, ft)

	items := []BulkItem{
		{Text: "one"},
		{Text: "two"},
	}
	ids, failed, err := e.BulkInsert(context.Background(), items, 10, "wait_for")
	require.NoError(t, err)
	require.Equal(t, 1, failed)
	require.Len(t, ids, 1)
}

func TestListPaginates(t *testing.T) {
	ft := &fakeTransport{t: t, indexExists: true, responses: map[string]fakeResponse{
		"POST /mmsearch-documents/_search": {status: 200, body: `{
			"hits": {"total": {"value": 42}, "hits": [
				{"_id": "doc-9", "_score": 0, "_source": {"text": "x"}}
			]}
		}`},
	}}
	e := newTestEngine(t, ft)

	page, err := e.List(context.Background(), 2, 10)
	require.NoError(t, err)
	require.Equal(t, 42, page.Total)
	require.Len(t, page.Items, 1)

	last := ft.requests[len(ft.requests)-1]
	var body map[string]any
	require.NoError(t, json.NewDecoder(last.Body).Decode(&body))
	require.Equal(t, float64(10), body["from"])
	require.Equal(t, float64(10), body["size"])
}

func TestDeleteAllIssuesDeleteByQuery(t *testing.T) {
	ft := &fakeTransport{t: t, indexExists: true, responses: map[string]fakeResponse{
		"POST /mmsearch-documents/_delete_by_query": {status: 200, body: `{"deleted": 3}`},
	}}
	e := newTestEngine(t, ft)

	err := e.DeleteAll(context.Background())
	require.NoError(t, err)
}

func TestEnsureIndexCreatesSchemaOnce(t *testing.T) {
	ft := &fakeTransport{t: t, indexExists: false, responses: map[string]fakeResponse{
		"PUT /mmsearch-documents": {status: 200, body: `{"acknowledged": true}`},
	}}
	e := newTestEngine(t, ft)

	require.NoError(t, e.EnsureIndex(context.Background()))
	require.NoError(t, e.EnsureIndex(context.Background()))

	creates := 0
	for _, req := range ft.requests {
		if req.Method == http.MethodPut {
			creates++
		}
	}
	require.Equal(t, 1, creates, "index creation must happen exactly once")
}
