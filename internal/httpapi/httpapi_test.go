package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mmsearch-dev/mmsearch/internal/config"
	"github.com/mmsearch-dev/mmsearch/internal/health"
	"github.com/mmsearch-dev/mmsearch/internal/search"
	"github.com/mmsearch-dev/mmsearch/internal/taskmanager"
	"github.com/mmsearch-dev/mmsearch/internal/taskstore"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	es := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodHead:
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodPost && strings.Contains(r.URL.Path, "_search"):
			_, _ = w.Write([]byte(`{"hits":{"total":{"value":0},"hits":[{"_id":"doc-1","_score":1.1,"_source":{"text":"hello"}}]}}`))
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "_delete_by_query"):
			_, _ = w.Write([]byte(`{"deleted":0}`))
		default:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	t.Cleanup(es.Close)
	u, err := url.Parse(es.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	indexCfg := config.IndexConfig{
		Host: u.Hostname(), Port: port, Scheme: "http",
		IndexName: "mmsearch-documents", BatchSize: 100,
		VectorDims: config.VectorDims{Text: 8, Image: 8, Video: 8, ImageCaption: 8, VideoTranscript: 8},
	}

	vendor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"vector":[0.1,0.2],"caption":"a cat","transcript":"hello"}`))
	}))
	t.Cleanup(vendor.Close)
	promptPath := t.TempDir() + "/prompt.txt"
	require.NoError(t, os.WriteFile(promptPath, []byte("Describe this image."), 0o644))

	adapterCfg := config.AdapterConfig{Endpoint: vendor.URL}
	adaptersCfg := config.AdaptersConfig{
		TextEmbed:  adapterCfg,
		ImageEmbed: adapterCfg,
		VideoEmbed: adapterCfg,
		Caption:    config.AdapterConfig{Endpoint: vendor.URL, PromptFile: promptPath},
		Transcribe: adapterCfg,
		AudioExtractUpload: config.AdapterConfig{
			ObjectStore: config.ObjectStoreConfig{Bucket: "test-bucket"},
		},
	}

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := taskstore.NewWithClient(client, zerolog.Nop())
	tasks := taskmanager.New(store, zerolog.Nop())

	facade := search.New(indexCfg, adaptersCfg, tasks, zerolog.Nop())
	healthMgr := health.NewManager("test")

	return New(facade, healthMgr, config.HTTPConfig{}, nil, zerolog.Nop())
}

func TestHandleInsertSingleReturnsTaskID(t *testing.T) {
	srv := newTestServer(t)
	body, _ := json.Marshal(map[string]string{"text": "hello"})
	req := httptest.NewRequest(http.MethodPost, "/v1/items", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp insertSingleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.TaskID)
}

func TestHandleInsertSingleRejectsEmptyItem(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/items", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandleSearchReturnsHits(t *testing.T) {
	srv := newTestServer(t)
	body, _ := json.Marshal(map[string]any{"text": "hello", "top_k": 5})
	req := httptest.NewRequest(http.MethodPost, "/v1/search", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp searchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Hits, 1)
}

func TestHandleTaskStatusNotFound(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/tasks/nonexistent", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleStatisticsAfterInsert(t *testing.T) {
	srv := newTestServer(t)
	body, _ := json.Marshal(map[string]string{"text": "hello"})
	insertReq := httptest.NewRequest(http.MethodPost, "/v1/items", bytes.NewReader(body))
	insertRec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(insertRec, insertReq)
	require.Equal(t, http.StatusAccepted, insertRec.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/stats", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats struct {
		Total   int `json:"total"`
		Pending int `json:"pending"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	require.Equal(t, 1, stats.Total)
	require.Equal(t, 1, stats.Pending)
}

func TestHealthzIsReachable(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
