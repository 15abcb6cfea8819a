package search

import (
	"context"
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

	"github.com/mmsearch-dev/mmsearch/internal/apierr"
	"github.com/mmsearch-dev/mmsearch/internal/config"
	"github.com/mmsearch-dev/mmsearch/internal/model"
	"github.com/mmsearch-dev/mmsearch/internal/taskmanager"
	"github.com/mmsearch-dev/mmsearch/internal/taskstore"
)

func newTestFacade(t *testing.T, esHandler http.HandlerFunc) *Facade {
	t.Helper()

	srv := httptest.NewServer(esHandler)
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	indexCfg := config.IndexConfig{
		Host:      u.Hostname(),
		Port:      port,
		Scheme:    "http",
		IndexName: "mmsearch-documents",
		BatchSize: 100,
		VectorDims: config.VectorDims{
			Text: 1024, Image: 1024, Video: 1024, ImageCaption: 1024, VideoTranscript: 1024,
		},
	}

	// One vendor stub serves every model adapter kind: each adapter type
	// only reads the response field it cares about (vector/caption/
	// transcript), so a single combined body satisfies all of them.
	vendor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"vector":[0.1,0.2,0.3],"caption":"a cat","transcript":"hello"}`))
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

	return New(indexCfg, adaptersCfg, tasks, zerolog.Nop())
}

func alwaysOKHandler(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodHead:
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPost && strings.Contains(r.URL.Path, "_search"):
		_, _ = w.Write([]byte(`{"hits":{"hits":[{"_id":"doc-1","_score":1.2,"_source":{"text":"hello"}}]}}`))
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "_delete_by_query"):
		_, _ = w.Write([]byte(`{"deleted":0}`))
	default:
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}
}

func TestSearchRejectsEmptyItem(t *testing.T) {
	f := newTestFacade(t, alwaysOKHandler)
	_, err := f.Search(context.Background(), model.RawItem{}, 5)
	apiErr, ok := apierr.As(err)
	require.True(t, ok)
	require.Equal(t, apierr.Validation, apiErr.Kind)
}

func TestSearchRejectsTopKOutOfRange(t *testing.T) {
	f := newTestFacade(t, alwaysOKHandler)
	_, err := f.Search(context.Background(), model.RawItem{Text: "hello"}, 0)
	apiErr, ok := apierr.As(err)
	require.True(t, ok)
	require.Equal(t, apierr.Validation, apiErr.Kind)

	_, err = f.Search(context.Background(), model.RawItem{Text: "hello"}, 101)
	apiErr, ok = apierr.As(err)
	require.True(t, ok)
	require.Equal(t, apierr.Validation, apiErr.Kind)
}

func TestSearchRunsTextOnlyQuery(t *testing.T) {
	var gotBody map[string]any
	f := newTestFacade(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && strings.Contains(r.URL.Path, "_search") {
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			_, _ = w.Write([]byte(`{"hits":{"hits":[{"_id":"doc-1","_score":1.2,"_source":{"text":"hello"}}]}}`))
			return
		}
		alwaysOKHandler(w, r)
	})

	hits, err := f.Search(context.Background(), model.RawItem{Text: "hello"}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "doc-1", hits[0].DocumentID)
	require.Equal(t, float64(5), gotBody["size"])
}

func TestInsertSingleRejectsEmptyItem(t *testing.T) {
	f := newTestFacade(t, alwaysOKHandler)
	_, err := f.InsertSingle(context.Background(), model.RawItem{})
	apiErr, ok := apierr.As(err)
	require.True(t, ok)
	require.Equal(t, apierr.Validation, apiErr.Kind)
}

func TestInsertSingleCreatesPendingTask(t *testing.T) {
	f := newTestFacade(t, alwaysOKHandler)
	id, err := f.InsertSingle(context.Background(), model.RawItem{Text: "hello"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	record, err := f.TaskStatus(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, model.TaskPending, record.Status)
	require.Equal(t, model.TaskSingleInsert, record.Kind)
}

func TestInsertBatchRejectsEmptyList(t *testing.T) {
	f := newTestFacade(t, alwaysOKHandler)
	_, err := f.InsertBatch(context.Background(), nil)
	apiErr, ok := apierr.As(err)
	require.True(t, ok)
	require.Equal(t, apierr.Validation, apiErr.Kind)
}

func TestInsertBatchRejectsItemWithoutModality(t *testing.T) {
	f := newTestFacade(t, alwaysOKHandler)
	_, err := f.InsertBatch(context.Background(), []model.RawItem{{Text: "ok"}, {}})
	apiErr, ok := apierr.As(err)
	require.True(t, ok)
	require.Equal(t, apierr.Validation, apiErr.Kind)
}

func TestTaskStatusNotFound(t *testing.T) {
	f := newTestFacade(t, alwaysOKHandler)
	_, err := f.TaskStatus(context.Background(), "nonexistent")
	apiErr, ok := apierr.As(err)
	require.True(t, ok)
	require.Equal(t, apierr.NotFound, apiErr.Kind)
}

func TestStatisticsCountsCreatedTasks(t *testing.T) {
	f := newTestFacade(t, alwaysOKHandler)
	_, err := f.InsertSingle(context.Background(), model.RawItem{Text: "a"})
	require.NoError(t, err)
	_, err = f.InsertSingle(context.Background(), model.RawItem{Text: "b"})
	require.NoError(t, err)

	stats, err := f.Statistics(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, stats.Total)
	require.Equal(t, 2, stats.Pending)
}

func TestDeleteAll(t *testing.T) {
	f := newTestFacade(t, alwaysOKHandler)
	require.NoError(t, f.DeleteAll(context.Background()))
}

func TestListReturnsPage(t *testing.T) {
	f := newTestFacade(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && strings.Contains(r.URL.Path, "_search") {
			_, _ = w.Write([]byte(`{"hits":{"total":{"value":1},"hits":[{"_id":"doc-1","_score":0,"_source":{"text":"x"}}]}}`))
			return
		}
		alwaysOKHandler(w, r)
	})

	page, err := f.List(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	require.Len(t, page.Items, 1)
}
