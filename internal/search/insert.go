package search

import (
	"context"
	"strconv"

	"github.com/mmsearch-dev/mmsearch/internal/model"
)

// InsertSingle validates item and creates a single-insert task, returning
// its id immediately. The item is enriched and indexed asynchronously by
// the worker loop.
func (f *Facade) InsertSingle(ctx context.Context, item model.RawItem) (string, error) {
	if !item.HasModality() {
		return "", validationErr("item must contain at least one of text, image_url, video_url")
	}
	id, err := f.tasks.Create(ctx, model.TaskSingleInsert, item)
	if err != nil {
		return "", normalize(err)
	}
	return id, nil
}

// InsertBatch validates every item and creates one batch-insert task,
// returning its id immediately.
func (f *Facade) InsertBatch(ctx context.Context, items []model.RawItem) (string, error) {
	if len(items) == 0 {
		return "", validationErr("batch must contain at least one item")
	}
	for i, item := range items {
		if !item.HasModality() {
			return "", validationErr("item " + strconv.Itoa(i) + " must contain at least one of text, image_url, video_url")
		}
	}
	id, err := f.tasks.Create(ctx, model.TaskBatchInsert, items)
	if err != nil {
		return "", normalize(err)
	}
	return id, nil
}
