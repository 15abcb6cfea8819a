package search

import (
	"context"

	"github.com/mmsearch-dev/mmsearch/internal/model"
)

// TaskStatus returns the current record for a task id.
func (f *Facade) TaskStatus(ctx context.Context, id string) (*model.TaskRecord, error) {
	record, err := f.tasks.Status(ctx, id)
	if err != nil {
		return nil, normalize(err)
	}
	return record, nil
}

// Statistics returns task counts by status.
func (f *Facade) Statistics(ctx context.Context) (model.Statistics, error) {
	stats, err := f.tasks.Statistics(ctx)
	if err != nil {
		return model.Statistics{}, normalize(err)
	}
	return stats, nil
}
