package taskmanager

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mmsearch-dev/mmsearch/internal/apierr"
	"github.com/mmsearch-dev/mmsearch/internal/model"
	"github.com/mmsearch-dev/mmsearch/internal/taskstore"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := taskstore.NewWithClient(client, zerolog.Nop())
	return New(store, zerolog.Nop())
}

func ptrStatus(s model.TaskStatus) *model.TaskStatus { return &s }
func ptrFloat(f float64) *float64                    { return &f }
func ptrString(s string) *string                     { return &s }

func TestCreateAndStatus(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	id, err := m.Create(ctx, model.TaskSingleInsert, model.RawItem{Text: "hello"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	record, err := m.Status(ctx, id)
	require.NoError(t, err)
	require.Equal(t, model.TaskPending, record.Status)
	require.Equal(t, 0.0, record.Progress)
	require.False(t, record.CreatedAt.IsZero())
}

func TestStatusNotFound(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Status(context.Background(), "nonexistent")
	apiErr, ok := apierr.As(err)
	require.True(t, ok)
	require.Equal(t, apierr.NotFound, apiErr.Kind)
}

func TestUpdateTransitionsAreMonotone(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	id, err := m.Create(ctx, model.TaskSingleInsert, nil)
	require.NoError(t, err)

	require.NoError(t, m.Update(ctx, id, UpdateFields{
		Status:  ptrStatus(model.TaskProcessing),
		Message: ptrString("processing"),
	}))

	record, err := m.Status(ctx, id)
	require.NoError(t, err)
	require.Equal(t, model.TaskProcessing, record.Status)
	require.NotNil(t, record.StartedAt)
	require.Nil(t, record.CompletedAt)

	require.NoError(t, m.Update(ctx, id, UpdateFields{
		Status:   ptrStatus(model.TaskCompleted),
		Progress: ptrFloat(100),
		Result:   &model.TaskResult{Inserted: 1},
	}))

	record, err = m.Status(ctx, id)
	require.NoError(t, err)
	require.Equal(t, model.TaskCompleted, record.Status)
	require.NotNil(t, record.CompletedAt)
	require.True(t, record.CompletedAt.After(*record.StartedAt) || record.CompletedAt.Equal(*record.StartedAt))
	require.Equal(t, 1, record.Result.Inserted)
}

func TestUpdateRejectsSkippingProcessing(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	id, err := m.Create(ctx, model.TaskSingleInsert, nil)
	require.NoError(t, err)

	err = m.Update(ctx, id, UpdateFields{Status: ptrStatus(model.TaskCompleted)})
	require.Error(t, err)
	apiErr, ok := apierr.As(err)
	require.True(t, ok)
	require.Equal(t, apierr.Validation, apiErr.Kind)
}

func TestListPendingFiltersByKind(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	singleID, err := m.Create(ctx, model.TaskSingleInsert, nil)
	require.NoError(t, err)
	batchID, err := m.Create(ctx, model.TaskBatchInsert, nil)
	require.NoError(t, err)

	pending, err := m.ListPending(ctx, nil)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	kind := model.TaskBatchInsert
	filtered, err := m.ListPending(ctx, &kind)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	require.Equal(t, batchID, filtered[0].ID)
	_ = singleID
}

func TestListAllSortedByCreatedAtDescending(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	id1, err := m.Create(ctx, model.TaskSingleInsert, nil)
	require.NoError(t, err)

	r1, err := m.Status(ctx, id1)
	require.NoError(t, err)
	r1.CreatedAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, m.write(ctx, r1))

	id2, err := m.Create(ctx, model.TaskSingleInsert, nil)
	require.NoError(t, err)

	all, err := m.ListAll(ctx, 100)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, id2, all[0].ID)
	require.Equal(t, id1, all[1].ID)
}

func TestStatistics(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	const n = 5
	for i := 0; i < n; i++ {
		_, err := m.Create(ctx, model.TaskSingleInsert, nil)
		require.NoError(t, err)
	}

	stats, err := m.Statistics(ctx)
	require.NoError(t, err)
	require.Equal(t, n, stats.Total)
	require.Equal(t, n, stats.Pending)
}

func TestCleanupRemovesOldTerminalTasks(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	id, err := m.Create(ctx, model.TaskSingleInsert, nil)
	require.NoError(t, err)
	require.NoError(t, m.Update(ctx, id, UpdateFields{Status: ptrStatus(model.TaskProcessing)}))
	require.NoError(t, m.Update(ctx, id, UpdateFields{Status: ptrStatus(model.TaskCompleted)}))

	record, err := m.Status(ctx, id)
	require.NoError(t, err)
	old := record.CompletedAt.Add(-48 * time.Hour)
	record.CompletedAt = &old
	require.NoError(t, m.write(ctx, record))

	removed, err := m.Cleanup(ctx, 24*time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	_, err = m.Status(ctx, id)
	require.Error(t, err)
}

func TestCleanupTwiceSecondRemovesZero(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	removed, err := m.Cleanup(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, 0, removed)

	removed, err = m.Cleanup(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, 0, removed)
}
