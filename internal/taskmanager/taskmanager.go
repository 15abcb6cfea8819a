// Package taskmanager implements task lifecycle operations over the task
// store: create, status, update, list-pending, list-all, cleanup, and
// statistics, per spec.md §4.5. State transitions are validated by a
// generic finite-state machine so the monotonicity invariant
// (pending -> processing -> {completed, failed}) is enforced structurally.
package taskmanager

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mmsearch-dev/mmsearch/internal/apierr"
	"github.com/mmsearch-dev/mmsearch/internal/log"
	"github.com/mmsearch-dev/mmsearch/internal/metrics"
	"github.com/mmsearch-dev/mmsearch/internal/model"
	"github.com/mmsearch-dev/mmsearch/internal/taskstore"
)

type taskEvent string

const (
	eventProcess  taskEvent = "process"
	eventComplete taskEvent = "complete"
	eventFail     taskEvent = "fail"
)

var taskTransitions = []transition[model.TaskStatus, taskEvent]{
	{From: model.TaskPending, Event: eventProcess, To: model.TaskProcessing},
	{From: model.TaskProcessing, Event: eventComplete, To: model.TaskCompleted},
	{From: model.TaskProcessing, Event: eventFail, To: model.TaskFailed},
}

func eventFor(target model.TaskStatus) (taskEvent, bool) {
	switch target {
	case model.TaskProcessing:
		return eventProcess, true
	case model.TaskCompleted:
		return eventComplete, true
	case model.TaskFailed:
		return eventFail, true
	default:
		return "", false
	}
}

// Store is the subset of the task store contract the manager needs.
type Store interface {
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	SetAdd(ctx context.Context, setKey, member string) error
	SetRemove(ctx context.Context, setKey, member string) error
	SetMembers(ctx context.Context, setKey string) ([]string, error)
}

// Manager implements the task lifecycle operations of spec.md §4.5.
type Manager struct {
	store  Store
	logger zerolog.Logger
}

// New creates a Manager backed by store.
func New(store Store, logger zerolog.Logger) *Manager {
	return &Manager{store: store, logger: logger}
}

// Create generates a fresh task id, writes the initial pending record with
// TTL, and adds the id to the task index set.
func (m *Manager) Create(ctx context.Context, kind model.TaskKind, payload any) (string, error) {
	id := uuid.New().String()
	record := model.TaskRecord{
		ID:        id,
		Kind:      kind,
		Status:    model.TaskPending,
		Progress:  0,
		Message:   "created",
		CreatedAt: time.Now().UTC(),
		Payload:   payload,
	}

	if err := m.write(ctx, &record); err != nil {
		return "", err
	}
	if err := m.store.SetAdd(ctx, taskstore.TaskIndexKey, id); err != nil {
		return "", apierr.Wrap(apierr.Service, "failed to index task", err)
	}

	metrics.RecordTaskCreated(string(kind))
	log.AuditInfo(ctx, "task.created", "task created", map[string]any{
		"task_id": id,
		"kind":    kind,
	})

	return id, nil
}

// Status reads a task record by id. Returns apierr.NotFound if absent.
func (m *Manager) Status(ctx context.Context, id string) (*model.TaskRecord, error) {
	return m.read(ctx, id)
}

// UpdateFields carries the optional fields Update may merge into a record.
type UpdateFields struct {
	Status   *model.TaskStatus
	Progress *float64
	Message  *string
	Result   *model.TaskResult
}

// Update merges the provided fields into the task record identified by id,
// stamping started_at/completed_at on the relevant transitions, and
// rewrites the record with a fresh 24h TTL (taskstore.TaskTTL).
func (m *Manager) Update(ctx context.Context, id string, fields UpdateFields) error {
	record, err := m.read(ctx, id)
	if err != nil {
		return err
	}

	oldStatus := record.Status

	if fields.Status != nil && *fields.Status != record.Status {
		event, ok := eventFor(*fields.Status)
		if !ok {
			return apierr.New(apierr.Validation, fmt.Sprintf("unknown target status %q", *fields.Status))
		}
		fsm, err := newMachine(record.Status, taskTransitions)
		if err != nil {
			return apierr.Wrap(apierr.Service, "failed to build task state machine", err)
		}
		newStatus, err := fsm.fire(event)
		if err != nil {
			return apierr.Wrap(apierr.Validation, "invalid task status transition", err)
		}
		record.Status = newStatus
	}
	if fields.Progress != nil {
		record.Progress = *fields.Progress
	}
	if fields.Message != nil {
		record.Message = *fields.Message
	}
	if fields.Result != nil {
		record.Result = fields.Result
	}

	now := time.Now().UTC()
	if record.Status == model.TaskProcessing && record.StartedAt == nil {
		record.StartedAt = &now
	}
	if (record.Status == model.TaskCompleted || record.Status == model.TaskFailed) && record.CompletedAt == nil {
		record.CompletedAt = &now
	}

	if err := m.write(ctx, record); err != nil {
		return err
	}

	if oldStatus != record.Status {
		metrics.RecordTaskTransition(string(oldStatus), string(record.Status), string(record.Kind))
		logger := log.WithComponentFromContext(ctx, "taskmanager")
		logger.Info().
			Str(log.FieldTaskID, id).
			Str(log.FieldOldStatus, string(oldStatus)).
			Str(log.FieldNewStatus, string(record.Status)).
			Msg("task status transition")
	}

	return nil
}

// ListPending scans the task index, loads each record, and returns those
// with status=pending, optionally filtered by kind.
func (m *Manager) ListPending(ctx context.Context, kind *model.TaskKind) ([]*model.TaskRecord, error) {
	all, err := m.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*model.TaskRecord, 0, len(all))
	for _, r := range all {
		if r.Status != model.TaskPending {
			continue
		}
		if kind != nil && r.Kind != *kind {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// ListAll returns up to limit task records sorted by created_at descending.
func (m *Manager) ListAll(ctx context.Context, limit int) ([]*model.TaskRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	all, err := m.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// Cleanup deletes every indexed task that is in a terminal state and whose
// completed_at is older than maxAge, removing it from the task index set.
// Returns the number of records removed.
func (m *Manager) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	ids, err := m.store.SetMembers(ctx, taskstore.TaskIndexKey)
	if err != nil {
		return 0, apierr.Wrap(apierr.Service, "failed to list task index", err)
	}

	threshold := time.Now().UTC().Add(-maxAge)
	removed := 0

	for _, id := range ids {
		record, err := m.read(ctx, id)
		if err != nil {
			if kind, ok := apierr.As(err); ok && kind.Kind == apierr.NotFound {
				// Expired via TTL already; drop the stale index entry.
				_ = m.store.SetRemove(ctx, taskstore.TaskIndexKey, id)
				removed++
			}
			continue
		}

		terminal := record.Status == model.TaskCompleted || record.Status == model.TaskFailed
		if !terminal || record.CompletedAt == nil {
			continue
		}
		if record.CompletedAt.After(threshold) {
			continue
		}

		if err := m.store.Delete(ctx, taskstore.TaskKey(id)); err != nil {
			continue
		}
		if err := m.store.SetRemove(ctx, taskstore.TaskIndexKey, id); err != nil {
			continue
		}
		removed++
	}

	metrics.RecordTasksCleanedUp(removed)
	return removed, nil
}

// Statistics returns counts of tasks by status.
func (m *Manager) Statistics(ctx context.Context) (model.Statistics, error) {
	all, err := m.loadAll(ctx)
	if err != nil {
		return model.Statistics{}, err
	}

	stats := model.Statistics{Total: len(all)}
	for _, r := range all {
		switch r.Status {
		case model.TaskPending:
			stats.Pending++
		case model.TaskProcessing:
			stats.Processing++
		case model.TaskCompleted:
			stats.Completed++
		case model.TaskFailed:
			stats.Failed++
		}
	}
	return stats, nil
}

func (m *Manager) loadAll(ctx context.Context) ([]*model.TaskRecord, error) {
	ids, err := m.store.SetMembers(ctx, taskstore.TaskIndexKey)
	if err != nil {
		return nil, apierr.Wrap(apierr.Service, "failed to list task index", err)
	}

	out := make([]*model.TaskRecord, 0, len(ids))
	for _, id := range ids {
		record, err := m.read(ctx, id)
		if err != nil {
			if kind, ok := apierr.As(err); ok && kind.Kind == apierr.NotFound {
				continue
			}
			return nil, err
		}
		out = append(out, record)
	}
	return out, nil
}

func (m *Manager) read(ctx context.Context, id string) (*model.TaskRecord, error) {
	raw, err := m.store.Get(ctx, taskstore.TaskKey(id))
	if err != nil {
		if err == taskstore.ErrNotFound {
			return nil, apierr.New(apierr.NotFound, fmt.Sprintf("task %s not found", id))
		}
		return nil, apierr.Wrap(apierr.Service, "failed to read task", err)
	}

	var record model.TaskRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, apierr.Wrap(apierr.Service, "failed to decode task record", err)
	}
	return &record, nil
}

func (m *Manager) write(ctx context.Context, record *model.TaskRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return apierr.Wrap(apierr.Service, "failed to encode task record", err)
	}
	if err := m.store.Put(ctx, taskstore.TaskKey(record.ID), data, taskstore.TaskTTL); err != nil {
		return apierr.Wrap(apierr.Service, "failed to write task record", err)
	}
	return nil
}
