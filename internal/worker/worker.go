// Package worker implements the background dispatch loop (C6): a ticker
// sweeps the task manager for pending work and processes each record
// through enrichment and indexing, isolating per-task failures so one bad
// record never stalls the loop.
package worker

import (
	"context"
	"encoding/json"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mmsearch-dev/mmsearch/internal/apierr"
	"github.com/mmsearch-dev/mmsearch/internal/config"
	"github.com/mmsearch-dev/mmsearch/internal/enrichment"
	"github.com/mmsearch-dev/mmsearch/internal/index"
	"github.com/mmsearch-dev/mmsearch/internal/log"
	"github.com/mmsearch-dev/mmsearch/internal/metrics"
	"github.com/mmsearch-dev/mmsearch/internal/model"
	"github.com/mmsearch-dev/mmsearch/internal/taskmanager"
)

const defaultCheckInterval = 5 * time.Second

// Loop is the background dispatcher of spec.md §4.6: on every tick it
// lists pending tasks and processes each one concurrently, bounded by
// MaxConcurrentTasks.
type Loop struct {
	tasks    *taskmanager.Manager
	enricher *enrichment.Pipeline
	engine   *index.Engine
	cfg      config.WorkerConfig
	indexCfg config.IndexConfig
	logger   zerolog.Logger

	lastCycle atomic.Int64 // unix nanos of the last completed sweep
}

// New builds a Loop from its collaborators.
func New(tasks *taskmanager.Manager, enricher *enrichment.Pipeline, engine *index.Engine, cfg config.WorkerConfig, indexCfg config.IndexConfig, logger zerolog.Logger) *Loop {
	return &Loop{
		tasks:    tasks,
		enricher: enricher,
		engine:   engine,
		cfg:      cfg,
		indexCfg: indexCfg,
		logger:   logger,
	}
}

// Run blocks, sweeping for pending tasks at the configured interval, until
// ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	interval := l.cfg.CheckInterval
	if interval <= 0 {
		interval = defaultCheckInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	l.logger.Info().Dur("interval", interval).Msg("worker loop starting")

	for {
		select {
		case <-ctx.Done():
			l.logger.Info().Msg("worker loop stopping")
			return nil
		case <-ticker.C:
			l.sweep(ctx)
		}
	}
}

// sweep lists pending tasks and dispatches each concurrently, bounded by
// MaxConcurrentTasks (0 means unbounded). A per-task error is caught and
// recorded on the task itself; it never propagates out of the sweep.
func (l *Loop) sweep(ctx context.Context) {
	start := time.Now()
	defer func() {
		metrics.ObserveCycle(time.Since(start))
		l.lastCycle.Store(time.Now().UnixNano())
	}()

	pending, err := l.tasks.ListPending(ctx, nil)
	if err != nil {
		l.logger.Error().Err(err).Msg("failed to list pending tasks")
		return
	}
	metrics.SetQueueDepth(len(pending))
	if len(pending) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	if l.cfg.MaxConcurrentTasks > 0 {
		g.SetLimit(l.cfg.MaxConcurrentTasks)
	}

	for _, record := range pending {
		record := record
		metrics.RecordDispatch(string(record.Kind))
		g.Go(func() error {
			l.process(gctx, record)
			return nil
		})
	}

	// process() never returns an error; Wait only blocks until all
	// dispatched tasks finish.
	_ = g.Wait()
}

// process runs one task end to end: mark processing, dispatch on kind,
// mark completed or failed. Any error at the task level is caught here and
// recorded on the record rather than returned, per the loop's isolation
// contract.
func (l *Loop) process(ctx context.Context, record *model.TaskRecord) {
	ctx = log.ContextWithTaskID(ctx, record.ID)
	logger := log.WithComponentFromContext(ctx, "worker")

	if err := l.markProcessing(ctx, record.ID); err != nil {
		logger.Error().Err(err).Msg("failed to mark task processing")
		return
	}

	var result model.TaskResult
	var err error
	switch record.Kind {
	case model.TaskSingleInsert:
		result, err = l.processSingleInsert(ctx, record)
	case model.TaskBatchInsert:
		result, err = l.processBatchInsert(ctx, record)
	default:
		err = apierr.New(apierr.Validation, "unknown task kind")
	}

	if err != nil {
		logger.Error().Err(err).Msg("task failed")
		l.markFailed(ctx, record.ID, err)
		return
	}

	l.markCompleted(ctx, record.ID, result)
}

func (l *Loop) processSingleInsert(ctx context.Context, record *model.TaskRecord) (model.TaskResult, error) {
	var item model.RawItem
	if err := remarshal(record.Payload, &item); err != nil {
		return model.TaskResult{}, apierr.Wrap(apierr.Validation, "failed to decode task payload", err)
	}

	if err := l.update(ctx, record.ID, taskmanager.UpdateFields{
		Progress: floatPtr(10),
		Message:  strPtr("starting insertion"),
	}); err != nil {
		return model.TaskResult{}, err
	}

	rec, err := l.enricher.Enrich(ctx, item)
	if err != nil {
		return model.TaskResult{}, err
	}

	id, err := l.engine.Insert(ctx, item.Text, item.ImageURL, item.VideoURL, rec)
	if err != nil {
		return model.TaskResult{}, err
	}
	log.WithComponentFromContext(log.ContextWithDocumentID(ctx, id), "worker").Info().Msg("document indexed")

	return model.TaskResult{
		Inserted: 1,
		Data:     map[string]any{"document_id": id},
	}, nil
}

func (l *Loop) processBatchInsert(ctx context.Context, record *model.TaskRecord) (model.TaskResult, error) {
	var items []model.RawItem
	if err := remarshal(record.Payload, &items); err != nil {
		return model.TaskResult{}, apierr.Wrap(apierr.Validation, "failed to decode task payload", err)
	}

	logger := log.WithComponentFromContext(ctx, "worker")
	total := len(items)
	bulkItems := make([]index.BulkItem, 0, total)

	for i, item := range items {
		rec, err := l.enricher.Enrich(ctx, item)
		if err != nil {
			logger.Warn().Err(err).Int("item_index", i).Msg("batch item enrichment failed, skipping")
			continue
		}
		bulkItems = append(bulkItems, index.BulkItem{
			Text:     item.Text,
			ImageURL: item.ImageURL,
			VideoURL: item.VideoURL,
			Record:   rec,
		})

		progress := 10 + 80*float64(i+1)/float64(total)
		if err := l.update(ctx, record.ID, taskmanager.UpdateFields{
			Progress: floatPtr(progress),
			Message:  strPtr(progressMessage(i+1, total)),
		}); err != nil {
			logger.Error().Err(err).Msg("failed to update batch progress")
		}
	}

	enrichFailed := total - len(bulkItems)

	ids, insertFailed, err := l.engine.BulkInsert(ctx, bulkItems, l.indexCfg.BatchSize, l.indexCfg.RefreshPolicy)
	if err != nil {
		return model.TaskResult{}, err
	}

	inserted := len(ids)
	failed := enrichFailed + insertFailed
	successRate := 0.0
	if total > 0 {
		successRate = float64(inserted) / float64(total)
	}

	return model.TaskResult{
		Inserted:    inserted,
		Total:       total,
		SuccessRate: successRate,
		Data:        map[string]any{"failed": failed, "document_ids": ids},
	}, nil
}

func (l *Loop) markProcessing(ctx context.Context, id string) error {
	return l.update(ctx, id, taskmanager.UpdateFields{
		Status:   statusPtr(model.TaskProcessing),
		Progress: floatPtr(0),
		Message:  strPtr("processing"),
	})
}

func (l *Loop) markCompleted(ctx context.Context, id string, result model.TaskResult) {
	err := l.update(ctx, id, taskmanager.UpdateFields{
		Status:   statusPtr(model.TaskCompleted),
		Progress: floatPtr(100),
		Result:   &result,
	})
	if err != nil {
		log.WithComponentFromContext(ctx, "worker").Error().Err(err).Msg("failed to mark task completed")
	}
}

func (l *Loop) markFailed(ctx context.Context, id string, taskErr error) {
	err := l.update(ctx, id, taskmanager.UpdateFields{
		Status:  statusPtr(model.TaskFailed),
		Message: strPtr(taskErr.Error()),
	})
	if err != nil {
		log.WithComponentFromContext(ctx, "worker").Error().Err(err).Msg("failed to mark task failed")
	}
}

func (l *Loop) update(ctx context.Context, id string, fields taskmanager.UpdateFields) error {
	return l.tasks.Update(ctx, id, fields)
}

// LastCycle returns the time of the most recently completed sweep, or the
// zero time if the loop has not swept yet. Used by the worker liveness
// health checker.
func (l *Loop) LastCycle() time.Time {
	nanos := l.lastCycle.Load()
	if nanos == 0 {
		return time.Time{}
	}
	return time.Unix(0, nanos)
}

// remarshal decodes payload (typically a map[string]interface{} or
// []interface{} after its round trip through the task store's JSON
// encoding) into out via a JSON re-encode, since Go has no direct
// interface{}-to-struct cast.
func remarshal(payload any, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func progressMessage(done, total int) string {
	return "processed " + strconv.Itoa(done) + "/" + strconv.Itoa(total)
}

func floatPtr(f float64) *float64                    { return &f }
func strPtr(s string) *string                        { return &s }
func statusPtr(s model.TaskStatus) *model.TaskStatus { return &s }
