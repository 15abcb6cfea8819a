// Package search implements the search service facade (C7): the single
// entry point query and insert intents pass through, driving the
// enrichment pipeline and index engine and normalizing their errors into
// the shared taxonomy.
package search

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/mmsearch-dev/mmsearch/internal/adapters"
	"github.com/mmsearch-dev/mmsearch/internal/config"
	"github.com/mmsearch-dev/mmsearch/internal/enrichment"
	"github.com/mmsearch-dev/mmsearch/internal/index"
	"github.com/mmsearch-dev/mmsearch/internal/taskmanager"
)

const (
	minTopK = 1
	maxTopK = 100
)

// Facade is the glue component of spec.md §4.7: it validates query/insert
// intents, lazily constructs the Index Engine and Enrichment Pipeline on
// first use, and normalizes every error into internal/apierr's taxonomy.
type Facade struct {
	indexCfg    config.IndexConfig
	adaptersCfg config.AdaptersConfig
	tasks       *taskmanager.Manager
	logger      zerolog.Logger

	once     sync.Once
	initErr  error
	engine   *index.Engine
	enricher *enrichment.Pipeline
}

// New builds a Facade. The Index Engine and Enrichment Pipeline are not
// constructed until the first operation that needs them runs.
func New(indexCfg config.IndexConfig, adaptersCfg config.AdaptersConfig, tasks *taskmanager.Manager, logger zerolog.Logger) *Facade {
	return &Facade{
		indexCfg:    indexCfg,
		adaptersCfg: adaptersCfg,
		tasks:       tasks,
		logger:      logger,
	}
}

// ensureInit lazily builds the Index Engine and Enrichment Pipeline
// exactly once, mirroring the teacher's ensureInitialized() idiom in
// internal/log/logger.go.
func (f *Facade) ensureInit() error {
	f.once.Do(func() {
		engine, err := index.New(f.indexCfg, f.logger)
		if err != nil {
			f.initErr = err
			return
		}
		bundle, err := adapters.NewBundle(f.adaptersCfg, f.logger)
		if err != nil {
			f.initErr = err
			return
		}
		f.engine = engine
		f.enricher = enrichment.New(bundle, f.logger)
	})
	return f.initErr
}

func clampTopK(topK int) (int, error) {
	if topK < minTopK || topK > maxTopK {
		return 0, validationErr("top_k must be between 1 and 100")
	}
	return topK, nil
}
