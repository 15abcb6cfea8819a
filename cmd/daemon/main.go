// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mmsearch-dev/mmsearch/internal/adapters"
	"github.com/mmsearch-dev/mmsearch/internal/config"
	"github.com/mmsearch-dev/mmsearch/internal/enrichment"
	"github.com/mmsearch-dev/mmsearch/internal/health"
	"github.com/mmsearch-dev/mmsearch/internal/httpapi"
	"github.com/mmsearch-dev/mmsearch/internal/index"
	xglog "github.com/mmsearch-dev/mmsearch/internal/log"
	"github.com/mmsearch-dev/mmsearch/internal/search"
	"github.com/mmsearch-dev/mmsearch/internal/taskmanager"
	"github.com/mmsearch-dev/mmsearch/internal/taskstore"
	"github.com/mmsearch-dev/mmsearch/internal/telemetry"
	"github.com/mmsearch-dev/mmsearch/internal/worker"
)

var (
	version   = "v0.1.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "config" {
		os.Exit(runConfigCLI(os.Args[2:]))
	}
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		os.Exit(runHealthcheckCLI(os.Args[2:]))
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	xglog.Configure(xglog.Config{Level: "info", Service: "mmsearch", Version: version})
	logger := xglog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loader := config.NewLoader(strings.TrimSpace(*configPath), version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Fatal().Err(err).Str("event", "config.load_failed").Msg("failed to load configuration")
	}

	xglog.Configure(xglog.Config{Level: cfg.LogLevel, Service: "mmsearch", Version: version})
	logger.Info().Str("event", "config.loaded").Str("index_host", cfg.Index.Host).Msg("loaded configuration")

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        config.ParseBool("MMSEARCH_TRACING_ENABLED", false),
		ServiceName:    "mmsearch",
		ServiceVersion: version,
		Environment:    config.ParseString("MMSEARCH_ENVIRONMENT", "development"),
		ExporterType:   config.ParseString("MMSEARCH_TRACING_EXPORTER", "grpc"),
		Endpoint:       config.ParseString("MMSEARCH_TRACING_ENDPOINT", "localhost:4317"),
		SamplingRate:   config.ParseFloat("MMSEARCH_TRACING_SAMPLING_RATE", 1.0),
	})
	if err != nil {
		logger.Fatal().Err(err).Str("event", "telemetry.init_failed").Msg("failed to initialize tracing")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("telemetry shutdown failed")
		}
	}()

	store, err := taskstore.New(taskstore.Config{
		Host: cfg.TaskStore.Host, Port: cfg.TaskStore.Port,
		DB: cfg.TaskStore.DB, Password: cfg.TaskStore.Password,
	}, xglog.WithComponent("taskstore"))
	if err != nil {
		logger.Fatal().Err(err).Str("event", "taskstore.connect_failed").Msg("failed to connect to task store")
	}
	defer func() { _ = store.Close() }()

	engine, err := index.New(cfg.Index, xglog.WithComponent("index"))
	if err != nil {
		logger.Fatal().Err(err).Str("event", "index.connect_failed").Msg("failed to build index engine")
	}
	if err := engine.EnsureIndex(ctx); err != nil {
		logger.Fatal().Err(err).Str("event", "index.ensure_failed").Msg("failed to ensure index exists")
	}

	bundle, err := adapters.NewBundle(cfg.Adapters, xglog.WithComponent("adapters"))
	if err != nil {
		logger.Fatal().Err(err).Str("event", "adapters.build_failed").Msg("failed to build model adapters")
	}

	pipeline := enrichment.New(bundle, xglog.WithComponent("enrichment"))
	tasks := taskmanager.New(store, xglog.WithComponent("taskmanager"))
	facade := search.New(cfg.Index, cfg.Adapters, tasks, xglog.WithComponent("search"))

	loop := worker.New(tasks, pipeline, engine, cfg.Worker, cfg.Index, xglog.WithComponent("worker"))

	hm := health.NewManager(version)
	hm.RegisterChecker(health.NewTaskStoreChecker(store.Ping))
	hm.RegisterChecker(health.NewIndexEngineChecker(engine.Ping))
	hm.RegisterChecker(health.NewWorkerLivenessChecker(loop.LastCycle, 2*cfg.Worker.CheckInterval))

	server := httpapi.New(facade, hm, cfg.HTTP, nil, xglog.WithComponent("httpapi"))

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	workerErrCh := make(chan error, 1)
	go func() {
		workerErrCh <- loop.Run(ctx)
	}()

	go func() {
		logger.Info().Str("event", "startup").Str("addr", cfg.HTTP.Addr).Str("version", version).Msg("starting mmsearch")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Str("event", "http.serve_failed").Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	if err := <-workerErrCh; err != nil {
		logger.Error().Err(err).Msg("worker loop exited with error")
	}

	logger.Info().Msg("server exiting")
}
