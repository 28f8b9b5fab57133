// Command triaged runs the feedback triage daemon: it opens the store,
// wires the classification backend into the pipeline, and serves the HTTP
// API until interrupted.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"triage/internal/config"
	"triage/internal/daemon"
	"triage/internal/logging"
	"triage/internal/pipeline"
	"triage/internal/runner"
	"triage/internal/services/anthropic"
	"triage/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open store", logging.Error(err))
		return
	}
	defer st.Close()

	classifier := anthropic.NewClient(anthropic.FromAppConfig(cfg))
	p := pipeline.New(cfg, classifier, classifier, logger)
	processor := pipeline.NewProcessor(cfg, p, logger)
	r := runner.New(cfg, st, processor, logger)

	d, err := daemon.New(cfg, st, r, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("triaged shutting down")
	d.Stop()
}
