package main

import (
	"log/slog"

	"reframe/internal/config"
	"reframe/internal/dlcache"
	"reframe/internal/queue"
	"reframe/internal/stages/download"
	"reframe/internal/stages/renderer"
	"reframe/internal/stages/upload"
	"reframe/internal/workflow"
)

func buildStages(cfg *config.Config, store *queue.Store, logger *slog.Logger, cache *dlcache.Manager) workflow.StageSet {
	return workflow.StageSet{
		Download: download.New(cfg, logger, cache),
		Render:   renderer.New(cfg, store, logger),
		Upload:   upload.New(cfg, logger),
	}
}
