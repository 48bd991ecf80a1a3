package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"reframe/internal/config"
	"reframe/internal/daemon"
	"reframe/internal/dlcache"
	"reframe/internal/logging"
	"reframe/internal/notifications"
	"reframe/internal/queue"
	"reframe/internal/workflow"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	logging.CleanupOldLogs(cfg.Paths.LogDir, cfg.Logging.RetentionDays, logger)

	store, err := queue.Open(ctx, cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return
	}

	cache, err := dlcache.NewManager(cfg, logger)
	if err != nil {
		logger.Warn("download cache disabled", logging.Error(err))
	}
	defer cache.Close()

	notifier := notifications.NewService(cfg)
	manager := workflow.NewManagerWithNotifier(cfg, store, logger, notifier)
	manager.ConfigureStages(buildStages(cfg, store, logger, cache))

	d, err := daemon.New(cfg, store, logger, manager, notifier)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("reframed shutting down")
}
