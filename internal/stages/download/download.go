// Package download implements the first pipeline stage: fetching the job's
// scene document into staging and validating it before any rendering starts.
package download

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reframe/internal/config"
	"reframe/internal/dlcache"
	"reframe/internal/fetch"
	"reframe/internal/fileutil"
	"reframe/internal/logging"
	"reframe/internal/queue"
	"reframe/internal/scenes"
	"reframe/internal/services"
	"reframe/internal/stage"
)

const stageName = "download"

// Handler fetches and validates scene documents.
type Handler struct {
	cfg    *config.Config
	logger *slog.Logger
	client *fetch.Client
	cache  *dlcache.Manager
}

// New builds the download stage handler. cache may be nil when the download
// cache is disabled.
func New(cfg *config.Config, logger *slog.Logger, cache *dlcache.Manager) *Handler {
	return &Handler{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, stageName),
		client: fetch.NewClient(60 * time.Second),
		cache:  cache,
	}
}

// SetLogger refreshes the handler's logging destination.
func (h *Handler) SetLogger(logger *slog.Logger) {
	h.logger = logging.NewComponentLogger(logger, stageName)
}

// Prepare resets job progress for the download stage.
func (h *Handler) Prepare(ctx context.Context, job *queue.Job) error {
	job.SetProgress("Downloading", "Fetching scene document", 0)
	logging.WithContext(ctx, h.logger).Debug("starting scene document download")
	return nil
}

// Execute downloads the scene document and validates it against the job's
// clip window.
func (h *Handler) Execute(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, h.logger)

	jobDir := filepath.Join(h.cfg.Paths.StagingDir, job.JobUUID)
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, stageName, "prepare staging", "create job directory", err)
	}
	dest := filepath.Join(jobDir, "scenes.json")

	if cached, ok := h.cache.Get(ctx, job.ScenesURL); ok {
		if err := fileutil.CopyFile(cached, dest); err != nil {
			return services.Wrap(services.ErrTransient, stageName, "restore cached document", "", err)
		}
		logger.Info("scene document served from cache", logging.String("scenes_url", job.ScenesURL))
	} else {
		if err := h.client.Download(ctx, job.ScenesURL, dest); err != nil {
			if fetch.NotFound(err) {
				return services.Wrap(services.ErrNotFound, stageName, "fetch scene document", "document not found", err)
			}
			return services.Wrap(services.ErrTransient, stageName, "fetch scene document", "", err)
		}
		if h.cache != nil {
			if _, err := h.cache.Put(ctx, job.ScenesURL, dest); err != nil {
				logger.Warn("failed to cache scene document", logging.Error(err))
			}
		}
	}

	list, err := scenes.Load(dest)
	if err != nil {
		return services.Wrap(services.ErrValidation, stageName, "parse scene document", "", err)
	}
	if windowed := scenes.Window(list, job.StartSeconds, job.EndSeconds); len(windowed) == 0 {
		detail := fmt.Sprintf("no scenes overlap window [%.3f, %.3f]", job.StartSeconds, job.EndSeconds)
		return services.Wrap(services.ErrValidation, stageName, "validate scene document", detail, nil)
	}

	job.ScenesFile = dest
	job.SetProgress("Downloading", "Scene document validated", 10)
	logger.Info("scene document ready",
		logging.String("scenes_file", dest),
		logging.Int("scene_count", len(list)),
	)
	return nil
}

// HealthCheck verifies the staging directory is configured and writable.
func (h *Handler) HealthCheck(ctx context.Context) stage.Health {
	if h.cfg == nil {
		return stage.Unhealthy(stageName, "configuration unavailable")
	}
	staging := strings.TrimSpace(h.cfg.Paths.StagingDir)
	if staging == "" {
		return stage.Unhealthy(stageName, "staging directory not configured")
	}
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return stage.Unhealthy(stageName, fmt.Sprintf("staging directory unavailable: %v", err))
	}
	return stage.Healthy(stageName)
}
