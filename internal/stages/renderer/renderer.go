// Package renderer implements the pipeline stage that turns a downloaded
// scene document into a finished vertical clip.
package renderer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"reframe/internal/config"
	"reframe/internal/deps"
	"reframe/internal/logging"
	"reframe/internal/queue"
	"reframe/internal/render"
	"reframe/internal/services"
	"reframe/internal/stage"
)

const stageName = "render"

// clipExporter abstracts the render pipeline so tests can substitute it.
type clipExporter interface {
	Export(ctx context.Context, req render.Request, progress render.ProgressFunc) (string, error)
}

// progressStore is the slice of queue.Store the renderer persists progress to.
type progressStore interface {
	UpdateProgress(ctx context.Context, job *queue.Job) error
}

// Handler renders claimed jobs.
type Handler struct {
	cfg      *config.Config
	store    progressStore
	logger   *slog.Logger
	exporter clipExporter
}

// New builds the render stage handler.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Handler {
	return &Handler{
		cfg:      cfg,
		store:    store,
		logger:   logging.NewComponentLogger(logger, stageName),
		exporter: render.NewExporter(cfg, logger),
	}
}

// SetLogger refreshes the handler's logging destination.
func (h *Handler) SetLogger(logger *slog.Logger) {
	h.logger = logging.NewComponentLogger(logger, stageName)
}

// Prepare resets job progress for the render stage.
func (h *Handler) Prepare(ctx context.Context, job *queue.Job) error {
	job.SetProgress("Rendering", "Starting clip render", 10)
	logging.WithContext(ctx, h.logger).Debug("starting clip render")
	return nil
}

// Execute runs the export pipeline for the job and records the rendered file.
func (h *Handler) Execute(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, h.logger)

	if strings.TrimSpace(job.ScenesFile) == "" {
		return services.Wrap(services.ErrValidation, stageName, "inspect job", "scenes file missing; download stage incomplete", nil)
	}

	workDir := filepath.Join(h.cfg.Paths.StagingDir, job.JobUUID, "render")
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, stageName, "prepare staging", "create render directory", err)
	}

	progress := func(percent float64, message string) {
		job.SetProgress("Rendering", message, percent)
		if err := h.store.UpdateProgress(ctx, job); err != nil {
			logger.Debug("failed to persist render progress", logging.Error(err))
		}
	}

	output, err := h.exporter.Export(ctx, render.Request{
		VideoURL:         job.VideoURL,
		ScenesPath:       job.ScenesFile,
		StartSeconds:     job.StartSeconds,
		EndSeconds:       job.EndSeconds,
		SubtitlesPayload: job.SubtitlesPayload(),
		AspectRatio:      job.AspectRatio,
		WorkDir:          workDir,
	}, progress)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, stageName, "export clip", "", err)
	}

	job.RenderedFile = output
	logger.Info("clip rendered", logging.String("rendered_file", output))
	return nil
}

// HealthCheck verifies the external render tooling is available.
func (h *Handler) HealthCheck(ctx context.Context) stage.Health {
	if h.cfg == nil {
		return stage.Unhealthy(stageName, "configuration unavailable")
	}
	statuses := deps.CheckBinaries(deps.Requirements(h.cfg))
	if missing := deps.MissingRequired(statuses); len(missing) > 0 {
		return stage.Unhealthy(stageName, fmt.Sprintf("missing binaries: %s", strings.Join(missing, ", ")))
	}
	return stage.Healthy(stageName)
}
