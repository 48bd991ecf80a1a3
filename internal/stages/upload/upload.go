// Package upload implements the final pipeline stage: pushing the rendered
// clip to its blob storage destination and cleaning up staging.
package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"reframe/internal/config"
	"reframe/internal/fileutil"
	"reframe/internal/logging"
	"reframe/internal/queue"
	"reframe/internal/services"
	"reframe/internal/stage"
	"reframe/internal/storage/azureblob"
)

const stageName = "upload"

// blobUploader abstracts the storage client so tests can substitute it.
type blobUploader interface {
	Upload(ctx context.Context, destinationURL, localPath string) error
}

// Handler uploads rendered clips.
type Handler struct {
	cfg      *config.Config
	logger   *slog.Logger
	uploader blobUploader
}

// New builds the upload stage handler.
func New(cfg *config.Config, logger *slog.Logger) *Handler {
	return &Handler{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, stageName),
		uploader: azureblob.NewUploader(cfg, logger),
	}
}

// SetLogger refreshes the handler's logging destination.
func (h *Handler) SetLogger(logger *slog.Logger) {
	h.logger = logging.NewComponentLogger(logger, stageName)
}

// Prepare resets job progress for the upload stage.
func (h *Handler) Prepare(ctx context.Context, job *queue.Job) error {
	job.SetProgress("Uploading", "Uploading rendered clip", 90)
	logging.WithContext(ctx, h.logger).Debug("starting clip upload")
	return nil
}

// Execute uploads the rendered file, marks the job completed, and removes the
// job's staging directory.
func (h *Handler) Execute(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, h.logger)

	rendered := strings.TrimSpace(job.RenderedFile)
	if rendered == "" {
		return services.Wrap(services.ErrValidation, stageName, "inspect job", "rendered file missing; render stage incomplete", nil)
	}
	size, err := fileutil.FileSize(rendered)
	if err != nil {
		return services.Wrap(services.ErrValidation, stageName, "inspect rendered file", "", err)
	}
	if size == 0 {
		return services.Wrap(services.ErrValidation, stageName, "inspect rendered file", "rendered file is empty", nil)
	}

	if _, err := azureblob.ParseDestination(job.DestinationURL); err != nil {
		return services.Wrap(services.ErrValidation, stageName, "parse destination", "", err)
	}

	if err := h.uploader.Upload(ctx, job.DestinationURL, rendered); err != nil {
		if errors.Is(err, azureblob.ErrNoCredentials) {
			return services.Wrap(services.ErrConfiguration, stageName, "upload clip", "storage credentials unavailable", err)
		}
		return services.Wrap(services.ErrTransient, stageName, "upload clip", "", err)
	}

	job.Status = queue.StatusCompleted
	job.SetProgress("Completed", "Export uploaded", 100)
	logger.Info("clip uploaded",
		logging.String("destination_url", job.DestinationURL),
		logging.Int64("size_bytes", size),
	)

	jobDir := filepath.Join(h.cfg.Paths.StagingDir, job.JobUUID)
	if err := os.RemoveAll(jobDir); err != nil {
		logger.Warn("failed to clean staging directory", logging.Error(err))
	}
	return nil
}

// HealthCheck verifies upload credentials are present in the environment.
func (h *Handler) HealthCheck(ctx context.Context) stage.Health {
	if h.cfg == nil {
		return stage.Unhealthy(stageName, "configuration unavailable")
	}
	env := strings.TrimSpace(h.cfg.Azure.ConnectionStringEnv)
	if env == "" {
		return stage.Unhealthy(stageName, "connection string env var not configured")
	}
	if strings.TrimSpace(os.Getenv(env)) == "" {
		return stage.Unhealthy(stageName, fmt.Sprintf("storage credentials not set (env %s)", env))
	}
	return stage.Healthy(stageName)
}
