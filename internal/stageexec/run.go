// Package stageexec runs a single pipeline stage against a queue job outside
// the daemon's lane loop. The CLI uses it for local one-shot exports.
package stageexec

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"reframe/internal/logging"
	"reframe/internal/notifications"
	"reframe/internal/queue"
	"reframe/internal/services"
	"reframe/internal/stage"
)

// Handler is the stage contract used by the execution helper.
type Handler interface {
	Prepare(context.Context, *queue.Job) error
	Execute(context.Context, *queue.Job) error
}

// Options controls stage execution and queue persistence behavior.
type Options struct {
	Logger     *slog.Logger
	Store      *queue.Store
	Notifier   notifications.Service
	Handler    Handler
	StageName  string
	Processing queue.Status
	Done       queue.Status
	Job        *queue.Job
}

// Run executes a stage and applies queue transition semantics used by
// one-shot workflows.
func Run(ctx context.Context, opts Options) error {
	if opts.Handler == nil {
		return fmt.Errorf("stage handler unavailable: %s", opts.StageName)
	}
	if opts.Store == nil {
		return fmt.Errorf("queue store is required")
	}
	if opts.Job == nil {
		return fmt.Errorf("queue job is required")
	}

	stageCtx := logging.WithStage(services.WithJobID(ctx, opts.Job.ID), opts.StageName)
	stageLogger := logging.WithContext(stageCtx, opts.Logger)
	if aware, ok := opts.Handler.(stage.LoggerAware); ok {
		aware.SetLogger(stageLogger)
	}

	stageLogger.Info(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("processing_status", string(opts.Processing)),
		logging.String("video_url", strings.TrimSpace(opts.Job.VideoURL)),
	)

	setJobProcessingState(opts.Job, opts.Processing)
	if err := opts.Store.Update(stageCtx, opts.Job); err != nil {
		return fmt.Errorf("persist processing transition: %w", err)
	}

	if err := opts.Handler.Prepare(stageCtx, opts.Job); err != nil {
		return handleFailure(stageCtx, stageLogger, opts.Store, opts.Notifier, opts.StageName, opts.Job, err)
	}
	if err := opts.Store.Update(stageCtx, opts.Job); err != nil {
		return fmt.Errorf("persist stage preparation: %w", err)
	}

	if err := opts.Handler.Execute(stageCtx, opts.Job); err != nil {
		return handleFailure(stageCtx, stageLogger, opts.Store, opts.Notifier, opts.StageName, opts.Job, err)
	}

	if opts.Job.Status == opts.Processing || opts.Job.Status == "" {
		opts.Job.Status = opts.Done
	}
	opts.Job.LastHeartbeat = nil
	if err := opts.Store.Update(stageCtx, opts.Job); err != nil {
		return fmt.Errorf("persist stage result: %w", err)
	}

	stageLogger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_status", string(opts.Job.Status)),
		logging.String("progress_stage", strings.TrimSpace(opts.Job.ProgressStage)),
		logging.String("progress_message", strings.TrimSpace(opts.Job.ProgressMessage)),
	)

	return nil
}

func handleFailure(ctx context.Context, logger *slog.Logger, store *queue.Store, notifier notifications.Service, stageName string, job *queue.Job, stageErr error) error {
	message := "stage failed"
	if stageErr != nil {
		details := services.Details(stageErr)
		message = strings.TrimSpace(details.Message)
		if message == "" {
			message = strings.TrimSpace(stageErr.Error())
		}
	}

	resolved := services.FailureStatus(stageErr)
	if resolved == queue.StatusReview {
		job.SetReview(message)
	} else {
		job.SetFailed(message)
	}

	logger.Error(
		"stage failed",
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String("resolved_status", string(resolved)),
		logging.String("error_message", strings.TrimSpace(message)),
		logging.Error(stageErr),
	)
	if err := store.Update(ctx, job); err != nil {
		logger.Error("failed to persist stage failure", logging.Error(err))
	}

	if notifier != nil && stageErr != nil {
		var notifyErr error
		if resolved == queue.StatusReview {
			notifyErr = notifier.NotifyExportReview(ctx, job.JobUUID, message)
		} else {
			notifyErr = notifier.NotifyExportFailed(ctx, job.JobUUID, stageErr)
		}
		if notifyErr != nil {
			logger.Debug("stage error notification failed", logging.Error(notifyErr))
		}
	}

	return stageErr
}

func setJobProcessingState(job *queue.Job, processing queue.Status) {
	now := time.Now().UTC()
	job.Status = processing
	if job.ProgressStage == "" {
		job.ProgressStage = processing.StageLabel()
	}
	if job.ProgressMessage == "" {
		job.ProgressMessage = fmt.Sprintf("%s started", processing.StageLabel())
	}
	job.ProgressPercent = 0
	job.ErrorMessage = ""
	job.LastHeartbeat = &now
}
