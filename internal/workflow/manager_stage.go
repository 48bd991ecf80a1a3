package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"reframe/internal/logging"
	"reframe/internal/queue"
	"reframe/internal/services"
	"reframe/internal/stage"
)

func (m *Manager) processJob(ctx context.Context, laneName string, laneLogger *slog.Logger, job *queue.Job) error {
	stg, ok := m.stages[job.Status]
	if !ok {
		laneLogger.Warn("no stage configured for status", logging.String("status", string(job.Status)))
		job.SetFailed(fmt.Sprintf("no stage configured for status %s", job.Status))
		if err := m.store.Update(ctx, job); err != nil {
			laneLogger.Error("failed to persist missing stage failure", logging.Error(err))
		}
		return nil
	}

	stageCtx := services.WithRequestID(
		services.WithLane(
			logging.WithStage(
				services.WithJobID(ctx, job.ID), stg.name),
			laneName),
		uuid.NewString(),
	)
	stageLogger := logging.WithContext(stageCtx, m.logger)
	if aware, ok := stg.handler.(stage.LoggerAware); ok {
		aware.SetLogger(stageLogger)
	}

	stageStart := time.Now()
	stageLogger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("processing_status", string(stg.processing)),
		logging.String("video_url", strings.TrimSpace(job.VideoURL)),
	)

	if err := stg.handler.Prepare(stageCtx, job); err != nil {
		m.handleStageFailure(stageCtx, stageLogger, stg.name, job, err)
		return err
	}
	if err := m.store.Update(stageCtx, job); err != nil {
		wrapped := fmt.Errorf("persist stage preparation: %w", err)
		stageLogger.Error("failed to persist stage preparation", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}

	execErr := m.executeWithHeartbeat(stageCtx, stg.handler, job)
	if execErr != nil {
		if errors.Is(execErr, context.Canceled) {
			stageLogger.Debug("stage interrupted by shutdown")
			return execErr
		}
		m.handleStageFailure(stageCtx, stageLogger, stg.name, job, execErr)
		return execErr
	}

	if job.Status == stg.processing || job.Status == "" {
		job.Status = stg.done
	}
	job.LastHeartbeat = nil
	if job.Status == queue.StatusCompleted && job.ProgressPercent < 100 {
		job.SetProgress("Completed", "Export uploaded", 100)
	}
	if err := m.store.Update(stageCtx, job); err != nil {
		wrapped := fmt.Errorf("persist stage result: %w", err)
		stageLogger.Error("failed to persist stage result", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}

	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_status", string(job.Status)),
		logging.Duration("stage_duration", time.Since(stageStart)),
	)
	m.setLastJob(job)

	if job.Status == queue.StatusCompleted {
		m.notifyCompletion(stageCtx, stageLogger, job)
	}
	return nil
}

func (m *Manager) executeWithHeartbeat(ctx context.Context, handler stage.Handler, job *queue.Job) error {
	hbCtx, hbCancel := context.WithCancel(ctx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go m.heartbeat.StartLoop(hbCtx, &hbWG, job.ID)

	execErr := handler.Execute(ctx, job)
	hbCancel()
	hbWG.Wait()
	return execErr
}

func (m *Manager) handleStageFailure(ctx context.Context, logger *slog.Logger, stageName string, job *queue.Job, stageErr error) {
	m.setLastError(stageErr)

	details := services.Details(stageErr)
	message := strings.TrimSpace(details.Message)
	if message == "" && stageErr != nil {
		message = strings.TrimSpace(stageErr.Error())
	}
	if message == "" {
		message = fmt.Sprintf("%s failed without error detail", stageName)
	}

	resolved := services.FailureStatus(stageErr)
	if resolved == queue.StatusReview {
		job.SetReview(message)
	} else {
		job.SetFailed(message)
	}

	logger.Error("stage failed",
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String("resolved_status", string(resolved)),
		logging.String("error_category", details.Category),
		logging.String("error_message", message),
		logging.Error(stageErr),
	)

	if err := m.store.Update(ctx, job); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not persist stage failure")
		} else {
			logger.Error("failed to persist stage failure", logging.Error(err))
		}
	}
	m.setLastJob(job)

	if m.notifier == nil {
		return
	}
	var notifyErr error
	if resolved == queue.StatusReview {
		notifyErr = m.notifier.NotifyExportReview(ctx, job.JobUUID, message)
	} else {
		notifyErr = m.notifier.NotifyExportFailed(ctx, job.JobUUID, stageErr)
	}
	if notifyErr != nil {
		logger.Debug("stage failure notification failed", logging.Error(notifyErr))
	}
}

// notifyCompletion announces a finished export and, when the job was the last
// open entry of a batch, the batch result as well.
func (m *Manager) notifyCompletion(ctx context.Context, logger *slog.Logger, job *queue.Job) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.NotifyExportCompleted(ctx, job.JobUUID, job.DestinationURL); err != nil {
		logger.Debug("completion notification failed", logging.Error(err))
	}

	batchID := job.BatchID()
	if batchID == "" {
		return
	}
	jobs, err := m.store.ListBatch(ctx, batchID)
	if err != nil {
		logger.Debug("batch completion lookup failed", logging.Error(err))
		return
	}
	completed, failed := 0, 0
	for _, entry := range jobs {
		switch entry.Status {
		case queue.StatusCompleted:
			completed++
		case queue.StatusFailed, queue.StatusReview:
			failed++
		default:
			// Still in flight; the batch is not done yet.
			return
		}
	}
	if err := m.notifier.NotifyBatchCompleted(ctx, batchID, completed, failed); err != nil {
		logger.Debug("batch completion notification failed", logging.Error(err))
	}
}
