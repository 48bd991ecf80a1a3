package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"reframe/internal/logging"
	"reframe/internal/queue"
)

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	if len(m.stages) == 0 {
		m.mu.Unlock()
		return errors.New("workflow stages not configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(m.lanes)
	m.mu.Unlock()

	for lane := 0; lane < m.lanes; lane++ {
		go m.runLane(runCtx, lane)
	}
	return nil
}

// Stop terminates background processing and waits for in-flight stages.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// Running reports whether the manager's lanes are active.
func (m *Manager) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

func (m *Manager) runLane(ctx context.Context, lane int) {
	defer m.wg.Done()

	laneName := fmt.Sprintf("lane-%d", lane)
	logger := logging.NewComponentLogger(m.logger, "workflow").With(logging.String(logging.FieldLane, laneName))

	// Only the first lane reclaims stale jobs so the queue is not hammered
	// with identical reclaim scans.
	runReclaimer := lane == 0

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if runReclaimer {
			if err := m.heartbeat.ReclaimStale(ctx, logger); err != nil {
				logger.Warn("reclaim stale processing failed; stuck jobs may remain",
					logging.Error(err),
					logging.String(logging.FieldEventType, "heartbeat_reclaim_failed"),
					logging.String(logging.FieldErrorHint, "check queue database access"),
				)
			}
		}

		job, err := m.store.Claim(ctx)
		if err != nil {
			m.handleClaimError(ctx, logger, err)
			continue
		}
		if job == nil {
			m.waitForJobOrShutdown(ctx)
			continue
		}

		if err := m.processJob(ctx, laneName, logger, job); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
		}
	}
}

func (m *Manager) handleClaimError(ctx context.Context, logger *slog.Logger, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	m.setLastError(err)
	logger.Error("failed to claim next job",
		logging.Error(err),
		logging.String(logging.FieldEventType, "queue_claim_failed"),
		logging.String(logging.FieldErrorHint, "check queue database access"),
	)
	select {
	case <-ctx.Done():
	case <-time.After(m.errorRetry):
	}
}

func (m *Manager) waitForJobOrShutdown(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(m.pollInterval):
	}
}

// RollbackProcessing re-queues every in-flight job; called on daemon shutdown
// after the lanes have stopped.
func (m *Manager) RollbackProcessing(ctx context.Context) (int64, error) {
	count, err := m.store.RollbackProcessing(ctx)
	if err != nil {
		return count, err
	}
	if count > 0 && m.logger != nil {
		m.logger.Info("rolled back in-flight jobs",
			logging.Int64("count", count),
			logging.String("reason", queue.DaemonStopReason),
		)
	}
	return count, nil
}
