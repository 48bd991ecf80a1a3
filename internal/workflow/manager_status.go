package workflow

import (
	"context"

	"reframe/internal/logging"
	"reframe/internal/queue"
	"reframe/internal/stage"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running     bool
	Lanes       int
	LastError   string
	LastJob     *queue.Job
	Queue       queue.HealthSummary
	StageHealth map[string]stage.Health
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	running := m.running
	lastErr := m.lastErr
	lastJob := m.lastJob
	m.mu.RUnlock()

	summary := StatusSummary{
		Running:     running,
		Lanes:       m.lanes,
		StageHealth: m.StageHealth(ctx),
	}

	counts, err := m.store.Health(ctx)
	if err != nil {
		if m.logger != nil {
			m.logger.Warn("failed to read queue health", logging.Error(err))
		}
	} else {
		summary.Queue = counts
	}

	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	if lastJob != nil {
		snapshot := *lastJob
		summary.LastJob = &snapshot
	}
	return summary
}

// StageHealth runs each registered handler's health check.
func (m *Manager) StageHealth(ctx context.Context) map[string]stage.Health {
	health := make(map[string]stage.Health, len(m.stageOrder))
	for _, status := range m.stageOrder {
		stg, ok := m.stages[status]
		if !ok || stg.handler == nil {
			continue
		}
		health[stg.name] = stg.handler.HealthCheck(ctx)
	}
	return health
}
