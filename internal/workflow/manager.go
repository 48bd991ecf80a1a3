package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"reframe/internal/config"
	"reframe/internal/notifications"
	"reframe/internal/queue"
	"reframe/internal/stage"
)

// StageSet bundles the concrete pipeline handlers the manager orchestrates.
type StageSet struct {
	Download stage.Handler
	Render   stage.Handler
	Upload   stage.Handler
}

type pipelineStage struct {
	name       string
	handler    stage.Handler
	processing queue.Status
	done       queue.Status
}

// Manager coordinates queue processing across lanes.
type Manager struct {
	cfg          *config.Config
	store        *queue.Store
	logger       *slog.Logger
	notifier     notifications.Service
	pollInterval time.Duration
	errorRetry   time.Duration

	heartbeat *HeartbeatMonitor

	stages     map[queue.Status]pipelineStage
	stageOrder []queue.Status
	lanes      int

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
	lastJob *queue.Job
}

// NewManager constructs a workflow manager with the default notifier.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Manager {
	return NewManagerWithNotifier(cfg, store, logger, notifications.NewService(cfg))
}

// NewManagerWithNotifier constructs a workflow manager with a custom notifier
// (used in tests).
func NewManagerWithNotifier(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service) *Manager {
	lanes := cfg.Workflow.Lanes
	if lanes < 1 {
		lanes = 1
	}
	return &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		notifier:     notifier,
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		errorRetry:   time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
		heartbeat: NewHeartbeatMonitor(
			store,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
		stages: make(map[queue.Status]pipelineStage),
		lanes:  lanes,
	}
}

// ConfigureStages registers the pipeline handlers against the queue's stage
// transitions: download, render, upload.
func (m *Manager) ConfigureStages(set StageSet) {
	handlers := []stage.Handler{set.Download, set.Render, set.Upload}
	names := []string{"download", "render", "upload"}
	done := []queue.Status{queue.StatusDownloaded, queue.StatusRendered, queue.StatusCompleted}

	m.stages = make(map[queue.Status]pipelineStage, len(queue.StageTransitions))
	m.stageOrder = m.stageOrder[:0]
	for i, tr := range queue.StageTransitions {
		m.stages[tr.Processing] = pipelineStage{
			name:       names[i],
			handler:    handlers[i],
			processing: tr.Processing,
			done:       done[i],
		}
		m.stageOrder = append(m.stageOrder, tr.Processing)
	}
}

// Lanes returns the number of configured processing lanes.
func (m *Manager) Lanes() int {
	return m.lanes
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastJob(job *queue.Job) {
	if job == nil {
		return
	}
	snapshot := *job
	m.mu.Lock()
	m.lastJob = &snapshot
	m.mu.Unlock()
}
