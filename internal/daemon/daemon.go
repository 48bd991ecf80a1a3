package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"reframe/internal/api"
	"reframe/internal/config"
	"reframe/internal/deps"
	"reframe/internal/logging"
	"reframe/internal/notifications"
	"reframe/internal/queue"
	"reframe/internal/workflow"
)

// Daemon coordinates background processing and enforces single-instance
// execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *queue.Store
	workflow *workflow.Manager
	notifier notifications.Service

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	LockFilePath string
	Workflow     workflow.StatusSummary
	Dependencies []deps.Status
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, wf *workflow.Manager, notifier notifications.Service) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil || wf == nil {
		return nil, errors.New("daemon requires config, store, logger, and workflow manager")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "reframed.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		workflow: wf,
		notifier: notifier,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start launches the workflow manager and HTTP API and acquires the daemon
// lock.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another reframe daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.workflow.Start(d.ctx); err != nil {
		d.releaseStartup()
		return fmt.Errorf("start workflow: %w", err)
	}

	server, err := newAPIServer(d.cfg, d, d.logger)
	if err != nil {
		d.workflow.Stop()
		d.releaseStartup()
		return fmt.Errorf("configure api server: %w", err)
	}
	if server != nil {
		if err := server.start(d.ctx); err != nil {
			d.workflow.Stop()
			d.releaseStartup()
			return err
		}
		d.api = server
	}

	d.running.Store(true)
	d.logger.Info("reframe daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("lanes", d.workflow.Lanes()),
	)
	if d.notifier != nil {
		if err := d.notifier.NotifyDaemonStarted(d.ctx, d.workflow.Lanes()); err != nil {
			d.logger.Debug("daemon start notification failed", logging.Error(err))
		}
	}
	return nil
}

func (d *Daemon) releaseStartup() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.ctx = nil
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
}

// Stop stops background processing, re-queues in-flight jobs, and releases
// the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.api != nil {
		d.api.stop()
		d.api = nil
	}
	d.workflow.Stop()

	rollbackCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := d.workflow.RollbackProcessing(rollbackCtx); err != nil {
		d.logger.Warn("failed to roll back in-flight jobs", logging.Error(err))
	}

	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("reframe daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Submit validates a submission and enqueues its jobs.
func (d *Daemon) Submit(ctx context.Context, req api.SubmitRequest) (api.SubmitResponse, error) {
	if err := req.Validate(); err != nil {
		return api.SubmitResponse{}, err
	}

	if req.IsBatch() {
		jobs, err := d.store.NewBatch(ctx, req.JobRequests())
		if err != nil {
			return api.SubmitResponse{}, fmt.Errorf("enqueue batch: %w", err)
		}
		d.logger.Info("batch queued",
			logging.String("batch_uuid", jobs[0].BatchID()),
			logging.Int("jobs", len(jobs)),
		)
		return api.SubmitResponse{
			BatchUUID: jobs[0].BatchID(),
			Jobs:      api.FromJobs(jobs),
		}, nil
	}

	job, err := d.store.NewExport(ctx, req.JobRequests()[0])
	if err != nil {
		return api.SubmitResponse{}, fmt.Errorf("enqueue export: %w", err)
	}
	d.logger.Info("export queued",
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String("video_url", job.VideoURL),
	)
	return api.SubmitResponse{Jobs: []api.JobView{api.FromJob(job)}}, nil
}

// ListQueue returns jobs filtered by optional statuses.
func (d *Daemon) ListQueue(ctx context.Context, statuses []queue.Status) ([]*queue.Job, error) {
	if d.store == nil {
		return nil, errors.New("queue store unavailable")
	}
	return d.store.List(ctx, statuses...)
}

// Retry resets a failed or review job back to pending.
func (d *Daemon) Retry(ctx context.Context, id int64) error {
	if d.store == nil {
		return errors.New("queue store unavailable")
	}
	return d.store.Retry(ctx, id)
}

// Remove deletes a job that is not currently processing.
func (d *Daemon) Remove(ctx context.Context, id int64) error {
	if d.store == nil {
		return errors.New("queue store unavailable")
	}
	return d.store.Remove(ctx, id)
}

// ClearCompleted removes only completed jobs.
func (d *Daemon) ClearCompleted(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	return d.store.ClearCompleted(ctx)
}

// QueueHealth returns aggregate queue diagnostics.
func (d *Daemon) QueueHealth(ctx context.Context) (queue.HealthSummary, error) {
	if d.store == nil {
		return queue.HealthSummary{}, errors.New("queue store unavailable")
	}
	return d.store.Health(ctx)
}

// TestNotification triggers a test notification using the current
// configuration.
func (d *Daemon) TestNotification(ctx context.Context) error {
	if d.notifier == nil {
		return errors.New("notifications unavailable")
	}
	return d.notifier.TestNotification(ctx)
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		LockFilePath: d.lockPath,
		Workflow:     d.workflow.Status(ctx),
		Dependencies: deps.CheckBinaries(deps.Requirements(d.cfg)),
	}
}
