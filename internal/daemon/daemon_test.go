package daemon_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"reframe/internal/api"
	"reframe/internal/daemon"
	"reframe/internal/logging"
	"reframe/internal/notifications"
	"reframe/internal/queue"
	"reframe/internal/services"
	"reframe/internal/stage"
	"reframe/internal/testsupport"
	"reframe/internal/workflow"
)

type noopStage struct{}

func (noopStage) Prepare(context.Context, *queue.Job) error { return nil }
func (noopStage) Execute(context.Context, *queue.Job) error { return nil }
func (noopStage) HealthCheck(context.Context) stage.Health {
	return stage.Healthy("noop")
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, mock := testsupport.MustOpenMockStore(t)
	mock.MatchExpectationsInOrder(false)

	logger := logging.NewNop()
	mgr := workflow.NewManager(cfg, store, logger)
	mgr.ConfigureStages(workflow.StageSet{
		Download: noopStage{},
		Render:   noopStage{},
		Upload:   noopStage{},
	})

	d, err := daemon.New(cfg, store, logger, mgr, notifications.NewService(cfg))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.PID == 0 {
		t.Fatal("expected a pid")
	}

	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	time.Sleep(50 * time.Millisecond)
	if d.Status(ctx).Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestDaemonSubmitValidates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, _ := testsupport.MustOpenMockStore(t)
	logger := logging.NewNop()
	mgr := workflow.NewManager(cfg, store, logger)

	d, err := daemon.New(cfg, store, logger, mgr, notifications.NewService(cfg))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	_, err = d.Submit(context.Background(), api.SubmitRequest{Task: api.TaskExport})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDaemonSubmitEnqueuesExport(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, mock := testsupport.MustOpenMockStore(t)
	logger := logging.NewNop()
	mgr := workflow.NewManager(cfg, store, logger)

	mock.ExpectQuery(`INSERT INTO export_jobs`).
		WillReturnRows(testsupport.JobRows(11, queue.StatusPending))

	d, err := daemon.New(cfg, store, logger, mgr, notifications.NewService(cfg))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	resp, err := d.Submit(context.Background(), api.SubmitRequest{
		Task: api.TaskExport,
		ExportRequest: api.ExportRequest{
			VideoURL:       "https://cdn.example/video.mp4",
			ScenesURL:      "https://cdn.example/scenes.json",
			DestinationURL: "https://account.blob.core.windows.net/clips/out.mp4",
			Start:          1.5,
			End:            9.25,
		},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(resp.Jobs) != 1 || resp.Jobs[0].ID != 11 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.BatchUUID != "" {
		t.Fatalf("single export should not carry a batch uuid, got %q", resp.BatchUUID)
	}
}
