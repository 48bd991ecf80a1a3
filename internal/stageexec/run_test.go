package stageexec_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"reframe/internal/logging"
	"reframe/internal/queue"
	"reframe/internal/services"
	"reframe/internal/stageexec"
	"reframe/internal/testsupport"
)

type stubHandler struct {
	prepareErr error
	executeErr error
	executed   bool
}

func (s *stubHandler) Prepare(ctx context.Context, job *queue.Job) error { return s.prepareErr }

func (s *stubHandler) Execute(ctx context.Context, job *queue.Job) error {
	s.executed = true
	return s.executeErr
}

func expectJobUpdate(mock sqlmock.Sqlmock) {
	mock.ExpectExec(`UPDATE export_jobs SET\s+status = \$2`).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func TestRunTransitionsJobToDone(t *testing.T) {
	store, mock := testsupport.MustOpenMockStore(t)
	expectJobUpdate(mock) // processing transition
	expectJobUpdate(mock) // prepared
	expectJobUpdate(mock) // result

	handler := &stubHandler{}
	job := &queue.Job{ID: 7, JobUUID: "one-shot", Status: queue.StatusPending}
	err := stageexec.Run(context.Background(), stageexec.Options{
		Logger:     logging.NewNop(),
		Store:      store,
		Handler:    handler,
		StageName:  "download",
		Processing: queue.StatusDownloading,
		Done:       queue.StatusDownloaded,
		Job:        job,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !handler.executed {
		t.Fatal("expected handler execution")
	}
	if job.Status != queue.StatusDownloaded {
		t.Fatalf("unexpected status %s", job.Status)
	}
	if job.LastHeartbeat != nil {
		t.Fatal("expected heartbeat cleared")
	}
}

func TestRunRoutesValidationFailureToReview(t *testing.T) {
	store, mock := testsupport.MustOpenMockStore(t)
	expectJobUpdate(mock) // processing transition
	expectJobUpdate(mock) // failure

	handler := &stubHandler{
		prepareErr: services.Wrap(services.ErrValidation, "download", "parse scene document", "empty document", nil),
	}
	job := &queue.Job{ID: 8, JobUUID: "one-shot-review", Status: queue.StatusPending}
	err := stageexec.Run(context.Background(), stageexec.Options{
		Logger:     logging.NewNop(),
		Store:      store,
		Handler:    handler,
		StageName:  "download",
		Processing: queue.StatusDownloading,
		Done:       queue.StatusDownloaded,
		Job:        job,
	})
	if err == nil {
		t.Fatal("expected stage error to propagate")
	}
	if job.Status != queue.StatusReview {
		t.Fatalf("expected review status, got %s", job.Status)
	}
	if handler.executed {
		t.Fatal("execute should not run after prepare failure")
	}
}

func TestRunRejectsMissingHandler(t *testing.T) {
	store, _ := testsupport.MustOpenMockStore(t)
	err := stageexec.Run(context.Background(), stageexec.Options{
		Logger:    logging.NewNop(),
		Store:     store,
		StageName: "render",
		Job:       &queue.Job{ID: 9},
	})
	if err == nil {
		t.Fatal("expected error for missing handler")
	}
}
