package upload

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"reframe/internal/logging"
	"reframe/internal/queue"
	"reframe/internal/services"
	"reframe/internal/storage/azureblob"
	"reframe/internal/testsupport"
)

type fakeUploader struct {
	err      error
	uploaded []string
}

func (f *fakeUploader) Upload(ctx context.Context, destinationURL, localPath string) error {
	if f.err != nil {
		return f.err
	}
	f.uploaded = append(f.uploaded, destinationURL)
	return nil
}

func newTestHandler(t *testing.T, uploader blobUploader) (*Handler, *queue.Job) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	handler := New(cfg, logging.NewNop())
	handler.uploader = uploader

	jobDir := filepath.Join(cfg.Paths.StagingDir, "upload-job")
	rendered := filepath.Join(jobDir, "render", "output.mp4")
	testsupport.WriteFile(t, rendered, 2048)

	job := &queue.Job{
		ID:             3,
		JobUUID:        "upload-job",
		DestinationURL: "https://account.blob.core.windows.net/clips/final.mp4",
		RenderedFile:   rendered,
		Status:         queue.StatusUploading,
	}
	return handler, job
}

func TestExecuteUploadsAndCompletes(t *testing.T) {
	uploader := &fakeUploader{}
	handler, job := newTestHandler(t, uploader)

	if err := handler.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if job.Status != queue.StatusCompleted {
		t.Fatalf("unexpected status %s", job.Status)
	}
	if job.ProgressPercent != 100 {
		t.Fatalf("unexpected progress %v", job.ProgressPercent)
	}
	if len(uploader.uploaded) != 1 {
		t.Fatalf("expected one upload, got %d", len(uploader.uploaded))
	}
	// Staging directory is cleaned up after a successful upload.
	if _, err := os.Stat(filepath.Dir(filepath.Dir(job.RenderedFile))); !os.IsNotExist(err) {
		t.Fatal("expected staging directory removed")
	}
}

func TestExecuteClassifiesCredentialFailure(t *testing.T) {
	handler, job := newTestHandler(t, &fakeUploader{err: azureblob.ErrNoCredentials})

	err := handler.Execute(context.Background(), job)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration classification, got %v", err)
	}
	if services.FailureStatus(err) != queue.StatusReview {
		t.Fatal("credential failures should park the job for review")
	}
}

func TestExecuteClassifiesTransientFailure(t *testing.T) {
	handler, job := newTestHandler(t, &fakeUploader{err: errors.New("connection reset")})

	err := handler.Execute(context.Background(), job)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient classification, got %v", err)
	}
	if services.FailureStatus(err) != queue.StatusFailed {
		t.Fatal("transient failures should mark the job failed")
	}
}

func TestExecuteRequiresRenderedFile(t *testing.T) {
	handler, job := newTestHandler(t, &fakeUploader{})
	job.RenderedFile = ""

	err := handler.Execute(context.Background(), job)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation classification, got %v", err)
	}
}

func TestExecuteRejectsBadDestination(t *testing.T) {
	handler, job := newTestHandler(t, &fakeUploader{})
	job.DestinationURL = "https://account.blob.core.windows.net/onlycontainer"

	err := handler.Execute(context.Background(), job)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation classification, got %v", err)
	}
}

func TestHealthCheckRequiresCredentials(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Azure.ConnectionStringEnv = "REFRAME_TEST_UPLOAD_CONN"
	handler := New(cfg, logging.NewNop())

	t.Setenv("REFRAME_TEST_UPLOAD_CONN", "")
	if health := handler.HealthCheck(context.Background()); health.Ready {
		t.Fatal("expected unhealthy stage without credentials")
	}

	t.Setenv("REFRAME_TEST_UPLOAD_CONN", "UseDevelopmentStorage=true")
	if health := handler.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("expected healthy stage, got %+v", health)
	}
}
