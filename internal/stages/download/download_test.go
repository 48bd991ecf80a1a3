package download

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"reframe/internal/logging"
	"reframe/internal/queue"
	"reframe/internal/services"
	"reframe/internal/testsupport"
)

const scenesDoc = `[
  {"type": "fill", "start_time": 0, "end_time": 5, "top_left": [0, 0], "crop_width": 0.5, "crop_height": 1},
  {"type": "fit", "start_time": 5, "end_time": 12}
]`

func scenesServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func testJob(scenesURL string) *queue.Job {
	return &queue.Job{
		ID:           1,
		JobUUID:      "job-under-test",
		VideoURL:     "https://example.com/source.mp4",
		ScenesURL:    scenesURL,
		StartSeconds: 0,
		EndSeconds:   10,
		Status:       queue.StatusDownloading,
	}
}

func TestExecuteDownloadsAndValidates(t *testing.T) {
	server := scenesServer(t, http.StatusOK, scenesDoc)
	cfg := testsupport.NewConfig(t)
	handler := New(cfg, logging.NewNop(), nil)

	job := testJob(server.URL)
	if err := handler.Prepare(context.Background(), job); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if job.ScenesFile == "" {
		t.Fatal("expected scenes file to be recorded")
	}
	if job.ProgressPercent != 10 {
		t.Fatalf("unexpected progress %v", job.ProgressPercent)
	}
}

func TestExecuteClassifiesMissingDocument(t *testing.T) {
	server := scenesServer(t, http.StatusNotFound, "gone")
	cfg := testsupport.NewConfig(t)
	handler := New(cfg, logging.NewNop(), nil)

	err := handler.Execute(context.Background(), testJob(server.URL))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found classification, got %v", err)
	}
	if services.FailureStatus(err) != queue.StatusReview {
		t.Fatal("missing document should park the job for review")
	}
}

func TestExecuteClassifiesMalformedDocument(t *testing.T) {
	server := scenesServer(t, http.StatusOK, `{"not": "a scene list"}`)
	cfg := testsupport.NewConfig(t)
	handler := New(cfg, logging.NewNop(), nil)

	err := handler.Execute(context.Background(), testJob(server.URL))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation classification, got %v", err)
	}
}

func TestExecuteRejectsNonOverlappingWindow(t *testing.T) {
	server := scenesServer(t, http.StatusOK, scenesDoc)
	cfg := testsupport.NewConfig(t)
	handler := New(cfg, logging.NewNop(), nil)

	job := testJob(server.URL)
	job.StartSeconds = 50
	job.EndSeconds = 60

	err := handler.Execute(context.Background(), job)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation classification, got %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	handler := New(cfg, logging.NewNop(), nil)
	if health := handler.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("expected healthy stage, got %+v", health)
	}

	cfg.Paths.StagingDir = ""
	if health := handler.HealthCheck(context.Background()); health.Ready {
		t.Fatal("expected unhealthy stage without staging dir")
	}
}
