package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"reframe/internal/api"
	"reframe/internal/queue"
)

type queueStoreStub struct {
	jobs []*queue.Job
}

func (s *queueStoreStub) List(context.Context, ...queue.Status) ([]*queue.Job, error) {
	return s.jobs, nil
}

func (s *queueStoreStub) GetByID(context.Context, int64) (*queue.Job, error) {
	if len(s.jobs) == 0 {
		return nil, queue.ErrNotFound
	}
	return s.jobs[0], nil
}

func (s *queueStoreStub) Health(context.Context) (queue.HealthSummary, error) {
	return queue.HealthSummary{Total: len(s.jobs)}, nil
}

func TestAPIServerHandleListJobs(t *testing.T) {
	store := &queueStoreStub{jobs: []*queue.Job{{ID: 1, JobUUID: "listed", Status: queue.StatusPending}}}
	srv := &apiServer{queueSvc: api.NewQueueService(store)}

	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	w := httptest.NewRecorder()
	srv.handleJobs(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp api.JobListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(resp.Jobs))
	}
	if resp.Jobs[0].JobUUID != "listed" {
		t.Fatalf("unexpected job uuid: %q", resp.Jobs[0].JobUUID)
	}
}

func TestAPIServerRejectsUnknownStatusFilter(t *testing.T) {
	srv := &apiServer{queueSvc: api.NewQueueService(&queueStoreStub{})}

	req := httptest.NewRequest(http.MethodGet, "/api/jobs?status=exploded", nil)
	w := httptest.NewRecorder()
	srv.handleJobs(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestAPIServerHandleJobNotFound(t *testing.T) {
	srv := &apiServer{queueSvc: api.NewQueueService(&queueStoreStub{})}

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/42", nil)
	w := httptest.NewRecorder()
	srv.handleJob(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestAPIServerHandleJobInvalidID(t *testing.T) {
	srv := &apiServer{queueSvc: api.NewQueueService(&queueStoreStub{})}

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/not-a-number", nil)
	w := httptest.NewRecorder()
	srv.handleJob(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
