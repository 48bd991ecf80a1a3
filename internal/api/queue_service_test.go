package api_test

import (
	"context"
	"errors"
	"testing"

	"reframe/internal/api"
	"reframe/internal/queue"
)

type fakeReader struct {
	jobs    []*queue.Job
	health  queue.HealthSummary
	listErr error
	getErr  error
}

func (f *fakeReader) List(ctx context.Context, statuses ...queue.Status) ([]*queue.Job, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if len(statuses) == 0 {
		return f.jobs, nil
	}
	var filtered []*queue.Job
	for _, job := range f.jobs {
		for _, status := range statuses {
			if job.Status == status {
				filtered = append(filtered, job)
				break
			}
		}
	}
	return filtered, nil
}

func (f *fakeReader) GetByID(ctx context.Context, id int64) (*queue.Job, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, job := range f.jobs {
		if job.ID == id {
			return job, nil
		}
	}
	return nil, queue.ErrNotFound
}

func (f *fakeReader) Health(ctx context.Context) (queue.HealthSummary, error) {
	return f.health, nil
}

func TestQueueServiceListFiltersByStatus(t *testing.T) {
	reader := &fakeReader{jobs: []*queue.Job{
		{ID: 1, Status: queue.StatusPending},
		{ID: 2, Status: queue.StatusFailed},
	}}
	svc := api.NewQueueService(reader)

	views, err := svc.List(context.Background(), queue.StatusFailed)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(views) != 1 || views[0].ID != 2 {
		t.Fatalf("unexpected views: %+v", views)
	}
}

func TestQueueServiceDescribe(t *testing.T) {
	reader := &fakeReader{jobs: []*queue.Job{{ID: 3, JobUUID: "described"}}}
	svc := api.NewQueueService(reader)

	view, err := svc.Describe(context.Background(), 3)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if view == nil || view.JobUUID != "described" {
		t.Fatalf("unexpected view: %+v", view)
	}

	if _, err := svc.Describe(context.Background(), 99); !errors.Is(err, queue.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestQueueServiceCounts(t *testing.T) {
	reader := &fakeReader{health: queue.HealthSummary{Total: 4, Review: 1}}
	svc := api.NewQueueService(reader)

	counts, err := svc.Counts(context.Background())
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts.Total != 4 || counts.Review != 1 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}

func TestQueueServiceNilReceiver(t *testing.T) {
	var svc *api.QueueService
	if views, err := svc.List(context.Background()); err != nil || views != nil {
		t.Fatalf("expected nil results, got %v %v", views, err)
	}
	if api.NewQueueService(nil) != nil {
		t.Fatal("expected nil service for nil reader")
	}
}
