package api_test

import (
	"database/sql"
	"testing"
	"time"

	"reframe/internal/api"
	"reframe/internal/queue"
	"reframe/internal/stage"
	"reframe/internal/workflow"
)

func TestFromJobPopulatesView(t *testing.T) {
	created := time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)
	job := &queue.Job{
		ID:              42,
		JobUUID:         "job-uuid",
		BatchUUID:       sql.NullString{String: "batch-uuid", Valid: true},
		VideoURL:        "https://cdn.example.com/video.mp4",
		ScenesURL:       "https://cdn.example.com/scenes.json",
		DestinationURL:  "https://account.blob.core.windows.net/clips/out.mp4",
		StartSeconds:    2,
		EndSeconds:      9,
		AspectRatio:     "9:16",
		Status:          queue.StatusRendering,
		ProgressStage:   "Rendering",
		ProgressPercent: 50,
		ProgressMessage: "Scene renders finished",
		CreatedAt:       created,
		UpdatedAt:       created.Add(time.Minute),
	}

	view := api.FromJob(job)
	if view.ID != 42 || view.JobUUID != "job-uuid" || view.BatchUUID != "batch-uuid" {
		t.Fatalf("unexpected identity fields: %+v", view)
	}
	if view.Status != "rendering" {
		t.Fatalf("unexpected status %q", view.Status)
	}
	if view.Progress.Percent != 50 || view.Progress.Stage != "Rendering" {
		t.Fatalf("unexpected progress %+v", view.Progress)
	}
	if view.CreatedAt != "2026-03-14T09:30:00.000Z" {
		t.Fatalf("unexpected created_at %q", view.CreatedAt)
	}
}

func TestFromJobNil(t *testing.T) {
	view := api.FromJob(nil)
	if view.ID != 0 || view.JobUUID != "" {
		t.Fatalf("expected zero view, got %+v", view)
	}
}

func TestFromStatusSummary(t *testing.T) {
	last := &queue.Job{ID: 7, JobUUID: "last", Status: queue.StatusCompleted}
	summary := workflow.StatusSummary{
		Running:   true,
		Lanes:     2,
		LastError: "claim timed out",
		LastJob:   last,
		Queue:     queue.HealthSummary{Total: 5, Pending: 2, Completed: 3},
		StageHealth: map[string]stage.Health{
			"upload":   stage.Healthy("upload"),
			"download": stage.Unhealthy("download", "staging dir missing"),
		},
	}

	wf := api.FromStatusSummary(summary)
	if !wf.Running || wf.Lanes != 2 {
		t.Fatalf("unexpected workflow flags: %+v", wf)
	}
	if wf.QueueStats.Total != 5 || wf.QueueStats.Pending != 2 {
		t.Fatalf("unexpected queue stats: %+v", wf.QueueStats)
	}
	if wf.LastJob == nil || wf.LastJob.JobUUID != "last" {
		t.Fatalf("unexpected last job: %+v", wf.LastJob)
	}
	if len(wf.StageHealth) != 2 {
		t.Fatalf("expected 2 health entries, got %d", len(wf.StageHealth))
	}
	if wf.StageHealth[0].Name != "download" || wf.StageHealth[0].Ready {
		t.Fatalf("expected unhealthy download first, got %+v", wf.StageHealth[0])
	}
	if wf.StageHealth[1].Name != "upload" || !wf.StageHealth[1].Ready {
		t.Fatalf("expected healthy upload second, got %+v", wf.StageHealth[1])
	}
}
