package api

import (
	"sort"

	"reframe/internal/queue"
	"reframe/internal/stage"
	"reframe/internal/workflow"
)

// FromJob converts a queue record to its API representation.
func FromJob(job *queue.Job) JobView {
	if job == nil {
		return JobView{}
	}

	view := JobView{
		ID:             job.ID,
		JobUUID:        job.JobUUID,
		BatchUUID:      job.BatchID(),
		VideoURL:       job.VideoURL,
		ScenesURL:      job.ScenesURL,
		DestinationURL: job.DestinationURL,
		Start:          job.StartSeconds,
		End:            job.EndSeconds,
		AspectRatio:    job.AspectRatio,
		Status:         string(job.Status),
		Progress: JobProgress{
			Stage:   job.ProgressStage,
			Percent: job.ProgressPercent,
			Message: job.ProgressMessage,
		},
		ErrorMessage: job.ErrorMessage,
		RenderedFile: job.RenderedFile,
		NeedsReview:  job.NeedsReview,
		ReviewReason: job.ReviewReason,
	}
	if !job.CreatedAt.IsZero() {
		view.CreatedAt = job.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !job.UpdatedAt.IsZero() {
		view.UpdatedAt = job.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return view
}

// FromJobs converts a slice of queue records into API DTOs.
func FromJobs(jobs []*queue.Job) []JobView {
	if len(jobs) == 0 {
		return nil
	}
	out := make([]JobView, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, FromJob(job))
	}
	return out
}

// FromStatusSummary converts a workflow status summary to API payload.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	wf := WorkflowStatus{
		Running:     summary.Running,
		Lanes:       summary.Lanes,
		QueueStats:  FromHealthSummary(summary.Queue),
		StageHealth: StageHealthSlice(summary.StageHealth),
	}
	if summary.LastError != "" {
		wf.LastError = summary.LastError
	}
	if summary.LastJob != nil {
		last := FromJob(summary.LastJob)
		wf.LastJob = &last
	}
	return wf
}

// FromHealthSummary maps queue counts to the wire representation.
func FromHealthSummary(counts queue.HealthSummary) QueueStats {
	return QueueStats{
		Total:      counts.Total,
		Pending:    counts.Pending,
		Processing: counts.Processing,
		Failed:     counts.Failed,
		Review:     counts.Review,
		Completed:  counts.Completed,
	}
}

// StageHealthSlice converts a stage health map into a deterministic slice.
func StageHealthSlice(health map[string]stage.Health) []StageHealth {
	if len(health) == 0 {
		return nil
	}
	names := make([]string, 0, len(health))
	for name := range health {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]StageHealth, 0, len(names))
	for _, name := range names {
		h := health[name]
		out = append(out, StageHealth{
			Name:   name,
			Ready:  h.Ready,
			Detail: h.Detail,
		})
	}
	return out
}
