package api

import "reframe/internal/queue"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Task names accepted by the submission endpoint.
const (
	TaskExport      = queue.TaskExport
	TaskBatchExport = queue.TaskBatchExport
)

// ExportRequest describes a single clip export submission.
type ExportRequest struct {
	VideoURL       string  `json:"video_url"`
	ScenesURL      string  `json:"scenes_url"`
	DestinationURL string  `json:"destination_url"`
	Start          float64 `json:"start"`
	End            float64 `json:"end"`
	Subtitles      string  `json:"subtitles,omitempty"`
	AspectRatio    string  `json:"aspect_ratio,omitempty"`
}

// SubmitRequest is the payload of POST /api/jobs. A task of "export" uses the
// inline fields; "batch-export" uses the batch entries instead.
type SubmitRequest struct {
	Task string `json:"task"`
	ExportRequest
	Batch []ExportRequest `json:"batch,omitempty"`
}

// SubmitResponse acknowledges accepted submissions.
type SubmitResponse struct {
	BatchUUID string    `json:"batch_uuid,omitempty"`
	Jobs      []JobView `json:"jobs"`
}

// JobView describes a queue entry in a transport-friendly format.
type JobView struct {
	ID             int64       `json:"id"`
	JobUUID        string      `json:"job_uuid"`
	BatchUUID      string      `json:"batch_uuid,omitempty"`
	VideoURL       string      `json:"video_url"`
	ScenesURL      string      `json:"scenes_url"`
	DestinationURL string      `json:"destination_url"`
	Start          float64     `json:"start"`
	End            float64     `json:"end"`
	AspectRatio    string      `json:"aspect_ratio,omitempty"`
	Status         string      `json:"status"`
	Progress       JobProgress `json:"progress"`
	ErrorMessage   string      `json:"error_message,omitempty"`
	RenderedFile   string      `json:"rendered_file,omitempty"`
	NeedsReview    bool        `json:"needs_review"`
	ReviewReason   string      `json:"review_reason,omitempty"`
	CreatedAt      string      `json:"created_at,omitempty"`
	UpdatedAt      string      `json:"updated_at,omitempty"`
}

// JobProgress captures stage progress information for a queue entry.
type JobProgress struct {
	Stage   string  `json:"stage"`
	Percent float64 `json:"percent"`
	Message string  `json:"message"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running     bool          `json:"running"`
	Lanes       int           `json:"lanes"`
	QueueStats  QueueStats    `json:"queue_stats"`
	LastError   string        `json:"last_error,omitempty"`
	LastJob     *JobView      `json:"last_job,omitempty"`
	StageHealth []StageHealth `json:"stage_health"`
}

// QueueStats provides normalized queue counts.
type QueueStats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Failed     int `json:"failed"`
	Review     int `json:"review"`
	Completed  int `json:"completed"`
}

// StageHealth mirrors readiness reporting for workflow stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	LockFilePath string             `json:"lock_file_path"`
	Workflow     WorkflowStatus     `json:"workflow"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// JobListResponse wraps a collection of jobs for API responses.
type JobListResponse struct {
	Jobs []JobView `json:"jobs"`
}

// JobResponse wraps a single job.
type JobResponse struct {
	Job JobView `json:"job"`
}
