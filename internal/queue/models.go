package queue

import (
	"database/sql"
	"strings"
	"time"
)

// Status represents the lifecycle of an export job.
type Status string

const (
	StatusPending     Status = "pending"
	StatusDownloading Status = "downloading"
	StatusDownloaded  Status = "downloaded"
	StatusRendering   Status = "rendering"
	StatusRendered    Status = "rendered"
	StatusUploading   Status = "uploading"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
	StatusReview      Status = "review"
)

// TaskExport is the task value for a single clip export.
const TaskExport = "export"

// TaskBatchExport is the task value for a batch submission. Batch requests
// fan out into one queue job per entry; the task stored per job is TaskExport.
const TaskBatchExport = "batch-export"

// DaemonStopReason is the error message set when jobs are rolled back due to
// daemon shutdown.
const DaemonStopReason = "Daemon stopped"

var allStatuses = []Status{
	StatusPending,
	StatusDownloading,
	StatusDownloaded,
	StatusRendering,
	StatusRendered,
	StatusUploading,
	StatusCompleted,
	StatusFailed,
	StatusReview,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusDownloading: {},
	StatusRendering:   {},
	StatusUploading:   {},
}

// Transition pairs the status a lane claims from with the processing status
// the claim moves the job into, and the rollback target used when a stale or
// interrupted job must be re-queued.
type Transition struct {
	Start      Status
	Processing Status
}

// StageTransitions is the ordered pipeline the workflow manager drives.
var StageTransitions = []Transition{
	{Start: StatusPending, Processing: StatusDownloading},
	{Start: StatusDownloaded, Processing: StatusRendering},
	{Start: StatusRendered, Processing: StatusUploading},
}

// RollbackStatus returns the start status a processing job re-enters when its
// stage is interrupted or its heartbeat goes stale.
func RollbackStatus(processing Status) (Status, bool) {
	for _, tr := range StageTransitions {
		if tr.Processing == processing {
			return tr.Start, true
		}
	}
	return "", false
}

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total      int `db:"total"`
	Pending    int `db:"pending"`
	Processing int `db:"processing"`
	Failed     int `db:"failed"`
	Review     int `db:"review"`
	Completed  int `db:"completed"`
}

// Job represents an export job persisted in PostgreSQL.
type Job struct {
	ID              int64          `db:"id"`
	JobUUID         string         `db:"job_uuid"`
	BatchUUID       sql.NullString `db:"batch_uuid"`
	Task            string         `db:"task"`
	VideoURL        string         `db:"video_url"`
	ScenesURL       string         `db:"scenes_url"`
	DestinationURL  string         `db:"destination_url"`
	StartSeconds    float64        `db:"start_seconds"`
	EndSeconds      float64        `db:"end_seconds"`
	Subtitles       sql.NullString `db:"subtitles"`
	AspectRatio     string         `db:"aspect_ratio"`
	Status          Status         `db:"status"`
	ScenesFile      string         `db:"scenes_file"`
	RenderedFile    string         `db:"rendered_file"`
	ErrorMessage    string         `db:"error_message"`
	ProgressStage   string         `db:"progress_stage"`
	ProgressPercent float64        `db:"progress_percent"`
	ProgressMessage string         `db:"progress_message"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
	LastHeartbeat   *time.Time     `db:"last_heartbeat"`
	NeedsReview     bool           `db:"needs_review"`
	ReviewReason    string         `db:"review_reason"`
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight operation.
func (j Job) IsProcessing() bool {
	return IsProcessingStatus(j.Status)
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// IsTerminal reports whether a status is an end state.
func IsTerminal(status Status) bool {
	switch status {
	case StatusCompleted, StatusFailed, StatusReview:
		return true
	default:
		return false
	}
}

// Duration returns the configured clip window length in seconds.
func (j Job) Duration() float64 {
	return j.EndSeconds - j.StartSeconds
}

// SubtitlesPayload returns the base64 subtitle document, or "" when absent.
func (j Job) SubtitlesPayload() string {
	if j.Subtitles.Valid {
		return j.Subtitles.String
	}
	return ""
}

// BatchID returns the batch UUID, or "" for standalone submissions.
func (j Job) BatchID() string {
	if j.BatchUUID.Valid {
		return j.BatchUUID.String
	}
	return ""
}

// SetProgress updates all three progress fields together.
func (j *Job) SetProgress(stage, message string, percent float64) {
	j.ProgressStage = stage
	j.ProgressMessage = message
	j.ProgressPercent = percent
}

// SetFailed marks the job as failed with the given error message.
func (j *Job) SetFailed(message string) {
	j.Status = StatusFailed
	j.ErrorMessage = message
	j.ProgressPercent = 0
	j.ProgressMessage = message
	j.ProgressStage = "Failed"
	j.LastHeartbeat = nil
}

// SetReview parks the job for operator attention with the given reason.
func (j *Job) SetReview(reason string) {
	j.Status = StatusReview
	j.NeedsReview = true
	j.ReviewReason = reason
	j.ErrorMessage = reason
	j.ProgressMessage = reason
	j.ProgressStage = "Review"
	j.LastHeartbeat = nil
}

// StageLabel returns the human label for a status ("downloading" -> "Downloading").
func (s Status) StageLabel() string {
	raw := strings.ReplaceAll(string(s), "_", " ")
	if raw == "" {
		return ""
	}
	return strings.ToUpper(raw[:1]) + raw[1:]
}
