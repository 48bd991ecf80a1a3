// Package logging configures slog for the daemon and CLI and standardizes the
// structured fields used across the pipeline (component, job_id, stage, lane).
package logging
