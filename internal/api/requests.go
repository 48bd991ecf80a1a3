package api

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"reframe/internal/queue"
	"reframe/internal/services"
)

// IsBatch reports whether the request targets the batch submission path.
func (r SubmitRequest) IsBatch() bool {
	return strings.TrimSpace(r.Task) == TaskBatchExport
}

// Validate checks the submission against the accepted contract. Failures
// carry the validation marker so callers can answer with a client error.
func (r SubmitRequest) Validate() error {
	switch strings.TrimSpace(r.Task) {
	case TaskExport:
		return r.ExportRequest.Validate()
	case TaskBatchExport:
		if len(r.Batch) == 0 {
			return validationError("batch must contain at least one export")
		}
		for i, entry := range r.Batch {
			if err := entry.Validate(); err != nil {
				return validationError(fmt.Sprintf("batch entry %d: %s", i, services.Details(err).Message))
			}
		}
		return nil
	case "":
		return validationError("task is required")
	default:
		return validationError(fmt.Sprintf("unknown task %q", r.Task))
	}
}

// Validate checks a single export entry.
func (r ExportRequest) Validate() error {
	if strings.TrimSpace(r.VideoURL) == "" {
		return validationError("video_url is required")
	}
	if strings.TrimSpace(r.ScenesURL) == "" {
		return validationError("scenes_url is required")
	}
	if strings.TrimSpace(r.DestinationURL) == "" {
		return validationError("destination_url is required")
	}
	if r.Start < 0 {
		return validationError("start must not be negative")
	}
	if r.End <= r.Start {
		return validationError("end must be greater than start")
	}
	if r.Subtitles != "" {
		if _, err := base64.StdEncoding.DecodeString(r.Subtitles); err != nil {
			return validationError("subtitles must be base64 encoded")
		}
	}
	if r.AspectRatio != "" {
		if err := validateAspectRatio(r.AspectRatio); err != nil {
			return err
		}
	}
	return nil
}

// JobRequests converts a validated submission into queue insert requests.
func (r SubmitRequest) JobRequests() []queue.NewJobRequest {
	entries := r.Batch
	if !r.IsBatch() {
		entries = []ExportRequest{r.ExportRequest}
	}
	reqs := make([]queue.NewJobRequest, 0, len(entries))
	for _, entry := range entries {
		reqs = append(reqs, queue.NewJobRequest{
			VideoURL:       strings.TrimSpace(entry.VideoURL),
			ScenesURL:      strings.TrimSpace(entry.ScenesURL),
			DestinationURL: strings.TrimSpace(entry.DestinationURL),
			StartSeconds:   entry.Start,
			EndSeconds:     entry.End,
			Subtitles:      entry.Subtitles,
			AspectRatio:    strings.TrimSpace(entry.AspectRatio),
		})
	}
	return reqs
}

func validateAspectRatio(value string) error {
	width, height, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return validationError("aspect_ratio must use the W:H form")
	}
	w, err := strconv.Atoi(width)
	if err != nil || w <= 0 {
		return validationError("aspect_ratio width must be a positive integer")
	}
	h, err := strconv.Atoi(height)
	if err != nil || h <= 0 {
		return validationError("aspect_ratio height must be a positive integer")
	}
	return nil
}

func validationError(message string) error {
	return services.Wrap(services.ErrValidation, "api", "validate submission", message, nil)
}
