package services

import (
	"errors"
	"fmt"
	"strings"

	"reframe/internal/queue"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later status classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureStatus maps a stage error to the queue status the workflow manager
// should persist after the stage fails. Validation and configuration problems
// need operator attention rather than a blind retry.
func FailureStatus(err error) queue.Status {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration), errors.Is(err, ErrNotFound):
		return queue.StatusReview
	default:
		return queue.StatusFailed
	}
}

// ErrorDetails captures the classified category and human message of an error.
type ErrorDetails struct {
	Category string
	Message  string
}

var markerNames = []struct {
	marker error
	name   string
}{
	{ErrExternalTool, "external_tool"},
	{ErrValidation, "validation"},
	{ErrConfiguration, "configuration"},
	{ErrNotFound, "not_found"},
	{ErrTimeout, "timeout"},
	{ErrTransient, "transient"},
}

// Details classifies an error produced by Wrap and strips the marker prefix
// from the message so operator-facing surfaces stay readable.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{}
	}
	details := ErrorDetails{Message: err.Error()}
	for _, entry := range markerNames {
		if errors.Is(err, entry.marker) {
			details.Category = entry.name
			prefix := entry.marker.Error() + ": "
			details.Message = strings.TrimPrefix(details.Message, prefix)
			break
		}
	}
	return details
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
