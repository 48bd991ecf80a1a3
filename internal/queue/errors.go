package queue

import "errors"

// ErrNotFound is returned when a job lookup matches no row.
var ErrNotFound = errors.New("queue: job not found")

// ErrNotRetryable is returned when a retry is requested for a job that is not
// in a failed or review state.
var ErrNotRetryable = errors.New("queue: job is not in a retryable state")
