package stage

import (
	"context"
	"log/slog"

	"reframe/internal/queue"
)

// Handler describes the contract the workflow manager needs from each stage.
type Handler interface {
	Prepare(context.Context, *queue.Job) error
	Execute(context.Context, *queue.Job) error
	HealthCheck(context.Context) Health
}

// LoggerAware is implemented by handlers that accept a per-job logger.
type LoggerAware interface {
	SetLogger(logger *slog.Logger)
}
