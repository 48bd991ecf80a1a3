package api

import (
	"context"

	"reframe/internal/queue"
)

// QueueReader abstracts queue persistence interactions needed for API queries.
type QueueReader interface {
	List(ctx context.Context, statuses ...queue.Status) ([]*queue.Job, error)
	GetByID(ctx context.Context, id int64) (*queue.Job, error)
	Health(ctx context.Context) (queue.HealthSummary, error)
}

// QueueService exposes read-only queue operations returning API DTOs.
type QueueService struct {
	store QueueReader
}

// NewQueueService constructs a QueueService around the provided reader.
func NewQueueService(store QueueReader) *QueueService {
	if store == nil {
		return nil
	}
	return &QueueService{store: store}
}

// List returns jobs filtered by status.
func (s *QueueService) List(ctx context.Context, statuses ...queue.Status) ([]JobView, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	jobs, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return FromJobs(jobs), nil
}

// Describe fetches a single job. A nil view with nil error means not found.
func (s *QueueService) Describe(ctx context.Context, id int64) (*JobView, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	job, err := s.store.GetByID(ctx, id)
	if err != nil || job == nil {
		return nil, err
	}
	view := FromJob(job)
	return &view, nil
}

// Counts returns aggregated queue totals.
func (s *QueueService) Counts(ctx context.Context) (QueueStats, error) {
	if s == nil || s.store == nil {
		return QueueStats{}, nil
	}
	counts, err := s.store.Health(ctx)
	if err != nil {
		return QueueStats{}, err
	}
	return FromHealthSummary(counts), nil
}
