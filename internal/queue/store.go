package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"reframe/internal/config"
)

// Store manages job persistence backed by PostgreSQL.
type Store struct {
	db *sqlx.DB
}

// Open connects to the queue database, verifies connectivity, and applies the
// schema.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	db, err := sqlx.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if cfg.Database.MaxOpenConn > 0 {
		db.SetMaxOpenConns(cfg.Database.MaxOpenConn)
	}
	if cfg.Database.MaxIdleConn > 0 {
		db.SetMaxIdleConns(cfg.Database.MaxIdleConn)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewStoreWithDB wraps an existing connection. Used by tests with sqlmock.
func NewStoreWithDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// NewJobRequest carries the validated fields of a submission.
type NewJobRequest struct {
	VideoURL       string
	ScenesURL      string
	DestinationURL string
	StartSeconds   float64
	EndSeconds     float64
	Subtitles      string
	AspectRatio    string
	BatchUUID      string
}

// NewExport inserts a single export job in pending state.
func (s *Store) NewExport(ctx context.Context, req NewJobRequest) (*Job, error) {
	return s.insertJob(ctx, s.db, req)
}

// NewBatch inserts one job per entry under a shared batch UUID. The insert is
// transactional: either every entry is enqueued or none are.
func (s *Store) NewBatch(ctx context.Context, reqs []NewJobRequest) ([]*Job, error) {
	if len(reqs) == 0 {
		return nil, errors.New("queue: empty batch")
	}
	batchID := uuid.NewString()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin batch insert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	jobs := make([]*Job, 0, len(reqs))
	for _, req := range reqs {
		req.BatchUUID = batchID
		job, err := s.insertJob(ctx, tx, req)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit batch insert: %w", err)
	}
	return jobs, nil
}

type execQuerier interface {
	QueryRowxContext(ctx context.Context, query string, args ...any) *sqlx.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) insertJob(ctx context.Context, q execQuerier, req NewJobRequest) (*Job, error) {
	aspect := strings.TrimSpace(req.AspectRatio)
	if aspect == "" {
		aspect = "9:16"
	}
	var batch any
	if strings.TrimSpace(req.BatchUUID) != "" {
		batch = req.BatchUUID
	}
	var subtitles any
	if req.Subtitles != "" {
		subtitles = req.Subtitles
	}

	row := q.QueryRowxContext(ctx, `
        INSERT INTO export_jobs (
            job_uuid, batch_uuid, task, video_url, scenes_url, destination_url,
            start_seconds, end_seconds, subtitles, aspect_ratio, status
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING `+jobColumns,
		uuid.NewString(),
		batch,
		TaskExport,
		req.VideoURL,
		req.ScenesURL,
		req.DestinationURL,
		req.StartSeconds,
		req.EndSeconds,
		subtitles,
		aspect,
		StatusPending,
	)

	var job Job
	if err := row.StructScan(&job); err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return &job, nil
}

// GetByID fetches a job by identifier. Returns ErrNotFound when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Job, error) {
	var job Job
	err := s.db.QueryRowxContext(ctx,
		`SELECT `+jobColumns+` FROM export_jobs WHERE id = $1`, id,
	).StructScan(&job)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}

// List returns jobs, optionally filtered by status, oldest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM export_jobs`
	args := []any{}
	if len(statuses) > 0 {
		query += ` WHERE status = ANY($1)`
		args = append(args, pq.Array(statusStrings(statuses)))
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		var job Job
		if err := rows.StructScan(&job); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, &job)
	}
	return jobs, rows.Err()
}

// ListBatch returns the jobs sharing a batch UUID.
func (s *Store) ListBatch(ctx context.Context, batchID string) ([]*Job, error) {
	rows, err := s.db.QueryxContext(ctx,
		`SELECT `+jobColumns+` FROM export_jobs WHERE batch_uuid = $1 ORDER BY id`, batchID,
	)
	if err != nil {
		return nil, fmt.Errorf("list batch: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		var job Job
		if err := rows.StructScan(&job); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, &job)
	}
	return jobs, rows.Err()
}

// claimCase maps each claimable start status to its processing status inside
// a single UPDATE so a job can never be claimed twice.
var claimCase = func() string {
	var b strings.Builder
	b.WriteString("CASE status")
	for _, tr := range StageTransitions {
		fmt.Fprintf(&b, " WHEN '%s' THEN '%s'", tr.Start, tr.Processing)
	}
	b.WriteString(" END")
	return b.String()
}()

// Claim atomically moves the oldest eligible job into its processing status
// and returns it. Returns (nil, nil) when no work is available.
func (s *Store) Claim(ctx context.Context) (*Job, error) {
	starts := make([]string, 0, len(StageTransitions))
	for _, tr := range StageTransitions {
		starts = append(starts, string(tr.Start))
	}

	row := s.db.QueryRowxContext(ctx, `
        UPDATE export_jobs SET
            status = `+claimCase+`,
            last_heartbeat = NOW(),
            updated_at = NOW(),
            error_message = ''
        WHERE id = (
            SELECT id FROM export_jobs
            WHERE status = ANY($1)
            ORDER BY created_at, id
            LIMIT 1
            FOR UPDATE SKIP LOCKED
        )
        RETURNING `+jobColumns,
		pq.Array(starts),
	)

	var job Job
	err := row.StructScan(&job)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	return &job, nil
}

// Update persists the mutable fields of a job.
func (s *Store) Update(ctx context.Context, job *Job) error {
	var heartbeat any
	if job.LastHeartbeat != nil {
		heartbeat = *job.LastHeartbeat
	}
	res, err := s.db.ExecContext(ctx, `
        UPDATE export_jobs SET
            status = $2,
            scenes_file = $3,
            rendered_file = $4,
            error_message = $5,
            progress_stage = $6,
            progress_percent = $7,
            progress_message = $8,
            last_heartbeat = $9,
            needs_review = $10,
            review_reason = $11,
            updated_at = NOW()
        WHERE id = $1`,
		job.ID,
		job.Status,
		job.ScenesFile,
		job.RenderedFile,
		job.ErrorMessage,
		job.ProgressStage,
		job.ProgressPercent,
		job.ProgressMessage,
		heartbeat,
		job.NeedsReview,
		job.ReviewReason,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return requireRow(res, job.ID)
}

// UpdateProgress persists only the progress fields; cheaper than Update and
// safe to call from render callbacks.
func (s *Store) UpdateProgress(ctx context.Context, job *Job) error {
	res, err := s.db.ExecContext(ctx, `
        UPDATE export_jobs SET
            progress_stage = $2,
            progress_percent = $3,
            progress_message = $4,
            updated_at = NOW()
        WHERE id = $1`,
		job.ID, job.ProgressStage, job.ProgressPercent, job.ProgressMessage,
	)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return requireRow(res, job.ID)
}

// Heartbeat refreshes the liveness marker for an in-flight job.
func (s *Store) Heartbeat(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE export_jobs SET last_heartbeat = NOW() WHERE id = $1`, id,
	)
	if err != nil {
		return fmt.Errorf("heartbeat: %w", err)
	}
	return requireRow(res, id)
}

// ReclaimStale rolls processing jobs whose heartbeat exceeded timeoutSeconds
// back to their stage start status so another lane can pick them up. Returns
// the number of reclaimed jobs.
func (s *Store) ReclaimStale(ctx context.Context, timeoutSeconds int) (int64, error) {
	var total int64
	for _, tr := range StageTransitions {
		res, err := s.db.ExecContext(ctx, `
            UPDATE export_jobs SET
                status = $1,
                last_heartbeat = NULL,
                progress_message = 'Re-queued after stale heartbeat',
                updated_at = NOW()
            WHERE status = $2
              AND last_heartbeat IS NOT NULL
              AND last_heartbeat < NOW() - make_interval(secs => $3)`,
			tr.Start, tr.Processing, timeoutSeconds,
		)
		if err != nil {
			return total, fmt.Errorf("reclaim %s: %w", tr.Processing, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			total += n
		}
	}
	return total, nil
}

// RollbackProcessing returns every in-flight job to its stage start status.
// Called on daemon shutdown so interrupted work resumes on the next start.
func (s *Store) RollbackProcessing(ctx context.Context) (int64, error) {
	var total int64
	for _, tr := range StageTransitions {
		res, err := s.db.ExecContext(ctx, `
            UPDATE export_jobs SET
                status = $1,
                last_heartbeat = NULL,
                progress_message = $3,
                updated_at = NOW()
            WHERE status = $2`,
			tr.Start, tr.Processing, DaemonStopReason,
		)
		if err != nil {
			return total, fmt.Errorf("rollback %s: %w", tr.Processing, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			total += n
		}
	}
	return total, nil
}

// Retry resets a failed or review job to pending.
func (s *Store) Retry(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `
        UPDATE export_jobs SET
            status = $2,
            error_message = '',
            progress_stage = '',
            progress_percent = 0,
            progress_message = '',
            needs_review = FALSE,
            review_reason = '',
            last_heartbeat = NULL,
            updated_at = NOW()
        WHERE id = $1 AND status = ANY($3)`,
		id, StatusPending, pq.Array([]string{string(StatusFailed), string(StatusReview)}),
	)
	if err != nil {
		return fmt.Errorf("retry job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("retry job: %w", err)
	}
	if n == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrNotRetryable
	}
	return nil
}

// Remove deletes a job that reached a terminal state.
func (s *Store) Remove(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM export_jobs WHERE id = $1 AND status = ANY($2)`,
		id, pq.Array([]string{string(StatusCompleted), string(StatusFailed), string(StatusReview)}),
	)
	if err != nil {
		return fmt.Errorf("remove job: %w", err)
	}
	return requireRow(res, id)
}

// ClearCompleted deletes all completed jobs and returns the removed count.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM export_jobs WHERE status = $1`, StatusCompleted,
	)
	if err != nil {
		return 0, fmt.Errorf("clear completed: %w", err)
	}
	return res.RowsAffected()
}

// Health aggregates queue counts per lifecycle bucket.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	var summary HealthSummary
	err := s.db.QueryRowxContext(ctx, `
        SELECT
            COUNT(*) AS total,
            COUNT(*) FILTER (WHERE status = 'pending') AS pending,
            COUNT(*) FILTER (WHERE status = ANY($1)) AS processing,
            COUNT(*) FILTER (WHERE status = 'failed') AS failed,
            COUNT(*) FILTER (WHERE status = 'review') AS review,
            COUNT(*) FILTER (WHERE status = 'completed') AS completed
        FROM export_jobs`,
		pq.Array([]string{string(StatusDownloading), string(StatusRendering), string(StatusUploading)}),
	).StructScan(&summary)
	if err != nil {
		return HealthSummary{}, fmt.Errorf("queue health: %w", err)
	}
	return summary, nil
}

func requireRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return nil
}

func statusStrings(statuses []Status) []string {
	out := make([]string, 0, len(statuses))
	for _, status := range statuses {
		out = append(out, string(status))
	}
	return out
}
