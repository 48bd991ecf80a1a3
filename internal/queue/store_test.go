package queue

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewStoreWithDB(sqlx.NewDb(db, "sqlmock")), mock
}

var jobColumnNames = []string{
	"id", "job_uuid", "batch_uuid", "task", "video_url", "scenes_url", "destination_url",
	"start_seconds", "end_seconds", "subtitles", "aspect_ratio", "status", "scenes_file",
	"rendered_file", "error_message", "progress_stage", "progress_percent", "progress_message",
	"created_at", "updated_at", "last_heartbeat", "needs_review", "review_reason",
}

func jobRow(id int64, status Status) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(jobColumnNames).AddRow(
		id, "f2fce1be-9ba8-4699-a3ee-b15b5b4b9345", nil, TaskExport,
		"https://cdn.example/video.mp4", "https://cdn.example/scenes.json",
		"https://account.blob.core.windows.net/clips/out.mp4",
		1.5, 9.25, nil, "9:16", string(status), "", "", "", "", 0.0, "",
		now, now, nil, false, "",
	)
}

func TestGetByID(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT .+ FROM export_jobs WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(jobRow(7, StatusPending))

	job, err := store.GetByID(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if job.ID != 7 || job.Status != StatusPending {
		t.Fatalf("unexpected job: %+v", job)
	}
	if job.Duration() != 7.75 {
		t.Fatalf("unexpected duration: %v", job.Duration())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT .+ FROM export_jobs WHERE id = \$1`).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	if _, err := store.GetByID(context.Background(), 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClaimReturnsNilWhenQueueEmpty(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`UPDATE export_jobs SET`).
		WillReturnError(sql.ErrNoRows)

	job, err := store.Claim(context.Background())
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if job != nil {
		t.Fatalf("expected nil job, got %+v", job)
	}
}

func TestClaimMovesJobIntoProcessing(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`UPDATE export_jobs SET`).
		WillReturnRows(jobRow(3, StatusDownloading))

	job, err := store.Claim(context.Background())
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if job == nil || job.Status != StatusDownloading {
		t.Fatalf("expected claimed job in downloading, got %+v", job)
	}
}

func TestRetryRejectsNonTerminalJob(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`UPDATE export_jobs SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT .+ FROM export_jobs WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnRows(jobRow(5, StatusRendering))

	err := store.Retry(context.Background(), 5)
	if !errors.Is(err, ErrNotRetryable) {
		t.Fatalf("expected ErrNotRetryable, got %v", err)
	}
}

func TestReclaimStaleCountsAllTransitions(t *testing.T) {
	store, mock := newMockStore(t)
	for range StageTransitions {
		mock.ExpectExec(`UPDATE export_jobs SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}

	n, err := store.ReclaimStale(context.Background(), 120)
	if err != nil {
		t.Fatalf("ReclaimStale: %v", err)
	}
	if n != int64(len(StageTransitions)) {
		t.Fatalf("expected %d reclaimed, got %d", len(StageTransitions), n)
	}
}

func TestHealthScan(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT`).
		WillReturnRows(sqlmock.NewRows([]string{"total", "pending", "processing", "failed", "review", "completed"}).
			AddRow(10, 4, 2, 1, 1, 2))

	summary, err := store.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if summary.Total != 10 || summary.Processing != 2 || summary.Review != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestRollbackStatus(t *testing.T) {
	for _, tr := range StageTransitions {
		got, ok := RollbackStatus(tr.Processing)
		if !ok || got != tr.Start {
			t.Fatalf("RollbackStatus(%s) = %s, %v", tr.Processing, got, ok)
		}
	}
	if _, ok := RollbackStatus(StatusCompleted); ok {
		t.Fatal("completed must not be reclaimable")
	}
}
