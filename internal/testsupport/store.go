package testsupport

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"reframe/internal/queue"
)

// MustOpenMockStore builds a queue.Store backed by sqlmock and registers
// cleanup. Callers script expectations on the returned mock.
func MustOpenMockStore(t testing.TB) (*queue.Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	store := queue.NewStoreWithDB(sqlx.NewDb(db, "postgres"))
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet sqlmock expectations: %v", err)
		}
		_ = store.Close()
	})
	return store, mock
}

var jobColumnNames = []string{
	"id", "job_uuid", "batch_uuid", "task", "video_url", "scenes_url", "destination_url",
	"start_seconds", "end_seconds", "subtitles", "aspect_ratio", "status", "scenes_file",
	"rendered_file", "error_message", "progress_stage", "progress_percent", "progress_message",
	"created_at", "updated_at", "last_heartbeat", "needs_review", "review_reason",
}

// JobRows builds a sqlmock result holding one job row with placeholder URLs.
func JobRows(id int64, status queue.Status) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(jobColumnNames).AddRow(
		id, uuid.NewString(), nil, queue.TaskExport,
		"https://cdn.example/video.mp4", "https://cdn.example/scenes.json",
		"https://account.blob.core.windows.net/clips/out.mp4",
		1.5, 9.25, nil, "9:16", string(status), "", "", "", "", 0.0, "",
		now, now, nil, false, "",
	)
}
