package queue

// Schema is applied at startup. CREATE IF NOT EXISTS keeps restarts and
// multiple daemon replicas safe; columns are only ever added by migrations.
const schema = `
CREATE TABLE IF NOT EXISTS export_jobs (
    id               BIGSERIAL PRIMARY KEY,
    job_uuid         UUID NOT NULL UNIQUE,
    batch_uuid       UUID,
    task             TEXT NOT NULL,
    video_url        TEXT NOT NULL,
    scenes_url       TEXT NOT NULL,
    destination_url  TEXT NOT NULL,
    start_seconds    DOUBLE PRECISION NOT NULL,
    end_seconds      DOUBLE PRECISION NOT NULL,
    subtitles        TEXT,
    aspect_ratio     TEXT NOT NULL DEFAULT '9:16',
    status           TEXT NOT NULL DEFAULT 'pending',
    scenes_file      TEXT NOT NULL DEFAULT '',
    rendered_file    TEXT NOT NULL DEFAULT '',
    error_message    TEXT NOT NULL DEFAULT '',
    progress_stage   TEXT NOT NULL DEFAULT '',
    progress_percent DOUBLE PRECISION NOT NULL DEFAULT 0,
    progress_message TEXT NOT NULL DEFAULT '',
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    last_heartbeat   TIMESTAMPTZ,
    needs_review     BOOLEAN NOT NULL DEFAULT FALSE,
    review_reason    TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS export_jobs_status_created_idx
    ON export_jobs (status, created_at);

CREATE INDEX IF NOT EXISTS export_jobs_batch_idx
    ON export_jobs (batch_uuid)
    WHERE batch_uuid IS NOT NULL;
`

const jobColumns = `id, job_uuid, batch_uuid, task, video_url, scenes_url, destination_url,
    start_seconds, end_seconds, subtitles, aspect_ratio, status, scenes_file, rendered_file,
    error_message, progress_stage, progress_percent, progress_message,
    created_at, updated_at, last_heartbeat, needs_review, review_reason`
