// Package config loads, validates, and defaults the TOML configuration for
// the reframe daemon and CLI.
//
// Configuration sections by subsystem:
//   - Paths: staging/log directories and the API bind address
//   - Database: PostgreSQL connection settings for the job queue
//   - Render: ffmpeg/ffprobe binaries, target aspect ratio, scene workers
//   - Azure: blob upload credentials source and tuning
//   - DownloadCache: cached scene documents for repeated exports
//   - Workflow: polling intervals, heartbeats, lane count
//   - Notifications: webhook push notification settings
//   - Logging: log format, level, and retention
package config
