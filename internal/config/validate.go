package config

import (
	"fmt"
	"strings"
)

// Validate checks the configuration for values that would break the daemon at
// runtime. It returns the first problem found.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		return fmt.Errorf("config: staging_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return fmt.Errorf("config: log_dir must be set")
	}
	if strings.TrimSpace(c.Paths.APIBind) == "" {
		return fmt.Errorf("config: api_bind must be set")
	}
	if strings.TrimSpace(c.Database.Host) == "" {
		return fmt.Errorf("config: database host must be set")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("config: database port %d out of range", c.Database.Port)
	}
	if strings.TrimSpace(c.Database.Name) == "" {
		return fmt.Errorf("config: database name must be set")
	}
	if strings.TrimSpace(c.Database.User) == "" {
		return fmt.Errorf("config: database user must be set")
	}
	switch c.Database.SSLMode {
	case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
	default:
		return fmt.Errorf("config: unsupported ssl_mode %q", c.Database.SSLMode)
	}
	if c.Render.AspectWidth <= 0 || c.Render.AspectHeight <= 0 {
		return fmt.Errorf("config: aspect ratio %d:%d invalid", c.Render.AspectWidth, c.Render.AspectHeight)
	}
	if c.Render.SceneWorkers < 1 {
		return fmt.Errorf("config: scene_workers must be at least 1")
	}
	if c.Workflow.Lanes < 1 {
		return fmt.Errorf("config: workflow lanes must be at least 1")
	}
	if c.Workflow.QueuePollInterval < 1 {
		return fmt.Errorf("config: queue_poll_interval must be at least 1 second")
	}
	if c.Workflow.HeartbeatInterval < 1 || c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return fmt.Errorf("config: heartbeat_timeout must exceed heartbeat_interval")
	}
	if c.DownloadCache.Enabled {
		if strings.TrimSpace(c.DownloadCache.Dir) == "" {
			return fmt.Errorf("config: download_cache dir must be set when enabled")
		}
		if c.DownloadCache.MaxGiB < 1 {
			return fmt.Errorf("config: download_cache max_gib must be at least 1")
		}
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "console", "json":
	default:
		return fmt.Errorf("config: unsupported log format %q", c.Logging.Format)
	}
	return nil
}
