package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	StagingDir string `toml:"staging_dir"`
	LogDir     string `toml:"log_dir"`
	APIBind    string `toml:"api_bind"`
}

// Database contains PostgreSQL connection settings for the job queue.
type Database struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	Name        string `toml:"name"`
	User        string `toml:"user"`
	Password    string `toml:"password"`
	PasswordEnv string `toml:"password_env"`
	SSLMode     string `toml:"ssl_mode"`
	MaxOpenConn int    `toml:"max_open_conns"`
	MaxIdleConn int    `toml:"max_idle_conns"`
}

// DSN assembles a libpq keyword/value connection string. When PasswordEnv is
// set and the named variable is non-empty it takes precedence over Password.
func (d Database) DSN() string {
	password := d.Password
	if env := strings.TrimSpace(d.PasswordEnv); env != "" {
		if value := os.Getenv(env); value != "" {
			password = value
		}
	}
	parts := []string{
		fmt.Sprintf("host=%s", d.Host),
		fmt.Sprintf("port=%d", d.Port),
		fmt.Sprintf("dbname=%s", d.Name),
		fmt.Sprintf("user=%s", d.User),
		fmt.Sprintf("sslmode=%s", d.SSLMode),
	}
	if password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", password))
	}
	return strings.Join(parts, " ")
}

// Render contains clip rendering settings.
type Render struct {
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
	AspectWidth   int    `toml:"aspect_width"`
	AspectHeight  int    `toml:"aspect_height"`
	SceneWorkers  int    `toml:"scene_workers"`
}

// Azure contains blob storage upload configuration. The connection string is
// sourced from the environment rather than the config file so credentials do
// not land on disk.
type Azure struct {
	ConnectionStringEnv string `toml:"connection_string_env"`
	UploadConcurrency   int    `toml:"upload_concurrency"`
	TimeoutSeconds      int    `toml:"timeout_seconds"`
}

// DownloadCache contains configuration for the scene document cache.
type DownloadCache struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
	MaxGiB  int    `toml:"max_gib"`
}

// Workflow contains configuration for daemon timing and intervals.
type Workflow struct {
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	HeartbeatInterval  int `toml:"heartbeat_interval"`
	HeartbeatTimeout   int `toml:"heartbeat_timeout"`
	Lanes              int `toml:"lanes"`
}

// Notifications contains configuration for webhook push notifications.
type Notifications struct {
	WebhookURL     string `toml:"webhook_url"`
	RequestTimeout int    `toml:"request_timeout"`
	Completed      bool   `toml:"completed"`
	Failed         bool   `toml:"failed"`
	Batch          bool   `toml:"batch"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for reframe.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Database      Database      `toml:"database"`
	Render        Render        `toml:"render"`
	Azure         Azure         `toml:"azure"`
	DownloadCache DownloadCache `toml:"download_cache"`
	Workflow      Workflow      `toml:"workflow"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/reframe/config.toml")
}

// Load locates, parses, and validates a configuration file. When path is empty
// the default location is used; a missing file yields defaults. The returned
// bool reports whether defaults were used because no file was found.
func Load(path string) (*Config, string, bool, error) {
	resolved := strings.TrimSpace(path)
	if resolved == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return nil, "", false, err
		}
		resolved = defaultPath
	} else {
		expanded, err := expandPath(resolved)
		if err != nil {
			return nil, "", false, err
		}
		resolved = expanded
	}

	cfg := Default()
	data, err := os.ReadFile(resolved)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if strings.TrimSpace(path) != "" {
			return nil, resolved, false, fmt.Errorf("config file not found: %s", resolved)
		}
		if err := cfg.normalize(); err != nil {
			return nil, resolved, true, err
		}
		return &cfg, resolved, true, nil
	case err != nil:
		return nil, resolved, false, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, resolved, false, fmt.Errorf("parse config %s: %w", resolved, err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, resolved, false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, resolved, false, err
	}
	return &cfg, resolved, false, nil
}

// WriteSample writes the embedded sample configuration to the given path,
// refusing to overwrite an existing file.
func WriteSample(path string) (string, error) {
	expanded, err := expandPath(path)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(expanded); err == nil {
		return "", fmt.Errorf("config file already exists: %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return "", fmt.Errorf("write sample config: %w", err)
	}
	return expanded, nil
}

// EnsureDirectories creates the directories the daemon writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.StagingDir, c.Paths.LogDir}
	if c.DownloadCache.Enabled && strings.TrimSpace(c.DownloadCache.Dir) != "" {
		dirs = append(dirs, c.DownloadCache.Dir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

func (c *Config) normalize() error {
	fields := []*string{
		&c.Paths.StagingDir,
		&c.Paths.LogDir,
		&c.DownloadCache.Dir,
	}
	for _, field := range fields {
		expanded, err := expandPath(*field)
		if err != nil {
			return err
		}
		*field = expanded
	}
	return nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		trimmed = filepath.Join(home, trimmed[2:])
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve path %s: %w", path, err)
	}
	return abs, nil
}
