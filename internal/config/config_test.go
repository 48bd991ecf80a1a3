package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Paths.APIBind != ":8000" {
		t.Fatalf("unexpected default api bind: %q", cfg.Paths.APIBind)
	}
}

func TestLoadMissingExplicitPathFails(t *testing.T) {
	_, _, _, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config path")
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
staging_dir = "` + filepath.Join(dir, "staging") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"
api_bind = "127.0.0.1:9100"

[database]
host = "db.internal"
port = 5433
name = "clips"
user = "worker"
ssl_mode = "require"

[workflow]
lanes = 4
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, usedDefaults, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if usedDefaults {
		t.Fatal("expected file to be loaded")
	}
	if resolved != path {
		t.Fatalf("unexpected resolved path: %s", resolved)
	}
	if cfg.Paths.APIBind != "127.0.0.1:9100" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Database.Host != "db.internal" || cfg.Database.Port != 5433 {
		t.Fatalf("unexpected database settings: %+v", cfg.Database)
	}
	if cfg.Workflow.Lanes != 4 {
		t.Fatalf("unexpected lanes: %d", cfg.Workflow.Lanes)
	}
	// Untouched sections keep defaults.
	if cfg.Render.SceneWorkers != defaultSceneWorkers {
		t.Fatalf("unexpected scene workers: %d", cfg.Render.SceneWorkers)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[render]
aspect_width = 0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected validation failure for zero aspect width")
	}
}

func TestDSNPrefersEnvPassword(t *testing.T) {
	db := Database{
		Host:        "localhost",
		Port:        5432,
		Name:        "reframe",
		User:        "reframe",
		Password:    "from-file",
		PasswordEnv: "REFRAME_TEST_DB_PASSWORD",
		SSLMode:     "disable",
	}
	t.Setenv("REFRAME_TEST_DB_PASSWORD", "from-env")
	dsn := db.DSN()
	if !strings.Contains(dsn, "password=from-env") {
		t.Fatalf("expected env password in DSN, got %q", dsn)
	}
	if !strings.Contains(dsn, "host=localhost") || !strings.Contains(dsn, "dbname=reframe") {
		t.Fatalf("unexpected DSN: %q", dsn)
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if _, err := WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	if _, err := WriteSample(path); err == nil {
		t.Fatal("expected overwrite refusal")
	}
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}
	got, err := expandPath("~/x")
	if err != nil {
		t.Fatalf("expandPath: %v", err)
	}
	if got != filepath.Join(home, "x") {
		t.Fatalf("unexpected expansion: %s", got)
	}
}
